package content

import "testing"

type sampleEntity struct {
	Domain string
	Value  int
}

func TestDeriveIsDeterministic(t *testing.T) {
	a := sampleEntity{Domain: "ethereum", Value: 42}
	idA, err := Derive(a)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	idB, err := Derive(sampleEntity{Domain: "ethereum", Value: 42})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if idA != idB {
		t.Fatalf("identical content produced different ids: %s != %s", idA, idB)
	}

	idC, err := Derive(sampleEntity{Domain: "cosmos", Value: 42})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if idA == idC {
		t.Fatalf("different content produced identical ids")
	}
}

func TestVerifyIntegrity(t *testing.T) {
	v := sampleEntity{Domain: "ethereum", Value: 7}
	id, err := Derive(v)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	ok, err := VerifyIntegrity(v, id)
	if err != nil || !ok {
		t.Fatalf("expected integrity check to pass, ok=%v err=%v", ok, err)
	}

	ok, err = VerifyIntegrity(sampleEntity{Domain: "ethereum", Value: 8}, id)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatalf("expected integrity check to fail for mutated content")
	}
}

func TestParseIDRoundTrip(t *testing.T) {
	id, err := Derive(sampleEntity{Domain: "x", Value: 1})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	parsed, err := ParseID(id.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != id {
		t.Fatalf("round trip mismatch")
	}
}

func TestCID(t *testing.T) {
	id, err := Derive(sampleEntity{Domain: "x", Value: 1})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	c, err := id.CID()
	if err != nil {
		t.Fatalf("cid: %v", err)
	}
	if c.String() == "" {
		t.Fatalf("expected non-empty cid string")
	}
}
