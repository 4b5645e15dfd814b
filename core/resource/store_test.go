package resource

import (
	"testing"

	"github.com/timewave-computer/causality-sub001/core/content"
)

func TestCreateAndGetResource(t *testing.T) {
	s := NewStore()
	r := &Resource{Domain: "d1", Value: mustID(t, "v1"), TypeExprID: mustID(t, "t1")}

	id, err := s.CreateResource(r)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.GetResource(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Domain != "d1" {
		t.Fatalf("got domain %s", got.Domain)
	}
}

func TestCreateResourceCollision(t *testing.T) {
	s := NewStore()
	r1 := &Resource{Domain: "d1", Value: mustID(t, "v1"), TypeExprID: mustID(t, "t1")}
	r2 := &Resource{Domain: "d1", Value: mustID(t, "v1"), TypeExprID: mustID(t, "t1")}

	if _, err := s.CreateResource(r1); err != nil {
		t.Fatalf("create r1: %v", err)
	}
	_, err := s.CreateResource(r2)
	if err == nil {
		t.Fatalf("expected AlreadyExists on identical resource")
	}
	if err.(*Error).Kind != KindAlreadyExists {
		t.Fatalf("got kind %s", err.(*Error).Kind)
	}
}

func TestNullifyTwiceFails(t *testing.T) {
	s := NewStore()
	r := &Resource{Domain: "d1", Value: mustID(t, "v1"), TypeExprID: mustID(t, "t1")}
	id, _ := s.CreateResource(r)

	if err := s.Nullify(id); err != nil {
		t.Fatalf("first nullify: %v", err)
	}
	if !s.IsNullified(id) {
		t.Fatalf("expected nullified")
	}
	err := s.Nullify(id)
	if err == nil || err.(*Error).Kind != KindNullifierAlreadyConsumed {
		t.Fatalf("expected NullifierAlreadyConsumed, got %v", err)
	}
}

func TestRegisterLifecycle(t *testing.T) {
	s := NewStore()
	r, err := s.CreateRegister("alice", "d1", []byte("hello"), nil)
	if err != nil {
		t.Fatalf("create register: %v", err)
	}
	if r.State != StateActive || r.Version != 1 {
		t.Fatalf("unexpected initial state: %+v", r)
	}

	if err := s.LockRegister("d1", r.ID); err != nil {
		t.Fatalf("lock: %v", err)
	}
	locked, _ := s.GetRegister(r.ID)
	if locked.State != StateLocked || locked.Version != 2 {
		t.Fatalf("unexpected locked state: %+v", locked)
	}

	if err := s.ConsumeRegister("d1", r.ID); err != nil {
		t.Fatalf("consume: %v", err)
	}
	consumed, _ := s.GetRegister(r.ID)
	if consumed.State != StateConsumed {
		t.Fatalf("expected Consumed, got %s", consumed.State)
	}

	if err := s.ArchiveRegister("d1", r.ID); err == nil {
		t.Fatalf("expected InvalidStateTransition from Consumed")
	}
}

func TestRegisterOwnershipViolation(t *testing.T) {
	s := NewStore()
	r, _ := s.CreateRegister("alice", "d1", []byte("hello"), nil)

	err := s.UpdateRegister("d2", r.ID, []byte("tampered"), nil)
	if err == nil || err.(*Error).Kind != KindOwnershipViolation {
		t.Fatalf("expected OwnershipViolation, got %v", err)
	}
}

func TestDomainLogRecordsMutations(t *testing.T) {
	s := NewStore()
	r, _ := s.CreateRegister("alice", "d1", []byte("hello"), nil)
	_ = s.LockRegister("d1", r.ID)

	log := s.DomainLog("d1")
	if len(log) != 2 {
		t.Fatalf("expected 2 log entries, got %d: %v", len(log), log)
	}
}

func mustID(t *testing.T, seed string) content.ID {
	t.Helper()
	id, err := content.Derive(struct{ Seed string }{Seed: seed})
	if err != nil {
		t.Fatalf("derive id: %v", err)
	}
	return id
}
