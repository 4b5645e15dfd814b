package effect

import (
	"testing"

	"github.com/timewave-computer/causality-sub001/core/resource"
)

type echoHandler struct {
	domain resource.DomainID
	typ    string
}

func (h *echoHandler) DomainID() resource.DomainID { return h.domain }
func (h *echoHandler) CanHandle(e *Effect) bool     { return e.EffectType == h.typ }
func (h *echoHandler) HandleDomainEffect(e *Effect, ctx *Context) (*Outcome, error) {
	return Success(map[string]string{"echo": e.EffectType}), nil
}

func TestDispatchFirstCanHandleWins(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterDomainHandler(&echoHandler{domain: "d1", typ: "a"})
	reg.RegisterDomainHandler(&echoHandler{domain: "d1", typ: "b"})

	e := NewEffect("d1", "b", nil)
	out, err := reg.Dispatch(e, NewContext(e.ID))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out.Status != StatusSuccess || out.Data["echo"] != "b" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestDispatchHandlerNotFound(t *testing.T) {
	reg := NewRegistry()
	e := NewEffect("d1", "missing", nil)
	_, err := reg.Dispatch(e, NewContext(e.ID))
	if err == nil {
		t.Fatalf("expected handler-not-found error")
	}
	if err.(*Error).Kind != KindHandlerNotFound {
		t.Fatalf("got kind %s", err.(*Error).Kind)
	}
}

type crossEchoHandler struct {
	pairs []DomainPair
}

func (h *crossEchoHandler) SupportedDomains() []DomainPair { return h.pairs }
func (h *crossEchoHandler) HandleCrossDomainEffect(e *Effect, srcCtx, dstCtx *Context) (*Outcome, error) {
	domainID, _ := dstCtx.Metadata("domain_id")
	return Success(map[string]string{"dst_domain": domainID}), nil
}

func TestDispatchCrossDomainAdaptsContext(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCrossDomainHandler(&crossEchoHandler{pairs: []DomainPair{{Src: "a", Dst: "b"}}})

	mapping := NewDomainCapabilityMapping("a", "b")
	mapping.MapCapability("read", "read_b", true)
	mapping.AddMapping()

	e := NewEffect("a", "transfer", map[string]string{"amount": "hello"})
	e.ID = "eff-1"
	ctx := NewContext(e.ID).WithCapability("read")

	out, err := reg.DispatchCrossDomain(e, "a", "b", ctx, mapping)
	if err != nil {
		t.Fatalf("dispatch cross domain: %v", err)
	}
	if out.Data["dst_domain"] != "b" {
		t.Fatalf("expected dst_domain=b, got %+v", out.Data)
	}
}

func TestWildcardDomainPairMatches(t *testing.T) {
	p := DomainPair{Src: "*", Dst: "b"}
	if !p.matches("anything", "b") {
		t.Fatalf("expected wildcard src to match")
	}
	if p.matches("anything", "c") {
		t.Fatalf("expected mismatch on dst")
	}
}

func TestContextImmutability(t *testing.T) {
	root := NewContext("eff")
	child := root.WithCapability("cap1")
	if root.HasCapability("cap1") {
		t.Fatalf("root must not see child capability")
	}
	if !child.HasCapability("cap1") {
		t.Fatalf("child must see its own capability")
	}
}
