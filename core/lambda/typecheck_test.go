package lambda

import "testing"

func TestBasicTyping(t *testing.T) {
	term := TensorIntro(LitInt(42), LitBool(true))
	ty, err := TypeCheck(term, NewContext())
	if err != nil {
		t.Fatalf("type check: %v", err)
	}
	want := ProductT(BaseT(BaseInt), BaseT(BaseBool))
	if !ty.Equal(want) {
		t.Fatalf("got %s, want %s", ty, want)
	}
}

func TestSessionSendReceiveClose(t *testing.T) {
	// ch: Session(Send(Int, Receive(Bool, End)))
	sessionTy := SendS(BaseT(BaseInt), ReceiveS(BaseT(BaseBool), EndS()))

	ctx := NewContext()
	ctx.BindChannel("ch", sessionTy)

	sendTy, err := TypeCheck(Send("ch", LitInt(42)), ctx)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !sendTy.Equal(BaseT(BaseUnit)) {
		t.Fatalf("send result: got %s, want Unit", sendTy)
	}
	cur, _ := ctx.ChannelType("ch")
	if !cur.Equal(ReceiveS(BaseT(BaseBool), EndS())) {
		t.Fatalf("channel after send: got %s", cur)
	}

	recvTy, err := TypeCheck(Receive("ch"), ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !recvTy.Equal(BaseT(BaseBool)) {
		t.Fatalf("receive result: got %s, want Bool", recvTy)
	}
	cur, _ = ctx.ChannelType("ch")
	if !cur.IsEnd() {
		t.Fatalf("channel after receive: got %s, want End", cur)
	}

	closeTy, err := TypeCheck(Close("ch"), ctx)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !closeTy.Equal(BaseT(BaseUnit)) {
		t.Fatalf("close result: got %s, want Unit", closeTy)
	}
	if _, err := ctx.ChannelType("ch"); err == nil {
		t.Fatalf("expected channel to be removed after close")
	}
}

func TestLinearityViolationOnReuse(t *testing.T) {
	// let x = lambda y. y in apply(x, apply(x, unit))
	identity := Lambda("y", nil, Var("y"))
	body := Apply(Var("x"), Apply(Var("x"), LitUnit()))
	term := Let("x", identity, body)

	_, err := TypeCheck(term, NewContext())
	if err == nil {
		t.Fatalf("expected linearity violation")
	}
	te, ok := err.(*TypeError)
	if !ok {
		t.Fatalf("expected *TypeError, got %T", err)
	}
	if te.Kind != KindLinearityViolation {
		t.Fatalf("got kind %s, want LinearityViolation", te.Kind)
	}
}

func TestInlPayloadMismatchRejected(t *testing.T) {
	sum := SumT(BaseT(BaseInt), BaseT(BaseBool))
	// Inl with mismatched payload type must fail with TypeMismatch, not
	// coerce.
	term := Inl(LitBool(true), sum)
	_, err := TypeCheck(term, NewContext())
	if err == nil {
		t.Fatalf("expected type mismatch for Inl(Bool) against Sum(Int,Bool)")
	}
	te := err.(*TypeError)
	if te.Kind != KindTypeMismatch {
		t.Fatalf("got kind %s, want TypeMismatch", te.Kind)
	}
}

func TestDualIsInvolutive(t *testing.T) {
	s := SendS(BaseT(BaseInt), EndS())
	d := Dual(s)
	if !d.IsReceive() || !d.Continuation().IsEnd() {
		t.Fatalf("dual of Send(Int,End) should be Receive(Int,End), got %s", d)
	}
	if !Dual(Dual(s)).Equal(s) {
		t.Fatalf("dual must be involutive")
	}
}

func TestForkBindsDualSessionTypes(t *testing.T) {
	s := SendS(BaseT(BaseInt), EndS())
	body := UnitLet(
		Send("client", LitInt(1)),
		Let("v",
			Receive("server"),
			UnitLet(
				Close("client"),
				Wait("server", Var("v")),
			),
		),
	)
	term := Fork(s, "client", "server", body)

	ty, err := TypeCheck(term, NewContext())
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	if !ty.Equal(BaseT(BaseInt)) {
		t.Fatalf("fork result: got %s, want Int", ty)
	}
}

func TestSessionProgressViolationUnclosedChannel(t *testing.T) {
	s := SendS(BaseT(BaseInt), EndS())
	// client is sent on but never closed: scope exit must fail.
	body := Send("client", LitInt(1))
	term := Fork(s, "client", "server", body)

	if _, err := TypeCheck(term, NewContext()); err == nil {
		t.Fatalf("expected session progress violation for unclosed channel")
	}
}

func TestCaseUnifiesBranchTypes(t *testing.T) {
	sum := SumT(BaseT(BaseInt), BaseT(BaseBool))
	scrut := Inl(LitInt(1), sum)
	term := Case(scrut,
		CaseBranch{Var: "x", Body: Var("x")},
		CaseBranch{Var: "y", Body: LitInt(0)},
	)
	ty, err := TypeCheck(term, NewContext())
	if err != nil {
		t.Fatalf("case: %v", err)
	}
	if !ty.Equal(BaseT(BaseInt)) {
		t.Fatalf("case result: got %s, want Int", ty)
	}
}

func TestInferAndSolveSimpleChannel(t *testing.T) {
	term := UnitLet(Send("ch", LitInt(1)), LitUnit())
	ctx := NewContext()
	ctx.BindChannel("ch", SendS(BaseT(BaseInt), EndS()))

	cs, err := InferSessionTypes(term, ctx)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if _, err := SolveConstraints(cs); err != nil {
		t.Fatalf("solve: %v", err)
	}
}
