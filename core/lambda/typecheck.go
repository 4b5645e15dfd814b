package lambda

import "fmt"

// TypeCheck type-checks term in ctx, returning its type or a *TypeError
// (spec §4.1). ctx is mutated: variable uses are marked consumed and
// channel session types advance as they would at runtime.
func TypeCheck(term *Term, ctx *Context) (*TypeInner, error) {
	switch term.Kind {
	case TermVar:
		return ctx.Use(term.Name)

	case TermLitUnit:
		return BaseT(BaseUnit), nil
	case TermLitBool:
		return BaseT(BaseBool), nil
	case TermLitInt:
		return BaseT(BaseInt), nil
	case TermLitSymbol:
		return BaseT(BaseSymbol), nil

	case TermUnitLet:
		if _, err := TypeCheck(term.Value, ctx); err != nil {
			return nil, err
		}
		return TypeCheck(term.Body, ctx)

	case TermTensorIntro:
		lt, err := TypeCheck(term.Left, ctx)
		if err != nil {
			return nil, err
		}
		rt, err := TypeCheck(term.Right, ctx)
		if err != nil {
			return nil, err
		}
		return ProductT(lt, rt), nil

	case TermTensorLet:
		pairTy, err := TypeCheck(term.Value, ctx)
		if err != nil {
			return nil, err
		}
		if !pairTy.IsProduct() {
			return nil, invalidTensorElimination(pairTy)
		}
		a, b := pairTy.Operands()
		ctx.PushScope()
		ctx.Bind(term.LeftVar, a)
		ctx.Bind(term.RightVar, b)
		ty, err := TypeCheck(term.Body, ctx)
		if err != nil {
			closeScope(ctx)
			return nil, err
		}
		if err := closeScope(ctx); err != nil {
			return nil, err
		}
		return ty, nil

	case TermInl:
		if !term.SumType.IsSum() {
			return nil, invalidCase(term.SumType)
		}
		a, _ := term.SumType.Operands()
		vt, err := TypeCheck(term.Value, ctx)
		if err != nil {
			return nil, err
		}
		if !vt.Equal(a) {
			return nil, typeMismatch(a, vt)
		}
		return term.SumType, nil

	case TermInr:
		if !term.SumType.IsSum() {
			return nil, invalidCase(term.SumType)
		}
		_, b := term.SumType.Operands()
		vt, err := TypeCheck(term.Value, ctx)
		if err != nil {
			return nil, err
		}
		if !vt.Equal(b) {
			return nil, typeMismatch(b, vt)
		}
		return term.SumType, nil

	case TermCase:
		scrutTy, err := TypeCheck(term.Value, ctx)
		if err != nil {
			return nil, err
		}
		if !scrutTy.IsSum() {
			return nil, invalidCase(scrutTy)
		}
		a, b := scrutTy.Operands()

		leftCtx := ctx.Clone()
		leftCtx.Bind(term.CaseLeft.Var, a)
		leftTy, err := TypeCheck(term.CaseLeft.Body, leftCtx)
		if err != nil {
			return nil, err
		}

		rightCtx := ctx.Clone()
		rightCtx.Bind(term.CaseRight.Var, b)
		rightTy, err := TypeCheck(term.CaseRight.Body, rightCtx)
		if err != nil {
			return nil, err
		}

		if !leftTy.Equal(rightTy) {
			return nil, typeMismatch(leftTy, rightTy)
		}
		*ctx = *leftCtx
		return leftTy, nil

	case TermLambda:
		paramTy := term.ParamType
		if paramTy == nil {
			paramTy = BaseT(BaseUnit)
		}
		ctx.PushScope()
		ctx.Bind(term.Name, paramTy)
		bodyTy, err := TypeCheck(term.Body, ctx)
		if err != nil {
			return nil, err
		}
		if err := requireLinearUse(ctx, term.Name, paramTy); err != nil {
			return nil, err
		}
		if err := closeScope(ctx); err != nil {
			return nil, err
		}
		return LinearFunctionT(paramTy, bodyTy), nil

	case TermApply:
		fnTy, err := TypeCheck(term.Left, ctx)
		if err != nil {
			return nil, err
		}
		if !fnTy.IsLinearFunction() {
			return nil, cannotApply(fnTy)
		}
		in, out := fnTy.Operands()
		argTy, err := TypeCheck(term.Right, ctx)
		if err != nil {
			return nil, err
		}
		if !argTy.Equal(in) {
			return nil, typeMismatch(in, argTy)
		}
		return out, nil

	case TermAlloc:
		return TypeCheck(term.Value, ctx)

	case TermConsume:
		return ctx.Use(term.Name)

	case TermLet:
		ty, err := TypeCheck(term.Value, ctx)
		if err != nil {
			return nil, err
		}
		ctx.Bind(term.Name, ty)
		return TypeCheck(term.Body, ctx)

	case TermNewChannel:
		return SessionT(term.ChannelType), nil

	case TermSend:
		chTy, err := ctx.ChannelType(term.Name)
		if err != nil {
			return nil, err
		}
		if !chTy.IsSend() {
			return nil, sessionProtocolMismatch("Send", chTy)
		}
		valTy, err := TypeCheck(term.Value, ctx)
		if err != nil {
			return nil, err
		}
		if !valTy.Equal(chTy.Payload()) {
			return nil, typeMismatch(chTy.Payload(), valTy)
		}
		if err := ctx.AdvanceChannel(term.Name, chTy.Continuation()); err != nil {
			return nil, err
		}
		return BaseT(BaseUnit), nil

	case TermReceive:
		chTy, err := ctx.ChannelType(term.Name)
		if err != nil {
			return nil, err
		}
		if !chTy.IsReceive() {
			return nil, sessionProtocolMismatch("Receive", chTy)
		}
		if err := ctx.AdvanceChannel(term.Name, chTy.Continuation()); err != nil {
			return nil, err
		}
		return chTy.Payload(), nil

	case TermSelect:
		chTy, err := ctx.ChannelType(term.Name)
		if err != nil {
			return nil, err
		}
		if !chTy.IsInternalChoice() {
			return nil, sessionProtocolMismatch("Select", chTy)
		}
		cont, ok := chTy.Branch(term.Label)
		if !ok {
			return nil, choiceLabelNotFound(term.Label, chTy)
		}
		if err := ctx.AdvanceChannel(term.Name, cont); err != nil {
			return nil, err
		}
		return BaseT(BaseUnit), nil

	case TermBranch:
		chTy, err := ctx.ChannelType(term.Name)
		if err != nil {
			return nil, err
		}
		if !chTy.IsExternalChoice() {
			return nil, invalidBranch(chTy)
		}
		if len(term.Branches) == 0 {
			return nil, invalidBranch(chTy)
		}
		var resultTy *TypeInner
		for i, br := range term.Branches {
			cont, ok := chTy.Branch(br.Label)
			if !ok {
				return nil, choiceLabelNotFound(br.Label, chTy)
			}
			branchCtx := ctx.Clone()
			if err := branchCtx.AdvanceChannel(term.Name, cont); err != nil {
				return nil, err
			}
			ty, err := TypeCheck(br.Body, branchCtx)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				resultTy = ty
				*ctx = *branchCtx
			} else if !ty.Equal(resultTy) {
				return nil, typeMismatch(resultTy, ty)
			}
		}
		return resultTy, nil

	case TermClose:
		chTy, err := ctx.ChannelType(term.Name)
		if err != nil {
			return nil, err
		}
		if !chTy.IsEnd() {
			return nil, sessionProtocolMismatch("Close", chTy)
		}
		ctx.CloseChannel(term.Name)
		return BaseT(BaseUnit), nil

	case TermFork:
		ctx.PushScope()
		ctx.BindChannel(term.ClientName, term.ForkSession)
		ctx.BindChannel(term.ServerName, Dual(term.ForkSession))
		resultTy, err := TypeCheck(term.Body, ctx)
		if err != nil {
			return nil, err
		}
		remaining := ctx.PopScope()
		if err := checkSessionProgress(remaining); err != nil {
			return nil, err
		}
		return resultTy, nil

	case TermWait:
		chTy, err := ctx.ChannelType(term.Name)
		if err != nil {
			return nil, err
		}
		if !chTy.IsEnd() {
			return nil, sessionProtocolMismatch("Wait", chTy)
		}
		ctx.CloseChannel(term.Name)
		return TypeCheck(term.Body, ctx)

	case TermTransform:
		ctx.PushScope()
		ctx.Bind(term.Name, term.TransformInput)
		bodyTy, err := TypeCheck(term.Body, ctx)
		if err != nil {
			return nil, err
		}
		if !bodyTy.Equal(term.TransformOutput) {
			return nil, typeMismatch(term.TransformOutput, bodyTy)
		}
		if err := closeScope(ctx); err != nil {
			return nil, err
		}
		return TransformT(term.TransformInput, term.TransformOutput, term.Location), nil

	case TermApplyTransform:
		trTy, err := TypeCheck(term.Left, ctx)
		if err != nil {
			return nil, err
		}
		if !trTy.IsTransform() {
			return nil, cannotApply(trTy)
		}
		tr := trTy.Transform()
		argTy, err := TypeCheck(term.Right, ctx)
		if err != nil {
			return nil, err
		}
		if !argTy.Equal(tr.Input) {
			return nil, typeMismatch(tr.Input, argTy)
		}
		return tr.Output, nil

	case TermAt:
		return TypeCheck(term.Body, ctx)

	default:
		return nil, &TypeError{Kind: KindTypeMismatch, Message: fmt.Sprintf("unhandled term kind %d", term.Kind)}
	}
}

// requireLinearUse errors if a just-bound linear parameter was never used
// inside its scope (spec invariant "Linearity": exactly-once use).
func requireLinearUse(ctx *Context, name string, ty *TypeInner) error {
	if !ty.IsLinear() {
		return nil
	}
	if !ctx.linearUsed[name] {
		return linearityViolation(name, false)
	}
	return nil
}

// closeScope pops the innermost session scope and enforces session
// progress on whatever channels remain bound in it.
func closeScope(ctx *Context) error {
	remaining := ctx.PopScope()
	return checkSessionProgress(remaining)
}

// checkSessionProgress enforces spec invariant "Session progress": every
// channel with session type End must be consumed by Close or Wait before
// scope exit.
func checkSessionProgress(remaining map[string]*SessionType) error {
	for name, s := range remaining {
		if s.IsEnd() {
			return fmt.Errorf("%w: channel %q reached End without Close/Wait", errSessionNotClosed, name)
		}
	}
	return nil
}

var errSessionNotClosed = fmt.Errorf("session protocol violation")
