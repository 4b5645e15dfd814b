package lambda

import "fmt"

// ConstraintKind tags the three constraint shapes generated during session
// type inference (spec §4.1 "Inference").
type ConstraintKind int

const (
	ConstraintChannelType ConstraintKind = iota
	ConstraintDual
	ConstraintSupportsOperation
)

// Constraint is one fact accumulated while walking a term whose channels'
// full session types are not yet known statically.
type Constraint struct {
	Kind ConstraintKind

	// ConstraintChannelType
	Channel string
	Session *SessionType

	// ConstraintDual
	SessionA, SessionB *SessionType

	// ConstraintSupportsOperation
	Operation string
}

// inferenceState accumulates constraints and hands out fresh session
// variables for continuations whose shape isn't known yet.
type inferenceState struct {
	constraints  []Constraint
	freshCounter int
}

func (s *inferenceState) fresh() *SessionType {
	s.freshCounter++
	return VariableS(fmt.Sprintf("?s%d", s.freshCounter))
}

// InferSessionTypes walks term and produces the constraint set that a
// subsequent call to SolveConstraints resolves into concrete session
// types. It does not mutate ctx.
func InferSessionTypes(term *Term, ctx *Context) ([]Constraint, error) {
	state := &inferenceState{}
	if err := walkInfer(term, ctx.Clone(), state); err != nil {
		return nil, err
	}
	return state.constraints, nil
}

func walkInfer(term *Term, ctx *Context, state *inferenceState) error {
	if term == nil {
		return nil
	}
	switch term.Kind {
	case TermNewChannel:
		if term.ChannelType == nil {
			term.ChannelType = state.fresh()
		}
		return nil

	case TermLet:
		if err := walkInfer(term.Value, ctx, state); err != nil {
			return err
		}
		return walkInfer(term.Body, ctx, state)

	case TermUnitLet:
		if err := walkInfer(term.Value, ctx, state); err != nil {
			return err
		}
		return walkInfer(term.Body, ctx, state)

	case TermSend:
		chTy, err := lookupChannelOrFresh(ctx, state, term.Name)
		if err != nil {
			return err
		}
		state.constraints = append(state.constraints, Constraint{
			Kind: ConstraintSupportsOperation, Channel: term.Name, Session: chTy, Operation: "Send",
		})
		return walkInfer(term.Value, ctx, state)

	case TermReceive:
		chTy, err := lookupChannelOrFresh(ctx, state, term.Name)
		if err != nil {
			return err
		}
		state.constraints = append(state.constraints, Constraint{
			Kind: ConstraintSupportsOperation, Channel: term.Name, Session: chTy, Operation: "Receive",
		})
		return nil

	case TermSelect:
		chTy, err := lookupChannelOrFresh(ctx, state, term.Name)
		if err != nil {
			return err
		}
		state.constraints = append(state.constraints, Constraint{
			Kind: ConstraintSupportsOperation, Channel: term.Name, Session: chTy, Operation: "Select:" + term.Label,
		})
		return nil

	case TermBranch:
		chTy, err := lookupChannelOrFresh(ctx, state, term.Name)
		if err != nil {
			return err
		}
		state.constraints = append(state.constraints, Constraint{
			Kind: ConstraintSupportsOperation, Channel: term.Name, Session: chTy, Operation: "Branch",
		})
		for _, br := range term.Branches {
			if err := walkInfer(br.Body, ctx, state); err != nil {
				return err
			}
		}
		return nil

	case TermClose:
		chTy, err := lookupChannelOrFresh(ctx, state, term.Name)
		if err != nil {
			return err
		}
		state.constraints = append(state.constraints, Constraint{
			Kind: ConstraintSupportsOperation, Channel: term.Name, Session: chTy, Operation: "Close",
		})
		return nil

	case TermWait:
		chTy, err := lookupChannelOrFresh(ctx, state, term.Name)
		if err != nil {
			return err
		}
		state.constraints = append(state.constraints, Constraint{
			Kind: ConstraintSupportsOperation, Channel: term.Name, Session: chTy, Operation: "Wait",
		})
		return walkInfer(term.Body, ctx, state)

	case TermFork:
		clientTy := term.ForkSession
		if clientTy == nil {
			clientTy = state.fresh()
		}
		serverTy := Dual(clientTy)
		state.constraints = append(state.constraints, Constraint{
			Kind: ConstraintDual, SessionA: clientTy, SessionB: serverTy,
		})
		ctx.BindChannel(term.ClientName, clientTy)
		ctx.BindChannel(term.ServerName, serverTy)
		return walkInfer(term.Body, ctx, state)

	case TermLambda:
		return walkInfer(term.Body, ctx, state)

	case TermApply, TermTensorIntro, TermApplyTransform:
		if err := walkInfer(term.Left, ctx, state); err != nil {
			return err
		}
		return walkInfer(term.Right, ctx, state)

	case TermTensorLet:
		if err := walkInfer(term.Value, ctx, state); err != nil {
			return err
		}
		return walkInfer(term.Body, ctx, state)

	case TermCase:
		if err := walkInfer(term.Value, ctx, state); err != nil {
			return err
		}
		if err := walkInfer(term.CaseLeft.Body, ctx, state); err != nil {
			return err
		}
		return walkInfer(term.CaseRight.Body, ctx, state)

	case TermTransform, TermAt:
		return walkInfer(term.Body, ctx, state)

	default:
		return nil
	}
}

func lookupChannelOrFresh(ctx *Context, state *inferenceState, name string) (*SessionType, error) {
	if s, err := ctx.ChannelType(name); err == nil {
		return s, nil
	}
	s := state.fresh()
	ctx.BindChannel(name, s)
	return s, nil
}

// Substitution maps session variable names to the concrete session type
// the solver resolved them to.
type Substitution map[string]*SessionType

// SolveConstraints resolves a constraint set into a Substitution. It
// (a) validates every Dual pair, (b) checks that each SupportsOperation
// constraint's operation matches the session's shape (when the session is
// already concrete), and (c) unifies any session variables, following the
// three-step solver described in spec §4.1.
func SolveConstraints(cs []Constraint) (Substitution, error) {
	sub := make(Substitution)

	for _, c := range cs {
		if c.Kind != ConstraintDual {
			continue
		}
		if err := unifyDual(sub, c.SessionA, c.SessionB); err != nil {
			return nil, err
		}
	}

	for _, c := range cs {
		if c.Kind != ConstraintSupportsOperation {
			continue
		}
		resolved := resolve(sub, c.Session)
		if resolved.IsVariable() {
			continue // shape not yet known; nothing to check
		}
		if err := checkOperationShape(resolved, c.Operation); err != nil {
			return nil, err
		}
	}

	return sub, nil
}

func unifyDual(sub Substitution, a, b *SessionType) error {
	ra, rb := resolve(sub, a), resolve(sub, b)
	if ra.IsVariable() {
		sub[ra.Variable()] = Dual(rb)
		return nil
	}
	if rb.IsVariable() {
		sub[rb.Variable()] = Dual(ra)
		return nil
	}
	if !ra.Equal(Dual(rb)) {
		return fmt.Errorf("duality mismatch: %s is not dual to %s", ra, rb)
	}
	return nil
}

func resolve(sub Substitution, s *SessionType) *SessionType {
	for s != nil && s.IsVariable() {
		next, ok := sub[s.Variable()]
		if !ok {
			return s
		}
		s = next
	}
	return s
}

func checkOperationShape(s *SessionType, op string) error {
	switch {
	case op == "Send":
		if !s.IsSend() {
			return sessionProtocolMismatch(op, s)
		}
	case op == "Receive":
		if !s.IsReceive() {
			return sessionProtocolMismatch(op, s)
		}
	case len(op) >= 7 && op[:7] == "Select:":
		if !s.IsInternalChoice() {
			return sessionProtocolMismatch(op, s)
		}
		if _, ok := s.Branch(op[7:]); !ok {
			return choiceLabelNotFound(op[7:], s)
		}
	case op == "Branch":
		if !s.IsExternalChoice() {
			return invalidBranch(s)
		}
	case op == "Close", op == "Wait":
		if !s.IsEnd() {
			return sessionProtocolMismatch(op, s)
		}
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	return nil
}
