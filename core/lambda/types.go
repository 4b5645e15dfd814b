package lambda

import "fmt"

// BaseType enumerates the base (non-composite) types of the term language.
type BaseType int

const (
	BaseUnit BaseType = iota
	BaseBool
	BaseInt
	BaseSymbol
)

func (b BaseType) String() string {
	switch b {
	case BaseUnit:
		return "Unit"
	case BaseBool:
		return "Bool"
	case BaseInt:
		return "Int"
	case BaseSymbol:
		return "Symbol"
	default:
		return "Base(?)"
	}
}

// typeKind tags the shape of a TypeInner value.
type typeKind int

const (
	kindBase typeKind = iota
	kindProduct
	kindSum
	kindLinearFunction
	kindSession
	kindTransform
)

// TypeInner is the term language's type. It is a closed tagged union: only
// the fields relevant to Kind are meaningful, matching the "tagged union,
// no downcasting" approach used throughout this module in place of the
// source's trait-object dispatch.
type TypeInner struct {
	kind typeKind

	base BaseType // kindBase

	left, right *TypeInner // kindProduct, kindSum, kindLinearFunction

	session *SessionType // kindSession

	transform *TransformType // kindTransform
}

// TransformType is the payload of a Transform type: a computation that runs
// input->output at a named location.
type TransformType struct {
	Input, Output *TypeInner
	Location      string
}

func BaseT(b BaseType) *TypeInner { return &TypeInner{kind: kindBase, base: b} }

func ProductT(a, b *TypeInner) *TypeInner {
	return &TypeInner{kind: kindProduct, left: a, right: b}
}

func SumT(a, b *TypeInner) *TypeInner {
	return &TypeInner{kind: kindSum, left: a, right: b}
}

func LinearFunctionT(in, out *TypeInner) *TypeInner {
	return &TypeInner{kind: kindLinearFunction, left: in, right: out}
}

func SessionT(s *SessionType) *TypeInner {
	return &TypeInner{kind: kindSession, session: s}
}

func TransformT(in, out *TypeInner, location string) *TypeInner {
	return &TypeInner{kind: kindTransform, transform: &TransformType{Input: in, Output: out, Location: location}}
}

func (t *TypeInner) IsBase() bool            { return t != nil && t.kind == kindBase }
func (t *TypeInner) IsProduct() bool         { return t != nil && t.kind == kindProduct }
func (t *TypeInner) IsSum() bool             { return t != nil && t.kind == kindSum }
func (t *TypeInner) IsLinearFunction() bool  { return t != nil && t.kind == kindLinearFunction }
func (t *TypeInner) IsSession() bool         { return t != nil && t.kind == kindSession }
func (t *TypeInner) IsTransform() bool       { return t != nil && t.kind == kindTransform }

func (t *TypeInner) Base() BaseType { return t.base }

// Operands returns the left/right operands of Product, Sum or
// LinearFunction. For any other kind both results are nil; callers check
// the kind first.
func (t *TypeInner) Operands() (*TypeInner, *TypeInner) {
	return t.left, t.right
}

func (t *TypeInner) Session() *SessionType       { return t.session }
func (t *TypeInner) Transform() *TransformType    { return t.transform }

// IsLinear reports whether a binding of this type must be used exactly
// once (spec §3 "Linear types": Session, LinearFunction, Transform).
func (t *TypeInner) IsLinear() bool {
	if t == nil {
		return false
	}
	switch t.kind {
	case kindSession, kindLinearFunction, kindTransform:
		return true
	default:
		return false
	}
}

// Equal performs a structural equality check used by unification and by
// the Case/Branch result-type unification rules.
func (t *TypeInner) Equal(other *TypeInner) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case kindBase:
		return t.base == other.base
	case kindProduct, kindSum, kindLinearFunction:
		return t.left.Equal(other.left) && t.right.Equal(other.right)
	case kindSession:
		return t.session.Equal(other.session)
	case kindTransform:
		return t.transform.Location == other.transform.Location &&
			t.transform.Input.Equal(other.transform.Input) &&
			t.transform.Output.Equal(other.transform.Output)
	default:
		return false
	}
}

func (t *TypeInner) String() string {
	if t == nil {
		return "<nil type>"
	}
	switch t.kind {
	case kindBase:
		return t.base.String()
	case kindProduct:
		return fmt.Sprintf("(%s * %s)", t.left, t.right)
	case kindSum:
		return fmt.Sprintf("(%s + %s)", t.left, t.right)
	case kindLinearFunction:
		return fmt.Sprintf("(%s -o %s)", t.left, t.right)
	case kindSession:
		return fmt.Sprintf("Session(%s)", t.session)
	case kindTransform:
		return fmt.Sprintf("Transform{%s -> %s @ %s}", t.transform.Input, t.transform.Output, t.transform.Location)
	default:
		return "?"
	}
}

// ---------------------------------------------------------------------
// Session types
// ---------------------------------------------------------------------

type sessionKind int

const (
	sessSend sessionKind = iota
	sessReceive
	sessInternalChoice
	sessExternalChoice
	sessEnd
	sessVariable
)

// Choice is one labelled branch of an internal or external choice.
type Choice struct {
	Label string
	Cont  *SessionType
}

// SessionType is the protocol carried by a Session(S) channel type.
type SessionType struct {
	kind sessionKind

	payload *TypeInner   // Send, Receive
	cont    *SessionType // Send, Receive

	choices []Choice // InternalChoice, ExternalChoice

	variable string // Variable
}

func SendS(payload *TypeInner, cont *SessionType) *SessionType {
	return &SessionType{kind: sessSend, payload: payload, cont: cont}
}

func ReceiveS(payload *TypeInner, cont *SessionType) *SessionType {
	return &SessionType{kind: sessReceive, payload: payload, cont: cont}
}

func InternalChoiceS(choices ...Choice) *SessionType {
	return &SessionType{kind: sessInternalChoice, choices: choices}
}

func ExternalChoiceS(choices ...Choice) *SessionType {
	return &SessionType{kind: sessExternalChoice, choices: choices}
}

func EndS() *SessionType { return &SessionType{kind: sessEnd} }

func VariableS(name string) *SessionType { return &SessionType{kind: sessVariable, variable: name} }

func (s *SessionType) IsSend() bool            { return s != nil && s.kind == sessSend }
func (s *SessionType) IsReceive() bool         { return s != nil && s.kind == sessReceive }
func (s *SessionType) IsInternalChoice() bool  { return s != nil && s.kind == sessInternalChoice }
func (s *SessionType) IsExternalChoice() bool  { return s != nil && s.kind == sessExternalChoice }
func (s *SessionType) IsEnd() bool             { return s != nil && s.kind == sessEnd }
func (s *SessionType) IsVariable() bool        { return s != nil && s.kind == sessVariable }

func (s *SessionType) Payload() *TypeInner   { return s.payload }
func (s *SessionType) Continuation() *SessionType { return s.cont }
func (s *SessionType) Choices() []Choice     { return s.choices }
func (s *SessionType) Variable() string      { return s.variable }

// Branch looks up the continuation for label, used by both Select
// (internal choice) and Branch (external choice) typing rules.
func (s *SessionType) Branch(label string) (*SessionType, bool) {
	for _, c := range s.choices {
		if c.Label == label {
			return c.Cont, true
		}
	}
	return nil, false
}

// Dual computes the pointwise dual session type: Send<->Receive,
// InternalChoice<->ExternalChoice, End<->End (spec §3, GLOSSARY "Dual").
func Dual(s *SessionType) *SessionType {
	if s == nil {
		return nil
	}
	switch s.kind {
	case sessSend:
		return ReceiveS(s.payload, Dual(s.cont))
	case sessReceive:
		return SendS(s.payload, Dual(s.cont))
	case sessInternalChoice:
		out := make([]Choice, len(s.choices))
		for i, c := range s.choices {
			out[i] = Choice{Label: c.Label, Cont: Dual(c.Cont)}
		}
		return ExternalChoiceS(out...)
	case sessExternalChoice:
		out := make([]Choice, len(s.choices))
		for i, c := range s.choices {
			out[i] = Choice{Label: c.Label, Cont: Dual(c.Cont)}
		}
		return InternalChoiceS(out...)
	case sessEnd:
		return EndS()
	case sessVariable:
		return VariableS(s.variable)
	default:
		return nil
	}
}

func (s *SessionType) Equal(other *SessionType) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.kind != other.kind {
		return false
	}
	switch s.kind {
	case sessSend, sessReceive:
		return s.payload.Equal(other.payload) && s.cont.Equal(other.cont)
	case sessInternalChoice, sessExternalChoice:
		if len(s.choices) != len(other.choices) {
			return false
		}
		for i := range s.choices {
			if s.choices[i].Label != other.choices[i].Label ||
				!s.choices[i].Cont.Equal(other.choices[i].Cont) {
				return false
			}
		}
		return true
	case sessEnd:
		return true
	case sessVariable:
		return s.variable == other.variable
	default:
		return false
	}
}

func (s *SessionType) String() string {
	if s == nil {
		return "<nil session>"
	}
	switch s.kind {
	case sessSend:
		return fmt.Sprintf("!%s.%s", s.payload, s.cont)
	case sessReceive:
		return fmt.Sprintf("?%s.%s", s.payload, s.cont)
	case sessInternalChoice:
		return fmt.Sprintf("+choice%v", s.choices)
	case sessExternalChoice:
		return fmt.Sprintf("&choice%v", s.choices)
	case sessEnd:
		return "end"
	case sessVariable:
		return s.variable
	default:
		return "?"
	}
}
