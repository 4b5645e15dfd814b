package lambda

// TermKind tags the shape of a Term, replacing the source's trait-object
// term nodes with an exhaustive tagged union (spec §9 redesign flag:
// "tagged union of effect variants... dispatch is exhaustive
// pattern-matching, no downcasting" — applied here to terms as well).
type TermKind int

const (
	TermVar TermKind = iota
	TermLitUnit
	TermLitBool
	TermLitInt
	TermLitSymbol
	TermUnitLet
	TermTensorIntro
	TermTensorLet
	TermInl
	TermInr
	TermCase
	TermLambda
	TermApply
	TermAlloc
	TermConsume
	TermLet
	TermNewChannel
	TermSend
	TermReceive
	TermSelect
	TermBranch
	TermClose
	TermFork
	TermWait
	TermTransform
	TermApplyTransform
	TermAt
)

// CaseBranch is one arm of a Case or Branch term.
type CaseBranch struct {
	Label string // set only for Branch; unused for Case
	Var   string
	Body  *Term
}

// Term is the tagged-union node of the term language (spec §3 "Terms").
// Only the fields relevant to Kind are populated; constructors below are
// the supported way to build one.
type Term struct {
	Kind TermKind

	// TermVar
	Name string

	// TermLitBool
	BoolValue bool
	// TermLitInt
	IntValue int64
	// TermLitSymbol
	SymbolValue string

	// TermUnitLet: let _ = Value in Body
	Value *Term
	Body  *Term

	// TermTensorIntro: (Left, Right)
	// TermTensorLet: reuses Left/Right as the pair-variable names, Value as
	// the pair being destructured
	Left, Right *Term
	LeftVar, RightVar string

	// TermInl / TermInr: payload against declared sum type
	SumType *TypeInner

	// TermCase: scrutinee in Value, branches here
	CaseLeft, CaseRight CaseBranch

	// TermLambda: parameter name Name, optional declared type ParamType
	ParamType *TypeInner

	// TermApply: Left = function, Right = argument

	// TermAlloc: allocates Value as a resource
	// TermConsume: consumes resource named Name

	// TermLet: let Name = Value in Body

	// TermNewChannel: session type for the new channel
	ChannelType *SessionType

	// TermSend / TermReceive / TermSelect / TermClose / TermWait:
	// channel name in Name
	Label string // TermSelect

	// TermBranch: channel name in Name, branches here
	Branches []CaseBranch

	// TermFork: Session type, client/server channel names, body
	ForkSession         *SessionType
	ClientName, ServerName string

	// TermTransform: input/output types, location, Body is the transform's
	// own body (parameter bound as Name)
	TransformInput, TransformOutput *TypeInner
	Location                        string

	// TermApplyTransform: Left = transform, Right = argument

	// TermAt: Location, Body
}

func Var(name string) *Term { return &Term{Kind: TermVar, Name: name} }
func LitUnit() *Term        { return &Term{Kind: TermLitUnit} }
func LitBool(b bool) *Term  { return &Term{Kind: TermLitBool, BoolValue: b} }
func LitInt(i int64) *Term  { return &Term{Kind: TermLitInt, IntValue: i} }
func LitSymbol(s string) *Term { return &Term{Kind: TermLitSymbol, SymbolValue: s} }

func UnitLet(value, body *Term) *Term {
	return &Term{Kind: TermUnitLet, Value: value, Body: body}
}

func TensorIntro(left, right *Term) *Term {
	return &Term{Kind: TermTensorIntro, Left: left, Right: right}
}

func TensorLet(pair *Term, leftVar, rightVar string, body *Term) *Term {
	return &Term{Kind: TermTensorLet, Value: pair, LeftVar: leftVar, RightVar: rightVar, Body: body}
}

func Inl(payload *Term, sumType *TypeInner) *Term {
	return &Term{Kind: TermInl, Value: payload, SumType: sumType}
}

func Inr(payload *Term, sumType *TypeInner) *Term {
	return &Term{Kind: TermInr, Value: payload, SumType: sumType}
}

func Case(scrutinee *Term, left, right CaseBranch) *Term {
	return &Term{Kind: TermCase, Value: scrutinee, CaseLeft: left, CaseRight: right}
}

func Lambda(param string, paramType *TypeInner, body *Term) *Term {
	return &Term{Kind: TermLambda, Name: param, ParamType: paramType, Body: body}
}

func Apply(fn, arg *Term) *Term {
	return &Term{Kind: TermApply, Left: fn, Right: arg}
}

func Alloc(value *Term) *Term { return &Term{Kind: TermAlloc, Value: value} }
func Consume(name string) *Term { return &Term{Kind: TermConsume, Name: name} }

func Let(name string, value, body *Term) *Term {
	return &Term{Kind: TermLet, Name: name, Value: value, Body: body}
}

func NewChannel(s *SessionType) *Term { return &Term{Kind: TermNewChannel, ChannelType: s} }

func Send(channel string, value *Term) *Term {
	return &Term{Kind: TermSend, Name: channel, Value: value}
}

func Receive(channel string) *Term { return &Term{Kind: TermReceive, Name: channel} }

func Select(channel, label string) *Term {
	return &Term{Kind: TermSelect, Name: channel, Label: label}
}

func Branch(channel string, branches ...CaseBranch) *Term {
	return &Term{Kind: TermBranch, Name: channel, Branches: branches}
}

func Close(channel string) *Term { return &Term{Kind: TermClose, Name: channel} }

func Fork(session *SessionType, client, server string, body *Term) *Term {
	return &Term{Kind: TermFork, ForkSession: session, ClientName: client, ServerName: server, Body: body}
}

func Wait(channel string, body *Term) *Term {
	return &Term{Kind: TermWait, Name: channel, Body: body}
}

func Transform(input, output *TypeInner, location, param string, body *Term) *Term {
	return &Term{Kind: TermTransform, TransformInput: input, TransformOutput: output, Location: location, Name: param, Body: body}
}

func ApplyTransform(transform, arg *Term) *Term {
	return &Term{Kind: TermApplyTransform, Left: transform, Right: arg}
}

func At(location string, body *Term) *Term {
	return &Term{Kind: TermAt, Location: location, Body: body}
}
