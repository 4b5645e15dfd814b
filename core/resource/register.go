package resource

import (
	"time"

	"github.com/google/uuid"
	"github.com/timewave-computer/causality-sub001/core/content"
)

// RegisterState is the lifecycle state of a register (spec §3 "Registers").
type RegisterState int

const (
	StateActive RegisterState = iota
	StateLocked
	StateConsumed
	StateSummary
	StateArchived
)

func (s RegisterState) String() string {
	switch s {
	case StateActive:
		return "Active"
	case StateLocked:
		return "Locked"
	case StateConsumed:
		return "Consumed"
	case StateSummary:
		return "Summary"
	case StateArchived:
		return "Archived"
	default:
		return "Unknown"
	}
}

// legalTransitions encodes the register state machine (spec §4.2):
// Active -> {Locked, Consumed, Summary, Archived}
// Locked -> {Active, Consumed}
// Summary -> {Archived}
// Consumed, Archived: terminal.
var legalTransitions = map[RegisterState]map[RegisterState]bool{
	StateActive:  {StateLocked: true, StateConsumed: true, StateSummary: true, StateArchived: true},
	StateLocked:  {StateActive: true, StateConsumed: true},
	StateSummary: {StateArchived: true},
}

// CanTransition reports whether from -> to is a legal register state
// transition.
func CanTransition(from, to RegisterState) bool {
	return legalTransitions[from][to]
}

// Register is a mutable, versioned slot owned by a domain, participating
// in the summarization DAG via Summarizes / SummarizedBy (spec §3
// "Registers"). Its content ID is assigned once at creation and is the
// register's stable handle; Contents/State/Version/Metadata mutate in
// place the way the teacher's ledger state map does, not by re-deriving a
// fresh ID per version (that would make updates impossible to address).
type Register struct {
	ID       content.ID
	Owner    string
	Domain   DomainID
	Contents []byte
	State    RegisterState
	Version  uint64

	CreatedAt time.Time
	UpdatedAt time.Time

	Metadata map[string]string

	// Summarizes is the set of register IDs this register summarizes (only
	// non-empty for State == StateSummary).
	Summarizes []content.ID
	// SummarizedBy points at the single summary register that supersedes
	// this one, if any.
	SummarizedBy *content.ID
}

// creationFields is hashed once, at construction, to assign a Register its
// stable content ID. A nonce is included so that two registers created
// with identical owner/domain/contents in the same instant (e.g. two
// summary registers for different groups with the same informative
// strategy text) don't collide.
type creationFields struct {
	Owner     string
	Domain    DomainID
	Contents  []byte
	CreatedAt time.Time
	Nonce     string
}

// NewRegister constructs an Active register at version 1.
func NewRegister(owner string, domain DomainID, contents []byte, metadata map[string]string) (*Register, error) {
	now := time.Now().UTC()
	id, err := content.Derive(creationFields{
		Owner: owner, Domain: domain, Contents: contents, CreatedAt: now, Nonce: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	return &Register{
		ID:        id,
		Owner:     owner,
		Domain:    domain,
		Contents:  contents,
		State:     StateActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  metadata,
	}, nil
}

// transition validates and applies a state change, bumping the version.
// Callers hold the store's per-shard lock.
func (r *Register) transition(to RegisterState) error {
	if !CanTransition(r.State, to) {
		return &Error{Kind: KindInvalidStateTransition, From: r.State, To: to}
	}
	r.State = to
	r.Version++
	r.UpdatedAt = time.Now().UTC()
	return nil
}
