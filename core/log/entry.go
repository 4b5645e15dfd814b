// Package log implements the optimized append-only log substrate (spec
// §4.7): batched, optionally compressed writes plus multi-dimensional
// indexes over entries.
package log

import (
	"time"

	"github.com/timewave-computer/causality-sub001/core/content"
	"github.com/timewave-computer/causality-sub001/core/resource"
)

// EntryType classifies what an Entry's Data payload represents.
type EntryType int

const (
	EntryFact EntryType = iota
	EntryEffect
	EntryEvent
	EntryCustom
)

func (t EntryType) String() string {
	switch t {
	case EntryFact:
		return "Fact"
	case EntryEffect:
		return "Effect"
	case EntryEvent:
		return "Event"
	case EntryCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Entry is one durable, content-addressed log record (spec §4.7
// "Durable append-only log of entries").
type Entry struct {
	ID        content.ID
	Timestamp time.Time
	Type      EntryType
	Data      []byte
	TraceID   *string
	ParentID  *content.ID
	Metadata  map[string]string
	// Domains is populated from the underlying fact's domain or an
	// effect's spanned domains, and feeds the domain index.
	Domains []resource.DomainID
}

// entryContentFields is hashed to assign an Entry its content ID when
// one is not already supplied by the caller.
type entryContentFields struct {
	Timestamp time.Time
	Type      EntryType
	Data      []byte
	TraceID   *string
	ParentID  *content.ID
}

// DeriveID computes e's content ID from its defining fields.
func (e *Entry) DeriveID() (content.ID, error) {
	return content.Derive(entryContentFields{
		Timestamp: e.Timestamp, Type: e.Type, Data: e.Data, TraceID: e.TraceID, ParentID: e.ParentID,
	})
}
