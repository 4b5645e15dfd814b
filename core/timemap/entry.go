// Package timemap implements the causal time map (spec §4.5): a
// per-domain view of "latest known chain position", merged via a
// monotonicity rule, queryable by time window, and able to answer
// causal-precedence questions across domains.
package timemap

import (
	"time"

	"github.com/timewave-computer/causality-sub001/core/resource"
)

// Entry is one domain's latest known chain position.
type Entry struct {
	Domain     resource.DomainID
	Height     uint64
	Hash       string
	Timestamp  time.Time
	Confidence float64 // retained but never aggregated (Open Question decision)
	Verified   bool
}

// newer reports whether candidate should replace current under the
// monotonicity rule: lexicographic (height, timestamp) ordering (spec
// §4.5 "insert or upgrade per the monotonicity rule").
func newer(current, candidate Entry) bool {
	if candidate.Height != current.Height {
		return candidate.Height > current.Height
	}
	return candidate.Timestamp.After(current.Timestamp)
}

// IsVerifiable is the only place Confidence is consulted (Open Question:
// "Confidence field ... not aggregated; the only use is a convenience
// IsVerifiable style predicate").
func (e Entry) IsVerifiable() bool {
	return e.Verified && e.Confidence > 0
}
