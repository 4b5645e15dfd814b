// Package storageproof makes an effect's success depend on verified
// storage values read from external chains, optionally gated on ZK
// proofs, with caching, constraint evaluation and cross-domain
// aggregation (spec §4.4, "THE HARD CORE").
package storageproof

import (
	"bytes"
	"fmt"

	"github.com/timewave-computer/causality-sub001/core/resource"
)

// ConstraintKind classifies how a dependency's resolved value must relate
// to its declared bound(s).
type ConstraintKind int

const (
	ConstraintGTE ConstraintKind = iota
	ConstraintLTE
	ConstraintEquals
	ConstraintRange
	ConstraintCustom
)

// ValueConstraint restricts the value a StorageDependency may resolve to.
// GTE/LTE/Range compare using lexicographic byte ordering; Equals requires
// bitwise equality; Custom dispatches to a named registered evaluator
// (spec §4.4 "Constraint evaluation").
type ValueConstraint struct {
	Kind       ConstraintKind
	Bound      []byte // lower bound for GTE/Range, the exact value for Equals/LTE upper
	Upper      []byte // upper bound, Range only
	CustomName string // ConstraintCustom only
}

// Evaluate checks value against the constraint. evaluators supplies
// lookups for ConstraintCustom; nil is fine if none are registered.
func (c ValueConstraint) Evaluate(value []byte, evaluators *Evaluators) (bool, error) {
	switch c.Kind {
	case ConstraintGTE:
		return bytes.Compare(value, c.Bound) >= 0, nil
	case ConstraintLTE:
		return bytes.Compare(value, c.Bound) <= 0, nil
	case ConstraintEquals:
		return bytes.Equal(value, c.Bound), nil
	case ConstraintRange:
		return bytes.Compare(value, c.Bound) >= 0 && bytes.Compare(value, c.Upper) <= 0, nil
	case ConstraintCustom:
		if evaluators == nil {
			return false, fmt.Errorf("storageproof: no evaluator registered for %q", c.CustomName)
		}
		fn, ok := evaluators.Get(c.CustomName)
		if !ok {
			return false, fmt.Errorf("storageproof: no evaluator registered for %q", c.CustomName)
		}
		return fn(value)
	default:
		return false, fmt.Errorf("storageproof: unknown constraint kind %d", c.Kind)
	}
}

// CustomEvaluator evaluates a value against a named custom constraint.
type CustomEvaluator func(value []byte) (bool, error)

// Evaluators is a name-keyed registration table for custom constraint
// evaluators (Open Question: "Custom constraint/aggregation"). Callers fill
// it through Register; configuration loading does not populate it.
type Evaluators struct {
	byName map[string]CustomEvaluator
}

// NewEvaluators constructs an empty evaluator table.
func NewEvaluators() *Evaluators {
	return &Evaluators{byName: make(map[string]CustomEvaluator)}
}

// Register installs fn under name, overwriting any prior registration.
func (e *Evaluators) Register(name string, fn CustomEvaluator) {
	e.byName[name] = fn
}

// Get looks up the evaluator registered under name.
func (e *Evaluators) Get(name string) (CustomEvaluator, bool) {
	fn, ok := e.byName[name]
	return fn, ok
}

// StorageDependency names one external storage read an effect depends on.
type StorageDependency struct {
	ID         string
	Domain     resource.DomainID
	Key        string
	Critical   bool
	Constraint *ValueConstraint
	Cache      CachePolicy
}
