// Package resource implements the linear resource and register model
// (spec §3, §4.2): content-addressed resources that must be consumed
// exactly once, and mutable registers forming a summarization DAG.
package resource

import (
	"time"

	"github.com/timewave-computer/causality-sub001/core/content"
)

// DomainID identifies the jurisdiction that owns a resource or register.
type DomainID string

// Resource is a linear, content-addressed value (spec §3 "Resources").
type Resource struct {
	ID           content.ID
	Domain       DomainID
	Value        content.ID // reference to a content-addressed value
	TypeExprID   content.ID
	Ephemeral    bool
	StaticExprID *content.ID // optional
}

// contentFields is the subset of Resource that participates in its content
// ID (StaticExprID included when present, never the derived ID itself).
type contentFields struct {
	Domain       DomainID
	Value        content.ID
	TypeExprID   content.ID
	Ephemeral    bool
	StaticExprID *content.ID
}

// DeriveID computes r's content ID from its defining fields.
func (r *Resource) DeriveID() (content.ID, error) {
	return content.Derive(contentFields{
		Domain:       r.Domain,
		Value:        r.Value,
		TypeExprID:   r.TypeExprID,
		Ephemeral:    r.Ephemeral,
		StaticExprID: r.StaticExprID,
	})
}

// Nullifier is the one-time token emitted when a resource is consumed,
// preventing double-spend (GLOSSARY "Nullifier").
type Nullifier struct {
	ResourceID content.ID
	NullifiedAt time.Time
}
