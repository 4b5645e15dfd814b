// Package effect implements effect dispatch and the domain handler
// registry (spec §4.3): routing an effect to the handler responsible for
// its (target domain, effect type), executing it under an effect context,
// and returning an outcome.
package effect

import (
	"github.com/google/uuid"
	"github.com/timewave-computer/causality-sub001/core/content"
	"github.com/timewave-computer/causality-sub001/core/resource"
)

// Effect is a single unit of dispatchable work targeting one domain.
type Effect struct {
	ID           string
	TargetDomain resource.DomainID
	EffectType   string
	Parameters   map[string]string
	Resources    []content.ID
	Metadata     map[string]string
}

// NewEffect constructs an effect with a fresh correlation ID.
func NewEffect(domain resource.DomainID, effectType string, parameters map[string]string) *Effect {
	return &Effect{
		ID:           uuid.NewString(),
		TargetDomain: domain,
		EffectType:   effectType,
		Parameters:   parameters,
		Metadata:     make(map[string]string),
	}
}

// DomainID reports the domain this effect targets.
func (e *Effect) DomainID() resource.DomainID {
	return e.TargetDomain
}

// OutcomeStatus is the terminal (or pending) status of a dispatched effect.
type OutcomeStatus int

const (
	StatusSuccess OutcomeStatus = iota
	StatusFailure
	StatusPending
)

func (s OutcomeStatus) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusFailure:
		return "Failure"
	case StatusPending:
		return "Pending"
	default:
		return "Unknown"
	}
}

// Outcome is the result of handling an effect (spec §4.3 "Outcome").
// Handlers may return StatusPending to await further resolution, e.g. a
// storage proof still in flight.
type Outcome struct {
	Status       OutcomeStatus
	Data         map[string]string
	ErrorMessage string
}

// Success builds a StatusSuccess outcome.
func Success(data map[string]string) *Outcome {
	return &Outcome{Status: StatusSuccess, Data: data}
}

// Failure builds a StatusFailure outcome carrying a message.
func Failure(message string) *Outcome {
	return &Outcome{Status: StatusFailure, ErrorMessage: message}
}

// Pending builds a StatusPending outcome.
func Pending(data map[string]string) *Outcome {
	return &Outcome{Status: StatusPending, Data: data}
}
