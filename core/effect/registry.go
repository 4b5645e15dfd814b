package effect

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/timewave-computer/causality-sub001/core/resource"
)

// DomainHandler handles effects scoped to a single domain.
type DomainHandler interface {
	DomainID() resource.DomainID
	CanHandle(e *Effect) bool
	HandleDomainEffect(e *Effect, ctx *Context) (*Outcome, error)
}

// DomainPair names a (source, destination) domain route a cross-domain
// handler supports. Either field may be the wildcard "*" to mean "any
// domain" (spec §4.3 "a wildcard full-support marker").
type DomainPair struct {
	Src resource.DomainID
	Dst resource.DomainID
}

const wildcardDomain = resource.DomainID("*")

// matches reports whether p covers the concrete (src, dst) route,
// honoring the wildcard marker on either side.
func (p DomainPair) matches(src, dst resource.DomainID) bool {
	return (p.Src == src || p.Src == wildcardDomain) && (p.Dst == dst || p.Dst == wildcardDomain)
}

// CrossDomainHandler handles effects whose execution spans two domains.
type CrossDomainHandler interface {
	SupportedDomains() []DomainPair
	HandleCrossDomainEffect(e *Effect, srcCtx, dstCtx *Context) (*Outcome, error)
}

// Registry maps domains to their handlers and maintains a separate list
// of cross-domain handlers (spec §4.3 "Registry").
type Registry struct {
	mu       sync.RWMutex
	domains  map[resource.DomainID][]DomainHandler
	crossers []CrossDomainHandler
	log      *logrus.Entry
	metrics  *Metrics
}

// NewRegistry constructs an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		domains: make(map[resource.DomainID][]DomainHandler),
		log:     logrus.WithField("component", "effect.registry"),
	}
}

// WithMetrics attaches a Metrics instance that future dispatches report to.
func (r *Registry) WithMetrics(m *Metrics) *Registry {
	r.metrics = m
	return r
}

// RegisterDomainHandler appends h to the handler list for its declared
// domain. Selection later picks the first handler (in registration order)
// whose CanHandle returns true.
func (r *Registry) RegisterDomainHandler(h DomainHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := h.DomainID()
	r.domains[d] = append(r.domains[d], h)
	r.log.WithField("domain", d).Info("registered domain handler")
}

// RegisterCrossDomainHandler appends h to the cross-domain handler list.
func (r *Registry) RegisterCrossDomainHandler(h CrossDomainHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crossers = append(r.crossers, h)
	r.log.Info("registered cross-domain handler")
}

// Dispatch routes e to the first matching domain handler for
// e.DomainID() and executes it under ctx (spec §4.3 "Selection").
func (r *Registry) Dispatch(e *Effect, ctx *Context) (*Outcome, error) {
	r.mu.RLock()
	handlers := append([]DomainHandler(nil), r.domains[e.DomainID()]...)
	r.mu.RUnlock()

	for _, h := range handlers {
		if h.CanHandle(e) {
			outcome, err := h.HandleDomainEffect(e, ctx)
			if err != nil {
				r.log.WithError(err).WithField("effect", e.ID).Warn("domain handler execution failed")
				execErr := executionError(err.Error())
				r.metrics.observeError(execErr)
				return nil, execErr
			}
			r.metrics.observeOutcome(outcome)
			return outcome, nil
		}
	}
	notFoundErr := handlerNotFound("no domain handler for " + string(e.DomainID()) + "/" + e.EffectType)
	r.metrics.observeError(notFoundErr)
	return nil, notFoundErr
}

// DispatchCrossDomain routes e from src to dst, adapting ctx via mapping
// before invoking the matched cross-domain handler.
func (r *Registry) DispatchCrossDomain(e *Effect, src, dst resource.DomainID, srcCtx *Context, mapping *DomainCapabilityMapping) (*Outcome, error) {
	r.mu.RLock()
	crossers := append([]CrossDomainHandler(nil), r.crossers...)
	r.mu.RUnlock()

	for _, h := range crossers {
		for _, pair := range h.SupportedDomains() {
			if !pair.matches(src, dst) {
				continue
			}
			dstCtx := srcCtx
			if mapping != nil {
				dstCtx = mapping.Adapt(e, srcCtx)
			}
			outcome, err := h.HandleCrossDomainEffect(e, srcCtx, dstCtx)
			if err != nil {
				r.log.WithError(err).WithFields(logrus.Fields{"src": src, "dst": dst}).Warn("cross-domain handler execution failed")
				return nil, executionError(err.Error())
			}
			return outcome, nil
		}
	}
	return nil, handlerNotFound("no cross-domain handler for " + string(src) + "->" + string(dst))
}
