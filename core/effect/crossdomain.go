package effect

import (
	"strings"

	"github.com/timewave-computer/causality-sub001/core/content"
	"github.com/timewave-computer/causality-sub001/core/resource"
	"go.uber.org/zap"
)

// TransformKind enumerates the per-parameter transforms a
// DomainCapabilityMapping may apply while adapting a context across
// domains (spec §4.3 "uppercase|lowercase|prefixed|...").
type TransformKind int

const (
	TransformNone TransformKind = iota
	TransformUppercase
	TransformLowercase
	TransformPrefixed
)

// ParamTransform describes one parameter's adaptation rule.
type ParamTransform struct {
	Kind   TransformKind
	Prefix string // used only when Kind == TransformPrefixed
}

func (t ParamTransform) apply(v string) string {
	switch t.Kind {
	case TransformUppercase:
		return strings.ToUpper(v)
	case TransformLowercase:
		return strings.ToLower(v)
	case TransformPrefixed:
		return t.Prefix + v
	default:
		return v
	}
}

// ValidationResult accumulates the outcome of running a set of
// ParameterValidators against an effect's parameters (restored from the
// Rust original's EnhancedDomainContextAdapter).
type ValidationResult struct {
	Valid  bool
	Errors []string
}

func (v *ValidationResult) fail(msg string) {
	v.Valid = false
	v.Errors = append(v.Errors, msg)
}

// ParameterValidator inspects an effect's parameters. Validators run only
// through DomainCapabilityMapping.Validate; Adapt does not invoke them.
type ParameterValidator interface {
	Validate(params map[string]string) *ValidationResult
}

// ParameterValidatorFunc adapts a plain function to ParameterValidator.
type ParameterValidatorFunc func(params map[string]string) *ValidationResult

func (f ParameterValidatorFunc) Validate(params map[string]string) *ValidationResult {
	return f(params)
}

// DomainCapabilityMapping stores how to adapt an effect's context when it
// crosses from Src to Dst (spec §4.3 "Cross-domain adaptation").
type DomainCapabilityMapping struct {
	Src resource.DomainID
	Dst resource.DomainID

	resourceMap    map[content.ID]content.ID
	capabilityMap  map[string]string
	paramTransform map[string]ParamTransform
	validators     []ParameterValidator
	critical       map[string]bool

	log *zap.SugaredLogger
}

// NewDomainCapabilityMapping constructs an empty mapping from src to dst.
func NewDomainCapabilityMapping(src, dst resource.DomainID) *DomainCapabilityMapping {
	return &DomainCapabilityMapping{
		Src:            src,
		Dst:            dst,
		resourceMap:    make(map[content.ID]content.ID),
		capabilityMap:  make(map[string]string),
		paramTransform: make(map[string]ParamTransform),
		critical:       make(map[string]bool),
		log:            zap.L().Sugar(),
	}
}

// MapResource installs a src -> dst resource ID re-mapping.
func (m *DomainCapabilityMapping) MapResource(src, dst content.ID) {
	m.resourceMap[src] = dst
}

// MapCapability installs a src -> dst capability name re-mapping. An empty
// dstName installs no mapping. If critical is true the capability is
// recorded as critical, and AddMapping logs a warning for it while it has
// no mapping (Open Question: "Cross-domain mapping completeness").
func (m *DomainCapabilityMapping) MapCapability(srcName, dstName string, critical bool) {
	if dstName != "" {
		m.capabilityMap[srcName] = dstName
	}
	if critical {
		m.critical[srcName] = true
	}
}

// SetParamTransform installs a transform for parameter key.
func (m *DomainCapabilityMapping) SetParamTransform(key string, t ParamTransform) {
	m.paramTransform[key] = t
}

// AddValidator registers a ParameterValidator for Validate to run.
func (m *DomainCapabilityMapping) AddValidator(v ParameterValidator) {
	m.validators = append(m.validators, v)
}

// AddMapping finalizes mapping registration and warns about any
// capability marked critical that still has no destination mapping.
func (m *DomainCapabilityMapping) AddMapping() {
	for name := range m.critical {
		if _, mapped := m.capabilityMap[name]; !mapped {
			m.log.Warnw("critical capability left unmapped across domains",
				"src", m.Src, "dst", m.Dst, "capability", name)
		}
	}
}

// Validate runs every registered validator against e's parameters,
// merging their results.
func (m *DomainCapabilityMapping) Validate(e *Effect) *ValidationResult {
	result := &ValidationResult{Valid: true}
	for _, v := range m.validators {
		r := v.Validate(e.Parameters)
		if r == nil {
			continue
		}
		if !r.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, r.Errors...)
	}
	return result
}

// Adapt produces a dst-side context from srcCtx: capability names and
// resource IDs are re-mapped, parameter transforms are applied to e's
// metadata view, unmapped parameters pass through untouched, and
// domain_id metadata is set to Dst (spec §4.3 "Adaptation produces a
// dst-side context with the mapped bindings plus domain_id metadata set
// to dst").
func (m *DomainCapabilityMapping) Adapt(e *Effect, srcCtx *Context) *Context {
	dst := srcCtx.Child()
	for name := range srcCtx.capabilities {
		if mapped, ok := m.capabilityMap[name]; ok {
			dst = dst.WithCapability(mapped)
		} else {
			dst = dst.WithCapability(name)
		}
	}
	for id := range srcCtx.resources {
		if mapped, ok := m.resourceMap[id]; ok {
			dst = dst.WithResource(mapped)
		} else {
			dst = dst.WithResource(id)
		}
	}
	for k, v := range e.Parameters {
		out := v
		if t, ok := m.paramTransform[k]; ok {
			out = t.apply(v)
		}
		dst = dst.WithMetadata(k, out)
	}
	dst = dst.WithMetadata("domain_id", string(m.Dst))
	return dst
}
