package effect

import "github.com/timewave-computer/causality-sub001/core/content"

// Context carries everything a handler sees while executing an effect:
// the effect ID, the capability set in scope, the resources visible to
// this scope, a metadata map, and an optional parent. Contexts are
// immutable; every With* method derives a new child context rather than
// mutating the receiver (spec §4.3 "Contexts are immutable; derivation
// produces new contexts").
type Context struct {
	effectID     string
	capabilities map[string]bool
	resources    map[content.ID]bool
	metadata     map[string]string
	parent       *Context
}

// NewContext constructs a root context for effectID with no capabilities,
// resources or metadata.
func NewContext(effectID string) *Context {
	return &Context{
		effectID:     effectID,
		capabilities: map[string]bool{},
		resources:    map[content.ID]bool{},
		metadata:     map[string]string{},
	}
}

// EffectID returns the correlation ID of the effect this context belongs to.
func (c *Context) EffectID() string { return c.effectID }

// Parent returns the context this one was derived from, or nil for a root.
func (c *Context) Parent() *Context { return c.parent }

// HasCapability reports whether name is in scope, checking ancestors too.
func (c *Context) HasCapability(name string) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.capabilities[name] {
			return true
		}
	}
	return false
}

// HasResource reports whether id is visible in this scope or an ancestor's.
func (c *Context) HasResource(id content.ID) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.resources[id] {
			return true
		}
	}
	return false
}

// Metadata looks up key in this context first, then in each ancestor
// moving outward (innermost wins).
func (c *Context) Metadata(key string) (string, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if v, ok := cur.metadata[key]; ok {
			return v, true
		}
	}
	return "", false
}

func (c *Context) clone() *Context {
	return &Context{
		effectID:     c.effectID,
		capabilities: map[string]bool{},
		resources:    map[content.ID]bool{},
		metadata:     map[string]string{},
		parent:       c,
	}
}

// WithCapability derives a child context with name added to the
// capability set.
func (c *Context) WithCapability(name string) *Context {
	child := c.clone()
	child.capabilities[name] = true
	return child
}

// WithResource derives a child context with id added to the visible
// resource set.
func (c *Context) WithResource(id content.ID) *Context {
	child := c.clone()
	child.resources[id] = true
	return child
}

// WithMetadata derives a child context with key=value added to the
// metadata map.
func (c *Context) WithMetadata(key, value string) *Context {
	child := c.clone()
	child.metadata[key] = value
	return child
}

// Child derives an empty child context, useful as a scoping boundary
// before a handler grants its own capabilities/resources.
func (c *Context) Child() *Context {
	return c.clone()
}
