package lambda

// sessionScope is one stack frame of the session environment: channel name
// to its *current* (evolving) session type. Lambda, TensorLet, Transform
// and Fork push a scope for their bodies; Case and Branch arms are checked
// against a Clone of the context instead, so a channel can have a
// different continuation per arm without clobbering the parent's view.
type sessionScope struct {
	channels map[string]*SessionType
}

func newSessionScope() *sessionScope {
	return &sessionScope{channels: make(map[string]*SessionType)}
}

// Context is the type checking context: ordinary bindings, linear-usage
// flags for linear-typed bindings, and a stacked session environment
// (spec §4.1 "Context").
type Context struct {
	bindings    map[string]*TypeInner
	linearUsed  map[string]bool
	sessionEnv  []*sessionScope
}

// NewContext creates an empty type-checking context with a single root
// session scope.
func NewContext() *Context {
	return &Context{
		bindings:   make(map[string]*TypeInner),
		linearUsed: make(map[string]bool),
		sessionEnv: []*sessionScope{newSessionScope()},
	}
}

// Clone produces an independent copy of the context, used to type-check
// the two parallel scopes of a Case analysis without one branch's usage
// tracking leaking into the other (spec §4.1: "typecheck l with x:A and r
// with y:B in *parallel* scopes").
func (c *Context) Clone() *Context {
	out := &Context{
		bindings:   make(map[string]*TypeInner, len(c.bindings)),
		linearUsed: make(map[string]bool, len(c.linearUsed)),
		sessionEnv: make([]*sessionScope, len(c.sessionEnv)),
	}
	for k, v := range c.bindings {
		out.bindings[k] = v
	}
	for k, v := range c.linearUsed {
		out.linearUsed[k] = v
	}
	for i, scope := range c.sessionEnv {
		ns := newSessionScope()
		for k, v := range scope.channels {
			ns.channels[k] = v
		}
		out.sessionEnv[i] = ns
	}
	return out
}

// Bind introduces name:ty into the context. If ty is linear it starts
// tracked as unused.
func (c *Context) Bind(name string, ty *TypeInner) {
	c.bindings[name] = ty
	if ty.IsLinear() {
		c.linearUsed[name] = false
	}
}

// Lookup returns the bound type for name.
func (c *Context) Lookup(name string) (*TypeInner, error) {
	ty, ok := c.bindings[name]
	if !ok {
		return nil, variableNotFound(name)
	}
	return ty, nil
}

// Use marks name as consumed, returning LinearityViolation if it is linear
// and already used (spec invariant "Linearity").
func (c *Context) Use(name string) (*TypeInner, error) {
	ty, err := c.Lookup(name)
	if err != nil {
		return nil, err
	}
	if ty.IsLinear() {
		if c.linearUsed[name] {
			return nil, linearityViolation(name, true)
		}
		c.linearUsed[name] = true
	}
	return ty, nil
}

// UnusedLinearBindings returns the names of linear bindings that were
// never consumed, used to enforce "every linear binding is used exactly
// once" at scope exit.
func (c *Context) UnusedLinearBindings() []string {
	var out []string
	for name, used := range c.linearUsed {
		if !used {
			out = append(out, name)
		}
	}
	return out
}

// BindChannel binds a channel name to a session type in the current (top)
// session scope.
func (c *Context) BindChannel(name string, s *SessionType) {
	c.currentScope().channels[name] = s
}

// ChannelType returns the current session type of a bound channel,
// searching from the innermost scope outward.
func (c *Context) ChannelType(name string) (*SessionType, error) {
	for i := len(c.sessionEnv) - 1; i >= 0; i-- {
		if s, ok := c.sessionEnv[i].channels[name]; ok {
			return s, nil
		}
	}
	return nil, channelNotFound(name)
}

// AdvanceChannel updates a channel's current session type in place, in
// whichever scope it was found (Send/Receive/Select/Branch all advance the
// channel's protocol state this way).
func (c *Context) AdvanceChannel(name string, next *SessionType) error {
	for i := len(c.sessionEnv) - 1; i >= 0; i-- {
		if _, ok := c.sessionEnv[i].channels[name]; ok {
			c.sessionEnv[i].channels[name] = next
			return nil
		}
	}
	return channelNotFound(name)
}

// CloseChannel removes a channel from the session environment once it has
// been consumed by Close or Wait (spec invariant "Session progress").
func (c *Context) CloseChannel(name string) {
	for i := len(c.sessionEnv) - 1; i >= 0; i-- {
		if _, ok := c.sessionEnv[i].channels[name]; ok {
			delete(c.sessionEnv[i].channels, name)
			return
		}
	}
}

func (c *Context) currentScope() *sessionScope {
	return c.sessionEnv[len(c.sessionEnv)-1]
}

// PushScope opens a fresh session scope (entered on Lambda, TensorLet,
// Transform and Fork bodies).
func (c *Context) PushScope() {
	c.sessionEnv = append(c.sessionEnv, newSessionScope())
}

// PopScope closes the innermost session scope, returning the channel names
// that were bound in it without being closed — a Session-progress
// violation if the type belongs to an End-typed channel, which callers
// check explicitly.
func (c *Context) PopScope() map[string]*SessionType {
	n := len(c.sessionEnv)
	top := c.sessionEnv[n-1]
	c.sessionEnv = c.sessionEnv[:n-1]
	return top.channels
}
