package sidecar

// Proxy gives name-indexed access to whatever a Handle implements right now.
//
// Every Resolve consults the handle again: a method the agent defines late
// becomes resolvable on the next call, and a "not supported" answer is
// never remembered.
type Proxy struct {
	handle Handle
}

// NewProxy creates a proxy over handle.
func NewProxy(handle Handle) *Proxy {
	return &Proxy{handle: handle}
}

// Resolve returns the method registered under name, bound to the handle.
// ok is false when the handle does not support name; that is the
// not-supported marker, not an error.
func (p *Proxy) Resolve(name string) (m Method, ok bool) {
	m, ok = p.handle.Lookup(name)
	if !ok || m == nil {
		return nil, false
	}
	return m, true
}

// Supports reports whether name currently resolves.
func (p *Proxy) Supports(name string) bool {
	_, ok := p.Resolve(name)
	return ok
}
