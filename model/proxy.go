package model

import "context"

// Proxy is an unresolved external reference: a target URI plus a navigation
// fragment. It is a value, comparable and hashable by the (URI, Fragment)
// pair, so proxies deduplicate without being resolved. Resolving never
// mutates the proxy.
type Proxy struct {
	URI      string
	Fragment string
}

// IsZero reports whether the proxy is empty.
func (p Proxy) IsZero() bool { return p == Proxy{} }

// String renders the proxy in href form.
func (p Proxy) String() string { return p.URI + "#" + p.Fragment }

// Resolve loads the target resource through the set if it is not yet
// present (the only path here that performs I/O) and walks the fragment.
// A fragment that walks off the containment structure yields ok=false with
// no error: an unresolved reference is data, not a failure. Load errors
// surface to the caller.
func (p Proxy) Resolve(ctx context.Context, set *ResourceSet) (ID, bool, error) {
	res, err := set.Load(ctx, p.URI)
	if err != nil {
		return "", false, err
	}
	id, ok := res.ResolveFragment(p.Fragment)
	return id, ok, nil
}
