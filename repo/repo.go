// Package repo is the high-level entry point for working with model
// repositories: it wires a resource set to the XMI codec and exposes the
// handful of operations external tooling needs without touching the
// lower-level packages directly.
package repo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/weft-lang/weft/metamodel"
	"github.com/weft-lang/weft/model"
	"github.com/weft-lang/weft/xmi"
)

// Repo owns a resource set whose parser is the XMI codec.
type Repo struct {
	registry *metamodel.Registry
	set      *model.ResourceSet
}

// Option configures the underlying resource set.
type Option func(*options)

type options struct {
	loader model.Loader
	logger *zap.Logger
}

// WithLoader replaces the default file loader.
func WithLoader(l model.Loader) Option {
	return func(o *options) { o.loader = l }
}

// WithLogger installs a structured logger for load activity.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a repository over the given metamodel.
func New(reg *metamodel.Registry, opts ...Option) *Repo {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	setOpts := []model.Option{model.WithParseFunc(xmi.Parse)}
	if o.loader != nil {
		setOpts = append(setOpts, model.WithLoader(o.loader))
	}
	if o.logger != nil {
		setOpts = append(setOpts, model.WithLogger(o.logger))
	}
	return &Repo{registry: reg, set: model.NewResourceSet(reg, setOpts...)}
}

// Registry returns the metamodel registry backing the repository.
func (r *Repo) Registry() *metamodel.Registry { return r.registry }

// ResourceSet returns the underlying set, for callers that need the full
// surface.
func (r *Repo) ResourceSet() *model.ResourceSet { return r.set }

// Load fetches and parses the resource at the URI, reusing the cached
// resource on repeat calls.
func (r *Repo) Load(ctx context.Context, uri string) (*model.Resource, error) {
	return r.set.Load(ctx, uri)
}

// NewResource creates an empty in-memory resource and registers it with
// the set under the given URI.
func (r *Repo) NewResource(uri string) (*model.Resource, error) {
	res := model.NewResource(uri, r.registry)
	if err := r.set.Add(res); err != nil {
		return nil, err
	}
	return res, nil
}

// Get reads a feature value.
func (r *Repo) Get(res *model.Resource, id model.ID, feature string) model.Value {
	return res.Get(id, feature)
}

// Set writes a feature value, enforcing the metamodel's typing,
// multiplicity and containment rules.
func (r *Repo) Set(res *model.Resource, id model.ID, feature string, v model.Value) error {
	return res.Set(id, feature, v)
}

// Add attaches a new root object to the resource.
func (r *Repo) Add(res *model.Resource, o *model.Object) (model.ID, error) {
	return res.Add(o)
}

// RootObjects lists the resource's roots in insertion order.
func (r *Repo) RootObjects(res *model.Resource) []model.ID {
	return res.RootObjects()
}

// ResolveProxy loads the proxy's target resource on demand and resolves
// its fragment. The second return is false when the fragment does not
// designate an object in the loaded resource.
func (r *Repo) ResolveProxy(ctx context.Context, p model.Proxy) (model.ID, bool, error) {
	return p.Resolve(ctx, r.set)
}

// Serialize renders the resource as an XMI document.
func (r *Repo) Serialize(res *model.Resource) (string, error) {
	return xmi.Serialize(res, r.set)
}

// Save serializes the resource and writes it to dest. The write goes
// through a temporary file in the destination directory followed by a
// rename, so readers never observe a half-written document.
func (r *Repo) Save(ctx context.Context, res *model.Resource, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out, err := r.Serialize(res)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", res.URI(), err)
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.WriteString(out); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}
