package model

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/weft-lang/weft/metamodel"
)

var errNoParser = errors.New("resource set has no parser installed")

// Loader reads the raw bytes behind a URI. Loads are the only operations at
// this layer expected to block on real I/O.
type Loader interface {
	Load(ctx context.Context, uri string) ([]byte, error)
}

// FileLoader resolves URIs as file paths, relative ones against Base.
type FileLoader struct {
	Base string
}

// Load reads the file behind the URI.
func (l FileLoader) Load(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := uri
	if l.Base != "" && !path.IsAbs(p) {
		p = path.Join(l.Base, p)
	}
	return os.ReadFile(p)
}

// ParseFunc turns raw resource bytes into a populated resource. The
// exchange-format codec installs its parser here so this package stays
// codec-agnostic.
type ParseFunc func(set *ResourceSet, uri string, data []byte) (*Resource, error)

// loadCall tracks an in-flight load so concurrent resolutions of the same
// URI share a single read.
type loadCall struct {
	done chan struct{}
	res  *Resource
	err  error
}

// ResourceSet is the registry of loaded resources: an ordered URI→resource
// mapping used both as a cache and as the authority for what is loaded.
// Load is idempotent and single-flight per URI; a failed parse registers
// nothing. Resources stay cached for the lifetime of the set.
type ResourceSet struct {
	mu        sync.Mutex
	registry  *metamodel.Registry
	resources map[string]*Resource
	order     []string
	inflight  map[string]*loadCall
	loader    Loader
	parse     ParseFunc
	logger    *zap.Logger
}

// Option configures a resource set.
type Option func(*ResourceSet)

// WithLoader replaces the default file loader.
func WithLoader(l Loader) Option {
	return func(s *ResourceSet) { s.loader = l }
}

// WithParseFunc installs the codec used to materialize loaded bytes.
func WithParseFunc(p ParseFunc) Option {
	return func(s *ResourceSet) { s.parse = p }
}

// WithLogger installs a structured logger for load activity.
func WithLogger(l *zap.Logger) Option {
	return func(s *ResourceSet) { s.logger = l }
}

// NewResourceSet creates an empty set backed by the given registry.
func NewResourceSet(reg *metamodel.Registry, opts ...Option) *ResourceSet {
	s := &ResourceSet{
		registry:  reg,
		resources: make(map[string]*Resource),
		inflight:  make(map[string]*loadCall),
		loader:    FileLoader{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the metamodel registry shared by the set's resources.
func (s *ResourceSet) Registry() *metamodel.Registry { return s.registry }

// Resource returns the cached resource for the URI, if present.
func (s *ResourceSet) Resource(uri string) (*Resource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[uri]
	return r, ok
}

// Add registers an externally constructed resource.
func (s *ResourceSet) Add(r *Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[r.URI()]; ok {
		return &DuplicateResourceError{URI: r.URI()}
	}
	s.resources[r.URI()] = r
	s.order = append(s.order, r.URI())
	return nil
}

// Count returns the number of loaded resources.
func (s *ResourceSet) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resources)
}

// URIs returns the loaded URIs in registration order.
func (s *ResourceSet) URIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Load returns the cached resource for the URI or reads and parses it.
// Concurrent loads of the same URI perform exactly one read; a second call
// for an already-loaded URI performs none. Partially parsed resources are
// never registered: on failure the partial graph is discarded and a later
// Load may retry.
func (s *ResourceSet) Load(ctx context.Context, uri string) (*Resource, error) {
	s.mu.Lock()
	if r, ok := s.resources[uri]; ok {
		s.mu.Unlock()
		return r, nil
	}
	if call, ok := s.inflight[uri]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.res, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &loadCall{done: make(chan struct{})}
	s.inflight[uri] = call
	s.mu.Unlock()

	call.res, call.err = s.doLoad(ctx, uri)

	s.mu.Lock()
	delete(s.inflight, uri)
	if call.err == nil {
		s.resources[uri] = call.res
		s.order = append(s.order, uri)
	}
	s.mu.Unlock()
	close(call.done)
	return call.res, call.err
}

func (s *ResourceSet) doLoad(ctx context.Context, uri string) (*Resource, error) {
	s.logger.Debug("loading resource", zap.String("uri", uri))
	data, err := s.loader.Load(ctx, uri)
	if err != nil {
		s.logger.Warn("resource read failed", zap.String("uri", uri), zap.Error(err))
		return nil, &ResourceNotFoundError{URI: uri, Err: err}
	}
	if s.parse == nil {
		return nil, &ResourceNotFoundError{URI: uri, Err: errNoParser}
	}
	res, err := s.parse(s, uri, data)
	if err != nil {
		s.logger.Warn("resource parse failed", zap.String("uri", uri), zap.Error(err))
		return nil, err
	}
	s.logger.Debug("resource loaded",
		zap.String("uri", uri),
		zap.Int("objects", res.Len()),
		zap.Int("roots", len(res.RootObjects())))
	return res, nil
}

// ResolveURI resolves ref against the directory of base when ref is
// relative, mirroring how hrefs in a document are interpreted relative to
// the document's own URI.
func ResolveURI(base, ref string) string {
	if ref == "" || path.IsAbs(ref) || strings.Contains(ref, "://") {
		return ref
	}
	dir := path.Dir(base)
	if dir == "." {
		return ref
	}
	return path.Join(dir, ref)
}

// RelativizeURI is the inverse of ResolveURI: it strips base's directory
// from target so a serialized href reads the way it was written in the
// source document. Targets outside base's directory stay as they are.
func RelativizeURI(base, target string) string {
	dir := path.Dir(base)
	if dir == "." || dir == "/" {
		return target
	}
	if rest, ok := strings.CutPrefix(target, dir+"/"); ok {
		return rest
	}
	return target
}
