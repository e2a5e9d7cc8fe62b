package model

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLoader serves canned documents and counts reads per URI.
type countingLoader struct {
	mu    sync.Mutex
	docs  map[string]string
	loads map[string]int
}

func newCountingLoader(docs map[string]string) *countingLoader {
	return &countingLoader{docs: docs, loads: make(map[string]int)}
}

func (l *countingLoader) Load(_ context.Context, uri string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads[uri]++
	doc, ok := l.docs[uri]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(doc), nil
}

func (l *countingLoader) count(uri string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads[uri]
}

// stubParse materializes one root Team named after the document body.
func stubParse(t *testing.T) ParseFunc {
	return func(set *ResourceSet, uri string, data []byte) (*Resource, error) {
		res := NewResource(uri, set.Registry())
		root := NewObject("Team")
		if _, err := res.Add(root); err != nil {
			return nil, err
		}
		if err := res.Set(root.ID(), "name", String(string(data))); err != nil {
			return nil, err
		}
		return res, nil
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	loader := newCountingLoader(map[string]string{"a.xmi": "Alpha"})
	set := NewResourceSet(teamRegistry(t), WithLoader(loader), WithParseFunc(stubParse(t)))

	ctx := context.Background()
	first, err := set.Load(ctx, "a.xmi")
	require.NoError(t, err)
	second, err := set.Load(ctx, "a.xmi")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, loader.count("a.xmi"))
	assert.Equal(t, 1, set.Count())
	assert.Equal(t, []string{"a.xmi"}, set.URIs())
}

func TestLoadConcurrentSingleFlight(t *testing.T) {
	loader := newCountingLoader(map[string]string{"a.xmi": "Alpha"})
	set := NewResourceSet(teamRegistry(t), WithLoader(loader), WithParseFunc(stubParse(t)))

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := set.Load(context.Background(), "a.xmi"); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, failures.Load())
	assert.Equal(t, 1, loader.count("a.xmi"))
}

func TestLoadMissingResource(t *testing.T) {
	loader := newCountingLoader(nil)
	set := NewResourceSet(teamRegistry(t), WithLoader(loader), WithParseFunc(stubParse(t)))

	_, err := set.Load(context.Background(), "missing.xmi")
	var nf *ResourceNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing.xmi", nf.URI)
	assert.Zero(t, set.Count(), "failed loads register nothing")
}

func TestLoadParseFailureRegistersNothing(t *testing.T) {
	loader := newCountingLoader(map[string]string{"bad.xmi": "irrelevant"})
	boom := errors.New("boom")
	set := NewResourceSet(teamRegistry(t),
		WithLoader(loader),
		WithParseFunc(func(*ResourceSet, string, []byte) (*Resource, error) {
			return nil, boom
		}))

	_, err := set.Load(context.Background(), "bad.xmi")
	require.ErrorIs(t, err, boom)
	assert.Zero(t, set.Count())

	// a later load retries the read rather than serving a cached failure
	_, err = set.Load(context.Background(), "bad.xmi")
	require.Error(t, err)
	assert.Equal(t, 2, loader.count("bad.xmi"))
}

func TestAddDuplicateResource(t *testing.T) {
	set := NewResourceSet(teamRegistry(t))
	require.NoError(t, set.Add(NewResource("a.xmi", set.Registry())))
	err := set.Add(NewResource("a.xmi", set.Registry()))
	var dup *DuplicateResourceError
	assert.ErrorAs(t, err, &dup)
}

func TestProxyLazyLoad(t *testing.T) {
	loader := newCountingLoader(map[string]string{"department-b.xmi": "DeptB"})
	set := NewResourceSet(teamRegistry(t), WithLoader(loader), WithParseFunc(stubParse(t)))

	proxy := Proxy{URI: "department-b.xmi", Fragment: "/"}
	ctx := context.Background()

	id, ok, err := proxy.Resolve(ctx, set)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, loader.count("department-b.xmi"), "resolution loads the target exactly once")

	res, _ := set.Resource("department-b.xmi")
	assert.Equal(t, res.RootObjects()[0], id)

	// a second proxy to the same URI triggers no additional load
	other := Proxy{URI: "department-b.xmi", Fragment: "/"}
	id2, ok, err := other.Resolve(ctx, set)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, id2)
	assert.Equal(t, 1, loader.count("department-b.xmi"))
}

func TestProxyUnresolvedFragmentIsNotAnError(t *testing.T) {
	loader := newCountingLoader(map[string]string{"b.xmi": "B"})
	set := NewResourceSet(teamRegistry(t), WithLoader(loader), WithParseFunc(stubParse(t)))

	proxy := Proxy{URI: "b.xmi", Fragment: "//@members.7"}
	_, ok, err := proxy.Resolve(context.Background(), set)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProxyEquality(t *testing.T) {
	a := Proxy{URI: "b.xmi", Fragment: "/"}
	b := Proxy{URI: "b.xmi", Fragment: "/"}
	c := Proxy{URI: "b.xmi", Fragment: "//@members.0"}
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	// usable as a map key for deduplication without resolution
	seen := map[Proxy]bool{a: true}
	assert.True(t, seen[b])
	assert.False(t, seen[c])
}

func TestResolveURI(t *testing.T) {
	assert.Equal(t, "models/b.xmi", ResolveURI("models/a.xmi", "b.xmi"))
	assert.Equal(t, "b.xmi", ResolveURI("a.xmi", "b.xmi"))
	assert.Equal(t, "/abs/b.xmi", ResolveURI("models/a.xmi", "/abs/b.xmi"))
	assert.Equal(t, "http://x/b.xmi", ResolveURI("models/a.xmi", "http://x/b.xmi"))
}

func TestRelativizeURI(t *testing.T) {
	assert.Equal(t, "b.xmi", RelativizeURI("models/a.xmi", "models/b.xmi"))
	assert.Equal(t, "b.xmi", RelativizeURI("a.xmi", "b.xmi"))
	assert.Equal(t, "/abs/b.xmi", RelativizeURI("models/a.xmi", "/abs/b.xmi"))

	// resolve then relativize is stable
	resolved := ResolveURI("models/a.xmi", "sub/b.xmi")
	assert.Equal(t, "sub/b.xmi", RelativizeURI("models/a.xmi", resolved))
}
