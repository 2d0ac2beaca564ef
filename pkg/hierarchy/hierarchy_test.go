package hierarchy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbkit/nbsync/pkg/content"
	"github.com/nbkit/nbsync/pkg/remote"
	"github.com/nbkit/nbsync/pkg/server"
)

// fakeServer serves canned content listings and a session list, and counts
// requests per path. Subtree fetches arrive concurrently, hence the lock.
type fakeServer struct {
	mu       sync.Mutex
	listings map[string]string // request path -> response body
	sessions string
	requests map[string]int
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		listings: map[string]string{},
		sessions: "[]",
		requests: map[string]int{},
	}
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests[r.URL.Path]++
	listing, ok := s.listings[r.URL.Path]
	sessions := s.sessions
	s.mu.Unlock()

	if r.URL.Path == "/api/sessions" {
		w.Write([]byte(sessions))
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Write([]byte(listing))
}

func (s *fakeServer) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// addDir registers the listing for a directory containing the given entries
// (paths; entries ending in ".ipynb" become notebooks, everything else a
// subdirectory).
func (s *fakeServer) addDir(t *testing.T, path string, entries ...string) {
	var children []map[string]interface{}
	for _, entry := range entries {
		typ := "directory"
		if strings.HasSuffix(entry, ".ipynb") {
			typ = "notebook"
		}
		children = append(children, map[string]interface{}{
			"name": entry[strings.LastIndex(entry, "/")+1:],
			"path": entry,
			"type": typ,
		})
	}
	record := map[string]interface{}{
		"name":    path[strings.LastIndex(path, "/")+1:],
		"path":    path,
		"type":    "directory",
		"content": children,
	}
	body, err := json.Marshal(record)
	require.NoError(t, err)

	requestPath := "/api/contents"
	if path != "" {
		requestPath += "/" + path
	}
	s.mu.Lock()
	s.listings[requestPath] = string(body)
	s.mu.Unlock()
}

func newTestTraverser(srv *httptest.Server, opts Options, registry *Registry) *Traverser {
	cli := remote.New(srv.URL, "testserver:8888", remote.ModeInteractive, 0)
	return New(cli, content.ForGeneration(server.GenerationCurrent), opts, registry)
}

func flatPaths(tree *Node) []string {
	var paths []string
	for _, c := range Flatten(tree) {
		paths = append(paths, c.Path)
	}
	return paths
}

func TestTraverseBounds(t *testing.T) {
	fake := newFakeServer()

	// Ten root-level directories, each with one notebook and one
	// subdirectory that itself contains a notebook and a deeper directory.
	var rootEntries []string
	for i := 0; i < 10; i++ {
		dir := fmt.Sprintf("dir%d", i)
		rootEntries = append(rootEntries, dir)
		fake.addDir(t, dir, dir+"/nb.ipynb", dir+"/sub")
		fake.addDir(t, dir+"/sub", dir+"/sub/nb.ipynb", dir+"/sub/deeper")
		fake.addDir(t, dir+"/sub/deeper", dir+"/sub/deeper/nb.ipynb")
	}
	rootEntries = append(rootEntries, "readme.ipynb")
	fake.addDir(t, "", rootEntries...)

	srv := httptest.NewServer(fake)
	defer srv.Close()

	registry := NewRegistry()
	trav := newTestTraverser(srv, Options{MaxDepth: 2, MaxBranch: 6}, registry)
	tree, err := trav.Traverse()
	require.NoError(t, err)
	require.NotNil(t, tree)

	var expPaths []string
	expPaths = append(expPaths, "", "readme.ipynb")
	for i := 0; i < 6; i++ {
		dir := fmt.Sprintf("dir%d", i)
		expPaths = append(expPaths,
			dir, dir+"/nb.ipynb",
			dir+"/sub", dir+"/sub/nb.ipynb")
	}
	assert.ElementsMatch(t, expPaths, flatPaths(tree))

	// Exactly min(k, maxBranch) first-level fetches; the four excess
	// directories are never requested.
	for i := 0; i < 6; i++ {
		assert.Equal(t, 1, fake.count(fmt.Sprintf("/api/contents/dir%d", i)))
	}
	for i := 6; i < 10; i++ {
		assert.Equal(t, 0, fake.count(fmt.Sprintf("/api/contents/dir%d", i)))
	}
	// No third level: directories at the depth bound aren't even listed.
	assert.Equal(t, 0, fake.count("/api/contents/dir0/sub/deeper"))

	snapshot, ok := registry.Get("testserver:8888")
	require.True(t, ok)
	assert.Len(t, snapshot, len(expPaths))
}

func TestTraverseDepthZero(t *testing.T) {
	fake := newFakeServer()
	fake.addDir(t, "", "docs", "nb.ipynb")
	fake.addDir(t, "docs", "docs/inner.ipynb")

	srv := httptest.NewServer(fake)
	defer srv.Close()

	tree, err := newTestTraverser(srv, Options{MaxDepth: 0, MaxBranch: 6}, nil).Traverse()
	require.NoError(t, err)

	// At the depth bound, directory children are omitted entirely.
	assert.ElementsMatch(t, []string{"", "nb.ipynb"}, flatPaths(tree))
	assert.Equal(t, 0, fake.count("/api/contents/docs"))
}

func TestTraverseSubtreeFailureIsIsolated(t *testing.T) {
	fake := newFakeServer()
	fake.addDir(t, "", "broken", "healthy")
	// No listing registered for "broken", so its fetch 404s.
	fake.addDir(t, "healthy", "healthy/nb.ipynb")

	srv := httptest.NewServer(fake)
	defer srv.Close()

	tree, err := newTestTraverser(srv, DefaultOptions(), nil).Traverse()
	require.NoError(t, err)
	require.NotNil(t, tree)

	// The failed directory stays in the result as a childless node, and
	// its sibling's data is intact.
	assert.ElementsMatch(t, []string{"", "broken", "healthy", "healthy/nb.ipynb"},
		flatPaths(tree))
	for _, node := range tree.Children {
		if node.Content.Path == "broken" {
			assert.Empty(t, node.Children)
		}
	}
}

func TestTraverseRootFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/sessions" {
				w.Write([]byte("[]"))
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
	defer srv.Close()

	registry := NewRegistry()
	tree, err := newTestTraverser(srv, DefaultOptions(), registry).Traverse()
	assert.Error(t, err)
	assert.Nil(t, tree)

	// Nothing is published for a traversal that never completed.
	_, ok := registry.Get("testserver:8888")
	assert.False(t, ok)
}

func TestTraverseAnnotatesSessions(t *testing.T) {
	fake := newFakeServer()
	fake.addDir(t, "", "work", "idle.ipynb")
	fake.addDir(t, "work", "work/live.ipynb")
	fake.sessions = `[
		{"id": "s1", "path": "work/live.ipynb",
		 "kernel": {"id": "k1", "name": "python3"}}
	]`

	srv := httptest.NewServer(fake)
	defer srv.Close()

	tree, err := newTestTraverser(srv, DefaultOptions(), nil).Traverse()
	require.NoError(t, err)

	for _, c := range Flatten(tree) {
		switch c.Path {
		case "work/live.ipynb":
			assert.True(t, c.HasSession)
		default:
			assert.False(t, c.HasSession)
		}
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	identity := server.Identity("testserver:8888")

	_, ok := registry.Get(identity)
	assert.False(t, ok)

	first := []*content.Content{{Path: "a.ipynb"}}
	registry.Set(identity, first)
	snapshot, ok := registry.Get(identity)
	assert.True(t, ok)
	assert.Equal(t, first, snapshot)

	// Snapshots are replaced wholesale, never merged.
	second := []*content.Content{{Path: "b.ipynb"}, {Path: "c.ipynb"}}
	registry.Set(identity, second)
	snapshot, _ = registry.Get(identity)
	assert.Equal(t, second, snapshot)

	registry.Invalidate(identity)
	_, ok = registry.Get(identity)
	assert.False(t, ok)
}
