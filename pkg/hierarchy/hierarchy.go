package hierarchy

import (
	log "github.com/sirupsen/logrus"

	"github.com/nbkit/nbsync/pkg/content"
	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/remote"
	"github.com/nbkit/nbsync/pkg/session"
)

// Options bound a traversal. A full recursive listing of a filesystem-backed
// server is unbounded, and the concurrent fan-out grows as branch^depth, so
// both limits stay small.
type Options struct {
	// MaxDepth is the deepest level at which subdirectories are still
	// expanded. At or beyond it, a node's directory children are omitted
	// from the result entirely.
	MaxDepth int

	// MaxBranch caps how many subdirectories are expanded per level.
	// Excess directory entries at a level are dropped from the traversal.
	MaxBranch int
}

// DefaultOptions returns the traversal bounds used when the user hasn't
// configured any.
func DefaultOptions() Options {
	return Options{MaxDepth: 2, MaxBranch: 6}
}

// Node is one merged subtree of a traversal result.
type Node struct {
	Content  *content.Content
	Children []*Node
}

// Flatten returns the tree's entities depth first. Each node appears
// exactly once: directories contribute themselves, not a duplicate of their
// listing.
func Flatten(node *Node) []*content.Content {
	if node == nil {
		return nil
	}
	flat := []*content.Content{node.Content}
	for _, child := range node.Children {
		flat = append(flat, Flatten(child)...)
	}
	return flat
}

// Traverser reconstructs a bounded view of one server's content tree.
type Traverser struct {
	cli      *remote.Client
	sch      content.Schema
	opts     Options
	registry *Registry
}

// New creates a Traverser. registry may be nil if the caller doesn't want
// the snapshot retained.
func New(cli *remote.Client, sch content.Schema, opts Options, registry *Registry) *Traverser {
	return &Traverser{cli: cli, sch: sch, opts: opts, registry: registry}
}

// Traverse expands the server's root directory into a merged tree. The
// session index is rebuilt first so non-directory nodes can be annotated;
// its failure degrades to no annotations. A root fetch failure is the only
// fatal outcome. Once the traversal completes, the flattened result
// replaces the registry snapshot for the server wholesale.
func (t *Traverser) Traverse() (*Node, error) {
	idx := session.FetchIndex(t.cli, t.sch)

	root, err := content.Fetch(t.cli, t.sch, "")
	if err != nil {
		return nil, errors.WithContext(err, "fetch root listing")
	}

	tree := t.expand(root, idx, 0)
	if t.registry != nil {
		t.registry.Set(root.Server, Flatten(tree))
	}
	log.WithFields(log.Fields{
		"server":  t.cli.Identity(),
		"entries": len(Flatten(tree)),
	}).Debug("Traversal complete")
	return tree, nil
}

// expand merges a fetched directory node with its expanded subtrees. Each
// eligible subdirectory is fetched concurrently; subtree order in the
// result is completion order, not listing order, so callers needing a
// deterministic order must sort.
func (t *Traverser) expand(dir *content.Content, idx session.Index, depth int) *Node {
	node := &Node{Content: dir}

	var candidates []*content.Content
	for _, child := range dir.Children {
		if child.IsDirectory() {
			if depth >= t.opts.MaxDepth {
				continue
			}
			if len(candidates) >= t.opts.MaxBranch {
				log.WithFields(log.Fields{
					"path":      child.Path,
					"maxBranch": t.opts.MaxBranch,
				}).Debug("Branch limit reached. Skipping directory.")
				continue
			}
			candidates = append(candidates, child)
			continue
		}
		child.HasSession = idx.Has(child.Path)
		node.Children = append(node.Children, &Node{Content: child})
	}

	results := make(chan *Node, len(candidates))
	for _, candidate := range candidates {
		go func(candidate *content.Content) {
			results <- t.expandSubtree(candidate, idx, depth+1)
		}(candidate)
	}
	for range candidates {
		node.Children = append(node.Children, <-results)
	}
	return node
}

// expandSubtree fetches one subdirectory's listing and recurses into it.
// Failure is local to the subtree: the candidate stays in the result as a
// childless node, and sibling subtrees are unaffected.
func (t *Traverser) expandSubtree(candidate *content.Content, idx session.Index, depth int) *Node {
	fetched, err := content.Fetch(t.cli, t.sch, candidate.Path)
	if err != nil {
		log.WithError(err).WithField("path", candidate.Path).Warn(
			"Failed to expand directory. Keeping it without children.")
		return &Node{Content: candidate}
	}
	return t.expand(fetched, idx, depth)
}
