package content

import (
	"encoding/json"
	"time"

	"github.com/nbkit/nbsync/pkg/server"
)

// Type classifies a node in the server's content tree.
type Type string

const (
	TypeFile      Type = "file"
	TypeNotebook  Type = "notebook"
	TypeDirectory Type = "directory"
)

// Format describes how a node's payload is encoded on the wire. The empty
// string means the server didn't report one.
type Format string

const (
	FormatJSON   Format = "json"
	FormatText   Format = "text"
	FormatBase64 Format = "base64"
)

// Content is one node of a server's content tree. Instances are created by
// schema normalization, and are only mutated afterwards by the save and
// rename success paths (Name, Path, LastModified) and by traversal's
// session annotation (HasSession).
type Content struct {
	// Server partitions cached state between notebook servers.
	Server server.Identity

	// Schema is the API generation the node was normalized under. It drives
	// serialization when the node is written back.
	Schema server.Generation

	Name     string
	Path     string
	Type     Type
	Format   Format
	Mimetype string
	Writable bool
	Size     int64

	// Created and LastModified are zero when the server omitted them, as
	// legacy directory listings do.
	Created      time.Time
	LastModified time.Time

	// HasSession marks non-directory nodes with a live kernel session. It's
	// only set during hierarchy traversal.
	HasSession bool

	// Raw is the payload for files and notebooks. Directories never carry
	// payload bytes; their listing lives in Children.
	Raw json.RawMessage

	// Children holds a directory's own listing, normalized. Nil for
	// non-directories.
	Children []*Content
}

// IsDirectory reports whether the node is a directory.
func (c *Content) IsDirectory() bool {
	return c.Type == TypeDirectory
}
