package content

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/server"
)

// Schema reconciles the differences between notebook server API
// generations. One implementation is selected per server when the client
// session starts and injected everywhere the wire format matters, so
// version branching lives in exactly one place.
type Schema interface {
	Generation() server.Generation

	// ContentsPath returns the resource path of the content node at path.
	ContentsPath(path string) string

	// Normalize converts one raw JSON record into a Content entity.
	// parentPath is the path of the node the record was fetched or listed
	// under ("" for the root).
	Normalize(identity server.Identity, parentPath string, raw json.RawMessage) (*Content, error)

	// WireBody serializes a node for save requests.
	WireBody(c *Content) ([]byte, error)

	// RenameBody serializes the rename request that moves c to newPath.
	RenameBody(c *Content, newPath string) ([]byte, error)

	// SessionRenameBody serializes the request pointing a kernel session at
	// newPath.
	SessionRenameBody(newPath string) ([]byte, error)

	// SessionKey computes the canonical content path of a session record.
	// Callers pass the record's top-level path and its nested notebook name
	// and path; each generation picks the fields it trusts.
	SessionKey(path, notebookName, notebookPath string) string
}

// ForGeneration returns the schema implementation for a server generation.
func ForGeneration(gen server.Generation) Schema {
	if gen >= server.GenerationCurrent {
		return currentSchema{}
	}
	return legacySchema{}
}

// wireContent mirrors the JSON layout of a content record.
type wireContent struct {
	Name         string          `json:"name"`
	Path         string          `json:"path"`
	Type         string          `json:"type,omitempty"`
	Format       string          `json:"format,omitempty"`
	Mimetype     string          `json:"mimetype,omitempty"`
	Writable     *bool           `json:"writable,omitempty"`
	Size         *int64          `json:"size,omitempty"`
	Created      string          `json:"created,omitempty"`
	LastModified string          `json:"last_modified,omitempty"`
	Content      json.RawMessage `json:"content,omitempty"`
}

// normalizeRecord maps a typed record into a Content entity. Both schema
// generations share this mapping; they differ in how they get to a typed
// record and in how paths are reconstructed, which is why the schema is
// threaded through for the children recursion.
func normalizeRecord(sch Schema, identity server.Identity, parentPath string,
	rec wireContent) (*Content, error) {

	if rec.Type == "" {
		return nil, errors.MissingFieldError{Field: "type"}
	}

	c := &Content{
		Server:       identity,
		Schema:       sch.Generation(),
		Name:         rec.Name,
		Path:         rec.Path,
		Type:         Type(rec.Type),
		Format:       Format(rec.Format),
		Mimetype:     rec.Mimetype,
		Created:      parseTime(rec.Created),
		LastModified: parseTime(rec.LastModified),
	}
	if rec.Writable != nil {
		c.Writable = *rec.Writable
	}
	if rec.Size != nil {
		c.Size = *rec.Size
	}
	if c.Path == "" {
		c.Path = joinPath(parentPath, c.Name)
	}

	if !c.IsDirectory() {
		c.Raw = rec.Content
		return c, nil
	}

	// Decode the directory's own listing up front so nothing downstream has
	// to re-inspect raw JSON.
	if isEmptyJSON(rec.Content) {
		return c, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rec.Content, &items); err != nil {
		return nil, errors.WithContext(err, "decode directory listing")
	}
	for _, item := range items {
		child, err := sch.Normalize(identity, c.Path, item)
		if err != nil {
			return nil, errors.WithContext(err, "normalize listing entry")
		}
		c.Children = append(c.Children, child)
	}
	return c, nil
}

// Servers report RFC 3339 timestamps. Legacy directory listings omit them,
// and a handful of servers emit values time.Parse rejects; both normalize
// to the zero time.
func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

// joinPath joins a directory path and a child name without introducing a
// leading slash under the root.
func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// dirOf returns everything before the last slash of path, or "" when path
// has no directory component.
func dirOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx == -1 {
		return ""
	}
	return path[:idx]
}

// baseOf returns the last path component.
func baseOf(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}
