package content

import (
	"encoding/json"
	"strings"

	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/server"
)

// legacySchema speaks the notebooks API of generation 2 servers. Directory
// listings are bare JSON arrays whose entries omit full paths, and write
// endpoints expect the directory and name as separate fields.
type legacySchema struct{}

func (legacySchema) Generation() server.Generation {
	return server.GenerationLegacy
}

func (legacySchema) ContentsPath(path string) string {
	if path == "" {
		return "api/notebooks"
	}
	return "api/notebooks/" + path
}

// Normalize handles both record shapes legacy servers produce: mixed-schema
// records that already carry a type field follow the current field mapping,
// and bare directory listings become a synthetic directory node.
func (s legacySchema) Normalize(identity server.Identity, parentPath string,
	raw json.RawMessage) (*Content, error) {

	if isListing(raw) {
		return s.fromListing(identity, parentPath, raw)
	}

	var rec wireContent
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.WithContext(err, "decode content record")
	}
	if rec.Type == "" {
		return nil, errors.MissingFieldError{Field: "type"}
	}
	return normalizeRecord(s, identity, parentPath, rec)
}

// fromListing constructs a synthetic directory node from a bare legacy
// listing. Each child's path is rewritten to parentPath/name since legacy
// listings omit full paths on children.
func (s legacySchema) fromListing(identity server.Identity, parentPath string,
	raw json.RawMessage) (*Content, error) {

	var items []wireContent
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.WithContext(err, "decode directory listing")
	}

	dir := &Content{
		Server: identity,
		Schema: s.Generation(),
		Name:   baseOf(parentPath),
		Path:   parentPath,
		Type:   TypeDirectory,
	}
	for _, item := range items {
		item.Path = joinPath(parentPath, item.Name)
		if item.Type == "" {
			// Listings that omit the type predate non-notebook entries.
			item.Type = string(TypeNotebook)
		}
		child, err := normalizeRecord(s, identity, parentPath, item)
		if err != nil {
			return nil, errors.WithContext(err, "normalize listing entry")
		}
		dir.Children = append(dir.Children, child)
	}
	return dir, nil
}

func (s legacySchema) WireBody(c *Content) ([]byte, error) {
	// Legacy write endpoints take the name and directory separately, so
	// only the directory component of the path goes on the wire.
	return json.Marshal(wireBody(c, dirOf(c.Path)))
}

func (legacySchema) RenameBody(_ *Content, newPath string) ([]byte, error) {
	return json.Marshal(map[string]string{
		"name": baseOf(newPath),
		"path": dirOf(newPath),
	})
}

func (legacySchema) SessionRenameBody(newPath string) ([]byte, error) {
	return json.Marshal(map[string]map[string]string{
		"notebook": {
			"name": baseOf(newPath),
			"path": dirOf(newPath),
		},
	})
}

func (legacySchema) SessionKey(_, notebookName, notebookPath string) string {
	return joinPath(notebookPath, notebookName)
}

func isListing(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}
