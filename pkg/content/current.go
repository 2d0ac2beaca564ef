package content

import (
	"encoding/json"

	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/server"
)

// currentSchema speaks the contents API of generation 3+ servers. Records
// carry full paths, so the mapping is direct.
type currentSchema struct{}

func (currentSchema) Generation() server.Generation {
	return server.GenerationCurrent
}

func (currentSchema) ContentsPath(path string) string {
	if path == "" {
		return "api/contents"
	}
	return "api/contents/" + path
}

func (s currentSchema) Normalize(identity server.Identity, parentPath string,
	raw json.RawMessage) (*Content, error) {

	var rec wireContent
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, errors.WithContext(err, "decode content record")
	}
	return normalizeRecord(s, identity, parentPath, rec)
}

func (s currentSchema) WireBody(c *Content) ([]byte, error) {
	return json.Marshal(wireBody(c, c.Path))
}

func (currentSchema) RenameBody(_ *Content, newPath string) ([]byte, error) {
	return json.Marshal(map[string]string{"path": newPath})
}

func (currentSchema) SessionRenameBody(newPath string) ([]byte, error) {
	return json.Marshal(map[string]string{"path": newPath})
}

func (currentSchema) SessionKey(path, _, _ string) string {
	return path
}

// wireBody builds the save payload shared by both schemas. The path
// argument differs between them: current servers take the node's full path,
// legacy servers only its directory component.
func wireBody(c *Content, path string) wireContent {
	return wireContent{
		Name:     c.Name,
		Path:     path,
		Type:     string(c.Type),
		Format:   string(c.Format),
		Mimetype: c.Mimetype,
		Content:  c.Raw,
	}
}
