package upload

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/nbkit/nbsync/pkg/content"
	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/server"
)

// fs is used for mock tests. It will be overridden by afero.NewMemMapFs()
// in the tests.
var fs = afero.NewOsFs()

// File is a local file read for upload, classified the way the server
// expects content to be typed and encoded.
type File struct {
	Name    string
	Type    content.Type
	Format  content.Format
	Payload []byte
}

// Read loads the file at path and classifies it. Notebook files must hold
// valid JSON; everything else is text when it decodes as UTF-8 without NUL
// bytes, and base64-encoded binary otherwise.
func Read(path string) (File, error) {
	payload, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, errors.FileNotFound{Path: path}
		}
		return File{}, errors.WithContext(err, "read file")
	}

	f := File{Name: filepath.Base(path), Payload: payload}
	if strings.HasSuffix(f.Name, ".ipynb") {
		if !json.Valid(payload) {
			return File{}, errors.NewFriendlyError(
				"The notebook file %q does not contain valid JSON.", path)
		}
		f.Type = content.TypeNotebook
		f.Format = content.FormatJSON
		return f, nil
	}

	f.Type = content.TypeFile
	if utf8.Valid(payload) && !bytes.ContainsRune(payload, 0) {
		f.Format = content.FormatText
	} else {
		f.Format = content.FormatBase64
	}
	return f, nil
}

// Content builds the remote entity for the file at remotePath, with the
// payload encoded to match the file's format.
func (f File) Content(identity server.Identity, gen server.Generation,
	remotePath string) (*content.Content, error) {
	c := &content.Content{
		Server: identity,
		Schema: gen,
		Name:   f.Name,
		Path:   remotePath,
		Type:   f.Type,
		Format: f.Format,
		Size:   int64(len(f.Payload)),
	}

	switch f.Format {
	case content.FormatJSON:
		c.Raw = json.RawMessage(f.Payload)
	case content.FormatText:
		raw, err := json.Marshal(string(f.Payload))
		if err != nil {
			return nil, errors.WithContext(err, "encode text payload")
		}
		c.Raw = raw
	case content.FormatBase64:
		raw, err := json.Marshal(base64.StdEncoding.EncodeToString(f.Payload))
		if err != nil {
			return nil, errors.WithContext(err, "encode binary payload")
		}
		c.Raw = raw
	}
	return c, nil
}
