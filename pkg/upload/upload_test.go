package upload

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbkit/nbsync/pkg/content"
	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/server"
)

func TestRead(t *testing.T) {
	notebook := `{"cells": [], "nbformat": 4}`
	binary := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x1a}

	fs = afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "work/nb.ipynb", []byte(notebook), 0644))
	require.NoError(t, afero.WriteFile(fs, "work/notes.txt", []byte("plain text"), 0644))
	require.NoError(t, afero.WriteFile(fs, "work/logo.png", binary, 0644))
	require.NoError(t, afero.WriteFile(fs, "work/bad.ipynb", []byte("not json"), 0644))

	tests := []struct {
		name     string
		path     string
		expFile  File
		expError bool
	}{
		{
			name: "Notebook",
			path: "work/nb.ipynb",
			expFile: File{
				Name:    "nb.ipynb",
				Type:    content.TypeNotebook,
				Format:  content.FormatJSON,
				Payload: []byte(notebook),
			},
		},
		{
			name: "Text",
			path: "work/notes.txt",
			expFile: File{
				Name:    "notes.txt",
				Type:    content.TypeFile,
				Format:  content.FormatText,
				Payload: []byte("plain text"),
			},
		},
		{
			name: "Binary",
			path: "work/logo.png",
			expFile: File{
				Name:    "logo.png",
				Type:    content.TypeFile,
				Format:  content.FormatBase64,
				Payload: binary,
			},
		},
		{
			name:     "MalformedNotebook",
			path:     "work/bad.ipynb",
			expError: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			f, err := Read(test.path)
			if test.expError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.expFile, f)
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	fs = afero.NewMemMapFs()
	_, err := Read("missing.txt")
	assert.Equal(t, errors.FileNotFound{Path: "missing.txt"}, err)
}

func TestContent(t *testing.T) {
	identity := server.Identity("testserver:8888")

	notebook := File{
		Name:    "nb.ipynb",
		Type:    content.TypeNotebook,
		Format:  content.FormatJSON,
		Payload: []byte(`{"cells": []}`),
	}
	c, err := notebook.Content(identity, server.GenerationCurrent, "work/nb.ipynb")
	require.NoError(t, err)
	assert.Equal(t, identity, c.Server)
	assert.Equal(t, server.GenerationCurrent, c.Schema)
	assert.Equal(t, "work/nb.ipynb", c.Path)
	assert.Equal(t, json.RawMessage(`{"cells": []}`), c.Raw)

	text := File{
		Name:    "notes.txt",
		Type:    content.TypeFile,
		Format:  content.FormatText,
		Payload: []byte("plain text"),
	}
	c, err = text.Content(identity, server.GenerationCurrent, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`"plain text"`), c.Raw)
	assert.Equal(t, int64(len("plain text")), c.Size)

	binary := File{
		Name:    "logo.png",
		Type:    content.TypeFile,
		Format:  content.FormatBase64,
		Payload: []byte{0x00, 0x01},
	}
	c, err = binary.Content(identity, server.GenerationLegacy, "logo.png")
	require.NoError(t, err)
	var encoded string
	require.NoError(t, json.Unmarshal(c.Raw, &encoded))
	assert.Equal(t, base64.StdEncoding.EncodeToString(binary.Payload), encoded)
}
