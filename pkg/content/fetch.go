package content

import (
	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/remote"
	"github.com/nbkit/nbsync/pkg/server"
)

// Fetch retrieves and normalizes the content node at path. Degraded
// completions that carry no usable body (a forbidden subtree in an
// unattended run) come back as an empty directory so traversal can keep
// going.
func Fetch(cli *remote.Client, sch Schema, path string) (*Content, error) {
	raw, err := cli.Get(sch.ContentsPath(path))
	if err != nil {
		return nil, errors.WithContext(err, "fetch content")
	}

	identity := server.Identity(cli.Identity())
	if isEmptyJSON(raw) {
		return &Content{
			Server: identity,
			Schema: sch.Generation(),
			Name:   baseOf(path),
			Path:   path,
			Type:   TypeDirectory,
		}, nil
	}

	c, err := sch.Normalize(identity, path, raw)
	if err != nil {
		return nil, errors.WithContext(err, "normalize content")
	}
	return c, nil
}
