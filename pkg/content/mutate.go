package content

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/remote"
	"github.com/nbkit/nbsync/pkg/server"
)

// Save writes c back to its server. The write is single-shot: a failed PUT
// may still have been applied, so it is never retried automatically. On
// success the entity's metadata is refreshed from the server's response.
func Save(cli *remote.Client, sch Schema, c *Content) error {
	if c.Path == "" {
		return errors.MissingFieldError{Field: "path"}
	}

	body, err := sch.WireBody(c)
	if err != nil {
		return errors.WithContext(err, "serialize content")
	}

	resp, err := cli.Put(sch.ContentsPath(c.Path), body)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"server": c.Server,
			"path":   c.Path,
		}).Debug("Save failed")
		return errors.WithContext(err, "save content")
	}

	applyMutationResponse(c, resp)
	return nil
}

// Rename moves c to newPath. On success the entity is updated in place so
// it stays consistent with server state.
func Rename(cli *remote.Client, sch Schema, c *Content, newPath string) error {
	body, err := sch.RenameBody(c, newPath)
	if err != nil {
		return errors.WithContext(err, "serialize rename")
	}

	resp, err := cli.Patch(sch.ContentsPath(c.Path), body)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"server":  c.Server,
			"path":    c.Path,
			"newPath": newPath,
		}).Debug("Rename failed")
		return errors.WithContext(err, "rename content")
	}

	c.Path = newPath
	c.Name = baseOf(newPath)
	applyMutationResponse(c, resp)
	return nil
}

// applyMutationResponse folds the fields a successful mutation echoes back
// into the entity. Servers differ in how much of the record they return, so
// only present fields are applied. Legacy responses report the path split
// into name and directory, which must not clobber the full path.
func applyMutationResponse(c *Content, resp []byte) {
	var rec wireContent
	if err := json.Unmarshal(resp, &rec); err != nil {
		return
	}
	if rec.LastModified != "" {
		c.LastModified = parseTime(rec.LastModified)
	}
	if rec.Name != "" {
		c.Name = rec.Name
	}
	if rec.Path != "" && c.Schema >= server.GenerationCurrent {
		c.Path = rec.Path
	}
}
