package session

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/nbkit/nbsync/pkg/content"
	"github.com/nbkit/nbsync/pkg/remote"
)

// sessionsPath is the sessions resource, shared by both API generations.
const sessionsPath = "api/sessions"

// Kernel describes the kernel attached to a live session.
type Kernel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session is one live kernel session on a notebook server.
type Session struct {
	ID     string
	Kernel Kernel
}

// Index maps canonical content paths to the live session running there. It
// is rebuilt from scratch for every traversal and never merged with a prior
// index, so stale entries can't survive.
type Index map[string]Session

// Has reports whether a live session exists at path.
func (idx Index) Has(path string) bool {
	_, ok := idx[path]
	return ok
}

// wireSession mirrors the JSON layout of a session record across both API
// generations. Current servers report the content path at the top level;
// legacy servers nest the name and path under the notebook.
type wireSession struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Kernel   Kernel `json:"kernel"`
	Notebook struct {
		Name string `json:"name"`
		Path string `json:"path"`
	} `json:"notebook"`
}

// FetchIndex builds the session index for the server behind cli. It never
// fails: when the session list can't be fetched or parsed, the caller gets
// an empty index and traversal proceeds without session annotations.
func FetchIndex(cli *remote.Client, sch content.Schema) Index {
	idx := Index{}

	body, err := cli.Get(sessionsPath)
	if err != nil {
		log.WithError(err).WithField("server", cli.Identity()).Warn(
			"Failed to list sessions. Continuing without session annotations.")
		return idx
	}

	var records []wireSession
	if err := json.Unmarshal(body, &records); err != nil {
		log.WithError(err).WithField("server", cli.Identity()).Warn(
			"Malformed session list. Continuing without session annotations.")
		return idx
	}

	for _, rec := range records {
		key := sch.SessionKey(rec.Path, rec.Notebook.Name, rec.Notebook.Path)
		if key == "" {
			continue
		}
		idx[key] = Session{ID: rec.ID, Kernel: rec.Kernel}
	}
	log.WithFields(log.Fields{
		"server":   cli.Identity(),
		"sessions": len(idx),
	}).Debug("Built session index")
	return idx
}

// Rename points the session at newPath so a running kernel keeps displaying
// the right location after a content rename. It's best effort: the outcome
// is logged, never propagated.
func Rename(cli *remote.Client, sch content.Schema, s Session, newPath string) {
	body, err := sch.SessionRenameBody(newPath)
	if err != nil {
		log.WithError(err).WithField("session", s.ID).Warn(
			"Failed to serialize session rename")
		return
	}

	if _, err := cli.Patch(sessionsPath+"/"+s.ID, body); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"session": s.ID,
			"newPath": newPath,
		}).Warn("Failed to rename session")
		return
	}
	log.WithFields(log.Fields{
		"session": s.ID,
		"newPath": newPath,
	}).Debug("Renamed session")
}
