package util

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/nbkit/nbsync/pkg/config"
	"github.com/nbkit/nbsync/pkg/content"
	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/remote"
	"github.com/nbkit/nbsync/pkg/server"
)

// exit is overridden in unit tests.
var exit = os.Exit

// HandleFatalError prints a friendly representation of err and exits.
func HandleFatalError(err error) {
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	exit(1)
}

// HandlePanic recovers from panics so that they're logged rather than dumped
// as a raw stack trace to the terminal.
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}
	log.WithField("panic", r).Error(
		"Unexpected crash. This is a bug, please report it.")
	exit(1)
}

// Session bundles everything a command needs to talk to one notebook server:
// the retrying client, the schema matching the server's API generation, and
// what the server reported about itself.
type Session struct {
	Client          *remote.Client
	Schema          content.Schema
	Identity        server.Identity
	Generation      server.Generation
	ReportedVersion string
}

// NewSession connects to the server at rawURL, probes its API generation
// once, and fixes the schema for the rest of the command.
func NewSession(rawURL string, cfg config.User) (*Session, error) {
	identity, err := server.IdentityFromURL(rawURL)
	if err != nil {
		return nil, errors.WithContext(err, "derive server identity")
	}

	cli := remote.New(server.BaseURL(rawURL), string(identity),
		cfg.RetryMode(), cfg.RequestTimeout())

	gen, reported := server.Probe(cli)
	return &Session{
		Client:          cli,
		Schema:          content.ForGeneration(gen),
		Identity:        identity,
		Generation:      gen,
		ReportedVersion: reported,
	}, nil
}
