package version

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nbkit/nbsync/cmd/util"
	"github.com/nbkit/nbsync/pkg/config"
	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/version"
)

// Mocked for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version [SERVER_URL]",
		Short: "Print the local and server versions.",
		Long: "Print the local version of nbsync and, when a server URL is\n" +
			"given, the version and API generation the server reported.",
		Run: func(_ *cobra.Command, args []string) {
			var serverURL string
			if len(args) > 0 {
				serverURL = args[0]
			}
			if err := run(serverURL); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(serverURL string) error {
	fmt.Fprintf(stdout, "local version:  %s\n", version.Version)
	if serverURL == "" {
		return nil
	}

	userConfig, err := config.ParseUser()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}

	session, err := util.NewSession(serverURL, userConfig)
	if err != nil {
		return errors.WithContext(err, "connect to server")
	}

	reported := session.ReportedVersion
	if reported == "" {
		reported = "unknown"
	}
	fmt.Fprintf(stdout, "server version: %s (API generation %d)\n",
		reported, session.Generation)
	return nil
}
