package sessions

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nbkit/nbsync/cmd/util"
	"github.com/nbkit/nbsync/pkg/config"
	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/session"
)

// Mocked for unit testing.
var stdout io.Writer = os.Stdout

// New creates a new `sessions` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions SERVER_URL",
		Short: "List the live kernel sessions on the server",
		Run: func(_ *cobra.Command, args []string) {
			if len(args) != 1 {
				util.HandleFatalError(errors.NewFriendlyError(
					"A server URL is required.\n" +
						"Usage: nbsync sessions SERVER_URL"))
			}

			userConfig, err := config.ParseUser()
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "parse user config"))
			}

			session, err := util.NewSession(args[0], userConfig)
			if err != nil {
				util.HandleFatalError(err)
			}

			run(session)
		},
	}
}

func run(sess *util.Session) {
	idx := session.FetchIndex(sess.Client, sess.Schema)
	if len(idx) == 0 {
		fmt.Fprintln(stdout, "No live sessions.")
		return
	}

	paths := make([]string, 0, len(idx))
	for path := range idx {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	w := tabwriter.NewWriter(stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintln(w, "PATH\tKERNEL\tSESSION")
	for _, path := range paths {
		s := idx[path]
		fmt.Fprintf(w, "%s\t%s\t%s\n", path, s.Kernel.Name, s.ID)
	}
	w.Flush()
}
