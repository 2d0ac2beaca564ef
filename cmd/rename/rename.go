package rename

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nbkit/nbsync/cmd/util"
	"github.com/nbkit/nbsync/pkg/config"
	"github.com/nbkit/nbsync/pkg/content"
	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/session"
)

// Mocked for unit testing.
var stdout io.Writer = os.Stdout

type renameCommand struct {
	session *util.Session
	oldPath string
	newPath string
}

// New creates a new `rename` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "rename SERVER_URL OLD_PATH NEW_PATH",
		Short: "Move a file or notebook on the server",
		Long: "Move a file or notebook to a new path on the server. A kernel\n" +
			"session running against the old path is repointed at the new one.",
		Run: func(_ *cobra.Command, args []string) {
			if len(args) != 3 {
				util.HandleFatalError(errors.NewFriendlyError(
					"A server URL and the old and new paths are required.\n" +
						"Usage: nbsync rename SERVER_URL OLD_PATH NEW_PATH"))
			}

			userConfig, err := config.ParseUser()
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "parse user config"))
			}

			session, err := util.NewSession(args[0], userConfig)
			if err != nil {
				util.HandleFatalError(err)
			}

			err = renameCommand{
				session: session,
				oldPath: args[1],
				newPath: args[2],
			}.run()
			if err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func (cmd renameCommand) run() error {
	// Capture the session index before the move so a live kernel at the old
	// path can be repointed afterwards.
	idx := session.FetchIndex(cmd.session.Client, cmd.session.Schema)

	c, err := content.Fetch(cmd.session.Client, cmd.session.Schema, cmd.oldPath)
	if err != nil {
		return errors.WithContext(err, "fetch content")
	}
	if c.IsDirectory() {
		return errors.NewFriendlyError(
			"%q is a directory. Only files and notebooks can be renamed.",
			cmd.oldPath)
	}

	if err := content.Rename(cmd.session.Client, cmd.session.Schema, c, cmd.newPath); err != nil {
		return err
	}

	if s, ok := idx[cmd.oldPath]; ok {
		session.Rename(cmd.session.Client, cmd.session.Schema, s, c.Path)
	}

	fmt.Fprintf(stdout, "Renamed %s to %s\n", cmd.oldPath, c.Path)
	return nil
}
