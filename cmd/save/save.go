package save

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/nbkit/nbsync/cmd/util"
	"github.com/nbkit/nbsync/pkg/config"
	"github.com/nbkit/nbsync/pkg/content"
	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/upload"
)

// Mocked for unit testing.
var stdout io.Writer = os.Stdout

type saveCommand struct {
	session    *util.Session
	localPath  string
	remotePath string
}

// New creates a new `save` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "save SERVER_URL LOCAL_FILE [REMOTE_PATH]",
		Short: "Upload a local file to the server",
		Long: "Upload a local file to the notebook server. Notebook files are\n" +
			"sent as JSON, text files as-is, and anything else base64-encoded.\n" +
			"Without REMOTE_PATH the file is saved under its own name at the\n" +
			"server root.",
		Run: func(_ *cobra.Command, args []string) {
			if len(args) < 2 || len(args) > 3 {
				util.HandleFatalError(errors.NewFriendlyError(
					"A server URL and a local file are required.\n" +
						"Usage: nbsync save SERVER_URL LOCAL_FILE [REMOTE_PATH]"))
			}

			userConfig, err := config.ParseUser()
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "parse user config"))
			}

			session, err := util.NewSession(args[0], userConfig)
			if err != nil {
				util.HandleFatalError(err)
			}

			var remotePath string
			if len(args) == 3 {
				remotePath = args[2]
			}
			err = saveCommand{
				session:    session,
				localPath:  args[1],
				remotePath: remotePath,
			}.run()
			if err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func (cmd saveCommand) run() error {
	f, err := upload.Read(cmd.localPath)
	if err != nil {
		return errors.WithContext(err, "read local file")
	}

	remotePath := cmd.remotePath
	if remotePath == "" {
		remotePath = path.Base(cmd.localPath)
	}

	c, err := f.Content(cmd.session.Identity, cmd.session.Generation, remotePath)
	if err != nil {
		return errors.WithContext(err, "build content")
	}

	if err := content.Save(cmd.session.Client, cmd.session.Schema, c); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Saved %s to %s\n", cmd.localPath, c.Path)
	return nil
}
