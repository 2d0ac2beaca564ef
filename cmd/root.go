package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	configCmd "github.com/nbkit/nbsync/cmd/config"
	"github.com/nbkit/nbsync/cmd/rename"
	"github.com/nbkit/nbsync/cmd/save"
	"github.com/nbkit/nbsync/cmd/sessions"
	"github.com/nbkit/nbsync/cmd/tree"
	"github.com/nbkit/nbsync/cmd/util"
	"github.com/nbkit/nbsync/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "NBSYNC_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "nbsync",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		configCmd.New(),
		rename.New(),
		save.New(),
		sessions.New(),
		tree.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
