package tree

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nbkit/nbsync/cmd/util"
	"github.com/nbkit/nbsync/pkg/config"
	"github.com/nbkit/nbsync/pkg/content"
	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/hierarchy"
	"github.com/nbkit/nbsync/pkg/remote"
)

// Mocked for unit testing.
var stdout io.Writer = os.Stdout

type treeCommand struct {
	session *util.Session
	opts    hierarchy.Options
}

// New creates a new `tree` command.
func New() *cobra.Command {
	var depth, branch, timeout int
	var unattended bool
	cmd := &cobra.Command{
		Use:   "tree SERVER_URL",
		Short: "Print the server's content tree",
		Long: "Print a bounded view of the notebook server's content tree.\n" +
			"Notebooks with a live kernel session are marked with an asterisk.",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				util.HandleFatalError(errors.NewFriendlyError(
					"A server URL is required.\n" +
						"Usage: nbsync tree SERVER_URL"))
			}

			userConfig, err := config.ParseUser()
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "parse user config"))
			}
			if cmd.Flags().Changed("timeout") {
				userConfig.RequestTimeoutSeconds = timeout
			}
			if unattended {
				userConfig.Mode = string(remote.ModeUnattended)
			}

			opts := hierarchy.Options{
				MaxDepth:  userConfig.MaxDepth,
				MaxBranch: userConfig.MaxBranch,
			}
			if cmd.Flags().Changed("depth") {
				opts.MaxDepth = depth
			}
			if cmd.Flags().Changed("branch") {
				opts.MaxBranch = branch
			}

			session, err := util.NewSession(args[0], userConfig)
			if err != nil {
				util.HandleFatalError(err)
			}

			if err := (treeCommand{session: session, opts: opts}).run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 0,
		"How many directory levels to descend. Overrides the user config.")
	cmd.Flags().IntVar(&branch, "branch", 0,
		"How many subdirectories to expand per level. Overrides the user config.")
	cmd.Flags().IntVar(&timeout, "timeout", 0,
		"Per-request timeout in seconds. Overrides the user config.")
	cmd.Flags().BoolVar(&unattended, "unattended", false,
		"Retry harder and continue past permission errors with partial data.")
	return cmd
}

func (cmd treeCommand) run() error {
	trav := hierarchy.New(cmd.session.Client, cmd.session.Schema, cmd.opts, nil)
	tree, err := trav.Traverse()
	if err != nil {
		return errors.WithContext(err, "traverse")
	}

	fmt.Fprintf(stdout, "%s\n", cmd.session.Identity)
	printNode(tree, "")
	return nil
}

// printNode renders one subtree. Children arrive in completion order, so
// they're sorted to keep the output stable across runs.
func printNode(node *hierarchy.Node, indent string) {
	children := append([]*hierarchy.Node{}, node.Children...)
	sort.Slice(children, func(i, j int) bool {
		return children[i].Content.Path < children[j].Content.Path
	})

	for _, child := range children {
		fmt.Fprintf(stdout, "%s%s\n", indent, label(child.Content))
		if child.Content.IsDirectory() {
			printNode(child, indent+"    ")
		}
	}
}

func label(c *content.Content) string {
	switch {
	case c.IsDirectory():
		return c.Name + "/"
	case c.HasSession:
		return c.Name + " *"
	}
	return c.Name
}
