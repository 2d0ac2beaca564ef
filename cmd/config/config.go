package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nbkit/nbsync/cmd/util"
	"github.com/nbkit/nbsync/pkg/config"
	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/remote"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	stdin           io.Reader = os.Stdin
	parseUserConfig           = config.ParseUser
	writeUserConfig           = config.WriteUser
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.User
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the nbsync user configuration",
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().IntVar(&cliOpts.MaxDepth, "max-depth", 0,
		"Set the traversal depth limit in the config. "+
			"Optional: If not set, `nbsync config` will interactively prompt.")
	cmd.Flags().IntVar(&cliOpts.MaxBranch, "max-branch", 0,
		"Set the traversal branch limit in the config. "+
			"Optional: If not set, `nbsync config` will interactively prompt.")
	cmd.Flags().IntVar(&cliOpts.RequestTimeoutSeconds, "timeout", 0,
		"Set the per-request timeout in seconds in the config. "+
			"Optional: If not set, `nbsync config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.Mode, "mode", "",
		"Set the retry mode in the config (interactive or unattended). "+
			"Optional: If not set, `nbsync config` will interactively prompt.")

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-mode",
			short: "Get the currently configured retry mode",
			fn:    func(cfg config.User) string { return string(cfg.RetryMode()) },
		},
		{
			use:   "get-max-depth",
			short: "Get the currently configured traversal depth limit",
			fn:    func(cfg config.User) string { return strconv.Itoa(cfg.MaxDepth) },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

func SetupConfig(cliOpts config.User) error {
	cfg, err := generateConfig(cliOpts)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	if err := writeUserConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := config.GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "get user config path")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

func positiveIntValidationFn(resp string) (string, bool) {
	n, err := strconv.Atoi(resp)
	if err != nil || n < 0 {
		return "Please enter a non-negative whole number.", false
	}
	return "", true
}

func modeValidationFn(resp string) (string, bool) {
	switch remote.Mode(resp) {
	case remote.ModeInteractive, remote.ModeUnattended:
		return "", true
	}
	return "The mode must be either `interactive` or `unattended`.", false
}

type prompt struct {
	helpString, prompt, defaultAnswer, currAnswer string
	apply                                         func(string)
	validationFn                                  func(string) (string, bool)
}

// generateConfig interacts with the user to decide what the user's desired
// configuration is. Fields set through CLI flags are taken as-is, and the
// current config's values are offered alongside the defaults.
func generateConfig(cliOpts config.User) (config.User, error) {
	defaults := config.Default()
	currConfig, err := parseUserConfig()
	if err != nil {
		currConfig = config.User{}
		log.WithError(err).Debug("Failed to read current config")
	}

	cfg := cliOpts
	var prompts []prompt
	if cliOpts.MaxDepth == 0 {
		prompts = append(prompts, prompt{
			helpString: "Enter how many directory levels tree traversals descend.\n" +
				"Deeper trees cost one request per expanded directory.",
			prompt:        "Traversal depth limit",
			defaultAnswer: strconv.Itoa(defaults.MaxDepth),
			currAnswer:    intAnswer(currConfig.MaxDepth),
			apply:         func(resp string) { cfg.MaxDepth, _ = strconv.Atoi(resp) },
			validationFn:  positiveIntValidationFn,
		})
	}

	if cliOpts.MaxBranch == 0 {
		prompts = append(prompts, prompt{
			helpString: "Enter how many subdirectories are expanded per level.\n" +
				"Directories beyond the limit are skipped.",
			prompt:        "Traversal branch limit",
			defaultAnswer: strconv.Itoa(defaults.MaxBranch),
			currAnswer:    intAnswer(currConfig.MaxBranch),
			apply:         func(resp string) { cfg.MaxBranch, _ = strconv.Atoi(resp) },
			validationFn:  positiveIntValidationFn,
		})
	}

	if cliOpts.RequestTimeoutSeconds == 0 {
		prompts = append(prompts, prompt{
			helpString: "Enter the timeout in seconds for each request to the server.",
			prompt:     "Request timeout (seconds)",
			defaultAnswer: strconv.Itoa(
				defaults.RequestTimeoutSeconds),
			currAnswer: intAnswer(currConfig.RequestTimeoutSeconds),
			apply: func(resp string) {
				cfg.RequestTimeoutSeconds, _ = strconv.Atoi(resp)
			},
			validationFn: positiveIntValidationFn,
		})
	}

	if cliOpts.Mode == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the retry mode.\n" +
				"`interactive` fails fast; `unattended` retries harder and\n" +
				"continues past permission errors with partial data.",
			prompt:        "Retry mode",
			defaultAnswer: defaults.Mode,
			currAnswer:    currConfig.Mode,
			apply:         func(resp string) { cfg.Mode = resp },
			validationFn:  modeValidationFn,
		})
	}

	for _, prompt := range prompts {
		var resp string
		for {
			resp, err = promptUser(prompt.helpString, prompt.prompt,
				prompt.defaultAnswer, prompt.currAnswer)
			if err != nil {
				return config.User{}, errors.WithContext(err, "read response")
			}

			if prompt.validationFn == nil {
				break
			}

			validationErr, ok := prompt.validationFn(resp)
			if ok {
				break
			}

			fmt.Fprintln(stdout, validationErr)
		}

		prompt.apply(resp)
	}

	return cfg, nil
}

// intAnswer renders an int config value as a prompt option, with zero
// meaning unset.
func intAnswer(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func promptUser(helpString, prompt, defaultAnswer, currAnswer string) (string, error) {
	// Display a new line at the end to separate different fields to make it
	// look clearer.
	defer fmt.Fprintln(stdout)

	options := []string{}
	if defaultAnswer != "" {
		options = append(options, defaultAnswer)
	}
	if currAnswer != "" && currAnswer != defaultAnswer {
		options = append(options, currAnswer)
	}
	options = append(options, "(Enter manually)")

	fmt.Fprintln(stdout, helpString+"\n"+prompt+":")

	stdinReader := bufio.NewReader(stdin)

	if nOptions := len(options); nOptions > 1 {
		// defaultAnswer or currAnswer exists.
		fmt.Fprintln(stdout)
		for i, option := range options {
			if i == 0 {
				option = fmt.Sprintf("%s (recommended)", option)
			}
			fmt.Fprintf(stdout, "\t%d. %s\n", i+1, option)
		}
		fmt.Fprintln(stdout)

		for {
			fmt.Fprintf(stdout, "Please choose one [1-%d]: ", nOptions)
			choiceStr, err := stdinReader.ReadString('\n')
			if err != nil {
				return "", err
			}

			var choice int
			choiceStr = strings.TrimRight(choiceStr, "\n")

			// Default to the first choice if user doesn't enter anything.
			if choiceStr == "" {
				choice = 1
			} else {
				choice, err = strconv.Atoi(choiceStr)
				if err != nil || choice < 1 || choice > nOptions {
					// Try again if the input is invalid.
					continue
				}
			}

			if choice == nOptions {
				// Enter manually.
				break
			}

			return options[choice-1], nil
		}
	}

	fmt.Fprint(stdout, "Please enter manually: ")
	resp, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimRight(resp, "\n"), nil
}
