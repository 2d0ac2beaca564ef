package config

import (
	"time"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/nbkit/nbsync/pkg/errors"
	"github.com/nbkit/nbsync/pkg/remote"
)

const (
	// UserConfigPath is the default path to the user config.
	UserConfigPath = "~/.nbsync.yaml"

	// InitialUserConfigVersion is the first version of the user config.
	// Config files that do not specify a version will default to this
	// version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the user
	// config of the current nbsync binary.
	SupportedUserConfigVersion = "v1alpha1"
)

// User contains the per-user sync settings.
type User struct {
	Version string `json:"version,omitempty"`

	// MaxDepth and MaxBranch bound tree traversals.
	MaxDepth  int `json:"maxDepth"`
	MaxBranch int `json:"maxBranch"`

	// RequestTimeoutSeconds caps each individual HTTP request.
	RequestTimeoutSeconds int `json:"requestTimeoutSeconds"`

	// Mode selects the retry policy: "interactive" or "unattended".
	Mode string `json:"mode"`
}

func (u User) getVersion() string {
	return u.Version
}

// Default returns the config used when no file exists.
func Default() User {
	return User{
		Version:               SupportedUserConfigVersion,
		MaxDepth:              2,
		MaxBranch:             6,
		RequestTimeoutSeconds: 30,
		Mode:                  string(remote.ModeInteractive),
	}
}

// RequestTimeout returns the per-request timeout as a duration.
func (u User) RequestTimeout() time.Duration {
	return time.Duration(u.RequestTimeoutSeconds) * time.Second
}

// RetryMode returns the configured retry mode, falling back to interactive
// when the field is empty or unrecognized.
func (u User) RetryMode() remote.Mode {
	if remote.Mode(u.Mode) == remote.ModeUnattended {
		return remote.ModeUnattended
	}
	return remote.ModeInteractive
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseUser attempts to parse the User stored in the default path. A missing
// config file isn't an error: the defaults apply.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config := Default()
	config.Version = InitialUserConfigVersion
	if err := parseConfig(path, &config, SupportedUserConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return Default(), nil
		}
		return User{}, errors.WithContext(err, "parse")
	}
	return config, nil
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// Get the path to the user's global configuration. This path is expanded, so
// it can be directly passed to file operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
