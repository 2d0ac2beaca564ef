package server

import (
	"net/url"
	"strings"

	"github.com/nbkit/nbsync/pkg/errors"
)

// Identity is the opaque key identifying one notebook server endpoint.
// Hierarchy snapshots and session indices are partitioned by it.
type Identity string

// IdentityFromURL derives the Identity for a server URL. The identity is
// the host:port portion, so the same server reached with or without a
// trailing slash maps to the same cache slot.
func IdentityFromURL(rawURL string) (Identity, error) {
	parsed, err := url.Parse(BaseURL(rawURL))
	if err != nil {
		return "", errors.WithContext(err, "parse server url")
	}
	if parsed.Host == "" {
		return "", errors.New("server url has no host")
	}
	return Identity(parsed.Host), nil
}

// BaseURL normalizes a user-supplied server URL: a bare host:port gets an
// http scheme, and trailing slashes are dropped.
func BaseURL(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	return strings.TrimRight(rawURL, "/")
}
