package remote

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/nbkit/nbsync/pkg/errors"
)

// Mode controls how aggressively requests are retried, and whether
// permission errors degrade to partial results instead of failing.
type Mode string

const (
	// ModeInteractive is for requests issued on behalf of a user who is
	// watching. Failures surface quickly.
	ModeInteractive Mode = "interactive"

	// ModeUnattended is for headless runs. Requests are retried harder, and
	// permission errors degrade to whatever partial data the server sent so
	// a forbidden subtree doesn't abort the whole run.
	ModeUnattended Mode = "unattended"
)

const (
	interactiveAttempts = 3
	unattendedAttempts  = 6

	// defaultRetryDelay is the base unit of the linear backoff. The delay
	// before retrying attempt n is (n+1) * defaultRetryDelay.
	defaultRetryDelay = 500 * time.Millisecond
)

// StatusError is the only error type callers of Client receive. A Code of
// zero means the request never got an HTTP response.
type StatusError struct {
	Code int
}

func (err StatusError) Error() string {
	if err.Code == 0 {
		return "request failed without a response"
	}
	return fmt.Sprintf("server returned status %d", err.Code)
}

// IsNotFound reports whether err is a terminal 404 from the server.
func IsNotFound(err error) bool {
	statusErr, ok := errors.RootCause(err).(*StatusError)
	return ok && statusErr.Code == http.StatusNotFound
}

// Client issues requests against one notebook server.
type Client struct {
	baseURL    string
	identity   string
	mode       Mode
	httpClient *http.Client
	clock      clockwork.Clock
	retryDelay time.Duration
}

// New creates a client for the notebook server at baseURL. A zero timeout
// inherits the http.Client default.
func New(baseURL, identity string, mode Mode, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		identity:   identity,
		mode:       mode,
		httpClient: &http.Client{Timeout: timeout},
		clock:      clockwork.NewRealClock(),
		retryDelay: defaultRetryDelay,
	}
}

// Identity returns the opaque key identifying the server this client talks
// to.
func (c *Client) Identity() string {
	return c.identity
}

// Mode returns the execution mode the client was created with.
func (c *Client) Mode() Mode {
	return c.mode
}

// maxAttempts is the retry ceiling for transient failures. Unattended runs
// retry harder since nobody is around to rerun the command.
func (c *Client) maxAttempts() int {
	if c.mode == ModeUnattended {
		return unattendedAttempts
	}
	return interactiveAttempts
}

// Get fetches resourcePath, retrying transient failures with a linear
// backoff up to the mode's attempt ceiling. 404s are terminal and never
// retried. A 403 in unattended mode degrades to a success carrying whatever
// partial data accompanied the error.
func (c *Client) Get(resourcePath string) ([]byte, error) {
	maxAttempts := c.maxAttempts()
	for attempt := 0; ; attempt++ {
		status, body, err := c.do(http.MethodGet, resourcePath, nil)
		entry := log.WithFields(log.Fields{
			"server":  c.identity,
			"path":    resourcePath,
			"status":  status,
			"attempt": attempt,
		})
		if err == nil && isSuccess(status) {
			entry.WithField("bytes", len(body)).Debug("Request completed")
			return body, nil
		}

		switch {
		case status == http.StatusNotFound:
			entry.Debug("Resource not found")
			return nil, &StatusError{Code: status}
		case status == http.StatusForbidden && c.mode == ModeUnattended:
			// Availability over consistency: unattended traversals keep
			// going past permission-denied subtrees.
			entry.Warn("Permission denied. Continuing with partial data.")
			return body, nil
		}

		if attempt+1 >= maxAttempts {
			entry.WithError(err).Error("Request failed after retries")
			return nil, &StatusError{Code: status}
		}
		entry.WithError(err).Debug("Request failed. Retrying.")
		c.clock.Sleep(time.Duration(attempt+1) * c.retryDelay)
	}
}

// Put writes body to resourcePath. Mutations are single-shot: a failed
// write must not be blindly reissued since the server may already have
// applied it.
func (c *Client) Put(resourcePath string, body []byte) ([]byte, error) {
	return c.mutate(http.MethodPut, resourcePath, body)
}

// Patch applies a partial update to resourcePath. Single-shot, like Put.
func (c *Client) Patch(resourcePath string, body []byte) ([]byte, error) {
	return c.mutate(http.MethodPatch, resourcePath, body)
}

func (c *Client) mutate(method, resourcePath string, body []byte) ([]byte, error) {
	status, respBody, err := c.do(method, resourcePath, body)
	entry := log.WithFields(log.Fields{
		"server": c.identity,
		"method": method,
		"path":   resourcePath,
		"status": status,
	})
	if err != nil {
		entry.WithError(err).Debug("Request failed")
		return nil, &StatusError{Code: status}
	}
	if !isSuccess(status) {
		entry.Debug("Request rejected")
		return nil, &StatusError{Code: status}
	}
	entry.Debug("Request completed")
	return respBody, nil
}

// do issues one request and reads the full response. The returned error only
// covers transport problems; HTTP-level failures are reported through the
// status code.
func (c *Client) do(method, resourcePath string, body []byte) (int, []byte, error) {
	url := c.baseURL + "/" + strings.TrimPrefix(resourcePath, "/")

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, nil, errors.WithContext(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.WithContext(err, "send request")
	}
	defer resp.Body.Close()

	respBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.WithContext(err, "read response")
	}
	return resp.StatusCode, respBody, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
