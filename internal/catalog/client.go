// Package catalog fetches the Titanium release list, the CI branch list and
// the per-branch CI build indexes.
//
// Every call issues a fresh GET. Nothing is cached and nothing is retried:
// a transport failure, a status of 400 or above, or a body that is not JSON
// is returned to the caller as a classified sdkerr.Error.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/logging"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/platform"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/sdkerr"
)

const maxRedirects = 10

// Catalog is the read side of the remote feeds used by the resolver.
type Catalog interface {
	Releases(ctx context.Context) (Releases, error)
	Branches(ctx context.Context) (*Branches, error)
	Builds(ctx context.Context, branch string) ([]Build, error)
}

// Options configures a Client.
type Options struct {
	ReleasesURL string
	BranchesURL string
	// BuildsURL contains a single %s replaced by the branch name.
	BuildsURL string
	UserAgent string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Client fetches the feeds over HTTP and filters them for one platform.
type Client struct {
	opts     Options
	client   *http.Client
	platform *platform.Info
	logger   logging.Logger
}

// NewClient returns a Client filtering feeds for info.
func NewClient(info *platform.Info, opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		opts:     opts,
		client:   client,
		platform: info,
		logger:   logging.OrNop(opts.Logger),
	}
}

// NewHTTPClient returns an http.Client with the given overall timeout and
// a redirect limit.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

// Get issues a GET for url with the configured User-Agent. The caller owns
// the returned body. Statuses of 400 and above are turned into an HTTP
// error and the body is closed.
func Get(ctx context.Context, client *http.Client, url, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, sdkerr.BadInput("invalid URL %q", url).With("url", url)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, sdkerr.Transport(err, "request %s", url).With("url", url)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, sdkerr.NewHTTPError(resp.StatusCode, url).With("url", url)
	}
	return resp, nil
}

// getJSON fetches url and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, url string, v interface{}) error {
	c.logger.Debug("fetching feed", "url", url)

	resp, err := Get(ctx, c.client, url, c.opts.UserAgent)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return sdkerr.Transport(err, "read %s", url).With("url", url)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return sdkerr.Transport(fmt.Errorf("%w: %v", sdkerr.ErrMalformedResponse, err), "decode %s", url).With("url", url)
	}
	return nil
}
