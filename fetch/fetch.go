// Package fetch retrieves the raw Public Suffix List and Root Zone
// Database texts over HTTP.
package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	derrors "github.com/xbojch/domainparser/errors"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "domainparser"
)

// Client fetches text documents from remote sources. The zero value is
// usable and applies the default timeout and user agent.
type Client struct {
	// HTTPClient is the underlying client. Defaults to a client with a
	// 30 second timeout.
	HTTPClient *http.Client

	// UserAgent overrides the User-Agent header sent with each request.
	UserAgent string
}

// FetchText retrieves the document at uri and returns its body. Transport
// failures yield a SourceUnreachable error; any non-2xx status yields an
// InvalidSourceResponse error carrying the received status code.
func (c *Client) FetchText(ctx context.Context, uri string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", derrors.SourceUnreachableError(uri, err)
	}
	userAgent := c.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", derrors.SourceUnreachableError(uri, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", derrors.InvalidSourceResponseError(uri, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", derrors.SourceUnreachableError(uri, err)
	}
	return string(body), nil
}
