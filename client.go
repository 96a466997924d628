package cytomine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
	"github.com/Cytomine-ULiege/cytomine-go-client/models"
)

// defaultBasePath is the path prefix of the REST API on a standard
// deployment.
const defaultBasePath = "/api/"

// Client talks to a Cytomine server with signed requests. It satisfies the
// transport interfaces of the models package, so resource verbs,
// collection fetches and bulk dumps all go through one connection.
//
// A Client is safe for concurrent use.
type Client struct {
	host       string
	protocol   string
	basePath   string
	publicKey  string
	privateKey string
	userAgent  string

	httpClient *http.Client
	limiter    *rate.Limiter
	fs         billy.Filesystem
	logger     zerolog.Logger

	// now feeds the signed date header, swappable in tests.
	now func() time.Time
}

// New creates a client for the given host and key pair. The host may carry
// its protocol; without one the configured or default protocol applies.
//
// Example:
//
//	client, err := cytomine.New("https://demo.cytomine.local", publicKey, privateKey,
//	    cytomine.WithLogger(logger),
//	)
func New(host, publicKey, privateKey string, opts ...Option) (*Client, error) {
	cfg := &config{
		protocol: "http",
		basePath: defaultBasePath,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	parsedHost, protocol := parseHost(host, cfg.protocol)
	if parsedHost == "" {
		return nil, errors.NewError("connect", errors.ErrInvalidHost)
	}
	if publicKey == "" || privateKey == "" {
		return nil, errors.NewError("connect", errors.ErrMissingCredentials)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.timeout,
			// The signature covers the requested path only, so redirects
			// are surfaced instead of followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	fsys := cfg.fs
	if fsys == nil {
		fsys = osfs.New("/")
	}

	return &Client{
		host:       parsedHost,
		protocol:   protocol,
		basePath:   cfg.basePath,
		publicKey:  publicKey,
		privateKey: privateKey,
		userAgent:  cfg.userAgent,
		httpClient: httpClient,
		limiter:    cfg.limiter,
		fs:         fsys,
		logger:     cfg.logger,
		now:        time.Now,
	}, nil
}

// parseHost splits the configured host into host and protocol. A protocol
// carried by the host wins over the configured default, and anything but
// http or https falls back to http.
func parseHost(host, defaultProtocol string) (string, string) {
	protocol := strings.TrimSuffix(defaultProtocol, "://")
	switch {
	case strings.HasPrefix(host, "http://"):
		protocol = "http"
	case strings.HasPrefix(host, "https://"):
		protocol = "https"
	}
	if protocol != "http" && protocol != "https" {
		protocol = "http"
	}
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimSuffix(host, "/")
	return host, protocol
}

// Host returns the server host, without protocol.
func (c *Client) Host() string { return c.host }

// Logger returns the client logger.
func (c *Client) Logger() zerolog.Logger { return c.logger }

// baseURL composes the server URL, with the API base path or without it
// for endpoints living outside the API.
func (c *Client) baseURL(withBasePath bool) string {
	u := c.protocol + "://" + c.host
	if withBasePath {
		u += c.basePath
	}
	return u
}

func (c *Client) endpointURL(path string, query url.Values, withBasePath bool) string {
	u := c.baseURL(withBasePath) + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do issues one signed request and logs it with a correlation id. The
// caller owns the response body.
func (c *Client) do(ctx context.Context, method, fullURL, contentType string, body io.Reader, signBase, signPath string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}
	c.sign(req, contentType, signBase, signPath)

	logger := c.logger.With().Str("request", uuid.NewString()).Logger()
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug().Str("method", method).Str("url", fullURL).Err(err).
			Msg("request failed")
		return nil, err
	}
	logger.Debug().Str("method", method).Str("url", fullURL).
		Int("status", resp.StatusCode).Dur("duration", time.Since(start)).
		Msg("request")
	return resp, nil
}

// checkResponse turns a non-OK response into an HTTPError, draining and
// closing its body. Redirects are reported with their target.
func (c *Client) checkResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound {
		return errors.NewHTTPError(resp.StatusCode,
			fmt.Sprintf("redirected to %s", resp.Header.Get("Location")))
	}
	return errors.NewHTTPError(resp.StatusCode, responseMessage(resp.Body))
}

// responseMessage extracts the server-side error message from a failure
// body, falling back to the raw body.
func responseMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 8192))
	if err != nil {
		return ""
	}
	var payload struct {
		Errors  string `json:"errors"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Errors != "" {
			return payload.Errors
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(data))
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	contentType := ""
	if method != http.MethodGet {
		contentType = "application/json"
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	full := c.endpointURL(path, query, true)
	resp, err := c.do(ctx, method, full, contentType, reader, c.baseURL(true), c.basePath)
	if err != nil {
		return err
	}
	if err := c.checkResponse(resp); err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// GetJSON issues a GET on an API path and decodes the JSON response into
// out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

// PostJSON issues a POST on an API path with a JSON body and decodes the
// JSON response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, body, out)
}

// PutJSON issues a PUT on an API path with a JSON body and decodes the
// JSON response into out.
func (c *Client) PutJSON(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, nil, body, out)
}

// DeleteJSON issues a DELETE on an API path.
func (c *Client) DeleteJSON(ctx context.Context, path string, query url.Values) error {
	contentType := "application/json"
	full := c.endpointURL(path, query, true)
	resp, err := c.do(ctx, http.MethodDelete, full, contentType, nil, c.baseURL(true), c.basePath)
	if err != nil {
		return err
	}
	if err := c.checkResponse(resp); err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}

// getOutsideAPI issues a GET on an endpoint living outside the API base
// path and discards the response body.
func (c *Client) getOutsideAPI(ctx context.Context, path string) error {
	full := c.endpointURL(path, nil, false)
	resp, err := c.do(ctx, http.MethodGet, full, "", nil, c.baseURL(true), c.basePath)
	if err != nil {
		return errors.NewPathError("get", path, err)
	}
	if err := c.checkResponse(resp); err != nil {
		return errors.NewPathError("get", path, err)
	}
	defer resp.Body.Close()
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}

// Ping checks that the server accepts connections.
func (c *Client) Ping(ctx context.Context) error {
	return c.getOutsideAPI(ctx, "/server/ping")
}

// WaitReady polls the server until it accepts connections, the timeout
// elapses or the context is cancelled.
func (c *Client) WaitReady(ctx context.Context, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		if lastErr = c.Ping(ctx); lastErr == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.NewError("wait",
				fmt.Errorf("server not reachable after %s: %w", timeout, lastErr))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// OpenAdminSession elevates the session to administrator rights until
// closed. Refetch the current user afterwards to observe the elevation.
func (c *Client) OpenAdminSession(ctx context.Context) error {
	return c.getOutsideAPI(ctx, "/session/admin/open.json")
}

// CloseAdminSession drops the administrator rights of the session.
func (c *Client) CloseAdminSession(ctx context.Context) error {
	return c.getOutsideAPI(ctx, "/session/admin/close.json")
}

// FetchCurrentUser loads the account owning the connection credentials.
func (c *Client) FetchCurrentUser(ctx context.Context) (*models.CurrentUser, error) {
	user := models.NewCurrentUser()
	if err := user.Fetch(ctx, c); err != nil {
		return nil, err
	}
	return user, nil
}
