package cytomine

import (
	"net/http"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Option configures the client at construction.
type Option func(*config)

type config struct {
	protocol  string
	basePath  string
	userAgent string
	timeout   time.Duration

	httpClient *http.Client
	limiter    *rate.Limiter
	fs         billy.Filesystem
	logger     zerolog.Logger
}

// WithProtocol sets the protocol used when the host does not carry one.
// Accepts "http" or "https", with or without the "://" suffix. The default
// is "http", and a protocol carried by the host always wins.
func WithProtocol(protocol string) Option {
	return func(c *config) {
		c.protocol = protocol
	}
}

// WithBasePath sets the path prefix of the REST API on the host. The
// default is "/api/".
func WithBasePath(basePath string) Option {
	return func(c *config) {
		c.basePath = basePath
	}
}

// WithTimeout bounds each request issued with the default HTTP client.
// The default is no timeout. Ignored when WithHTTPClient is used.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// WithHTTPClient replaces the default HTTP client. The replacement should
// not follow redirects: the request signature covers the requested path
// only, so a followed redirect would be sent unsigned.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithRequestRate throttles the client to the given number of requests per
// second, smoothing bulk downloads. The default is unlimited.
func WithRequestRate(perSecond float64) Option {
	return func(c *config) {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithFilesystem sets the filesystem downloads and uploads go through. The
// default is the OS filesystem rooted at "/"; tests typically pass an
// in-memory filesystem.
func WithFilesystem(fsys billy.Filesystem) Option {
	return func(c *config) {
		c.fs = fsys
	}
}

// WithLogger sets the logger for request and transfer diagnostics. The
// default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *config) {
		c.userAgent = userAgent
	}
}
