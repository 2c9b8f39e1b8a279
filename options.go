package bioportal

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	Config

	httpClient *http.Client
	logger     *zap.Logger
	metricsReg prometheus.Registerer
	now        func() time.Time
}

// WithConfig replaces the whole configuration, typically one produced by
// the configuration loader. Later options still override single fields.
func WithConfig(cfg Config) Option {
	return optionFunc(func(c *clientConfig) {
		c.Config = cfg
	})
}

// WithBaseURL sets the NBA root URL, e.g. https://api.biodiversitydata.nl/v2/.
// A trailing slash is added if missing.
func WithBaseURL(u string) Option {
	return optionFunc(func(c *clientConfig) {
		c.BaseURL = u
	})
}

// WithTimeout sets the per-request timeout. Default: 5s. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.Timeout = d
	})
}

// WithMaxBatchSize sets the maximum number of specs per batch query.
// Default: 1000.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.MaxBatchSize = size
	})
}

// WithDownloadDir sets the directory DwCA archives are written to.
func WithDownloadDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.DownloadDir = dir
	})
}

// WithPost makes query operations send the spec as a JSON body instead of a
// URL parameter. Same as calling Client.UsePost(true).
func WithPost() Option {
	return optionFunc(func(c *clientConfig) {
		c.UsePost = true
	})
}

// WithHTTPClient sets the HTTP client. Its Timeout should be zero: request
// deadlines come from WithTimeout, and archive downloads are unbounded.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithLogger enables structured logging of operations and channels.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts, durations and
// per-channel request counts) on the given registerer. Pass nil to disable
// (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// withClock overrides the clock used for archive file names.
func withClock(now func() time.Time) Option {
	return optionFunc(func(c *clientConfig) {
		c.now = now
	})
}
