// Package download streams large NBA exports (DwCA archives) to disk.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bioportal/internal/domain"
)

const defaultProgressInterval = 5 * time.Second

// Downloader writes a response body to a file. Requests carry no timeout;
// only the caller's context bounds them.
type Downloader struct {
	client           *http.Client
	logger           *zap.Logger
	userAgent        string
	progressInterval time.Duration
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient replaces the default client. Its Timeout should be zero.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) {
		if c != nil {
			d.client = c
		}
	}
}

// WithLogger sets the progress logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Downloader) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(d *Downloader) { d.userAgent = ua }
}

// WithProgressInterval sets how often progress is logged.
func WithProgressInterval(iv time.Duration) Option {
	return func(d *Downloader) { d.progressInterval = iv }
}

// New creates a downloader.
func New(opts ...Option) *Downloader {
	d := &Downloader{
		client:           &http.Client{},
		logger:           zap.NewNop(),
		progressInterval: defaultProgressInterval,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Download streams url into dest and returns the number of bytes written.
// The body goes to dest+".tmp" first and is renamed on success, so dest never
// holds a partial archive.
func (d *Downloader) Download(ctx context.Context, url, dest string) (int64, error) {
	cleanPath := filepath.Clean(dest)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o750); err != nil {
		return 0, fmt.Errorf("mkdir %s: %w", filepath.Dir(cleanPath), err)
	}
	tmpPath := cleanPath + ".tmp"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, &domain.ChannelError{Label: filepath.Base(cleanPath), URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, &domain.ChannelError{
			Label:      filepath.Base(cleanPath),
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("open tmp: %w", err)
	}

	written, err := io.Copy(f, &progressReader{
		reader:   resp.Body,
		total:    resp.ContentLength,
		name:     filepath.Base(cleanPath),
		logger:   d.logger,
		interval: d.progressInterval,
		lastLog:  time.Now(),
	})
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return written, fmt.Errorf("write %s: %w", cleanPath, err)
	}

	if err := os.Rename(tmpPath, cleanPath); err != nil {
		return written, fmt.Errorf("rename: %w", err)
	}
	d.logger.Info("download finished",
		zap.String("file", cleanPath),
		zap.Int64("bytes", written),
	)
	return written, nil
}

// progressReader logs download progress at a fixed interval.
type progressReader struct {
	reader   io.Reader
	total    int64
	current  int64
	name     string
	logger   *zap.Logger
	interval time.Duration
	lastLog  time.Time
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)

	if pr.interval > 0 && time.Since(pr.lastLog) > pr.interval {
		pr.lastLog = time.Now()
		fields := []zap.Field{
			zap.String("file", pr.name),
			zap.Int64("bytes", pr.current),
		}
		// DwCA exports are streamed, so the length is usually unknown.
		if pr.total > 0 {
			fields = append(fields, zap.Float64("percent", float64(pr.current)/float64(pr.total)*100))
		}
		pr.logger.Info("download progress", fields...)
	}

	if err == io.EOF {
		return n, io.EOF
	}
	if err != nil {
		return n, fmt.Errorf("read: %w", err)
	}
	return n, nil
}
