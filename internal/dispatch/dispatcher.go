package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/bioportal/internal/domain"
)

// Hook is called once per channel after it reaches a terminal state.
// It runs on the channel goroutine.
type Hook func(Outcome)

// Dispatcher executes channels concurrently over a shared http.Client.
type Dispatcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	logger    *zap.Logger
	hook      Hook
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) Option {
	return func(d *Dispatcher) { d.userAgent = ua }
}

// WithHook registers a per-channel completion hook.
func WithHook(h Hook) Option {
	return func(d *Dispatcher) { d.hook = h }
}

// New creates a dispatcher. timeout bounds every channel individually;
// zero disables the per-channel limit.
func New(client *http.Client, timeout time.Duration, opts ...Option) *Dispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	d := &Dispatcher{
		client:  client,
		timeout: timeout,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Timeout returns the per-channel timeout.
func (d *Dispatcher) Timeout() time.Duration { return d.timeout }

// Do runs all channels concurrently and returns once every one of them has
// finished, failed or timed out. Outcomes are returned in channel order.
// A failing channel never cancels its siblings; cancelling ctx aborts all of
// them, and Do still waits for each to settle.
func (d *Dispatcher) Do(ctx context.Context, channels []Channel) []Outcome {
	out := make([]Outcome, len(channels))
	if len(channels) == 0 {
		return out
	}

	log := d.logger.With(
		zap.String("dispatch_id", uuid.NewString()),
		zap.Int("channels", len(channels)),
	)
	log.Debug("dispatch started")
	start := time.Now()

	var g errgroup.Group
	for i, ch := range channels {
		g.Go(func() error {
			o := d.fetch(ctx, ch)
			out[i] = o
			logOutcome(log, o)
			if d.hook != nil {
				d.hook(o)
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Debug("dispatch finished", zap.Duration("duration", time.Since(start)))
	return out
}

func (d *Dispatcher) fetch(ctx context.Context, ch Channel) Outcome {
	start := time.Now()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	fail := func(payload []byte, code int, err error) Outcome {
		return NewError(ch, payload, code, time.Since(start), &domain.ChannelError{
			Label:      ch.Label,
			URL:        ch.URL,
			StatusCode: code,
			Err:        err,
		})
	}

	var body io.Reader = http.NoBody
	if ch.Body != nil {
		body = bytes.NewReader(ch.Body)
	}
	req, err := http.NewRequestWithContext(ctx, ch.Method(), ch.URL, body)
	if err != nil {
		return fail(nil, 0, fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if ch.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fail(nil, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(payload, 0, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(payload, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}
	return NewOK(ch, payload, resp.StatusCode, time.Since(start))
}

func logOutcome(log *zap.Logger, o Outcome) {
	fields := []zap.Field{
		zap.String("label", o.Label()),
		zap.String("method", o.Channel().Method()),
		zap.String("url", o.Channel().URL),
		zap.Int("status", o.StatusCode()),
		zap.Duration("duration", o.Duration()),
	}
	if o.Err() != nil {
		log.Warn("channel failed", append(fields, zap.Error(o.Err()))...)
		return
	}
	log.Debug("channel completed", fields...)
}
