package bioportal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bioportal/internal/dispatch"
	"github.com/kailas-cloud/bioportal/internal/domain"
	"github.com/kailas-cloud/bioportal/internal/download"
	"github.com/kailas-cloud/bioportal/internal/version"
	"github.com/kailas-cloud/bioportal/query"
)

// Defaults applied by New.
const (
	DefaultBaseURL      = "https://api.biodiversitydata.nl/v2/"
	DefaultTimeout      = 5 * time.Second
	DefaultMaxBatchSize = 1000
)

// querySpecParam is the query parameter carrying a serialized spec.
const querySpecParam = "_querySpec"

// Config holds the client settings. It is normally produced by the
// configuration loader and passed through WithConfig.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxBatchSize int
	DownloadDir  string
	UsePost      bool
}

// Client is the NBA SDK entry point.
//
// A Client carries dispatch state (selection, attached spec, last channels
// and results) and must not be used for concurrent dispatches. Use one
// Client per goroutine; they may share an http.Client.
type Client struct {
	cfg        Config
	dispatcher *dispatch.Dispatcher
	downloader *download.Downloader
	obs        *observer
	logger     *zap.Logger
	now        func() time.Time

	usePost  bool
	services []Service
	spec     query.Specifier
	channels []dispatch.Channel
	last     *Result
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		Config: Config{
			BaseURL:      DefaultBaseURL,
			Timeout:      DefaultTimeout,
			MaxBatchSize: DefaultMaxBatchSize,
		},
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	base, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	cfg.BaseURL = base
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("bioportal: %w: timeout must not be negative, got %s", domain.ErrValidation, cfg.Timeout)
	}
	if cfg.MaxBatchSize <= 0 {
		return nil, fmt.Errorf("bioportal: %w: max batch size must be positive, got %d", domain.ErrValidation, cfg.MaxBatchSize)
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	obs, err := newObserver(logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{}
	}
	dl := *hc
	dl.Timeout = 0

	ua := "bioportal-go/" + version.Version
	now := cfg.now
	if now == nil {
		now = time.Now
	}

	return &Client{
		cfg: cfg.Config,
		dispatcher: dispatch.New(hc, cfg.Timeout,
			dispatch.WithLogger(logger),
			dispatch.WithUserAgent(ua),
			dispatch.WithHook(obs.observeChannel),
		),
		downloader: download.New(
			download.WithHTTPClient(&dl),
			download.WithLogger(logger),
			download.WithUserAgent(ua),
		),
		obs:     obs,
		logger:  logger,
		now:     now,
		usePost: cfg.UsePost,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("bioportal: %w: base url %q is not a valid http(s) url", domain.ErrValidation, raw)
	}
	s := u.String()
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	cfg := c.cfg
	cfg.UsePost = c.usePost
	return cfg
}

// Select replaces the selection with the given services. Any previous spec,
// channels and results are discarded.
func (c *Client) Select(services ...Service) error {
	if len(services) == 0 {
		return domain.Validationf("select: no service given")
	}
	sel := make([]Service, 0, len(services))
	for _, s := range services {
		if !s.IsValid() {
			return domain.Validationf("select: unknown service %q", s)
		}
		if !slices.Contains(sel, s) {
			sel = append(sel, s)
		}
	}
	c.reset()
	c.services = sel
	return nil
}

// Taxon selects the taxon service.
func (c *Client) Taxon() *Client { return c.selectOne(ServiceTaxon) }

// Specimen selects the specimen service.
func (c *Client) Specimen() *Client { return c.selectOne(ServiceSpecimen) }

// Multimedia selects the multimedia service.
func (c *Client) Multimedia() *Client { return c.selectOne(ServiceMultimedia) }

// Geo selects the geo service.
func (c *Client) Geo() *Client { return c.selectOne(ServiceGeo) }

// All selects every service.
func (c *Client) All() *Client {
	c.reset()
	c.services = AllServices()
	return c
}

func (c *Client) selectOne(s Service) *Client {
	c.reset()
	c.services = []Service{s}
	return c
}

// reset returns the client to the ServiceSelected state.
func (c *Client) reset() {
	c.spec = nil
	c.channels = nil
	c.last = nil
}

// Services returns the current selection.
func (c *Client) Services() []Service { return append([]Service(nil), c.services...) }

// UsePost toggles sending specs as a JSON body on query operations.
func (c *Client) UsePost(on bool) *Client {
	c.usePost = on
	return c
}

// AttachSpec stores the spec used by the next dispatch. A spec with
// aggregation-only criteria needs exactly one selected service that supports
// groupByScientificName.
func (c *Client) AttachSpec(spec query.Specifier) error {
	if isNilSpec(spec) {
		return domain.Validationf("attach: nil spec")
	}
	if spec.UsesExtendedCriteria() {
		if err := c.checkGrouping("attach"); err != nil {
			return err
		}
	}
	c.spec = spec
	return nil
}

// Spec returns the attached spec, nil if none.
func (c *Client) Spec() query.Specifier { return c.spec }

// SerializedSpec returns the attached spec in wire form.
func (c *Client) SerializedSpec(urlEncoded bool) (string, error) {
	if c.spec == nil {
		return "", domain.Statef("no query spec attached")
	}
	return c.spec.Serialize(urlEncoded)
}

// Query runs the attached spec against every selected service concurrently.
// A single selected service yields a single-channel Result.
func (c *Client) Query(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("query", start, resultErr(res, err)) }()

	if err := c.requireServices("query"); err != nil {
		return nil, err
	}
	spec, err := c.requireSpec("query")
	if err != nil {
		return nil, err
	}
	if spec.UsesExtendedCriteria() {
		return nil, domain.Statef("query: spec uses groupByScientificName criteria")
	}
	channels, err := c.specChannels("query", c.services, spec, c.usePost)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, channels), nil
}

// GroupByScientificName runs the attached GroupSpec against the selected
// services, which must all support the aggregation.
func (c *Client) GroupByScientificName(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("groupByScientificName", start, resultErr(res, err)) }()

	if err := c.requireServices("groupByScientificName"); err != nil {
		return nil, err
	}
	spec, err := c.requireSpec("groupByScientificName")
	if err != nil {
		return nil, err
	}
	if _, ok := spec.(*query.GroupSpec); !ok {
		return nil, domain.Statef("groupByScientificName: requires a query.GroupSpec, got %T", spec)
	}
	// The spec may have gained aggregation-only criteria since it was attached.
	if spec.UsesExtendedCriteria() {
		if err := c.checkGrouping("groupByScientificName"); err != nil {
			return nil, err
		}
	}
	for _, s := range c.services {
		if !s.SupportsGrouping() {
			return nil, domain.Statef("groupByScientificName: service %q does not support it", s)
		}
	}
	channels, err := c.specChannels("groupByScientificName", c.services, spec, c.usePost)
	if err != nil {
		return nil, err
	}
	return c.run(ctx, channels), nil
}

// LastResult returns the result of the last dispatch, nil if none.
func (c *Client) LastResult() *Result { return c.last }

// LastErrors returns the channel errors of the last dispatch.
func (c *Client) LastErrors() map[string]error {
	if c.last == nil {
		return map[string]error{}
	}
	return c.last.Errors()
}

// QueryURLs returns label → URL of the channels built by the last operation.
func (c *Client) QueryURLs() map[string]string {
	out := make(map[string]string, len(c.channels))
	for _, ch := range c.channels {
		out[ch.Label] = ch.URL
	}
	return out
}

// QueryURL returns the URL of the last channel built, empty if none.
func (c *Client) QueryURL() string {
	if len(c.channels) == 0 {
		return ""
	}
	return c.channels[len(c.channels)-1].URL
}

// run dispatches channels and records the result as the client's last.
func (c *Client) run(ctx context.Context, channels []dispatch.Channel) *Result {
	c.channels = channels
	c.last = nil
	res := newResult(c.dispatcher.Do(ctx, channels))
	c.last = res
	return res
}

// fetch runs a single GET channel and returns its payload or error.
func (c *Client) fetch(ctx context.Context, label string, svc Service, path string) ([]byte, error) {
	res := c.run(ctx, []dispatch.Channel{{
		Label:   label,
		Service: string(svc),
		URL:     c.cfg.BaseURL + path,
	}})
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res.Raw(), nil
}

// specChannels builds one channel per service for a spec-carrying operation.
func (c *Client) specChannels(
	op string, services []Service, spec query.Specifier, post bool,
) ([]dispatch.Channel, error) {
	channels := make([]dispatch.Channel, 0, len(services))
	for _, s := range services {
		ch, err := c.specChannel(string(s), s, op, spec, post)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

func (c *Client) specChannel(
	label string, svc Service, op string, spec query.Specifier, post bool,
) (dispatch.Channel, error) {
	ch := dispatch.Channel{
		Label:   label,
		Service: string(svc),
		URL:     c.cfg.BaseURL + string(svc) + "/" + op + "/",
	}
	if post {
		body, err := spec.Serialize(false)
		if err != nil {
			return dispatch.Channel{}, fmt.Errorf("%s: serialize spec: %w", op, err)
		}
		ch.Body = []byte(body)
		return ch, nil
	}
	qs, err := spec.Serialize(true)
	if err != nil {
		return dispatch.Channel{}, fmt.Errorf("%s: serialize spec: %w", op, err)
	}
	ch.URL += "?" + querySpecParam + "=" + qs
	return ch, nil
}

func (c *Client) requireServices(op string) error {
	if len(c.services) == 0 {
		return domain.Statef("%s: no service selected", op)
	}
	return nil
}

func (c *Client) requireSingle(op string) (Service, error) {
	if err := c.requireServices(op); err != nil {
		return "", err
	}
	if len(c.services) > 1 {
		return "", domain.Statef("%s: accepts a single service only, %d selected", op, len(c.services))
	}
	return c.services[0], nil
}

func (c *Client) requireSpec(op string) (query.Specifier, error) {
	if c.spec == nil || c.spec.IsEmpty() {
		return nil, domain.Statef("%s: query spec empty or not set", op)
	}
	return c.spec, nil
}

func (c *Client) checkGrouping(op string) error {
	if len(c.services) != 1 {
		return domain.Statef("%s: groupByScientificName criteria need exactly one selected service, %d selected",
			op, len(c.services))
	}
	if !c.services[0].SupportsGrouping() {
		return domain.Statef("%s: service %q does not support groupByScientificName criteria", op, c.services[0])
	}
	return nil
}

// isNilSpec also catches typed nil pointers wrapped in the interface.
func isNilSpec(s query.Specifier) bool {
	switch v := s.(type) {
	case nil:
		return true
	case *query.Spec:
		return v == nil
	case *query.GroupSpec:
		return v == nil
	default:
		return false
	}
}

// resultErr picks the error reported to the observer.
func resultErr(res *Result, err error) error {
	if err != nil || res == nil {
		return err
	}
	return res.Err()
}
