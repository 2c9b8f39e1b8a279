package bioportal

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bioportal/internal/dispatch"
	"github.com/kailas-cloud/bioportal/internal/domain"
	"github.com/kailas-cloud/bioportal/query"
)

// BatchQuery runs many specs against the single selected service
// concurrently. Results are keyed by the keys of specs. More specs than the
// configured maximum fail with a *CapacityError before any request is made.
func (c *Client) BatchQuery(ctx context.Context, specs map[string]query.Specifier) (res *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("batchQuery", start, resultErr(res, err)) }()

	svc, err := c.requireSingle("batchQuery")
	if err != nil {
		return nil, err
	}
	if len(specs) > c.cfg.MaxBatchSize {
		return nil, domain.NewCapacityError(len(specs), c.cfg.MaxBatchSize)
	}
	if len(specs) == 0 {
		return nil, domain.Validationf("batchQuery: no specs given")
	}

	keys := sortedKeys(specs)
	channels := make([]dispatch.Channel, 0, len(keys))
	for _, k := range keys {
		spec := specs[k]
		if isNilSpec(spec) || spec.IsEmpty() {
			return nil, domain.Validationf("batchQuery: spec %q is empty", k)
		}
		if spec.UsesExtendedCriteria() {
			return nil, domain.Validationf("batchQuery: spec %q uses groupByScientificName criteria", k)
		}
		ch, err := c.specChannel(k, svc, "query", spec, c.usePost)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}

	c.logger.Debug("batch query prepared",
		zap.String("service", string(svc)),
		zap.Int("specs", len(channels)),
	)
	return c.run(ctx, channels), nil
}

// BatchItem is one entry of a MultiServiceBatch: the operation and its spec.
// QueryTypeQuery takes a *query.Spec, QueryTypeGroupByScientificName a
// *query.GroupSpec.
type BatchItem struct {
	Type QueryType
	Spec query.Specifier
}

// MultiServiceBatch runs one operation per service concurrently, keyed by
// service name. It replaces the selection with the services of items.
func (c *Client) MultiServiceBatch(ctx context.Context, items map[Service]BatchItem) (res *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("multiServiceBatch", start, resultErr(res, err)) }()

	if len(items) == 0 {
		return nil, domain.Validationf("multiServiceBatch: no items given")
	}
	if len(items) > c.cfg.MaxBatchSize {
		return nil, domain.NewCapacityError(len(items), c.cfg.MaxBatchSize)
	}

	services := make([]Service, 0, len(items))
	for s := range items {
		services = append(services, s)
	}
	slices.Sort(services)

	channels := make([]dispatch.Channel, 0, len(services))
	for _, s := range services {
		it := items[s]
		if !s.IsValid() {
			return nil, domain.Validationf("multiServiceBatch: unknown service %q", s)
		}
		if isNilSpec(it.Spec) || it.Spec.IsEmpty() {
			return nil, domain.Validationf("multiServiceBatch: no spec for %q", s)
		}
		switch it.Type {
		case QueryTypeQuery:
			if _, ok := it.Spec.(*query.Spec); !ok {
				return nil, domain.Validationf("multiServiceBatch: %q query needs a query.Spec, got %T", s, it.Spec)
			}
		case QueryTypeGroupByScientificName:
			if _, ok := it.Spec.(*query.GroupSpec); !ok {
				return nil, domain.Validationf("multiServiceBatch: %q groupByScientificName needs a query.GroupSpec, got %T",
					s, it.Spec)
			}
			if !s.SupportsGrouping() {
				return nil, domain.Statef("multiServiceBatch: service %q does not support groupByScientificName", s)
			}
		default:
			return nil, domain.Validationf("multiServiceBatch: invalid query type %q for %q", it.Type, s)
		}
		ch, err := c.specChannel(string(s), s, string(it.Type), it.Spec, c.usePost)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}

	c.reset()
	c.services = services
	return c.run(ctx, channels), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
