package bioportal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/bioportal/internal/dispatch"
	"github.com/kailas-cloud/bioportal/internal/domain"
	"github.com/kailas-cloud/bioportal/query"
)

// Count returns the number of documents per selected service, optionally
// restricted by the attached spec.
func (c *Client) Count(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("count", start, resultErr(res, err)) }()

	channels, err := c.perService("count", func(s Service) (string, error) {
		return c.withOptionalSpec(string(s) + "/count/")
	})
	if err != nil {
		return nil, err
	}
	return c.run(ctx, channels), nil
}

// DistinctValues lists the distinct values of field per selected service,
// optionally restricted by the attached spec.
func (c *Client) DistinctValues(ctx context.Context, field string) (res *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("getDistinctValues", start, resultErr(res, err)) }()

	if strings.TrimSpace(field) == "" {
		return nil, domain.Validationf("getDistinctValues: no field given")
	}
	channels, err := c.perService("getDistinctValues", func(s Service) (string, error) {
		return c.withOptionalSpec(string(s) + "/getDistinctValues/" + url.PathEscape(field))
	})
	if err != nil {
		return nil, err
	}
	return c.run(ctx, channels), nil
}

// FieldInfo returns field metadata per selected service. Without fields the
// NBA describes every field.
func (c *Client) FieldInfo(ctx context.Context, fields ...string) (res *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("getFieldInfo", start, resultErr(res, err)) }()

	var qs string
	if len(fields) > 0 {
		qs, err = runtime.StyleParamWithLocation("form", false, "fields", runtime.ParamLocationQuery, fields)
		if err != nil {
			return nil, fmt.Errorf("getFieldInfo: %w", err)
		}
		qs = "?" + qs
	}
	channels, err := c.perService("getFieldInfo", func(s Service) (string, error) {
		return string(s) + "/metadata/getFieldInfo/" + qs, nil
	})
	if err != nil {
		return nil, err
	}
	return c.run(ctx, channels), nil
}

// Paths lists the document paths per selected service.
func (c *Client) Paths(ctx context.Context, sorted bool) (res *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("getPaths", start, resultErr(res, err)) }()

	suffix := ""
	if sorted {
		qs, err := runtime.StyleParamWithLocation("form", true, "sorted", runtime.ParamLocationQuery, true)
		if err != nil {
			return nil, fmt.Errorf("getPaths: %w", err)
		}
		suffix = "/?" + qs
	}
	channels, err := c.perService("getPaths", func(s Service) (string, error) {
		return string(s) + "/metadata/getPaths" + suffix, nil
	})
	if err != nil {
		return nil, err
	}
	return c.run(ctx, channels), nil
}

// Find looks documents up by id in every selected service. One id uses the
// find endpoint, several use findByIds.
func (c *Client) Find(ctx context.Context, ids ...string) (res *Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("find", start, resultErr(res, err)) }()

	if len(ids) == 0 {
		return nil, domain.Validationf("find: no id given")
	}
	escaped := make([]string, len(ids))
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return nil, domain.Validationf("find: id %d is empty", i)
		}
		escaped[i] = url.PathEscape(strings.TrimSpace(id))
	}
	method := "find"
	if len(ids) > 1 {
		method = "findByIds"
	}
	channels, err := c.perService(method, func(s Service) (string, error) {
		return string(s) + "/" + method + "/" + strings.Join(escaped, ","), nil
	})
	if err != nil {
		return nil, err
	}
	return c.run(ctx, channels), nil
}

// FindByUnitID returns the specimen document with the given unit id, matched
// case-insensitively. It returns ErrNotFound when no specimen matches.
// The selection and attached spec are left untouched.
func (c *Client) FindByUnitID(ctx context.Context, unitID string) (item json.RawMessage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("findByUnitId", start, err) }()

	if strings.TrimSpace(unitID) == "" {
		return nil, domain.Validationf("findByUnitId: no unit id given")
	}
	if len(c.services) > 0 && !slices.Contains(c.services, ServiceSpecimen) {
		return nil, domain.Statef("findByUnitId: can only be used to query specimens")
	}

	cond, err := query.NewCondition("unitID", query.EqualsIC, unitID)
	if err != nil {
		return nil, err
	}
	spec := query.NewSpec()
	if err := spec.AddCondition(cond); err != nil {
		return nil, err
	}
	spec.SetConstantScore(true)

	ch, err := c.specChannel(string(ServiceSpecimen), ServiceSpecimen, "query", spec, false)
	if err != nil {
		return nil, err
	}
	res := c.run(ctx, []dispatch.Channel{ch})

	var page struct {
		ResultSet []struct {
			Item json.RawMessage `json:"item"`
		} `json:"resultSet"`
	}
	if err := res.Decode(&page); err != nil {
		return nil, err
	}
	if len(page.ResultSet) == 0 || len(page.ResultSet[0].Item) == 0 {
		return nil, fmt.Errorf("findByUnitId %q: %w", unitID, domain.ErrNotFound)
	}
	return page.ResultSet[0].Item, nil
}

// Exists reports whether a specimen with the given unit id exists.
func (c *Client) Exists(ctx context.Context, unitID string) (bool, error) {
	_, err := c.FindByUnitID(ctx, unitID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsOperatorAllowed asks the NBA whether op can be used on field of the single
// selected service. The field must be one of the service's paths.
func (c *Client) IsOperatorAllowed(ctx context.Context, field string, op query.Operator) (ok bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("isOperatorAllowed", start, err) }()

	svc, err := c.requireSingle("isOperatorAllowed")
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(field) == "" {
		return false, domain.Validationf("isOperatorAllowed: no field given")
	}
	o, err := query.ParseOperator(string(op))
	if err != nil {
		return false, err
	}

	body, err := c.fetch(ctx, "getPaths", svc, string(svc)+"/metadata/getPaths")
	if err != nil {
		return false, err
	}
	var paths []string
	if err := json.Unmarshal(body, &paths); err != nil {
		return false, fmt.Errorf("isOperatorAllowed: decode paths: %w", err)
	}
	if !slices.Contains(paths, field) {
		return false, domain.Validationf("isOperatorAllowed: field %q not available for service %q", field, svc)
	}

	body, err = c.fetch(ctx, "isOperatorAllowed", svc,
		string(svc)+"/metadata/isOperatorAllowed/"+url.PathEscape(field)+"/"+string(o))
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(body, &ok); err != nil {
		return false, fmt.Errorf("isOperatorAllowed: decode: %w", err)
	}
	return ok, nil
}

// perService builds one GET channel per selected service.
func (c *Client) perService(op string, path func(Service) (string, error)) ([]dispatch.Channel, error) {
	if err := c.requireServices(op); err != nil {
		return nil, err
	}
	channels := make([]dispatch.Channel, 0, len(c.services))
	for _, s := range c.services {
		p, err := path(s)
		if err != nil {
			return nil, err
		}
		channels = append(channels, dispatch.Channel{
			Label:   string(s),
			Service: string(s),
			URL:     c.cfg.BaseURL + p,
		})
	}
	return channels, nil
}

// withOptionalSpec appends the attached spec, if any, as _querySpec.
func (c *Client) withOptionalSpec(path string) (string, error) {
	if c.spec == nil || c.spec.IsEmpty() {
		return path, nil
	}
	if c.spec.UsesExtendedCriteria() {
		return "", domain.Statef("spec uses groupByScientificName criteria")
	}
	qs, err := c.spec.Serialize(true)
	if err != nil {
		return "", fmt.Errorf("serialize spec: %w", err)
	}
	return path + "?" + querySpecParam + "=" + qs, nil
}
