package bioportal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/bioportal/internal/dispatch"
	"github.com/kailas-cloud/bioportal/internal/domain"
	"github.com/kailas-cloud/bioportal/query"
)

// pingResponse is the body of a healthy /ping.
const pingResponse = "NBA Service is up and running!"

// Settings keys of metadata/getSettings.
const (
	settingContainsMinTermLength = "operator.contains.min_term_length"
	settingContainsMaxTermLength = "operator.contains.max_term_length"
	settingMaxResultWindow       = "index.max_result_window"
	settingMaxNumBucketsSuffix   = ".group_by_scientific_name.max_num_buckets"
)

// Ping reports whether the NBA is up.
func (c *Client) Ping(ctx context.Context) (up bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	body, err := c.fetch(ctx, "ping", "", "ping")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(body)) == pingResponse, nil
}

// AllowedDateFormats returns the date formats accepted in conditions.
func (c *Client) AllowedDateFormats(ctx context.Context) (json.RawMessage, error) {
	return c.native(ctx, "getAllowedDateFormats", "", "metadata/getAllowedDateFormats")
}

// SourceSystems returns the source systems feeding the NBA.
func (c *Client) SourceSystems(ctx context.Context) (json.RawMessage, error) {
	return c.native(ctx, "getSourceSystems", "", "metadata/getSourceSystems")
}

// Settings returns the global NBA settings document.
func (c *Client) Settings(ctx context.Context) (json.RawMessage, error) {
	return c.native(ctx, "getSettings", "", "metadata/getSettings")
}

// NamedCollections returns the named specimen collections.
func (c *Client) NamedCollections(ctx context.Context) (json.RawMessage, error) {
	return c.native(ctx, "getNamedCollections", ServiceSpecimen, "specimen/getNamedCollections")
}

// ControlledLists returns the names of the fields backed by a controlled list.
func (c *Client) ControlledLists(ctx context.Context) (json.RawMessage, error) {
	return c.native(ctx, "getControlledLists", "", "metadata/getControlledLists")
}

// ControlledList returns the allowed values of a controlled-list field.
func (c *Client) ControlledList(ctx context.Context, field string) (json.RawMessage, error) {
	if strings.TrimSpace(field) == "" {
		return nil, domain.Validationf("getControlledList: no field given")
	}
	raw, err := c.ControlledLists(ctx)
	if err != nil {
		return nil, err
	}
	var lists []string
	if err := json.Unmarshal(raw, &lists); err != nil {
		return nil, fmt.Errorf("getControlledList: decode lists: %w", err)
	}
	if !slices.Contains(lists, field) {
		return nil, domain.Validationf("getControlledList: field %q is not a controlled list", field)
	}
	return c.native(ctx, "getControlledList", "", "metadata/getControlledList/"+url.PathEscape(field))
}

// RestServices returns the NBA endpoint listing.
func (c *Client) RestServices(ctx context.Context) (json.RawMessage, error) {
	return c.native(ctx, "getRestServices", "", "metadata/getRestServices")
}

// GeoJSONForLocality returns the GeoJSON shape of a locality. The NBA lookup
// is case-sensitive; an unknown locality yields ErrNotFound.
func (c *Client) GeoJSONForLocality(ctx context.Context, locality string) (json.RawMessage, error) {
	if strings.TrimSpace(locality) == "" {
		return nil, domain.Validationf("getGeoJsonForLocality: no locality given")
	}
	raw, err := c.native(ctx, "getGeoJsonForLocality", ServiceGeo,
		"geo/getGeoJsonForLocality/"+url.PathEscape(locality))
	if err != nil {
		return nil, err
	}
	var shape struct {
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil || len(shape.Coordinates) == 0 {
		return nil, fmt.Errorf("getGeoJsonForLocality %q: %w", locality, domain.ErrNotFound)
	}
	return raw, nil
}

// GeoJSONForGID returns the shape of a geo document by its id. The "@GEO"
// suffix is appended when missing.
func (c *Client) GeoJSONForGID(ctx context.Context, gid string) (json.RawMessage, error) {
	gid = strings.TrimSpace(gid)
	if gid == "" {
		return nil, domain.Validationf("getGeoJsonForGid: no id given")
	}
	if !strings.Contains(gid, "@") {
		gid += "@GEO"
	}
	raw, err := c.native(ctx, "find", ServiceGeo, "geo/find/"+url.PathEscape(gid))
	if err != nil {
		return nil, err
	}
	var doc struct {
		Shape json.RawMessage `json:"shape"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil || len(doc.Shape) == 0 || string(doc.Shape) == "null" {
		return nil, fmt.Errorf("getGeoJsonForGid %q: %w", gid, domain.ErrNotFound)
	}
	return doc.Shape, nil
}

// GeoArea is one area of the geo index with its localized names.
type GeoArea struct {
	ID       string            `json:"id"`
	Locality map[string]string `json:"locality"`
}

// GeoAreas lists the geo index grouped by area type. Localities are given in
// English ("en") and Dutch ("nl"); the Dutch name falls back to the English
// one. With trimGIDSuffix the "@GEO" suffix is cut from ids.
func (c *Client) GeoAreas(ctx context.Context, trimGIDSuffix bool) (areas map[string][]GeoArea, err error) {
	start := time.Now()
	defer func() { c.obs.observe("geoAreas", start, err) }()

	spec := query.NewSpec().SetConstantScore(true)
	if err := spec.SetSize(2000); err != nil {
		return nil, err
	}
	if err := spec.SetFields([]string{"sourceSystemId", "areaType", "locality", "countryNL"}); err != nil {
		return nil, err
	}
	ch, err := c.specChannel(string(ServiceGeo), ServiceGeo, "query", spec, false)
	if err != nil {
		return nil, err
	}

	var page struct {
		ResultSet []struct {
			Item struct {
				ID        string `json:"id"`
				AreaType  string `json:"areaType"`
				Locality  string `json:"locality"`
				CountryNL string `json:"countryNL"`
			} `json:"item"`
		} `json:"resultSet"`
	}
	if err := c.run(ctx, []dispatch.Channel{ch}).Decode(&page); err != nil {
		return nil, err
	}

	areas = make(map[string][]GeoArea)
	for _, row := range page.ResultSet {
		it := row.Item
		id := it.ID
		if trimGIDSuffix {
			id, _, _ = strings.Cut(id, "@")
		}
		nl := it.CountryNL
		if nl == "" || nl == `\N` {
			nl = it.Locality
		}
		areas[it.AreaType] = append(areas[it.AreaType], GeoArea{
			ID:       id,
			Locality: map[string]string{"en": it.Locality, "nl": nl},
		})
	}
	return areas, nil
}

// OperatorContainsMinTermLength returns the shortest term CONTAINS accepts.
func (c *Client) OperatorContainsMinTermLength(ctx context.Context) (int, error) {
	return c.setting(ctx, "", settingContainsMinTermLength)
}

// OperatorContainsMaxTermLength returns the longest term CONTAINS accepts.
func (c *Client) OperatorContainsMaxTermLength(ctx context.Context) (int, error) {
	return c.setting(ctx, "", settingContainsMaxTermLength)
}

// IndexMaxResultWindow returns the maximum from+size of the single selected
// service.
func (c *Client) IndexMaxResultWindow(ctx context.Context) (int, error) {
	svc, err := c.requireSingle("getIndexMaxResultWindow")
	if err != nil {
		return 0, err
	}
	return c.setting(ctx, svc, settingMaxResultWindow)
}

// GroupByScientificNameMaxNumBuckets returns the bucket limit of the single
// selected service.
func (c *Client) GroupByScientificNameMaxNumBuckets(ctx context.Context) (int, error) {
	svc, err := c.requireSingle("getGroupByScientificNameMaxNumBuckets")
	if err != nil {
		return 0, err
	}
	return c.setting(ctx, svc, string(svc)+settingMaxNumBucketsSuffix)
}

// setting reads an integer from the global settings, or from the settings of
// svc when it is set.
func (c *Client) setting(ctx context.Context, svc Service, key string) (int, error) {
	path := "metadata/getSettings"
	if svc != "" {
		path = string(svc) + "/" + path
	}
	raw, err := c.native(ctx, "getSettings", svc, path)
	if err != nil {
		return 0, err
	}
	var settings map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&settings); err != nil {
		return 0, fmt.Errorf("getSettings: decode: %w", err)
	}
	v, ok := settings[key]
	if !ok {
		return 0, fmt.Errorf("setting %q: %w", key, domain.ErrNotFound)
	}
	var n int
	switch t := v.(type) {
	case json.Number:
		n, err = strconv.Atoi(t.String())
	case string:
		n, err = strconv.Atoi(t)
	default:
		err = fmt.Errorf("unexpected type %T", v)
	}
	if err != nil {
		return 0, fmt.Errorf("setting %q: %w", key, err)
	}
	return n, nil
}

// native calls a fixed NBA endpoint on a single channel. The selection and
// attached spec are left untouched.
func (c *Client) native(ctx context.Context, op string, svc Service, path string) (raw json.RawMessage, err error) {
	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	body, err := c.fetch(ctx, op, svc, path)
	if err != nil {
		return nil, err
	}
	return body, nil
}
