package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/bioportal/internal/domain"
)

// Specifier is a serializable query specification accepted by the client.
// It is implemented by *Spec and *GroupSpec.
type Specifier interface {
	// Serialize returns the canonical JSON form, optionally URL-encoded.
	Serialize(urlEncoded bool) (string, error)
	// IsEmpty reports whether nothing has been set.
	IsEmpty() bool
	// UsesExtendedCriteria reports whether aggregation-only criteria are set.
	UsesExtendedCriteria() bool
}

// SortField is one entry of a sort list.
type SortField struct {
	Path      string    `json:"path"`
	SortOrder SortOrder `json:"sortOrder"`
}

// Spec is the full query specification: conditions, combinator, paging,
// sorting, field projection and scoring.
type Spec struct {
	conditions      []*Condition
	logicalOperator LogicalOperator
	from            *int
	size            *int
	sortFields      []SortField
	fields          []string
	constantScore   bool
}

// NewSpec returns an empty query specification.
func NewSpec() *Spec { return &Spec{} }

// AddCondition appends a copy of c to the top-level condition list.
// Order is preserved on the wire.
func (s *Spec) AddCondition(c *Condition) error {
	if c == nil {
		return domain.Validationf("nil condition")
	}
	s.conditions = append(s.conditions, c.Clone())
	return nil
}

// SortBy appends a sort entry. The order defaults to ascending.
func (s *Spec) SortBy(path string, order ...SortOrder) error {
	sf, err := newSortField(path, order...)
	if err != nil {
		return err
	}
	s.sortFields = append(s.sortFields, sf)
	return nil
}

// SetSortFields replaces the sort list. On error the previous list is kept.
func (s *Spec) SetSortFields(fields []SortField) error {
	next := &Spec{}
	for _, f := range fields {
		if err := next.SortBy(f.Path, f.SortOrder); err != nil {
			return err
		}
	}
	s.sortFields = next.sortFields
	return nil
}

// SetFrom sets the result offset.
func (s *Spec) SetFrom(from int) error {
	v, err := nonNegative("from", from)
	if err != nil {
		return err
	}
	s.from = &v
	return nil
}

// SetFromString sets the result offset from a decimal string such as "25".
func (s *Spec) SetFromString(from string) error {
	v, err := parseNonNegative("from", from)
	if err != nil {
		return err
	}
	s.from = &v
	return nil
}

// SetSize sets the page size.
func (s *Spec) SetSize(size int) error {
	v, err := nonNegative("size", size)
	if err != nil {
		return err
	}
	s.size = &v
	return nil
}

// SetSizeString sets the page size from a decimal string.
func (s *Spec) SetSizeString(size string) error {
	v, err := parseNonNegative("size", size)
	if err != nil {
		return err
	}
	s.size = &v
	return nil
}

// SetLogicalOperator sets the combinator for the top-level conditions.
// Input is case-insensitive.
func (s *Spec) SetLogicalOperator(op LogicalOperator) error {
	o, err := ParseLogicalOperator(string(op))
	if err != nil {
		return err
	}
	s.logicalOperator = o
	return nil
}

// SetFields replaces the result projection.
func (s *Spec) SetFields(fields []string) error {
	if len(fields) == 0 {
		return domain.Validationf("fields should be a non-empty list")
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f) == "" {
			return domain.Validationf("fields[%d] is empty", i)
		}
		out[i] = strings.TrimSpace(f)
	}
	s.fields = out
	return nil
}

// SetConstantScore toggles constant scoring for the whole query.
func (s *Spec) SetConstantScore(on bool) *Spec {
	s.constantScore = on
	return s
}

// Conditions returns copies of the top-level conditions.
func (s *Spec) Conditions() []*Condition { return cloneAll(s.conditions) }

// LogicalOperator returns the combinator, empty if unset.
func (s *Spec) LogicalOperator() LogicalOperator { return s.logicalOperator }

// From returns the offset and whether it is set.
func (s *Spec) From() (int, bool) { return deref(s.from) }

// Size returns the page size and whether it is set.
func (s *Spec) Size() (int, bool) { return deref(s.size) }

// SortFields returns a copy of the sort list.
func (s *Spec) SortFields() []SortField { return append([]SortField(nil), s.sortFields...) }

// Fields returns a copy of the projection list.
func (s *Spec) Fields() []string { return append([]string(nil), s.fields...) }

// ConstantScore reports whether constant scoring is on.
func (s *Spec) ConstantScore() bool { return s.constantScore }

// IsEmpty reports whether nothing has been set.
func (s *Spec) IsEmpty() bool { return s == nil || len(s.document()) == 0 }

// UsesExtendedCriteria is always false for a plain Spec.
func (s *Spec) UsesExtendedCriteria() bool { return false }

// Clone returns a deep copy.
func (s *Spec) Clone() *Spec {
	cp := &Spec{
		conditions:      cloneAll(s.conditions),
		logicalOperator: s.logicalOperator,
		sortFields:      s.SortFields(),
		fields:          s.Fields(),
		constantScore:   s.constantScore,
	}
	if s.from != nil {
		v := *s.from
		cp.from = &v
	}
	if s.size != nil {
		v := *s.size
		cp.size = &v
	}
	return cp
}

// document collects the keys that are set. Unset keys are absent, never null.
func (s *Spec) document() map[string]any {
	doc := make(map[string]any)
	if len(s.conditions) > 0 {
		doc["conditions"] = s.conditions
	}
	if s.logicalOperator != "" {
		doc["logicalOperator"] = s.logicalOperator
	}
	if s.from != nil {
		doc["from"] = *s.from
	}
	if s.size != nil {
		doc["size"] = *s.size
	}
	if len(s.sortFields) > 0 {
		doc["sortFields"] = s.sortFields
	}
	if len(s.fields) > 0 {
		doc["fields"] = s.fields
	}
	if s.constantScore {
		doc["constantScore"] = true
	}
	return doc
}

// Serialize returns the compact JSON form with top-level keys in
// lexicographic order, independent of the order of setter calls.
// With urlEncoded the result is ready for use as a query parameter value.
func (s *Spec) Serialize(urlEncoded bool) (string, error) {
	return serializeDocument(s.document(), urlEncoded)
}

// MarshalJSON implements json.Marshaler.
func (s *Spec) MarshalJSON() ([]byte, error) { return encodeJSON(s.document()) }

// serializeDocument relies on encoding/json writing map keys in sorted order.
func serializeDocument(doc map[string]any, urlEncoded bool) (string, error) {
	b, err := encodeJSON(doc)
	if err != nil {
		return "", err
	}
	if urlEncoded {
		return url.QueryEscape(string(b)), nil
	}
	return string(b), nil
}

func newSortField(path string, order ...SortOrder) (SortField, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return SortField{}, domain.Validationf("sort path is not set")
	}
	var raw string
	if len(order) > 0 {
		raw = string(order[0])
	}
	o, err := ParseSortOrder(raw)
	if err != nil {
		return SortField{}, err
	}
	return SortField{Path: p, SortOrder: o}, nil
}

func nonNegative(name string, v int) (int, error) {
	if v < 0 {
		return 0, domain.Validationf("%s must be a non-negative integer, got %d", name, v)
	}
	return v, nil
}

// parseNonNegative accepts only plain decimal digits, so "+5", "5.0" and " 5" are rejected.
func parseNonNegative(name, s string) (int, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, domain.Validationf("%s parameter %q is not a non-negative integer", name, s)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.Validationf("%s parameter %q is out of range", name, s)
	}
	return v, nil
}

func deref(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
