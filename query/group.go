package query

import (
	"strings"

	"github.com/kailas-cloud/bioportal/internal/domain"
)

// GroupSpec is the query specification of the groupByScientificName
// aggregation. It carries every Spec criterion plus paging and sorting of the
// specimens inside each bucket.
//
// A GroupSpec is not a Spec: the client accepts it only for a single
// aggregation-capable service.
type GroupSpec struct {
	Spec

	specimensFrom       *int
	specimensSize       *int
	specimensSortFields []SortField
	noTaxa              bool
	groupSort           GroupSort
	groupFilter         []string
}

// NewGroupSpec returns an empty aggregation query specification.
func NewGroupSpec() *GroupSpec { return &GroupSpec{} }

// SetSpecimensFrom sets the offset within the specimens of each bucket.
func (g *GroupSpec) SetSpecimensFrom(from int) error {
	v, err := nonNegative("specimensFrom", from)
	if err != nil {
		return err
	}
	g.specimensFrom = &v
	return nil
}

// SetSpecimensFromString is SetSpecimensFrom for decimal string input.
func (g *GroupSpec) SetSpecimensFromString(from string) error {
	v, err := parseNonNegative("specimensFrom", from)
	if err != nil {
		return err
	}
	g.specimensFrom = &v
	return nil
}

// SetSpecimensSize sets the number of specimens returned per bucket.
// Zero returns buckets without specimens.
func (g *GroupSpec) SetSpecimensSize(size int) error {
	v, err := nonNegative("specimensSize", size)
	if err != nil {
		return err
	}
	g.specimensSize = &v
	return nil
}

// SetSpecimensSizeString is SetSpecimensSize for decimal string input.
func (g *GroupSpec) SetSpecimensSizeString(size string) error {
	v, err := parseNonNegative("specimensSize", size)
	if err != nil {
		return err
	}
	g.specimensSize = &v
	return nil
}

// SortSpecimensBy appends a sort entry for the specimens inside each bucket.
func (g *GroupSpec) SortSpecimensBy(path string, order ...SortOrder) error {
	sf, err := newSortField(path, order...)
	if err != nil {
		return err
	}
	g.specimensSortFields = append(g.specimensSortFields, sf)
	return nil
}

// SetSpecimensSortFields replaces the specimen sort list.
func (g *GroupSpec) SetSpecimensSortFields(fields []SortField) error {
	next := make([]SortField, 0, len(fields))
	for _, f := range fields {
		sf, err := newSortField(f.Path, f.SortOrder)
		if err != nil {
			return err
		}
		next = append(next, sf)
	}
	g.specimensSortFields = next
	return nil
}

// SetNoTaxa excludes taxa from the buckets; false removes the flag.
func (g *GroupSpec) SetNoTaxa(on bool) *GroupSpec {
	g.noTaxa = on
	return g
}

// SetGroupSort sets the bucket ordering. Input is case-insensitive.
func (g *GroupSpec) SetGroupSort(sort GroupSort) error {
	gs, err := ParseGroupSort(string(sort))
	if err != nil {
		return err
	}
	g.groupSort = gs
	return nil
}

// SetGroupFilter restricts the buckets to the given scientific names.
func (g *GroupSpec) SetGroupFilter(filter []string) error {
	if len(filter) == 0 {
		return domain.Validationf("group filter should be a non-empty list")
	}
	out := make([]string, len(filter))
	for i, f := range filter {
		if strings.TrimSpace(f) == "" {
			return domain.Validationf("groupFilter[%d] is empty", i)
		}
		out[i] = f
	}
	g.groupFilter = out
	return nil
}

// SpecimensFrom returns the specimen offset and whether it is set.
func (g *GroupSpec) SpecimensFrom() (int, bool) { return deref(g.specimensFrom) }

// SpecimensSize returns the specimen page size and whether it is set.
func (g *GroupSpec) SpecimensSize() (int, bool) { return deref(g.specimensSize) }

// SpecimensSortFields returns a copy of the specimen sort list.
func (g *GroupSpec) SpecimensSortFields() []SortField {
	return append([]SortField(nil), g.specimensSortFields...)
}

// NoTaxa reports whether taxa are excluded.
func (g *GroupSpec) NoTaxa() bool { return g.noTaxa }

// GroupSort returns the bucket ordering, empty if unset.
func (g *GroupSpec) GroupSort() GroupSort { return g.groupSort }

// GroupFilter returns a copy of the bucket filter.
func (g *GroupSpec) GroupFilter() []string { return append([]string(nil), g.groupFilter...) }

// UsesExtendedCriteria reports whether any aggregation-only criterion is set.
func (g *GroupSpec) UsesExtendedCriteria() bool {
	if g == nil {
		return false
	}
	return g.specimensFrom != nil || g.specimensSize != nil ||
		len(g.specimensSortFields) > 0 || g.noTaxa ||
		g.groupSort != "" || len(g.groupFilter) > 0
}

// IsEmpty reports whether nothing has been set. A nil spec is empty.
func (g *GroupSpec) IsEmpty() bool { return g == nil || len(g.document()) == 0 }

// Clone returns a deep copy.
func (g *GroupSpec) Clone() *GroupSpec {
	cp := &GroupSpec{
		Spec:                *g.Spec.Clone(),
		specimensSortFields: g.SpecimensSortFields(),
		noTaxa:              g.noTaxa,
		groupSort:           g.groupSort,
		groupFilter:         g.GroupFilter(),
	}
	if g.specimensFrom != nil {
		v := *g.specimensFrom
		cp.specimensFrom = &v
	}
	if g.specimensSize != nil {
		v := *g.specimensSize
		cp.specimensSize = &v
	}
	return cp
}

func (g *GroupSpec) document() map[string]any {
	doc := g.Spec.document()
	if g.specimensFrom != nil {
		doc["specimensFrom"] = *g.specimensFrom
	}
	if g.specimensSize != nil {
		doc["specimensSize"] = *g.specimensSize
	}
	if len(g.specimensSortFields) > 0 {
		doc["specimensSortFields"] = g.specimensSortFields
	}
	if g.noTaxa {
		doc["noTaxa"] = true
	}
	if g.groupSort != "" {
		doc["groupSort"] = g.groupSort
	}
	if len(g.groupFilter) > 0 {
		doc["groupFilter"] = g.groupFilter
	}
	return doc
}

// Serialize returns the canonical JSON form, see Spec.Serialize.
func (g *GroupSpec) Serialize(urlEncoded bool) (string, error) {
	return serializeDocument(g.document(), urlEncoded)
}

// MarshalJSON implements json.Marshaler.
func (g *GroupSpec) MarshalJSON() ([]byte, error) { return encodeJSON(g.document()) }
