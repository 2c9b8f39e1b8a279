package query

import (
	"strings"

	"github.com/kailas-cloud/bioportal/internal/domain"
)

// Operator is a comparison operator accepted by the NBA.
type Operator string

// Comparison operators.
const (
	Equals          Operator = "EQUALS"
	NotEquals       Operator = "NOT_EQUALS"
	EqualsIC        Operator = "EQUALS_IC"
	NotEqualsIC     Operator = "NOT_EQUALS_IC"
	Contains        Operator = "CONTAINS"
	NotContains     Operator = "NOT_CONTAINS"
	StartsWith      Operator = "STARTS_WITH"
	NotStartsWith   Operator = "NOT_STARTS_WITH"
	StartsWithIC    Operator = "STARTS_WITH_IC"
	NotStartsWithIC Operator = "NOT_STARTS_WITH_IC"
	Like            Operator = "LIKE"
	NotLike         Operator = "NOT_LIKE"
	Matches         Operator = "MATCHES"
	NotMatches      Operator = "NOT_MATCHES"
	In              Operator = "IN"
	NotIn           Operator = "NOT_IN"
	Between         Operator = "BETWEEN"
	NotBetween      Operator = "NOT_BETWEEN"
	GT              Operator = "GT"
	GTE             Operator = "GTE"
	LT              Operator = "LT"
	LTE             Operator = "LTE"
)

var operators = map[Operator]struct{}{
	Equals: {}, NotEquals: {}, EqualsIC: {}, NotEqualsIC: {},
	Contains: {}, NotContains: {},
	StartsWith: {}, NotStartsWith: {}, StartsWithIC: {}, NotStartsWithIC: {},
	Like: {}, NotLike: {}, Matches: {}, NotMatches: {},
	In: {}, NotIn: {}, Between: {}, NotBetween: {},
	GT: {}, GTE: {}, LT: {}, LTE: {},
}

// Operators returns the allow-list in a stable order.
func Operators() []Operator {
	return []Operator{
		Equals, NotEquals, EqualsIC, NotEqualsIC,
		Contains, NotContains,
		StartsWith, NotStartsWith, StartsWithIC, NotStartsWithIC,
		Like, NotLike, Matches, NotMatches,
		In, NotIn, Between, NotBetween,
		GT, GTE, LT, LTE,
	}
}

// IsValid reports whether o is on the allow-list.
func (o Operator) IsValid() bool {
	_, ok := operators[o]
	return ok
}

// AllowsMissingValue reports whether o may be used without a value,
// expressing an existence (EQUALS) or non-existence (NOT_EQUALS) check.
func (o Operator) AllowsMissingValue() bool {
	return o == Equals || o == NotEquals
}

// ParseOperator normalizes s to upper case and checks it against the allow-list.
func ParseOperator(s string) (Operator, error) {
	if strings.TrimSpace(s) == "" {
		return "", domain.Validationf("condition operator is not set")
	}
	op := Operator(strings.ToUpper(strings.TrimSpace(s)))
	if !op.IsValid() {
		return "", domain.Validationf("unknown operator %q", s)
	}
	return op, nil
}

// LogicalOperator combines the top-level conditions of a Spec.
type LogicalOperator string

// Logical operators.
const (
	And LogicalOperator = "AND"
	Or  LogicalOperator = "OR"
)

// ParseLogicalOperator accepts "and"/"or" in any case.
func ParseLogicalOperator(s string) (LogicalOperator, error) {
	switch op := LogicalOperator(strings.ToUpper(strings.TrimSpace(s))); op {
	case And, Or:
		return op, nil
	default:
		return "", domain.Validationf("logical operator must be AND or OR, got %q", s)
	}
}

// SortOrder is the direction of a sort field.
type SortOrder string

// Sort orders.
const (
	Asc  SortOrder = "ASC"
	Desc SortOrder = "DESC"
)

// ParseSortOrder accepts "asc"/"desc" in any case; empty input means ascending.
func ParseSortOrder(s string) (SortOrder, error) {
	if strings.TrimSpace(s) == "" {
		return Asc, nil
	}
	switch o := SortOrder(strings.ToUpper(strings.TrimSpace(s))); o {
	case Asc, Desc:
		return o, nil
	default:
		return "", domain.Validationf("sort direction must be ASC or DESC, got %q", s)
	}
}

// GroupSort orders the buckets of a groupByScientificName aggregation.
type GroupSort string

// Group sort values.
const (
	GroupSortTopHitScore GroupSort = "TOP_HIT_SCORE"
	GroupSortCountDesc   GroupSort = "COUNT_DESC"
	GroupSortCountAsc    GroupSort = "COUNT_ASC"
	GroupSortNameAsc     GroupSort = "NAME_ASC"
	GroupSortNameDesc    GroupSort = "NAME_DESC"
)

// ParseGroupSort accepts any case.
func ParseGroupSort(s string) (GroupSort, error) {
	switch g := GroupSort(strings.ToUpper(strings.TrimSpace(s))); g {
	case GroupSortTopHitScore, GroupSortCountDesc, GroupSortCountAsc,
		GroupSortNameAsc, GroupSortNameDesc:
		return g, nil
	default:
		return "", domain.Validationf("unknown group sort %q", s)
	}
}
