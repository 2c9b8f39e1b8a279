package query

import (
	"math"
	"reflect"
	"strings"

	"github.com/kailas-cloud/bioportal/internal/domain"
)

// Condition is a single predicate on a document field, optionally extended
// into a tree by nested AND/OR conditions.
//
// A condition is a value builder: mutators change it in place. Subtrees passed
// to And/Or and conditions passed to Spec.AddCondition are copied, so later
// changes to the original never leak into an already built tree.
type Condition struct {
	field         string
	operator      Operator
	value         any
	hasValue      bool
	negated       bool
	boost         float64
	constantScore bool
	and           []*Condition
	or            []*Condition
}

// NewCondition validates and creates a condition.
//
// The value may be omitted only for EQUALS and NOT_EQUALS, which then express
// a non-empty / empty check on the field. A single value is sent as is;
// several values are sent as a list (IN, BETWEEN).
func NewCondition(field string, op Operator, value ...any) (*Condition, error) {
	c := &Condition{}
	if err := c.setTriplet(field, op, value); err != nil {
		return nil, err
	}
	return c, nil
}

// Must panics if err is non-nil. Intended for literal conditions in
// variable initialization and tests.
func Must(c *Condition, err error) *Condition {
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Condition) setTriplet(field string, op Operator, value []any) error {
	f, err := validateField(field)
	if err != nil {
		return err
	}
	o, err := ParseOperator(string(op))
	if err != nil {
		return err
	}
	v, ok, err := resolveValue(o, value)
	if err != nil {
		return err
	}
	c.field, c.operator, c.value, c.hasValue = f, o, v, ok
	return nil
}

// AddAnd appends a new leaf condition to the AND list.
func (c *Condition) AddAnd(field string, op Operator, value ...any) error {
	leaf, err := NewCondition(field, op, value...)
	if err != nil {
		return err
	}
	c.and = append(c.and, leaf)
	return nil
}

// AddOr appends a new leaf condition to the OR list.
func (c *Condition) AddOr(field string, op Operator, value ...any) error {
	leaf, err := NewCondition(field, op, value...)
	if err != nil {
		return err
	}
	c.or = append(c.or, leaf)
	return nil
}

// And appends a copy of an already built subtree to the AND list.
func (c *Condition) And(sub *Condition) error {
	if sub == nil {
		return domain.Validationf("nil condition passed to And")
	}
	c.and = append(c.and, sub.Clone())
	return nil
}

// Or appends a copy of an already built subtree to the OR list.
func (c *Condition) Or(sub *Condition) error {
	if sub == nil {
		return domain.Validationf("nil condition passed to Or")
	}
	c.or = append(c.or, sub.Clone())
	return nil
}

// SetField replaces the field of this node. Nested conditions are kept.
func (c *Condition) SetField(field string) error {
	f, err := validateField(field)
	if err != nil {
		return err
	}
	c.field = f
	return nil
}

// SetOperator replaces the operator of this node. Nested conditions are kept.
// Fails if the node has no value and the new operator requires one.
func (c *Condition) SetOperator(op Operator) error {
	o, err := ParseOperator(string(op))
	if err != nil {
		return err
	}
	if !c.hasValue && !o.AllowsMissingValue() {
		return domain.Validationf("operator %s requires a value", o)
	}
	c.operator = o
	return nil
}

// SetValue replaces the value of this node. Calling it without arguments
// removes the value, which is only legal for EQUALS and NOT_EQUALS.
func (c *Condition) SetValue(value ...any) error {
	v, ok, err := resolveValue(c.operator, value)
	if err != nil {
		return err
	}
	c.value, c.hasValue = v, ok
	return nil
}

// ClearValue removes the value. Same as SetValue without arguments.
func (c *Condition) ClearValue() error { return c.SetValue() }

// SetNegated sets the negation marker.
func (c *Condition) SetNegated(negated bool) *Condition {
	c.negated = negated
	return c
}

// Negate flips the negation marker.
func (c *Condition) Negate() *Condition {
	c.negated = !c.negated
	return c
}

// SetBoost sets the relevance boost. It must be a finite positive number.
func (c *Condition) SetBoost(boost float64) error {
	if boost <= 0 || math.IsInf(boost, 0) || math.IsNaN(boost) {
		return domain.Validationf("boost must be a positive number, got %v", boost)
	}
	c.boost = boost
	return nil
}

// ClearBoost removes the relevance boost.
func (c *Condition) ClearBoost() *Condition {
	c.boost = 0
	return c
}

// SetConstantScore toggles constant scoring; false removes the flag.
func (c *Condition) SetConstantScore(on bool) *Condition {
	c.constantScore = on
	return c
}

// Field returns the dotted field path.
func (c *Condition) Field() string { return c.field }

// Operator returns the comparison operator.
func (c *Condition) Operator() Operator { return c.operator }

// Value returns the value and whether one is set.
func (c *Condition) Value() (any, bool) { return c.value, c.hasValue }

// IsNegated reports whether the condition is negated.
func (c *Condition) IsNegated() bool { return c.negated }

// Boost returns the boost and whether one is set.
func (c *Condition) Boost() (float64, bool) { return c.boost, c.boost > 0 }

// ConstantScore reports whether constant scoring is on.
func (c *Condition) ConstantScore() bool { return c.constantScore }

// AndConditions returns copies of the nested AND conditions.
func (c *Condition) AndConditions() []*Condition { return cloneAll(c.and) }

// OrConditions returns copies of the nested OR conditions.
func (c *Condition) OrConditions() []*Condition { return cloneAll(c.or) }

// Clone returns a deep copy of the condition tree.
// Values are copied by reference; they are treated as read-only.
func (c *Condition) Clone() *Condition {
	if c == nil {
		return nil
	}
	cp := *c
	cp.and = cloneAll(c.and)
	cp.or = cloneAll(c.or)
	return &cp
}

func cloneAll(cs []*Condition) []*Condition {
	if len(cs) == 0 {
		return nil
	}
	out := make([]*Condition, len(cs))
	for i, sub := range cs {
		out[i] = sub.Clone()
	}
	return out
}

// conditionJSON fixes the wire key order of a condition.
type conditionJSON struct {
	Field         string       `json:"field"`
	Operator      Operator     `json:"operator"`
	Value         any          `json:"value,omitempty"`
	Not           string       `json:"not,omitempty"`
	Boost         float64      `json:"boost,omitempty"`
	ConstantScore bool         `json:"constantScore,omitempty"`
	And           []*Condition `json:"and,omitempty"`
	Or            []*Condition `json:"or,omitempty"`
}

// MarshalJSON encodes the condition in NBA wire format. Unset modifiers are
// omitted; the value key is present exactly when a value was given.
func (c *Condition) MarshalJSON() ([]byte, error) {
	w := conditionJSON{
		Field:         c.field,
		Operator:      c.operator,
		Boost:         c.boost,
		ConstantScore: c.constantScore,
		And:           c.and,
		Or:            c.or,
	}
	if c.hasValue {
		w.Value = c.value
	}
	if c.negated {
		w.Not = "NOT"
	}
	return encodeJSON(w)
}

// String returns the JSON encoding, or an empty string if encoding fails.
func (c *Condition) String() string {
	b, err := c.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}

func validateField(field string) (string, error) {
	f := strings.TrimSpace(field)
	if f == "" {
		return "", domain.Validationf("condition field is not set")
	}
	return f, nil
}

// resolveValue applies the value rules for op. It reports whether a value is present.
func resolveValue(op Operator, value []any) (any, bool, error) {
	var v any
	switch len(value) {
	case 0:
	case 1:
		v = value[0]
	default:
		list := make([]any, len(value))
		for i, item := range value {
			if item == nil || isEmptyValue(item) {
				return nil, false, domain.Validationf("condition value %d of %d is empty", i+1, len(value))
			}
			list[i] = item
		}
		v = list
	}
	if v == nil {
		if !op.AllowsMissingValue() {
			return nil, false, domain.Validationf(
				"operator %s requires a value; only EQUALS and NOT_EQUALS may omit it", op)
		}
		return nil, false, nil
	}
	if isEmptyValue(v) {
		return nil, false, domain.Validationf("condition value is empty")
	}
	return v, true, nil
}

func isEmptyValue(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
