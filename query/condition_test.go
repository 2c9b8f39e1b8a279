package query

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/bioportal/internal/domain"
)

func TestNewCondition_LarusExample(t *testing.T) {
	c, err := NewCondition("acceptedName.genusOrMonomial", "EQUALS_IC", "larus")
	require.NoError(t, err)
	require.NoError(t, c.AddOr("acceptedName.specificEpithet", Like, "fus"))

	want := `{"field":"acceptedName.genusOrMonomial","operator":"EQUALS_IC","value":"larus",` +
		`"or":[{"field":"acceptedName.specificEpithet","operator":"LIKE","value":"fus"}]}`
	assert.Equal(t, want, c.String())
}

func TestNewCondition_ExistenceCheck(t *testing.T) {
	for _, op := range []Operator{Equals, NotEquals} {
		t.Run(string(op), func(t *testing.T) {
			c, err := NewCondition("a", op)
			require.NoError(t, err)
			assert.Equal(t, `{"field":"a","operator":"`+string(op)+`"}`, c.String())

			_, ok := c.Value()
			assert.False(t, ok)
		})
	}
}

func TestNewCondition_ValueRequired(t *testing.T) {
	for _, op := range Operators() {
		if op.AllowsMissingValue() {
			continue
		}
		t.Run(string(op), func(t *testing.T) {
			_, err := NewCondition("a", op)
			assert.ErrorIs(t, err, domain.ErrValidation)

			_, err = NewCondition("a", op, "")
			assert.ErrorIs(t, err, domain.ErrValidation)

			_, err = NewCondition("a", op, []string{})
			assert.ErrorIs(t, err, domain.ErrValidation)

			_, err = NewCondition("a", op, nil)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestNewCondition_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		field string
		op    Operator
	}{
		{"empty field", "", Equals},
		{"blank field", "   ", Equals},
		{"empty operator", "a", ""},
		{"unknown operator", "a", "SOUNDS_LIKE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCondition(tt.field, tt.op, "x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
		})
	}
}

func TestNewCondition_OperatorCaseInsensitive(t *testing.T) {
	c, err := NewCondition("a", "not_equals_ic", "x")
	require.NoError(t, err)
	assert.Equal(t, NotEqualsIC, c.Operator())
}

func TestNewCondition_ZeroIsAValue(t *testing.T) {
	c, err := NewCondition("numberOfSpecimen", GT, 0)
	require.NoError(t, err)
	assert.Equal(t, `{"field":"numberOfSpecimen","operator":"GT","value":0}`, c.String())
}

func TestNewCondition_MultipleValuesBecomeList(t *testing.T) {
	c, err := NewCondition("gatheringEvent.dateTimeBegin", Between, "2000-01-01", "2010-01-01")
	require.NoError(t, err)
	assert.Equal(t,
		`{"field":"gatheringEvent.dateTimeBegin","operator":"BETWEEN","value":["2000-01-01","2010-01-01"]}`,
		c.String())
}

func TestNewCondition_NoHTMLEscaping(t *testing.T) {
	c := Must(NewCondition("a", Equals, "x&y<z>"))
	assert.Equal(t, `{"field":"a","operator":"EQUALS","value":"x&y<z>"}`, c.String())
}

func TestCondition_AddAndPreservesOrder(t *testing.T) {
	c := Must(NewCondition("a", Equals, "1"))
	require.NoError(t, c.AddAnd("b", Equals, "2"))
	require.NoError(t, c.AddAnd("c", Equals, "3"))

	and := c.AndConditions()
	require.Len(t, and, 2)
	assert.Equal(t, "b", and[0].Field())
	assert.Equal(t, "c", and[1].Field())
	assert.Empty(t, c.OrConditions())
}

func TestCondition_AddAndRejectsInvalidLeaf(t *testing.T) {
	c := Must(NewCondition("a", Equals, "1"))
	err := c.AddAnd("b", Like)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, c.AndConditions())
}

func TestCondition_SubtreeIsCopied(t *testing.T) {
	sub := Must(NewCondition("b", Equals, "2"))
	c := Must(NewCondition("a", Equals, "1"))
	require.NoError(t, c.And(sub))
	before := c.String()

	require.NoError(t, sub.SetField("changed"))
	sub.Negate()

	assert.Equal(t, before, c.String())
}

func TestCondition_NilSubtree(t *testing.T) {
	c := Must(NewCondition("a", Equals, "1"))
	assert.ErrorIs(t, c.And(nil), domain.ErrValidation)
	assert.ErrorIs(t, c.Or(nil), domain.ErrValidation)
}

func TestCondition_NestedTree(t *testing.T) {
	inner := Must(NewCondition("b", Equals, "2"))
	require.NoError(t, inner.AddOr("c", Equals, "3"))

	c := Must(NewCondition("a", Equals, "1"))
	require.NoError(t, c.And(inner))

	want := `{"field":"a","operator":"EQUALS","value":"1","and":[` +
		`{"field":"b","operator":"EQUALS","value":"2","or":[{"field":"c","operator":"EQUALS","value":"3"}]}]}`
	assert.Equal(t, want, c.String())
}

func TestCondition_NegateTwiceIsIdentity(t *testing.T) {
	c := Must(NewCondition("a", Equals, "1"))
	before := c.String()

	c.Negate()
	assert.True(t, c.IsNegated())
	assert.Equal(t, `{"field":"a","operator":"EQUALS","value":"1","not":"NOT"}`, c.String())

	c.Negate()
	assert.False(t, c.IsNegated())
	assert.Equal(t, before, c.String())
}

func TestCondition_Boost(t *testing.T) {
	c := Must(NewCondition("a", Equals, "1"))
	require.NoError(t, c.SetBoost(2.5))

	b, ok := c.Boost()
	assert.True(t, ok)
	assert.InDelta(t, 2.5, b, 1e-9)
	assert.Equal(t, `{"field":"a","operator":"EQUALS","value":"1","boost":2.5}`, c.String())

	c.ClearBoost()
	_, ok = c.Boost()
	assert.False(t, ok)
	assert.Equal(t, `{"field":"a","operator":"EQUALS","value":"1"}`, c.String())
}

func TestCondition_BoostMustBePositive(t *testing.T) {
	c := Must(NewCondition("a", Equals, "1"))
	for _, b := range []float64{0, -1} {
		assert.ErrorIs(t, c.SetBoost(b), domain.ErrValidation)
	}
	_, ok := c.Boost()
	assert.False(t, ok)
}

func TestCondition_ConstantScoreFalseRemovesKey(t *testing.T) {
	c := Must(NewCondition("a", Equals, "1"))
	c.SetConstantScore(true)
	assert.Equal(t, `{"field":"a","operator":"EQUALS","value":"1","constantScore":true}`, c.String())

	c.SetConstantScore(false)
	assert.Equal(t, `{"field":"a","operator":"EQUALS","value":"1"}`, c.String())
}

func TestCondition_OverrideTripletKeepsSubtreesAndModifiers(t *testing.T) {
	c := Must(NewCondition("a", Equals, "1"))
	require.NoError(t, c.AddAnd("b", Equals, "2"))
	require.NoError(t, c.AddOr("c", Equals, "3"))
	c.SetNegated(true).SetConstantScore(true)
	require.NoError(t, c.SetBoost(3))

	require.NoError(t, c.SetField("x"))
	require.NoError(t, c.SetOperator(Like))
	require.NoError(t, c.SetValue("y"))

	want := `{"field":"x","operator":"LIKE","value":"y","not":"NOT","boost":3,"constantScore":true,` +
		`"and":[{"field":"b","operator":"EQUALS","value":"2"}],` +
		`"or":[{"field":"c","operator":"EQUALS","value":"3"}]}`
	assert.Equal(t, want, c.String())
}

func TestCondition_SetOperatorRequiresValue(t *testing.T) {
	c := Must(NewCondition("a", Equals))
	err := c.SetOperator(Like)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, Equals, c.Operator())

	require.NoError(t, c.SetOperator(NotEquals))
	assert.Equal(t, NotEquals, c.Operator())
}

func TestCondition_ClearValue(t *testing.T) {
	c := Must(NewCondition("a", Equals, "1"))
	require.NoError(t, c.ClearValue())
	assert.Equal(t, `{"field":"a","operator":"EQUALS"}`, c.String())

	l := Must(NewCondition("a", Like, "x"))
	assert.ErrorIs(t, l.ClearValue(), domain.ErrValidation)
	v, ok := l.Value()
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestCondition_MarshalInsideStruct(t *testing.T) {
	c := Must(NewCondition("a", In, "x", "y"))
	b, err := json.Marshal(struct {
		C *Condition `json:"c"`
	}{C: c})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":{"field":"a","operator":"IN","value":["x","y"]}}`, string(b))
}

func TestMust_Panics(t *testing.T) {
	assert.Panics(t, func() { Must(NewCondition("", Equals)) })
}

func TestNewCondition_ListRejectsEmptyItems(t *testing.T) {
	tests := []struct {
		name  string
		value []any
	}{
		{"nil first", []any{nil, "x"}},
		{"nil last", []any{"x", nil}},
		{"empty string", []any{"x", ""}},
		{"empty slice", []any{"x", []string{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCondition("sex", In, tt.value...)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	c, err := NewCondition("sex", In, "male", 0)
	require.NoError(t, err)
	assert.JSONEq(t, `{"field":"sex","operator":"IN","value":["male",0]}`, c.String())
}
