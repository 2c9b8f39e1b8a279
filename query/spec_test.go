package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/bioportal/internal/domain"
)

func TestSpec_SerializeSortsKeys(t *testing.T) {
	a := Must(NewCondition("a", Equals, "1"))
	b := Must(NewCondition("b", Equals, "2"))

	s := NewSpec()
	require.NoError(t, s.SetFrom(5))
	require.NoError(t, s.SetSize(25))
	require.NoError(t, s.SetLogicalOperator("or"))
	require.NoError(t, s.AddCondition(a))
	require.NoError(t, s.AddCondition(b))

	got, err := s.Serialize(false)
	require.NoError(t, err)

	want := `{"conditions":[{"field":"a","operator":"EQUALS","value":"1"},` +
		`{"field":"b","operator":"EQUALS","value":"2"}],"from":5,"logicalOperator":"OR","size":25}`
	assert.Equal(t, want, got)
}

func TestSpec_SerializeIndependentOfCallOrder(t *testing.T) {
	s1 := NewSpec()
	require.NoError(t, s1.SetSize(25))
	require.NoError(t, s1.SetFrom(5))

	s2 := NewSpec()
	require.NoError(t, s2.SetFrom(5))
	require.NoError(t, s2.SetSize(25))

	j1, err := s1.Serialize(false)
	require.NoError(t, err)
	j2, err := s2.Serialize(false)
	require.NoError(t, err)
	assert.Equal(t, j1, j2)
	assert.Equal(t, `{"from":5,"size":25}`, j1)
}

func TestSpec_SerializeURLEncoded(t *testing.T) {
	s := NewSpec()
	require.NoError(t, s.AddCondition(Must(NewCondition("a", Equals, "x y"))))

	raw, err := s.Serialize(false)
	require.NoError(t, err)
	enc, err := s.Serialize(true)
	require.NoError(t, err)

	assert.NotContains(t, enc, `"`)
	dec, err := url.QueryUnescape(enc)
	require.NoError(t, err)
	assert.Equal(t, raw, dec)
}

func TestSpec_EmptySerializesToEmptyObject(t *testing.T) {
	s := NewSpec()
	assert.True(t, s.IsEmpty())
	got, err := s.Serialize(false)
	require.NoError(t, err)
	assert.Equal(t, `{}`, got)
}

func TestSpec_ConditionIsSnapshot(t *testing.T) {
	c := Must(NewCondition("a", Equals, "1"))
	s := NewSpec()
	require.NoError(t, s.AddCondition(c))
	require.NoError(t, c.SetValue("2"))

	got, err := s.Serialize(false)
	require.NoError(t, err)
	assert.Equal(t, `{"conditions":[{"field":"a","operator":"EQUALS","value":"1"}]}`, got)
}

func TestSpec_AddNilCondition(t *testing.T) {
	assert.ErrorIs(t, NewSpec().AddCondition(nil), domain.ErrValidation)
}

func TestSpec_SortByDefaultsToAsc(t *testing.T) {
	s := NewSpec()
	require.NoError(t, s.SortBy("unitID"))
	require.NoError(t, s.SortBy("gatheringEvent.dateTimeBegin", "desc"))

	got, err := s.Serialize(false)
	require.NoError(t, err)
	assert.Equal(t,
		`{"sortFields":[{"path":"unitID","sortOrder":"ASC"},{"path":"gatheringEvent.dateTimeBegin","sortOrder":"DESC"}]}`,
		got)
}

func TestSpec_SortByValidation(t *testing.T) {
	s := NewSpec()
	assert.ErrorIs(t, s.SortBy(""), domain.ErrValidation)
	assert.ErrorIs(t, s.SortBy("unitID", "sideways"), domain.ErrValidation)
	assert.Empty(t, s.SortFields())
}

func TestSpec_SetSortFieldsReplaces(t *testing.T) {
	s := NewSpec()
	require.NoError(t, s.SortBy("a"))
	require.NoError(t, s.SortBy("b"))

	require.NoError(t, s.SetSortFields([]SortField{{Path: "c", SortOrder: Desc}}))
	assert.Equal(t, []SortField{{Path: "c", SortOrder: Desc}}, s.SortFields())
}

func TestSpec_SetSortFieldsKeepsPreviousOnError(t *testing.T) {
	s := NewSpec()
	require.NoError(t, s.SortBy("a"))

	err := s.SetSortFields([]SortField{{Path: "b"}, {Path: ""}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, []SortField{{Path: "a", SortOrder: Asc}}, s.SortFields())
}

func TestSpec_PagingStrings(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"25", 25, false},
		{"007", 7, false},
		{"", 0, true},
		{"-1", 0, true},
		{"+5", 0, true},
		{"5.0", 0, true},
		{" 5", 0, true},
		{"five", 0, true},
		{"99999999999999999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s := NewSpec()
			err := s.SetFromString(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				_, ok := s.From()
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			v, ok := s.From()
			assert.True(t, ok)
			assert.Equal(t, tt.want, v)

			require.NoError(t, s.SetSizeString(tt.in))
			v, _ = s.Size()
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestSpec_NegativePaging(t *testing.T) {
	s := NewSpec()
	assert.ErrorIs(t, s.SetFrom(-1), domain.ErrValidation)
	assert.ErrorIs(t, s.SetSize(-1), domain.ErrValidation)
	assert.True(t, s.IsEmpty())
}

func TestSpec_LogicalOperator(t *testing.T) {
	s := NewSpec()
	require.NoError(t, s.SetLogicalOperator("and"))
	assert.Equal(t, And, s.LogicalOperator())
	assert.ErrorIs(t, s.SetLogicalOperator("xor"), domain.ErrValidation)
	assert.Equal(t, And, s.LogicalOperator())
}

func TestSpec_Fields(t *testing.T) {
	s := NewSpec()
	assert.ErrorIs(t, s.SetFields(nil), domain.ErrValidation)
	assert.ErrorIs(t, s.SetFields([]string{"a", ""}), domain.ErrValidation)

	require.NoError(t, s.SetFields([]string{"unitID", "sourceSystem.code"}))
	require.NoError(t, s.SetFields([]string{"id"}))
	got, err := s.Serialize(false)
	require.NoError(t, err)
	assert.Equal(t, `{"fields":["id"]}`, got)
}

func TestSpec_ConstantScore(t *testing.T) {
	s := NewSpec().SetConstantScore(true)
	got, err := s.Serialize(false)
	require.NoError(t, err)
	assert.Equal(t, `{"constantScore":true}`, got)

	s.SetConstantScore(false)
	assert.True(t, s.IsEmpty())
}

func TestSpec_UsesExtendedCriteria(t *testing.T) {
	s := NewSpec()
	require.NoError(t, s.SetSize(10))
	assert.False(t, s.UsesExtendedCriteria())
}

func TestSpec_Clone(t *testing.T) {
	s := NewSpec()
	require.NoError(t, s.AddCondition(Must(NewCondition("a", Equals, "1"))))
	require.NoError(t, s.SetFrom(1))

	cp := s.Clone()
	require.NoError(t, cp.SetFrom(2))
	require.NoError(t, cp.AddCondition(Must(NewCondition("b", Equals, "2"))))

	from, _ := s.From()
	assert.Equal(t, 1, from)
	assert.Len(t, s.Conditions(), 1)
	assert.Len(t, cp.Conditions(), 2)
}

func TestSpec_NilIsEmpty(t *testing.T) {
	var s *Spec
	assert.True(t, s.IsEmpty())
	assert.False(t, s.UsesExtendedCriteria())

	var g *GroupSpec
	assert.True(t, g.IsEmpty())
	assert.False(t, g.UsesExtendedCriteria())
}
