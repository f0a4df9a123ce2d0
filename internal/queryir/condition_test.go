package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCondition_Arity(t *testing.T) {
	testCases := []struct {
		name    string
		op      Operator
		values  []any
		wantErr bool
	}{
		{"is null without value", IsNull, nil, false},
		{"is null with value", IsNull, []any{1}, true},
		{"is not null without value", IsNotNull, nil, false},
		{"eq with one value", Eq, []any{1}, false},
		{"eq without value", Eq, nil, true},
		{"eq with two values", Eq, []any{1, 2}, true},
		{"like with one value", Like, []any{"abc"}, false},
		{"in with one value", In, []any{1}, false},
		{"in with three values", In, []any{1, 2, 3}, false},
		{"empty in", In, nil, true},
		{"empty not in", NotIn, []any{}, true},
		{"between with two bounds", Between, []any{1, 9}, false},
		{"between with one bound", Between, []any{1}, true},
		{"between with three bounds", Between, []any{1, 2, 3}, true},
		{"not between with two bounds", NotBetween, []any{1, 9}, false},
		{"unknown operator", Operator("ALMOST"), []any{1}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewCondition("age", tc.op, tc.values...)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, IsArityError(err), "expected arity error, got %v", err)
				assert.True(t, c.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.op, c.Op())
			assert.Equal(t, len(tc.values), c.Len())
		})
	}
}

func TestNewCondition_RequiresColumn(t *testing.T) {
	_, err := NewCondition("", Eq, 1)
	require.Error(t, err)
	assert.True(t, IsArityError(err))
}

func TestCondition_ValuesAreCopied(t *testing.T) {
	in := []any{1, 2, 3}
	c, err := NewCondition("id", In, in...)
	require.NoError(t, err)

	in[0] = 99
	assert.Equal(t, []any{1, 2, 3}, c.Values())

	out := c.Values()
	out[1] = 99
	assert.Equal(t, 2, c.Value(1))
	assert.Nil(t, c.Value(7))
}

func TestCondition_Modifiers(t *testing.T) {
	base := MustCondition("name", Like, "abc")
	assert.Equal(t, LikeDefault, base.Like())

	mod := base.WithLike(LikeRight).WithColumnExpr("lower(name)").WithValueExpr("lower(?)")
	assert.Equal(t, LikeRight, mod.Like())
	assert.Equal(t, "lower(name)", mod.ColumnExpr())
	assert.Equal(t, "lower(?)", mod.ValueExpr())

	// The original is unchanged.
	assert.Empty(t, base.ColumnExpr())
	assert.Empty(t, base.ValueExpr())
	assert.Equal(t, LikeDefault, base.Like())

	assert.Equal(t, LikeDefault, base.WithLike("").Like())
}

func TestMustCondition_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustCondition("age", Between, 1)
	})
}

func TestParseOperator(t *testing.T) {
	testCases := []struct {
		in   string
		want Operator
		ok   bool
	}{
		{"eq", Eq, true},
		{"=", Eq, true},
		{"<>", Ne, true},
		{">=", Ge, true},
		{"not in", NotIn, true},
		{"is_not_null", IsNotNull, true},
		{"Between", Between, true},
		{"~", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			op, ok := ParseOperator(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, op)
			}
		})
	}
}

func TestParseConnective(t *testing.T) {
	c, ok := ParseConnective("")
	assert.True(t, ok)
	assert.Equal(t, And, c)

	c, ok = ParseConnective("and not")
	assert.True(t, ok)
	assert.Equal(t, AndNot, c)
	assert.True(t, c.Negated())
	assert.Equal(t, And, c.Base())

	c, ok = ParseConnective("or_not")
	assert.True(t, ok)
	assert.Equal(t, Or, c.Base())

	_, ok = ParseConnective("xor")
	assert.False(t, ok)
}

func TestOperator_ArityTags(t *testing.T) {
	for _, op := range Operators {
		assert.True(t, op.Valid(), "operator %s", op)
	}
	assert.Equal(t, ArityUnary, IsNull.Arity())
	assert.Equal(t, ArityBinary, Like.Arity())
	assert.Equal(t, ArityList, NotIn.Arity())
	assert.Equal(t, ArityRange, Between.Arity())
	assert.Equal(t, "range", ArityRange.String())
}
