package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuery_CloneIsDeep(t *testing.T) {
	q := Query{
		Operation:   OpInsert,
		Table:       Table{Tertiary: "user_table"},
		Projections: []Projection{{Column: "id"}},
		Nodes:       []Node{Leaf(And, MustCondition("id", Eq, 1))},
		Rows:        [][]Mutation{{{Column: "name", Value: "John"}}},
		PrimaryKey:  []string{"id"},
	}

	c := q.Clone()
	c.Projections[0].Column = "changed"
	c.Rows[0][0].Value = "Jane"
	c.Nodes = append(c.Nodes, Close())
	c.PrimaryKey[0] = "other"

	assert.Equal(t, "id", q.Projections[0].Column)
	assert.Equal(t, "John", q.Rows[0][0].Value)
	assert.Len(t, q.Nodes, 1)
	assert.Equal(t, []string{"id"}, q.PrimaryKey)
}

func TestQuery_HasConditions(t *testing.T) {
	assert.False(t, Query{}.HasConditions())
	assert.False(t, Query{Nodes: []Node{Open(And), Close()}}.HasConditions())

	q := Query{Nodes: []Node{Open(And), Leaf(And, MustCondition("a", IsNull)), Close()}}
	assert.True(t, q.HasConditions())
	assert.Len(t, q.Leaves(), 1)
}

func TestQuery_DuplicateStrategy(t *testing.T) {
	assert.Equal(t, DuplicateInto, Query{}.DuplicateStrategy())
	assert.Equal(t, DuplicateUpdate, Query{Duplicate: DuplicateUpdate}.DuplicateStrategy())
	assert.True(t, Query{PrimaryKey: []string{"id"}}.IsPrimaryKey("id"))
	assert.False(t, Query{PrimaryKey: []string{"id"}}.IsPrimaryKey("name"))
}

func TestBuildError_Formatting(t *testing.T) {
	err := NewArityError("age", "BETWEEN requires exactly two values, got %d", 1)
	assert.Equal(t, "ARITY: BETWEEN requires exactly two values, got 1 (column=age)", err.Error())

	withDialect := err.WithDialect("mysql")
	assert.Equal(t, "ARITY: BETWEEN requires exactly two values, got 1 (dialect=mysql, column=age)", withDialect.Error())
	assert.Empty(t, err.Dialect, "WithDialect returns a copy")

	capErr := NewCapabilityError("sqlserver", "duplicate strategy %q is not supported", "ignore")
	assert.Equal(t, `CAPABILITY: duplicate strategy "ignore" is not supported (dialect=sqlserver)`, capErr.Error())

	assert.Equal(t, "EMPTY_WHERE: delete without conditions affects every row; allow it explicitly",
		NewEmptyWhereError(OpDelete).Error())
}

func TestBuildError_Helpers(t *testing.T) {
	wrapped := wrap(NewCapabilityError("oracle", "no multi-row insert"))
	assert.True(t, IsCapabilityError(wrapped))
	assert.False(t, IsArityError(wrapped))
	assert.Equal(t, ErrCodeCapability, ErrorCode(wrapped))

	assert.True(t, IsUnsupportedError(NewUnsupportedError("mongo", "groups")))
	assert.True(t, IsEmptyWhereError(NewEmptyWhereError(OpUpdate)))
	assert.Equal(t, BuildErrorCode(""), ErrorCode(assert.AnError))
}

type wrapper struct{ err error }

func (w wrapper) Error() string { return "build: " + w.err.Error() }
func (w wrapper) Unwrap() error { return w.err }

func wrap(err error) error { return wrapper{err: err} }
