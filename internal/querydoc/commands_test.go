package querydoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/queryir"
)

func TestInsert(t *testing.T) {
	q := queryir.Query{
		Operation: queryir.OpInsert,
		Table:     collection("user_collection"),
		Rows: [][]queryir.Mutation{
			{{Column: "name", Value: "John"}, {Column: "age", Value: 25}},
			{{Column: "name", Value: "Jane"}, {Column: "age", Value: nil}},
		},
	}

	cmd, err := Insert(mongo, q)
	require.NoError(t, err)

	assert.Equal(t, "db.user_collection.insertMany([{name: ?, age: ?}, {name: ?, age: null}])", cmd.Text())
	assert.Equal(t, []any{"John", 25, "Jane"}, cmd.Args())
}

func TestInsert_Errors(t *testing.T) {
	_, err := Insert(mongo, queryir.Query{Operation: queryir.OpInsert, Table: collection("c")})
	assert.True(t, queryir.IsArityError(err))

	_, err = Insert(mongo, queryir.Query{
		Operation: queryir.OpInsert,
		Table:     collection("c"),
		Rows:      [][]queryir.Mutation{{{Column: "a", Value: 1}}},
		Duplicate: queryir.DuplicateUpdate,
	})
	assert.True(t, queryir.IsCapabilityError(err))
}

func TestUpdate(t *testing.T) {
	q := queryir.Query{
		Operation: queryir.OpUpdate,
		Table:     collection("user_collection"),
		Sets:      []queryir.Mutation{{Column: "name", Value: "Doe"}},
		Nodes:     []queryir.Node{leaf("id", queryir.Eq, 1)},
	}

	cmd, err := Update(mongo, q)
	require.NoError(t, err)

	assert.Equal(t, "db.user_collection.updateMany({id: ?}, { $set: {name: ?} })", cmd.Text())
	assert.Equal(t, []any{1, "Doe"}, cmd.Args())

	q.Nodes = nil
	_, err = Update(mongo, q)
	assert.True(t, queryir.IsEmptyWhereError(err))
}

func TestDelete(t *testing.T) {
	q := queryir.Query{
		Operation: queryir.OpDelete,
		Table:     collection("user_collection"),
		Nodes:     []queryir.Node{leaf("age", queryir.Lt, 18)},
	}

	cmd, err := Delete(mongo, q)
	require.NoError(t, err)
	assert.Equal(t, "db.user_collection.deleteMany({age: { $lt: ? }})", cmd.Text())
	assert.Equal(t, []any{18}, cmd.Args())

	cmd, err = Build(mongo, queryir.Query{Operation: queryir.OpDelete, Table: collection("c"), AllowEmptyWhere: true})
	require.NoError(t, err)
	assert.Equal(t, "db.c.deleteMany({})", cmd.Text())
}

func TestPageAndCount(t *testing.T) {
	sel, err := Select(mongo, queryir.Query{
		Operation: queryir.OpSelect,
		Table:     collection("c"),
		Nodes:     []queryir.Node{leaf("age", queryir.Gt, 18)},
		Orders:    []queryir.Order{{Column: "age"}},
	})
	require.NoError(t, err)

	first, err := Page(mongo, sel, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "db.c.find({age: { $gt: ? }}).sort({age: 1}).limit(10)", first.Text())
	assert.Equal(t, []any{18}, first.Args())

	later, err := Page(mongo, sel, 20, 10)
	require.NoError(t, err)
	assert.Equal(t, "db.c.find({age: { $gt: ? }}).sort({age: 1}).skip(20).limit(10)", later.Text())

	count, err := Count(mongo, sel)
	require.NoError(t, err)
	assert.Equal(t, "db.c.countDocuments({age: { $gt: ? }})", count.Text())
	assert.Equal(t, []any{18}, count.Args())

	_, err = Page(mongo, command.New(queryir.OpDelete, "db.c.deleteMany({})", nil), 0, 1)
	assert.True(t, queryir.IsUnsupportedError(err))
}
