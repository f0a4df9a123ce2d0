package querysearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
)

var (
	es6 = dialect.Elastic6
	es7 = dialect.Elastic7
)

func typed(index, typ string) queryir.Table {
	return queryir.Table{Secondary: typ, Tertiary: index}
}

func leaf(col string, op queryir.Operator, values ...any) queryir.Node {
	return queryir.Leaf(queryir.And, queryir.MustCondition(col, op, values...))
}

func TestSelect_TypedRange(t *testing.T) {
	q := queryir.Query{
		Operation: queryir.OpSelect,
		Table:     typed("my_index", "my_type"),
		Nodes:     []queryir.Node{leaf("age", queryir.Gt, 18)},
	}

	cmd, err := Select(es6, q)
	require.NoError(t, err)

	assert.Equal(t,
		`POST /my_index/my_type/_search {"query": { "bool": { "must": [{ "range": { "age": { "gt": ? } } }] } }}`,
		cmd.Text())
	assert.Contains(t, cmd.Text(), `"range": { "age": { "gt": ? } }`)
	assert.Equal(t, []any{18}, cmd.Args())
}

func TestSelect_TypelessIgnoresType(t *testing.T) {
	q := queryir.Query{
		Operation: queryir.OpSelect,
		Table:     typed("my_index", "my_type"),
		Nodes:     []queryir.Node{leaf("age", queryir.Gt, 18)},
	}

	cmd, err := Select(es7, q)
	require.NoError(t, err)
	assert.Equal(t,
		`POST /my_index/_search {"query": { "bool": { "must": [{ "range": { "age": { "gt": ? } } }] } }}`,
		cmd.Text())
}

func TestSelect_IndexFallsBackToPrimary(t *testing.T) {
	q := queryir.Query{
		Operation: queryir.OpSelect,
		Table:     queryir.Table{Primary: "logs"},
	}

	cmd, err := Select(es7, q)
	require.NoError(t, err)
	assert.Equal(t, `POST /logs/_search {"query": { "match_all": {} }}`, cmd.Text())
	assert.Equal(t, []any{}, cmd.Args())
}

func TestSelect_Clauses(t *testing.T) {
	testCases := []struct {
		name string
		node queryir.Node
		want string
		args []any
	}{
		{"eq", leaf("name", queryir.Eq, "x"), `{ "match": { "name": ? } }`, []any{"x"}},
		{"ne", leaf("name", queryir.Ne, "x"), `{ "bool": { "must_not": { "term": { "name": ? } } } }`, []any{"x"}},
		{"ge", leaf("age", queryir.Ge, 1), `{ "range": { "age": { "gte": ? } } }`, []any{1}},
		{"lt", leaf("age", queryir.Lt, 1), `{ "range": { "age": { "lt": ? } } }`, []any{1}},
		{"between", leaf("age", queryir.Between, 1, 9), `{ "range": { "age": { "gte": ?, "lte": ? } } }`, []any{1, 9}},
		{"not between", leaf("age", queryir.NotBetween, 1, 9), `{ "bool": { "must_not": { "range": { "age": { "gte": ?, "lte": ? } } } } }`, []any{1, 9}},
		{"in", leaf("id", queryir.In, 1, 2, 3), `{ "terms": { "id": [?, ?, ?] } }`, []any{1, 2, 3}},
		{"not in", leaf("id", queryir.NotIn, 1), `{ "bool": { "must_not": { "terms": { "id": [?] } } } }`, []any{1}},
		{"is null", leaf("deleted_at", queryir.IsNull), `{ "bool": { "must_not": { "exists": { "field": "deleted_at" } } } }`, []any{}},
		{"is not null", leaf("deleted_at", queryir.IsNotNull), `{ "exists": { "field": "deleted_at" } }`, []any{}},
		{"like", leaf("name", queryir.Like, "jo"), `{ "match": { "name": ? } }`, []any{"jo"}},
		{"not like", leaf("name", queryir.NotLike, "jo"), `{ "bool": { "must_not": { "match": { "name": ? } } } }`, []any{"jo"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := queryir.Query{
				Operation: queryir.OpSelect,
				Table:     typed("idx", ""),
				Nodes:     []queryir.Node{tc.node},
			}
			cmd, err := Select(es7, q)
			require.NoError(t, err)
			assert.Equal(t, `POST /idx/_search {"query": { "bool": { "must": [`+tc.want+`] } }}`, cmd.Text())
			assert.Equal(t, tc.args, cmd.Args())
		})
	}
}

func TestSelect_LikeModes(t *testing.T) {
	testCases := []struct {
		mode  queryir.LikeMode
		value string
		want  string
		arg   any
	}{
		{queryir.LikeDefault, "jo", `{ "match": { "name": ? } }`, "jo"},
		{queryir.LikeRight, "jo", `{ "prefix": { "name": ? } }`, "jo"},
		{queryir.LikeLeft, "son", `{ "wildcard": { "name": ? } }`, "*son"},
		{queryir.LikeLeft, "a*b?", `{ "wildcard": { "name": ? } }`, `*a\*b\?`},
	}

	for _, tc := range testCases {
		t.Run(string(tc.mode)+"/"+tc.value, func(t *testing.T) {
			c := queryir.MustCondition("name", queryir.Like, tc.value).WithLike(tc.mode)
			q := queryir.Query{
				Operation: queryir.OpSelect,
				Table:     typed("idx", ""),
				Nodes:     []queryir.Node{queryir.Leaf(queryir.And, c)},
			}
			cmd, err := Select(es7, q)
			require.NoError(t, err)
			assert.Contains(t, cmd.Text(), tc.want)
			assert.Equal(t, []any{tc.arg}, cmd.Args())
		})
	}
}

func TestSelect_OrGroupWithNegation(t *testing.T) {
	q := queryir.Query{
		Operation: queryir.OpSelect,
		Table:     typed("idx", ""),
		Nodes: []queryir.Node{
			leaf("a", queryir.Eq, 1),
			queryir.Open(queryir.Or),
			leaf("b", queryir.Eq, 2),
			queryir.Leaf(queryir.AndNot, queryir.MustCondition("c", queryir.Eq, 3)),
			queryir.Close(),
		},
	}

	cmd, err := Select(es7, q)
	require.NoError(t, err)

	want := `POST /idx/_search {"query": { "bool": { "should": [` +
		`{ "match": { "a": ? } }, ` +
		`{ "bool": { "must": [{ "match": { "b": ? } }], "must_not": [{ "match": { "c": ? } }] } }` +
		`], "minimum_should_match": 1 } }}`
	assert.Equal(t, want, cmd.Text())
	assert.Equal(t, []any{1, 2, 3}, cmd.Args())
}

func TestSelect_ArgsFollowInsertionOrder(t *testing.T) {
	q := queryir.Query{
		Operation: queryir.OpSelect,
		Table:     typed("idx", ""),
		Nodes: []queryir.Node{
			queryir.Leaf(queryir.AndNot, queryir.MustCondition("a", queryir.Eq, 1)),
			leaf("b", queryir.Eq, 2),
			queryir.Leaf(queryir.Or, queryir.MustCondition("c", queryir.Eq, 3)),
		},
	}

	cmd, err := Select(es7, q)
	require.NoError(t, err)

	want := `POST /idx/_search {"query": { "bool": { "should": [` +
		`{ "bool": { "must": [{ "bool": { "must_not": { "match": { "a": ? } } } }, { "match": { "b": ? } }] } }, ` +
		`{ "match": { "c": ? } }` +
		`], "minimum_should_match": 1 } }}`
	assert.Equal(t, want, cmd.Text())
	assert.Equal(t, []any{1, 2, 3}, cmd.Args())
}

func TestSelect_TrailingNegationsShareMustNot(t *testing.T) {
	q := queryir.Query{
		Operation: queryir.OpSelect,
		Table:     typed("idx", ""),
		Nodes: []queryir.Node{
			leaf("a", queryir.Eq, 1),
			queryir.Leaf(queryir.AndNot, queryir.MustCondition("b", queryir.Eq, 2)),
			queryir.Leaf(queryir.AndNot, queryir.MustCondition("c", queryir.Eq, 3)),
		},
	}

	cmd, err := Select(es7, q)
	require.NoError(t, err)

	assert.Equal(t,
		`POST /idx/_search {"query": { "bool": { "must": [{ "match": { "a": ? } }], "must_not": [{ "match": { "b": ? } }, { "match": { "c": ? } }] } }}`,
		cmd.Text())
	assert.Equal(t, []any{1, 2, 3}, cmd.Args())
}

func TestSelect_SourceAndSort(t *testing.T) {
	q := queryir.Query{
		Operation:   queryir.OpSelect,
		Table:       typed("idx", ""),
		Projections: []queryir.Projection{{Column: "name"}, {Column: "age"}},
		Orders: []queryir.Order{
			{Column: "age", Dir: queryir.Desc, Nulls: queryir.NullsLast},
			{Column: "name", Dir: queryir.Asc},
		},
	}

	cmd, err := Select(es7, q)
	require.NoError(t, err)

	assert.Equal(t,
		`POST /idx/_search {"query": { "match_all": {} }, "_source": ["name", "age"], `+
			`"sort": [{ "age": { "order": "desc", "missing": "_last" } }, { "name": { "order": "asc" } }]}`,
		cmd.Text())
}

func TestSelect_Errors(t *testing.T) {
	base := queryir.Query{Operation: queryir.OpSelect, Table: typed("idx", "")}

	q := base
	q.Groups = []queryir.GroupBy{{Column: "a"}}
	_, err := Select(es7, q)
	assert.True(t, queryir.IsUnsupportedError(err))

	q = base
	q.Projections = []queryir.Projection{{Column: "n", Expr: "count(*)"}}
	_, err = Select(es7, q)
	assert.True(t, queryir.IsUnsupportedError(err))

	q = base
	q.Table = queryir.Table{}
	_, err = Select(es7, q)
	assert.True(t, queryir.IsUnsupportedError(err))

	q = base
	q.Nodes = []queryir.Node{queryir.Open(queryir.And), leaf("a", queryir.Eq, 1)}
	_, err = Select(es7, q)
	assert.True(t, queryir.IsUnsupportedError(err))
	assert.Contains(t, err.Error(), "dialect=elastic7")
}
