package builder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
)

func TestScenarios(t *testing.T) {
	t.Run("relational select", func(t *testing.T) {
		b := New(dialect.Postgres).SetTable("", "", "user_table")
		require.NoError(t, b.AddCondition(queryir.And, "age", queryir.Gt, 18))

		cmd, err := b.BuildSelect()
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM user_table WHERE age > ?", cmd.Text())
		assert.Equal(t, []any{18}, cmd.Args())
	})

	t.Run("document select", func(t *testing.T) {
		b := New(dialect.Mongo).SetTable("", "", "user_collection")
		require.NoError(t, b.AddCondition(queryir.And, "age", queryir.Gt, 18))

		cmd, err := b.BuildSelect()
		require.NoError(t, err)
		assert.Equal(t, "db.user_collection.find({age: { $gt: ? }})", cmd.Text())
		assert.Equal(t, []any{18}, cmd.Args())
	})

	t.Run("typed search select", func(t *testing.T) {
		b := New(dialect.Elastic6).SetTable("", "my_type", "my_index")
		require.NoError(t, b.AddCondition(queryir.And, "age", queryir.Gt, 18))

		cmd, err := b.BuildSelect()
		require.NoError(t, err)
		assert.Regexp(t, `^POST /my_index/my_type/_search`, cmd.Text())
		assert.Contains(t, cmd.Text(), `"range": { "age": { "gt": ? } }`)
		assert.Equal(t, []any{18}, cmd.Args())
	})

	t.Run("relational insert", func(t *testing.T) {
		b := New(dialect.MySQL).SetTable("", "", "user_table").
			AddInsert("name", "John").
			AddInsert("age", 25)

		cmd, err := b.BuildInsert()
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO user_table (name, age) VALUES (?, ?)", cmd.Text())
		assert.Equal(t, []any{"John", 25}, cmd.Args())
	})

	t.Run("relational update", func(t *testing.T) {
		b := New(dialect.Postgres).SetTable("", "", "user_table").AddUpdateSet("name", "Doe")
		require.NoError(t, b.AddCondition(queryir.And, "id", queryir.Eq, 1))

		cmd, err := b.BuildUpdate()
		require.NoError(t, err)
		assert.Equal(t, "UPDATE user_table SET name = ? WHERE id = ?", cmd.Text())
		assert.Equal(t, []any{"Doe", 1}, cmd.Args())
	})

	t.Run("mixed connectives", func(t *testing.T) {
		b := New(dialect.Postgres).SetTable("", "", "t")
		require.NoError(t, b.AddCondition(queryir.And, "a", queryir.Eq, 1))
		require.NoError(t, b.AddCondition(queryir.Or, "b", queryir.Eq, 2))
		require.NoError(t, b.AddCondition(queryir.AndNot, "c", queryir.Eq, 3))

		cmd, err := b.BuildSelect()
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM t WHERE a = ? OR b = ? AND NOT c = ?", cmd.Text())
		assert.Equal(t, []any{1, 2, 3}, cmd.Args())
	})
}

func TestArityErrorLeavesBuilderUnchanged(t *testing.T) {
	b := New(dialect.Postgres).SetTable("", "", "t")
	require.NoError(t, b.AddCondition(queryir.And, "a", queryir.Eq, 1))
	before := b.Query()

	err := b.AddConditionForIn(queryir.And, "id", false)
	assert.True(t, queryir.IsArityError(err))

	err = b.AddCondition(queryir.And, "age", queryir.Between, 1)
	assert.True(t, queryir.IsArityError(err))

	err = b.AddCondition(queryir.And, "x", queryir.IsNull, 1)
	assert.True(t, queryir.IsArityError(err))

	err = b.Where(queryir.And, queryir.Condition{})
	assert.True(t, queryir.IsArityError(err))

	assert.Equal(t, before, b.Query())
}

func TestInAndBetween(t *testing.T) {
	b := New(dialect.SQLite).SetTable("", "", "t")
	require.NoError(t, b.AddConditionForIn(queryir.And, "id", false, 1, 2, 3))
	require.NoError(t, b.AddConditionForBetween(queryir.And, "age", true, 18, 65))
	require.NoError(t, b.AddCondition(queryir.Or, "deleted_at", queryir.IsNull))

	cmd, err := b.BuildSelect()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE id IN (?, ?, ?) AND age NOT BETWEEN ? AND ? OR deleted_at IS NULL", cmd.Text())
	assert.Equal(t, []any{1, 2, 3, 18, 65}, cmd.Args())
}

func TestNested(t *testing.T) {
	b := New(dialect.Postgres).SetTable("", "", "t")
	require.NoError(t, b.AddCondition(queryir.And, "a", queryir.Eq, 1))
	require.NoError(t, b.Nested(queryir.Or, func(g *Builder) error {
		if err := g.AddCondition(queryir.And, "b", queryir.Eq, 2); err != nil {
			return err
		}
		return g.AddCondition(queryir.AndNot, "c", queryir.Eq, 3)
	}))

	cmd, err := b.BuildSelect()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = ? OR (b = ? AND NOT c = ?)", cmd.Text())
	assert.Equal(t, []any{1, 2, 3}, cmd.Args())
}

func TestNested_RollbackAndEmpty(t *testing.T) {
	b := New(dialect.Postgres).SetTable("", "", "t")
	require.NoError(t, b.AddCondition(queryir.And, "a", queryir.Eq, 1))
	before := b.Query()

	boom := errors.New("boom")
	err := b.Nested(queryir.And, func(g *Builder) error {
		require.NoError(t, g.AddCondition(queryir.And, "b", queryir.Eq, 2))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, b.Query())

	require.NoError(t, b.Nested(queryir.Or, func(*Builder) error { return nil }))
	assert.Equal(t, before, b.Query())

	err = b.Nested(queryir.Connective("XOR"), func(*Builder) error { return nil })
	assert.True(t, queryir.IsUnsupportedError(err))
}

func TestRebuildIsIdempotent(t *testing.T) {
	b := New(dialect.Postgres).SetTable("", "", "users").AddSelect("id", "name")
	require.NoError(t, b.AddCondition(queryir.And, "age", queryir.Ge, 21))
	b.AddOrderBy("name", queryir.Asc, queryir.NullsDefault)

	first, err := b.BuildSelect()
	require.NoError(t, err)
	second, err := b.BuildSelect()
	require.NoError(t, err)

	assert.Equal(t, first.Text(), second.Text())
	assert.Equal(t, first.Args(), second.Args())

	require.NoError(t, b.AddCondition(queryir.And, "active", queryir.Eq, true))
	third, err := b.BuildSelect()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM users WHERE age >= ? ORDER BY name ASC", first.Text())
	assert.Equal(t, "SELECT id, name FROM users WHERE age >= ? AND active = ? ORDER BY name ASC", third.Text())
}

func TestMultiRowInsert(t *testing.T) {
	b := New(dialect.Postgres).SetTable("", "", "users").
		AddInsert("id", 1).AddInsert("name", "a").
		NewRow().
		AddInsert("id", 2).AddInsert("name", nil).
		NewRow()

	cmd, err := b.BuildInsert()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (id, name) VALUES (?, ?), (?, ?)", cmd.Text())
	assert.Equal(t, []any{1, "a", 2, nil}, cmd.Args())

	_, err = New(dialect.Oracle).SetTable("", "", "users").
		AddInsert("id", 1).NewRow().AddInsert("id", 2).
		BuildInsert()
	assert.True(t, queryir.IsCapabilityError(err))
}

func TestBuildPageAndCount(t *testing.T) {
	b := New(dialect.MySQL).SetTable("", "", "users")
	require.NoError(t, b.AddCondition(queryir.And, "age", queryir.Gt, 18))

	page, err := b.BuildPage(20, 10)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE age > ? LIMIT ?, ?", page.Text())
	assert.Equal(t, []any{18, int64(20), int64(10)}, page.Args())

	count, err := b.BuildCount()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM users WHERE age > ?", count.Text())

	_, err = b.BuildPage(0, 0)
	assert.True(t, queryir.IsArityError(err))
}

func TestEmptyWhereGuard(t *testing.T) {
	b := New(dialect.Postgres).SetTable("", "", "users")

	_, err := b.BuildDelete()
	assert.True(t, queryir.IsEmptyWhereError(err))

	cmd, err := b.AllowEmptyWhere(true).BuildDelete()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM users", cmd.Text())
	assert.Equal(t, []any{}, cmd.Args())
}

func TestBuild_UnknownOperation(t *testing.T) {
	_, err := New(dialect.Postgres).SetTable("", "", "t").Build(queryir.Operation("merge"))
	assert.True(t, queryir.IsUnsupportedError(err))
}

func relationalWhere(b *Builder) error {
	if err := b.AddCondition(queryir.And, "name", queryir.Eq, "jo"); err != nil {
		return err
	}
	if err := b.AddConditionForIn(queryir.And, "id", false, 1, 2, 3); err != nil {
		return err
	}
	if err := b.AddConditionForBetween(queryir.Or, "age", true, 18, 65); err != nil {
		return err
	}
	if err := b.AddCondition(queryir.And, "deleted_at", queryir.IsNull); err != nil {
		return err
	}
	err := b.Nested(queryir.OrNot, func(g *Builder) error {
		if err := g.AddCondition(queryir.And, "email", queryir.Like, "a?b"); err != nil {
			return err
		}
		err := g.Nested(queryir.And, func(h *Builder) error {
			if err := h.AddConditionForIn(queryir.And, "role", true, "x", "y"); err != nil {
				return err
			}
			return h.AddCondition(queryir.Or, "owner", queryir.IsNotNull)
		})
		if err != nil {
			return err
		}
		return g.Where(queryir.AndNot, queryir.MustCondition("title", queryir.Eq, "T").WithValueExpr("lower(?)"))
	})
	if err != nil {
		return err
	}
	return b.Where(queryir.And, queryir.MustCondition("score", queryir.Gt, 0).WithColumnExpr("COALESCE(score, ?)"))
}

func documentWhere(b *Builder) error {
	if err := b.AddCondition(queryir.And, "name", queryir.Eq, "jo"); err != nil {
		return err
	}
	if err := b.AddConditionForIn(queryir.And, "id", false, 1, 2, 3); err != nil {
		return err
	}
	if err := b.AddConditionForBetween(queryir.And, "age", false, 18, 65); err != nil {
		return err
	}
	if err := b.AddCondition(queryir.And, "deleted_at", queryir.IsNull); err != nil {
		return err
	}
	if err := b.AddCondition(queryir.And, "email", queryir.Like, "a\nb?"); err != nil {
		return err
	}
	if err := b.Where(queryir.And, queryir.MustCondition("title", queryir.Eq, "T").WithValueExpr("lower(?)")); err != nil {
		return err
	}
	return b.Where(queryir.And, queryir.MustCondition("score", queryir.Gt, 0).WithColumnExpr("COALESCE(score, ?)"))
}

func searchWhere(b *Builder) error {
	if err := b.AddCondition(queryir.And, "name", queryir.Eq, "jo"); err != nil {
		return err
	}
	if err := b.AddConditionForIn(queryir.AndNot, "id", false, 1, 2, 3); err != nil {
		return err
	}
	err := b.Nested(queryir.Or, func(g *Builder) error {
		if err := g.AddConditionForBetween(queryir.And, "age", true, 18, 65); err != nil {
			return err
		}
		if err := g.AddCondition(queryir.AndNot, "deleted_at", queryir.IsNull); err != nil {
			return err
		}
		return g.AddCondition(queryir.And, "email", queryir.Like, "a?b")
	})
	if err != nil {
		return err
	}
	if err := b.Where(queryir.AndNot, queryir.MustCondition("title", queryir.Eq, "T").WithValueExpr("lower(?)")); err != nil {
		return err
	}
	return b.Where(queryir.OrNot, queryir.MustCondition("score", queryir.Gt, 0).WithColumnExpr("coalesce(score, ?)"))
}

func TestPlaceholdersMatchArgs(t *testing.T) {
	testCases := []struct {
		name  string
		d     *dialect.Dialect
		where func(*Builder) error
	}{
		{"mysql", dialect.MySQL, relationalWhere},
		{"postgres", dialect.Postgres, relationalWhere},
		{"sqlite", dialect.SQLite, relationalWhere},
		{"oracle", dialect.Oracle, relationalWhere},
		{"sqlserver", dialect.SQLServer, relationalWhere},
		{"mongo", dialect.Mongo, documentWhere},
		{"elastic6", dialect.Elastic6, searchWhere},
		{"elastic7", dialect.Elastic7, searchWhere},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			relational := tc.d.Family == dialect.Relational
			nulls := queryir.NullsDefault
			if relational {
				nulls = queryir.NullsLast
			}

			b := New(tc.d).SetTable("", "", "t")
			b.AddSelect("id", "name")
			if relational {
				b.AddSelectExpr("initial", "upper(name)")
			}
			b.AddOrderBy("id", queryir.Asc, nulls)
			b.AddUpdateSet("name", "x").AddUpdateSetExpr("age", "age + ?", 1)
			require.NoError(t, tc.where(b))

			var cmds []command.Bound
			add := func(cmd command.Bound, err error) {
				t.Helper()
				require.NoError(t, err)
				cmds = append(cmds, cmd)
			}
			add(b.BuildSelect())
			add(b.BuildPage(0, 10))
			add(b.BuildPage(20, 10))
			add(b.BuildCount())
			add(b.BuildUpdate())
			add(b.BuildDelete())

			ins := New(tc.d).SetTable("", "", "t")
			ins.NewRow().AddInsert("id", 1).AddInsert("name", nil).AddInsertExpr("created", "COALESCE(?, 0)", 5)
			if tc.d.Family == dialect.Document || tc.d.MultiRowInsert {
				ins.NewRow().AddInsert("id", 2).AddInsert("name", "b").AddInsertExpr("created", "COALESCE(?, 0)", 6)
			}
			add(ins.BuildInsert())

			if tc.d.Supports(queryir.DuplicateUpdate) {
				up := New(tc.d).SetTable("", "", "t").SetPrimaryKey("id").SetDuplicateKey(queryir.DuplicateUpdate)
				up.NewRow().AddInsert("id", 1).AddInsertExpr("name", "concat(?, ?)", "n")
				add(up.BuildInsert())
			}

			for _, cmd := range cmds {
				assert.Equal(t, command.CountPlaceholders(cmd.Text()), len(cmd.Args()), cmd.Text())
			}
		})
	}
}
