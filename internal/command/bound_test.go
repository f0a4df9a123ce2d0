package command

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qforge/internal/queryir"
)

func TestBound_ArgsAreCopied(t *testing.T) {
	args := []any{"Doe", 1}
	b := New(queryir.OpUpdate, "UPDATE user_table SET name = ? WHERE id = ?", args)

	args[0] = "changed"
	assert.Equal(t, []any{"Doe", 1}, b.Args())

	out := b.Args()
	out[1] = 99
	assert.Equal(t, []any{"Doe", 1}, b.Args())
	assert.Equal(t, queryir.OpUpdate, b.Operation())
}

func TestBound_NilArgsAreEmpty(t *testing.T) {
	b := New(queryir.OpSelect, "SELECT * FROM t", nil)
	assert.NotNil(t, b.Args())
	assert.Empty(t, b.Args())
}

func TestBound_SelectParts(t *testing.T) {
	parts := SelectParts{Target: "user_table", Projection: "*", Filter: "age > ?"}
	b := NewSelect("SELECT * FROM user_table WHERE age > ?", []any{18}, parts)

	got, ok := b.Select()
	require.True(t, ok)
	assert.Equal(t, parts, got)

	_, ok = New(queryir.OpDelete, "DELETE FROM t", nil).Select()
	assert.False(t, ok)
}

func TestBound_Rebind(t *testing.T) {
	b := New(queryir.OpSelect, "SELECT * FROM t WHERE a = ? AND b IN (?, ?)", []any{1, 2, 3})

	testCases := []struct {
		name     string
		bindType int
		want     string
	}{
		{"question", sqlx.QUESTION, "SELECT * FROM t WHERE a = ? AND b IN (?, ?)"},
		{"dollar", sqlx.DOLLAR, "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)"},
		{"at", sqlx.AT, "SELECT * FROM t WHERE a = @p1 AND b IN (@p2, @p3)"},
		{"named", sqlx.NAMED, "SELECT * FROM t WHERE a = :arg1 AND b IN (:arg2, :arg3)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, b.Rebind(tc.bindType))
		})
	}
}

func TestBound_MarshalJSON(t *testing.T) {
	b := New(queryir.OpSelect, "SELECT * FROM t WHERE a <> ?", []any{"x"})

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "select", decoded["operation"])
	assert.Equal(t, "SELECT * FROM t WHERE a <> ?", decoded["text"])
	assert.Equal(t, []any{"x"}, decoded["args"])
	assert.Contains(t, string(data), "<>")
}

func TestBound_HandsOffToDatabaseSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	b := New(queryir.OpUpdate, "UPDATE user_table SET name = ? WHERE id = ?", []any{"Doe", 1})

	mock.ExpectExec(regexp.QuoteMeta(b.Text())).
		WithArgs("Doe", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := db.Exec(b.Text(), b.Args()...)
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountPlaceholders(t *testing.T) {
	testCases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a = ?", 1},
		{"a IN (?, ?, ?)", 3},
		{"a = '?' AND b = ?", 1},
		{`a = "?" AND b = ?`, 1},
		{"`col?` = ?", 1},
		{`{name: { $regex: /a\?b/ }, age: ?}`, 1},
		{"'it''s ?' || ?", 1},
		{"lower(?) || upper(?)", 2},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, CountPlaceholders(tc.text))
		})
	}
}
