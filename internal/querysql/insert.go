package querysql

import (
	"strings"

	"github.com/roach88/qforge/internal/command"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
	"github.com/roach88/qforge/internal/render"
)

// Insert compiles an INSERT, applying the query's duplicate-key strategy in
// the dialect's native form:
//
//	mysql:    INSERT IGNORE INTO ... | ... ON DUPLICATE KEY UPDATE c = VALUES(c)
//	postgres: ... ON CONFLICT DO NOTHING | ... ON CONFLICT (pk) DO UPDATE SET c = EXCLUDED.c
//	sqlite:   INSERT OR IGNORE INTO ... | INSERT OR REPLACE INTO ...
//	oracle:   MERGE INTO ... USING (SELECT ... FROM dual) ...
//
// A strategy the dialect cannot express is a capability error raised before
// any text is produced.
func Insert(d *dialect.Dialect, q queryir.Query) (command.Bound, error) {
	r := newRenderer(d, q)
	text, err := r.insert()
	if err != nil {
		return command.Bound{}, render.Errorf(d.Name, queryir.OpInsert, err)
	}
	return command.New(queryir.OpInsert, text, r.b.Args()), nil
}

func (r *renderer) insert() (string, error) {
	table, err := r.table()
	if err != nil {
		return "", err
	}
	cols, err := render.Columns(r.q)
	if err != nil {
		return "", err
	}

	strategy := r.q.DuplicateStrategy()
	if !r.d.Supports(strategy) {
		return "", queryir.NewCapabilityError(r.d.Name, "duplicate strategy %q is not supported", strategy)
	}
	if len(r.q.Rows) > 1 && !r.d.MultiRowInsert {
		return "", queryir.NewCapabilityError(r.d.Name, "multi-row insert is not supported")
	}

	if strategy != queryir.DuplicateInto {
		switch r.d.Upsert {
		case dialect.UpsertMySQL:
			return r.insertMySQL(table, cols, strategy), nil
		case dialect.UpsertPostgres:
			return r.insertPostgres(table, cols, strategy)
		case dialect.UpsertSQLite:
			verb := "INSERT OR IGNORE INTO "
			if strategy == queryir.DuplicateUpdate {
				verb = "INSERT OR REPLACE INTO "
			}
			return verb + r.values(table, cols), nil
		case dialect.UpsertMerge:
			return r.merge(table, cols, strategy)
		default:
			return "", queryir.NewCapabilityError(r.d.Name, "duplicate strategy %q is not supported", strategy)
		}
	}

	return "INSERT INTO " + r.values(table, cols), nil
}

// values renders "table (a, b) VALUES (?, ?), (?, ?)" binding rows in order.
func (r *renderer) values(table string, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = r.ident(c)
	}

	groups := make([]string, len(r.q.Rows))
	for i, row := range r.q.Rows {
		marks := make([]string, len(row))
		for j, m := range row {
			marks[j] = r.b.BindExpr(m.Expr, m.Value)
		}
		groups[i] = "(" + strings.Join(marks, ", ") + ")"
	}

	return table + " (" + strings.Join(quoted, ", ") + ") VALUES " + strings.Join(groups, ", ")
}

// updatable returns the non-key columns, or every column without a key.
func (r *renderer) updatable(cols []string) []string {
	if len(r.q.PrimaryKey) == 0 {
		return cols
	}
	var out []string
	for _, c := range cols {
		if !r.q.IsPrimaryKey(c) {
			out = append(out, c)
		}
	}
	return out
}

func (r *renderer) insertMySQL(table string, cols []string, strategy queryir.DuplicateKey) string {
	update := r.updatable(cols)
	if strategy == queryir.DuplicateIgnore || len(update) == 0 {
		return "INSERT IGNORE INTO " + r.values(table, cols)
	}

	sets := make([]string, len(update))
	for i, c := range update {
		id := r.ident(c)
		sets[i] = id + " = VALUES(" + id + ")"
	}
	return "INSERT INTO " + r.values(table, cols) + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}

func (r *renderer) insertPostgres(table string, cols []string, strategy queryir.DuplicateKey) (string, error) {
	if strategy == queryir.DuplicateIgnore {
		return "INSERT INTO " + r.values(table, cols) + " ON CONFLICT DO NOTHING", nil
	}
	if len(r.q.PrimaryKey) == 0 {
		return "", queryir.NewCapabilityError(r.d.Name, "duplicate strategy %q requires a primary key", strategy)
	}

	pk := r.idents(r.q.PrimaryKey)
	update := r.updatable(cols)
	if len(update) == 0 {
		return "INSERT INTO " + r.values(table, cols) + " ON CONFLICT (" + pk + ") DO NOTHING", nil
	}

	sets := make([]string, len(update))
	for i, c := range update {
		id := r.ident(c)
		sets[i] = id + " = EXCLUDED." + id
	}
	return "INSERT INTO " + r.values(table, cols) + " ON CONFLICT (" + pk + ") DO UPDATE SET " + strings.Join(sets, ", "), nil
}

// merge renders an Oracle MERGE for a single row:
//
//	MERGE INTO t TMP USING (SELECT ? id, ? name FROM dual) SRC ON (TMP.id = SRC.id)
//	WHEN MATCHED THEN UPDATE SET name = SRC.name
//	WHEN NOT MATCHED THEN INSERT (id, name) VALUES (SRC.id, SRC.name)
func (r *renderer) merge(table string, cols []string, strategy queryir.DuplicateKey) (string, error) {
	if len(r.q.PrimaryKey) == 0 {
		return "", queryir.NewCapabilityError(r.d.Name, "duplicate strategy %q requires a primary key", strategy)
	}

	row := r.q.Rows[0]
	src := make([]string, len(row))
	for i, m := range row {
		src[i] = r.b.BindExpr(m.Expr, m.Value) + " " + r.ident(m.Column)
	}

	on := make([]string, len(r.q.PrimaryKey))
	for i, pk := range r.q.PrimaryKey {
		id := r.ident(pk)
		on[i] = "TMP." + id + " = SRC." + id
	}

	var sb strings.Builder
	sb.WriteString("MERGE INTO " + table + " TMP USING (SELECT " + strings.Join(src, ", ") + " FROM dual) SRC")
	sb.WriteString(" ON (" + strings.Join(on, " AND ") + ")")

	if update := r.updatable(cols); strategy == queryir.DuplicateUpdate && len(update) > 0 {
		sets := make([]string, len(update))
		for i, c := range update {
			id := r.ident(c)
			sets[i] = id + " = SRC." + id
		}
		sb.WriteString(" WHEN MATCHED THEN UPDATE SET " + strings.Join(sets, ", "))
	}

	quoted := make([]string, len(cols))
	fromSrc := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = r.ident(c)
		fromSrc[i] = "SRC." + quoted[i]
	}
	sb.WriteString(" WHEN NOT MATCHED THEN INSERT (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(fromSrc, ", ") + ")")

	return sb.String(), nil
}

func (r *renderer) idents(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = r.ident(n)
	}
	return strings.Join(out, ", ")
}
