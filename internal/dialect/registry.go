package dialect

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/qforge/internal/queryir"
)

var sqlOperators = map[queryir.Operator]string{
	queryir.Eq:         "=",
	queryir.Ne:         "<>",
	queryir.Gt:         ">",
	queryir.Ge:         ">=",
	queryir.Lt:         "<",
	queryir.Le:         "<=",
	queryir.Like:       "LIKE",
	queryir.NotLike:    "NOT LIKE",
	queryir.IsNull:     "IS NULL",
	queryir.IsNotNull:  "IS NOT NULL",
	queryir.In:         "IN",
	queryir.NotIn:      "NOT IN",
	queryir.Between:    "BETWEEN",
	queryir.NotBetween: "NOT BETWEEN",
}

var sqlConnectives = map[queryir.Connective]string{
	queryir.And:    "AND",
	queryir.Or:     "OR",
	queryir.AndNot: "AND NOT",
	queryir.OrNot:  "OR NOT",
}

var allDuplicates = []queryir.DuplicateKey{
	queryir.DuplicateInto,
	queryir.DuplicateIgnore,
	queryir.DuplicateUpdate,
}

var plainOnly = []queryir.DuplicateKey{queryir.DuplicateInto}

var sqlReserved = []string{
	"ALL", "ALTER", "AND", "ANY", "AS", "ASC", "BETWEEN", "BY", "CASE", "CHECK",
	"COLUMN", "CREATE", "DEFAULT", "DELETE", "DESC", "DISTINCT", "DROP", "ELSE",
	"END", "EXISTS", "FROM", "GROUP", "HAVING", "IN", "INDEX", "INSERT", "INTO",
	"IS", "JOIN", "KEY", "LIKE", "NOT", "NULL", "ON", "OR", "ORDER", "PRIMARY",
	"SELECT", "SET", "TABLE", "THEN", "UNION", "UPDATE", "VALUES", "WHEN", "WHERE",
}

func reserved(extra ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(sqlReserved)+len(extra))
	for _, w := range sqlReserved {
		m[w] = struct{}{}
	}
	for _, w := range extra {
		m[w] = struct{}{}
	}
	return m
}

var (
	MySQL = &Dialect{
		Name:             "mysql",
		Aliases:          []string{"mariadb"},
		Family:           Relational,
		Quote:            QuoteBacktick,
		Reserved:         reserved("KEYS", "LIMIT", "RANGE", "READ", "WRITE", "RANK"),
		Bindvar:          sqlx.QUESTION,
		Operators:        sqlOperators,
		Connectives:      sqlConnectives,
		Negation:         "NOT",
		Nulls:            NullsIsNull,
		Page:             PageLimitComma,
		Duplicates:       allDuplicates,
		Upsert:           UpsertMySQL,
		AliasSeparator:   " ",
		GroupByAlias:     true,
		OrderByAlias:     true,
		Like:             LikeConcat,
		MaxTableParts:    2,
		CatalogQualified: true,
		MultiRowInsert:   true,
	}

	Postgres = &Dialect{
		Name:           "postgres",
		Aliases:        []string{"postgresql", "pg"},
		Family:         Relational,
		Quote:          QuoteDouble,
		Reserved:       reserved("USER", "LIMIT", "OFFSET", "ANALYSE", "ANALYZE", "ONLY"),
		Bindvar:        sqlx.DOLLAR,
		Operators:      sqlOperators,
		Connectives:    sqlConnectives,
		Negation:       "NOT",
		Nulls:          NullsNative,
		Page:           PageLimitOffset,
		Duplicates:     allDuplicates,
		Upsert:         UpsertPostgres,
		AliasSeparator: " AS ",
		GroupByAlias:   true,
		OrderByAlias:   true,
		Like:           LikePipes,
		MaxTableParts:  2,
		MultiRowInsert: true,
	}

	SQLite = &Dialect{
		Name:           "sqlite",
		Aliases:        []string{"sqlite3"},
		Family:         Relational,
		Quote:          QuoteDouble,
		Reserved:       reserved("LIMIT", "OFFSET", "REPLACE", "ABORT"),
		Bindvar:        sqlx.QUESTION,
		Operators:      sqlOperators,
		Connectives:    sqlConnectives,
		Negation:       "NOT",
		Nulls:          NullsNative,
		Page:           PageLimitOffset,
		Duplicates:     allDuplicates,
		Upsert:         UpsertSQLite,
		AliasSeparator: " AS ",
		GroupByAlias:   true,
		OrderByAlias:   true,
		Like:           LikePipes,
		MaxTableParts:  2,
		MultiRowInsert: true,
	}

	Oracle = &Dialect{
		Name:           "oracle",
		Family:         Relational,
		Quote:          QuoteDouble,
		Reserved:       reserved("USER", "LEVEL", "ROWNUM", "UID", "SIZE", "MODE", "NUMBER"),
		Bindvar:        sqlx.NAMED,
		Operators:      sqlOperators,
		Connectives:    sqlConnectives,
		Negation:       "NOT",
		Nulls:          NullsNative,
		Page:           PageRowNum,
		Duplicates:     allDuplicates,
		Upsert:         UpsertMerge,
		AliasSeparator: " AS ",
		GroupByAlias:   false,
		OrderByAlias:   true,
		Like:           LikeNestedConcat,
		MaxTableParts:  2,
		MultiRowInsert: false,
	}

	SQLServer = &Dialect{
		Name:           "sqlserver",
		Aliases:        []string{"mssql"},
		Family:         Relational,
		Quote:          QuoteBracket,
		Reserved:       reserved("USER", "TOP", "IDENTITY", "FILE", "OFFSET", "FETCH"),
		Bindvar:        sqlx.AT,
		Operators:      sqlOperators,
		Connectives:    sqlConnectives,
		Negation:       "NOT",
		Nulls:          NullsCase,
		Page:           PageOffsetFetch,
		Duplicates:     plainOnly,
		Upsert:         UpsertNone,
		AliasSeparator: " AS ",
		GroupByAlias:   false,
		OrderByAlias:   true,
		Like:           LikePlus,
		MaxTableParts:  3,
		MultiRowInsert: true,
	}

	Mongo = &Dialect{
		Name:    "mongo",
		Aliases: []string{"mongodb"},
		Family:  Document,
		Quote:   QuoteNone,
		Bindvar: sqlx.QUESTION,
		Operators: map[queryir.Operator]string{
			queryir.Ne:      "$ne",
			queryir.Gt:      "$gt",
			queryir.Ge:      "$gte",
			queryir.Lt:      "$lt",
			queryir.Le:      "$lte",
			queryir.In:      "$in",
			queryir.NotIn:   "$nin",
			queryir.Like:    "$regex",
			queryir.NotLike: "$not",
		},
		Nulls:      NullsNatural,
		Page:       PageSkipLimit,
		Duplicates: plainOnly,
	}

	Elastic6 = &Dialect{
		Name:       "elastic6",
		Aliases:    []string{"elasticsearch6", "es6"},
		Family:     Search,
		Quote:      QuoteNone,
		Bindvar:    sqlx.QUESTION,
		Operators:  searchOperators,
		Nulls:      NullsMissing,
		Page:       PageFromSize,
		Duplicates: plainOnly,
		Search:     SearchVariant{TypeSegment: true},
	}

	Elastic7 = &Dialect{
		Name:       "elastic7",
		Aliases:    []string{"elasticsearch", "elasticsearch7", "es7", "es"},
		Family:     Search,
		Quote:      QuoteNone,
		Bindvar:    sqlx.QUESTION,
		Operators:  searchOperators,
		Nulls:      NullsMissing,
		Page:       PageFromSize,
		Duplicates: plainOnly,
		Search:     SearchVariant{TypeSegment: false, WriteSegment: "_doc"},
	}
)

var searchOperators = map[queryir.Operator]string{
	queryir.Gt: "gt",
	queryir.Ge: "gte",
	queryir.Lt: "lt",
	queryir.Le: "lte",
}

var all = []*Dialect{MySQL, Postgres, SQLite, Oracle, SQLServer, Mongo, Elastic6, Elastic7}

var byName = func() map[string]*Dialect {
	m := make(map[string]*Dialect)
	for _, d := range all {
		m[d.Name] = d
		for _, a := range d.Aliases {
			m[a] = d
		}
	}
	return m
}()

// ErrUnknownDialect is returned by Lookup for names no record answers to.
var ErrUnknownDialect = errors.New("unknown dialect")

// Lookup resolves a dialect by name or alias, case-insensitively.
func Lookup(name string) (*Dialect, error) {
	d, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownDialect, name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// MustLookup is like Lookup but panics on unknown names.
func MustLookup(name string) *Dialect {
	d, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return d
}

// Names returns the canonical dialect names, sorted.
func Names() []string {
	names := make([]string, 0, len(all))
	for _, d := range all {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered dialect in registration order.
func All() []*Dialect {
	return append([]*Dialect(nil), all...)
}
