package dialect

import (
	"slices"
	"strings"

	"github.com/roach88/qforge/internal/queryir"
)

// Family groups dialects that share one builder implementation.
type Family string

const (
	Relational Family = "relational"
	Document   Family = "document"
	Search     Family = "search"
)

// QuoteStyle is how a dialect delimits identifiers.
type QuoteStyle int

const (
	QuoteNone     QuoteStyle = iota
	QuoteDouble              // "name"
	QuoteBacktick            // `name`
	QuoteBracket             // [name]
)

// NullsSupport is how a dialect places NULLs within ORDER BY.
type NullsSupport int

const (
	// NullsNative renders NULLS FIRST / NULLS LAST.
	NullsNative NullsSupport = iota
	// NullsIsNull prepends a "col IS NULL DESC|ASC" sort term.
	NullsIsNull
	// NullsCase prepends a "CASE WHEN col IS NULL ..." sort term.
	NullsCase
	// NullsMissing renders the search-index "missing" sort option.
	NullsMissing
	// NullsNatural accepts only the store's fixed placement
	// (first ascending, last descending).
	NullsNatural
)

// PageForm is the row-limiting syntax of a dialect.
type PageForm int

const (
	PageLimitOffset PageForm = iota // LIMIT ? OFFSET ?
	PageLimitComma                  // LIMIT ?, ?
	PageOffsetFetch                 // OFFSET ? ROWS FETCH NEXT ? ROWS ONLY
	PageRowNum                      // ROWNUM subquery wrapping
	PageSkipLimit                   // .skip(n).limit(n)
	PageFromSize                    // "from": n, "size": n
)

// UpsertForm is the native syntax used for non-plain duplicate strategies.
type UpsertForm int

const (
	UpsertNone     UpsertForm = iota
	UpsertMySQL               // INSERT IGNORE / ON DUPLICATE KEY UPDATE
	UpsertPostgres            // ON CONFLICT DO NOTHING / DO UPDATE
	UpsertSQLite              // INSERT OR IGNORE / INSERT OR REPLACE
	UpsertMerge               // MERGE INTO ... USING
)

// LikeForm is how a dialect wraps a bound LIKE value with wildcards.
type LikeForm int

const (
	LikeConcat       LikeForm = iota // CONCAT('%', ?, '%')
	LikeNestedConcat                 // CONCAT(CONCAT('%', ?), '%')
	LikePipes                        // '%' || ? || '%'
	LikePlus                         // '%' + ? + '%'
)

// SearchVariant describes the shape of a search-index dialect.
type SearchVariant struct {
	// TypeSegment reports whether paths carry a document-type segment
	// (/index/type/_search).
	TypeSegment bool

	// WriteSegment is the fixed path segment used for writes when there is
	// no document type ("_doc").
	WriteSegment string
}

// Dialect is the capability record of one target.
//
// Records are data only. Builders consult them; no dialect carries code of
// its own. Records are shared and must not be modified.
type Dialect struct {
	Name    string
	Aliases []string
	Family  Family

	Quote    QuoteStyle
	Reserved map[string]struct{}

	// Bindvar is the sqlx bind type of the dialect's native placeholders.
	Bindvar int

	Operators   map[queryir.Operator]string
	Connectives map[queryir.Connective]string
	Negation    string

	Nulls NullsSupport
	Page  PageForm

	Duplicates []queryir.DuplicateKey
	Upsert     UpsertForm

	// AliasSeparator sits between a projection expression and its alias.
	AliasSeparator string
	GroupByAlias   bool
	OrderByAlias   bool

	Like LikeForm

	// MaxTableParts bounds how many table reference parts are rendered.
	MaxTableParts int
	// CatalogQualified selects the catalog over the schema as the qualifier
	// of a two-part name.
	CatalogQualified bool

	MultiRowInsert bool

	Search SearchVariant
}

// Supports reports whether the dialect can express the duplicate strategy.
func (d *Dialect) Supports(k queryir.DuplicateKey) bool {
	if k == "" || k == queryir.DuplicateInto {
		return true
	}
	return slices.Contains(d.Duplicates, k)
}

// Operator returns the dialect spelling of op.
func (d *Dialect) Operator(op queryir.Operator) string {
	if s, ok := d.Operators[op]; ok {
		return s
	}
	return string(op)
}

// Connective returns the spelling of c between two nodes. When first is set
// the node opens its level and only a negation is rendered.
func (d *Dialect) Connective(c queryir.Connective, first bool) string {
	if first {
		if c.Negated() {
			return d.Negation
		}
		return ""
	}
	if s, ok := d.Connectives[c]; ok {
		return s
	}
	return string(c)
}

// IsReserved reports whether word is a reserved word of the dialect.
func (d *Dialect) IsReserved(word string) bool {
	_, ok := d.Reserved[strings.ToUpper(word)]
	return ok
}

func (d *Dialect) String() string {
	return d.Name
}
