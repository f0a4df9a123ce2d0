package dialect

import (
	"regexp"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/qforge/internal/queryir"
)

var plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QuoteIdent renders an identifier, delimiting it when force is set, when it
// is a reserved word, or when it is not a plain identifier.
//
// Identifiers are NFC-normalized first so that visually equal names render
// byte-identically.
func (d *Dialect) QuoteIdent(name string, force bool) string {
	name = norm.NFC.String(name)
	if d.Quote == QuoteNone || name == "" || name == "*" {
		return name
	}
	if !force && plainIdent.MatchString(name) && !d.IsReserved(name) {
		return name
	}

	switch d.Quote {
	case QuoteDouble:
		return pq.QuoteIdentifier(name)
	case QuoteBacktick:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case QuoteBracket:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	}
	return name
}

// TableName renders a table reference with the parts the dialect accepts.
//
// Three-part dialects render catalog.schema.table. Two-part dialects render
// qualifier.table where the qualifier is the catalog or the schema per
// CatalogQualified, falling back to the other part when empty.
func (d *Dialect) TableName(t queryir.Table, force bool) string {
	var parts []string
	switch {
	case d.MaxTableParts >= 3:
		parts = []string{t.Primary, t.Secondary, t.Tertiary}
	case d.MaxTableParts == 2:
		qualifier := firstNonEmpty(t.Secondary, t.Primary)
		if d.CatalogQualified {
			qualifier = firstNonEmpty(t.Primary, t.Secondary)
		}
		parts = []string{qualifier, t.Tertiary}
	default:
		parts = []string{t.Tertiary}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, d.QuoteIdent(p, force))
		}
	}
	return strings.Join(out, ".")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
