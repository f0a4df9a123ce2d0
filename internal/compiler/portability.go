package compiler

import (
	"github.com/roach88/qforge/internal/builder"
	"github.com/roach88/qforge/internal/dialect"
	"github.com/roach88/qforge/internal/queryir"
)

// loadTarget hosts documents for the portability check. Loading a document
// does not depend on the target, and the relational family accepts every
// construct the model has.
var loadTarget = dialect.MustLookup("postgres")

// Portability reports the constructs of doc that do not render on every
// dialect family. It returns false when doc cannot be loaded; Validate
// reports why.
func Portability(doc *Document) (queryir.ValidationResult, bool) {
	op, verr := parseOperation("operation", doc.Operation)
	if verr != nil {
		return queryir.ValidationResult{}, false
	}

	b := builder.New(loadTarget)
	if err := doc.Apply(b); err != nil {
		return queryir.ValidationResult{}, false
	}

	q := b.Query()
	q.Operation = op
	return queryir.Validate(q), true
}
