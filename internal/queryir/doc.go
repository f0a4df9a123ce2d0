// Package queryir provides the backend-neutral query model compiled by
// qforge's target builders.
//
// ARCHITECTURE:
//
// The query model sits between the caller-facing builder and the per-family
// renderers:
//
//	[builder.Builder] → [queryir.Query] → [querysql]    (MySQL, PostgreSQL, SQLite, Oracle, SQL Server)
//	                                    → [querydoc]    (document store)
//	                                    → [querysearch] (search index, typed and typeless)
//
// CONDITION TREE:
//
// Conditions are held as a flat, ordered list of Nodes. A Node is a leaf
// (one Condition) or a group marker (NodeOpen/NodeClose). Every node carries
// the Connective that joins it to the preceding sibling at its level:
//
//	a = 1 OR (b = 2 AND NOT c = 3)
//
//	Leaf(And, a EQ 1)
//	Open(Or)
//	  Leaf(And, b EQ 2)
//	  Leaf(AndNot, c EQ 3)
//	Close()
//
// The connective of the first node at a level is not rendered; a negating
// connective there still renders NOT.
//
// ARITY:
//
// Operators are tagged unary, binary, list or range. NewCondition is the only
// way to obtain a Condition and validates the value count once, so renderers
// never see an IN with no values or a BETWEEN with one bound.
//
// ERRORS:
//
// BuildError carries a code (ARITY, CAPABILITY, UNSUPPORTED, EMPTY_WHERE);
// the Is*Error helpers match wrapped errors with errors.As.
//
// PORTABILITY:
//
// Validate reports features outside the portable fragment, the subset every
// target family can render.
package queryir
