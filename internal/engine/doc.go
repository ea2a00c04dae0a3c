// Package engine implements the modelq query core.
//
// The engine answers one question: which nodes of a loaded model are
// instances of a given type, optionally filtered by up to two attribute
// conditions combined with "and" or "or".
//
// ARCHITECTURE:
//
// Query Pipeline:
// 1. ResolveType looks the type up by exact name in the schema
// 2. AllInstancesOf scans the graph in document order, keeping subtypes
// 3. BuildPredicate turns each condition into a Predicate
// 4. Compose joins the two predicates according to the composition
// 5. The Executor filters the enumerated nodes with a stable filter
//
// Every step is a plain in-memory computation. There is no I/O, no
// suspension point and no cancellation. Schema and Graph are only read, so
// concurrent queries over the same model are safe as long as nothing
// mutates the model meanwhile.
//
// CRITICAL PATTERNS:
//
// Explicit Resolution:
// Lookups return (value, ok). Only the Executor converts a missing type into
// a QueryError.
//
// Null Safety:
// A node whose attribute is null, or holds a value of another kind, does not
// match. The Executor counts such nodes as skipped in its Stats.
//
// Determinism:
// Results preserve enumeration order. Filtering never re-sorts.
package engine
