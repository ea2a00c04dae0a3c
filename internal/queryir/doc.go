// Package queryir provides the typed description of a modelq selection
// query: up to two attribute conditions and the operator that composes them.
//
// ConditionSpec is the boundary between loosely shaped caller input (a
// chatbot slot map, a YAML query file, an inline --where flag) and the
// query engine. Shape detection happens once, here, at construction time;
// the engine only ever sees the tagged variants.
//
// SEALED INTERFACES:
//
// Condition is a sealed interface using the marker method pattern. Only
// StringCondition and NumericCondition implement it, so backends can switch
// exhaustively:
//
//	switch c := cond.(type) {
//	case StringCondition:
//	    // starts with / ends with / contains / equals on a string attribute
//	case NumericCondition:
//	    // greater than / lower than / equals on a number attribute
//	}
//
// WIRE SHAPE:
//
//	condition1:  { kind: string, attribute: name, comparator: "starts with" }
//	stringValue1: "Project"
//	condition2:  { kind: numeric, attribute: days, comparator: "greater than", number: "3" }
//	conditionComposition: and
//
// The legacy slot keys StringAttribute/StringComparator and
// NumericalAttribute/NumericalComparator/number are accepted as well.
//
// Comparators and the composition operator are carried verbatim. Rejecting
// an unsupported comparator or operator is the engine's job, so that the
// error names the type the query was run against.
package queryir
