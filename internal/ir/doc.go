// Package ir provides the in-memory representation shared by every modelq
// package: the schema (metamodel) and the instance graph (model).
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Schema and Graph are immutable once built by the loader
//   - Node identity is pointer identity; two nodes with equal attributes are
//     still distinct instances
//   - Attribute values are sealed Value types (String, Number, Bool, Null)
//   - Type and attribute names are matched exactly and case-sensitively
package ir
