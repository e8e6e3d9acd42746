// Package constraint provides composable predicates over types and
// attributes, and the constraint shapes used by operation signatures.
//
// Every predicate carries a description which doubles as its textual
// form, so a parsed constraint prints back the way it was written.
package constraint
