// Package harness runs verification scenarios against runtime-declared
// dialects.
//
// A scenario names declaration files (text .dyn or CUE .cue) or carries an
// inline text declaration, then lists cases. Each case describes one
// operation: its name, operand and result types, an attribute dictionary,
// nested regions and successor blocks. The harness registers the
// dialects in a fresh dialect.Context, builds every case into an
// ir.Operation, verifies it and compares the outcome with the case's
// expect clause:
//
//	name: toy_arith
//	description: add verifies against its declared signature
//	dialects: [../dialects/toy.dyn]
//	cases:
//	  - name: add ok
//	    op: toy.add
//	    operands: [i32, i32]
//	    results: [i32]
//	  - name: add float
//	    op: toy.add
//	    operands: [f32, f32]
//	    results: [f32]
//	    expect: {code: OPERAND_TYPE}
//
// Operand strings are type texts, creating free values, or references:
// %argN names argument N of the enclosing block and %id (or %id#N) names
// result 0 (or N) of an earlier op in scope that carries that id.
//
// Every run is recorded in a store.Store (an in-memory one unless the
// caller passes its own) together with the catalogued declarations, and
// traces are stamped by a logical clock so golden snapshots are stable.
package harness
