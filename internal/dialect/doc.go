// Package dialect implements runtime-defined dialects: type, attribute and
// operation schemas, the uniquing store for their instances, and the
// operation verifier.
//
// Lifecycle:
//
//	ctx := dialect.NewContext(dialect.WithLogger(logger))
//	b := ctx.NewBuilder("toy")
//	b.AddType("box", dialect.ParamSpec{{Name: "elem", Pred: ...}})
//	b.AddOp(dialect.OpSpec{Name: "add", ...})
//	d, err := b.Build() // registers d with ctx; b is spent
//
// Registration is a write phase confined to the Builder. Build consumes it
// into an immutable Dialect that is safe for concurrent readers. The only
// state mutated afterwards is the context's Store, which interns instances
// under a mutex.
//
// Errors:
//   - SchemaError: a declaration was rejected. Duplicate names, malformed
//     declarations and inconsistent formats make Build fail; trait errors
//     reject only the operation that caused them.
//   - ConstraintError: instance parameters failed the schema's ParamSpec.
//   - Diagnostic: an operation failed verification.
package dialect
