// Package trait implements named, composable operation verifiers and the
// registry that resolves trait names to them.
//
// Traits are resolved once, when an operation schema is registered; the
// schema keeps the resulting Trait values and never looks names up again.
//
// The variadic size specifiers are ordinary traits that additionally
// implement SizeSpecifier. Which of them an operation must carry is
// decided by the declarative SizeSpecifierGroups table rather than by
// per-trait branches.
package trait
