// Package compiler turns dialect declarations into registered dialects.
//
// Declarations come from two surfaces: the textual grammar (ParseText)
// and CUE (CompileDialect). Both produce a DialectDecl, which holds
// constraint expressions as text so that either surface can be
// validated (Validate), hashed (DialectDecl.Hash), printed back
// (DialectDecl.Text) and finally built into a dialect.Context (Build).
package compiler
