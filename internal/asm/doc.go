// Package asm implements the textual form of types and attributes: a
// tokenizer, a recursive-descent Parser and a Printer.
//
// The default syntax is
//
//	type  ::= iN | siN | uiN | f16 | f32 | f64 | index | none
//	        | '(' types ')' '->' (type | '(' types ')')
//	        | '!' dialect '.' name body
//	attr  ::= int | float | string | true | false | unit
//	        | '[' attrs ']' | '{' (key ('=' attr)?),* '}'
//	        | '@' name | '#' dialect '.' name body | type
//	body  ::= ('<' attr (',' attr)* '>')?
//
// Dialect-qualified names are resolved through a SymbolTable, which may
// replace the default body syntax with a schema-specific one.
package asm
