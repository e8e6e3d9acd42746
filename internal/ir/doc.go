// Package ir provides the host intermediate representation that dynamic
// dialects are defined against.
//
// The package is deliberately small: it models typed values, attributes,
// operations with operands/results/regions/successors, and source
// locations. It imports nothing internal; every other internal package
// builds on it.
//
// Key design constraints:
//   - Type and Attr are sealed interfaces; dynamic instances are created
//     only by a uniquing store and compared by identity.
//   - Structural identity uses canonical JSON (RFC 8785 key order, NFC
//     strings) hashed with a domain prefix.
//   - Float attributes carry exact decimals, never binary floats.
package ir
