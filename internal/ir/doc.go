// Package ir defines the verified bytecode intermediate representation.
//
// This package contains data definitions only: the value-type algebra,
// signatures, class/field/method descriptors, expression nodes and statement
// roots, plus the canonical encoding used for hash-consing and content IDs.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Entities refer to each other through small integer handles (TypeID,
//     NodeID, ...) issued by the arena; they never own copies of each other.
//   - Every Type variant is a comparable value, so == is structural equality.
//   - Node and Root are sealed interfaces; only this package adds variants.
//   - Canonical encodings contain no floats; float constants are encoded by
//     their IEEE-754 bit pattern.
package ir
