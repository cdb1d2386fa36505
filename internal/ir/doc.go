// Package ir provides the syntax tree model shared by every traitasync stage.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. The tree is a strict ownership tree:
// parents own their children and no node holds a back-reference.
//
// Key design constraints:
//   - Type expressions, generic parameters, where-predicates and bounds are
//     sealed interfaces (marker method pattern) so stages can switch
//     exhaustively over the closed set of shapes.
//   - A nil *Lifetime on a Reference means the borrow scope was elided.
//   - Every declaration element the expander does not rewrite is reproduced
//     from its source Span, never re-printed from the model.
//   - Canonical JSON (RFC 8785) is the only serialization used for
//     content-addressed identity (ItemID).
package ir
