// Package model is an in-memory tree document engine: blocks containing
// inline text and object nodes, each inline node carrying a map of
// formatting attributes. It provides the contract the internal link core
// consumes: sibling and ancestor traversal, selection with inherited
// attributes, a schema answering attribute-validity queries, atomic
// transactions through a Writer, and an update notification fired after
// every committed change.
//
// Offsets inside a parent count one per rune of text children and one per
// element child. Positions and ranges are plain values and are only valid
// until the next mutation.
package model
