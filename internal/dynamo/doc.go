// Package dynamo holds the simulation state: atoms, bonds and the rules that
// govern how bonds may change.
//
//   - [World]: dense atom store indexed by [AtomID], plus the bond graph
//   - [World.Link]: the one interactive entry point for bond edits
//   - [World.DeleteAtom]: removal with cascade over incident bonds
//   - [Validate]: read-only valency check
//   - [Params]: physics parameters, passed by value into every tick
//
// # Bond cycling
//
// Linking the same pair repeatedly walks the order 1 -> 2 -> 3 -> removed.
// Creation and every upgrade require one free valence on both atoms; a
// blocked upgrade is a no-op.
//
//	w := dynamo.NewWorld()
//	c, _ := w.AddAtom(100, 100, chem.Carbon)
//	o, _ := w.AddAtom(140, 100, chem.Oxygen)
//	w.Link(c, o) // single
//	w.Link(c, o) // double
//
// # Thread Safety
//
// World is NOT thread-safe. All mutation happens on one goroutine; see
// package sim for the loop that owns it.
package dynamo
