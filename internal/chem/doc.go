// Package chem holds the static chemistry reference data used by the
// simulation:
//
//   - [Elements]: element table indexed by element type
//   - [Formula]: Hill-ordered empirical formula built from symbol counts
//   - [CommonName]: exact-match lookup of well-known molecule names
//
// Everything in this package is read-only after initialization.
package chem
