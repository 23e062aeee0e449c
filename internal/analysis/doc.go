// Package analysis derives chemistry from the bond graph.
//
//   - [Analyze]: the molecule containing one atom
//   - [Components]: every molecule in the world
//
// A molecule is a connected component of the bond graph. Its formula is in
// Hill order (C, H, then alphabetical) and its name comes from an exact
// formula match, so isomers share a name.
//
//	m := analysis.Analyze(w, id)
//	fmt.Println(m.Formula, m.Mass, m.Name) // H2O 18 Water
package analysis
