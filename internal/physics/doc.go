// Package physics advances a [dynamo.World] in time.
//
// [Solver] is a position-based Verlet integrator. Each call to
// [Solver.Frame] runs [SubSteps] sub-steps; a sub-step applies, per atom,
// gravity, pairwise electrostatics with soft collision, wall containment and
// thermal jitter, then relaxes every bond toward its rest length, then
// integrates.
//
// Velocity is never stored. It is the difference between an atom's current
// and previous position, so moving an atom by hand changes its velocity
// unless Prev is moved with it.
//
//	s := physics.NewSolver(42)
//	s.Frame(w, dynamo.DefaultParams(), physics.Bounds{Width: 800, Height: 600})
package physics
