// Package storage persists worlds.
//
// A snapshot is JSON with atoms, bonds and physics parameters. Positions and
// velocities are rounded to two decimals. [Restore] decodes completely before
// touching the target world, so a bad snapshot never leaves a half-loaded
// state; bonds that cannot be resolved are dropped rather than failing the
// load.
//
// [Store] keeps named runs on disk:
//
//	<dir>/<run>/metadata.json
//	<dir>/<run>/snapshot.json
//	<dir>/<run>/metrics.csv
//
// [Autosaver] keeps a single session file current without blocking the
// simulation loop.
package storage
