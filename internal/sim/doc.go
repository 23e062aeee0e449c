// Package sim runs a world over time and mediates every change to it.
//
//   - [Engine]: one tick = solver sub-steps, valency check, frame publication
//   - [Scheduler]: fixed-timestep accumulator over wall-clock time
//   - [Session]: spawn, drag, link, delete, select and parameter edits
//   - [Frame]: immutable snapshot handed to renderers
//   - [Ensemble]: concurrent headless runs with consecutive seeds
//
// # Thread Safety
//
// Engine and Session are NOT thread-safe. While [Scheduler.Run] is active
// it is the only goroutine allowed to touch them; post work with
// [Scheduler.Do].
package sim
