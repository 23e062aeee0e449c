// Package viz provides the terminal front end for the molecule sandbox.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [App]: start menu, physics parameter screen and live view
//   - [Model]: the live view, driving a [sim.Scheduler] from TickMsg
//   - [Scene]: projects frames onto a [Canvas] and overlays element symbols
//   - [Canvas]: Braille-based pixel canvas
//   - Theme selection with 5 built-in color schemes
//
// # Key Bindings
//
//	hjkl  - Move the cursor
//	a     - Spawn an atom of the chosen element
//	b     - Link two atoms (pick one, then the other)
//	d     - Drag / drop the atom under the cursor
//	Space - Pause/Resume simulation
//	?     - Show help overlay
//
// # Recording
//
// The R key toggles recording of the canvas as a GIF animation, written to
// molsim.gif in the current directory.
package viz
