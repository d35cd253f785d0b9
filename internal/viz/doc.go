// Package viz renders fireworks simulations in the terminal.
//
// The package implements a live view using the Bubble Tea framework:
//
//   - [Model]: steps a simulation on a timer and draws each frame
//   - [Canvas]: braille-based dot canvas for the particle cloud
//   - [Heatmap]: shaded rendering of a density snapshot
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Restart with the same parameters
//	T     - Cycle color themes
//	H     - Toggle the heatmap panel
//	?     - Show help overlay
//	Q     - Quit
package viz
