// Package fireworks simulates a particle explosion inside a bounding box.
//
// A fixed number of independent point particles start at the origin with a
// random launch angle and speed. Every step moves each particle by one fixed
// time step, reflects it off the box walls with a velocity loss, and folds
// the new positions into a cumulative 2-D histogram:
//
//   - [Ensemble]: per-particle position and velocity arrays plus the step rule
//   - [DensityMap]: fixed-resolution cumulative histogram over the box
//   - [Simulation]: sequences ensemble steps and accumulation, feeds observers
//
// # Example
//
//	p := fireworks.DefaultParams()
//	sim, err := fireworks.New(p)
//	if err != nil {
//		return err
//	}
//	result, err := sim.Run(ctx)
//
// # Thread Safety
//
// Simulation instances are NOT thread-safe. Run independent instances in
// separate goroutines instead of sharing one.
package fireworks
