// Package control provides feedback control over a running simulation.
//
//   - [PID]: Proportional-Integral-Derivative controller on a scalar
//   - [Thermostat]: holds kinetic energy per atom at a target by steering
//     the temperature parameter
//
// # Usage
//
//	engine := sim.New(world, cfg)
//	control.NewThermostat(engine, 2.0, log)
//	engine.Run(ctx, 600)
package control
