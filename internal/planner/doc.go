// Package planner computes receding-horizon trajectories for a one-dimensional
// double integrator.
//
// A Request names the current state, the target state and the horizon. The
// planner turns it into a linear program over k = 0..N (state, control and
// output at every step), hands it to an lp.Solver and returns the output
// trajectory y_0..y_N. The trajectory starts exactly at the current state and
// ends exactly at the target; if no such trajectory exists within the bounds
// the call fails instead of returning an approximation.
//
// Key components:
//   - Params / Request: horizon length, step size, effort/deviation weight
//   - Discretize / Rollout: the discrete-time plant model
//   - BuildModel: pure construction of the linear program for one request
//   - Planner: solves a model and extracts a Trajectory
package planner
