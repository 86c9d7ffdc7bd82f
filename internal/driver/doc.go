// Package driver consumes planned trajectories one sample per tick.
//
// The Driver owns two queues: pending goals (a goals.Feed ordered by trigger
// time) and planned samples (a Buffer). Every tick advances an elapsed-time
// accumulator, re-plans when the head goal's trigger time has passed, and
// moves the plant to the next planned sample. When nothing is queued the
// plant holds its last position. The driver never terminates on its own.
//
// Key components:
//   - Driver: the tick state machine and its run loop
//   - Buffer: ordered planned samples, tagged by the plan that produced them
//   - Policy: how a new plan combines with an unconsumed remainder
//   - Config: horizon parameters, plant scale, solve timeout
package driver
