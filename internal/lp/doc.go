// Package lp describes linear programs and solves them.
//
// A Problem is built incrementally: variables with bounds, linear constraints
// and a linear objective. Problems are plain values; nothing is solved until
// the Problem is handed to a Solver.
//
// Key components:
//   - Problem: variables, constraints, objective and sense
//   - Split: the positive/negative decomposition used to express |v| linearly
//   - Solver: the interface every backend implements
//   - Simplex: exact backend built on gonum's simplex implementation
//   - FakeSolver: canned responses for tests
package lp
