package planner

import "errors"

var (
	// ErrPlanningInfeasible indicates no trajectory meets the boundary states
	// and bounds within the horizon.
	ErrPlanningInfeasible = errors.New("planning infeasible")

	// ErrSolverUnavailable indicates the solver failed, timed out or returned an
	// unusable answer.
	ErrSolverUnavailable = errors.New("solver unavailable")

	// ErrInvalidRequest indicates malformed planning inputs.
	ErrInvalidRequest = errors.New("invalid plan request")
)
