package lp

import "errors"

var (
	// ErrInfeasible indicates no assignment satisfies the constraints and bounds.
	ErrInfeasible = errors.New("problem is infeasible")

	// ErrUnbounded indicates the objective can be improved without limit.
	ErrUnbounded = errors.New("problem is unbounded")

	// ErrUnavailable indicates the solver could not produce an answer: it failed,
	// crashed, or ran out of time.
	ErrUnavailable = errors.New("solver unavailable")

	// ErrInvalidProblem indicates a malformed problem description.
	ErrInvalidProblem = errors.New("invalid problem")
)
