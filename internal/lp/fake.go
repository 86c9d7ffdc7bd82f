package lp

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeSolver implements Solver with canned responses for testing.
type FakeSolver struct {
	mu       sync.Mutex
	respond  func(*Problem) (*Solution, error)
	delay    time.Duration
	problems []*Problem
}

// NewFakeSolver creates a FakeSolver that answers every call with respond.
func NewFakeSolver(respond func(*Problem) (*Solution, error)) *FakeSolver {
	return &FakeSolver{respond: respond}
}

// NewFailingSolver creates a FakeSolver that always returns err.
func NewFailingSolver(err error) *FakeSolver {
	return NewFakeSolver(func(*Problem) (*Solution, error) {
		return nil, err
	})
}

// NewConstantSolver creates a FakeSolver that assigns value to every variable.
func NewConstantSolver(value float64) *FakeSolver {
	return NewFakeSolver(func(p *Problem) (*Solution, error) {
		values := make([]float64, p.NumVars())
		for i := range values {
			values[i] = value
		}
		return &Solution{Objective: p.Evaluate(values), Values: values}, nil
	})
}

// SetDelay makes every Solve wait d before answering.
func (f *FakeSolver) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Solve records p and returns the canned response.
func (f *FakeSolver) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	f.mu.Lock()
	f.problems = append(f.problems, p)
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-timer.C:
		}
	}
	return f.respond(p)
}

// Problems returns every problem passed to Solve, in call order.
func (f *FakeSolver) Problems() []*Problem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Problem(nil), f.problems...)
}

// Calls returns the number of Solve calls.
func (f *FakeSolver) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.problems)
}
