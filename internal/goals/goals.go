// Package goals holds the scheduled targets that trigger re-planning.
package goals

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidGoal indicates a goal with a target outside [-1, 1] or a trigger
// time that does not follow the previous goal.
var ErrInvalidGoal = errors.New("invalid goal")

// Goal is a target position that becomes active once the elapsed time
// exceeds At. The target velocity is always zero.
type Goal struct {
	At     time.Duration `json:"at"`
	Target float64       `json:"target"`
}

// String returns a short description.
func (g Goal) String() string {
	return fmt.Sprintf("%.3f@%s", g.Target, g.At)
}

// Validate checks the goal on its own.
func (g Goal) Validate() error {
	if g.At < 0 {
		return fmt.Errorf("%w: negative trigger time %s", ErrInvalidGoal, g.At)
	}
	if math.IsNaN(g.Target) || g.Target < -1 || g.Target > 1 {
		return fmt.Errorf("%w: target %g outside [-1, 1]", ErrInvalidGoal, g.Target)
	}
	return nil
}

// DefaultGoals returns the built-in demo schedule.
func DefaultGoals() []Goal {
	return []Goal{
		{At: 5 * time.Second, Target: 0.4},
		{At: 10 * time.Second, Target: 1.0},
		{At: 15 * time.Second, Target: 0.1},
		{At: 18 * time.Second, Target: 0.8},
	}
}

// Feed is an ordered queue of goals consumed from the head.
// Trigger times strictly increase across everything ever pushed, so a goal
// can never be scheduled before one that was already consumed.
// A Feed is not safe for concurrent use.
type Feed struct {
	goals  []Goal
	last   time.Duration
	pushed bool
}

// NewFeed creates a feed holding goals in order.
func NewFeed(goals ...Goal) (*Feed, error) {
	f := &Feed{}
	for i, g := range goals {
		if err := f.Push(g); err != nil {
			return nil, fmt.Errorf("goal %d: %w", i, err)
		}
	}
	return f, nil
}

// Push appends g. It fails with ErrInvalidGoal if g is invalid or does not
// trigger strictly after the previously pushed goal.
func (f *Feed) Push(g Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if f.pushed && g.At <= f.last {
		return fmt.Errorf("%w: trigger time %s does not follow %s", ErrInvalidGoal, g.At, f.last)
	}
	f.goals = append(f.goals, g)
	f.last = g.At
	f.pushed = true
	return nil
}

// Peek returns the head goal without removing it.
func (f *Feed) Peek() (Goal, bool) {
	if len(f.goals) == 0 {
		return Goal{}, false
	}
	return f.goals[0], true
}

// Pop removes and returns the head goal.
func (f *Feed) Pop() (Goal, bool) {
	g, ok := f.Peek()
	if ok {
		f.goals = f.goals[1:]
	}
	return g, ok
}

// Due pops the head goal if elapsed is strictly past its trigger time.
func (f *Feed) Due(elapsed time.Duration) (Goal, bool) {
	g, ok := f.Peek()
	if !ok || elapsed <= g.At {
		return Goal{}, false
	}
	return f.Pop()
}

// Len returns the number of pending goals.
func (f *Feed) Len() int {
	return len(f.goals)
}

// Remaining returns a copy of the pending goals.
func (f *Feed) Remaining() []Goal {
	return append([]Goal(nil), f.goals...)
}
