package lp

import "fmt"

// Split is the positive/negative decomposition of a signed variable.
//
// A linear program cannot minimize |v| directly. Instead v is written as
// Pos - Neg with Pos, Neg >= 0, and Pos + Neg is placed in a minimized
// objective. At an optimum at most one of the pair is nonzero, so Pos + Neg
// equals |v| without any complementarity constraint. The pattern only holds
// while the objective weight on Magnitude is positive; with weight 0 the pair
// is free to carry equal nonzero values.
type Split struct {
	Value VarID
	Pos   VarID
	Neg   VarID
}

// AddSplit declares v in [-bound, bound] together with its positive and
// negative parts in [0, bound] and the linking constraint v - pos + neg == 0.
// Variables are named name, name+"pos", name+"neg".
func (p *Problem) AddSplit(name string, bound float64) Split {
	s := Split{
		Value: p.AddVar(name, -bound, bound),
		Pos:   p.AddVar(name+"pos", 0, bound),
		Neg:   p.AddVar(name+"neg", 0, bound),
	}
	p.AddConstraint(fmt.Sprintf("%s_sum", name), EQ, 0,
		T(s.Value, 1), T(s.Pos, -1), T(s.Neg, 1))
	return s
}

// Magnitude returns the terms Pos + Neg, the linear stand-in for |Value|.
func (s Split) Magnitude() []Term {
	return []Term{T(s.Pos, 1), T(s.Neg, 1)}
}

// Magnitude evaluates Pos + Neg in a solution.
func (sol *Solution) Magnitude(s Split) float64 {
	return sol.Values[s.Pos] + sol.Values[s.Neg]
}
