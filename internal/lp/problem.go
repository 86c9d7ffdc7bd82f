package lp

import (
	"fmt"
	"math"
)

// Sense is the optimization direction of the objective.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// String returns the sense name.
func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Relation is the comparison used by a constraint.
type Relation int

const (
	// EQ is sum == rhs.
	EQ Relation = iota
	// LE is sum <= rhs.
	LE
	// GE is sum >= rhs.
	GE
)

// String returns the relation operator.
func (r Relation) String() string {
	switch r {
	case LE:
		return "<="
	case GE:
		return ">="
	default:
		return "=="
	}
}

// VarID identifies a variable within the Problem that declared it.
type VarID int

// Var is a decision variable with inclusive bounds. Infinite bounds are allowed.
type Var struct {
	Name  string
	Lower float64
	Upper float64
}

// Fixed reports whether the variable is pinned to a single value.
func (v Var) Fixed() bool {
	return v.Lower == v.Upper
}

// Term is coef * variable.
type Term struct {
	Var  VarID
	Coef float64
}

// T is shorthand for building a Term.
func T(v VarID, coef float64) Term {
	return Term{Var: v, Coef: coef}
}

// Constraint is a linear relation over the problem's variables.
type Constraint struct {
	Name  string
	Terms []Term
	Rel   Relation
	RHS   float64
}

// Problem is a linear program description.
type Problem struct {
	Name  string
	Sense Sense

	vars      []Var
	cons      []Constraint
	objective []float64
}

// NewProblem creates an empty Problem.
func NewProblem(name string, sense Sense) *Problem {
	return &Problem{
		Name:      name,
		Sense:     sense,
		vars:      []Var{},
		cons:      []Constraint{},
		objective: []float64{},
	}
}

// AddVar declares a variable bounded to [lower, upper] and returns its ID.
func (p *Problem) AddVar(name string, lower, upper float64) VarID {
	p.vars = append(p.vars, Var{Name: name, Lower: lower, Upper: upper})
	p.objective = append(p.objective, 0)
	return VarID(len(p.vars) - 1)
}

// AddFreeVar declares an unbounded variable.
func (p *Problem) AddFreeVar(name string) VarID {
	return p.AddVar(name, math.Inf(-1), math.Inf(1))
}

// Fix pins a variable to value by collapsing its bounds.
func (p *Problem) Fix(v VarID, value float64) {
	p.vars[v].Lower = value
	p.vars[v].Upper = value
}

// AddConstraint appends the constraint sum(terms) rel rhs.
func (p *Problem) AddConstraint(name string, rel Relation, rhs float64, terms ...Term) {
	p.cons = append(p.cons, Constraint{
		Name:  name,
		Terms: append([]Term(nil), terms...),
		Rel:   rel,
		RHS:   rhs,
	})
}

// AddObjective adds weight*coef for each term to the objective.
func (p *Problem) AddObjective(weight float64, terms ...Term) {
	for _, t := range terms {
		p.objective[t.Var] += weight * t.Coef
	}
}

// NumVars returns the number of declared variables.
func (p *Problem) NumVars() int {
	return len(p.vars)
}

// Var returns the declaration of v.
func (p *Problem) Var(v VarID) Var {
	return p.vars[v]
}

// Vars returns a copy of all variable declarations in ID order.
func (p *Problem) Vars() []Var {
	return append([]Var(nil), p.vars...)
}

// Constraints returns a copy of all constraints in declaration order.
func (p *Problem) Constraints() []Constraint {
	return append([]Constraint(nil), p.cons...)
}

// Objective returns a copy of the objective coefficients indexed by VarID.
func (p *Problem) Objective() []float64 {
	return append([]float64(nil), p.objective...)
}

// Validate checks that the description is well formed.
func (p *Problem) Validate() error {
	for i, v := range p.vars {
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) {
			return fmt.Errorf("%w: variable %d (%s) has NaN bound", ErrInvalidProblem, i, v.Name)
		}
		if v.Lower > v.Upper {
			return fmt.Errorf("%w: variable %d (%s) has lower %g > upper %g", ErrInvalidProblem, i, v.Name, v.Lower, v.Upper)
		}
		if math.IsInf(v.Lower, 1) || math.IsInf(v.Upper, -1) {
			return fmt.Errorf("%w: variable %d (%s) has empty domain", ErrInvalidProblem, i, v.Name)
		}
	}
	for i, c := range p.cons {
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("%w: constraint %d (%s) has non-finite rhs", ErrInvalidProblem, i, c.Name)
		}
		for _, t := range c.Terms {
			if t.Var < 0 || int(t.Var) >= len(p.vars) {
				return fmt.Errorf("%w: constraint %d (%s) references unknown variable %d", ErrInvalidProblem, i, c.Name, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("%w: constraint %d (%s) has non-finite coefficient", ErrInvalidProblem, i, c.Name)
			}
		}
	}
	for i, c := range p.objective {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: objective coefficient %d is not finite", ErrInvalidProblem, i)
		}
	}
	return nil
}

// Evaluate returns the objective value of an assignment.
func (p *Problem) Evaluate(values []float64) float64 {
	var sum float64
	for i, c := range p.objective {
		sum += c * values[i]
	}
	return sum
}

// Violation returns the largest bound or constraint violation of an assignment.
// A feasible assignment has violation 0.
func (p *Problem) Violation(values []float64) float64 {
	var worst float64
	for i, v := range p.vars {
		worst = math.Max(worst, v.Lower-values[i])
		worst = math.Max(worst, values[i]-v.Upper)
	}
	for _, c := range p.cons {
		var lhs float64
		for _, t := range c.Terms {
			lhs += t.Coef * values[t.Var]
		}
		switch c.Rel {
		case EQ:
			worst = math.Max(worst, math.Abs(lhs-c.RHS))
		case LE:
			worst = math.Max(worst, lhs-c.RHS)
		case GE:
			worst = math.Max(worst, c.RHS-lhs)
		}
	}
	return worst
}

// Solution holds optimal values for every variable of a Problem.
type Solution struct {
	// Objective is the objective value at Values.
	Objective float64

	// Values is indexed by VarID.
	Values []float64
}

// Value returns the solved value of v.
func (s *Solution) Value(v VarID) float64 {
	return s.Values[v]
}
