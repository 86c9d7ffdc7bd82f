package planner

import (
	"math"
	"strings"
	"testing"

	"github.com/danieljhkim/horizon/internal/lp"
)

func TestBuildModel(t *testing.T) {
	req := NewRequest(0.1, 0.6)
	req.CurrentVelocity = 0.2
	req.Params.Steps = 3
	req.Params.Gamma = 0.25

	m, err := BuildModel(req)
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}
	p := m.Problem
	n := req.Params.Steps

	if got, want := p.NumVars(), 8*(n+1); got != want {
		t.Errorf("NumVars() = %d, want %d", got, want)
	}
	if len(m.Position) != n+1 || len(m.Control) != n+1 || len(m.Output) != n+1 {
		t.Fatalf("handles sized %d/%d/%d, want %d", len(m.Position), len(m.Control), len(m.Output), n+1)
	}

	cons := make(map[string]lp.Constraint)
	for _, c := range p.Constraints() {
		cons[c.Name] = c
	}
	// splits, initial condition, outputs, dynamics
	if want := 2*(n+1) + 2 + (n + 1) + 2*n; len(cons) != want {
		t.Errorf("got %d constraints, want %d", len(cons), want)
	}
	for _, name := range []string{"ic[1]", "ic[2]", "y_output[0]", "y_output[3]", "x1_update[0]", "x2_update[2]"} {
		if _, ok := cons[name]; !ok {
			t.Errorf("missing constraint %s", name)
		}
	}
	for name := range cons {
		if strings.HasSuffix(name, "_update[3]") {
			t.Errorf("unexpected dynamics row at the terminal index: %s", name)
		}
	}
	if c := cons["ic[2]"]; c.RHS != 0.2 || c.Rel != lp.EQ {
		t.Errorf("ic[2] = %+v", c)
	}

	if v := p.Var(m.Position[n]); !v.Fixed() || v.Lower != 0.6 {
		t.Errorf("terminal position = %+v, want fixed at 0.6", v)
	}
	if v := p.Var(m.Velocity[n]); !v.Fixed() || v.Lower != 0 {
		t.Errorf("terminal velocity = %+v, want fixed at 0", v)
	}
	if v := p.Var(m.Position[0]); !math.IsInf(v.Lower, -1) || !math.IsInf(v.Upper, 1) {
		t.Errorf("initial position should be free, got %+v", v)
	}
	if v := p.Var(m.Control[1].Value); v.Lower != -1 || v.Upper != 1 {
		t.Errorf("control bounds = [%v, %v]", v.Lower, v.Upper)
	}

	obj := p.Objective()
	if obj[m.Control[2].Pos] != 0.25 || obj[m.Control[2].Neg] != 0.25 {
		t.Errorf("control weight = %v/%v, want 0.25", obj[m.Control[2].Pos], obj[m.Control[2].Neg])
	}
	if obj[m.Output[2].Pos] != 0.75 || obj[m.Output[2].Neg] != 0.75 {
		t.Errorf("output weight = %v/%v, want 0.75", obj[m.Output[2].Pos], obj[m.Output[2].Neg])
	}
	if obj[m.Position[2]] != 0 || obj[m.Control[2].Value] != 0 {
		t.Error("signed variables must not carry objective weight")
	}
}

func TestBuildModel_DynamicsRow(t *testing.T) {
	req := NewRequest(0, 0)
	req.Params.Steps = 2
	req.Params.StepSize = 0.5

	m, err := BuildModel(req)
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	var row lp.Constraint
	for _, c := range m.Problem.Constraints() {
		if c.Name == "x1_update[1]" {
			row = c
		}
	}
	want := map[lp.VarID]float64{
		m.Position[2]:      1,
		m.Position[1]:      -1,
		m.Velocity[1]:      -0.5,
		m.Control[1].Value: -0.125,
	}
	if len(row.Terms) != len(want) {
		t.Fatalf("x1_update[1] has %d terms, want %d", len(row.Terms), len(want))
	}
	for _, term := range row.Terms {
		if want[term.Var] != term.Coef {
			t.Errorf("coef of %s = %v, want %v", m.Problem.Var(term.Var).Name, term.Coef, want[term.Var])
		}
	}
}

func TestBuildModel_Invalid(t *testing.T) {
	req := NewRequest(0, 0)
	req.Params.StepSize = -1
	if _, err := BuildModel(req); err == nil {
		t.Error("expected error for negative step size")
	}
}

func TestRollout(t *testing.T) {
	h := 0.1
	controls := []float64{1, 1, 1, 1, 1}
	states := Rollout(State{}, controls, h)

	if len(states) != len(controls)+1 {
		t.Fatalf("got %d states, want %d", len(states), len(controls)+1)
	}
	for k, s := range states {
		tk := float64(k) * h
		if !near(s.Position, tk*tk/2) {
			t.Errorf("position[%d] = %v, want %v", k, s.Position, tk*tk/2)
		}
		if !near(s.Velocity, tk) {
			t.Errorf("velocity[%d] = %v, want %v", k, s.Velocity, tk)
		}
	}
}

func TestDiscretize(t *testing.T) {
	a, b := Discretize(0.2)
	if a.At(0, 1) != 0.2 || a.At(1, 0) != 0 || a.At(0, 0) != 1 || a.At(1, 1) != 1 {
		t.Errorf("unexpected A")
	}
	if !near(b.At(0, 0), 0.02) || b.At(1, 0) != 0.2 {
		t.Errorf("B = [%v %v], want [0.02 0.2]", b.At(0, 0), b.At(1, 0))
	}
}

func TestTrajectory_Times(t *testing.T) {
	traj := &Trajectory{Outputs: make([]float64, 4), Params: Params{StepSize: 0.5}}
	times := traj.Times()
	want := []float64{0, 0.5, 1, 1.5}
	for i := range want {
		if times[i] != want[i] {
			t.Errorf("Times()[%d] = %v, want %v", i, times[i], want[i])
		}
	}
}
