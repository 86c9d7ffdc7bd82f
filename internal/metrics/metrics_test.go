package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.ObserveSolve(OutcomeOK, 20*time.Millisecond)
	r.ObserveSolve(OutcomeOK, 30*time.Millisecond)
	r.ObserveSolve(OutcomeInfeasible, time.Millisecond)
	r.ObserveTick(3, 31, 280)
	r.ObserveTick(2, 30, 300)

	if got := testutil.ToFloat64(r.solves.WithLabelValues(OutcomeOK)); got != 2 {
		t.Errorf("ok solves = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.solves.WithLabelValues(OutcomeInfeasible)); got != 1 {
		t.Errorf("infeasible solves = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.ticks); got != 2 {
		t.Errorf("ticks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.queued); got != 30 {
		t.Errorf("queued = %v, want 30", got)
	}
	if got := testutil.ToFloat64(r.position); got != 300 {
		t.Errorf("position = %v, want 300", got)
	}
	if n := testutil.CollectAndCount(r.solveSeconds); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	r.ObserveSolve(OutcomeOK, time.Second)
	r.ObserveTick(1, 1, 1)
}

func TestNewRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRecorder(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewRecorder(reg)
}
