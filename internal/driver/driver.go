package driver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danieljhkim/horizon/internal/clock"
	"github.com/danieljhkim/horizon/internal/goals"
	"github.com/danieljhkim/horizon/internal/metrics"
	"github.com/danieljhkim/horizon/internal/planner"
)

// DefaultSolveTimeout bounds a single plan solve.
const DefaultSolveTimeout = planner.DefaultSolveTimeout

// Planner produces trajectories. *planner.Planner implements it.
type Planner interface {
	Plan(ctx context.Context, req planner.Request) (*planner.Trajectory, error)
}

// Config holds driver settings.
type Config struct {
	// Params are the horizon parameters used for every plan.
	Params planner.Params

	// Scale converts normalized positions to plant units:
	// plant = normalized * Scale.
	Scale float64

	// Policy decides how a new plan combines with queued samples.
	Policy Policy

	// StartPosition is the initial plant position in plant units.
	StartPosition float64

	// SolveTimeout bounds each solve. Zero disables the timeout.
	SolveTimeout time.Duration

	// SkipFirst drops y_0 from every plan. y_0 equals the position the plan
	// started from, so applying it repeats the current position for a tick.
	SkipFirst bool
}

// DefaultConfig returns the default driver settings.
func DefaultConfig() Config {
	return Config{
		Params:       planner.DefaultParams(),
		Scale:        1,
		Policy:       PolicyAppend,
		SolveTimeout: DefaultSolveTimeout,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if math.IsNaN(c.Scale) || math.IsInf(c.Scale, 0) || c.Scale <= 0 {
		return fmt.Errorf("%w: scale must be positive, got %g", ErrInvalidConfig, c.Scale)
	}
	if _, err := ParsePolicy(string(c.Policy)); err != nil {
		return err
	}
	if math.IsNaN(c.StartPosition) || math.IsInf(c.StartPosition, 0) {
		return fmt.Errorf("%w: start position is not finite", ErrInvalidConfig)
	}
	if c.SolveTimeout < 0 {
		return fmt.Errorf("%w: negative solve timeout %s", ErrInvalidConfig, c.SolveTimeout)
	}
	return nil
}

// TickResult reports what a tick did.
type TickResult struct {
	// Tick is the 1-based tick number.
	Tick int `json:"tick"`

	// Elapsed is the accumulated time after this tick.
	Elapsed time.Duration `json:"elapsed"`

	// Position is the plant position after this tick, in plant units.
	Position float64 `json:"position"`

	// Advanced reports whether a planned sample was applied.
	Advanced bool `json:"advanced"`

	// PlanID is the plan of the applied sample, if any.
	PlanID string `json:"plan_id,omitempty"`

	// Goal is the goal that triggered on this tick, if any.
	Goal *goals.Goal `json:"goal,omitempty"`

	// Queued is the number of samples left after this tick.
	Queued int `json:"queued"`

	// Err is the planning failure of this tick, if any. It wraps
	// planner.ErrPlanningInfeasible, planner.ErrSolverUnavailable or
	// planner.ErrInvalidRequest. The driver keeps running either way.
	Err error `json:"-"`
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(d *Driver) {
		if log != nil {
			d.log = log
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(d *Driver) {
		d.metrics = r
	}
}

// WithIDs sets the generator for plan IDs. The default is random UUIDs.
func WithIDs(next func() string) Option {
	return func(d *Driver) {
		if next != nil {
			d.newID = next
		}
	}
}

// Driver is the tick-driven plan consumer. Its queues are only touched from
// Tick, so a Driver must not be used from more than one goroutine at a time.
type Driver struct {
	planner Planner
	feed    *goals.Feed
	cfg     Config
	log     *zap.Logger
	metrics *metrics.Recorder
	newID   func() string

	buffer   Buffer
	ticks    int
	elapsed  time.Duration
	position float64
	velocity float64
	goal     *goals.Goal
}

// New creates a Driver. A nil feed starts with no goals.
func New(p Planner, feed *goals.Feed, cfg Config, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyAppend
	}
	if feed == nil {
		feed, _ = goals.NewFeed()
	}

	d := &Driver{
		planner:  p,
		feed:     feed,
		cfg:      cfg,
		log:      zap.NewNop(),
		newID:    uuid.NewString,
		position: cfg.StartPosition,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Tick advances the driver by dt.
func (d *Driver) Tick(ctx context.Context, dt time.Duration) TickResult {
	if dt < 0 {
		dt = 0
	}
	d.ticks++
	d.elapsed += dt
	res := TickResult{Tick: d.ticks, Elapsed: d.elapsed}

	if g, ok := d.feed.Due(d.elapsed); ok {
		res.Goal = &g
		d.goal = &g
		res.Err = d.replan(ctx, g)
	}

	if s, ok := d.buffer.Pop(); ok {
		d.position = s.Position * d.cfg.Scale
		d.velocity = s.Velocity
		res.Advanced = true
		res.PlanID = s.PlanID
	}

	res.Position = d.position
	res.Queued = d.buffer.Len()
	d.metrics.ObserveTick(d.feed.Len(), d.buffer.Len(), d.position)
	return res
}

// replan solves for g and queues the result. On failure the buffer is left
// exactly as it was.
func (d *Driver) replan(ctx context.Context, g goals.Goal) error {
	req := planner.Request{
		CurrentPosition: d.position / d.cfg.Scale,
		TargetPosition:  g.Target,
		Params:          d.cfg.Params,
	}
	if d.cfg.Policy == PolicyReplace {
		req.CurrentVelocity = d.velocity
	}

	if d.cfg.SolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.SolveTimeout)
		defer cancel()
	}

	d.log.Info("goal triggered",
		zap.Duration("elapsed", d.elapsed),
		zap.Duration("at", g.At),
		zap.Float64("from", req.CurrentPosition),
		zap.Float64("velocity", req.CurrentVelocity),
		zap.Float64("target", g.Target),
	)

	start := time.Now()
	traj, err := d.planner.Plan(ctx, req)
	took := time.Since(start)
	if err != nil {
		d.metrics.ObserveSolve(outcome(err), took)
		d.log.Warn("plan failed; keeping queued samples",
			zap.Float64("target", g.Target),
			zap.Int("queued", d.buffer.Len()),
			zap.Error(err),
		)
		return fmt.Errorf("goal %s: %w", g, err)
	}
	d.metrics.ObserveSolve(metrics.OutcomeOK, took)

	id := d.newID()
	samples := make([]Sample, 0, traj.Len())
	for k := range traj.Outputs {
		if k == 0 && d.cfg.SkipFirst {
			continue
		}
		samples = append(samples, Sample{
			Position: traj.Outputs[k],
			Velocity: traj.Velocities[k],
			PlanID:   id,
			Step:     k,
		})
	}

	switch d.cfg.Policy {
	case PolicyReplace:
		dropped := d.buffer.Replace(samples...)
		d.log.Debug("plan queued", zap.String("plan", id), zap.Int("samples", len(samples)), zap.Int("dropped", dropped))
	default:
		d.buffer.Append(samples...)
		d.log.Debug("plan queued", zap.String("plan", id), zap.Int("samples", len(samples)), zap.Int("segments", d.buffer.Segments()))
	}
	d.log.Info("plan solved",
		zap.String("plan", id),
		zap.Duration("took", took),
		zap.Float64("effort", traj.Effort),
		zap.Float64("deviation", traj.Deviation),
	)
	return nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, planner.ErrPlanningInfeasible):
		return metrics.OutcomeInfeasible
	case errors.Is(err, planner.ErrInvalidRequest):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeUnavailable
	}
}

// AddGoal schedules another goal. It fails with goals.ErrInvalidGoal without
// touching the queue.
func (d *Driver) AddGoal(g goals.Goal) error {
	return d.feed.Push(g)
}

// Simulate runs n ticks of fixed length dt and stops early if ctx is done.
// With n <= 0 it runs until the driver is idle.
func (d *Driver) Simulate(ctx context.Context, dt time.Duration, n int, onTick func(TickResult)) error {
	if dt <= 0 {
		return fmt.Errorf("%w: tick must be positive, got %s", ErrInvalidConfig, dt)
	}
	for i := 0; (n <= 0 && !d.Idle()) || i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := d.Tick(ctx, dt)
		if onTick != nil {
			onTick(res)
		}
	}
	return nil
}

// Run ticks on every interval of clk until ctx is done, passing the time
// since the previous tick as dt. It returns ctx.Err().
func (d *Driver) Run(ctx context.Context, clk clock.Clock, interval time.Duration, onTick func(TickResult)) error {
	last := clk.Now()
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			res := d.Tick(ctx, now.Sub(last))
			last = now
			if onTick != nil {
				onTick(res)
			}
		}
	}
}

// Idle reports whether no goals are pending and no samples are queued.
func (d *Driver) Idle() bool {
	return d.feed.Len() == 0 && d.buffer.Len() == 0
}

// Position returns the plant position in plant units.
func (d *Driver) Position() float64 {
	return d.position
}

// Elapsed returns the accumulated time.
func (d *Driver) Elapsed() time.Duration {
	return d.elapsed
}

// Pending returns the number of goals not yet triggered.
func (d *Driver) Pending() int {
	return d.feed.Len()
}

// Queued returns the number of planned samples not yet applied.
func (d *Driver) Queued() int {
	return d.buffer.Len()
}

// Planned returns the queued positions, normalized.
func (d *Driver) Planned() []float64 {
	return d.buffer.Positions()
}

// Goal returns the most recently triggered goal.
func (d *Driver) Goal() (goals.Goal, bool) {
	if d.goal == nil {
		return goals.Goal{}, false
	}
	return *d.goal, true
}

// Config returns the driver settings.
func (d *Driver) Config() Config {
	return d.cfg
}
