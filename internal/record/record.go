// Package record persists driver runs as JSON recordings.
//
// A recording holds the settings a run used and one entry per tick. It is
// written atomically at the end of a run and can be loaded back for
// inspection.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/danieljhkim/horizon/internal/driver"
	"github.com/danieljhkim/horizon/internal/fsops"
	"github.com/danieljhkim/horizon/internal/goals"
	"github.com/danieljhkim/horizon/internal/planner"
)

// SchemaVersion is the recording format written by this package.
const SchemaVersion = 1

// ErrUnsupportedVersion indicates a recording written in another format.
var ErrUnsupportedVersion = errors.New("unsupported recording version")

// Recording is one driver run.
type Recording struct {
	// Version is the schema version
	Version int `json:"version"`

	// ID identifies the run
	ID string `json:"id"`

	// Scenario is the scenario name
	Scenario string `json:"scenario"`

	// ScenarioPath and ScenarioHash identify the scenario file, if the run
	// used one
	ScenarioPath string `json:"scenarioPath,omitempty"`
	ScenarioHash string `json:"scenarioHash,omitempty"`

	// StartedAt is when the run began
	StartedAt time.Time `json:"startedAt"`

	// TickMS is the nominal tick length in milliseconds
	TickMS int64 `json:"tickMs"`

	Policy    string         `json:"policy"`
	SkipFirst bool           `json:"skipFirst"`
	Scale     float64        `json:"scale"`
	Params    planner.Params `json:"params"`

	Ticks []Tick `json:"ticks"`
}

// Tick is the recorded outcome of one driver tick.
type Tick struct {
	Tick      int         `json:"tick"`
	ElapsedMS int64       `json:"elapsedMs"`
	Position  float64     `json:"position"`
	Advanced  bool        `json:"advanced"`
	PlanID    string      `json:"planId,omitempty"`
	Goal      *goals.Goal `json:"goal,omitempty"`
	Queued    int         `json:"queued"`
	Error     string      `json:"error,omitempty"`
}

// New creates an empty recording for a run with cfg.
func New(id, scenario string, cfg driver.Config, tick time.Duration, startedAt time.Time) *Recording {
	return &Recording{
		Version:   SchemaVersion,
		ID:        id,
		Scenario:  scenario,
		StartedAt: startedAt,
		TickMS:    tick.Milliseconds(),
		Policy:    cfg.Policy.String(),
		SkipFirst: cfg.SkipFirst,
		Scale:     cfg.Scale,
		Params:    cfg.Params,
	}
}

// Add appends a tick result.
func (r *Recording) Add(res driver.TickResult) {
	t := Tick{
		Tick:      res.Tick,
		ElapsedMS: res.Elapsed.Milliseconds(),
		Position:  res.Position,
		Advanced:  res.Advanced,
		PlanID:    res.PlanID,
		Goal:      res.Goal,
		Queued:    res.Queued,
	}
	if res.Err != nil {
		t.Error = res.Err.Error()
	}
	r.Ticks = append(r.Ticks, t)
}

// Plans returns the distinct plan IDs in the order they were first applied.
func (r *Recording) Plans() []string {
	var ids []string
	seen := make(map[string]bool)
	for _, t := range r.Ticks {
		if t.PlanID == "" || seen[t.PlanID] {
			continue
		}
		seen[t.PlanID] = true
		ids = append(ids, t.PlanID)
	}
	return ids
}

// Failures returns the ticks whose goal could not be planned.
func (r *Recording) Failures() []Tick {
	var failed []Tick
	for _, t := range r.Ticks {
		if t.Error != "" {
			failed = append(failed, t)
		}
	}
	return failed
}

// Final returns the last recorded tick.
func (r *Recording) Final() (Tick, bool) {
	if len(r.Ticks) == 0 {
		return Tick{}, false
	}
	return r.Ticks[len(r.Ticks)-1], true
}

// Store reads and writes recordings.
type Store struct {
	fs fsops.FS
}

// NewStore creates a Store on fs.
func NewStore(fs fsops.FS) *Store {
	return &Store{fs: fs}
}

// Save writes rec to path atomically.
func (s *Store) Save(path string, rec *Recording) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recording: %w", err)
	}
	if err := s.fs.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write recording: %w", err)
	}
	return nil
}

// Load reads the recording at path.
// Returns os.ErrNotExist if the file doesn't exist.
func (s *Store) Load(path string) (*Recording, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}

	var rec Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recording: %w", err)
	}
	if rec.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, rec.Version)
	}
	return &rec, nil
}
