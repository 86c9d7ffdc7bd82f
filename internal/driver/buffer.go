package driver

// Sample is one planned step, in normalized coordinates.
type Sample struct {
	Position float64 `json:"position"`
	Velocity float64 `json:"velocity"`

	// PlanID identifies the plan that produced the sample and Step is its
	// index k within that plan.
	PlanID string `json:"plan_id"`
	Step   int    `json:"step"`
}

// Buffer is the ordered queue of planned samples. Samples only leave from the
// head; new plans are added at the tail or replace everything.
type Buffer struct {
	samples []Sample
}

// Append adds samples after the existing ones.
func (b *Buffer) Append(samples ...Sample) {
	b.samples = append(b.samples, samples...)
}

// Replace discards every queued sample, queues samples instead, and returns
// the number discarded.
func (b *Buffer) Replace(samples ...Sample) int {
	dropped := len(b.samples)
	b.samples = append([]Sample(nil), samples...)
	return dropped
}

// Pop removes and returns the head sample.
func (b *Buffer) Pop() (Sample, bool) {
	if len(b.samples) == 0 {
		return Sample{}, false
	}
	s := b.samples[0]
	b.samples = b.samples[1:]
	return s, true
}

// Len returns the number of queued samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Segments returns the number of runs of consecutive samples from the same
// plan.
func (b *Buffer) Segments() int {
	n := 0
	for i, s := range b.samples {
		if i == 0 || s.PlanID != b.samples[i-1].PlanID {
			n++
		}
	}
	return n
}

// Positions returns the queued positions in order.
func (b *Buffer) Positions() []float64 {
	out := make([]float64, len(b.samples))
	for i, s := range b.samples {
		out[i] = s.Position
	}
	return out
}
