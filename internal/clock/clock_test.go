package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func TestRealClock(t *testing.T) {
	clock := &RealClock{}

	t.Run("returns current time", func(t *testing.T) {
		before := time.Now()
		actual := clock.Now()
		after := time.Now()

		if actual.Before(before) || actual.After(after) {
			t.Errorf("RealClock.Now() returned time outside expected range: got %v, expected between %v and %v", actual, before, after)
		}
	})

	t.Run("ticker delivers", func(t *testing.T) {
		ticker := clock.NewTicker(time.Millisecond)
		defer ticker.Stop()

		select {
		case <-ticker.C():
		case <-time.After(time.Second):
			t.Fatal("no tick within a second")
		}
	})
}

func TestFakeClock_Advance(t *testing.T) {
	clock := NewFakeClock(epoch)

	t.Run("multiple advances accumulate", func(t *testing.T) {
		clock.Advance(1 * time.Hour)
		clock.Advance(30 * time.Minute)
		clock.Advance(15 * time.Second)

		expected := epoch.Add(1*time.Hour + 30*time.Minute + 15*time.Second)
		if actual := clock.Now(); !actual.Equal(expected) {
			t.Errorf("After multiple advances, Now() = %v, want %v", actual, expected)
		}
	})

	t.Run("set moves time backwards", func(t *testing.T) {
		past := epoch.Add(-24 * time.Hour)
		clock.Set(past)
		if actual := clock.Now(); !actual.Equal(past) {
			t.Errorf("After Set(), Now() = %v, want %v", actual, past)
		}
	})
}

func TestFakeClock_Ticker(t *testing.T) {
	t.Run("fires on each period", func(t *testing.T) {
		clock := NewFakeClock(epoch)
		ticker := clock.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		clock.Advance(50 * time.Millisecond)
		select {
		case <-ticker.C():
			t.Fatal("ticked before the period elapsed")
		default:
		}

		clock.Advance(50 * time.Millisecond)
		select {
		case now := <-ticker.C():
			if want := epoch.Add(100 * time.Millisecond); !now.Equal(want) {
				t.Errorf("tick time = %v, want %v", now, want)
			}
		default:
			t.Fatal("expected a tick")
		}
	})

	t.Run("drops ticks nobody received", func(t *testing.T) {
		clock := NewFakeClock(epoch)
		ticker := clock.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; i < 5; i++ {
			clock.Advance(10 * time.Millisecond)
		}
		<-ticker.C()
		select {
		case <-ticker.C():
			t.Error("expected only one buffered tick")
		default:
		}
	})

	t.Run("stop silences ticker", func(t *testing.T) {
		clock := NewFakeClock(epoch)
		ticker := clock.NewTicker(10 * time.Millisecond)
		ticker.Stop()

		clock.Advance(time.Second)
		select {
		case <-ticker.C():
			t.Error("stopped ticker fired")
		default:
		}
		if n := clock.Tickers(); n != 0 {
			t.Errorf("Tickers() = %d, want 0", n)
		}
	})
}
