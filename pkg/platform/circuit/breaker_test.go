package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// play feeds outcomes to b: 'F' records a failure, 'S' a success. It returns
// whether the last outcome allowed the primary result and the last change.
func play(b *Breaker, outcomes string) (primary bool, change StateChange) {
	for _, o := range outcomes {
		switch o {
		case 'F':
			var fallback bool
			fallback, change = b.RecordFailure()
			primary = !fallback
		case 'S':
			primary, change = b.RecordSuccess()
		}
	}
	return primary, change
}

func TestBreakerSequences(t *testing.T) {
	tests := []struct {
		name        string
		failures    int
		successes   int
		outcomes    string
		wantOpen    bool
		wantPrimary bool
		wantChange  StateChange
	}{
		{name: "fresh breaker serves primary", failures: 3, successes: 2, outcomes: "S", wantPrimary: true},
		{name: "below the failure threshold", failures: 3, successes: 2, outcomes: "FF", wantPrimary: true},
		{name: "threshold failure opens", failures: 3, successes: 2, outcomes: "FFF", wantOpen: true, wantChange: StateChange{Opened: true}},
		{name: "success clears the failure streak", failures: 3, successes: 2, outcomes: "FFSFF", wantPrimary: true},
		{name: "further failures while open change nothing", failures: 1, successes: 2, outcomes: "FF", wantOpen: true},
		{name: "one success is not enough to close", failures: 1, successes: 2, outcomes: "FS", wantOpen: true},
		{name: "success threshold closes", failures: 1, successes: 2, outcomes: "FSS", wantPrimary: true, wantChange: StateChange{Closed: true}},
		{name: "failure restarts the success streak", failures: 1, successes: 3, outcomes: "FSSFSS", wantOpen: true},
		{name: "full success streak after a relapse", failures: 1, successes: 3, outcomes: "FSSFSSS", wantPrimary: true, wantChange: StateChange{Closed: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("compliance", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.successes))
			primary, change := play(b, tt.outcomes)
			assert.Equal(t, tt.wantOpen, b.IsOpen())
			assert.Equal(t, tt.wantPrimary, primary)
			assert.Equal(t, tt.wantChange, change)
		})
	}
}

func TestBreakerDefaults(t *testing.T) {
	b := New("compliance", WithFailureThreshold(0), WithSuccessThreshold(-1))
	assert.Equal(t, "compliance", b.Name())
	assert.Equal(t, StateClosed, b.State())

	for range defaultFailureThreshold - 1 {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen(), "non-positive thresholds fall back to defaults")
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreakerReset(t *testing.T) {
	b := New("compliance", WithFailureThreshold(1))
	play(b, "FS")
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	primary, change := play(b, "S")
	assert.True(t, primary)
	assert.Equal(t, StateChange{}, change)
}

func TestBreakerReportsOpeningOnce(t *testing.T) {
	b := New("compliance", WithFailureThreshold(5))
	var mu sync.Mutex
	opened := 0

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.True(t, b.IsOpen())
	assert.Equal(t, 1, opened)
}
