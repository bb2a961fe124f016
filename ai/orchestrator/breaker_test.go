package orchestrator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move through the recovery window without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(opts ...BreakerOption) (*Breaker, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	opts = append([]BreakerOption{withClock(clock.Now)}, opts...)
	return NewBreaker("test-agent", opts...), clock
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker()

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State(), "below threshold stays closed")
	assert.True(t, b.IsAvailable())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.IsAvailable())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker()

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State(), "the streak restarted after a success")
}

func TestBreaker_HalfOpenAfterRecoveryTimeout(t *testing.T) {
	b, clock := newTestBreaker()

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	require.Equal(t, StateOpen, b.State())

	clock.Advance(29 * time.Second)
	assert.Equal(t, StateOpen, b.State(), "still inside the recovery window")

	clock.Advance(2 * time.Second)
	assert.Equal(t, StateHalfOpen, b.State())
	assert.True(t, b.IsAvailable())
}

func TestBreaker_HalfOpenProbeOutcomes(t *testing.T) {
	t.Run("success closes", func(t *testing.T) {
		b, clock := newTestBreaker()
		for i := 0; i < 3; i++ {
			b.RecordFailure()
		}
		clock.Advance(31 * time.Second)
		require.Equal(t, StateHalfOpen, b.State())

		b.RecordSuccess()
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("failure reopens", func(t *testing.T) {
		b, clock := newTestBreaker()
		for i := 0; i < 3; i++ {
			b.RecordFailure()
		}
		clock.Advance(31 * time.Second)
		require.Equal(t, StateHalfOpen, b.State())

		b.RecordFailure()
		assert.Equal(t, StateOpen, b.State())
		assert.False(t, b.IsAvailable())
	})
}

func TestBreaker_ConfigurableThresholdAndTimeout(t *testing.T) {
	b, clock := newTestBreaker(
		WithFailureThreshold(1),
		WithRecoveryTimeout(time.Second),
	)

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())

	clock.Advance(1100 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestBreaker_TransitionHook(t *testing.T) {
	var transitions []string
	hook := func(name string, from, to BreakerState) {
		transitions = append(transitions, string(from)+"->"+string(to))
	}
	b, clock := newTestBreaker(WithTransitionHook(hook))

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	clock.Advance(31 * time.Second)
	b.State()
	b.RecordSuccess()

	assert.Equal(t, []string{
		"closed->open",
		"open->half_open",
		"half_open->closed",
	}, transitions)
}

func TestBreaker_ConcurrentRecording(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(1000000))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if (n+j)%2 == 0 {
					b.RecordFailure()
				} else {
					b.RecordSuccess()
				}
				b.IsAvailable()
			}
		}(i)
	}
	wg.Wait()
	assert.True(t, b.State() == StateClosed || b.State() == StateOpen)
}
