package ratelimit

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/travelscout/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newLimiter(clock *fakeClock) *Service {
	return New(Config{Limit: 5, Window: time.Minute, Now: clock.Now}, zap.NewNop())
}

func TestCheck_FiveAllowedSixthLimited(t *testing.T) {
	clock := newFakeClock()
	rl := newLimiter(clock)

	for i := range 5 {
		d := rl.Check("1.2.3.4")
		assert.True(t, d.Allowed, "request %d", i+1)
		clock.Advance(time.Second)
	}

	d := rl.Check("1.2.3.4")
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.Equal(t, 55*time.Second, d.RetryAfter)
}

func TestCheck_RetryAfterRoundsUp(t *testing.T) {
	clock := newFakeClock()
	rl := newLimiter(clock)

	for range 5 {
		rl.Check("k")
	}
	clock.Advance(10*time.Second + 300*time.Millisecond)

	d := rl.Check("k")
	require.False(t, d.Allowed)
	assert.Equal(t, 50*time.Second, d.RetryAfter)
}

func TestCheck_RetryAfterAtLeastOneSecond(t *testing.T) {
	clock := newFakeClock()
	rl := newLimiter(clock)

	for range 5 {
		rl.Check("k")
	}
	clock.Advance(time.Minute)

	d := rl.Check("k")
	require.False(t, d.Allowed, "window boundary itself is still inside the window")
	assert.Equal(t, time.Second, d.RetryAfter)
}

func TestCheck_LimitedDoesNotExtendWindow(t *testing.T) {
	clock := newFakeClock()
	rl := newLimiter(clock)

	for range 5 {
		rl.Check("k")
	}
	for range 10 {
		assert.False(t, rl.Check("k").Allowed)
	}

	clock.Advance(time.Minute + time.Millisecond)
	assert.True(t, rl.Check("k").Allowed)
}

func TestCheck_ResetAfterWindow(t *testing.T) {
	clock := newFakeClock()
	rl := newLimiter(clock)

	for range 5 {
		require.True(t, rl.Check("k").Allowed)
	}
	require.False(t, rl.Check("k").Allowed)

	clock.Advance(61 * time.Second)
	require.True(t, rl.Check("k").Allowed)

	// count restarted at 1, so four more fit before the cap
	for range 4 {
		assert.True(t, rl.Check("k").Allowed)
	}
	assert.False(t, rl.Check("k").Allowed)
}

func TestCheck_WindowRestartsFromFirstRequestAfterExpiry(t *testing.T) {
	clock := newFakeClock()
	rl := newLimiter(clock)

	rl.Check("k")
	clock.Advance(90 * time.Second)
	rl.Check("k") // new window starts here
	clock.Advance(50 * time.Second)

	for range 4 {
		assert.True(t, rl.Check("k").Allowed)
	}
	d := rl.Check("k")
	assert.False(t, d.Allowed)
	assert.Equal(t, 10*time.Second, d.RetryAfter)
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	rl := newLimiter(clock)

	for range 5 {
		rl.Check("a")
	}
	assert.False(t, rl.Check("a").Allowed)
	assert.True(t, rl.Check("b").Allowed)
}

func TestCheck_ConcurrentBurstIsNotUndercounted(t *testing.T) {
	rl := New(Config{Limit: 5, Window: time.Hour}, zap.NewNop())

	const callers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Check("burst").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, allowed)
}

func TestSweep(t *testing.T) {
	clock := newFakeClock()
	rl := newLimiter(clock)

	rl.Check("old")
	clock.Advance(45 * time.Second)
	rl.Check("fresh")
	clock.Advance(30 * time.Second)

	assert.Equal(t, 1, rl.Sweep())
	assert.Equal(t, 1, rl.Len())

	// an evicted key starts over
	assert.True(t, rl.Check("old").Allowed)
	assert.Equal(t, 2, rl.Len())
}

func TestRun_StopsOnCancel(t *testing.T) {
	clock := newFakeClock()
	rl := newLimiter(clock)
	rl.Check("k")
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return rl.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNew_Defaults(t *testing.T) {
	rl := New(Config{}, zap.NewNop())
	assert.Equal(t, DefaultLimit, rl.limit)
	assert.Equal(t, DefaultWindow, rl.window)
}
