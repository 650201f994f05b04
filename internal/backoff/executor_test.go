package backoff

import (
	"errors"
	"testing"
	"time"

	"philcali.me/compliance/internal/exceptions"
)

func newTestExecutor(config Config, slept *[]time.Duration) *Executor {
	return &Executor{
		Config: config,
		Sleep: func(d time.Duration) {
			*slept = append(*slept, d)
		},
	}
}

func TestExecute(t *testing.T) {
	transient := exceptions.Throttled("Test.Op", errors.New("throttled"))

	t.Run("PermanentFailureAttemptsMaxRetriesPlusOne", func(t *testing.T) {
		var slept []time.Duration
		executor := newTestExecutor(Config{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Second, Jitter: JitterNone}, &slept)
		calls := 0
		result, err := executor.Execute("Test.Op", func() error {
			calls++
			return transient
		})
		if err == nil {
			t.Fatalf("Expected an error after exhaustion")
		}
		if calls != 4 || result.Attempts != 4 {
			t.Fatalf("Expected 4 attempts, but got %d calls and %d attempts", calls, result.Attempts)
		}
		if len(slept) != 3 {
			t.Fatalf("Expected 3 sleeps, but got %d", len(slept))
		}
	})

	t.Run("ZeroRetriesIsOneAttemptNoSleep", func(t *testing.T) {
		var slept []time.Duration
		executor := newTestExecutor(Config{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Second, Jitter: JitterNone}, &slept)
		result, err := executor.Execute("Test.Op", func() error {
			return transient
		})
		if err == nil {
			t.Fatalf("Expected the underlying error")
		}
		if result.Attempts != 1 {
			t.Fatalf("Expected 1 attempt, but got %d", result.Attempts)
		}
		if len(slept) != 0 {
			t.Fatalf("Expected no sleep, but got %v", slept)
		}
	})

	t.Run("NonRetryableFailsImmediately", func(t *testing.T) {
		var slept []time.Duration
		executor := newTestExecutor(Config{MaxRetries: 5, BaseDelay: time.Millisecond, MaxDelay: time.Second, Jitter: JitterNone}, &slept)
		calls := 0
		_, err := executor.Execute("Test.Op", func() error {
			calls++
			return exceptions.InvalidInput("missing field")
		})
		if err == nil || calls != 1 {
			t.Fatalf("Expected a single failed attempt, but got %d calls (%v)", calls, err)
		}
	})

	t.Run("SucceedsAfterTransientFailures", func(t *testing.T) {
		var slept []time.Duration
		executor := newTestExecutor(Config{MaxRetries: 5, BaseDelay: time.Millisecond, MaxDelay: time.Second, Jitter: JitterNone}, &slept)
		calls := 0
		result, err := executor.Execute("Test.Op", func() error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Expected success, but got %v", err)
		}
		if result.Attempts != 3 {
			t.Fatalf("Expected 3 attempts, but got %d", result.Attempts)
		}
		if result.TotalDelay != 3*time.Millisecond {
			t.Fatalf("Expected 1ms + 2ms of delay, but got %v", result.TotalDelay)
		}
	})

	t.Run("CallReturnsTheValue", func(t *testing.T) {
		var slept []time.Duration
		executor := newTestExecutor(Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Second, Jitter: JitterNone}, &slept)
		calls := 0
		value, result, err := Call(executor, "Test.Op", func() (string, error) {
			calls++
			if calls == 1 {
				return "", transient
			}
			return "done", nil
		})
		if err != nil || value != "done" {
			t.Fatalf("Expected done, but got %s (%v)", value, err)
		}
		if result.Attempts != 2 {
			t.Fatalf("Expected 2 attempts, but got %d", result.Attempts)
		}
	})
}

func TestDelayFor(t *testing.T) {
	t.Run("NoneIsExactExponential", func(t *testing.T) {
		executor := &Executor{Config: Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: JitterNone}}
		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			800 * time.Millisecond,
			time.Second,
			time.Second,
		}
		for attempt, want := range expected {
			if got := executor.DelayFor(attempt); got != want {
				t.Fatalf("Expected %v for attempt %d, but got %v", want, attempt, got)
			}
		}
	})

	t.Run("FullStaysWithinBounds", func(t *testing.T) {
		executor := &Executor{
			Config: Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: JitterFull},
			Rand:   func() float64 { return 0.999 },
		}
		for attempt := 0; attempt < 10; attempt++ {
			if got := executor.DelayFor(attempt); got > time.Second {
				t.Fatalf("Expected delay under the cap, but got %v", got)
			}
		}
		executor.Rand = func() float64 { return 0 }
		if got := executor.DelayFor(3); got != 0 {
			t.Fatalf("Expected full jitter floor of 0, but got %v", got)
		}
	})

	t.Run("EqualKeepsHalfTheDelay", func(t *testing.T) {
		executor := &Executor{
			Config: Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: JitterEqual},
			Rand:   func() float64 { return 0 },
		}
		if got := executor.DelayFor(1); got != 100*time.Millisecond {
			t.Fatalf("Expected half of 200ms, but got %v", got)
		}
		executor.Rand = func() float64 { return 0.999 }
		if got := executor.DelayFor(1); got > 200*time.Millisecond {
			t.Fatalf("Expected at most 200ms, but got %v", got)
		}
	})
}
