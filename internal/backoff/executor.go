package backoff

import (
	"log/slog"
	"math/rand"
	"time"

	"philcali.me/compliance/internal/exceptions"
)

type JitterType string

const (
	JitterNone  JitterType = "none"
	JitterFull  JitterType = "full"
	JitterEqual JitterType = "equal"
)

type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     JitterType
}

func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Jitter:     JitterFull,
	}
}

type Result struct {
	Attempts   int
	TotalDelay time.Duration
}

// Executor retries a unit of work with capped exponential delay. It holds
// only configuration, so one instance serves any number of concurrent
// callers. Cancellation is not modeled; a started operation runs to success
// or exhaustion.
type Executor struct {
	Config    Config
	Logger    *slog.Logger
	Retryable func(error) bool
	Sleep     func(time.Duration)
	Rand      func() float64
}

func NewExecutor(config Config, logger *slog.Logger) *Executor {
	return &Executor{
		Config: config,
		Logger: logger,
	}
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Executor) retryable(err error) bool {
	if e.Retryable == nil {
		return exceptions.IsRetryable(err)
	}
	return e.Retryable(err)
}

func (e *Executor) pause(delay time.Duration) {
	if e.Sleep == nil {
		time.Sleep(delay)
		return
	}
	e.Sleep(delay)
}

func (e *Executor) random() float64 {
	if e.Rand == nil {
		return rand.Float64()
	}
	return e.Rand()
}

// DelayFor computes the jittered delay for a zero-based attempt number,
// never exceeding MaxDelay.
func (e *Executor) DelayFor(attempt int) time.Duration {
	delay := e.Config.BaseDelay
	for i := 0; i < attempt && delay < e.Config.MaxDelay; i++ {
		delay *= 2
	}
	if delay > e.Config.MaxDelay {
		delay = e.Config.MaxDelay
	}
	switch e.Config.Jitter {
	case JitterFull:
		return time.Duration(e.random() * float64(delay))
	case JitterEqual:
		half := delay / 2
		return half + time.Duration(e.random()*float64(half))
	default:
		return delay
	}
}

// Pause sleeps for the attempt's computed delay. Batch operations use it
// between rounds when the store reports unprocessed work without an error
// for Execute to see.
func (e *Executor) Pause(attempt int) time.Duration {
	delay := e.DelayFor(attempt)
	e.pause(delay)
	return delay
}

func (e *Executor) Execute(label string, operation func() error) (Result, error) {
	result := Result{}
	for attempt := 0; ; attempt++ {
		result.Attempts = attempt + 1
		err := operation()
		if err == nil {
			return result, nil
		}
		if attempt >= e.Config.MaxRetries || !e.retryable(err) {
			return result, err
		}
		delay := e.DelayFor(attempt)
		e.logger().Warn("retrying operation",
			"operation", label,
			"attempt", result.Attempts,
			"delay", delay,
			"error", err)
		result.TotalDelay += delay
		e.pause(delay)
	}
}

// Call wraps Execute for operations that produce a value.
func Call[T interface{}](e *Executor, label string, operation func() (T, error)) (T, Result, error) {
	var value T
	result, err := e.Execute(label, func() error {
		var innerErr error
		value, innerErr = operation()
		return innerErr
	})
	return value, result, err
}
