package health

import (
	"context"
	"runtime"
	"time"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck flags a goroutine leak once the count passes the
// threshold.
func GoroutineCountCheck(threshold int) Check {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// Pinger is satisfied by pgxpool.Pool and redis clients alike.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck probes any Pinger, typically the database pool.
func PingCheck(p Pinger) Check {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// DeadlineCheck wraps a check with an extra hard deadline on top of the
// probe timeout, for checks against dependencies known to hang.
func DeadlineCheck(d time.Duration, check Check) Check {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return check(ctx)
	}
}
