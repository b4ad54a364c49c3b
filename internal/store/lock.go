package store

import (
	"context"
	"fmt"
	"os"
	"time"
)

// lockSuffix marks the exclusive commit lock next to the durable file.
const lockSuffix = ".lock"

// maxLockBackoff caps the doubling wait between attempts, so the retry
// budget resolves in seconds of wall time rather than growing unbounded.
const maxLockBackoff = 2 * time.Second

// acquireLock creates the lock marker with O_CREATE|O_EXCL, which is atomic
// on every platform we care about: exactly one process wins. The marker
// records the owner's pid for post-crash diagnosis. On contention the
// attempt is retried with exponential backoff up to cfg.LockRetries, then
// fails with ErrLockTimeout.
//
// ctx is honored only while waiting; once the marker exists the commit runs
// to completion so the release path always executes.
func acquireLock(ctx context.Context, path string, cfg Config) (release func(), err error) {
	lockPath := path + lockSuffix
	backoff := cfg.LockBackoff

	for attempt := 0; ; attempt++ {
		file, createErr := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600) //nolint:gosec // lock marker
		if createErr == nil {
			fmt.Fprintf(file, "%d\n", os.Getpid())

			closeErr := file.Close()
			if closeErr != nil {
				_ = os.Remove(lockPath)

				return nil, fmt.Errorf("write lock marker: %w", closeErr)
			}

			return func() { _ = os.Remove(lockPath) }, nil
		}

		if !os.IsExist(createErr) {
			return nil, fmt.Errorf("create lock marker: %w", createErr)
		}

		if attempt >= cfg.LockRetries {
			return nil, fmt.Errorf("%w: %s held by another process", ErrLockTimeout, lockPath)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		backoff = nextBackoff(backoff)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxLockBackoff {
		return maxLockBackoff
	}

	return d
}
