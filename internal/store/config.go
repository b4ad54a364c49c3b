package store

import "time"

// Tunables for backup retention and lock acquisition.
const (
	DefaultMaxBackups  = 5
	DefaultLockRetries = 20
	DefaultLockBackoff = 25 * time.Millisecond
)

// Config tunes the durable store. The zero value gets sensible defaults.
type Config struct {
	// MaxBackups is the number of timestamped backups retained next to the
	// durable file. Oldest are pruned first.
	MaxBackups int

	// LockRetries bounds how many times a commit re-attempts the lock
	// marker before giving up with ErrLockTimeout.
	LockRetries int

	// LockBackoff is the initial wait between lock attempts; it doubles
	// each retry.
	LockBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxBackups <= 0 {
		c.MaxBackups = DefaultMaxBackups
	}

	if c.LockRetries <= 0 {
		c.LockRetries = DefaultLockRetries
	}

	if c.LockBackoff <= 0 {
		c.LockBackoff = DefaultLockBackoff
	}

	return c
}
