package store

// SetCommitFailpoint installs a hook that runs after the temp file has been
// validated but before the backup and rename steps. Returning an error
// simulates a commit interrupted at that point. The returned func restores
// the previous hook.
func SetCommitFailpoint(hook func() error) (restore func()) {
	prev := commitFailpoint
	commitFailpoint = hook

	return func() { commitFailpoint = prev }
}

// AcquireLock exposes the lock primitive for contention tests.
var AcquireLock = acquireLock

// NextBackoff exposes the lock wait progression for the cap test.
var NextBackoff = nextBackoff

const MaxLockBackoff = maxLockBackoff
