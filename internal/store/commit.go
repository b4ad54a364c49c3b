package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	atomicfile "github.com/natefinch/atomic"

	"dealpipe/internal/deal"
	"dealpipe/internal/tablefile"
)

// backupTimeLayout names backups so lexical order is chronological order.
const backupTimeLayout = "20060102T150405"

// tempCounter disambiguates temp files from concurrent commit attempts of
// the same process.
//
//nolint:gochecknoglobals // per-process counter
var tempCounter atomic.Uint64

// commitFailpoint, when non-nil, runs between temp-file validation and the
// backup/rename steps. Test hook for simulating interruption; a returned
// error aborts the commit. See export_test.go.
//
//nolint:gochecknoglobals // test hook
var commitFailpoint func() error

// SaveChanges persists the in-memory record set with the five-step commit:
//
//  1. encode to a uniquely named temp file in the target directory
//  2. re-read and structurally validate the temp file
//  3. copy the current durable file to a timestamped backup
//  4. atomically rename the temp file over the durable file
//  5. prune backups beyond the retention limit
//
// A failure before step 4 leaves the durable file byte-identical; step 4 is
// a single atomic rename, so a reader observes either the old file or the
// new one, never a mix. A clean store commits nothing and returns nil.
//
// ctx is honored only while waiting for the cross-process lock; once the
// lock is held the commit runs to completion.
func (s *FileStore) SaveChanges(ctx context.Context) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.RLock()
	dirty := s.dirty
	gen := s.gen
	snapshot := make([]deal.Deal, 0, len(s.deals))

	for i := range s.deals {
		snapshot = append(snapshot, s.deals[i].Clone())
	}
	s.mu.RUnlock()

	if !dirty {
		return nil
	}

	release, lockErr := acquireLock(ctx, s.path, s.cfg)
	if lockErr != nil {
		return lockErr
	}
	defer release()

	commitErr := s.commit(snapshot)
	if commitErr != nil {
		return commitErr
	}

	s.mu.Lock()
	// A mutation that landed after the snapshot is not in the committed
	// file; leave the store dirty so the next commit picks it up.
	if s.gen == gen {
		s.dirty = false
	}
	s.mu.Unlock()

	return nil
}

func (s *FileStore) commit(snapshot []deal.Deal) error {
	doc := tablefile.BuildDocument(snapshot, s.env.Now())

	data, encodeErr := tablefile.Encode(doc)
	if encodeErr != nil {
		return encodeErr
	}

	// Step 1: temp file in the target directory, unique per attempt so a
	// crashed commit never collides with a later one.
	tempPath := fmt.Sprintf("%s.tmp-%d-%d", s.path, os.Getpid(), tempCounter.Add(1))

	writeErr := writeFileSync(tempPath, data)
	if writeErr != nil {
		return fmt.Errorf("write temp file: %w", writeErr)
	}
	defer os.Remove(tempPath) //nolint:errcheck // gone after a successful rename

	// Step 2: trust nothing until the bytes on disk round-trip through the
	// same validation the loader runs.
	written, readErr := os.ReadFile(tempPath) //nolint:gosec // our own temp file
	if readErr != nil {
		return fmt.Errorf("read back temp file: %w", readErr)
	}

	if _, validateErr := parseAndValidate(written); validateErr != nil {
		return fmt.Errorf("%w: temp file failed validation: %w", ErrIntegrity, validateErr)
	}

	if commitFailpoint != nil {
		if hookErr := commitFailpoint(); hookErr != nil {
			return hookErr
		}
	}

	// Step 3: back up the file about to be replaced.
	if _, statErr := os.Stat(s.path); statErr == nil {
		backupErr := s.writeBackup()
		if backupErr != nil {
			return fmt.Errorf("write backup: %w", backupErr)
		}
	} else if !os.IsNotExist(statErr) {
		return fmt.Errorf("stat store file: %w", statErr)
	}

	// Step 4: the commit point.
	replaceErr := atomicfile.ReplaceFile(tempPath, s.path)
	if replaceErr != nil {
		return fmt.Errorf("replace store file: %w", replaceErr)
	}

	// Step 5: retention. The commit already succeeded; prune failures only
	// leave extra backups behind.
	s.pruneBackups()

	return nil
}

// maxBackupCollisions bounds same-second name disambiguation.
const maxBackupCollisions = 99

// writeBackup copies the durable file to a fresh timestamped backup:
// {base}_{stamp}{ext}.bak next to the durable file, stamped from the
// injected clock. Backups are immutable: the file is created exclusively,
// and a commit landing in the same clock second gets a disambiguating
// "_NN" suffix that keeps lexical order chronological.
func (s *FileStore) writeBackup() error {
	dir := filepath.Dir(s.path)
	base := filepath.Base(s.path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	stamp := s.env.Now().UTC().Format(backupTimeLayout)

	name := filepath.Join(dir, fmt.Sprintf("%s_%s%s.bak", stem, stamp, ext))

	for n := 1; ; n++ {
		copyErr := copyFile(s.path, name, filePerms)
		if copyErr == nil {
			return nil
		}

		if !os.IsExist(copyErr) {
			return copyErr
		}

		if n > maxBackupCollisions {
			return fmt.Errorf("no free backup name after %s", name)
		}

		name = filepath.Join(dir, fmt.Sprintf("%s_%s_%02d%s.bak", stem, stamp, n, ext))
	}
}

// Backups lists backup paths for the durable file, newest first.
func (s *FileStore) Backups() ([]string, error) {
	return ListBackups(s.path)
}

// ListBackups lists backup paths for a durable file, newest first. Works
// without opening the store, so a corrupt file can still be inspected.
func ListBackups(path string) ([]string, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	pattern := filepath.Join(filepath.Dir(path), stem+"_*"+ext+".bak")

	matches, globErr := filepath.Glob(pattern)
	if globErr != nil {
		return nil, fmt.Errorf("list backups: %w", globErr)
	}

	// Timestamps in the name sort lexically; reverse for newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))

	return matches, nil
}

func (s *FileStore) pruneBackups() {
	backups, listErr := s.Backups()
	if listErr != nil {
		return
	}

	for _, old := range backups[min(len(backups), s.cfg.MaxBackups):] {
		_ = os.Remove(old)
	}
}

// restoreFromBackup returns the newest backup document that passes
// structural validation.
func (s *FileStore) restoreFromBackup() (tablefile.Document, error) {
	backups, listErr := s.Backups()
	if listErr != nil {
		return tablefile.Document{}, listErr
	}

	if len(backups) == 0 {
		return tablefile.Document{}, fmt.Errorf("no backups found for %s", s.path)
	}

	var lastErr error

	for _, backup := range backups {
		data, readErr := os.ReadFile(backup) //nolint:gosec // our own backup file
		if readErr != nil {
			lastErr = readErr

			continue
		}

		doc, validateErr := parseAndValidate(data)
		if validateErr != nil {
			lastErr = fmt.Errorf("%s: %w", backup, validateErr)

			continue
		}

		return doc, nil
	}

	return tablefile.Document{}, lastErr
}

func writeFileSync(path string, data []byte) error {
	file, openErr := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerms) //nolint:gosec // temp file
	if openErr != nil {
		return openErr
	}

	_, writeErr := file.Write(data)
	if writeErr != nil {
		_ = file.Close()

		return writeErr
	}

	syncErr := file.Sync()
	if syncErr != nil {
		_ = file.Close()

		return syncErr
	}

	return file.Close()
}

func copyFile(src, dst string, perms os.FileMode) error {
	in, openErr := os.Open(src) //nolint:gosec // store file
	if openErr != nil {
		return openErr
	}
	defer in.Close() //nolint:errcheck // read side

	// Exclusive create: an existing backup is never overwritten.
	out, createErr := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perms) //nolint:gosec // backup file
	if createErr != nil {
		return createErr
	}

	_, copyErr := io.Copy(out, in)
	if copyErr != nil {
		_ = out.Close()

		return copyErr
	}

	syncErr := out.Sync()
	if syncErr != nil {
		_ = out.Close()

		return syncErr
	}

	return out.Close()
}
