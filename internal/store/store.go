// Package store implements the durable, file-backed repository: structural
// validation and schema migration on load, an atomic five-step commit
// protocol guarded by a cross-process lock marker, and timestamped backup
// rotation with restore on corruption.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"dealpipe/internal/deal"
	"dealpipe/internal/env"
	"dealpipe/internal/repo"
	"dealpipe/internal/tablefile"
)

// Store errors.
var (
	// ErrIntegrity indicates structural validation failed and no backup
	// could be restored. No partial state is ever exposed.
	ErrIntegrity = errors.New("store integrity")

	// ErrUnsupportedVersion is tablefile's sentinel, re-exported so callers
	// depend on one package for store failures.
	ErrUnsupportedVersion = tablefile.ErrUnsupportedVersion

	// ErrLockTimeout indicates the exclusive lock marker could not be
	// acquired within the retry budget. Nothing was written; the operation
	// is safely retryable.
	ErrLockTimeout = errors.New("lock timeout")
)

const filePerms = 0o644

// FileStore is the durable implementation of repo.Repository. One instance
// holds the full record list in memory and persists it with SaveChanges.
//
// Mutations are visible to reads on the same instance immediately; other
// processes observe them only after a successful commit. Loads are not
// serialized by the commit lock: a concurrent reader may lag a committing
// writer, but the atomic rename guarantees it never sees a torn file.
type FileStore struct {
	path string
	cfg  Config
	env  env.Env

	// commitMu serializes commits within the process; the lock marker
	// serializes them across processes.
	commitMu sync.Mutex

	mu    sync.RWMutex
	deals []deal.Deal
	dirty bool
	// gen counts mutations. A commit records the generation of its snapshot
	// and clears dirty only if no mutation landed while it was writing.
	gen uint64
}

var _ repo.Repository = (*FileStore)(nil)

// Open loads the durable file at path, bootstrapping an empty record set at
// the current schema version when the file does not exist.
//
// An existing file is structurally validated before any in-memory state is
// touched. On validation failure the most recent healthy backup is used
// instead; if no backup helps, Open returns ErrIntegrity. A supported older
// layout is migrated in memory and the store marked dirty so the upgrade
// persists on the next commit. A version outside the supported set fails
// with ErrUnsupportedVersion before any record is read.
func Open(path string, cfg Config, e env.Env) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}

	s := &FileStore{path: path, cfg: cfg.withDefaults(), env: e}

	data, readErr := os.ReadFile(path) //nolint:gosec // configured store file
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return s, nil
		}

		return nil, fmt.Errorf("read store file: %w", readErr)
	}

	if loadErr := s.load(data); loadErr != nil {
		return nil, loadErr
	}

	return s, nil
}

func (s *FileStore) load(data []byte) error {
	doc, problem := parseAndValidate(data)
	if problem != nil {
		restored, restoreErr := s.restoreFromBackup()
		if restoreErr != nil {
			return fmt.Errorf("%w: %w (backup restore: %w)", ErrIntegrity, problem, restoreErr)
		}

		doc = restored
		// The restored content differs from the broken durable file. Mark
		// dirty so the next commit persists it; the broken file itself is
		// preserved as a backup by the commit protocol before replacement.
		s.dirty = true
	}

	version := tablefile.DetectVersion(&doc)
	if !tablefile.IsSupported(version) {
		return fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedVersion, version, strings.Join(tablefile.SupportedVersions(), ", "))
	}

	if version != tablefile.CurrentVersion {
		if _, migrateErr := tablefile.Migrate(&doc); migrateErr != nil {
			return migrateErr
		}

		s.dirty = true
	}

	deals, decodeErr := tablefile.DecodeDeals(doc.Table(tablefile.TableDeals))
	if decodeErr != nil {
		return fmt.Errorf("%w: %w", ErrIntegrity, decodeErr)
	}

	// Repair legacy and hand-edited rows the same way as fresh writes.
	for i := range deals {
		if changes := deal.Normalize(&deals[i], s.env); len(changes) > 0 {
			s.dirty = true
		}
	}

	s.deals = deals

	return nil
}

// parseAndValidate decodes bytes and checks structure. The commit protocol
// re-runs the exact same check against its temp file.
func parseAndValidate(data []byte) (tablefile.Document, error) {
	doc, decodeErr := tablefile.Decode(data)
	if decodeErr != nil {
		return tablefile.Document{}, decodeErr
	}

	if result := tablefile.Validate(&doc); !result.OK {
		return tablefile.Document{}, fmt.Errorf("structural validation: %s", strings.Join(result.Problems, "; "))
	}

	return doc, nil
}

// Path returns the durable file path.
func (s *FileStore) Path() string {
	return s.path
}

// Dirty reports whether in-memory state diverges from the durable file.
func (s *FileStore) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dirty
}

// Validate re-checks the durable file's structural health on demand. A
// missing file reports as an empty, current-version store.
func (s *FileStore) Validate() (tablefile.ValidationResult, error) {
	data, readErr := os.ReadFile(s.path) //nolint:gosec // configured store file
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return tablefile.ValidationResult{OK: true, Version: tablefile.CurrentVersion, VersionSupported: true}, nil
		}

		return tablefile.ValidationResult{}, fmt.Errorf("read store file: %w", readErr)
	}

	doc, decodeErr := tablefile.Decode(data)
	if decodeErr != nil {
		return tablefile.ValidationResult{Problems: []string{decodeErr.Error()}}, nil
	}

	return tablefile.Validate(&doc), nil
}

// GetAll implements repo.Repository.
func (s *FileStore) GetAll(_ context.Context) ([]deal.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]deal.Deal, 0, len(s.deals))
	for i := range s.deals {
		out = append(out, s.deals[i].Clone())
	}

	return out, nil
}

// GetByID implements repo.Repository.
func (s *FileStore) GetByID(_ context.Context, id string) (*deal.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.deals {
		if s.deals[i].SameID(id) {
			clone := s.deals[i].Clone()

			return &clone, nil
		}
	}

	return nil, nil //nolint:nilnil // absence is not an error
}

// Query implements repo.Repository.
func (s *FileStore) Query(_ context.Context, f repo.Filter, ref time.Time) ([]deal.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []deal.Deal

	for i := range s.deals {
		if f.Matches(&s.deals[i], ref) {
			out = append(out, s.deals[i].Clone())
		}
	}

	return out, nil
}

// Upsert implements repo.Repository.
func (s *FileStore) Upsert(_ context.Context, d deal.Deal) (deal.Deal, []deal.Change, error) {
	record := d.Clone()
	changes := deal.Normalize(&record, s.env)

	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false

	for i := range s.deals {
		if s.deals[i].SameID(record.ID) {
			s.deals[i] = record
			replaced = true

			break
		}
	}

	if !replaced {
		s.deals = append(s.deals, record)
	}

	s.markDirty()

	return record.Clone(), changes, nil
}

// markDirty notes a pending mutation. Callers must hold mu.
func (s *FileStore) markDirty() {
	s.dirty = true
	s.gen++
}

// UpsertMany implements repo.Repository.
func (s *FileStore) UpsertMany(ctx context.Context, ds []deal.Deal) ([]deal.Deal, error) {
	out := make([]deal.Deal, 0, len(ds))

	for _, d := range ds {
		stored, _, upsertErr := s.Upsert(ctx, d)
		if upsertErr != nil {
			return nil, upsertErr
		}

		out = append(out, stored)
	}

	return out, nil
}

// Delete implements repo.Repository. Deleting a missing identifier is a
// no-op and does not dirty the store.
func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.deals {
		if s.deals[i].SameID(id) {
			s.deals = append(s.deals[:i], s.deals[i+1:]...)
			s.markDirty()

			break
		}
	}

	return nil
}
