// Package repo defines the repository contract shared by the in-memory
// reference implementation and the durable file store, plus the query filter
// both evaluate.
package repo

import (
	"context"
	"time"

	"dealpipe/internal/deal"
)

// Repository is the CRUD/query contract over pipeline records.
//
// All reads return defensive copies; mutating a returned record never
// affects stored state. Mutations are visible to subsequent reads on the
// same instance immediately; cross-process durability happens only at a
// successful SaveChanges. Readers concurrent with a commit may lag behind
// it but never observe a torn file.
type Repository interface {
	// GetAll returns a copy of every record.
	GetAll(ctx context.Context) ([]deal.Deal, error)

	// GetByID returns the record with the given identifier, matched
	// case-insensitively, or nil if no such record exists.
	GetByID(ctx context.Context, id string) (*deal.Deal, error)

	// Query returns copies of all records matching the filter. Relative
	// predicates are evaluated against ref, never the wall clock.
	Query(ctx context.Context, f Filter, ref time.Time) ([]deal.Deal, error)

	// Upsert normalizes the record and stores it, replacing any record with
	// the same identifier (case-insensitive) or appending a new one. It
	// returns the stored copy and the normalization change list.
	Upsert(ctx context.Context, d deal.Deal) (deal.Deal, []deal.Change, error)

	// UpsertMany upserts records in order and returns the stored copies.
	UpsertMany(ctx context.Context, ds []deal.Deal) ([]deal.Deal, error)

	// Delete removes the record with the given identifier. Deleting a
	// missing identifier is a no-op, not an error.
	Delete(ctx context.Context, id string) error

	// SaveChanges persists pending mutations. A no-op for purely in-memory
	// implementations.
	SaveChanges(ctx context.Context) error
}
