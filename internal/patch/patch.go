// Package patch applies partial field-name to value updates against a fixed
// whitelist of mutable fields. Unknown and invalid fields are rejected
// individually with reasons; a request mixing valid and invalid fields is a
// partial success, never a silent drop.
package patch

import (
	"context"
	"sort"
	"strings"

	"dealpipe/internal/deal"
	"dealpipe/internal/env"
	"dealpipe/internal/repo"
)

// Rejection reasons for non-patchable fields.
const (
	reasonUnknown    = "unknown field"
	reasonDerived    = "derived field"
	reasonIdentifier = "identifier cannot be patched"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field  string
	Reason string
}

// Result is the outcome of one patch request.
//
// OK is true only when every requested field was applied. Applied and
// Rejected partition the input; Changes lists what normalization fixed on
// top of the requested edits, so callers can tell requested changes from
// system-applied ones. Deal is the resulting record whenever the target
// exists, even on partial success.
type Result struct {
	OK       bool
	Found    bool
	Deal     *deal.Deal
	Applied  []string
	Rejected []FieldError
	Changes  []deal.Change
}

// fieldSpec parses a raw value and applies it to a record.
type fieldSpec struct {
	name  string
	apply func(d *deal.Deal, raw string) error
}

// derivedFields are set by normalization only.
//
//nolint:gochecknoglobals // static whitelist
var derivedFields = map[string]bool{
	"area":    true,
	"maplink": true,
	"created": true,
}

// mutableFields is the static whitelist, keyed by lowercased field name.
// Built once; field matching is case-insensitive.
//
//nolint:gochecknoglobals // static whitelist
var mutableFields = buildWhitelist()

func buildWhitelist() map[string]fieldSpec {
	specs := []fieldSpec{
		{name: "Name", apply: func(d *deal.Deal, raw string) error { d.Name = raw; return nil }},
		{name: "Owner", apply: func(d *deal.Deal, raw string) error { d.Owner = raw; return nil }},
		{name: "Stage", apply: applyStage},
		{name: "Probability", apply: applyProbability},
		{name: "Amount", apply: applyAmount},
		{name: "Location", apply: applyLocation},
		{name: "Region", apply: func(d *deal.Deal, raw string) error { d.Region = raw; return nil }},
		{name: "NextStep", apply: func(d *deal.Deal, raw string) error { d.NextStep = raw; return nil }},
		{name: "NextStepDate", apply: applyDate(func(d *deal.Deal, t *timeValue) { d.NextStepDate = t.ptr() })},
		{name: "CloseDate", apply: applyDate(func(d *deal.Deal, t *timeValue) { d.CloseDate = t.ptr() })},
		{name: "LastContact", apply: applyDate(func(d *deal.Deal, t *timeValue) { d.LastContact = t.ptr() })},
		{name: "Tags", apply: applyTags},
		{name: "Forecast", apply: applyForecast},
		{name: "PromoterName", apply: func(d *deal.Deal, raw string) error { d.PromoterName = raw; return nil }},
		{name: "PromoterEmail", apply: func(d *deal.Deal, raw string) error { d.PromoterEmail = raw; return nil }},
		{name: "Notes", apply: func(d *deal.Deal, raw string) error { d.Notes = raw; return nil }},
	}

	out := make(map[string]fieldSpec, len(specs))
	for _, s := range specs {
		out[strings.ToLower(s.name)] = s
	}

	return out
}

// Apply applies the requested fields to a copy of target and normalizes the
// result if anything was applied. The input record is never mutated.
func Apply(target *deal.Deal, fields map[string]string, e env.Env) Result {
	record := target.Clone()

	result := Result{Found: true, Deal: &record}

	// Deterministic processing order regardless of map iteration.
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		result.applyField(&record, name, fields[name])
	}

	if len(result.Applied) > 0 {
		result.Changes = deal.Normalize(&record, e)
	}

	result.OK = len(result.Rejected) == 0

	return result
}

// applyField routes one input field through the whitelist.
func (r *Result) applyField(record *deal.Deal, name, raw string) {
	key := strings.ToLower(strings.TrimSpace(name))

	switch {
	case key == "id":
		r.Rejected = append(r.Rejected, FieldError{Field: name, Reason: reasonIdentifier})

		return
	case derivedFields[key]:
		r.Rejected = append(r.Rejected, FieldError{Field: name, Reason: reasonDerived})

		return
	}

	spec, ok := mutableFields[key]
	if !ok {
		r.Rejected = append(r.Rejected, FieldError{Field: name, Reason: reasonUnknown})

		return
	}

	applyErr := spec.apply(record, raw)
	if applyErr != nil {
		r.Rejected = append(r.Rejected, FieldError{Field: name, Reason: applyErr.Error()})

		return
	}

	r.Applied = append(r.Applied, spec.name)
}

// ApplyByID patches the record with the given identifier in the repository
// and saves when at least one field applied. A missing identifier yields a
// structured not-found result, not an error.
func ApplyByID(ctx context.Context, r repo.Repository, id string, fields map[string]string, e env.Env) (Result, error) {
	target, err := r.GetByID(ctx, id)
	if err != nil {
		return Result{}, err
	}

	if target == nil {
		return Result{Found: false}, nil
	}

	result := Apply(target, fields, e)

	if len(result.Applied) > 0 {
		stored, _, upsertErr := r.Upsert(ctx, *result.Deal)
		if upsertErr != nil {
			return Result{}, upsertErr
		}

		saveErr := r.SaveChanges(ctx)
		if saveErr != nil {
			return Result{}, saveErr
		}

		result.Deal = &stored
	}

	return result, nil
}
