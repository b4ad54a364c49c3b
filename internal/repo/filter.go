package repo

import (
	"slices"
	"strings"
	"time"

	"dealpipe/internal/deal"
)

// DateField selects which deal date a filter's date range applies to.
type DateField string

// Date fields addressable by a filter.
const (
	DateCreated     DateField = "created"
	DateClose       DateField = "close"
	DateNextStep    DateField = "nextstep"
	DateLastContact DateField = "lastcontact"
)

// Filter is a conjunction of independent optional predicates. The zero
// filter matches every record.
type Filter struct {
	// Owner matches owner equality, case-insensitively.
	Owner string

	// Stages matches records whose stage is in the set.
	Stages []deal.Stage

	// Region matches region equality, case-insensitively.
	Region string

	// MinAmount/MaxAmount bound the amount inclusively. Records without an
	// amount never match a bounded filter.
	MinAmount *float64
	MaxAmount *float64

	// Search substring-matches name, owner, notes, next step and location,
	// case-insensitively.
	Search string

	// DateField plus DateFrom/DateTo restrict one of the deal dates to an
	// inclusive range. DateField defaults to the creation date.
	DateField DateField
	DateFrom  *time.Time
	DateTo    *time.Time

	// OverdueNextStep matches records whose next-step date lies before the
	// reference date.
	OverdueNextStep bool

	// NoContactInDays matches records with no contact within the last N days
	// before the reference date, including records never contacted.
	NoContactInDays int

	// Tags requires the record's tag set to be a superset, ignoring case.
	Tags []string

	// Promoter identity predicates, case-insensitive equality.
	PromoterName  string
	PromoterEmail string
}

// Matches reports whether the record satisfies every set predicate,
// evaluating relative predicates against ref.
//
//nolint:cyclop // one branch per independent predicate
func (f Filter) Matches(d *deal.Deal, ref time.Time) bool {
	if f.Owner != "" && !strings.EqualFold(d.Owner, f.Owner) {
		return false
	}

	if len(f.Stages) > 0 && !slices.Contains(f.Stages, d.Stage) {
		return false
	}

	if f.Region != "" && !strings.EqualFold(d.Region, f.Region) {
		return false
	}

	if !f.matchesAmount(d) {
		return false
	}

	if f.Search != "" && !matchesSearch(d, f.Search) {
		return false
	}

	if !f.matchesDateRange(d) {
		return false
	}

	if f.OverdueNextStep {
		if d.NextStepDate == nil || !d.NextStepDate.Before(ref) {
			return false
		}
	}

	if f.NoContactInDays > 0 {
		cutoff := ref.AddDate(0, 0, -f.NoContactInDays)
		if d.LastContact != nil && d.LastContact.After(cutoff) {
			return false
		}
	}

	if !matchesTags(d.Tags, f.Tags) {
		return false
	}

	if f.PromoterName != "" && !strings.EqualFold(d.PromoterName, f.PromoterName) {
		return false
	}

	if f.PromoterEmail != "" && !strings.EqualFold(d.PromoterEmail, f.PromoterEmail) {
		return false
	}

	return true
}

func (f Filter) matchesAmount(d *deal.Deal) bool {
	if f.MinAmount == nil && f.MaxAmount == nil {
		return true
	}

	if d.Amount == nil {
		return false
	}

	if f.MinAmount != nil && *d.Amount < *f.MinAmount {
		return false
	}

	if f.MaxAmount != nil && *d.Amount > *f.MaxAmount {
		return false
	}

	return true
}

func (f Filter) matchesDateRange(d *deal.Deal) bool {
	if f.DateFrom == nil && f.DateTo == nil {
		return true
	}

	value := f.dateValue(d)
	if value == nil {
		return false
	}

	if f.DateFrom != nil && value.Before(*f.DateFrom) {
		return false
	}

	if f.DateTo != nil && value.After(*f.DateTo) {
		return false
	}

	return true
}

// dateValue returns the deal date addressed by the filter, or nil when that
// date is absent.
func (f Filter) dateValue(d *deal.Deal) *time.Time {
	switch f.DateField {
	case DateClose:
		return d.CloseDate
	case DateNextStep:
		return d.NextStepDate
	case DateLastContact:
		return d.LastContact
	case DateCreated:
	default:
	}

	if d.Created.IsZero() {
		return nil
	}

	created := d.Created

	return &created
}

func matchesSearch(d *deal.Deal, search string) bool {
	needle := strings.ToLower(search)

	for _, haystack := range []string{d.Name, d.Owner, d.Notes, d.NextStep, d.Location} {
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}

	return false
}

// matchesTags reports whether have is a superset of want, ignoring case.
func matchesTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}

	set := make(map[string]bool, len(have))
	for _, tag := range have {
		set[strings.ToLower(tag)] = true
	}

	for _, tag := range want {
		if !set[strings.ToLower(strings.TrimSpace(tag))] {
			return false
		}
	}

	return true
}
