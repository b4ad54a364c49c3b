// Package deal defines the pipeline record, its stage enumeration and lookup
// tables, and the normalization pass that fills in derived fields while
// reporting every change it makes.
package deal

import (
	"slices"
	"strings"
	"time"
)

// Stage is the pipeline stage of a deal.
type Stage string

// Pipeline stages.
const (
	StageLead        Stage = "Lead"
	StageQualified   Stage = "Qualified"
	StageProposal    Stage = "Proposal"
	StageNegotiation Stage = "Negotiation"
	StageWon         Stage = "Won"
	StageLost        Stage = "Lost"
)

// Stages lists all valid stages in pipeline order.
//
//nolint:gochecknoglobals // package-level constant
var Stages = []Stage{StageLead, StageQualified, StageProposal, StageNegotiation, StageWon, StageLost}

// ParseStage matches a stage name case-insensitively.
func ParseStage(s string) (Stage, bool) {
	for _, stage := range Stages {
		if strings.EqualFold(string(stage), s) {
			return stage, true
		}
	}

	return "", false
}

// Probability bounds.
const (
	MinProbability = 0
	MaxProbability = 100
)

// DateOnly is the date layout used for deal dates on the wire and in the CLI.
const DateOnly = "2006-01-02"

// Deal is a single pipeline record.
//
// The identifier is stable and matched case-insensitively. Area, MapLink and
// the weighted amount are derived; they are filled by normalization and are
// not patchable. Optional values use pointers so "absent" is distinguishable
// from zero.
type Deal struct {
	ID            string
	Name          string
	Owner         string
	Stage         Stage
	Probability   int
	Amount        *float64
	Location      string
	Area          string
	Region        string
	MapLink       string
	Created       time.Time
	CloseDate     *time.Time
	NextStep      string
	NextStepDate  *time.Time
	LastContact   *time.Time
	Tags          []string
	Forecast      bool
	PromoterName  string
	PromoterEmail string
	Notes         string
}

// WeightedAmount returns amount scaled by probability. It is always derived,
// never stored; deals without an amount report zero.
func (d *Deal) WeightedAmount() float64 {
	if d.Amount == nil {
		return 0
	}

	return *d.Amount * float64(d.Probability) / 100
}

// Clone returns a deep copy. Repositories hand out clones so caller mutation
// never reaches stored state.
func (d *Deal) Clone() Deal {
	out := *d

	out.Amount = clonePtr(d.Amount)
	out.CloseDate = clonePtr(d.CloseDate)
	out.NextStepDate = clonePtr(d.NextStepDate)
	out.LastContact = clonePtr(d.LastContact)
	out.Tags = slices.Clone(d.Tags)

	return out
}

// SameID reports whether the deal's identifier matches id, ignoring case.
func (d *Deal) SameID(id string) bool {
	return strings.EqualFold(d.ID, id)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}
