package patch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dealpipe/internal/deal"
)

// Parse errors surfaced as per-field rejection reasons.
var (
	errProbabilityRange  = errors.New("probability out of range 0-100")
	errProbabilityNumber = errors.New("probability is not a whole number")
	errAmountNegative    = errors.New("amount cannot be negative")
	errAmountNumber      = errors.New("amount is not a number")
	errDateUnparseable   = errors.New("unparseable date")
	errUnknownStage      = errors.New("unknown stage")
	errBoolUnparseable   = errors.New("not a boolean")
)

// dateLayouts are accepted date formats, tried in order: ISO first, then a
// few common interchange forms.
//
//nolint:gochecknoglobals // static parse table
var dateLayouts = []string{
	deal.DateOnly,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
}

func applyStage(d *deal.Deal, raw string) error {
	stage, ok := deal.ParseStage(strings.TrimSpace(raw))
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownStage, raw)
	}

	d.Stage = stage

	return nil
}

func applyProbability(d *deal.Deal, raw string) error {
	p, parseErr := strconv.Atoi(strings.TrimSpace(raw))
	if parseErr != nil {
		return errProbabilityNumber
	}

	if p < deal.MinProbability || p > deal.MaxProbability {
		return errProbabilityRange
	}

	d.Probability = p

	return nil
}

func applyAmount(d *deal.Deal, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.Amount = nil

		return nil
	}

	amount, parseErr := strconv.ParseFloat(raw, 64)
	if parseErr != nil {
		return errAmountNumber
	}

	if amount < 0 {
		return errAmountNegative
	}

	d.Amount = &amount

	return nil
}

// applyLocation resets the derived fields so normalization re-derives them
// from the new location.
func applyLocation(d *deal.Deal, raw string) error {
	d.Location = strings.TrimSpace(raw)
	d.Area = ""
	d.Region = ""
	d.MapLink = ""

	return nil
}

func applyForecast(d *deal.Deal, raw string) error {
	value, ok := ParseBool(raw)
	if !ok {
		return fmt.Errorf("%w: %q", errBoolUnparseable, raw)
	}

	d.Forecast = value

	return nil
}

func applyTags(d *deal.Deal, raw string) error {
	d.Tags = deal.NormalizeTags(strings.Split(raw, ","))

	return nil
}

// timeValue distinguishes "clear the date" from a parsed date.
type timeValue struct {
	t     time.Time
	clear bool
}

func (v *timeValue) ptr() *time.Time {
	if v.clear {
		return nil
	}

	t := v.t

	return &t
}

// applyDate builds an apply func for one of the optional date fields.
// An empty value clears the date.
func applyDate(set func(d *deal.Deal, t *timeValue)) func(d *deal.Deal, raw string) error {
	return func(d *deal.Deal, raw string) error {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			set(d, &timeValue{clear: true})

			return nil
		}

		parsed, parseErr := parseDate(raw)
		if parseErr != nil {
			return parseErr
		}

		set(d, &timeValue{t: parsed})

		return nil
	}
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", errDateUnparseable, raw)
}

// ParseBool accepts several case-insensitive textual boolean forms. Used by
// callers translating textual input (CLI flags, patch payloads) into filter
// predicates.
func ParseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "y", "1", "on":
		return true, true
	case "false", "no", "n", "0", "off":
		return false, true
	}

	return false, false
}
