package deal

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"dealpipe/internal/env"
)

// mapLinkBase is the prefix of synthesized map links.
const mapLinkBase = "https://www.google.com/maps/search/?api=1&query="

// Change records one field normalization fixed, with the reason. Changes are
// ephemeral: they are reported to the caller and never persisted.
type Change struct {
	Field  string
	Old    string
	New    string
	Reason string
}

// Normalize canonicalizes a deal in place and returns one Change per rule
// that fired. It runs on every create, update and load, so hand-edited and
// legacy rows are repaired the same way as fresh writes.
//
// Every rule is a pure function of the deal plus the injected environment
// and the static lookup tables: identical input and environment always yield
// an identical record and change list. A second consecutive pass is a no-op.
func Normalize(d *Deal, e env.Env) []Change {
	var changes []Change

	if d.ID == "" {
		d.ID = e.NewID()
		changes = append(changes, Change{Field: "ID", New: d.ID, Reason: "generated identifier"})
	}

	if d.Probability <= MinProbability {
		if def, ok := DefaultProbability(d.Stage); ok && def != d.Probability {
			changes = append(changes, Change{
				Field:  "Probability",
				Old:    strconv.Itoa(d.Probability),
				New:    strconv.Itoa(def),
				Reason: "stage default probability",
			})
			d.Probability = def
		}
	}

	changes = append(changes, normalizeLocation(d)...)

	if d.Created.IsZero() {
		d.Created = dateOf(e.Now())
		changes = append(changes, Change{
			Field:  "Created",
			New:    d.Created.Format(DateOnly),
			Reason: "defaulted to today",
		})
	}

	if normalized := NormalizeTags(d.Tags); !slices.Equal(normalized, d.Tags) {
		changes = append(changes, Change{
			Field:  "Tags",
			Old:    strings.Join(d.Tags, ", "),
			New:    strings.Join(normalized, ", "),
			Reason: "tags deduplicated",
		})
		d.Tags = normalized
	}

	return changes
}

// normalizeLocation derives area, region and map link from the raw location.
func normalizeLocation(d *Deal) []Change {
	if d.Location == "" {
		return nil
	}

	var changes []Change

	if area := AreaFromLocation(d.Location); area != "" && area != d.Area {
		changes = append(changes, Change{
			Field:  "Area",
			Old:    d.Area,
			New:    area,
			Reason: "derived from location",
		})
		d.Area = area
	}

	if d.Region == "" {
		if region, ok := RegionForArea(d.Area); ok {
			changes = append(changes, Change{
				Field:  "Region",
				New:    region,
				Reason: "area lookup",
			})
			d.Region = region
		}
	}

	if d.MapLink == "" {
		d.MapLink = mapLinkBase + url.QueryEscape(d.Location)
		changes = append(changes, Change{
			Field:  "MapLink",
			New:    d.MapLink,
			Reason: "synthesized from location",
		})
	}

	return changes
}

// NormalizeTags trims, drops empties and deduplicates case-insensitively.
// The first casing of a tag wins.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}

		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}

		seen[key] = true
		out = append(out, tag)
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

// dateOf truncates an instant to date precision in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
