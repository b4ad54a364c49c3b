package deal

import (
	"strings"
	"unicode"
)

// areaRegions maps a location area code to its region. UK postcode areas.
//
//nolint:gochecknoglobals // static lookup table
var areaRegions = map[string]string{
	"B":  "Birmingham",
	"BS": "Bristol",
	"CF": "Cardiff",
	"E":  "London",
	"EC": "London",
	"EH": "Edinburgh",
	"G":  "Glasgow",
	"L":  "Liverpool",
	"LS": "Leeds",
	"M":  "Manchester",
	"N":  "London",
	"NE": "Newcastle",
	"NW": "London",
	"SE": "London",
	"SW": "London",
	"W":  "London",
	"WC": "London",
}

// stageDefaults maps a stage to its default probability, applied by
// normalization when a deal has no positive probability of its own.
//
//nolint:gochecknoglobals // static lookup table
var stageDefaults = map[Stage]int{
	StageLead:        10,
	StageQualified:   25,
	StageProposal:    60,
	StageNegotiation: 80,
	StageWon:         100,
	StageLost:        0,
}

// AreaRegions returns a copy of the area to region lookup table.
func AreaRegions() map[string]string {
	out := make(map[string]string, len(areaRegions))
	for k, v := range areaRegions {
		out[k] = v
	}

	return out
}

// StageDefaults returns a copy of the stage to default-probability table.
func StageDefaults() map[Stage]int {
	out := make(map[Stage]int, len(stageDefaults))
	for k, v := range stageDefaults {
		out[k] = v
	}

	return out
}

// RegionForArea looks up the region for an area code.
func RegionForArea(area string) (string, bool) {
	region, ok := areaRegions[strings.ToUpper(area)]

	return region, ok
}

// DefaultProbability looks up the default probability for a stage.
func DefaultProbability(stage Stage) (int, bool) {
	p, ok := stageDefaults[stage]

	return p, ok
}

// AreaFromLocation derives the area code from a raw location string: the
// leading letters of the first token, uppercased. "SW1A 1AA" yields "SW".
func AreaFromLocation(location string) string {
	location = strings.TrimSpace(location)

	var b strings.Builder

	for _, r := range location {
		if !unicode.IsLetter(r) {
			break
		}

		b.WriteRune(unicode.ToUpper(r))
	}

	return b.String()
}
