package tablefile

import (
	"errors"
	"fmt"
)

// ErrUnsupportedVersion indicates a stamped schema version with no outgoing
// migration transition. The document must not be interpreted.
var ErrUnsupportedVersion = errors.New("unsupported schema version")

// migration is one named transition between consecutive versions.
type migration struct {
	name string
	from string
	to   string
	run  func(doc *Document)
}

// migrations is the transition chain, oldest first. Every step is
// idempotent and strictly additive: unrecognized columns and unknown
// metadata keys pass through untouched, preserving forward/backward
// interchange.
//
//nolint:gochecknoglobals // static state machine
var migrations = []migration{
	{name: "stamp schema version", from: Version10, to: Version11, run: migrate10to11},
	{name: "add promoter columns", from: Version11, to: Version12, run: migrate11to12},
}

// Migrate runs the document through the transition chain until it reaches
// the current version, returning the names of the transitions applied. An
// already-current document is a no-op. A version with no outgoing
// transition returns ErrUnsupportedVersion.
func Migrate(doc *Document) ([]string, error) {
	var applied []string

	version := DetectVersion(doc)

	for version != CurrentVersion {
		step, ok := transitionFrom(version)
		if !ok {
			return applied, fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
		}

		step.run(doc)
		stampVersion(doc, step.to)

		applied = append(applied, step.name)
		version = step.to
	}

	return applied, nil
}

func transitionFrom(version string) (migration, bool) {
	for _, m := range migrations {
		if m.from == version {
			return m, true
		}
	}

	return migration{}, false
}

// stampVersion records the reached version, creating the metadata table on
// first need.
func stampVersion(doc *Document, version string) {
	meta := doc.Table(TableMeta)
	if meta == nil {
		doc.Tables = append(doc.Tables, Table{
			Name:   TableMeta,
			Header: []string{"Key", "Value"},
		})
		meta = doc.Table(TableMeta)
	}

	meta.SetMetaValue(MetaVersion, version)
}

// migrate10to11 introduces the metadata table with an explicit version
// stamp. The stamp itself is written by stampVersion; here we only make
// sure a missing lookup table does not stay missing forever.
func migrate10to11(doc *Document) {
	if doc.Table(TableLookups) == nil {
		doc.Tables = append(doc.Tables, LookupTable())
	}
}

// migrate11to12 adds the promoter attribution columns, empty for existing
// rows.
func migrate11to12(doc *Document) {
	deals := doc.Table(TableDeals)
	if deals == nil {
		return
	}

	deals.AddColumn(ColPromoterName)
	deals.AddColumn(ColPromoterEmail)
}
