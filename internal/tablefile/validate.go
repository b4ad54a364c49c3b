package tablefile

import "fmt"

// Deals-table columns. RequiredDealColumns must exist in every supported
// layout; the rest are filled by migration or normalization when absent.
const (
	ColID            = "ID"
	ColName          = "Name"
	ColOwner         = "Owner"
	ColStage         = "Stage"
	ColProbability   = "Probability"
	ColAmount        = "Amount"
	ColLocation      = "Location"
	ColArea          = "Area"
	ColRegion        = "Region"
	ColMapLink       = "MapLink"
	ColCreated       = "Created"
	ColCloseDate     = "CloseDate"
	ColNextStep      = "NextStep"
	ColNextStepDate  = "NextStepDate"
	ColLastContact   = "LastContact"
	ColTags          = "Tags"
	ColForecast      = "Forecast"
	ColPromoterName  = "PromoterName"
	ColPromoterEmail = "PromoterEmail"
	ColNotes         = "Notes"
)

// requiredDealColumns are fatal when missing.
//
//nolint:gochecknoglobals // static schema definition
var requiredDealColumns = []string{ColID, ColName, ColStage, ColProbability, ColAmount, ColCreated}

// ValidationResult describes the structural health of a document. Computed
// on demand, never persisted.
type ValidationResult struct {
	// OK is true when no fatal problem was found.
	OK bool

	// Version is the detected schema version.
	Version string

	// VersionSupported reports whether the migration chain can proceed
	// from the detected version.
	VersionSupported bool

	// MigrationRequired is true for supported versions older than current.
	MigrationRequired bool

	// RecordCount is the number of data rows in the primary table.
	RecordCount int

	// Problems are fatal structural defects.
	Problems []string

	// Warnings are repairable defects (missing lookup/metadata tables).
	Warnings []string
}

// Validate checks the document's structure: the primary table and its
// required columns must exist (fatal when missing); the lookup and metadata
// tables are optional (warning), with absent metadata implying the oldest
// known version.
func Validate(doc *Document) ValidationResult {
	result := ValidationResult{
		Version: DetectVersion(doc),
	}

	result.VersionSupported = IsSupported(result.Version)
	result.MigrationRequired = result.VersionSupported && result.Version != CurrentVersion

	deals := doc.Table(TableDeals)
	if deals == nil {
		result.Problems = append(result.Problems, fmt.Sprintf("missing table %q", TableDeals))
	} else {
		for _, col := range requiredDealColumns {
			if deals.Col(col) < 0 {
				result.Problems = append(result.Problems,
					fmt.Sprintf("table %q is missing required column %q", TableDeals, col))
			}
		}

		result.RecordCount = len(deals.Rows)
	}

	if doc.Table(TableLookups) == nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("missing table %q", TableLookups))
	}

	if meta := doc.Table(TableMeta); meta == nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("missing table %q, assuming version %s", TableMeta, Version10))
	} else if meta.MetaValue(MetaVersion) == "" {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("metadata has no %s key, assuming version %s", MetaVersion, Version10))
	}

	result.OK = len(result.Problems) == 0

	return result
}
