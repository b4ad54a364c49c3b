// Package tablefile implements the versioned on-disk format of the durable
// store: a document of three named tables (records, lookups, metadata).
//
// The table model is deliberately generic - headers and string cells - so
// structural validation and schema migrations transform tables without
// touching domain types. Encoding to and from domain records lives here too,
// giving each supported layout one parser/encoder pair.
package tablefile

import "slices"

// Table names.
const (
	TableDeals   = "deals"
	TableLookups = "lookups"
	TableMeta    = "meta"
)

// Metadata keys.
const (
	MetaVersion      = "schema_version"
	MetaLastModified = "last_modified"
	MetaRecordCount  = "record_count"
)

// Schema versions. The version string in the metadata table is the single
// source of truth for on-disk layout compatibility.
const (
	// Version10 is the oldest supported layout: deals and lookups tables
	// only, no metadata table, no promoter columns.
	Version10 = "1.0"

	// Version11 adds the metadata table with an explicit version stamp.
	Version11 = "1.1"

	// Version12 adds the promoter attribution columns to the deals table.
	Version12 = "1.2"

	// CurrentVersion is the layout written by every commit.
	CurrentVersion = Version12
)

// supportedVersions is the set of layouts the migration chain can start
// from. Versions outside this set have no outgoing transition.
//
//nolint:gochecknoglobals // static version set
var supportedVersions = []string{Version10, Version11, Version12}

// SupportedVersions returns a copy of the supported schema-version set.
func SupportedVersions() []string {
	return slices.Clone(supportedVersions)
}

// IsSupported reports whether the migration chain can proceed from v.
func IsSupported(v string) bool {
	return slices.Contains(supportedVersions, v)
}

// Table is one named block of the document: a header row plus data rows.
type Table struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Document is the parsed on-disk file.
type Document struct {
	Tables []Table `json:"tables"`
}

// Table returns the named table, or nil if absent.
func (d *Document) Table(name string) *Table {
	for i := range d.Tables {
		if d.Tables[i].Name == name {
			return &d.Tables[i]
		}
	}

	return nil
}

// Col returns the index of the named header column, or -1.
func (t *Table) Col(name string) int {
	return slices.Index(t.Header, name)
}

// cell returns the row value under the named column, or "" when the column
// is absent or the row is short.
func (t *Table) cell(row []string, name string) string {
	idx := t.Col(name)
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return row[idx]
}

// AddColumn appends a column with empty cells if not already present.
// Additive only; existing columns and cells are never touched.
func (t *Table) AddColumn(name string) bool {
	if t.Col(name) >= 0 {
		return false
	}

	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}

	return true
}

// MetaValue returns the value for a metadata key, or "" if absent.
// The receiver must be the metadata table (key/value rows).
func (t *Table) MetaValue(key string) string {
	for _, row := range t.Rows {
		if len(row) >= 2 && row[0] == key {
			return row[1]
		}
	}

	return ""
}

// SetMetaValue sets or appends a metadata key/value row.
func (t *Table) SetMetaValue(key, value string) {
	for i, row := range t.Rows {
		if len(row) >= 2 && row[0] == key {
			t.Rows[i][1] = value

			return
		}
	}

	t.Rows = append(t.Rows, []string{key, value})
}

// DetectVersion returns the schema version stamped in the document.
// A missing metadata table or version key implies the oldest layout.
func DetectVersion(d *Document) string {
	meta := d.Table(TableMeta)
	if meta == nil {
		return Version10
	}

	version := meta.MetaValue(MetaVersion)
	if version == "" {
		return Version10
	}

	return version
}
