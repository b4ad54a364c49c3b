package tablefile

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"dealpipe/internal/deal"
)

// Lookup-table kinds: two independent two-column blocks distinguished by
// the Kind cell.
const (
	lookupKindAreaRegion = "area_region"
	lookupKindStageProb  = "stage_probability"
)

// tagSeparator joins the tag set into one cell. Tags are comma-split on
// input, so a tag can never contain the separator.
const tagSeparator = ","

// ErrBadCell indicates a cell whose value cannot be interpreted as its
// column's type.
var ErrBadCell = errors.New("bad cell value")

// dealColumns is the current-layout column order.
//
//nolint:gochecknoglobals // static schema definition
var dealColumns = []string{
	ColID, ColName, ColOwner, ColStage, ColProbability, ColAmount,
	ColLocation, ColArea, ColRegion, ColMapLink,
	ColCreated, ColCloseDate, ColNextStep, ColNextStepDate, ColLastContact,
	ColTags, ColForecast, ColPromoterName, ColPromoterEmail, ColNotes,
}

// BuildDocument assembles a current-version document from records plus the
// static lookup tables, stamping fresh metadata.
func BuildDocument(deals []deal.Deal, now time.Time) Document {
	return Document{
		Tables: []Table{
			DealTable(deals),
			LookupTable(),
			MetaTable(now, len(deals)),
		},
	}
}

// DealTable encodes records into the primary table, current layout.
func DealTable(deals []deal.Deal) Table {
	table := Table{
		Name:   TableDeals,
		Header: append([]string(nil), dealColumns...),
		Rows:   make([][]string, 0, len(deals)),
	}

	for i := range deals {
		table.Rows = append(table.Rows, encodeDealRow(&deals[i]))
	}

	return table
}

func encodeDealRow(d *deal.Deal) []string {
	return []string{
		d.ID,
		d.Name,
		d.Owner,
		string(d.Stage),
		strconv.Itoa(d.Probability),
		encodeAmount(d.Amount),
		d.Location,
		d.Area,
		d.Region,
		d.MapLink,
		encodeDate(&d.Created),
		encodeDate(d.CloseDate),
		d.NextStep,
		encodeDate(d.NextStepDate),
		encodeDate(d.LastContact),
		strings.Join(d.Tags, tagSeparator),
		strconv.FormatBool(d.Forecast),
		d.PromoterName,
		d.PromoterEmail,
		d.Notes,
	}
}

// DecodeDeals reads records out of the primary table. Missing optional
// columns yield zero values; a cell that cannot be parsed as its column's
// type is an ErrBadCell, reported with row and column context.
func DecodeDeals(table *Table) ([]deal.Deal, error) {
	if table == nil {
		return nil, nil
	}

	deals := make([]deal.Deal, 0, len(table.Rows))

	for i, row := range table.Rows {
		d, decodeErr := decodeDealRow(table, row)
		if decodeErr != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, decodeErr)
		}

		deals = append(deals, d)
	}

	return deals, nil
}

func decodeDealRow(table *Table, row []string) (deal.Deal, error) {
	d := deal.Deal{
		ID:            table.cell(row, ColID),
		Name:          table.cell(row, ColName),
		Owner:         table.cell(row, ColOwner),
		Stage:         deal.Stage(table.cell(row, ColStage)),
		Location:      table.cell(row, ColLocation),
		Area:          table.cell(row, ColArea),
		Region:        table.cell(row, ColRegion),
		MapLink:       table.cell(row, ColMapLink),
		NextStep:      table.cell(row, ColNextStep),
		PromoterName:  table.cell(row, ColPromoterName),
		PromoterEmail: table.cell(row, ColPromoterEmail),
		Notes:         table.cell(row, ColNotes),
	}

	if raw := table.cell(row, ColProbability); raw != "" {
		p, parseErr := strconv.Atoi(raw)
		if parseErr != nil {
			return deal.Deal{}, fmt.Errorf("%w: %s=%q", ErrBadCell, ColProbability, raw)
		}

		d.Probability = p
	}

	if raw := table.cell(row, ColAmount); raw != "" {
		amount, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil {
			return deal.Deal{}, fmt.Errorf("%w: %s=%q", ErrBadCell, ColAmount, raw)
		}

		d.Amount = &amount
	}

	if raw := table.cell(row, ColForecast); raw != "" {
		forecast, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			return deal.Deal{}, fmt.Errorf("%w: %s=%q", ErrBadCell, ColForecast, raw)
		}

		d.Forecast = forecast
	}

	if raw := table.cell(row, ColTags); raw != "" {
		d.Tags = deal.NormalizeTags(strings.Split(raw, tagSeparator))
	}

	var dateErr error

	d.Created, dateErr = decodeRequiredDate(table.cell(row, ColCreated))
	if dateErr != nil {
		return deal.Deal{}, fmt.Errorf("%s: %w", ColCreated, dateErr)
	}

	for _, col := range []struct {
		name string
		dst  **time.Time
	}{
		{ColCloseDate, &d.CloseDate},
		{ColNextStepDate, &d.NextStepDate},
		{ColLastContact, &d.LastContact},
	} {
		*col.dst, dateErr = decodeOptionalDate(table.cell(row, col.name))
		if dateErr != nil {
			return deal.Deal{}, fmt.Errorf("%s: %w", col.name, dateErr)
		}
	}

	return d, nil
}

// LookupTable encodes the static lookup tables: two independent two-column
// blocks distinguished by kind.
func LookupTable() Table {
	table := Table{
		Name:   TableLookups,
		Header: []string{"Kind", "Key", "Value"},
	}

	areas := deal.AreaRegions()

	areaKeys := make([]string, 0, len(areas))
	for area := range areas {
		areaKeys = append(areaKeys, area)
	}

	sort.Strings(areaKeys)

	for _, area := range areaKeys {
		table.Rows = append(table.Rows, []string{lookupKindAreaRegion, area, areas[area]})
	}

	for _, stage := range deal.Stages {
		if p, ok := deal.DefaultProbability(stage); ok {
			table.Rows = append(table.Rows, []string{lookupKindStageProb, string(stage), strconv.Itoa(p)})
		}
	}

	return table
}

// MetaTable stamps fresh metadata: current version, clock-derived
// modification time, record count.
func MetaTable(now time.Time, recordCount int) Table {
	table := Table{
		Name:   TableMeta,
		Header: []string{"Key", "Value"},
	}

	table.SetMetaValue(MetaVersion, CurrentVersion)
	table.SetMetaValue(MetaLastModified, now.UTC().Format(time.RFC3339))
	table.SetMetaValue(MetaRecordCount, strconv.Itoa(recordCount))

	return table
}

func encodeAmount(amount *float64) string {
	if amount == nil {
		return ""
	}

	return strconv.FormatFloat(*amount, 'f', -1, 64)
}

func encodeDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}

	return t.UTC().Format(deal.DateOnly)
}

func decodeRequiredDate(raw string) (time.Time, error) {
	if raw == "" {
		// Normalization fills a missing creation date after load.
		return time.Time{}, nil
	}

	t, parseErr := time.Parse(deal.DateOnly, raw)
	if parseErr != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadCell, raw)
	}

	return t, nil
}

func decodeOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil //nolint:nilnil // absent date
	}

	t, parseErr := time.Parse(deal.DateOnly, raw)
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadCell, raw)
	}

	return &t, nil
}
