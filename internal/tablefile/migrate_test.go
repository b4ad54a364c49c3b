package tablefile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// legacyV10Document builds a document in the oldest supported layout: deals
// and lookups only, no metadata table, no promoter columns.
func legacyV10Document() Document {
	return Document{
		Tables: []Table{
			{
				Name: TableDeals,
				Header: []string{
					ColID, ColName, ColOwner, ColStage, ColProbability, ColAmount,
					ColLocation, ColArea, ColRegion, ColMapLink,
					ColCreated, ColCloseDate, ColNextStep, ColNextStepDate, ColLastContact,
					ColTags, ColForecast, ColNotes,
				},
				Rows: [][]string{
					{
						"D-20240101-00000001", "Legacy deal", "Bob", "Lead", "10", "5000",
						"M1 2AB", "M", "Manchester", "",
						"2024-01-01", "", "", "", "",
						"legacy", "false", "imported",
					},
				},
			},
			LookupTable(),
		},
	}
}

func TestMigrate_ChainFromOldest(t *testing.T) {
	t.Parallel()

	doc := legacyV10Document()

	applied, err := Migrate(&doc)
	require.NoError(t, err)
	assert.Len(t, applied, 2)

	assert.Equal(t, CurrentVersion, DetectVersion(&doc))

	deals := doc.Table(TableDeals)
	require.NotNil(t, deals)

	assert.GreaterOrEqual(t, deals.Col(ColPromoterName), 0)
	assert.GreaterOrEqual(t, deals.Col(ColPromoterEmail), 0)

	// Original records survive the chain intact.
	decoded, err := DecodeDeals(deals)
	require.NoError(t, err)
	require.Len(t, decoded, 1)

	assert.Equal(t, "D-20240101-00000001", decoded[0].ID)
	assert.Equal(t, "Legacy deal", decoded[0].Name)
	assert.Equal(t, "imported", decoded[0].Notes)
	assert.Empty(t, decoded[0].PromoterName)
}

func TestMigrate_AlreadyCurrentIsNoOp(t *testing.T) {
	t.Parallel()

	doc := BuildDocument(nil, stampTime)

	before, err := Encode(doc)
	require.NoError(t, err)

	applied, err := Migrate(&doc)
	require.NoError(t, err)
	assert.Empty(t, applied)

	after, err := Encode(doc)
	require.NoError(t, err)

	assert.Equal(t, before, after, "migrating a current document must not change it")
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	doc := legacyV10Document()

	_, err := Migrate(&doc)
	require.NoError(t, err)

	once, err := Encode(doc)
	require.NoError(t, err)

	applied, err := Migrate(&doc)
	require.NoError(t, err)
	assert.Empty(t, applied)

	twice, err := Encode(doc)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestMigrate_PreservesUnrecognizedColumns(t *testing.T) {
	t.Parallel()

	doc := legacyV10Document()

	deals := doc.Table(TableDeals)
	deals.Header = append(deals.Header, "CustomField")
	deals.Rows[0] = append(deals.Rows[0], "custom value")

	_, err := Migrate(&doc)
	require.NoError(t, err)

	migrated := doc.Table(TableDeals)

	idx := migrated.Col("CustomField")
	require.GreaterOrEqual(t, idx, 0, "unrecognized column dropped by migration")
	assert.Equal(t, "custom value", migrated.Rows[0][idx])
}

func TestMigrate_UnsupportedVersionRefused(t *testing.T) {
	t.Parallel()

	doc := BuildDocument(nil, stampTime)
	doc.Table(TableMeta).SetMetaValue(MetaVersion, "0.9")

	_, err := Migrate(&doc)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestMigrate_IntermediateVersion(t *testing.T) {
	t.Parallel()

	doc := legacyV10Document()
	doc.Tables = append(doc.Tables, Table{
		Name:   TableMeta,
		Header: []string{"Key", "Value"},
		Rows:   [][]string{{MetaVersion, Version11}, {"custom_key", "kept"}},
	})

	applied, err := Migrate(&doc)
	require.NoError(t, err)
	assert.Len(t, applied, 1)

	assert.Equal(t, CurrentVersion, DetectVersion(&doc))
	assert.Equal(t, "kept", doc.Table(TableMeta).MetaValue("custom_key"), "unknown metadata key dropped")
}
