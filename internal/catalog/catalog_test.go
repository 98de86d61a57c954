package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/matchminer/internal/analysis/segment"
	"github.com/Alias1177/matchminer/internal/record"
)

func match(num map[string]float64, result string) record.Record {
	return record.New(num, map[string]string{"FTResult": result})
}

func TestDerivedFields(t *testing.T) {
	r := match(map[string]float64{
		"HomeElo": 1800, "AwayElo": 1450,
		"HomeFouls": 9, "AwayFouls": 17,
		"FTHome": 2, "FTAway": 1,
	}, "H")

	tests := []struct {
		field record.Field
		want  float64
	}{
		{EloDiff, 350},
		{AbsEloDiff, 350},
		{EloSum, 3250},
		{TotalFouls, 26},
		{FoulsDiff, 8},
		{TotalGoals, 3},
	}
	for _, tt := range tests {
		t.Run(tt.field.Name, func(t *testing.T) {
			v, ok := tt.field.Value(r)
			require.True(t, ok)
			assert.Equal(t, tt.want, v)
		})
	}

	_, ok := TotalCorners.Value(r)
	assert.False(t, ok)
}

func TestFieldLookup(t *testing.T) {
	f, err := Field("TotalYellow")
	require.NoError(t, err)
	assert.Equal(t, "TotalYellow", f.Name)

	_, err = Field("Possession")
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Contains(t, FieldNames(), "AbsEloDiff")
}

func TestFavoriteWon(t *testing.T) {
	tests := []struct {
		name   string
		diff   float64
		result string
		want   string
	}{
		{"home favorite wins", 120, "H", "Favorite Won"},
		{"away favorite wins", -80, "A", "Favorite Won"},
		{"home favorite draws", 120, "D", "Favorite Not Won"},
		{"no favorite", 10, "H", "Favorite Not Won"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := match(map[string]float64{"HomeElo": 1500 + tt.diff, "AwayElo": 1500}, tt.result)
			label, ok := FavoriteWon.Classify(r)
			require.True(t, ok)
			assert.Equal(t, tt.want, label)
		})
	}
	assert.Equal(t, []string{"Favorite Won"}, FavoriteWon.Reportable())
}

func TestBuiltin(t *testing.T) {
	all := Builtin()
	require.Len(t, all, 4)
	assert.Equal(t, []string{"markets", "goals", "reliable", "selective"}, Names())

	markets := all[0]
	// 8 segments x (5+4+1+4+4+4) lines.
	assert.Len(t, markets.Entries, 8*22)
	assert.Equal(t, 50, markets.Policy.MinSample)
	assert.Equal(t, 65.0, markets.Policy.MinPrecision)

	selective := all[3]
	assert.Len(t, selective.Entries, 13)
	for _, e := range selective.Entries {
		assert.Len(t, e.Outcome.Reportable(), 1, e.Segment.Name)
		assert.False(t, e.Aux.IsZero())
	}

	for _, a := range all {
		assert.NoError(t, a.Policy.Validate(), a.Name)
	}
}

func TestSelect(t *testing.T) {
	got, err := Select("goals", " selective")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "selective", got[1].Name)

	got, err = Select()
	require.NoError(t, err)
	assert.Len(t, got, 4)

	_, err = Select("nope")
	assert.Error(t, err)
}

func TestScanFields(t *testing.T) {
	for _, sf := range ScanFields() {
		c, err := sf.Range.Candidates()
		require.NoError(t, err, sf.Field.Name)
		assert.NotEmpty(t, c)
	}
	fouls := ScanFields()[0]
	c, _ := fouls.Range.Candidates()
	assert.Equal(t, 18.5, c[0])
	assert.Equal(t, 34.5, c[len(c)-1])
}

const customCatalog = `
name: tense_matches
description: cards in tense matches
policy: {min_sample: 40, min_precision: 70}
aux: TotalYellow
segments:
  - name: Tense match
    when:
      - {field: TotalFouls, op: gt, value: 30}
  - name: Tense home win
    when:
      - {field: TotalFouls, op: ">", value: 30}
      - {field: FTResult, is: H}
  - {}
outcomes:
  - {field: TotalYellow, thresholds: [3.5, 4.5], side: over}
  - {category: FTResult, values: [H, D, A]}
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	a, err := LoadFile(writeCatalog(t, customCatalog))
	require.NoError(t, err)

	assert.Equal(t, "tense_matches", a.Name)
	assert.Equal(t, 40, a.Policy.MinSample)
	// 3 segments x (2 over/under + 1 category)
	require.Len(t, a.Entries, 9)
	assert.Equal(t, "Tense match", a.Entries[0].Segment.Name)
	assert.Equal(t, []string{"OVER 3.5"}, a.Entries[0].Outcome.Reportable())
	assert.Equal(t, "all matches", a.Entries[6].Segment.Name)
	assert.Equal(t, "TotalYellow", a.Entries[0].Aux.Name)

	r := match(map[string]float64{"HomeFouls": 18, "AwayFouls": 15, "HomeYellow": 3, "AwayYellow": 2}, "H")
	m, ok := a.Entries[3].Segment.Match(r)
	require.True(t, ok)
	assert.True(t, m)

	tally := segment.Evaluate(record.NewStore([]record.Record{r}), a.Entries[0])
	assert.Equal(t, 1, tally.Counts["OVER 3.5"])
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"unknown field", "name: x\npolicy: {min_sample: 1, min_precision: 50}\nsegments: [{when: [{field: Possession, op: gt, value: 1}]}]\noutcomes: [{field: TotalFouls, thresholds: [20.5]}]\n", ErrUnknownField},
		{"bad policy", "name: x\npolicy: {min_sample: -1, min_precision: 50}\nsegments: [{}]\noutcomes: [{field: TotalFouls, thresholds: [20.5]}]\n", nil},
		{"no outcomes", "name: x\nsegments: [{}]\n", nil},
		{"bad side", "name: x\nsegments: [{}]\noutcomes: [{field: TotalFouls, thresholds: [20.5], side: sideways}]\n", nil},
		{"no name", "segments: [{}]\n", nil},
		{"invalid yaml", "name: [", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeCatalog(t, tt.content))
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
