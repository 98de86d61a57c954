package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Alias1177/matchminer/internal/analysis/describe"
	"github.com/Alias1177/matchminer/internal/analysis/threshold"
	"github.com/Alias1177/matchminer/internal/record"
)

// ErrUnknownField is returned when a catalog names a field that is neither a
// known column nor a derived field.
var ErrUnknownField = errors.New("unknown field")

// Raw columns of the match history.
var (
	HomeElo     = record.Column("HomeElo")
	AwayElo     = record.Column("AwayElo")
	Form5Home   = record.Column("Form5Home")
	Form5Away   = record.Column("Form5Away")
	OddHome     = record.Column("OddHome")
	OddAway     = record.Column("OddAway")
	FTHome      = record.Column("FTHome")
	FTAway      = record.Column("FTAway")
	HomeFouls   = record.Column("HomeFouls")
	AwayFouls   = record.Column("AwayFouls")
	HomeCorners = record.Column("HomeCorners")
	AwayCorners = record.Column("AwayCorners")
	HomeYellow  = record.Column("HomeYellow")
	AwayYellow  = record.Column("AwayYellow")
	HomeRed     = record.Column("HomeRed")
	AwayRed     = record.Column("AwayRed")
	HomeShots   = record.Column("HomeShots")
	AwayShots   = record.Column("AwayShots")
	HomeTarget  = record.Column("HomeTarget")
	AwayTarget  = record.Column("AwayTarget")
)

// Derived fields.
var (
	TotalFouls   = record.Sum(HomeFouls, AwayFouls).Named("TotalFouls")
	TotalCorners = record.Sum(HomeCorners, AwayCorners).Named("TotalCorners")
	TotalYellow  = record.Sum(HomeYellow, AwayYellow).Named("TotalYellow")
	TotalRed     = record.Sum(HomeRed, AwayRed).Named("TotalRed")
	TotalShots   = record.Sum(HomeShots, AwayShots).Named("TotalShots")
	TotalTarget  = record.Sum(HomeTarget, AwayTarget).Named("TotalTarget")
	TotalGoals   = record.Sum(FTHome, FTAway).Named("TotalGoals")
	EloDiff      = record.Diff(HomeElo, AwayElo).Named("EloDiff")
	AbsEloDiff   = record.AbsDiff(HomeElo, AwayElo).Named("AbsEloDiff")
	EloSum       = record.Sum(HomeElo, AwayElo).Named("EloSum")
	FoulsDiff    = record.AbsDiff(HomeFouls, AwayFouls).Named("FoulsDiff")
	CornersDiff  = record.AbsDiff(HomeCorners, AwayCorners).Named("CornersDiff")
)

// Categorical columns that must never be parsed as numbers.
var Categorical = []string{"Division", "MatchDate", "MatchTime", "HomeTeam", "AwayTeam", "FTResult", "HTResult"}

var fields = func() map[string]record.Field {
	m := make(map[string]record.Field)
	for _, f := range []record.Field{
		HomeElo, AwayElo, Form5Home, Form5Away, OddHome, OddAway, FTHome, FTAway,
		HomeFouls, AwayFouls, HomeCorners, AwayCorners, HomeYellow, AwayYellow,
		HomeRed, AwayRed, HomeShots, AwayShots, HomeTarget, AwayTarget,
		record.Column("Form3Home"), record.Column("Form3Away"), record.Column("OddDraw"),
		record.Column("HTHome"), record.Column("HTAway"),
		TotalFouls, TotalCorners, TotalYellow, TotalRed, TotalShots, TotalTarget,
		TotalGoals, EloDiff, AbsEloDiff, EloSum, FoulsDiff, CornersDiff,
	} {
		m[f.Name] = f
	}
	return m
}()

// Field resolves a column or derived field by name.
func Field(name string) (record.Field, error) {
	f, ok := fields[name]
	if !ok {
		return record.Field{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f, nil
}

// FieldNames lists every resolvable field, sorted.
func FieldNames() []string {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ScanField pairs a market total with the cut points worth scanning.
type ScanField struct {
	Field record.Field
	Range threshold.Range
}

// ScanFields returns the market totals scanned for their best threshold.
func ScanFields() []ScanField {
	return []ScanField{
		{Field: TotalFouls, Range: threshold.Range{Start: 18.5, Stop: 34.5, Step: 1}},
		{Field: TotalCorners, Range: threshold.Range{Start: 6.5, Stop: 16.5, Step: 0.5}},
		{Field: TotalYellow, Range: threshold.Range{Start: 1.5, Stop: 8.5, Step: 0.5}},
	}
}

// SummaryFields returns the market totals reported by descriptive statistics.
func SummaryFields() []record.Field {
	return []record.Field{TotalFouls, TotalCorners, TotalYellow, TotalShots, TotalTarget, TotalGoals}
}

// SidePairs returns the home/away columns compared by CompareSides.
func SidePairs() []describe.Pair {
	return []describe.Pair{
		{Market: "Fouls", Home: HomeFouls, Away: AwayFouls},
		{Market: "Corners", Home: HomeCorners, Away: AwayCorners},
		{Market: "Yellow", Home: HomeYellow, Away: AwayYellow},
		{Market: "Shots", Home: HomeShots, Away: AwayShots},
		{Market: "Target", Home: HomeTarget, Away: AwayTarget},
	}
}
