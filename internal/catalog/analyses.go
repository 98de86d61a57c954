package catalog

import (
	"fmt"
	"strings"

	"github.com/Alias1177/matchminer/internal/analysis/ranking"
	"github.com/Alias1177/matchminer/internal/analysis/segment"
	"github.com/Alias1177/matchminer/internal/record"
)

// Analysis is a named catalog of (segment, outcome) entries ranked with its
// own policy.
type Analysis struct {
	Name        string
	Description string
	Entries     []segment.Entry
	Policy      ranking.Policy
}

// Common outcome rules.
var (
	Goals25 = segment.OverUnder(TotalGoals, 2.5)
	BTTS    = segment.Event("BTTS",
		segment.And(segment.Where(FTHome, segment.GT, 0), segment.Where(FTAway, segment.GT, 0)),
		"BTTS Yes", "BTTS No")
	Result = segment.Category("Result", "FTResult",
		[2]string{"H", "Home Win"}, [2]string{"D", "Draw"}, [2]string{"A", "Away Win"})
	FavoriteWon = segment.Event("Favorite",
		segment.Or(
			segment.And(segment.Where(EloDiff, segment.GT, 50), segment.Is("FTResult", "H")),
			segment.And(segment.Where(EloDiff, segment.LT, -50), segment.Is("FTResult", "A")),
		),
		"Favorite Won", "Favorite Not Won").Only("Favorite Won")
)

type market struct {
	group      string
	total      record.Field
	thresholds []float64
}

var markets = []market{
	{"corners", TotalCorners, []float64{8.5, 9.5, 10.5, 11.5, 12.5}},
	{"yellow_cards", TotalYellow, []float64{2.5, 3.5, 4.5, 5.5}},
	{"red_cards", TotalRed, []float64{0.5}},
	{"shots", TotalShots, []float64{18.5, 20.5, 22.5, 24.5}},
	{"shots_on_target", TotalTarget, []float64{6.5, 7.5, 8.5, 9.5}},
	{"fouls", TotalFouls, []float64{20.5, 22.5, 24.5, 26.5}},
}

func marketSegments() []segment.Predicate {
	return []segment.Predicate{
		segment.Where(AbsEloDiff, segment.GT, 300).Named("Huge Elo gap (>300)"),
		segment.Where(AbsEloDiff, segment.GT, 200).Named("Big Elo gap (>200)"),
		segment.Where(AbsEloDiff, segment.GT, 100).Named("Moderate Elo gap (>100)"),
		segment.Where(OddHome, segment.LT, 1.3).Named("Home odds < 1.3"),
		segment.Where(OddHome, segment.LT, 1.5).Named("Home odds < 1.5"),
		segment.Where(EloSum, segment.GT, 3300).Named("Both strong (Elo sum > 3300)"),
		segment.Where(EloSum, segment.LT, 2900).Named("Both weak (Elo sum < 2900)"),
		segment.Where(AbsEloDiff, segment.LT, 100).Named("Balanced (Elo gap < 100)"),
	}
}

// Markets crosses the Elo and odds segments with every over/under line of
// every statistical market.
func Markets() Analysis {
	var entries []segment.Entry
	preds := marketSegments()
	for _, m := range markets {
		rules := make([]segment.OutcomeRule, len(m.thresholds))
		for i, th := range m.thresholds {
			rules[i] = segment.OverUnder(m.total, th)
		}
		entries = append(entries, segment.Cross(m.group, preds, rules, m.total)...)
	}
	return Analysis{
		Name:        "markets",
		Description: "Over/under lines of corners, cards, shots and fouls",
		Entries:     entries,
		Policy:      ranking.MustPolicy(50, 65),
	}
}

// Goals looks for Elo and odds configurations that skew goals, BTTS and
// the match result.
func Goals() Analysis {
	balanced := segment.Where(AbsEloDiff, segment.LT, 100)
	tight := segment.Where(AbsEloDiff, segment.LT, 50)
	avg := func(f record.Field) segment.Predicate { return segment.Between(f, 1500, 1600) }
	midRange := func(f record.Field) segment.Predicate { return segment.Between(f, 1400, 1600) }

	preds := []segment.Predicate{
		segment.Where(EloSum, segment.GT, 3400).Named("Elo sum > 3400"),
		segment.Where(EloSum, segment.LT, 2800).Named("Elo sum < 2800"),
		segment.And(tight, segment.Where(EloSum, segment.GT, 3300)).Named("Close and strong"),
		segment.And(tight, segment.Where(EloSum, segment.LT, 2900)).Named("Close and weak"),
		segment.Where(EloDiff, segment.GT, 300).Named("Huge home favorite"),
		segment.Where(EloDiff, segment.LT, -250).Named("Huge away favorite"),
		segment.And(balanced, segment.Where(EloSum, segment.GT, 3300)).Named("Balanced strong"),
		segment.And(balanced, segment.Where(EloSum, segment.LT, 2900)).Named("Balanced weak"),
		segment.And(avg(HomeElo), avg(AwayElo)).Named("Both average Elo"),
		segment.Or(
			segment.And(segment.Where(HomeElo, segment.GT, 1800), midRange(AwayElo)),
			segment.And(segment.Where(AwayElo, segment.GT, 1800), midRange(HomeElo)),
		).Named("One very strong, one average"),
		segment.And(segment.Between(OddHome, 1.8, 2.5), segment.Between(OddAway, 1.8, 2.5)).Named("Balanced odds"),
		segment.Where(AbsEloDiff, segment.GT, 400).Named("Massive Elo gap (>400)"),
		segment.Where(AbsEloDiff, segment.GT, 300).Named("Massive Elo gap (>300)"),
		segment.Where(OddHome, segment.LT, 1.2).Named("Extreme home odds < 1.2"),
	}
	return Analysis{
		Name:        "goals",
		Description: "Goals, BTTS and result skews by Elo and odds",
		Entries:     segment.Cross("goals", preds, []segment.OutcomeRule{Goals25, BTTS, Result.Only("Home Win", "Away Win")}, TotalGoals),
		Policy:      ranking.MustPolicy(30, 65),
	}
}

// Reliable scores favorites and goal markets on large, conservative segments.
func Reliable() Analysis {
	preds := []segment.Predicate{
		segment.Where(AbsEloDiff, segment.GT, 250).Named("Elo gap > 250"),
		segment.Where(AbsEloDiff, segment.GT, 200).Named("Elo gap > 200"),
		segment.Where(AbsEloDiff, segment.GT, 150).Named("Elo gap > 150"),
		segment.Where(EloDiff, segment.GT, 100).Named("Home Elo lead > 100"),
		segment.And(segment.Where(HomeElo, segment.LT, 1400), segment.Where(AwayElo, segment.LT, 1400)).Named("Both Elo < 1400"),
		segment.And(segment.Where(HomeElo, segment.GT, 1700), segment.Where(AwayElo, segment.GT, 1700)).Named("Both Elo > 1700"),
		segment.And(segment.Where(Form5Home, segment.GT, 2.5), segment.Where(EloDiff, segment.GT, 50)).Named("Home form > 2.5"),
		segment.And(segment.Where(Form5Away, segment.GT, 2.0), segment.Where(EloDiff, segment.LT, -30)).Named("Away form > 2.0"),
		segment.Where(OddHome, segment.LT, 1.3).Named("Favorite odds < 1.3"),
		segment.Where(OddHome, segment.LT, 1.5).Named("Favorite odds < 1.5"),
	}
	return Analysis{
		Name:        "reliable",
		Description: "Favorite and goal markets on large segments",
		Entries:     segment.Cross("reliable", preds, []segment.OutcomeRule{FavoriteWon, Goals25, BTTS}, record.Field{}),
		Policy:      ranking.MustPolicy(50, 70),
	}
}

type strategy struct {
	group     string
	segment   segment.Predicate
	total     record.Field
	threshold float64
	over      bool
}

// Selective tests hand-built strategies against a single line and side each.
func Selective() Analysis {
	both := func(home, away record.Field, op segment.Op, v float64) segment.Predicate {
		return segment.And(segment.Where(home, op, v), segment.Where(away, op, v))
	}
	strategies := []strategy{
		{"fouls", both(HomeFouls, AwayFouls, segment.LT, 10).Named("Both sides < 10 fouls"), TotalFouls, 18.5, false},
		{"fouls", both(HomeFouls, AwayFouls, segment.GT, 14).Named("Both sides > 14 fouls"), TotalFouls, 28.5, true},
		{"fouls", segment.Where(FoulsDiff, segment.GT, 8).Named("Fouls gap > 8"), TotalFouls, 26.5, true},
		{"fouls", segment.Where(TotalGoals, segment.LE, 1).Named("Defensive match (goals <= 1)"), TotalFouls, 24.5, true},
		{"fouls", segment.Where(TotalGoals, segment.GE, 5).Named("Open match (goals >= 5)"), TotalFouls, 22.5, false},
		{"corners", segment.And(segment.Where(HomeCorners, segment.GT, 8), segment.Where(AwayCorners, segment.LT, 3)).Named("Home corners > 8, away < 3"), TotalCorners, 9.5, true},
		{"corners", segment.And(segment.Where(CornersDiff, segment.LE, 2), both(HomeCorners, AwayCorners, segment.GE, 4)).Named("Balanced corners"), TotalCorners, 8.5, true},
		{"corners", both(HomeCorners, AwayCorners, segment.LE, 3).Named("Both sides <= 3 corners"), TotalCorners, 6.5, false},
		{"corners", both(HomeCorners, AwayCorners, segment.GE, 6).Named("Both sides >= 6 corners"), TotalCorners, 11.5, true},
		{"yellow_cards", both(HomeYellow, AwayYellow, segment.LE, 1).Named("Both sides <= 1 yellow"), TotalYellow, 2.5, false},
		{"yellow_cards", both(HomeYellow, AwayYellow, segment.GE, 3).Named("Both sides >= 3 yellow"), TotalYellow, 5.5, true},
		{"yellow_cards", segment.Where(TotalFouls, segment.LT, 20).Named("Calm match (fouls < 20)"), TotalYellow, 3.5, false},
		{"yellow_cards", segment.Where(TotalFouls, segment.GT, 32).Named("Tense match (fouls > 32)"), TotalYellow, 4.5, true},
	}

	entries := make([]segment.Entry, len(strategies))
	for i, s := range strategies {
		rule := segment.OverUnder(s.total, s.threshold)
		side := segment.UnderLabel(s.threshold)
		if s.over {
			side = segment.OverLabel(s.threshold)
		}
		entries[i] = segment.Entry{Group: s.group, Segment: s.segment, Outcome: rule.Only(side), Aux: s.total}
	}
	return Analysis{
		Name:        "selective",
		Description: "Hand-built strategies aiming for very high precision",
		Entries:     entries,
		Policy:      ranking.MustPolicy(30, 85),
	}
}

// Builtin returns every built-in analysis in a fixed order.
func Builtin() []Analysis {
	return []Analysis{Markets(), Goals(), Reliable(), Selective()}
}

// Names lists the built-in analysis names.
func Names() []string {
	all := Builtin()
	names := make([]string, len(all))
	for i, a := range all {
		names[i] = a.Name
	}
	return names
}

// Select returns the named built-in analyses, all of them when names is
// empty.
func Select(names ...string) ([]Analysis, error) {
	all := Builtin()
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]Analysis, len(all))
	for _, a := range all {
		byName[a.Name] = a
	}
	out := make([]Analysis, 0, len(names))
	for _, n := range names {
		a, ok := byName[strings.TrimSpace(n)]
		if !ok {
			return nil, fmt.Errorf("unknown analysis %q (available: %s)", n, strings.Join(Names(), ", "))
		}
		out = append(out, a)
	}
	return out, nil
}
