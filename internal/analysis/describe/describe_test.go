package describe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/matchminer/internal/record"
)

func generateMatches(n int, fn func(i int) record.Record) *record.Store {
	recs := make([]record.Record, n)
	for i := range recs {
		recs[i] = fn(i)
	}
	return record.NewStore(recs)
}

func TestSummarize(t *testing.T) {
	store := generateMatches(5, func(i int) record.Record {
		return record.New(map[string]float64{"HomeCorners": float64(2 + 2*i)}, nil)
	})

	s, ok := Summarize(store, record.Column("HomeCorners"))
	require.True(t, ok)
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 6, s.Mean, 1e-9)
	assert.InDelta(t, 6, s.Median, 1e-9)
	assert.InDelta(t, 2, s.Min, 1e-9)
	assert.InDelta(t, 10, s.Max, 1e-9)
	assert.InDelta(t, 3.1623, s.Std, 1e-4)
	assert.InDelta(t, 52.70, s.CV, 1e-2)
	assert.Equal(t, Volatile, s.Stability)

	_, ok = Summarize(store, record.Column("AwayCorners"))
	assert.False(t, ok)
}

func TestStabilityFor(t *testing.T) {
	assert.Equal(t, VeryStable, StabilityFor(12))
	assert.Equal(t, Stable, StabilityFor(20))
	assert.Equal(t, Stable, StabilityFor(29.9))
	assert.Equal(t, Volatile, StabilityFor(30))
}

func TestCompareSides(t *testing.T) {
	home, away := record.Column("HomeShots"), record.Column("AwayShots")

	t.Run("clear difference", func(t *testing.T) {
		store := generateMatches(40, func(i int) record.Record {
			return record.New(map[string]float64{
				"HomeShots": 15 + float64(i%3),
				"AwayShots": 9 + float64(i%3),
			}, nil)
		})
		cmp := CompareSides(store, []Pair{{Market: "Shots", Home: home, Away: away}})
		require.Len(t, cmp, 1)
		assert.InDelta(t, 16, cmp[0].HomeMean, 0.05)
		assert.Greater(t, cmp[0].TStat, 0.0)
		assert.Less(t, cmp[0].PValue, 0.001)
		assert.True(t, cmp[0].Significant)
		assert.Greater(t, cmp[0].DiffPct, 0.0)
	})

	t.Run("identical sides", func(t *testing.T) {
		store := generateMatches(10, func(i int) record.Record {
			v := float64(i % 4)
			return record.New(map[string]float64{"HomeShots": v, "AwayShots": v}, nil)
		})
		cmp := CompareSides(store, []Pair{{Market: "Shots", Home: home, Away: away}})
		require.Len(t, cmp, 1)
		assert.InDelta(t, 0, cmp[0].TStat, 1e-9)
		assert.InDelta(t, 1, cmp[0].PValue, 1e-9)
		assert.False(t, cmp[0].Significant)
	})

	t.Run("too few values", func(t *testing.T) {
		store := generateMatches(1, func(int) record.Record {
			return record.New(map[string]float64{"HomeShots": 1, "AwayShots": 2}, nil)
		})
		assert.Empty(t, CompareSides(store, []Pair{{Market: "Shots", Home: home, Away: away}}))
	})
}

func TestBreakdown(t *testing.T) {
	results := []string{"H", "H", "A", "D", "H", "A"}
	store := generateMatches(len(results)+1, func(i int) record.Record {
		if i == len(results) {
			return record.New(nil, nil)
		}
		return record.New(nil, map[string]string{"FTResult": results[i]})
	})

	got := Breakdown(store, "FTResult")
	require.Len(t, got, 3)
	assert.Equal(t, Count{Value: "H", Count: 3, Share: 50}, got[0])
	assert.Equal(t, "A", got[1].Value)
	assert.Equal(t, "D", got[2].Value)
}
