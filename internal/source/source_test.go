package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const matchesCSV = `Division,MatchDate,HomeElo,AwayElo,FTResult,HomeFouls,AwayFouls
F1,2021-08-06,1700.5,1650,H,12,14
F1,2021-08-07,1600,1610,D,,11
E0,2021-08-08,1500,1720
SP1,2021-08-09,1550,1555,A,9,10
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	store, stats, err := Load(writeFile(t, "Matches.csv", matchesCSV), Options{Categorical: []string{"MatchDate"}})
	require.NoError(t, err)

	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 1, stats.Dropped)
	assert.Len(t, stats.Columns, 7)

	first := store.At(0)
	v, ok := first.Num("HomeElo")
	require.True(t, ok)
	assert.Equal(t, 1700.5, v)
	d, ok := first.Str("MatchDate")
	require.True(t, ok)
	assert.Equal(t, "2021-08-06", d)
	res, _ := first.Str("FTResult")
	assert.Equal(t, "H", res)

	_, ok = store.At(1).Num("HomeFouls")
	assert.False(t, ok, "empty cell is absent")
}

func TestLoadSemicolonCSV(t *testing.T) {
	content := strings.ReplaceAll(matchesCSV, ",", ";")
	store, _, err := Load(writeFile(t, "matches.csv", content), Options{})
	require.NoError(t, err)
	require.Equal(t, 3, store.Len())
	v, ok := store.At(2).Num("AwayFouls")
	require.True(t, ok)
	assert.Equal(t, 10.0, v)
}

func TestRead(t *testing.T) {
	store, stats, err := Read(strings.NewReader(matchesCSV), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 1, stats.Dropped)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Division", "HomeCorners", "AwayCorners", "FTResult"},
		{"F1", 6, 4, "H"},
		{"F1", 3, 7},
		{"I1", 5, 5, "D"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "matches.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	store, stats, err := Load(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 0, stats.Dropped)

	v, ok := store.At(0).Num("HomeCorners")
	require.True(t, ok)
	assert.Equal(t, 6.0, v)
	_, ok = store.At(1).Str("FTResult")
	assert.False(t, ok)

	_, _, err = Load(path, Options{Sheet: "Missing"})
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, _, err := Load(writeFile(t, "matches.json", "{}"), Options{})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.Error(t, err)

	_, _, err = Load(writeFile(t, "empty.csv", ""), Options{})
	assert.Error(t, err)
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c\n1,5;2;3")))
	assert.Equal(t, ',', sniffDelimiter([]byte("a,b,c\n1;2;3;4;5")))
	assert.Equal(t, ',', sniffDelimiter(nil))
}

type stubGetter struct {
	data []byte
	err  error
	urls []string
}

func (g *stubGetter) Get(_ context.Context, url string) ([]byte, error) {
	g.urls = append(g.urls, url)
	return g.data, g.err
}

func TestFetch(t *testing.T) {
	t.Run("csv with query string", func(t *testing.T) {
		g := &stubGetter{data: []byte(matchesCSV)}
		store, stats, err := Fetch(context.Background(), g, "https://example.com/data/Matches.csv?v=2", Options{})
		require.NoError(t, err)
		assert.Equal(t, 3, store.Len())
		assert.Equal(t, 1, stats.Dropped)
		assert.Equal(t, []string{"https://example.com/data/Matches.csv?v=2"}, g.urls)
	})

	t.Run("xlsx", func(t *testing.T) {
		f := excelize.NewFile()
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"HomeElo", "AwayElo"}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{1500, 1400}))
		buf, err := f.WriteToBuffer()
		require.NoError(t, err)

		store, _, err := Fetch(context.Background(), &stubGetter{data: buf.Bytes()}, "http://host/Matches.xlsx", Options{})
		require.NoError(t, err)
		require.Equal(t, 1, store.Len())
		v, ok := store.At(0).Num("AwayElo")
		require.True(t, ok)
		assert.Equal(t, 1400.0, v)
	})

	t.Run("unsupported extension is not downloaded", func(t *testing.T) {
		g := &stubGetter{}
		_, _, err := Fetch(context.Background(), g, "https://example.com/matches.json", Options{})
		assert.ErrorIs(t, err, ErrUnsupported)
		assert.Empty(t, g.urls)
	})

	t.Run("download error", func(t *testing.T) {
		boom := errors.New("boom")
		_, _, err := Fetch(context.Background(), &stubGetter{err: boom}, "https://example.com/Matches.csv", Options{})
		assert.ErrorIs(t, err, boom)
	})
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/Matches.csv"))
	assert.True(t, IsRemote("http://example.com/Matches.csv"))
	assert.False(t, IsRemote("data/Matches.csv"))
}
