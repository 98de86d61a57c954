package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Division,MatchDate,HomeElo,AwayElo,FTResult,FTHome,FTAway,HomeFouls,AwayFouls,HomeCorners,AwayCorners,HomeYellow,AwayYellow
F1,2021-08-06,1700,1650,H,2,1,12,14,6,4,2,3
F1,2021-08-07,1600,1610,D,1,1,10,11,5,5,1,2
E0,2021-08-08,1500,1720,A,0,2,15,13,3,7,3,1
`

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Matches.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	t.Setenv("PERSIST", "")
	t.Setenv("CATALOG_FILE", "")
	t.Setenv("OUTPUT_FILE", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--data", path, "--log-level", "error"))
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestDescribeCommand(t *testing.T) {
	out := runCLI(t, "describe", "--by", "Division")
	assert.Contains(t, out, "Matches: 3")
	assert.Contains(t, out, "TotalFouls")
	assert.Contains(t, out, "By Division:")
}

func TestThresholdsCommand(t *testing.T) {
	out := runCLI(t, "thresholds", "--field", "TotalFouls", "--start", "20.5", "--stop", "26.5", "--step", "2", "--rates")
	assert.Contains(t, out, "TotalFouls (3 matches)")
	assert.Contains(t, out, "over 100.00%")
}

func TestScanCommand(t *testing.T) {
	report := filepath.Join(t.TempDir(), "report.json")
	out := runCLI(t, "scan", "--analysis", "selective", "--min-sample", "1", "--min-precision", "0", "--output", report)
	assert.Contains(t, out, "DISCOVERY RESULTS")
	assert.Contains(t, out, "selective")

	b, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"run_id"`)
}
