package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/Alias1177/matchminer/internal/record"
)

// ErrUnsupported is returned for files that are neither CSV nor XLSX.
var ErrUnsupported = errors.New("unsupported file type")

// Options controls how raw cells become record fields.
type Options struct {
	// Sheet selects the XLSX sheet; empty means the first sheet.
	Sheet string
	// Categorical columns are kept as strings even when they parse as numbers.
	Categorical []string
}

// Stats describes a load.
type Stats struct {
	Rows    int           `json:"rows"`
	Dropped int           `json:"dropped"` // rows with a wrong column count
	Columns []string      `json:"columns"`
	Elapsed time.Duration `json:"elapsed"`
}

// Load reads path into a record store, dispatching on the file extension.
func Load(path string, opts Options) (*record.Store, Stats, error) {
	start := time.Now()

	var (
		rows  [][]string
		loose bool
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path, opts.Sheet)
		// excelize trims trailing empty cells, so short rows are legitimate.
		loose = true
	default:
		return nil, Stats{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	if err != nil {
		return nil, Stats{}, err
	}

	store, stats, err := build(rows, opts, loose)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%s: %w", path, err)
	}
	stats.Elapsed = time.Since(start)

	log.Info().
		Str("file", path).
		Int("records", stats.Rows).
		Int("dropped", stats.Dropped).
		Int("columns", len(stats.Columns)).
		Dur("elapsed", stats.Elapsed).
		Msg("Match history loaded")
	return store, stats, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	rows, err := parseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func parseCSV(in io.Reader) ([][]string, error) {
	br := bufio.NewReader(in)
	head, _ := br.Peek(4096)

	r := csv.NewReader(br)
	r.Comma = sniffDelimiter(head)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

// sniffDelimiter picks ';' when the header line has more semicolons than
// commas.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	return sheetRows(f, sheet)
}

func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("excel file has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func build(rows [][]string, opts Options, loose bool) (*record.Store, Stats, error) {
	if len(rows) == 0 {
		return nil, Stats{}, fmt.Errorf("file has no header row")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	categorical := make(map[string]bool, len(opts.Categorical))
	for _, c := range opts.Categorical {
		categorical[c] = true
	}

	stats := Stats{Columns: header}
	recs := make([]record.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) > len(header) || (!loose && len(row) != len(header)) {
			stats.Dropped++
			continue
		}
		num := make(map[string]float64, len(row))
		str := make(map[string]string)
		for j, cell := range row {
			cell = strings.TrimSpace(cell)
			name := header[j]
			if cell == "" || name == "" {
				continue
			}
			if !categorical[name] {
				if v, err := strconv.ParseFloat(cell, 64); err == nil {
					num[name] = v
					continue
				}
			}
			str[name] = cell
		}
		recs = append(recs, record.New(num, str))
	}
	stats.Rows = len(recs)
	return record.NewStore(recs), stats, nil
}

// Getter downloads a remote file.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// IsRemote reports whether path is an http(s) URL.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Fetch downloads rawURL with g and parses it like Load, using the extension
// of the URL path (query strings are ignored).
func Fetch(ctx context.Context, g Getter, rawURL string, opts Options) (*record.Store, Stats, error) {
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("invalid data URL: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(u.Path))
	if ext != ".csv" && ext != ".txt" && ext != ".xlsx" && ext != ".xlsm" {
		return nil, Stats{}, fmt.Errorf("%w: %s", ErrUnsupported, rawURL)
	}

	data, err := g.Get(ctx, rawURL)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to download match history: %w", err)
	}

	var (
		rows  [][]string
		loose bool
	)
	if ext == ".xlsx" || ext == ".xlsm" {
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, Stats{}, fmt.Errorf("failed to open Excel file: %w", err)
		}
		defer f.Close()
		rows, err = sheetRows(f, opts.Sheet)
		if err != nil {
			return nil, Stats{}, err
		}
		loose = true
	} else {
		rows, err = parseCSV(bytes.NewReader(data))
		if err != nil {
			return nil, Stats{}, fmt.Errorf("failed to read CSV: %w", err)
		}
	}

	store, stats, err := build(rows, opts, loose)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%s: %w", rawURL, err)
	}
	stats.Elapsed = time.Since(start)

	log.Info().
		Str("url", rawURL).
		Int("bytes", len(data)).
		Int("records", stats.Rows).
		Int("dropped", stats.Dropped).
		Dur("elapsed", stats.Elapsed).
		Msg("Match history downloaded")
	return store, stats, nil
}

// Read parses CSV from r. It is Load for data that is not on disk.
func Read(r io.Reader, opts Options) (*record.Store, Stats, error) {
	start := time.Now()
	rows, err := parseCSV(r)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to read CSV: %w", err)
	}
	store, stats, err := build(rows, opts, false)
	if err != nil {
		return nil, Stats{}, err
	}
	stats.Elapsed = time.Since(start)
	return store, stats, nil
}
