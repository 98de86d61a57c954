package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Alias1177/matchminer/internal/backtest"
	"github.com/Alias1177/matchminer/internal/catalog"
	"github.com/Alias1177/matchminer/internal/config"
	"github.com/Alias1177/matchminer/internal/database"
	"github.com/Alias1177/matchminer/internal/model"
)

var (
	flagAnalyses     []string
	flagCatalogFile  string
	flagTopN         int
	flagOutput       string
	flagPersist      bool
	flagMinSample    int
	flagMinPrecision float64
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the pattern analyses and rank the findings",
	Example: `  analyzer scan --data Matches.csv
  analyzer scan --analysis markets,selective --top 20 --output report.json
  analyzer scan --catalog tense.yaml --min-precision 75 --persist`,
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	f.StringSliceVar(&flagAnalyses, "analysis", nil, "built-in analyses to run (default all): "+fmt.Sprint(catalog.Names()))
	f.StringVar(&flagCatalogFile, "catalog", "", "YAML file with a custom analysis (overrides CATALOG_FILE)")
	f.IntVar(&flagTopN, "top", 0, "size of the merged top list (overrides TOP_N)")
	f.StringVarP(&flagOutput, "output", "o", "", "write the JSON report to this file (overrides OUTPUT_FILE)")
	f.BoolVar(&flagPersist, "persist", false, "save the report to PostgreSQL (overrides PERSIST)")
	f.IntVar(&flagMinSample, "min-sample", 0, "minimum segment size for every analysis (overrides MIN_SAMPLE)")
	f.Float64Var(&flagMinPrecision, "min-precision", 0, "minimum precision in percent for every analysis (overrides MIN_PRECISION)")
}

// applyScanFlags copies the scan flags that were set onto c.
func applyScanFlags(f *pflag.FlagSet, c *config.Config) {
	if f.Lookup("catalog") == nil {
		return
	}
	if f.Changed("catalog") {
		c.CatalogFile = flagCatalogFile
	}
	if f.Changed("top") {
		c.TopN = flagTopN
	}
	if f.Changed("output") {
		c.OutputFile = flagOutput
	}
	if f.Changed("persist") {
		c.Persist = flagPersist
	}
	if f.Changed("min-sample") {
		n := flagMinSample
		c.MinSample = &n
	}
	if f.Changed("min-precision") {
		p := flagMinPrecision
		c.MinPrecision = &p
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	analyses, err := catalog.Select(flagAnalyses...)
	if err != nil {
		return err
	}
	if cfg.CatalogFile != "" {
		custom, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return err
		}
		if len(flagAnalyses) == 0 {
			analyses = nil
		}
		analyses = append(analyses, custom)
	}

	store, err := loadStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	engine := backtest.NewEngine(backtest.Options{
		Workers:      cfg.Workers,
		TopN:         cfg.TopN,
		MinSample:    cfg.MinSample,
		MinPrecision: cfg.MinPrecision,
		Source:       cfg.DataFile,
	})
	report, err := engine.Run(ctx, store, analyses)
	if err != nil {
		return fmt.Errorf("discovery run failed: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), backtest.FormatResults(report))

	if cfg.OutputFile != "" {
		if err := writeReport(cfg.OutputFile, report); err != nil {
			return err
		}
		log.Info().Str("file", cfg.OutputFile).Msg("Report written")
	}

	if cfg.Persist {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		if err := db.SaveReport(ctx, report); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(path string, report *model.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return backtest.WriteJSON(f, report)
}
