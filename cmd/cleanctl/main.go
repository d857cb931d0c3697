package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"promopulse/internal/config"
	"promopulse/internal/dataprocessing"
	"promopulse/internal/exporter"
	"promopulse/internal/infrastructure"
	"promopulse/internal/kpi"
	"promopulse/internal/validation"
	"promopulse/pkg/contracts/domain"
)

func main() {
	inFile := flag.String("in", "", "sales file to clean (.csv, .xlsx or .xlsm)")
	inventoryFile := flag.String("inventory", "", "optional inventory snapshot file")
	campaignsFile := flag.String("campaigns", "", "optional campaign calendar file")
	outDir := flag.String("out", "", "output directory for CSV exports (defaults to the configured exports dir)")
	sampleRows := flag.Int("sample", 0, "generate a synthetic dataset with this many rows instead of reading a file")
	seed := flag.Int64("seed", dataprocessing.DefaultSampleSeed, "seed for synthetic dataset generation")
	flag.Parse()

	if *inFile == "" && *sampleRows <= 0 {
		fmt.Fprintln(os.Stderr, "either -in or -sample is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = &config.Config{}
	}
	applyCleaningDefaults(cfg)

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if *outDir == "" {
		*outDir = cfg.Paths.ExportsDir
	}
	if *outDir == "" {
		*outDir = config.DefaultExportsDir
	}

	if err := run(cfg, logger, *inFile, *inventoryFile, *campaignsFile, *outDir, *sampleRows, *seed); err != nil {
		logger.Error("Cleaning run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, inFile, inventoryFile, campaignsFile, outDir string, sampleRows int, seed int64) error {
	ctx := context.Background()
	loader := dataprocessing.NewLoader(cfg.Cleaning, logger)
	cleaner := dataprocessing.NewCleaner(cfg.Cleaning, logger)
	validator := validation.NewFileValidator(logger)

	if err := validator.ValidateOutputDirectory(outDir); err != nil {
		return fmt.Errorf("output directory: %w", err)
	}

	table, source, err := loadTable(loader, logger, inFile, sampleRows, seed)
	if err != nil {
		return err
	}

	columns, err := loader.ResolveColumns(table.Headers)
	if err != nil {
		return err
	}

	result, err := cleaner.Clean(ctx, table, columns)
	if err != nil {
		return err
	}

	dataset := &domain.Dataset{
		ID:           uuid.New().String(),
		Source:       source,
		LoadedAt:     time.Now().UTC(),
		Transactions: result.Transactions,
		Issues:       result.Issues,
		RawRows:      result.RawRows,
		DroppedRows:  result.DroppedRows,
	}

	var g errgroup.Group
	if inventoryFile != "" {
		g.Go(func() error {
			if err := validator.ValidateDataFile(inventoryFile); err != nil {
				return fmt.Errorf("inventory file: %w", err)
			}
			table, err := loader.LoadFile(inventoryFile)
			if err != nil {
				return fmt.Errorf("inventory file: %w", err)
			}
			if dataset.Inventory, err = loader.ParseInventory(table); err != nil {
				return fmt.Errorf("inventory file: %w", err)
			}
			return nil
		})
	}
	if campaignsFile != "" {
		g.Go(func() error {
			if err := validator.ValidateDataFile(campaignsFile); err != nil {
				return fmt.Errorf("campaigns file: %w", err)
			}
			table, err := loader.LoadFile(campaignsFile)
			if err != nil {
				return fmt.Errorf("campaigns file: %w", err)
			}
			if dataset.Campaigns, err = loader.ParseCampaigns(table); err != nil {
				return fmt.Errorf("campaigns file: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	engine := kpi.NewEngine(logger, kpi.DefaultEngineConfig())
	snapshot, err := engine.Compute(ctx, dataset)
	if err != nil {
		return err
	}

	writer := exporter.NewCSVWriter(outDir, logger)

	cleanedPath, err := writer.WriteSimpleCSV("cleaned.csv", exporter.TransactionHeaders(), exporter.TransactionRecords(dataset.Transactions))
	if err != nil {
		return err
	}
	issuesPath, err := writer.WriteSimpleCSV("issues.csv", exporter.IssueHeaders(), exporter.IssueRecords(dataset.Issues))
	if err != nil {
		return err
	}
	kpiPath, err := writer.WriteSimpleCSV("kpi_summary.csv", exporter.SnapshotHeaders(), exporter.SnapshotRecords(snapshot))
	if err != nil {
		return err
	}

	printSummary(dataset, snapshot, cleanedPath, issuesPath, kpiPath)

	logger.Info("Cleaning run complete",
		slog.String("source", source),
		slog.Int("raw_rows", dataset.RawRows),
		slog.Int("clean_rows", len(dataset.Transactions)),
		slog.Int("dropped_rows", dataset.DroppedRows),
		slog.Int("issues", len(dataset.Issues)))

	return nil
}

// loadTable reads the sales input, either from a validated file or from
// the synthetic generator when -sample is given.
func loadTable(loader *dataprocessing.Loader, logger *slog.Logger, inFile string, sampleRows int, seed int64) (*dataprocessing.RawTable, string, error) {
	if inFile != "" {
		validator := validation.NewFileValidator(logger)
		if err := validator.ValidateDataFile(inFile); err != nil {
			return nil, "", err
		}
		table, err := loader.LoadFile(inFile)
		if err != nil {
			return nil, "", err
		}
		return table, inFile, nil
	}

	gen := dataprocessing.NewSampleGenerator(logger)
	return gen.Sales(seed, sampleRows), fmt.Sprintf("sample(seed=%d)", seed), nil
}

func printSummary(ds *domain.Dataset, snapshot *domain.KPISnapshot, cleanedPath, issuesPath, kpiPath string) {
	rescueRate := 0.0
	if ds.RawRows > 0 {
		rescueRate = float64(len(ds.Transactions)) / float64(ds.RawRows) * 100
	}

	fmt.Printf("Source:        %s\n", ds.Source)
	fmt.Printf("Raw rows:      %d\n", ds.RawRows)
	fmt.Printf("Clean rows:    %d\n", len(ds.Transactions))
	fmt.Printf("Dropped rows:  %d\n", ds.DroppedRows)
	fmt.Printf("Issues logged: %d\n", len(ds.Issues))
	fmt.Printf("Rescue rate:   %.1f%%\n", rescueRate)
	fmt.Println()
	fmt.Printf("Total revenue: %.2f AED\n", snapshot.TotalRevenue)
	fmt.Printf("Orders:        %d\n", snapshot.Orders)
	fmt.Printf("Avg order:     %.2f AED\n", snapshot.AvgOrderAED)
	fmt.Printf("Gross margin:  %.1f%%\n", snapshot.GrossMargin)
	fmt.Println()
	fmt.Printf("Cleaned CSV:   %s\n", cleanedPath)
	fmt.Printf("Issues CSV:    %s\n", issuesPath)
	fmt.Printf("KPI CSV:       %s\n", kpiPath)
}

// applyCleaningDefaults fills zero-valued cleaning and simulation knobs
// when the config could not be loaded.
func applyCleaningDefaults(cfg *config.Config) {
	if cfg.Cleaning.MaxDiscountPct == 0 {
		cfg.Cleaning.MaxDiscountPct = 100
	}
	if cfg.Cleaning.OutlierLowPct == 0 {
		cfg.Cleaning.OutlierLowPct = 0.01
	}
	if cfg.Cleaning.OutlierHighPct == 0 {
		cfg.Cleaning.OutlierHighPct = 0.99
	}
	if cfg.Cleaning.FillMissingQty == 0 {
		cfg.Cleaning.FillMissingQty = 1
	}
	if cfg.Cleaning.DefaultReorder == 0 {
		cfg.Cleaning.DefaultReorder = 50
	}
	if cfg.Cleaning.DefaultLeadDays == 0 {
		cfg.Cleaning.DefaultLeadDays = 7
	}
}
