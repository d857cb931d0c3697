package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"promopulse/internal/config"
	"promopulse/internal/dataprocessing"
	"promopulse/internal/middleware"
	"promopulse/pkg/contracts/domain"
)

// Broadcaster pushes dataset lifecycle events to connected dashboards.
type Broadcaster interface {
	BroadcastDatasetLoaded(source string, rows, dropped, issues int)
	BroadcastCleaningProgress(step string, current, total int, message string)
	BroadcastError(code, message string, recoverable bool)
}

// DataService owns the current dataset. Loading a new file or sample
// replaces the dataset atomically; readers always see a complete one.
type DataService struct {
	cfg      *config.Config
	loader   *dataprocessing.Loader
	cleaner  *dataprocessing.Cleaner
	samples  *dataprocessing.SampleGenerator
	hub      Broadcaster
	activity *ActivityLog
	logger   *slog.Logger

	mu      sync.RWMutex
	current *domain.Dataset
}

// DatasetSummary describes the outcome of loading and cleaning a file.
type DatasetSummary struct {
	ID               string         `json:"id"`
	Source           string         `json:"source"`
	LoadedAt         time.Time      `json:"loaded_at"`
	RawRows          int            `json:"raw_rows"`
	CleanRows        int            `json:"clean_rows"`
	DroppedRows      int            `json:"dropped_rows"`
	InventoryRecords int            `json:"inventory_records"`
	Campaigns        int            `json:"campaigns"`
	IssueCount       int            `json:"issue_count"`
	IssuesByRule     map[string]int `json:"issues_by_rule"`
	IssuesBySeverity map[string]int `json:"issues_by_severity"`
	RescueRatePct    float64        `json:"rescue_rate_pct"`
}

// NewDataService creates a new data service with injected dependencies
func NewDataService(cfg *config.Config, hub Broadcaster, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "service.data"))

	logger.Info("DataService initialized",
		slog.String("uploads_dir", cfg.Paths.UploadsDir),
		slog.String("exports_dir", cfg.Paths.ExportsDir))

	return &DataService{
		cfg:     cfg,
		loader:  dataprocessing.NewLoader(cfg.Cleaning, logger),
		cleaner: dataprocessing.NewCleaner(cfg.Cleaning, logger),
		samples: dataprocessing.NewSampleGenerator(logger),
		hub:     hub,
		logger:  logger,
	}
}

// SetActivityLog attaches an activity log. Optional; recording is a
// no-op until one is set.
func (ds *DataService) SetActivityLog(activity *ActivityLog) {
	ds.activity = activity
}

func (ds *DataService) recordActivity(level domain.ActivityLevel, format string, args ...interface{}) {
	if ds.activity != nil {
		ds.activity.Recordf(level, domain.ActivityCategoryDataset, format, args...)
	}
}

// LoadSalesUpload saves an uploaded sales file, cleans it, and installs
// the result as the current dataset.
func (ds *DataService) LoadSalesUpload(ctx context.Context, filename string, r io.Reader) (*DatasetSummary, error) {
	path, err := ds.saveUpload(filename, r)
	if err != nil {
		return nil, err
	}

	table, err := ds.loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return ds.installSales(ctx, table)
}

// LoadSample generates the built-in deterministic sample dataset,
// complete with inventory and campaign data.
func (ds *DataService) LoadSample(ctx context.Context, seed int64, rows int) (*DatasetSummary, error) {
	if rows <= 0 {
		rows = 500
	}
	if seed == 0 {
		seed = dataprocessing.DefaultSampleSeed
	}

	ds.logger.InfoContext(ctx, "Generating sample dataset",
		slog.Int64("seed", seed),
		slog.Int("rows", rows))

	sales := ds.samples.Sales(seed, rows)
	if _, err := ds.installSales(ctx, sales); err != nil {
		return nil, err
	}

	inventory, err := ds.loader.ParseInventory(ds.samples.Inventory(seed+1, 120))
	if err != nil {
		return nil, fmt.Errorf("parsing sample inventory: %w", err)
	}
	campaigns, err := ds.loader.ParseCampaigns(ds.samples.Campaigns(seed + 2))
	if err != nil {
		return nil, fmt.Errorf("parsing sample campaigns: %w", err)
	}

	if err := ds.replaceCurrent(func(next *domain.Dataset) {
		next.Inventory = inventory
		next.Campaigns = campaigns
	}); err != nil {
		return nil, err
	}

	return ds.Summary(ctx)
}

// AttachInventoryUpload parses an inventory file into the current dataset
func (ds *DataService) AttachInventoryUpload(ctx context.Context, filename string, r io.Reader) (*DatasetSummary, error) {
	path, err := ds.saveUpload(filename, r)
	if err != nil {
		return nil, err
	}
	table, err := ds.loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	inventory, err := ds.loader.ParseInventory(table)
	if err != nil {
		return nil, err
	}

	if err := ds.replaceCurrent(func(next *domain.Dataset) {
		next.Inventory = inventory
	}); err != nil {
		return nil, err
	}

	ds.logger.InfoContext(ctx, "Inventory attached",
		slog.String("source", filename),
		slog.Int("records", len(inventory)))
	return ds.Summary(ctx)
}

// AttachCampaignsUpload parses a campaign calendar into the current dataset
func (ds *DataService) AttachCampaignsUpload(ctx context.Context, filename string, r io.Reader) (*DatasetSummary, error) {
	path, err := ds.saveUpload(filename, r)
	if err != nil {
		return nil, err
	}
	table, err := ds.loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	campaigns, err := ds.loader.ParseCampaigns(table)
	if err != nil {
		return nil, err
	}

	if err := ds.replaceCurrent(func(next *domain.Dataset) {
		next.Campaigns = campaigns
	}); err != nil {
		return nil, err
	}

	ds.logger.InfoContext(ctx, "Campaigns attached",
		slog.String("source", filename),
		slog.Int("campaigns", len(campaigns)))
	return ds.Summary(ctx)
}

// replaceCurrent installs a shallow copy of the current dataset, with
// a new ID, after applying mutate to it. Datasets handed out by Current
// are never written again, so concurrent readers keep a frozen view and
// snapshot caches keyed by dataset ID recompute.
func (ds *DataService) replaceCurrent(mutate func(next *domain.Dataset)) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.current == nil {
		return ErrNoDataset
	}
	next := *ds.current
	next.ID = uuid.New().String()
	mutate(&next)
	ds.current = &next
	return nil
}

// Current returns the current dataset, or ErrNoDataset if none is loaded
func (ds *DataService) Current(ctx context.Context) (*domain.Dataset, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if ds.current == nil {
		return nil, ErrNoDataset
	}
	return ds.current, nil
}

// Issues returns the issue log, optionally filtered by severity and rule
func (ds *DataService) Issues(ctx context.Context, severity, rule string) ([]domain.CleaningIssue, error) {
	dataset, err := ds.Current(ctx)
	if err != nil {
		return nil, err
	}

	if severity == "" && rule == "" {
		return dataset.Issues, nil
	}
	filtered := make([]domain.CleaningIssue, 0, len(dataset.Issues))
	for _, issue := range dataset.Issues {
		if severity != "" && string(issue.Severity) != severity {
			continue
		}
		if rule != "" && string(issue.Rule) != rule {
			continue
		}
		filtered = append(filtered, issue)
	}
	return filtered, nil
}

// Summary returns counts and the rescue rate for the current dataset
func (ds *DataService) Summary(ctx context.Context) (*DatasetSummary, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	dataset := ds.current
	if dataset == nil {
		return nil, ErrNoDataset
	}

	byRule := make(map[string]int)
	bySeverity := make(map[string]int)
	for _, issue := range dataset.Issues {
		byRule[string(issue.Rule)]++
		bySeverity[string(issue.Severity)]++
	}

	rescueRate := 0.0
	if dataset.RawRows > 0 {
		rescueRate = float64(len(dataset.Transactions)) / float64(dataset.RawRows) * 100
	}

	return &DatasetSummary{
		ID:               dataset.ID,
		Source:           dataset.Source,
		LoadedAt:         dataset.LoadedAt,
		RawRows:          dataset.RawRows,
		CleanRows:        len(dataset.Transactions),
		DroppedRows:      dataset.DroppedRows,
		InventoryRecords: len(dataset.Inventory),
		Campaigns:        len(dataset.Campaigns),
		IssueCount:       len(dataset.Issues),
		IssuesByRule:     byRule,
		IssuesBySeverity: bySeverity,
		RescueRatePct:    rescueRate,
	}, nil
}

// Clear drops the current dataset
func (ds *DataService) Clear(ctx context.Context) {
	ds.mu.Lock()
	ds.current = nil
	ds.mu.Unlock()
	ds.logger.InfoContext(ctx, "Dataset cleared")
	ds.recordActivity(domain.ActivityInfo, "dataset cleared")
}

// installSales cleans a raw sales table and replaces the current dataset
func (ds *DataService) installSales(ctx context.Context, table *dataprocessing.RawTable) (*DatasetSummary, error) {
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDataset, table.Source)
	}

	columns, err := ds.loader.ResolveColumns(table.Headers)
	if err != nil {
		return nil, err
	}

	if ds.hub != nil {
		ds.hub.BroadcastCleaningProgress("cleaning", 0, len(table.Rows), "cleaning "+table.Source)
	}

	result, err := ds.cleaner.Clean(ctx, table, columns)
	if err != nil {
		return nil, err
	}

	dataset := &domain.Dataset{
		ID:           uuid.New().String(),
		Source:       table.Source,
		LoadedAt:     time.Now().UTC(),
		Transactions: result.Transactions,
		Issues:       result.Issues,
		RawRows:      result.RawRows,
		DroppedRows:  result.DroppedRows,
	}

	ds.mu.Lock()
	ds.current = dataset
	ds.mu.Unlock()

	ds.logger.InfoContext(ctx, "Dataset installed",
		slog.String("dataset_id", dataset.ID),
		slog.String("source", dataset.Source),
		slog.Int("raw_rows", dataset.RawRows),
		slog.Int("clean_rows", len(dataset.Transactions)),
		slog.Int("dropped_rows", dataset.DroppedRows),
		slog.Int("issues", len(dataset.Issues)))

	middleware.RecordCleaningMetrics(ctx, dataset.Source,
		int64(dataset.RawRows), int64(dataset.DroppedRows), int64(len(dataset.Issues)))

	if ds.hub != nil {
		ds.hub.BroadcastDatasetLoaded(dataset.Source, len(dataset.Transactions), dataset.DroppedRows, len(dataset.Issues))
	}
	ds.recordActivity(domain.ActivityInfo, "dataset %s loaded: %d clean rows, %d dropped, %d issues",
		dataset.Source, len(dataset.Transactions), dataset.DroppedRows, len(dataset.Issues))

	return ds.Summary(ctx)
}

// saveUpload writes an uploaded file into the uploads directory
func (ds *DataService) saveUpload(filename string, r io.Reader) (string, error) {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: empty filename", ErrInvalidInput)
	}

	ext := strings.ToLower(filepath.Ext(base))
	switch ext {
	case ".csv", ".xlsx", ".xlsm":
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidFileType, ext)
	}

	if err := os.MkdirAll(ds.cfg.Paths.UploadsDir, 0755); err != nil {
		return "", fmt.Errorf("creating uploads dir: %w", err)
	}

	path := filepath.Join(ds.cfg.Paths.UploadsDir, uuid.New().String()[:8]+"_"+base)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, io.LimitReader(r, config.MaxUploadBytes+1)); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	if info, err := file.Stat(); err == nil && info.Size() > config.MaxUploadBytes {
		os.Remove(path)
		return "", ErrFileTooLarge
	}

	return path, nil
}
