package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"promopulse/internal/config"
)

// RawTable is an uploaded tabular file before any cleaning.
type RawTable struct {
	Source  string
	Headers []string
	Rows    [][]string
}

// ColumnMap resolves logical field names to column indexes in a RawTable.
type ColumnMap map[string]int

// MissingColumnError reports a required logical field that no column in
// the upload could be mapped to. The loader fails fast with this error
// before any row is processed.
type MissingColumnError struct {
	Field string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column for field %q not found", e.Field)
}

// Loader reads sales uploads into raw tables using the configured
// column mapping.
type Loader struct {
	cfg    config.CleaningConfig
	logger *slog.Logger
}

// NewLoader creates a loader with the given cleaning configuration.
func NewLoader(cfg config.CleaningConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "loader")),
	}
}

// LoadFile reads a tabular file from disk, dispatching on extension.
// CSV and Excel (.xlsx) uploads are supported.
func (l *Loader) LoadFile(path string) (*RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		return l.ReadCSV(f, filepath.Base(path))
	case ".xlsx", ".xlsm":
		return l.loadExcel(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// ReadCSV reads a CSV stream into a raw table. The first record is
// treated as the header row.
func (l *Loader) ReadCSV(r io.Reader, source string) (*RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file: %s", source)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	table := &RawTable{
		Source:  source,
		Headers: headers,
		Rows:    records[1:],
	}

	l.logger.Info("CSV loaded",
		slog.String("source", source),
		slog.Int("rows", len(table.Rows)),
		slog.Int("columns", len(headers)))

	return table, nil
}

// loadExcel reads the first sheet that carries the expected headers.
func (l *Loader) loadExcel(path string) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var rows [][]string
	var sheetName string

	for _, name := range f.GetSheetList() {
		testRows, testErr := f.GetRows(name)
		if testErr != nil || len(testRows) < 2 {
			continue
		}
		headerText := strings.ToLower(strings.Join(testRows[0], " "))
		if strings.Contains(headerText, "order") || strings.Contains(headerText, "product") {
			rows = testRows
			sheetName = name
			break
		}
	}

	if sheetName == "" {
		names := f.GetSheetList()
		if len(names) == 0 {
			return nil, fmt.Errorf("no sheets in file: %s", path)
		}
		sheetName = names[0]
		if rows, err = f.GetRows(sheetName); err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("empty sheet %s in %s", sheetName, path)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	l.logger.Info("Excel sheet loaded",
		slog.String("source", filepath.Base(path)),
		slog.String("sheet", sheetName),
		slog.Int("rows", len(rows)-1))

	return &RawTable{
		Source:  filepath.Base(path),
		Headers: headers,
		Rows:    rows[1:],
	}, nil
}

// ResolveColumns maps logical field names to column indexes using the
// configured mapping first, then the built-in header aliases. It returns
// a MissingColumnError for the first required field that cannot be
// resolved, before any row work happens.
func (l *Loader) ResolveColumns(headers []string) (ColumnMap, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[normalizeHeader(h)] = i
	}

	mapping := l.cfg.ColumnMapping
	if len(mapping) == 0 {
		mapping = config.DefaultColumnMapping()
	}
	aliases := config.HeaderAliases()

	columns := make(ColumnMap)
	for field, header := range mapping {
		if i, ok := index[normalizeHeader(header)]; ok {
			columns[field] = i
			continue
		}
		for _, alias := range aliases[field] {
			if i, ok := index[normalizeHeader(alias)]; ok {
				columns[field] = i
				break
			}
		}
	}

	for _, field := range config.RequiredFields() {
		if _, ok := columns[field]; !ok {
			l.logger.Warn("required column missing",
				slog.String("field", field),
				slog.Any("headers", headers))
			return nil, &MissingColumnError{Field: field}
		}
	}

	return columns, nil
}

// Get returns the trimmed cell for a logical field, or "" when the
// field is unmapped or the row is short.
func (c ColumnMap) Get(row []string, field string) string {
	i, ok := c[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Has reports whether a logical field was resolved to a column.
func (c ColumnMap) Has(field string) bool {
	_, ok := c[field]
	return ok
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}
