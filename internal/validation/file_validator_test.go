package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileValidator_ValidateFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	path := writeFile(t, dir, "sales.csv", "order_id\nORD-1\n")
	assert.NoError(t, v.ValidateFile(path))

	assert.Error(t, v.ValidateFile(filepath.Join(dir, "missing.csv")))
	assert.Error(t, v.ValidateFile(dir), "directories are not files")
}

func TestFileValidator_ValidateDataFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{"csv accepted", "sales.csv", false},
		{"xlsx accepted", "sales.xlsx", false},
		{"xlsm accepted", "macro.xlsm", false},
		{"pdf rejected", "report.pdf", true},
		{"excel lock file rejected", "~$sales.xlsx", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, "x")
			err := v.ValidateDataFile(path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)
	dir := filepath.Join(t.TempDir(), "exports", "nested")

	require.NoError(t, v.ValidateOutputDirectory(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
