package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pointLoadAt isolates Load from the developer's working directory by
// redirecting both the config file lookup and the writable paths.
func pointLoadAt(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PROMOPULSE_CONFIG", filepath.Join(dir, "promopulse.yml"))
	t.Setenv("PROMOPULSE_PATHS_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("PROMOPULSE_PATHS_UPLOADS_DIR", filepath.Join(dir, "data", "uploads"))
	t.Setenv("PROMOPULSE_PATHS_EXPORTS_DIR", filepath.Join(dir, "data", "exports"))
	t.Setenv("PROMOPULSE_PATHS_LOGS_DIR", filepath.Join(dir, "logs"))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	pointLoadAt(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100.0, cfg.Cleaning.MaxDiscountPct)
	assert.Equal(t, 0.01, cfg.Cleaning.OutlierLowPct)
	assert.Equal(t, 0.99, cfg.Cleaning.OutlierHighPct)
	assert.Equal(t, 1.5, cfg.Simulation.DefaultElasticity)
	assert.Equal(t, 70.0, cfg.Simulation.MaxDiscountPct)

	assert.Equal(t, DefaultColumnMapping(), cfg.Cleaning.ColumnMapping)
	assert.Equal(t, DefaultCityAliases(), cfg.Cleaning.CityAliases)
	assert.NotEmpty(t, cfg.Cleaning.TimeFormats)
}

func TestLoad_EnvOverride(t *testing.T) {
	pointLoadAt(t)
	t.Setenv("PROMOPULSE_SERVER_PORT", "9090")
	t.Setenv("PROMOPULSE_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_CreatesDirectories(t *testing.T) {
	dir := pointLoadAt(t)

	_, err := Load()
	require.NoError(t, err)

	for _, sub := range []string{"data", "data/uploads", "data/exports", "logs"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		require.NoError(t, err, sub)
		assert.True(t, info.IsDir(), sub)
	}
}

func TestLoad_FileProvidesMapSettings(t *testing.T) {
	dir := pointLoadAt(t)

	configFile := filepath.Join(dir, "promopulse.yml")
	yaml := `
cleaning:
  city_aliases:
    DXB: Dubai
    AJM: Ajman
simulation:
  elasticity:
    Grocery: 2.1
`
	require.NoError(t, os.WriteFile(configFile, []byte(yaml), 0644))
	t.Setenv("PROMOPULSE_CONFIG", configFile)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Ajman", cfg.Cleaning.CityAliases["AJM"])
	assert.Equal(t, 2.1, cfg.Simulation.Elasticity["Grocery"])
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080},
			Cleaning: CleaningConfig{
				OutlierLowPct:  0.01,
				OutlierHighPct: 0.99,
			},
			Simulation: SimulationConfig{
				MaxDiscountPct:  70,
				MaxUpliftFactor: 2.0,
				MinUpliftFactor: 1.0,
				MarginFloorPct:  5,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"inverted quantiles", func(c *Config) { c.Cleaning.OutlierLowPct = 0.99; c.Cleaning.OutlierHighPct = 0.01 }, "invalid outlier quantiles"},
		{"zero max discount", func(c *Config) { c.Simulation.MaxDiscountPct = 0 }, "max discount"},
		{"uplift below one", func(c *Config) { c.Simulation.MaxUpliftFactor = 0.5 }, "uplift factor"},
		{"min uplift above max", func(c *Config) { c.Simulation.MinUpliftFactor = 3.0 }, "exceeds max"},
		{"margin floor above 100", func(c *Config) { c.Simulation.MarginFloorPct = 120 }, "margin floor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSimulationConfig_ElasticityFor(t *testing.T) {
	cfg := SimulationConfig{
		DefaultElasticity: 1.5,
		Elasticity:        map[string]float64{"Grocery": 2.2},
	}

	assert.Equal(t, 2.2, cfg.ElasticityFor("Grocery"))
	assert.Equal(t, 1.5, cfg.ElasticityFor("Electronics"), "unknown segment falls back to default")
}

func TestRequiredFields(t *testing.T) {
	fields := RequiredFields()
	assert.ElementsMatch(t, []string{FieldOrderID, FieldProductID, FieldQuantity, FieldUnitPrice}, fields)

	mapping := DefaultColumnMapping()
	for _, f := range fields {
		assert.Contains(t, mapping, f)
	}
}
