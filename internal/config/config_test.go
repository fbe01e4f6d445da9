package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("FETCH_POLICY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, PolicyResilient, cfg.FetchPolicy)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 24, cfg.PageSize)
	assert.Equal(t, models.DefaultFilterDomain(), cfg.FilterDomain)
	assert.Zero(t, cfg.UpstreamTimeout)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wynnview.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fetch_policy: strict
page_size: 48
upstream_timeout: 20s
filter_domain:
  level: {min: 1, max: 120}
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("FETCH_POLICY", "")
	t.Setenv("PAGE_SIZE", "12")
	t.Setenv("UPSTREAM_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, cfg.FetchPolicy)
	assert.Equal(t, 12, cfg.PageSize)
	assert.Equal(t, 20*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, models.Bounds{Min: 1, Max: 120}, cfg.FilterDomain.Level)
	// keys absent from the file keep their defaults
	assert.Equal(t, models.Bounds{Min: 0, Max: 150}, cfg.FilterDomain.Skill)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	t.Setenv("FETCH_POLICY", "eager")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("FETCH_POLICY", "")
	t.Setenv("CACHE_TTL", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestGetEnvDuration_Seconds(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "45")
	d, err := getEnvDuration("UPSTREAM_TIMEOUT", 0)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)
}

func TestCurrentConfig_ReturnsCopy(t *testing.T) {
	cfg := Defaults()
	cfg.Port = "9999"
	SetCurrentConfig(cfg)

	got := GetCurrentConfig()
	got.Port = "1"
	assert.Equal(t, "9999", GetCurrentConfig().Port)
}
