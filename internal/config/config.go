// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/models"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/upstream"
)

// FetchPolicy decides what a failed catalog fetch leaves behind
type FetchPolicy string

const (
	// PolicyStrict keeps the store failed until a manual reload succeeds
	PolicyStrict FetchPolicy = "strict"
	// PolicyResilient serves the built-in fallback dataset with a warning
	PolicyResilient FetchPolicy = "resilient"
)

var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
)

// AppConfig holds every runtime setting
type AppConfig struct {
	Port      string `json:"port" yaml:"port"`
	LogDir    string `json:"log_dir" yaml:"log_dir"`
	LogLevel  string `json:"log_level" yaml:"log_level"`
	DebugMode bool   `json:"debug_mode" yaml:"debug_mode"`

	UpstreamURL       string        `json:"upstream_url" yaml:"upstream_url"`
	UpstreamUserAgent string        `json:"upstream_user_agent" yaml:"upstream_user_agent"`
	UpstreamTimeout   time.Duration `json:"upstream_timeout" yaml:"upstream_timeout"`

	FetchPolicy  FetchPolicy   `json:"fetch_policy" yaml:"fetch_policy"`
	FallbackFile string        `json:"fallback_file,omitempty" yaml:"fallback_file"`
	CacheTTL     time.Duration `json:"cache_ttl" yaml:"cache_ttl"`

	PageSize        int                 `json:"page_size" yaml:"page_size"`
	FilterDomain    models.FilterDomain `json:"filter_domain" yaml:"filter_domain"`
	ReloadPerMinute int                 `json:"reload_per_minute" yaml:"reload_per_minute"`

	ConfigFile string `json:"config_file,omitempty" yaml:"-"`
}

// Defaults returns the built-in configuration
func Defaults() *AppConfig {
	return &AppConfig{
		Port:              "8080",
		LogDir:            "logs",
		LogLevel:          "info",
		UpstreamURL:       upstream.DefaultURL,
		UpstreamUserAgent: upstream.DefaultUserAgent,
		FetchPolicy:       PolicyResilient,
		CacheTTL:          5 * time.Minute,
		PageSize:          24,
		FilterDomain:      models.DefaultFilterDomain(),
		ReloadPerMinute:   6,
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, and the environment (including .env), in increasing precedence.
func Load() (*AppConfig, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile overlays the YAML file; keys absent from the file keep their current value
func (c *AppConfig) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) mergeEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.LogDir = getEnv("LOG_DIR", c.LogDir)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.DebugMode = getEnvBool("DEBUG_MODE", c.DebugMode)
	c.UpstreamURL = getEnv("UPSTREAM_URL", c.UpstreamURL)
	c.UpstreamUserAgent = getEnv("UPSTREAM_USER_AGENT", c.UpstreamUserAgent)
	c.FetchPolicy = FetchPolicy(strings.ToLower(getEnv("FETCH_POLICY", string(c.FetchPolicy))))
	c.FallbackFile = getEnv("FALLBACK_FILE", c.FallbackFile)

	var err error
	if c.UpstreamTimeout, err = getEnvDuration("UPSTREAM_TIMEOUT", c.UpstreamTimeout); err != nil {
		return err
	}
	if c.CacheTTL, err = getEnvDuration("CACHE_TTL", c.CacheTTL); err != nil {
		return err
	}
	if c.PageSize, err = getEnvInt("PAGE_SIZE", c.PageSize); err != nil {
		return err
	}
	return nil
}

// Validate rejects settings the service cannot run with
func (c *AppConfig) Validate() error {
	switch c.FetchPolicy {
	case PolicyStrict, PolicyResilient:
	default:
		return fmt.Errorf("FETCH_POLICY must be %q or %q, got %q", PolicyStrict, PolicyResilient, c.FetchPolicy)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.UpstreamTimeout < 0 || c.CacheTTL < 0 {
		return fmt.Errorf("durations must not be negative")
	}

	d := c.FilterDomain
	for name, b := range map[string]models.Bounds{"level": d.Level, "skill": d.Skill, "dps": d.DPS} {
		if b.Min > b.Max {
			return fmt.Errorf("filter domain %s is inverted (%v > %v)", name, b.Min, b.Max)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// getEnvDuration accepts Go durations ("30s") or plain seconds ("30")
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// InitConfig loads the configuration into the process-wide singleton
func InitConfig() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMutex.Lock()
	currentConfig = cfg
	configMutex.Unlock()
	return nil
}

// SetCurrentConfig replaces the singleton, used by the CLI after flag overrides
func SetCurrentConfig(cfg *AppConfig) {
	configMutex.Lock()
	defer configMutex.Unlock()
	copied := *cfg
	currentConfig = &copied
}

// GetCurrentConfig returns a copy of the current configuration, or the defaults before InitConfig
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		return Defaults()
	}

	configCopy := *currentConfig
	return &configCopy
}
