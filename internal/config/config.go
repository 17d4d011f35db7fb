package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"nationcli/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Auth      AuthConfig      `yaml:"auth" envconfig:"AUTH"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Crawler   CrawlerConfig   `yaml:"crawler" envconfig:"CRAWLER"`
	Companies []string        `yaml:"companies" envconfig:"COMPANIES" validate:"required,min=1,dive,required"`
	Metrics   MetricsConfig   `yaml:"metrics" envconfig:"METRICS"`
	Tracing   TracingConfig   `yaml:"tracing" envconfig:"TRACING"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"omitempty,oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DownloadDir   string `yaml:"download_dir" envconfig:"DOWNLOAD_DIR"`
	OutputDir     string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	OutputFile    string `yaml:"output_file" envconfig:"OUTPUT_FILE" validate:"required"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	ExportFile    string `yaml:"export_file" envconfig:"EXPORT_FILE" validate:"required"`
	ExportPrefix  string `yaml:"export_prefix" envconfig:"EXPORT_PREFIX" validate:"required"`
	PartialSuffix string `yaml:"partial_suffix" envconfig:"PARTIAL_SUFFIX" validate:"required"`
}

// AuthConfig holds the dashboard credentials. They are only ever read from
// the environment or the config file.
type AuthConfig struct {
	Email    string `yaml:"email" envconfig:"EMAIL"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
}

// DashboardConfig describes the reporting screen the crawler drives
type DashboardConfig struct {
	BaseURL        string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	Headless       bool          `yaml:"headless" envconfig:"HEADLESS"`
	ReportName     string        `yaml:"report_name" envconfig:"REPORT_NAME" validate:"required"`
	FrameTitle     string        `yaml:"frame_title" envconfig:"FRAME_TITLE" validate:"required"`
	AgencyFacet    string        `yaml:"agency_facet" envconfig:"AGENCY_FACET" validate:"required"`
	SupplierFacet  string        `yaml:"supplier_facet" envconfig:"SUPPLIER_FACET" validate:"required"`
	PeriodView     string        `yaml:"period_view" envconfig:"PERIOD_VIEW"`
	UITimeout      time.Duration `yaml:"ui_timeout" envconfig:"UI_TIMEOUT" validate:"gt=0"`
	PollInterval   time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL" validate:"gt=0"`
	SessionTimeout time.Duration `yaml:"session_timeout" envconfig:"SESSION_TIMEOUT" validate:"gt=0"`
}

// CrawlerConfig holds the traversal knobs that used to differ between script variants
type CrawlerConfig struct {
	Strategy        string        `yaml:"strategy" envconfig:"STRATEGY" validate:"oneof=dynamic snapshot static"`
	Agencies        []string      `yaml:"agencies" envconfig:"AGENCIES"`
	Sentinels       []string      `yaml:"sentinels" envconfig:"SENTINELS"`
	MaxAttempts     int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS" validate:"min=1"`
	PollInterval    time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL" validate:"gt=0"`
	DownloadTimeout time.Duration `yaml:"download_timeout" envconfig:"DOWNLOAD_TIMEOUT" validate:"gt=0"`
	TimeoutPolicy   string        `yaml:"timeout_policy" envconfig:"TIMEOUT_POLICY" validate:"oneof=skip retry"`
	DownloadRetries int           `yaml:"download_retries" envconfig:"DOWNLOAD_RETRIES" validate:"min=0"`
	ActionInterval  time.Duration `yaml:"action_interval" envconfig:"ACTION_INTERVAL" validate:"min=0"`
	Field           string        `yaml:"field" envconfig:"FIELD" validate:"required"`
	HeaderRow       int           `yaml:"header_row" envconfig:"HEADER_ROW" validate:"min=0"`
	Sheet           string        `yaml:"sheet" envconfig:"SHEET"`
}

// MetricsConfig controls the Prometheus textfile written at the end of a run
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" envconfig:"TEXTFILE_PATH"`
}

// TracingConfig controls OpenTelemetry span export
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"ENABLED"`
	Exporter string `yaml:"exporter" envconfig:"EXPORTER" validate:"omitempty,oneof=stdout none"`
}

// Load builds the configuration from defaults, an optional YAML file and
// NATION_* environment variables, in increasing order of precedence.
// An empty configFile falls back to the well-known locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// No default tags on the structs: envconfig only overrides fields whose
	// variable is actually set.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// ParsedCompanies returns the supplier reference list
func (c *Config) ParsedCompanies() ([]domain.Company, error) {
	return domain.ParseCompanies(c.Companies)
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if _, err := c.ParsedCompanies(); err != nil {
		return err
	}

	if c.Crawler.Strategy == StrategyStatic && len(c.Crawler.Agencies) == 0 {
		return fmt.Errorf("crawler strategy %q needs at least one agency", StrategyStatic)
	}

	if c.Crawler.TimeoutPolicy == TimeoutPolicyRetry && c.Crawler.DownloadRetries == 0 {
		c.Crawler.DownloadRetries = 1
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	for i, s := range c.Crawler.Sentinels {
		c.Crawler.Sentinels[i] = strings.TrimSpace(s)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "",
		},
		Paths: PathsConfig{
			OutputFile:    DefaultOutputFile,
			ExportFile:    DefaultExportFile,
			ExportPrefix:  DefaultExportPrefix,
			PartialSuffix: DefaultPartialSuffix,
		},
		Dashboard: DashboardConfig{
			BaseURL:        DefaultBaseURL,
			Headless:       true,
			ReportName:     DefaultReportName,
			FrameTitle:     DefaultFrameTitle,
			AgencyFacet:    DefaultAgencyFacet,
			SupplierFacet:  DefaultSupplierFacet,
			PeriodView:     DefaultPeriodView,
			UITimeout:      DefaultUITimeout,
			PollInterval:   DefaultUIPollInterval,
			SessionTimeout: DefaultSessionTimeout,
		},
		Crawler: CrawlerConfig{
			Strategy:        StrategyDynamic,
			Sentinels:       append([]string(nil), DefaultSentinels...),
			MaxAttempts:     DefaultMaxAttempts,
			PollInterval:    DefaultPollInterval,
			DownloadTimeout: DefaultDownloadTimeout,
			TimeoutPolicy:   TimeoutPolicySkip,
			ActionInterval:  DefaultActionInterval,
			Field:           DefaultField,
			HeaderRow:       DefaultHeaderRow,
		},
		Companies: append([]string(nil), domain.DefaultCompanies...),
		Tracing: TracingConfig{
			Exporter: "stdout",
		},
	}
}
