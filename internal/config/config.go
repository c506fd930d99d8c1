package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/transit-ranking-etl/internal/domain"
)

// Source kinds.
const (
	SourceSheets = "sheets"
	SourceXLSX   = "xlsx"
	SourceCSV    = "csv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SourceKind      string
	SourcePath      string
	SpreadsheetID   string
	SourceRange     string
	CredentialsFile string
	CredentialsEnv  string
	FetchTimeout    time.Duration

	Location    *time.Location
	Windows     []domain.HourWindow
	WindowMode  domain.WindowMode
	Cleaning    domain.CleaningRule
	PriceMode   domain.PriceMode
	WindowsFile string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	RefreshSchedule string
	WatchSource     bool

	KafkaBrokers     []string
	KafkaReportTopic string
}

// AggregateOptions returns the strategies the aggregator runs with.
func (c *Config) AggregateOptions() domain.AggregateOptions {
	return domain.AggregateOptions{Mode: c.WindowMode, Price: c.PriceMode}
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "30s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	loc, err := time.LoadLocation(sharedcfg.EnvOrDefault("TIMEZONE", domain.DefaultLocation))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	windowMode, err := domain.ParseWindowMode(sharedcfg.EnvOrDefault("WINDOW_MODE", string(domain.WindowLegacy)))
	if err != nil {
		return nil, fmt.Errorf("invalid WINDOW_MODE: %w", err)
	}

	cleaning, err := domain.ParseCleaningRule(sharedcfg.EnvOrDefault("NAME_CLEANING", string(domain.CleanStrict)))
	if err != nil {
		return nil, fmt.Errorf("invalid NAME_CLEANING: %w", err)
	}

	priceMode, err := domain.ParsePriceMode(sharedcfg.EnvOrDefault("PRICE_MODE", string(domain.PriceLastRow)))
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_MODE: %w", err)
	}

	windowsFile := os.Getenv("WINDOWS_FILE")
	var windows []domain.HourWindow
	if windowsFile != "" {
		windows, err = LoadWindowsFile(windowsFile)
		if err != nil {
			return nil, fmt.Errorf("invalid WINDOWS_FILE: %w", err)
		}
	} else {
		windows, err = domain.ParseWindows(sharedcfg.EnvOrDefault("HOUR_WINDOWS", "23-0,0-1,1-2,2-3,3-4,4-5,5-6,6-7"))
		if err != nil {
			return nil, fmt.Errorf("invalid HOUR_WINDOWS: %w", err)
		}
	}

	watch, err := parseBool("WATCH_SOURCE", false)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		SourceKind:      sharedcfg.EnvOrDefault("SOURCE_KIND", SourceXLSX),
		SourcePath:      sharedcfg.EnvOrDefault("SOURCE_PATH", "data/trips.xlsx"),
		SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
		SourceRange:     sharedcfg.EnvOrDefault("SOURCE_RANGE", "PRIORITY!A1:B1000"),
		CredentialsFile: os.Getenv("CREDENTIALS_FILE"),
		CredentialsEnv:  os.Getenv("CREDENTIALS_ENV"),
		FetchTimeout:    fetchTimeout,

		Location:    loc,
		Windows:     windows,
		WindowMode:  windowMode,
		Cleaning:    cleaning,
		PriceMode:   priceMode,
		WindowsFile: windowsFile,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),
		WatchSource:     watch,

		KafkaBrokers:     brokers,
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "daily-revenue-reports"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.SourceKind {
	case SourceSheets:
		if c.SpreadsheetID == "" {
			return errors.New("SPREADSHEET_ID is required when SOURCE_KIND is sheets")
		}
		if c.CredentialsFile == "" && c.CredentialsEnv == "" {
			return errors.New("CREDENTIALS_FILE or CREDENTIALS_ENV is required when SOURCE_KIND is sheets")
		}
		if c.WatchSource {
			return errors.New("WATCH_SOURCE is only supported for file sources")
		}
	case SourceXLSX, SourceCSV:
		if c.SourcePath == "" {
			return errors.New("SOURCE_PATH is required for file sources")
		}
	default:
		return fmt.Errorf("invalid SOURCE_KIND %q", c.SourceKind)
	}
	if c.SourceRange == "" {
		return errors.New("SOURCE_RANGE is required")
	}
	if c.CredentialsFile != "" && c.CredentialsEnv != "" {
		return errors.New("set only one of CREDENTIALS_FILE and CREDENTIALS_ENV")
	}
	if c.KafkaReportTopic == "" {
		return errors.New("KAFKA_REPORT_TOPIC is required")
	}
	return nil
}

// windowsDocument is the YAML layout of WINDOWS_FILE.
type windowsDocument struct {
	Windows []domain.HourWindow `yaml:"windows"`
}

// LoadWindowsFile reads a YAML document of the form
//
//	windows:
//	  - {start: 23, end: 0}
//	  - {start: 0, end: 1}
func LoadWindowsFile(path string) ([]domain.HourWindow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read windows file: %w", err)
	}

	var doc windowsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse windows file: %w", err)
	}
	if len(doc.Windows) == 0 {
		return nil, errors.New("windows file lists no windows")
	}
	for _, w := range doc.Windows {
		if err := w.Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Windows, nil
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}
