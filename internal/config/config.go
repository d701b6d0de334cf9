package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/expense-flow/internal/api"
	"github.com/Veraticus/expense-flow/internal/common"
	"github.com/Veraticus/expense-flow/internal/ledger"
	"github.com/Veraticus/expense-flow/internal/service"
)

// Viper keys.
const (
	KeyAPIBaseURL      = "api.base_url"
	KeyAPITimeout      = "api.timeout"
	KeyAPISummaryStyle = "api.summary_style"
	KeyListPageSize    = "list.page_size"
	KeyListSortBy      = "list.sort_by"
	KeyListSortDir     = "list.sort_dir"
	KeyNotifyDuration  = "notify.duration"
	KeyLogLevel        = "logging.level"
	KeyLogFormat       = "logging.format"
)

// Config is the typed application configuration.
type Config struct {
	APIBaseURL     string
	SummaryStyle   string
	SortBy         string
	SortDir        service.SortDirection
	LogLevel       string
	LogFormat      string
	APITimeout     time.Duration
	NotifyDuration time.Duration
	PageSize       int
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIBaseURL, api.DefaultBaseURL)
	v.SetDefault(KeyAPITimeout, 30*time.Second)
	v.SetDefault(KeyAPISummaryStyle, "summary")
	v.SetDefault(KeyListPageSize, ledger.DefaultPageSize)
	v.SetDefault(KeyListSortBy, ledger.DefaultSortField)
	v.SetDefault(KeyListSortDir, string(ledger.DefaultSortDir))
	v.SetDefault(KeyNotifyDuration, ledger.DefaultNotifyDuration)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Load reads the configuration from v, applying defaults first.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	cfg := Config{
		APIBaseURL:     v.GetString(KeyAPIBaseURL),
		APITimeout:     v.GetDuration(KeyAPITimeout),
		SummaryStyle:   v.GetString(KeyAPISummaryStyle),
		PageSize:       v.GetInt(KeyListPageSize),
		SortBy:         v.GetString(KeyListSortBy),
		SortDir:        service.SortDirection(v.GetString(KeyListSortDir)),
		NotifyDuration: v.GetDuration(KeyNotifyDuration),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("%s: %q is not an http(s) URL", KeyAPIBaseURL, c.APIBaseURL))
	}
	if c.APITimeout < 0 {
		errs = append(errs, fmt.Errorf("%s: must not be negative", KeyAPITimeout))
	}
	if _, err := api.SummaryPathsFor(c.SummaryStyle); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyAPISummaryStyle, err))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive, got %d", KeyListPageSize, c.PageSize))
	}
	if !ledger.IsSortField(c.SortBy) {
		errs = append(errs, fmt.Errorf("%s: unknown field %q", KeyListSortBy, c.SortBy))
	}
	if c.SortDir != service.SortAsc && c.SortDir != service.SortDesc {
		errs = append(errs, fmt.Errorf("%s: must be asc or desc, got %q", KeyListSortDir, c.SortDir))
	}
	if c.NotifyDuration <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", KeyNotifyDuration))
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyLogLevel, err))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("%s: must be console or json, got %q", KeyLogFormat, c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Query returns the initial list query described by the configuration.
func (c Config) Query() ledger.Query {
	return ledger.Query{
		PageSize:  c.PageSize,
		SortField: c.SortBy,
		SortDir:   c.SortDir,
	}
}

// NewClient builds an API client from the configuration.
func (c Config) NewClient() (*api.Client, error) {
	paths, err := api.SummaryPathsFor(c.SummaryStyle)
	if err != nil {
		return nil, err
	}
	return api.NewClient(c.APIBaseURL,
		api.WithTimeout(c.APITimeout),
		api.WithSummaryPaths(paths))
}
