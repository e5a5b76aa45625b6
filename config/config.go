// Package config loads service configuration from an optional YAML file and
// CHARGERATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/warp/charge-rate-engine/costmodel"
	"github.com/warp/charge-rate-engine/generic"
	"github.com/warp/charge-rate-engine/logging"
	"github.com/warp/charge-rate-engine/ratesource"
)

// EnvPrefix is prepended to every environment key: rate_source.base_url is
// read from CHARGERATE_RATE_SOURCE_BASE_URL.
const EnvPrefix = "CHARGERATE"

// MemoryDatabase selects the in-memory store.
const MemoryDatabase = "memory"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	RateSource RateSourceConfig `mapstructure:"rate_source"`
	Logging    logging.Config   `mapstructure:"logging"`
	Defaults   DefaultsConfig   `mapstructure:"defaults"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr is the listen address for net/http.
func (s ServerConfig) Addr() string { return fmt.Sprintf(":%d", s.Port) }

type DatabaseConfig struct {
	// Path is a SQLite file, ":memory:", or "memory" for the map-backed store.
	Path string `mapstructure:"path"`
}

type RateSourceConfig struct {
	// BaseURL of the remote award API. Empty disables the remote tier.
	BaseURL         string        `mapstructure:"base_url"`
	SubscriptionKey string        `mapstructure:"subscription_key"`
	Timeout         time.Duration `mapstructure:"timeout"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`

	// TablesFile is an optional JSON document of extra fallback rows.
	TablesFile string `mapstructure:"tables_file"`

	// CalendarYear pins the year used when a request names none. Zero means
	// the current calendar year.
	CalendarYear int `mapstructure:"calendar_year"`

	// WarmAwards are re-resolved every WarmInterval while serving so their
	// cache entries never go stale. Ignored without a remote source.
	WarmAwards   []string      `mapstructure:"warm_awards"`
	WarmInterval time.Duration `mapstructure:"warm_interval"`
}

// RemoteEnabled reports whether a remote source should be built.
func (r RateSourceConfig) RemoteEnabled() bool { return r.BaseURL != "" }

type DefaultsConfig struct {
	Work     WorkDefaults     `mapstructure:"work"`
	Cost     CostDefaults     `mapstructure:"cost"`
	Billable BillableDefaults `mapstructure:"billable"`
}

type WorkDefaults struct {
	HoursPerDay     float64 `mapstructure:"hours_per_day"`
	DaysPerWeek     float64 `mapstructure:"days_per_week"`
	WeeksPerYear    float64 `mapstructure:"weeks_per_year"`
	AnnualLeaveDays float64 `mapstructure:"annual_leave_days"`
	PublicHolidays  float64 `mapstructure:"public_holidays"`
	SickLeaveDays   float64 `mapstructure:"sick_leave_days"`
	TrainingWeeks   float64 `mapstructure:"training_weeks"`
}

type CostDefaults struct {
	SuperannuationRate float64 `mapstructure:"superannuation_rate"`
	WorkersCompRate    float64 `mapstructure:"workers_comp_rate"`
	PayrollTaxRate     float64 `mapstructure:"payroll_tax_rate"`
	LeaveLoadingRate   float64 `mapstructure:"leave_loading_rate"`
	StudyCost          float64 `mapstructure:"study_cost"`
	PPECost            float64 `mapstructure:"ppe_cost"`
	AdminRate          float64 `mapstructure:"admin_rate"`
	DefaultMargin      float64 `mapstructure:"default_margin"`
	AdverseWeatherDays float64 `mapstructure:"adverse_weather_days"`
}

type BillableDefaults struct {
	AnnualLeave    bool `mapstructure:"annual_leave"`
	PublicHolidays bool `mapstructure:"public_holidays"`
	SickLeave      bool `mapstructure:"sick_leave"`
	Training       bool `mapstructure:"training"`
	AdverseWeather bool `mapstructure:"adverse_weather"`
}

// Load reads path (when non-empty) on top of the built-in defaults, applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are plain scalars; decoding them cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.path", "charge_rates.db")

	v.SetDefault("rate_source.base_url", "")
	v.SetDefault("rate_source.subscription_key", "")
	v.SetDefault("rate_source.timeout", 10*time.Second)
	v.SetDefault("rate_source.cache_ttl", ratesource.DefaultCacheTTL)
	v.SetDefault("rate_source.tables_file", "")
	v.SetDefault("rate_source.calendar_year", 0)
	v.SetDefault("rate_source.warm_awards", []string{})
	v.SetDefault("rate_source.warm_interval", ratesource.DefaultWarmInterval)

	lc := logging.DefaultConfig()
	v.SetDefault("logging.level", lc.Level)
	v.SetDefault("logging.format", lc.Format)
	v.SetDefault("logging.output", lc.Output)
	v.SetDefault("logging.development", lc.Development)

	w := costmodel.DefaultWorkConfiguration()
	v.SetDefault("defaults.work.hours_per_day", w.HoursPerDay.InexactFloat64())
	v.SetDefault("defaults.work.days_per_week", w.DaysPerWeek.InexactFloat64())
	v.SetDefault("defaults.work.weeks_per_year", w.WeeksPerYear.InexactFloat64())
	v.SetDefault("defaults.work.annual_leave_days", w.AnnualLeaveDays.InexactFloat64())
	v.SetDefault("defaults.work.public_holidays", w.PublicHolidays.InexactFloat64())
	v.SetDefault("defaults.work.sick_leave_days", w.SickLeaveDays.InexactFloat64())
	v.SetDefault("defaults.work.training_weeks", w.TrainingWeeks.InexactFloat64())

	c := costmodel.DefaultCostConfiguration()
	v.SetDefault("defaults.cost.superannuation_rate", c.SuperannuationRate.InexactFloat64())
	v.SetDefault("defaults.cost.workers_comp_rate", c.WorkersCompRate.InexactFloat64())
	v.SetDefault("defaults.cost.payroll_tax_rate", c.PayrollTaxRate.InexactFloat64())
	v.SetDefault("defaults.cost.leave_loading_rate", c.LeaveLoadingRate.InexactFloat64())
	v.SetDefault("defaults.cost.study_cost", c.StudyCost.InexactFloat64())
	v.SetDefault("defaults.cost.ppe_cost", c.PPECost.InexactFloat64())
	v.SetDefault("defaults.cost.admin_rate", c.AdminRate.InexactFloat64())
	v.SetDefault("defaults.cost.default_margin", c.DefaultMargin.InexactFloat64())
	v.SetDefault("defaults.cost.adverse_weather_days", c.AdverseWeatherDays.InexactFloat64())

	b := costmodel.DefaultBillableOptions()
	v.SetDefault("defaults.billable.annual_leave", b.AnnualLeave)
	v.SetDefault("defaults.billable.public_holidays", b.PublicHolidays)
	v.SetDefault("defaults.billable.sick_leave", b.SickLeave)
	v.SetDefault("defaults.billable.training", b.Training)
	v.SetDefault("defaults.billable.adverse_weather", b.AdverseWeather)
}

// Validate checks ranges that viper cannot express. Cost model values go
// through the same checks the engine applies.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, &generic.ValidationError{Field: "server.port", Reason: "must be between 1 and 65535"})
	}
	if c.Database.Path == "" {
		errs = append(errs, &generic.ValidationError{Field: "database.path", Reason: "required"})
	}
	if c.RateSource.Timeout <= 0 || c.RateSource.Timeout > ratesource.MaxRemoteTimeout {
		errs = append(errs, &generic.ValidationError{
			Field:  "rate_source.timeout",
			Reason: fmt.Sprintf("must be positive and at most %s", ratesource.MaxRemoteTimeout),
		})
	}
	if c.RateSource.CacheTTL <= 0 {
		errs = append(errs, &generic.ValidationError{Field: "rate_source.cache_ttl", Reason: "must be positive"})
	}
	if c.RateSource.CalendarYear < 0 {
		errs = append(errs, &generic.ValidationError{Field: "rate_source.calendar_year", Reason: "must not be negative"})
	}
	if c.RateSource.WarmInterval <= 0 {
		errs = append(errs, &generic.ValidationError{Field: "rate_source.warm_interval", Reason: "must be positive"})
	}
	for i, code := range c.RateSource.WarmAwards {
		if _, err := ratesource.NormalizeAwardCode(code); err != nil {
			errs = append(errs, fmt.Errorf("rate_source.warm_awards[%d]: %w", i, err))
		}
	}
	if c.RateSource.RemoteEnabled() && c.RateSource.SubscriptionKey == "" {
		errs = append(errs, &generic.ValidationError{Field: "rate_source.subscription_key", Reason: "required when base_url is set"})
	}
	if err := c.Work().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Cost().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Work converts the configured work pattern.
func (c *Config) Work() costmodel.WorkConfiguration {
	w := c.Defaults.Work
	return costmodel.WorkConfiguration{
		HoursPerDay:     decimal.NewFromFloat(w.HoursPerDay),
		DaysPerWeek:     decimal.NewFromFloat(w.DaysPerWeek),
		WeeksPerYear:    decimal.NewFromFloat(w.WeeksPerYear),
		AnnualLeaveDays: decimal.NewFromFloat(w.AnnualLeaveDays),
		PublicHolidays:  decimal.NewFromFloat(w.PublicHolidays),
		SickLeaveDays:   decimal.NewFromFloat(w.SickLeaveDays),
		TrainingWeeks:   decimal.NewFromFloat(w.TrainingWeeks),
	}
}

// Cost converts the configured on-cost rates.
func (c *Config) Cost() costmodel.CostConfiguration {
	cc := c.Defaults.Cost
	return costmodel.CostConfiguration{
		SuperannuationRate: decimal.NewFromFloat(cc.SuperannuationRate),
		WorkersCompRate:    decimal.NewFromFloat(cc.WorkersCompRate),
		PayrollTaxRate:     decimal.NewFromFloat(cc.PayrollTaxRate),
		LeaveLoadingRate:   decimal.NewFromFloat(cc.LeaveLoadingRate),
		StudyCost:          decimal.NewFromFloat(cc.StudyCost),
		PPECost:            decimal.NewFromFloat(cc.PPECost),
		AdminRate:          decimal.NewFromFloat(cc.AdminRate),
		DefaultMargin:      decimal.NewFromFloat(cc.DefaultMargin),
		AdverseWeatherDays: decimal.NewFromFloat(cc.AdverseWeatherDays),
	}
}

func (c *Config) Billable() costmodel.BillableOptions {
	b := c.Defaults.Billable
	return costmodel.BillableOptions{
		AnnualLeave:    b.AnnualLeave,
		PublicHolidays: b.PublicHolidays,
		SickLeave:      b.SickLeave,
		Training:       b.Training,
		AdverseWeather: b.AdverseWeather,
	}
}
