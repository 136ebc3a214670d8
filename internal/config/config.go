// Package config loads service configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"pumpx-core/internal/domain"
)

// Storage backend names.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config is the full service configuration. Monetary values are kept
// as strings in YAML and parsed to decimals on access, so a malformed
// rate fails validation instead of silently parsing as a float.
type Config struct {
	ListenAddr     string `yaml:"listen_addr"`
	Timezone       string `yaml:"timezone"` // IANA name, "Local" or "UTC"
	RetentionDays  int    `yaml:"retention_days"`
	PlatformWallet string `yaml:"platform_wallet"`

	Storage    StorageConfig    `yaml:"storage"`
	Fees       FeesConfig       `yaml:"fees"`
	Curve      CurveConfig      `yaml:"curve"`
	Graduation GraduationConfig `yaml:"graduation"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"` // memory | postgres
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"` // optional analytics sink
}

type FeesConfig struct {
	CreationFee    string `yaml:"creation_fee"`
	TradingRate    string `yaml:"trading_rate"`
	ConversionRate string `yaml:"conversion_rate"`
	CreationReward string `yaml:"creation_reward"`
}

type CurveConfig struct {
	Constant string `yaml:"constant"`
}

type GraduationConfig struct {
	Threshold string `yaml:"threshold"`
}

// Default returns the platform launch configuration.
func Default() Config {
	schedule := domain.DefaultFeeSchedule()
	return Config{
		ListenAddr:     ":8080",
		Timezone:       "Local",
		RetentionDays:  30,
		PlatformWallet: "Fro4991MZF5ka11jBumRZZWtk4S8svrmbuNe46BVpYJA",
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
		Fees: FeesConfig{
			CreationFee:    schedule.CreationFee.String(),
			TradingRate:    schedule.TradingRate.String(),
			ConversionRate: schedule.ConversionRate.String(),
			CreationReward: schedule.CreationReward.String(),
		},
		Curve: CurveConfig{
			Constant: "0.000001",
		},
		Graduation: GraduationConfig{
			Threshold: "69000",
		},
	}
}

// LoadFile reads a YAML config over the defaults. A missing file is an
// error; call Default directly to run without one.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides config fields from PUMPX_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PUMPX_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("PUMPX_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("PUMPX_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RetentionDays = n
		}
	}
	if v := os.Getenv("PUMPX_PLATFORM_WALLET"); v != "" {
		c.PlatformWallet = v
	}
	if v := strings.TrimSpace(os.Getenv("PUMPX_STORAGE_BACKEND")); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("PUMPX_POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("PUMPX_CLICKHOUSE_DSN"); v != "" {
		c.Storage.ClickhouseDSN = v
	}
}

// Validate checks the whole configuration, including that every
// monetary string parses and the platform wallet is a real Solana
// address.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive, got %d", c.RetentionDays)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if err := domain.ValidateWallet(c.PlatformWallet); err != nil {
		return fmt.Errorf("platform_wallet: %w", err)
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	schedule, err := c.Schedule()
	if err != nil {
		return err
	}
	if err := schedule.Validate(); err != nil {
		return err
	}

	constant, err := c.CurveConstant()
	if err != nil {
		return err
	}
	if !constant.IsPositive() {
		return fmt.Errorf("curve.constant must be positive, got %s", constant)
	}

	threshold, err := c.GraduationThreshold()
	if err != nil {
		return err
	}
	if !threshold.IsPositive() {
		return fmt.Errorf("graduation.threshold must be positive, got %s", threshold)
	}

	return nil
}

// Location resolves the configured day boundary timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "Local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Schedule parses the configured fee schedule.
func (c *Config) Schedule() (domain.FeeSchedule, error) {
	var (
		s      domain.FeeSchedule
		err    error
		fields = []struct {
			name string
			raw  string
			dst  *decimal.Decimal
		}{
			{"fees.creation_fee", c.Fees.CreationFee, &s.CreationFee},
			{"fees.trading_rate", c.Fees.TradingRate, &s.TradingRate},
			{"fees.conversion_rate", c.Fees.ConversionRate, &s.ConversionRate},
			{"fees.creation_reward", c.Fees.CreationReward, &s.CreationReward},
		}
	)
	for _, f := range fields {
		*f.dst, err = decimal.NewFromString(f.raw)
		if err != nil {
			return domain.FeeSchedule{}, fmt.Errorf("%s %q: %w", f.name, f.raw, err)
		}
	}
	return s, nil
}

// CurveConstant parses the bonding curve slope.
func (c *Config) CurveConstant() (decimal.Decimal, error) {
	v, err := decimal.NewFromString(c.Curve.Constant)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("curve.constant %q: %w", c.Curve.Constant, err)
	}
	return v, nil
}

// GraduationThreshold parses the market cap graduation bar.
func (c *Config) GraduationThreshold() (decimal.Decimal, error) {
	v, err := decimal.NewFromString(c.Graduation.Threshold)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("graduation.threshold %q: %w", c.Graduation.Threshold, err)
	}
	return v, nil
}
