package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultStartDate         = "2024-07-08"
	DefaultPriceChain        = "optimism"
	DefaultIncentiveToken    = "0x4200000000000000000000000000000000000042"
	DefaultReferenceToken    = "0x4200000000000000000000000000000000000006"
	DefaultFallbackTimestamp = int64(1720569600)
)

// Common holds settings shared by every subcommand.
type Common struct {
	StartDate    string
	Cooldown     time.Duration
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	APIURL       string
	CoinsURL     string
	YieldsURL    string
	LogLevel     string
}

// StoreConfig selects and configures the snapshot backend.
type StoreConfig struct {
	Kind            string
	Dir             string
	Bucket          string
	CredentialsFile string
	PGDSN           string
}

// RunConfig holds configuration for the report pipeline.
type RunConfig struct {
	Common
	Store StoreConfig

	Pools             string
	Incentives        string
	PriceChain        string
	IncentiveToken    string
	ReferenceToken    string
	FallbackTimestamp int64
	PriceArchive      string
	ReportArchive     string
	Out               string
}

// TVLConfig holds configuration for the protocol and chain TVL trackers.
type TVLConfig struct {
	Common
	Legend string
	Chains []string
	OutDir string
}

// YieldsConfig holds configuration for the pool yield tracker.
type YieldsConfig struct {
	Common
	Pools string
	Out   string
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("SUPERFEST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("start-date", DefaultStartDate)
	v.SetDefault("cooldown", 5*time.Second)
	v.SetDefault("http-timeout", 30*time.Second)
	v.SetDefault("max-retries", 0)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func loadCommon(v *viper.Viper) Common {
	return Common{
		StartDate:    v.GetString("start-date"),
		Cooldown:     v.GetDuration("cooldown"),
		HTTPTimeout:  v.GetDuration("http-timeout"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		APIURL:       v.GetString("llama-api-url"),
		CoinsURL:     v.GetString("llama-coins-url"),
		YieldsURL:    v.GetString("llama-yields-url"),
		LogLevel:     v.GetString("log-level"),
	}
}

// LoadRun merges config file, environment variables, and flags into RunConfig.
func LoadRun(cfgFile string, flags *pflag.FlagSet) (RunConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"pools":              "protocol_pool.csv",
		"incentives":         "protocol_incentive_history.csv",
		"price-chain":        DefaultPriceChain,
		"incentive-token":    DefaultIncentiveToken,
		"reference-token":    DefaultReferenceToken,
		"fallback-timestamp": DefaultFallbackTimestamp,
		"price-archive":      "token_prices.zip",
		"report-archive":     "super_fest.zip",
		"out":                "super_fest.csv",
		"store":              "fs",
		"store-dir":          "./data/snapshots",
	})
	if err != nil {
		return RunConfig{}, err
	}

	cfg := RunConfig{
		Common: loadCommon(v),
		Store: StoreConfig{
			Kind:            v.GetString("store"),
			Dir:             v.GetString("store-dir"),
			Bucket:          v.GetString("bucket"),
			CredentialsFile: v.GetString("credentials-file"),
			PGDSN:           v.GetString("pg-dsn"),
		},
		Pools:             v.GetString("pools"),
		Incentives:        v.GetString("incentives"),
		PriceChain:        v.GetString("price-chain"),
		IncentiveToken:    v.GetString("incentive-token"),
		ReferenceToken:    v.GetString("reference-token"),
		FallbackTimestamp: v.GetInt64("fallback-timestamp"),
		PriceArchive:      v.GetString("price-archive"),
		ReportArchive:     v.GetString("report-archive"),
		Out:               v.GetString("out"),
	}
	return cfg, nil
}

// Validate checks the fields the pipeline cannot run without.
func (c RunConfig) Validate() error {
	if c.Pools == "" {
		return fmt.Errorf("pools path is required")
	}
	if c.Incentives == "" {
		return fmt.Errorf("incentives path is required")
	}
	if c.PriceChain == "" {
		return fmt.Errorf("price chain is required")
	}
	if !common.IsHexAddress(c.IncentiveToken) {
		return fmt.Errorf("invalid incentive token address: %s", c.IncentiveToken)
	}
	if !common.IsHexAddress(c.ReferenceToken) {
		return fmt.Errorf("invalid reference token address: %s", c.ReferenceToken)
	}
	if c.PriceArchive == "" || c.ReportArchive == "" {
		return fmt.Errorf("archive names are required")
	}
	if _, err := ParseDate(c.StartDate); err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	switch c.Store.Kind {
	case "fs", "memory":
	case "gcs":
		if c.Store.Bucket == "" {
			return fmt.Errorf("bucket is required for gcs store")
		}
	case "postgres":
		if c.Store.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store.Kind)
	}
	return nil
}

// LoadTVL merges config file, environment variables, and flags into TVLConfig.
func LoadTVL(cfgFile string, flags *pflag.FlagSet) (TVLConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"legend":  "protocol_blockchain_legend.csv",
		"chains":  []string{"Base", "Fraxtal", "Mode", "Optimism"},
		"out-dir": ".",
	})
	if err != nil {
		return TVLConfig{}, err
	}

	return TVLConfig{
		Common: loadCommon(v),
		Legend: v.GetString("legend"),
		Chains: getStringSlice(v, "chains"),
		OutDir: v.GetString("out-dir"),
	}, nil
}

// LoadYields merges config file, environment variables, and flags into YieldsConfig.
func LoadYields(cfgFile string, flags *pflag.FlagSet) (YieldsConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"pools":      "protocol_pool.csv",
		"out":        "pool_yields.csv",
		"start-date": "2024-07-10",
	})
	if err != nil {
		return YieldsConfig{}, err
	}

	return YieldsConfig{
		Common: loadCommon(v),
		Pools:  v.GetString("pools"),
		Out:    v.GetString("out"),
	}, nil
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(input string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(input), time.UTC)
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
