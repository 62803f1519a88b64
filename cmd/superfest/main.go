package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"superfest/internal/config"
	"superfest/internal/llama"
)

func main() {
	root := &cobra.Command{
		Use:          "superfest",
		Short:        "DeFi TVL, incentive and price reporting",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "dotenv file with credentials")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Build the incentive report and upload its snapshot",
		RunE:  runReport,
	}
	addCommonFlags(runCmd.Flags(), config.DefaultStartDate)
	runCmd.Flags().String("pools", "protocol_pool.csv", "pool configuration CSV")
	runCmd.Flags().String("incentives", "protocol_incentive_history.csv", "incentive history CSV")
	runCmd.Flags().String("price-chain", config.DefaultPriceChain, "chain the token prices are quoted on")
	runCmd.Flags().String("incentive-token", config.DefaultIncentiveToken, "incentive token address")
	runCmd.Flags().String("reference-token", config.DefaultReferenceToken, "reference asset token address")
	runCmd.Flags().Int64("fallback-timestamp", config.DefaultFallbackTimestamp, "timestamp retried once when a price window is empty, 0 disables")
	runCmd.Flags().String("price-archive", "token_prices.zip", "price cache archive name")
	runCmd.Flags().String("report-archive", "super_fest.zip", "report archive name")
	runCmd.Flags().String("out", "super_fest.csv", "local CSV export, empty disables")
	runCmd.Flags().String("store", "fs", "snapshot store (fs, memory, gcs, postgres)")
	runCmd.Flags().String("store-dir", "./data/snapshots", "directory for the fs store")
	runCmd.Flags().String("bucket", "", "GCS bucket for the gcs store")
	runCmd.Flags().String("credentials-file", "", "GCS service account key file")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for the postgres store")
	root.AddCommand(runCmd)

	tvlCmd := &cobra.Command{
		Use:   "tvl",
		Short: "Track protocol and chain TVL since the start date",
	}
	protocolsCmd := &cobra.Command{
		Use:   "protocols",
		Short: "Track protocol TVL per chain from the legend CSV",
		RunE:  runProtocolTVL,
	}
	addCommonFlags(protocolsCmd.Flags(), config.DefaultStartDate)
	protocolsCmd.Flags().String("legend", "protocol_blockchain_legend.csv", "protocol/chain legend CSV")
	protocolsCmd.Flags().String("out-dir", ".", "output directory")
	tvlCmd.AddCommand(protocolsCmd)

	chainsCmd := &cobra.Command{
		Use:   "chains",
		Short: "Track aggregate chain TVL",
		RunE:  runChainTVL,
	}
	addCommonFlags(chainsCmd.Flags(), config.DefaultStartDate)
	chainsCmd.Flags().StringSlice("chains", nil, "chains to track (comma-separated)")
	chainsCmd.Flags().String("out-dir", ".", "output directory")
	tvlCmd.AddCommand(chainsCmd)
	root.AddCommand(tvlCmd)

	yieldsCmd := &cobra.Command{
		Use:   "yields",
		Short: "Track yield pool TVL and APY",
		RunE:  runYields,
	}
	addCommonFlags(yieldsCmd.Flags(), "2024-07-10")
	yieldsCmd.Flags().String("pools", "protocol_pool.csv", "pool configuration CSV")
	yieldsCmd.Flags().String("out", "pool_yields.csv", "output CSV path")
	root.AddCommand(yieldsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(flags *pflag.FlagSet, startDate string) {
	flags.String("start-date", startDate, "first tracked day (YYYY-MM-DD, UTC)")
	flags.Duration("cooldown", 5*time.Second, "minimum delay between upstream requests")
	flags.Duration("http-timeout", 30*time.Second, "upstream request timeout")
	flags.Int("max-retries", 0, "retries for 429 and 5xx responses")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("llama-api-url", llama.DefaultAPIURL, "TVL API base URL")
	flags.String("llama-coins-url", llama.DefaultCoinsURL, "coins API base URL")
	flags.String("llama-yields-url", llama.DefaultYieldsURL, "yields API base URL")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func newClient(common config.Common, logger *zap.Logger) *llama.Client {
	return llama.NewClient(llama.Config{
		APIURL:       common.APIURL,
		CoinsURL:     common.CoinsURL,
		YieldsURL:    common.YieldsURL,
		Timeout:      common.HTTPTimeout,
		Cooldown:     common.Cooldown,
		MaxRetries:   common.MaxRetries,
		RetryBackoff: common.RetryBackoff,
	}, logger)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
