package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	degkit "github.com/degkit/degkit"
	"github.com/degkit/degkit/chem"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "degkit",
		Short: "Forced-degradation reasoning engine",
		Long: `degkit predicts degradation products, susceptibility, and kinetics for
small-molecule structures under stress conditions, and fuses predictions
with measured stress-study data via Bayesian updating.`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.degkit/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db", "", "database path (default: $HOME/.degkit/degkit.db)")
	rootCmd.PersistentFlags().Bool("no-store", false, "run without the compound registry")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("disable_store", rootCmd.PersistentFlags().Lookup("no-store"))

	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(mbCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(bayesCmd())
	rootCmd.AddCommand(historicalCmd())
	rootCmd.AddCommand(similarCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(evalCmd())
	rootCmd.AddCommand(requestCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath(fmt.Sprintf("%s/.degkit", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DEGKIT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine, defaults apply.
	}

	return setupLogging()
}

func setupLogging() error {
	var level slog.Level
	switch viper.GetString("logging.level") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", viper.GetString("logging.level"))
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
	return nil
}

// loadConfig assembles the engine configuration from viper state.
func loadConfig() degkit.Config {
	cfg := degkit.DefaultConfig()
	if v := viper.GetString("db_path"); v != "" {
		cfg.DBPath = v
	}
	if v := viper.GetString("db_name"); v != "" {
		cfg.DBName = v
	}
	if v := viper.GetString("storage_dir"); v != "" {
		cfg.StorageDir = v
	}
	if viper.GetBool("disable_store") {
		cfg.DisableStore = true
	}
	if v := viper.GetInt("fingerprint_dim"); v > 0 {
		cfg.FingerprintDim = v
	}
	if v := viper.GetInt("max_embeddings"); v > 0 {
		cfg.MaxEmbeddings = v
	}
	if v := viper.GetInt("max_products"); v > 0 {
		cfg.MaxProducts = v
	}
	cfg.GNN.BaseURL = viper.GetString("gnn.base_url")
	cfg.GNN.APIKey = viper.GetString("gnn.api_key")
	return cfg
}

// withEngine runs fn with a configured engine and closes it afterwards.
func withEngine(fn func(engine degkit.Engine) error) error {
	engine, err := degkit.New(loadConfig())
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()
	return fn(engine)
}

// stressArg converts a CLI stress argument, warning once when the value is
// not a recognized condition. Unrecognized stresses still run: every
// downstream consumer has a documented default path.
func stressArg(s string) chem.Stress {
	stress := chem.Stress(s)
	if !stress.Known() {
		slog.Warn("unrecognized stress condition, defaults apply",
			"stress", s, "known", chem.KnownStresses())
	}
	return stress
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("degkit %s\n", version)
		},
	}
}
