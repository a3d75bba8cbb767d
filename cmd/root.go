package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sells-group/propval/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "propval",
	Short:   "Property valuation engine for Bangalore and Mysore",
	Long:    "Values apartments, plots, villas and agricultural land from city, area-tier or PIN code reference prices, with distance decay and attribute adjustments.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyLogFlags(cmd.Flags(), &c.Log)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		zap.L().Debug("config loaded",
			zap.String("version", version),
			zap.String("store_driver", cfg.Store.Driver),
			zap.String("corner_policy", cfg.Valuation.CornerPolicy),
		)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// applyLogFlags lets --log-level and --log-format win over file and env config.
func applyLogFlags(f *pflag.FlagSet, lc *config.LogConfig) {
	if fl := f.Lookup("log-level"); fl != nil && fl.Changed {
		lc.Level = fl.Value.String()
	}
	if fl := f.Lookup("log-format"); fl != nil && fl.Changed {
		lc.Format = fl.Value.String()
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "override log format (json, console)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
