// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the signage-review CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the signage-review CLI.
var rootCmd = &cobra.Command{
	Use:   "signage-review",
	Short: "Extract, review and export signage items from PDF plans",
	Long: `signage-review sends architectural PDF documents to the signage
extraction service, lets you review and correct the extracted rows, and
exports them as sinalizacao.csv or sinalizacao.xlsx.

Use extract for a one-shot run, review for an interactive session, watch
to process PDFs dropped into a folder, and export to re-export records
saved earlier.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./signage-review.yaml or ~/.config/signage-review/signage-review.yaml)")
	pf.String("server", "", "extraction service base URL")
	pf.StringP("output-dir", "o", "", "directory for exported files")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")

	bindFlag("server.url", pf.Lookup("server"))
	bindFlag("output.dir", pf.Lookup("output-dir"))
	bindFlag("log.level", pf.Lookup("log-level"))
	bindFlag("log.format", pf.Lookup("log-format"))

	setDefaults()
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("signage-review")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "signage-review"))
		}
	}

	viper.SetEnvPrefix("SIGNAGE_REVIEW")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
