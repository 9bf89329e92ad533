package cmd

import (
	"fmt"
	"os"

	"github.com/conneroisu/synthdom/internal/config"
	"github.com/conneroisu/synthdom/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "synthdom",
	Short: "Inspect, diff and patch synthetic documents rendered from template modules",
	Long: `synthdom works with synthetic documents: the rendered trees a template
evaluator produces from source modules, with component instances expanded.

Documents and their source graphs are read from fixture files (YAML, JSON,
JSONC or annotated HTML).

Quick Start:
  synthdom stringify page.yaml            Print documents as indented HTML
  synthdom diff old.yaml new.yaml         Show the edit script between versions
  synthdom resolve page.yaml s-label      Explain a node's instances and overrides
  synthdom upsert page.yaml edit.yaml     Patch re-evaluated documents in
  synthdom render page.yaml               Render documents to HTML
  synthdom watch fixtures/                Apply fixture changes live
  synthdom snapshot inspect state.sdom    Describe a saved snapshot`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .synthdom.yml, can also use SYNTHDOM_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("snapshot-path", "", "snapshot file (default .synthdom/state.sdom)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("snapshot.path", rootCmd.PersistentFlags().Lookup("snapshot-path"))
}

// initConfig initializes the configuration system.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. SYNTHDOM_CONFIG_FILE environment variable
//  3. .synthdom.yml in the current directory
func initConfig() {
	file := cfgFile
	if file == "" {
		file = os.Getenv("SYNTHDOM_CONFIG_FILE")
	}
	config.Init(viper.GetViper(), file)

	// A missing or malformed file falls back to defaults and environment.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// runtimeEnv is the configuration and logger shared by a command run.
type runtimeEnv struct {
	config *config.Config
	logger logging.Logger
}

func loadRuntime(cmd *cobra.Command) (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(cfg.LoggerConfig(cmd.ErrOrStderr())).WithComponent("cli")
	return &runtimeEnv{config: cfg, logger: logger}, nil
}
