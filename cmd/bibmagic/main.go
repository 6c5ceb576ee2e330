// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bibmagic CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bibmagic/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the merged configuration, loaded before any subcommand runs.
	cfg types.Config

	logger = slog.Default()
)

// rootCmd is the base command for the bibmagic CLI.
var rootCmd = &cobra.Command{
	Use:   "bibmagic",
	Short: "Parse, normalize and convert BibTeX bibliographies",
	Long: `bibmagic parses BibTeX files into structured entries, normalizes author
names, titles, page ranges and diacritics, and writes the result back as
BibTeX, JSON, YAML or CSL-YAML.

It can also validate bibliographies against the standard entry types,
check manuscripts for missing citations, keep a searchable SQLite index of
.bib files, and fetch BibTeX records by DOI.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		cfg = c
		logger = newLogger(cfg.Log, cmd.ErrOrStderr())
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", "path", f)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./bibmagic.yaml or ~/.config/bibmagic/bibmagic.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error (default info)")
	flags.String("log-format", "", "log format: text or json (default text)")

	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.format", flags.Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bibmagic")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bibmagic"))
		}
	}

	viper.SetEnvPrefix("BIBMAGIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "warning: reading config %s: %v\n", cfgFile, err)
	}
}

// loadConfig registers every key's default on v, so that environment
// variables are seen by Unmarshal, and decodes the merged settings.
func loadConfig(v *viper.Viper) (types.Config, error) {
	def := types.DefaultConfig()
	defaults := map[string]any{
		"parser.pages_double_hyphened":     def.Parser.PagesDoubleHyphened,
		"parser.latex_to_unicode":          def.Parser.LatexToUnicode,
		"parser.ignore_unsupported_fields": def.Parser.IgnoreUnsupportedFields,
		"store.dir":                        def.Store.Dir,
		"store.max_results":                def.Store.MaxResults,
		"fetch.timeout":                    def.Fetch.Timeout,
		"fetch.user_agent":                 def.Fetch.UserAgent,
		"fetch.base_url":                   def.Fetch.BaseURL,
		"fetch.mailto":                     def.Fetch.Mailto,
		"fetch.delay":                      def.Fetch.Delay,
		"fetch.max_retries":                def.Fetch.MaxRetries,
		"log.level":                        def.Log.Level,
		"log.format":                       def.Log.Format,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return c, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
