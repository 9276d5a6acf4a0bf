package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"datapilot/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string
	docsDir    string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pilot",
	Short: "datapilot - natural language router over data and commands",
	Long: `datapilot answers natural language questions by routing each one to
exactly one tool: a read-only SQL query against the music catalog, a
relevance search over the local document corpus, or a shell command
that only runs after explicit human approval.

Run without arguments to start an interactive session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.Logging.Verbose {
			zapConfig.Level.SetLevel(zapcore.DebugLevel)
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		if docsDir != "" {
			cfg.Documents.Dir = docsDir
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "datapilot.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "override the catalog database path")
	rootCmd.PersistentFlags().StringVar(&docsDir, "docs", "", "override the document corpus directory")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(pendingCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
