package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxdigest/internal/logging"
	"github.com/teemow/inboxdigest/internal/newsletter"
)

var (
	logLevel  string
	logFormat string
	rulesPath string

	// logger is configured in PersistentPreRunE and writes to stderr.
	logger = slog.New(slog.DiscardHandler)
)

// rootCmd represents the base command for the inboxdigest application
var rootCmd = &cobra.Command{
	Use:   "inboxdigest",
	Short: "Turns newsletter mail into a Markdown news report",
	Long: `inboxdigest reads recent mail from Gmail or an mbox file, keeps the
messages that are newsletters, extracts up to five stories from each and
writes them into a single Markdown report.

It can run as:
  - A standalone CLI tool
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is not an error.
		_ = godotenv.Load()

		if !cmd.Flags().Changed("log-level") {
			if v := os.Getenv("LOG_LEVEL"); v != "" {
				logLevel = v
			}
		}
		if !cmd.Flags().Changed("log-format") {
			if v := os.Getenv("LOG_FORMAT"); v != "" {
				logFormat = v
			}
		}

		l, err := logging.New(logLevel, logFormat, os.Stderr)
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)
		return nil
	},
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxdigest version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadExtractor builds the extractor from --rules, or the embedded
// defaults when the flag is empty.
func loadExtractor() (*newsletter.Extractor, error) {
	var rules *newsletter.Rules
	if rulesPath != "" {
		r, err := newsletter.LoadRules(rulesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}
		rules = r
	}
	return newsletter.NewExtractor(rules)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error. Can also use LOG_LEVEL env var.")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format: text or json. Can also use LOG_FORMAT env var.")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Path to a YAML rules file overriding the built-in newsletter rules")

	rootCmd.AddCommand(newDigestCmd())
	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
