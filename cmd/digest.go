package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxdigest/internal/digest"
	"github.com/teemow/inboxdigest/internal/gmail"
	"github.com/teemow/inboxdigest/internal/google"
	"github.com/teemow/inboxdigest/internal/instrumentation"
	"github.com/teemow/inboxdigest/internal/logging"
	"github.com/teemow/inboxdigest/internal/market"
	"github.com/teemow/inboxdigest/internal/mbox"
	"github.com/teemow/inboxdigest/internal/newsletter"
	"github.com/teemow/inboxdigest/internal/report"
)

const (
	sourceGmail = "gmail"
	sourceMbox  = "mbox"
)

// digestOptions holds the flags of the digest command.
type digestOptions struct {
	source             string
	account            string
	mboxPath           string
	window             string
	output             string
	market             bool
	googleClientID     string
	googleClientSecret string
}

func newDigestCmd() *cobra.Command {
	var opts digestOptions

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Build a Markdown news report from recent newsletters",
		Long: `Collect recent mail from Gmail or an mbox file, keep the newsletters,
extract their stories and write a Markdown news report.

Gmail is searched in three steps: first mail from known newsletter
domains, then newsletter keywords in the subject, then every message in
the search window. An empty result moves on to the next step.

Examples:
  inboxdigest digest --window 2d
  inboxdigest digest --source mbox --mbox ~/mail/newsletters.mbox --output today
  inboxdigest digest --market --rules rules.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runDigest(ctx, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.source, "source", sourceGmail, "Mail source: gmail or mbox")
	cmd.Flags().StringVar(&opts.account, "account", google.DefaultAccount, "Google account name to use (default: 'default')")
	cmd.Flags().StringVar(&opts.mboxPath, "mbox", "", "Path to the mbox file (required with --source mbox)")
	cmd.Flags().StringVar(&opts.window, "window", gmail.DefaultWindow, "Gmail search window in newer_than syntax, e.g. 1d or 12h")
	cmd.Flags().StringVarP(&opts.output, "output", "o", report.DefaultFilename, "Report file; '.md' is appended when missing. Use '-' for stdout.")
	cmd.Flags().BoolVar(&opts.market, "market", false, "Look up stock prices for companies with a known ticker")
	cmd.Flags().StringVar(&opts.googleClientID, "google-client-id", "", "Google OAuth client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&opts.googleClientSecret, "google-client-secret", "", "Google OAuth client secret. Can also use GOOGLE_CLIENT_SECRET env var.")

	return cmd
}

func runDigest(ctx context.Context, opts digestOptions, out io.Writer) error {
	extractor, err := loadExtractor()
	if err != nil {
		return err
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	src, err := newDigestSource(ctx, opts, extractor.Rules(), provider.Metrics())
	if err != nil {
		return err
	}

	log := logging.WithOperation(logger, "digest")
	d, err := digest.NewPipeline(extractor, logging.FromSlog(log), provider.Metrics()).Run(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to build digest: %w", err)
	}

	ropts := report.Options{Rules: extractor.Rules()}
	if opts.market {
		quoter := market.NewYahooQuoter(market.WithLogger(logging.FromSlog(log)))
		ropts.Quotes = market.Lookup(ctx, quoter, report.Tickers(d, extractor.Rules()))
	}
	content := report.Build(d, ropts)

	if opts.output == "-" {
		_, err := io.WriteString(out, content)
		return err
	}
	path, err := report.Save(opts.output, content)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	log.Info("report written",
		"path", path,
		"newsletters", len(d.Newsletters),
		logging.Stories(len(d.Stories())))
	fmt.Fprintf(out, "Report saved to %s (%d newsletters, %d stories)\n", path, len(d.Newsletters), len(d.Stories()))
	return nil
}

// newDigestSource opens the mail source selected by opts.source.
func newDigestSource(ctx context.Context, opts digestOptions, rules *newsletter.Rules, metrics *instrumentation.Metrics) (digest.Source, error) {
	switch opts.source {
	case sourceMbox:
		if opts.mboxPath == "" {
			return nil, fmt.Errorf("--mbox is required with --source %s", sourceMbox)
		}
		src, err := mbox.NewSource(opts.mboxPath, logger)
		if err != nil {
			return nil, err
		}
		return src, nil
	case sourceGmail:
		conf, err := google.NewOAuthConfig(opts.googleClientID, opts.googleClientSecret)
		if err != nil {
			return nil, err
		}
		client, err := gmail.NewClientForAccount(ctx, google.NewFileTokenProvider(conf), opts.account)
		if err != nil {
			return nil, err
		}
		client.SetMetrics(metrics)
		return gmail.NewSource(client, rules, opts.window), nil
	default:
		return nil, fmt.Errorf("unsupported source %q (supported: %s, %s)", opts.source, sourceGmail, sourceMbox)
	}
}
