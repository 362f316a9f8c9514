package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxdigest/internal/newsletter"
)

type classifyOptions struct {
	sender  string
	subject string
	headers []string
}

func newClassifyCmd() *cobra.Command {
	var opts classifyOptions

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Decide whether a message is a newsletter",
		Long: `Run the newsletter rules against a sender, subject and optional headers
and print the decision together with the rule that made it.

Example:
  inboxdigest classify --sender "Morning Brew <crew@morningbrew.com>" --subject "Today's brew"
  inboxdigest classify --sender news@example.com --header "List-ID=<news.example.com>"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.sender, "sender", "", "From header of the message")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "Subject of the message")
	cmd.Flags().StringArrayVar(&opts.headers, "header", nil, "Additional header as Name=Value (repeatable)")
	_ = cmd.MarkFlagRequired("sender")

	return cmd
}

func runClassify(opts classifyOptions, out io.Writer) error {
	extractor, err := loadExtractor()
	if err != nil {
		return err
	}

	headers, err := parseHeaders(opts.headers)
	if err != nil {
		return err
	}

	c := extractor.Classify(newsletter.RawMessage{
		Sender:  opts.sender,
		Subject: opts.subject,
		Headers: headers,
	})
	fmt.Fprintf(out, "newsletter: %t (rule: %s)\n", c.Newsletter, c.Reason)
	return nil
}

// parseHeaders converts Name=Value pairs into headers, keeping their order.
func parseHeaders(pairs []string) ([]newsletter.Header, error) {
	headers := make([]newsletter.Header, 0, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q: want Name=Value", p)
		}
		headers = append(headers, newsletter.Header{Name: name, Value: strings.TrimSpace(value)})
	}
	return headers, nil
}
