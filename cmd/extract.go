package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxdigest/internal/newsletter"
)

type extractOptions struct {
	file    string
	sender  string
	subject string
	json    bool
}

func newExtractCmd() *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract stories from a single newsletter body",
		Long: `Normalize an HTML or plain-text newsletter body and segment it into at
most five stories. The sender selects the parser: senders containing the
vendor marker use the structured headline parser, all others the generic
one. When nothing is found, a single story built from the subject and a
body excerpt is printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "-", "Body file to read; '-' reads stdin")
	cmd.Flags().StringVar(&opts.sender, "sender", "", "From header of the message")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "Subject of the message")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the result as JSON")

	return cmd
}

func runExtract(opts extractOptions, in io.Reader, out io.Writer) error {
	extractor, err := loadExtractor()
	if err != nil {
		return err
	}

	var body []byte
	if opts.file == "" || opts.file == "-" {
		body, err = io.ReadAll(in)
	} else {
		body, err = os.ReadFile(opts.file)
	}
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}

	res := extractor.Extract(newsletter.RawMessage{
		Sender:  opts.sender,
		Subject: opts.subject,
		Body:    string(body),
	})

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(out, "Parser: %s (%s)\n", res.Parser, res.Status)
	if res.Diagnostic != "" {
		fmt.Fprintf(out, "Note: %s\n", res.Diagnostic)
	}
	for i, s := range res.Stories {
		fmt.Fprintf(out, "\n%d. %s\n", i+1, s.Title)
		fmt.Fprintf(out, "   Company: %s (%s)\n", s.Company, extractor.Rules().Ticker(s.Company))
		fmt.Fprintf(out, "   %s\n", s.Content)
	}
	return nil
}
