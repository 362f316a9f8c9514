package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxdigest/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		account            string
		googleClientID     string
		googleClientSecret string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize read-only Gmail access for an account",
		Long: `Print the Google authorization URL, read the authorization code and store
the resulting token in the user cache directory.

After granting access the browser is redirected to http://localhost,
which does not load. Paste either the "code" parameter or the whole URL
from the address bar.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := google.NewOAuthConfig(googleClientID, googleClientSecret)
			if err != nil {
				return err
			}
			return runAuth(cmd.Context(), google.NewFileTokenProvider(conf), account, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&account, "account", google.DefaultAccount, "Google account name to authorize (default: 'default')")
	cmd.Flags().StringVar(&googleClientID, "google-client-id", "", "Google OAuth client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&googleClientSecret, "google-client-secret", "", "Google OAuth client secret. Can also use GOOGLE_CLIENT_SECRET env var.")

	return cmd
}

func runAuth(ctx context.Context, auth google.Authorizer, account string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Visit this URL to authorize account %q:\n\n%s\n\nAuthorization code: ", account, auth.AuthURL(account))

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}
	code := authCode(line)
	if code == "" {
		return errors.New("no authorization code given")
	}

	if err := auth.SaveToken(ctx, account, code); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	fmt.Fprintf(out, "\nToken saved for account %q\n", account)
	return nil
}

// authCode accepts a bare code or the redirect URL that carries it.
func authCode(input string) string {
	input = strings.TrimSpace(input)
	if u, err := url.Parse(input); err == nil && u.Scheme != "" {
		return u.Query().Get("code")
	}
	return input
}
