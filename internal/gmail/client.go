package gmail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxdigest/internal/google"
	"github.com/teemow/inboxdigest/internal/instrumentation"
)

const (
	userID = "me"

	// DefaultRequestsPerSecond keeps message fetches well inside the Gmail
	// per-user quota.
	DefaultRequestsPerSecond = 10
	defaultBurst             = 5
)

// Client wraps the Gmail Users service with rate limiting and instrumentation.
type Client struct {
	svc     *gmail.UsersService
	account string
	limiter *rate.Limiter
	metrics *instrumentation.Metrics
}

// NewClient creates a Gmail client that authenticates with httpClient.
// Additional options, such as a custom endpoint, are passed to the service.
func NewClient(ctx context.Context, httpClient *http.Client, account string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:     svc.Users,
		account: account,
		limiter: rate.NewLimiter(DefaultRequestsPerSecond, defaultBurst),
		metrics: &instrumentation.Metrics{},
	}, nil
}

// NewClientForAccount creates a Gmail client using the stored token of account.
func NewClientForAccount(ctx context.Context, tokens google.TokenProvider, account string) (*Client, error) {
	httpClient, err := tokens.HTTPClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", google.GetAuthenticationErrorMessage(account), err)
	}
	return NewClient(ctx, httpClient, account)
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// SetMetrics attaches a metrics recorder. A nil recorder disables metrics.
func (c *Client) SetMetrics(m *instrumentation.Metrics) {
	if m == nil {
		m = &instrumentation.Metrics{}
	}
	c.metrics = m
}

// SetRateLimit replaces the request rate limit.
func (c *Client) SetRateLimit(limit rate.Limit, burst int) {
	c.limiter = rate.NewLimiter(limit, burst)
}

// ListMessageIDs returns the IDs of at most max messages matching query.
func (c *Client) ListMessageIDs(ctx context.Context, query string, max int64) ([]string, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, instrumentation.OperationList)
	defer span.End()

	start := time.Now()
	ids, err := c.listMessageIDs(ctx, query, max)
	c.record(ctx, instrumentation.OperationList, err, time.Since(start))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	instrumentation.SetSpanSuccess(span)
	return ids, nil
}

func (c *Client) listMessageIDs(ctx context.Context, query string, max int64) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := c.svc.Messages.List(userID).Q(query).MaxResults(max).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// GetMessage retrieves a message with its full payload.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*gmail.Message, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, instrumentation.OperationGet)
	defer span.End()

	start := time.Now()
	msg, err := c.getMessage(ctx, messageID)
	c.record(ctx, instrumentation.OperationGet, err, time.Since(start))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	instrumentation.SetSpanSuccess(span)
	return msg, nil
}

func (c *Client) getMessage(ctx context.Context, messageID string) (*gmail.Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	msg, err := c.svc.Messages.Get(userID, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return msg, nil
}

func (c *Client) record(ctx context.Context, operation string, err error, d time.Duration) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, status, d)
}
