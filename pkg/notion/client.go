// Package notion pushes captured leads into a Notion database. Calls are
// throttled to Notion's published rate limit.
package notion

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/propval/internal/resilience"
)

// Client is the subset of the Notion API used for lead sync.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// Notion allows an average of three requests per second per integration.
const defaultRPS = 3

// ClientOption configures the Notion client.
type ClientOption func(*leadClient)

// WithRateLimit overrides the default rate limit. Zero disables throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *leadClient) {
		c.limiter = nil
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithTimeout bounds each HTTP round trip to the Notion API.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *leadClient) { c.timeout = d }
}

type leadClient struct {
	api     *notionapi.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewClient returns a Client authenticated with an integration token.
func NewClient(token string, opts ...ClientOption) Client {
	c := &leadClient{
		limiter: rate.NewLimiter(defaultRPS, 1),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.api = notionapi.NewClient(notionapi.Token(token),
		notionapi.WithHTTPClient(&http.Client{Timeout: c.timeout}))
	return c
}

func (c *leadClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// throttled waits for a limiter slot, runs fn and tags failures with op.
// Throttling and server-side failures come back as transient errors.
func throttled[T any](ctx context.Context, c *leadClient, op string, fn func() (T, error)) (T, error) {
	var zero T
	if err := c.wait(ctx); err != nil {
		return zero, eris.Wrap(err, "notion: rate limit")
	}
	v, err := fn()
	if err != nil {
		return zero, classify(eris.Wrap(err, "notion: "+op))
	}
	return v, nil
}

func classify(err error) error {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500) {
		return resilience.Transient(err)
	}
	return err
}

func (c *leadClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return throttled(ctx, c, "query database "+dbID, func() (*notionapi.DatabaseQueryResponse, error) {
		return c.api.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	})
}

func (c *leadClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	return throttled(ctx, c, "create page", func() (*notionapi.Page, error) {
		return c.api.Page.Create(ctx, req)
	})
}

func (c *leadClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	return throttled(ctx, c, "update page "+pageID, func() (*notionapi.Page, error) {
		return c.api.Page.Update(ctx, notionapi.PageID(pageID), req)
	})
}
