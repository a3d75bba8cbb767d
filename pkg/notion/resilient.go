package notion

import (
	"context"

	"github.com/jomei/notionapi"

	"github.com/sells-group/propval/internal/resilience"
)

// resilientClient retries transient Notion failures and stops calling
// Notion while its breaker is open.
type resilientClient struct {
	inner   Client
	policy  resilience.Policy
	breaker *resilience.Breaker
}

// WithResilience wraps c so each call is retried under policy and guarded
// by breaker. A nil breaker disables circuit breaking.
func WithResilience(c Client, policy resilience.Policy, breaker *resilience.Breaker) Client {
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.LogRetries("notion", "api")
	}
	return &resilientClient{inner: c, policy: policy, breaker: breaker}
}

func guarded[T any](ctx context.Context, c *resilientClient, fn func(ctx context.Context) (T, error)) (T, error) {
	return resilience.Call(ctx, c.breaker, func(ctx context.Context) (T, error) {
		return resilience.Retry(ctx, c.policy, fn)
	})
}

func (c *resilientClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return guarded(ctx, c, func(ctx context.Context) (*notionapi.DatabaseQueryResponse, error) {
		return c.inner.QueryDatabase(ctx, dbID, req)
	})
}

func (c *resilientClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	return guarded(ctx, c, func(ctx context.Context) (*notionapi.Page, error) {
		return c.inner.CreatePage(ctx, req)
	})
}

func (c *resilientClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	return guarded(ctx, c, func(ctx context.Context) (*notionapi.Page, error) {
		return c.inner.UpdatePage(ctx, pageID, req)
	})
}
