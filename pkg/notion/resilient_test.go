package notion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/propval/internal/resilience"
)

func testPolicy() resilience.Policy {
	return resilience.Policy{Attempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}
}

func TestWithResilience_RetriesTransient(t *testing.T) {
	mc := &MockClient{}
	mc.On("CreatePage", mock.Anything, mock.Anything).
		Return(nil, errors.New("rate_limited: too many requests")).Once()
	mc.On("CreatePage", mock.Anything, mock.Anything).
		Return(&notionapi.Page{ID: "page-1"}, nil).Once()

	c := WithResilience(mc, testPolicy(), nil)
	page, err := c.CreatePage(context.Background(), &notionapi.PageCreateRequest{})
	require.NoError(t, err)
	assert.Equal(t, notionapi.ObjectID("page-1"), page.ID)
	mc.AssertNumberOfCalls(t, "CreatePage", 2)
}

func TestWithResilience_PermanentErrorNotRetried(t *testing.T) {
	mc := &MockClient{}
	mc.On("UpdatePage", mock.Anything, "page-1", mock.Anything).
		Return(nil, errors.New("validation_error: Status is not a property")).Once()

	c := WithResilience(mc, testPolicy(), nil)
	_, err := c.UpdatePage(context.Background(), "page-1", &notionapi.PageUpdateRequest{})
	assert.ErrorContains(t, err, "validation_error")
	mc.AssertNumberOfCalls(t, "UpdatePage", 1)
}

func TestWithResilience_BreakerOpens(t *testing.T) {
	mc := &MockClient{}
	mc.On("QueryDatabase", mock.Anything, "db-1", mock.Anything).
		Return(nil, errors.New("service_unavailable"))

	breaker := resilience.NewBreaker(resilience.BreakerConfig{Threshold: 1, Cooldown: time.Hour})
	c := WithResilience(mc, testPolicy(), breaker)

	_, err := c.QueryDatabase(context.Background(), "db-1", &notionapi.DatabaseQueryRequest{})
	require.Error(t, err)
	mc.AssertNumberOfCalls(t, "QueryDatabase", 3)
	assert.Equal(t, resilience.Open, breaker.State())

	_, err = c.QueryDatabase(context.Background(), "db-1", &notionapi.DatabaseQueryRequest{})
	assert.ErrorIs(t, err, resilience.ErrOpen)
	mc.AssertNumberOfCalls(t, "QueryDatabase", 3)
}
