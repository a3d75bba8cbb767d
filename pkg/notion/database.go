package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// maxScanPages bounds a lookup that keeps getting cursors back.
const maxScanPages = 50

// scanDatabase walks query results page by page and returns the first page
// accepted by match, or nil. It stops requesting pages once one matches.
func scanDatabase(ctx context.Context, c Client, dbID string, query notionapi.DatabaseQueryRequest, match func(notionapi.Page) bool) (*notionapi.Page, error) {
	for n := 0; n < maxScanPages; n++ {
		req := query
		resp, err := c.QueryDatabase(ctx, dbID, &req)
		if err != nil {
			return nil, eris.Wrapf(err, "notion: query %s (page %d)", dbID, n+1)
		}
		for i := range resp.Results {
			if match(resp.Results[i]) {
				return &resp.Results[i], nil
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return nil, nil
		}
		query.StartCursor = resp.NextCursor
	}
	return nil, eris.Errorf("notion: query %s returned more than %d pages", dbID, maxScanPages)
}

// pageEmail reads the plain text of a page's email property.
func pageEmail(p notionapi.Page) string {
	var rt []notionapi.RichText
	switch v := p.Properties[PropEmail].(type) {
	case *notionapi.RichTextProperty:
		rt = v.RichText
	case notionapi.RichTextProperty:
		rt = v.RichText
	}
	var b strings.Builder
	for _, t := range rt {
		if t.Text != nil {
			b.WriteString(t.Text.Content)
		} else {
			b.WriteString(t.PlainText)
		}
	}
	return strings.TrimSpace(b.String())
}
