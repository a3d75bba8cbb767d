package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// Lead property names in the Notion database.
const (
	PropName         = "Name"
	PropEmail        = "Email"
	PropPhone        = "Phone"
	PropCity         = "City"
	PropPropertyType = "Property Type"
	PropLocation     = "Location"
	PropEstimateMin  = "Estimate Min"
	PropEstimateMax  = "Estimate Max"
	PropConfidence   = "Confidence"
	PropStatus       = "Status"
	PropCapturedAt   = "Captured At"
)

// StatusNew is the status given to freshly pushed leads.
const StatusNew = "New"

// LeadPage is a lead as it appears in Notion.
type LeadPage struct {
	Name         string
	Email        string
	Phone        string
	City         string
	PropertyType string
	Location     string
	EstimateMin  int64
	EstimateMax  int64
	Confidence   string
	CapturedAt   time.Time
}

// Properties renders the lead as Notion page properties. Empty optional
// fields are omitted.
func (l LeadPage) Properties() notionapi.Properties {
	props := notionapi.Properties{
		PropName: notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: []notionapi.RichText{richText(l.Name)},
		},
		PropStatus: notionapi.StatusProperty{
			Status: notionapi.Status{Name: StatusNew},
		},
	}
	for name, v := range map[string]string{
		PropEmail:      l.Email,
		PropPhone:      l.Phone,
		PropLocation:   l.Location,
		PropConfidence: l.Confidence,
	} {
		if v != "" {
			props[name] = notionapi.RichTextProperty{
				Type:     notionapi.PropertyTypeRichText,
				RichText: []notionapi.RichText{richText(v)},
			}
		}
	}
	for name, v := range map[string]string{PropCity: l.City, PropPropertyType: l.PropertyType} {
		if v != "" {
			props[name] = notionapi.SelectProperty{
				Type:   notionapi.PropertyTypeSelect,
				Select: notionapi.Option{Name: v},
			}
		}
	}
	if l.EstimateMax > 0 {
		props[PropEstimateMin] = notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: float64(l.EstimateMin)}
		props[PropEstimateMax] = notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: float64(l.EstimateMax)}
	}
	if !l.CapturedAt.IsZero() {
		at := notionapi.Date(l.CapturedAt)
		props[PropCapturedAt] = notionapi.DateProperty{Date: &notionapi.DateObject{Start: &at}}
	}
	return props
}

func richText(s string) notionapi.RichText {
	return notionapi.RichText{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}
}

// FindLeadByEmail returns the ID of the live lead page holding email, or ""
// when there is none. Notion's text filter is a coarse pre-filter; the
// address itself is compared case-insensitively so "x@y.com" never matches
// "x@y.com.au", and archived pages are skipped.
func FindLeadByEmail(ctx context.Context, c Client, dbID, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", nil
	}
	page, err := scanDatabase(ctx, c, dbID, notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: PropEmail,
			RichText: &notionapi.TextFilterCondition{Contains: strings.ToLower(email)},
		},
		PageSize: 100,
	}, func(p notionapi.Page) bool {
		return !p.Archived && strings.EqualFold(pageEmail(p), email)
	})
	if err != nil {
		return "", eris.Wrap(err, "notion: find lead")
	}
	if page == nil {
		return "", nil
	}
	return string(page.ID), nil
}

// PushLead creates a page for the lead, or updates the page already holding
// the same email. It returns the page ID.
func PushLead(ctx context.Context, c Client, dbID string, lead LeadPage) (string, error) {
	if dbID == "" {
		return "", eris.New("notion: lead database id is required")
	}

	existing, err := FindLeadByEmail(ctx, c, dbID, lead.Email)
	if err != nil {
		return "", err
	}

	if existing != "" {
		props := lead.Properties()
		delete(props, PropStatus)
		if _, err := c.UpdatePage(ctx, existing, &notionapi.PageUpdateRequest{Properties: props}); err != nil {
			return "", eris.Wrap(err, fmt.Sprintf("notion: update lead page %s", existing))
		}
		return existing, nil
	}

	page, err := c.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: lead.Properties(),
	})
	if err != nil {
		return "", eris.Wrap(err, "notion: create lead page")
	}
	return string(page.ID), nil
}
