package model

import "time"

// Lead is a contact request captured after a visitor sees a valuation.
type Lead struct {
	ID           string    `json:"lead_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	City         string    `json:"city,omitempty"`
	PropertyType string    `json:"property_type,omitempty"`
	AreaName     string    `json:"area_name,omitempty"`
	PINCode      string    `json:"pin_code,omitempty"`
	DistanceKM   *float64  `json:"distance_km,omitempty"`
	EstimateMin  int64     `json:"estimate_min,omitempty"`
	EstimateMax  int64     `json:"estimate_max,omitempty"`
	Confidence   string    `json:"confidence,omitempty"`
	NotionPageID string    `json:"notion_page_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
