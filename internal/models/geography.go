package models

import "time"

// Country represents a top-level node of the geographic hierarchy
type Country struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"` // ISO 3166-1 alpha-2
	FlagCount int       `json:"flag_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Region represents a sub-national division of a country
type Region struct {
	ID        string    `json:"id"`
	CountryID string    `json:"country_id"`
	Name      string    `json:"name"`
	FlagCount int       `json:"flag_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Municipality represents the leaf of the hierarchy a flag belongs to
type Municipality struct {
	ID        string    `json:"id"`
	RegionID  string    `json:"region_id"`
	Name      string    `json:"name"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	FlagCount int       `json:"flag_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarketStats represents aggregate marketplace statistics shown on the
// admin dashboard
type MarketStats struct {
	Countries      int `json:"countries"`
	Regions        int `json:"regions"`
	Municipalities int `json:"municipalities"`
	Flags          int `json:"flags"`
	CompletedPairs int `json:"completed_pairs"`
	ActiveAuctions int `json:"active_auctions"`
	Users          int `json:"users"`
}
