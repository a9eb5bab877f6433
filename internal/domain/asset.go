package domain

import "time"

// Location is an advisory coordinate pair supplied by the caller. It is
// stored as submitted and never validated against real geography.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ContentAsset is the canonical registered record. It is created once, at
// ledger confirmation, and is immutable afterwards.
type ContentAsset struct {
	AssetID         string
	Fingerprint     string
	Content         string
	Description     string
	Creator         string
	Publisher       string
	Location        Location
	Timestamp       time.Time
	LedgerReference string
	CreatedAt       time.Time
}

type AssetSummary struct {
	AssetID     string
	Description string
}
