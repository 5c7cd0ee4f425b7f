package models

import (
	"encoding/json"
	"time"
)

// VisitRecord is one validated field-visit measurement, keyed by
// (Location, VisitDate). VisitDate is always UTC midnight.
type VisitRecord struct {
	ID           string    `json:"id,omitempty"`
	Location     string    `json:"location"`
	VisitDate    time.Time `json:"visit_date"`
	Composters   int       `json:"composters"`
	WetWasteKg   float64   `json:"wet_waste_kg"`
	BrownWasteKg float64   `json:"brown_waste_kg"`
	LeachateL    float64   `json:"leachate_l"`
	HarvestKg    float64   `json:"harvest_kg"`
	UploadID     *string   `json:"upload_id,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// RowError pairs a 1-based data-row index (header row excluded) with a
// human-readable reason. Row 0 marks whole-file failures.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type Upload struct {
	ID           string          `json:"id"`
	FileName     string          `json:"file_name"`
	Note         *string         `json:"note"`
	Status       string          `json:"status"`
	CreatedCount int             `json:"created_count"`
	UpdatedCount int             `json:"updated_count"`
	SkippedCount int             `json:"skipped_count"`
	Errors       json.RawMessage `json:"errors,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at"`
}

// IngestOutcome is returned once per upload.
type IngestOutcome struct {
	Created   int               `json:"created"`
	Updated   int               `json:"updated"`
	Skipped   int               `json:"skipped"`
	Errors    []RowError        `json:"errors"`
	HeaderMap map[string]string `json:"header_map,omitempty"`
	UploadID  string            `json:"upload_id,omitempty"`
}

type SiteLocation struct {
	Location    string     `json:"location"`
	Lat         *float64   `json:"lat"`
	Lon         *float64   `json:"lon"`
	DisplayName string     `json:"display_name,omitempty"`
	Confidence  float64    `json:"confidence,omitempty"`
	GeocodedAt  *time.Time `json:"geocoded_at,omitempty"`
}

type Alert struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Type    string `json:"type"`
}
