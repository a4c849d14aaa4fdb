// Package library defines the book and scan records shared by the scanner,
// the store and the analysis layers.
package library

import (
	"time"

	"github.com/mkrawiec/bibscan/internal/scanfile"
)

// BookMeta is the bibliographic description supplied when an alias is
// registered. Title, authors, year and place drive the book hash.
type BookMeta struct {
	Title                string   `json:"title" bson:"title"`
	Authors              string   `json:"authors" bson:"authors"`
	Year                 string   `json:"year" bson:"year"`
	PubPlace             string   `json:"pub_place" bson:"pub_place"`
	Publisher            string   `json:"publisher,omitempty" bson:"publisher"`
	NumPages             int      `json:"num_pages,omitempty" bson:"num_pages,omitempty"`
	Notes                string   `json:"notes,omitempty" bson:"notes"`
	Keywords             []string `json:"keywords,omitempty" bson:"keywords"`
	MapsPresent          bool     `json:"maps_present" bson:"maps_present"`
	IllustrationsPresent bool     `json:"illustrations_present" bson:"illustrations_present"`
	TablesPresent        bool     `json:"tables_present" bson:"tables_present"`
}

// Book is the full stored record: metadata plus the scans filed so far.
type Book struct {
	Hash string `json:"book_hash" bson:"book_hash"`

	BookMeta `bson:",inline"`

	Scans []Scan `json:"scans,omitempty" bson:"scans,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty" bson:"created_at,omitempty"`
	UpdatedAt time.Time `json:"last_updated_at,omitempty" bson:"last_updated_at,omitempty"`
}

// Scan is one processed page. Write-once per page key: re-scanning the same
// page replaces the record rather than appending a second one.
type Scan struct {
	scanfile.PageInfo `bson:",inline"`

	OCRText        string          `json:"ocr_text,omitempty" bson:"ocr_text"`
	Path           string          `json:"page_full_path" bson:"page_full_path"`
	ExtractedDates []ExtractedDate `json:"extracted_dates,omitempty" bson:"extracted_dates,omitempty"`
	ProcessedAt    time.Time       `json:"processed_at" bson:"processed_at"`
}

// ExtractedDate is a date reference found in a scan's OCR text.
type ExtractedDate struct {
	Text   string    `json:"text" bson:"text"`
	Parsed time.Time `json:"parsed" bson:"parsed"`
}
