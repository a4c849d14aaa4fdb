package analysis

import (
	"sort"
	"time"

	"github.com/mkrawiec/bibscan/internal/library"
)

// Event is one dated point on a book's timeline, carrying the places and
// symbols seen on the same page.
type Event struct {
	Date     time.Time      `json:"date" bson:"date"`
	DateText string         `json:"date_text" bson:"date_text"`
	Places   []string       `json:"places,omitempty" bson:"places,omitempty"`
	Symbols  map[string]int `json:"symbols,omitempty" bson:"symbols,omitempty"`
	ScanPath string         `json:"scan_path" bson:"scan_path"`
	Snippet  string         `json:"snippet" bson:"snippet"`
}

const snippetLen = 100

// BuildTimeline mines every scan of a book and returns its events in
// chronological order. Scans without OCR text contribute nothing.
func BuildTimeline(book *library.Book, symbols *SymbolCounter) []Event {
	if symbols == nil {
		symbols = NewSymbolCounter(nil)
	}

	var events []Event
	for _, scan := range book.Scans {
		if scan.OCRText == "" {
			continue
		}
		dates := scan.ExtractedDates
		if len(dates) == 0 {
			dates = ExtractDates(scan.OCRText)
		}
		if len(dates) == 0 {
			continue
		}
		places := ExtractPlaces(scan.OCRText)
		counts := symbols.Count(scan.OCRText)

		for _, d := range dates {
			events = append(events, Event{
				Date:     d.Parsed,
				DateText: d.Text,
				Places:   places,
				Symbols:  counts,
				ScanPath: scan.Path,
				Snippet:  snippet(scan.OCRText),
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLen {
		return text
	}
	return string(runes[:snippetLen]) + "..."
}
