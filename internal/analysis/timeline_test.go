package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/mkrawiec/bibscan/internal/library"
	"github.com/mkrawiec/bibscan/internal/scanfile"
)

func testBook() *library.Book {
	return &library.Book{
		Hash: "a1b2c3d4e5f6",
		BookMeta: library.BookMeta{
			Title:   "Historia Powszechna",
			Authors: "Józef Wolski",
		},
		Scans: []library.Scan{
			{
				PageInfo: scanfile.PageInfo{PageKey: "s0002"},
				OCRText:  "W 1945 roku wojska wkroczyły do Berlina.",
				Path:     "processed/a1b2c3d4e5f6/a1b2c3d4e5f6_s0002.jpg",
			},
			{
				PageInfo: scanfile.PageInfo{PageKey: "s0001"},
				OCRText:  "Rok 1939 zastał Warszawa w niepokoju. Na murach krzyż.",
				Path:     "processed/a1b2c3d4e5f6/a1b2c3d4e5f6_s0001.jpg",
			},
			{
				PageInfo: scanfile.PageInfo{PageKey: "m0001"},
				// No OCR text: plates are filed without recognition.
			},
		},
	}
}

func TestBuildTimeline_SortedByDate(t *testing.T) {
	events := BuildTimeline(testBook(), nil)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Date.Year() != 1939 || events[1].Date.Year() != 1945 {
		t.Errorf("events not sorted: %v, %v", events[0].Date, events[1].Date)
	}
}

func TestBuildTimeline_CarriesPlacesAndSymbols(t *testing.T) {
	events := BuildTimeline(testBook(), nil)
	first := events[0]
	if len(first.Places) != 1 || first.Places[0] != "Warszawa" {
		t.Errorf("places = %v", first.Places)
	}
	if first.Symbols["krzyż"] != 1 {
		t.Errorf("symbols = %v", first.Symbols)
	}
	if !strings.HasSuffix(first.ScanPath, "s0001.jpg") {
		t.Errorf("scan path = %q", first.ScanPath)
	}
}

func TestBuildTimeline_PrefersStoredDates(t *testing.T) {
	book := testBook()
	book.Scans = book.Scans[:1]
	book.Scans[0].ExtractedDates = []library.ExtractedDate{
		{Text: "custom", Parsed: time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	events := BuildTimeline(book, nil)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].DateText != "custom" {
		t.Errorf("stored extracted dates should win, got %q", events[0].DateText)
	}
}

func TestBuildTimeline_EmptyBook(t *testing.T) {
	if got := BuildTimeline(&library.Book{}, nil); len(got) != 0 {
		t.Errorf("expected no events, got %d", len(got))
	}
}

func TestSnippet_Truncates(t *testing.T) {
	long := strings.Repeat("ż", 150)
	got := snippet(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if len([]rune(got)) != snippetLen+3 {
		t.Errorf("snippet rune length = %d", len([]rune(got)))
	}
}

func TestMarkdownReport(t *testing.T) {
	events := BuildTimeline(testBook(), nil)
	md := MarkdownReport("Historia Powszechna", events)
	if !strings.Contains(md, "# Timeline: Historia Powszechna") {
		t.Error("missing title")
	}
	if !strings.Contains(md, "1939-01-01") {
		t.Errorf("missing first event date:\n%s", md)
	}
	if !strings.Contains(md, "Warszawa") {
		t.Error("missing place column")
	}
}

func TestMarkdownReport_Empty(t *testing.T) {
	md := MarkdownReport("Pusta", nil)
	if !strings.Contains(md, "No dated events") {
		t.Errorf("unexpected empty report:\n%s", md)
	}
}

func TestHTMLReport(t *testing.T) {
	events := BuildTimeline(testBook(), nil)
	html, err := HTMLReport("Historia", events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "<table>") {
		t.Errorf("expected rendered table:\n%s", html)
	}
	if !strings.Contains(html, "<h1") {
		t.Error("expected rendered heading")
	}
}

func TestEscapeCell(t *testing.T) {
	if got := escapeCell("a|b\nc"); got != "a\\|b c" {
		t.Errorf("escapeCell = %q", got)
	}
}
