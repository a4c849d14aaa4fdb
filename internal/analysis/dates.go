// Package analysis mines OCR text from historical books for date, place and
// symbol references and assembles them into timelines.
package analysis

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mkrawiec/bibscan/internal/library"
)

// Date reference patterns tuned for Polish-language history texts.
var (
	reYear       = regexp.MustCompile(`\b(\d{4})\b`)
	reCenturyBC  = regexp.MustCompile(`(?i)\b(II|III|IV|VI{0,3}|IX|XI{0,3}|XIV|XVI{0,3}|XIX|XX|V|X)\s*w\.\s*p\.n\.e\.`)
	reDayMonth   = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(styczeń|luty|marzec|kwiecień|maj|czerwiec|lipiec|sierpień|wrzesień|październik|listopad|grudzień)\s+(\d{4})\b`)
	reYearRange  = regexp.MustCompile(`\b(1[6-9]\d{2}|20\d{2})\s*-\s*(1[6-9]\d{2}|20\d{2})\b`)
	reDotted     = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`)
)

var monthNumbers = map[string]time.Month{
	"styczeń": time.January, "luty": time.February, "marzec": time.March,
	"kwiecień": time.April, "maj": time.May, "czerwiec": time.June,
	"lipiec": time.July, "sierpień": time.August, "wrzesień": time.September,
	"październik": time.October, "listopad": time.November, "grudzień": time.December,
}

var romanValues = map[byte]int{'I': 1, 'V': 5, 'X': 10}

// ExtractDates finds date references in text and parses each into a point on
// the timeline. References that fail validation (e.g. month 13) are dropped.
// Patterns overlap on purpose: "1945-1947" also yields its bare years, the
// same behavior the downstream index deduplicates by text.
func ExtractDates(text string) []library.ExtractedDate {
	var out []library.ExtractedDate

	for _, m := range reDayMonth.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		month, ok := monthNumbers[strings.ToLower(m[2])]
		if !ok || day < 1 || day > 31 {
			continue
		}
		out = append(out, library.ExtractedDate{
			Text:   m[0],
			Parsed: time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
		})
	}

	for _, m := range reDotted.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			continue
		}
		out = append(out, library.ExtractedDate{
			Text:   m[0],
			Parsed: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
		})
	}

	for _, m := range reYearRange.FindAllStringSubmatch(text, -1) {
		start, _ := strconv.Atoi(m[1])
		out = append(out, library.ExtractedDate{
			Text:   m[0],
			Parsed: time.Date(start, time.January, 1, 0, 0, 0, 0, time.UTC),
		})
	}

	for _, m := range reCenturyBC.FindAllStringSubmatch(text, -1) {
		c := parseRoman(strings.ToUpper(m[1]))
		if c == 0 {
			continue
		}
		// Anchor a BC century at its opening year; Go's time handles
		// negative (astronomical) years directly.
		out = append(out, library.ExtractedDate{
			Text:   m[0],
			Parsed: time.Date(-(c * 100), time.January, 1, 0, 0, 0, 0, time.UTC),
		})
	}

	for _, m := range reYear.FindAllStringSubmatch(text, -1) {
		year, _ := strconv.Atoi(m[1])
		out = append(out, library.ExtractedDate{
			Text:   m[0],
			Parsed: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		})
	}

	return out
}

// parseRoman reads a roman numeral built from I, V, X (centuries go no
// higher). Returns 0 for malformed input.
func parseRoman(s string) int {
	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := romanValues[s[i]]
		if !ok {
			return 0
		}
		if i+1 < len(s) && romanValues[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total
}
