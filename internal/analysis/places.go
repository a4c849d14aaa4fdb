package analysis

import "strings"

// Gazetteer is the fixed set of place names searched for in OCR text. The
// list mirrors the cities that recur in the source library's corpus.
var Gazetteer = []string{
	"Warszawa", "Kraków", "Gdansk", "Poznań", "Londyn", "Berlin",
	"Rzym", "Kair", "Paris", "New York", "Moskwa", "Lwów", "Wiedeń",
}

// ExtractPlaces returns each gazetteer place found in text, repeated once
// per occurrence, in gazetteer order. Matching is case-insensitive.
func ExtractPlaces(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, place := range Gazetteer {
		n := strings.Count(lower, strings.ToLower(place))
		for i := 0; i < n; i++ {
			out = append(out, place)
		}
	}
	return out
}

// SymbolCounter counts occurrences of semiotic symbols in text.
type SymbolCounter struct {
	symbols []string
}

// DefaultSymbols are the religious and heraldic symbols tracked by default.
var DefaultSymbols = []string{"krzyż", "półksiężyc", "gwiazda dawida", "orzeł"}

// NewSymbolCounter builds a counter over the given symbol list, falling back
// to DefaultSymbols when empty.
func NewSymbolCounter(symbols []string) *SymbolCounter {
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}
	lowered := make([]string, len(symbols))
	for i, s := range symbols {
		lowered[i] = strings.ToLower(s)
	}
	return &SymbolCounter{symbols: lowered}
}

// Count returns occurrence counts for symbols present in text. Symbols that
// do not occur are omitted.
func (c *SymbolCounter) Count(text string) map[string]int {
	lower := strings.ToLower(text)
	counts := make(map[string]int)
	for _, s := range c.symbols {
		if n := strings.Count(lower, s); n > 0 {
			counts[s] = n
		}
	}
	return counts
}
