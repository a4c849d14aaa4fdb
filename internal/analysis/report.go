package analysis

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MarkdownReport renders a timeline as a markdown table.
func MarkdownReport(title string, events []Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Timeline: %s\n\n", title)
	if len(events) == 0 {
		b.WriteString("No dated events found.\n")
		return b.String()
	}

	b.WriteString("| Date | Reference | Places | Symbols | Scan | Context |\n")
	b.WriteString("|------|-----------|--------|---------|------|---------|\n")
	for _, e := range events {
		places := "-"
		if len(e.Places) > 0 {
			places = strings.Join(e.Places, ", ")
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			e.Date.Format("2006-01-02"),
			escapeCell(e.DateText),
			escapeCell(places),
			escapeCell(formatSymbols(e.Symbols)),
			escapeCell(e.ScanPath),
			escapeCell(e.Snippet),
		)
	}
	return b.String()
}

// HTMLReport renders a timeline as an HTML document body.
func HTMLReport(title string, events []Event) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(MarkdownReport(title, events)), &buf); err != nil {
		return "", fmt.Errorf("render timeline: %w", err)
	}
	return buf.String(), nil
}

func formatSymbols(symbols map[string]int) string {
	if len(symbols) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(symbols))
	for k := range symbols {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, symbols[k])
	}
	return strings.Join(parts, ", ")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
