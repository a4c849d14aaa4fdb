package ocr

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// PlainTextFromHOCR flattens Tesseract hOCR output to plain text, one output
// line per ocr_line element with words joined by single spaces.
func PlainTextFromHOCR(hocr string) (string, error) {
	doc, err := html.Parse(strings.NewReader(hocr))
	if err != nil {
		return "", fmt.Errorf("parse hocr: %w", err)
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_line") {
			if line := collapseText(n); line != "" {
				lines = append(lines, line)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(lines, "\n"), nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// collapseText gathers all text under n with whitespace normalized.
func collapseText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
