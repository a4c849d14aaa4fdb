// Package scanfile parses scanned page filenames.
//
// Incoming scans follow the grammar {alias}_{pageType}{number}.{ext}, e.g.
// "MojaKsiazka_s0001.jpg". The alias ties a page to a book, the single-letter
// page type classifies it, and the number orders pages within that type.
package scanfile

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// PageType is the single-letter page classification from the filename.
type PageType string

const (
	PageIntro        PageType = "w" // front matter, roman-numbered
	PageBody         PageType = "s" // main text
	PageMap          PageType = "m"
	PageIllustration PageType = "i"
	PageTable        PageType = "t"
	PageCover        PageType = "c"
	PageSpine        PageType = "g"
	PageDustJacket   PageType = "o"
	PageEndpaper     PageType = "e"
	PageBlank        PageType = "b"
)

// PageTypeNames maps type letters to their full names.
var PageTypeNames = map[PageType]string{
	PageIntro:        "intro",
	PageBody:         "body",
	PageMap:          "map",
	PageIllustration: "illustration",
	PageTable:        "table",
	PageCover:        "cover",
	PageSpine:        "spine",
	PageDustJacket:   "dust jacket",
	PageEndpaper:     "endpaper",
	PageBlank:        "blank",
}

// pageNumberPadding fixes page keys at 4 digits ("s0001").
const pageNumberPadding = 4

var filenameRe = regexp.MustCompile(`^(?i)(?P<alias>.+?)_(?P<type>[wsimtcgoeb])(?P<num>\d+)\.(?P<ext>jpg|jpeg|png|tiff?)$`)

// SupportedExtensions lists the image formats accepted from the scan folder.
var SupportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
}

// IsSupportedExtension checks whether a filename has a scannable extension.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// PageInfo is the parsed form of a scan filename.
type PageInfo struct {
	Alias      string   `json:"alias" bson:"alias"`
	PageKey    string   `json:"page_key" bson:"page_key"` // e.g. "s0001", identity within a book
	Type       PageType `json:"page_type" bson:"page_type"`
	TypeName   string   `json:"page_type_name" bson:"page_type_name"`
	Number     int      `json:"page_number" bson:"page_number"`
	Roman      string   `json:"roman_number,omitempty" bson:"roman_number,omitempty"` // intro pages only
	Ext        string   `json:"ext" bson:"ext"`                                       // with leading dot, lowercase
}

// Parse decodes a scan filename. It returns an error for names that do not
// match the grammar; such files are rejected by the scanner.
func Parse(filename string) (PageInfo, error) {
	m := filenameRe.FindStringSubmatch(filename)
	if m == nil {
		return PageInfo{}, fmt.Errorf("filename %q does not match {alias}_{type}{number}.{ext}", filename)
	}
	alias := m[1]
	pt := PageType(strings.ToLower(m[2]))
	num, err := strconv.Atoi(m[3])
	if err != nil {
		return PageInfo{}, fmt.Errorf("page number in %q: %w", filename, err)
	}

	info := PageInfo{
		Alias:    alias,
		PageKey:  string(pt) + padNumber(m[3]),
		Type:     pt,
		TypeName: PageTypeNames[pt],
		Number:   num,
		Ext:      "." + strings.ToLower(m[4]),
	}
	if pt == PageIntro {
		info.Roman = roman(num)
	}
	return info, nil
}

// HasText reports whether a page type carries OCR-worthy text. Only front
// matter and body pages are recognized; plates, covers and blanks are filed
// without OCR.
func (p PageInfo) HasText() bool {
	return p.Type == PageIntro || p.Type == PageBody
}

// StoredName returns the standardized filename used under processed/,
// e.g. "a1b2c3d4e5f6_s0001.jpg".
func (p PageInfo) StoredName(bookHash string) string {
	return bookHash + "_" + p.PageKey + p.Ext
}

func padNumber(digits string) string {
	for len(digits) < pageNumberPadding {
		digits = "0" + digits
	}
	return digits
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
	{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
	{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
}

// roman renders n as a lowercase roman numeral, the convention for front
// matter page numbers. Returns "" for n < 1.
func roman(n int) string {
	if n < 1 {
		return ""
	}
	var b strings.Builder
	for _, e := range romanTable {
		for n >= e.value {
			b.WriteString(e.symbol)
			n -= e.value
		}
	}
	return b.String()
}
