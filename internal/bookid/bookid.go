// Package bookid derives stable book identifiers from bibliographic metadata.
package bookid

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultLength is the number of hex characters kept from the digest.
const DefaultLength = 12

// Meta holds the fields that participate in book identity. Two books with
// the same title, authors, year and place of publication are the same book.
type Meta struct {
	Title    string
	Authors  string
	Year     string
	PubPlace string
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripDiacritics removes combining marks from text ("Kraków" -> "Krakow")
// and drops any remaining non-ASCII runes, such as "ł".
func StripDiacritics(text string) string {
	out, _, err := transform.String(stripMarks, text)
	if err != nil {
		return text
	}
	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Hash returns the truncated SHA-256 digest identifying a book. When
// normalize is set, diacritics are stripped before hashing so spelling
// variants of the same record collapse to one identity.
func Hash(meta Meta, length int, normalize bool) string {
	if length <= 0 {
		length = DefaultLength
	}
	fields := []string{meta.Title, meta.Authors, meta.Year, meta.PubPlace}
	parts := make([]string, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if normalize {
			f = StripDiacritics(f)
		}
		parts[i] = strings.ToLower(f)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	hex := fmt.Sprintf("%x", sum)
	if length > len(hex) {
		length = len(hex)
	}
	return hex[:length]
}
