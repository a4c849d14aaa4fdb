package bookid

import "testing"

func TestStripDiacritics(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"żółć", "zoc"}, // ł has no decomposition and is dropped
		{"Łódź", "odz"},
		{"Kraków", "Krakow"},
		{"Gdańsk", "Gdansk"},
		{"plain ascii", "plain ascii"},
		{"", ""},
	}
	for _, c := range cases {
		if got := StripDiacritics(c.in); got != c.want {
			t.Errorf("StripDiacritics(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHash_Deterministic(t *testing.T) {
	meta := Meta{Title: "Historia Starozytna", Authors: "Jan Kowalski", Year: "2020", PubPlace: "Warszawa"}
	h1 := Hash(meta, DefaultLength, true)
	h2 := Hash(meta, DefaultLength, true)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	if len(h1) != DefaultLength {
		t.Errorf("expected %d-char hash, got %d", DefaultLength, len(h1))
	}
}

func TestHash_DistinguishesTitles(t *testing.T) {
	a := Hash(Meta{Title: "Historia Starozytna", Authors: "Jan Kowalski", Year: "2020", PubPlace: "Warszawa"}, 12, true)
	b := Hash(Meta{Title: "Historia Wspolczesna", Authors: "Jan Kowalski", Year: "2020", PubPlace: "Warszawa"}, 12, true)
	if a == b {
		t.Error("expected different hashes for different titles")
	}
}

func TestHash_NormalizationCollapsesDiacritics(t *testing.T) {
	plain := Hash(Meta{Title: "Historia Polski", Authors: "Jozef Wolski", Year: "1971", PubPlace: "Krakow"}, 12, true)
	marked := Hash(Meta{Title: "Historia Polski", Authors: "Józef Wolski", Year: "1971", PubPlace: "Kraków"}, 12, true)
	if plain != marked {
		t.Errorf("normalized hashes should match: %q vs %q", plain, marked)
	}

	// Without normalization the variants stay distinct.
	raw := Hash(Meta{Title: "Historia Polski", Authors: "Józef Wolski", Year: "1971", PubPlace: "Kraków"}, 12, false)
	if raw == plain {
		t.Error("expected unnormalized hash to differ")
	}
}

func TestHash_CaseInsensitive(t *testing.T) {
	lower := Hash(Meta{Title: "moja ksiazka", Authors: "autor", Year: "2024", PubPlace: "poznan"}, 12, true)
	upper := Hash(Meta{Title: "MOJA KSIAZKA", Authors: "AUTOR", Year: "2024", PubPlace: "POZNAN"}, 12, true)
	if lower != upper {
		t.Error("hash should be case insensitive")
	}
}

func TestHash_MissingFields(t *testing.T) {
	h := Hash(Meta{Title: "Ksiazka bez roku", Authors: "Autor Anonimowy"}, 12, true)
	if len(h) != 12 {
		t.Errorf("expected 12-char hash for partial meta, got %d", len(h))
	}
}

func TestHash_LengthClamped(t *testing.T) {
	meta := Meta{Title: "t", Authors: "a", Year: "2000", PubPlace: "p"}
	if got := Hash(meta, 0, true); len(got) != DefaultLength {
		t.Errorf("zero length should fall back to default, got %d chars", len(got))
	}
	if got := Hash(meta, 500, true); len(got) != 64 {
		t.Errorf("oversized length should clamp to full digest, got %d chars", len(got))
	}
}
