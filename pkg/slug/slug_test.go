package slug

import "testing"

func TestGenerate(t *testing.T) {
	cases := map[string]string{
		"The Royal Botanic Garden": "royal-botanic-garden",
		"  A Place   With Spaces ": "place-with-spaces",
		"Café Deluxe":              "cafe-deluxe",
		"An Organic-Thing!!":       "organic-thing",
		"---already--hyphenated--": "already-hyphenated",
	}
	for in, want := range cases {
		if got := Generate(in); got != want {
			t.Errorf("Generate(%q) = %q, want %q", in, got, want)
		}
	}
}
