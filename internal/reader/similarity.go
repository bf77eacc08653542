package reader

import "github.com/pmezard/go-difflib/difflib"

// similarity returns the Ratcliff/Obershelp ratio of a and b compared rune by rune:
// twice the number of matching runes over the total rune count.
func similarity(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
