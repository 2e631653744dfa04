package validators

import "testing"

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "trims and collapses", input: "  Cairo \t  clinic  ", max: 0, want: "Cairo clinic"},
		{name: "caps ascii", input: "pharmacy", max: 5, want: "pharm"},
		{name: "keeps runes whole", input: "صيدلية النور", max: 6, want: "صيدلية"},
		{name: "under limit untouched", input: "ok", max: 10, want: "ok"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeString(tc.input, tc.max); got != tc.want {
				t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tc.input, tc.max, got, tc.want)
			}
		})
	}
}
