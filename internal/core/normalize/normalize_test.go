package normalize

import "testing"

func TestFold_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{
			name: "identity ascii",
			in:   "milk 1,99",
			out:  "milk 1,99",
		},
		{
			name: "case fold",
			in:   "GESAMTBETRAG",
			out:  "gesamtbetrag",
		},
		{
			name: "strip diacritics polish",
			in:   "Żabka Zażółć",
			out:  "zabka zazołc",
		},
		{
			name: "strip diacritics german",
			in:   "SÜSSWAREN",
			out:  "susswaren",
		},
		{
			name: "collapse whitespace",
			in:   "ZU   ZAHLEN\t10,55",
			out:  "zu zahlen 10,55",
		},
		{
			name: "leading trailing space",
			in:   "  PFAND 0,25  ",
			out:  "pfand 0,25",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Fold(tc.in); got != tc.out {
				t.Fatalf("Fold(%q) = %q, want %q", tc.in, got, tc.out)
			}
		})
	}
}

func TestContainsAnyFold(t *testing.T) {
	got := ContainsAnyFold("SUMME EUR 10,55", []string{"zu zahlen", "summe"})
	if got != "summe" {
		t.Fatalf("expected keyword hit %q, got %q", "summe", got)
	}
	if ContainsAnyFold("BANANEN 1,99", []string{"summe"}) != "" {
		t.Fatalf("expected no hit")
	}
}
