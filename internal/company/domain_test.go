package company

import (
	"strings"
	"testing"
)

func TestGuessDomain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Acme", "acme.com"},
		{"legal suffix", "Acme, Inc.", "acme.com"},
		{"multiple words", "Blue Yonder LLC", "blueyonder.com"},
		{"override", "Google", "google.com"},
		{"override after suffix strip", "Meta Platforms Inc", "metaplatforms.com"},
		{"override with corp", "Microsoft Corporation", "microsoft.com"},
		{"punctuation", "A.B. Data-Labs", "abdatalabs.com"},
		{"empty", "   ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := GuessDomain(tc.in); got != tc.want {
				t.Errorf("GuessDomain(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"Acme Corp":       "A",
		"Blue Yonder":     "BY",
		"jane q public":   "JQ",
		"":                "?",
		"42 Technologies": "4T",
	}
	for in, want := range tests {
		if got := Initials(in); got != want {
			t.Errorf("Initials(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAvatarURL_Deterministic(t *testing.T) {
	a := AvatarURL("Jane Doe", 200)
	b := AvatarURL("jane doe ", 200)
	if !strings.HasPrefix(a, "https://ui-avatars.com/api/?") {
		t.Fatalf("unexpected avatar url %q", a)
	}
	if !strings.Contains(a, "size=200") {
		t.Errorf("expected size param in %q", a)
	}
	aBG := a[strings.Index(a, "background="):]
	bBG := b[strings.Index(b, "background="):]
	if aBG[:17] != bBG[:17] {
		t.Errorf("background differs for same name: %q vs %q", aBG[:17], bBG[:17])
	}
}
