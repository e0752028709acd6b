package identity

import "testing"

func TestBusinessIDDeterministic(t *testing.T) {
	a := BusinessID("Joe's Kiosk", "Main St")
	b := BusinessID("Joe's Kiosk", "Main St")
	if a != b {
		t.Errorf("BusinessID not deterministic: %q vs %q", a, b)
	}
	if a == "" {
		t.Error("BusinessID returned empty id for non-empty inputs")
	}
}

func TestBusinessIDNormalization(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{"Joe's Kiosk", "Main St", "joeskioskmainst"},
		{"JOE'S KIOSK", "main st.", "joeskioskmainst"},
		{"Café 254", "Moi Ave #2", "caf254moiave2"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := BusinessID(tt.name, tt.address); got != tt.want {
			t.Errorf("BusinessID(%q, %q) = %q, want %q", tt.name, tt.address, got, tt.want)
		}
	}
}

func TestItemIDPrefixes(t *testing.T) {
	ai := AIItemID("Sofa Set", "Kilimani", "Wanjiku")
	if ai != "ai-item-sofasetkilimaniwanjiku" {
		t.Errorf("AIItemID = %q", ai)
	}
	user := UserItemID("Sofa Set", "Furniture", "KES 15,000")
	if user != "user-item-sofasetfurniturekes15000" {
		t.Errorf("UserItemID = %q", user)
	}
}

// Punctuation-only differences collapse to the same id. Accepted behavior,
// not a bug: the dedup layer depends on it.
func TestPunctuationCollision(t *testing.T) {
	a := UserItemID("Sofa!", "Furniture", "KES 5,000")
	b := UserItemID("Sofa?", "Furniture", "KES 5000")
	if a != b {
		t.Errorf("expected collision, got %q vs %q", a, b)
	}
}
