package storage

import (
	"errors"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestSlotRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetSlot("role", `"Buyer"`); err != nil {
		t.Fatalf("SetSlot: %v", err)
	}
	got, err := s.GetSlot("role")
	if err != nil {
		t.Fatalf("GetSlot: %v", err)
	}
	if got != `"Buyer"` {
		t.Errorf("GetSlot = %q, want %q", got, `"Buyer"`)
	}

	// Overwrite replaces the previous value.
	if err := s.SetSlot("role", `"Seller"`); err != nil {
		t.Fatalf("SetSlot overwrite: %v", err)
	}
	got, err = s.GetSlot("role")
	if err != nil {
		t.Fatalf("GetSlot after overwrite: %v", err)
	}
	if got != `"Seller"` {
		t.Errorf("GetSlot after overwrite = %q, want %q", got, `"Seller"`)
	}
}

func TestGetSlotMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetSlot("no-such-slot")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSlot on missing key returned %v, want ErrNotFound", err)
	}
}

func TestGetAllSlots(t *testing.T) {
	s := openTestStore(t)

	slots := map[string]string{
		"businesses":  `[]`,
		"ai-items":    `[{"title":"Sofa"}]`,
		"has-searched": `true`,
	}
	for k, v := range slots {
		if err := s.SetSlot(k, v); err != nil {
			t.Fatalf("SetSlot(%q): %v", k, err)
		}
	}

	got, err := s.GetAllSlots()
	if err != nil {
		t.Fatalf("GetAllSlots: %v", err)
	}
	if len(got) != len(slots) {
		t.Fatalf("GetAllSlots returned %d slots, want %d", len(got), len(slots))
	}
	for k, v := range slots {
		if got[k] != v {
			t.Errorf("slot %q = %q, want %q", k, got[k], v)
		}
	}
}

func TestDeleteSlot(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetSlot("conversations", `[]`); err != nil {
		t.Fatalf("SetSlot: %v", err)
	}
	if err := s.DeleteSlot("conversations"); err != nil {
		t.Fatalf("DeleteSlot: %v", err)
	}
	if _, err := s.GetSlot("conversations"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSlot after delete returned %v, want ErrNotFound", err)
	}

	// Deleting again is a no-op, not an error.
	if err := s.DeleteSlot("conversations"); err != nil {
		t.Errorf("DeleteSlot on missing key: %v", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s1.SetSlot("seller-profile", `{"businessName":"Joe's Kiosk"}`); err != nil {
		t.Fatalf("SetSlot: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetSlot("seller-profile")
	if err != nil {
		t.Fatalf("GetSlot after reopen: %v", err)
	}
	if got != `{"businessName":"Joe's Kiosk"}` {
		t.Errorf("GetSlot after reopen = %q", got)
	}
}
