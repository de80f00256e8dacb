package markdown

import (
	"testing"
	"time"
)

func TestFingerprint_Deterministic(t *testing.T) {
	book := testBook()
	a := FromRecord(book, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	b := FromRecord(book, time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC))

	fa, fb := a.Fingerprint(), b.Fingerprint()
	if fa != fb {
		t.Errorf("fingerprints differ across last_synced stamps: %s vs %s", fa, fb)
	}
	if len(fa) != fingerprintLength {
		t.Errorf("fingerprint length = %d, want %d", len(fa), fingerprintLength)
	}
	for _, c := range fa {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Fatalf("fingerprint %q contains non-hex character %q", fa, c)
		}
	}
}

func TestFingerprint_SensitiveToContent(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	base := FromRecord(testBook(), now).Fingerprint()

	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"title change", func(d *Document) { d.Frontmatter.Title = "Another Title" }},
		{"rating change", func(d *Document) { d.Frontmatter.Rating = intPtr(3) }},
		{"rating cleared", func(d *Document) { d.Frontmatter.Rating = nil }},
		{"status change", func(d *Document) { d.Frontmatter.Status = "currently-reading" }},
		{"shelf order", func(d *Document) { d.Frontmatter.Shelves = []string{"favorites", "sci-fi"} }},
		{"review text", func(d *Document) { d.Review = "Changed my mind on reread." }},
		{"highlight added", func(d *Document) { d.Highlights = append(d.Highlights, "One more.") }},
		{"notes cleared", func(d *Document) { d.Notes = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := FromRecord(testBook(), now)
			tt.mutate(doc)
			if got := doc.Fingerprint(); got == base {
				t.Errorf("fingerprint unchanged after mutation, still %s", got)
			}
		})
	}
}

func TestFingerprint_IgnoresBookkeeping(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := FromRecord(testBook(), now)
	base := doc.Fingerprint()

	doc.Frontmatter.LastSynced = "2030-12-31T23:59:59Z"
	if got := doc.Fingerprint(); got != base {
		t.Errorf("fingerprint changed with last_synced: %s vs %s", got, base)
	}
}

func TestFingerprint_EmptySectionsStable(t *testing.T) {
	// A document with no sections must hash the same whether highlights is
	// nil or an empty slice.
	a := &Document{Frontmatter: Frontmatter{Title: "Bare"}}
	b := &Document{Frontmatter: Frontmatter{Title: "Bare"}, Highlights: []string{}}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("nil and empty highlights hash differently")
	}
}
