// Package domain contains the core business entities for the Inkwell book catalog.
package domain

import "time"

// Book represents a book in the catalog. The database row is a queryable
// cache; the book's markdown file is the source of truth. LastSyncedAt and
// SyncHash are sync bookkeeping, not content: they record when and in what
// state the two stores last agreed.
type Book struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`

	Title                   string `json:"title"`
	Author                  string `json:"author,omitempty"`
	AdditionalAuthors       string `json:"additional_authors,omitempty"`
	ISBN10                  string `json:"isbn10,omitempty"`
	ISBN13                  string `json:"isbn13,omitempty"`
	Publisher               string `json:"publisher,omitempty"`
	Binding                 string `json:"binding,omitempty"`
	Pages                   int    `json:"pages,omitempty"`
	YearPublished           int    `json:"year_published,omitempty"`
	OriginalPublicationYear int    `json:"original_publication_year,omitempty"`
	GoodreadsID             string `json:"goodreads_id,omitempty"`
	CoverImageURL           string `json:"cover_image_url,omitempty"`

	DateAdded time.Time `json:"date_added"`

	// Sync bookkeeping. Nil/empty until the first successful sync.
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	SyncHash     string     `json:"sync_hash,omitempty"`

	// Optional sub-records. Nil means the book has no reading record or
	// review yet; the markdown file omits the corresponding data.
	Reading *ReadingRecord `json:"reading,omitempty"`
	Review  *Review        `json:"review,omitempty"`

	// Ordered shelf names this book belongs to.
	Shelves []string `json:"shelves,omitempty"`
}

// Identifier returns the book's strongest identifier for sync identity
// resolution: ISBN-13 first, then ISBN-10, empty when the book has neither.
func (b *Book) Identifier() string {
	if b.ISBN13 != "" {
		return b.ISBN13
	}
	return b.ISBN10
}

// HasIdentifier reports whether the book carries any ISBN at all.
// Books without one always create a fresh record on pull.
func (b *Book) HasIdentifier() bool {
	return b.ISBN13 != "" || b.ISBN10 != ""
}

// Touch updates the UpdatedAt timestamp to the current time.
func (b *Book) Touch() {
	b.UpdatedAt = time.Now()
}

// InitTimestamps sets CreatedAt, UpdatedAt, and DateAdded to now.
// Call this when creating a new book.
func (b *Book) InitTimestamps() {
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.DateAdded.IsZero() {
		b.DateAdded = now
	}
}

// MarkSynced records a successful sync in either direction.
func (b *Book) MarkSynced(hash string, at time.Time) {
	b.SyncHash = hash
	b.LastSyncedAt = &at
}
