package domain

import "time"

// DefaultShelfColor is assigned to shelves auto-created during a pull,
// when the markdown file names a shelf that does not exist yet.
const DefaultShelfColor = "#3498db"

// Shelf is a named, user-curated grouping of books. Membership lives in an
// ordered many-to-many association; the order is the order the shelf names
// appear in each book's frontmatter.
type Shelf struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`

	// BookCount is denormalized on read; not persisted.
	BookCount int `json:"book_count"`
}
