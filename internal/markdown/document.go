// Package markdown defines the on-disk document model for catalog books and
// its serialization contract. One markdown file per book: a YAML frontmatter
// block with the structured metadata, followed by up to three optional
// free-text sections (review, highlights, private notes). The files are the
// authoritative store; everything here is built to round-trip losslessly.
package markdown

import (
	"strings"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

// Time layouts used in frontmatter. Timestamps carry the full instant,
// reading dates are calendar dates.
const (
	timestampLayout = time.RFC3339
	dateLayout      = "2006-01-02"
)

// Frontmatter is the structured metadata block of a book file. Field order
// here is the order keys appear on disk. Optional fields marshal to nothing
// when unset; a key is never written with an empty value.
//
// last_synced is sync bookkeeping: written on every export so a human
// reading the file can see when it was generated, but excluded from the
// content fingerprint.
type Frontmatter struct {
	Title                   string   `yaml:"title"`
	Author                  string   `yaml:"author,omitempty"`
	AdditionalAuthors       string   `yaml:"additional_authors,omitempty"`
	ISBN                    string   `yaml:"isbn,omitempty"`
	ISBN13                  string   `yaml:"isbn13,omitempty"`
	Publisher               string   `yaml:"publisher,omitempty"`
	Binding                 string   `yaml:"binding,omitempty"`
	Pages                   int      `yaml:"pages,omitempty"`
	YearPublished           int      `yaml:"year_published,omitempty"`
	OriginalPublicationYear int      `yaml:"original_publication_year,omitempty"`
	GoodreadsBookID         string   `yaml:"goodreads_book_id,omitempty"`
	CoverImageURL           string   `yaml:"cover_image_url,omitempty"`
	DateAdded               string   `yaml:"date_added,omitempty"`
	Status                  string   `yaml:"status,omitempty"`
	DateStarted             string   `yaml:"date_started,omitempty"`
	DateFinished            string   `yaml:"date_finished,omitempty"`
	ReadCount               int      `yaml:"read_count,omitempty"`
	Rating                  *int     `yaml:"rating,omitempty"`
	IsSpoiler               bool     `yaml:"is_spoiler,omitempty"`
	Shelves                 []string `yaml:"shelves,omitempty"`
	LastSynced              string   `yaml:"last_synced,omitempty"`
}

// Document is the transient in-memory form of one book file: frontmatter
// plus the three optional body sections. Documents are built per sync
// operation from either a catalog record or a parsed file, and discarded
// after use.
type Document struct {
	Frontmatter Frontmatter

	// Review and Notes are trimmed prose; empty string means the section
	// is absent. Highlights is an ordered list of trimmed, non-empty
	// strings; nil or empty means the section is absent.
	Review     string
	Highlights []string
	Notes      string
}

// FromRecord builds a Document from a catalog record. now becomes the
// frontmatter's last_synced stamp. The conversion is lossless for all
// structured fields; absent sub-records yield absent sections.
func FromRecord(book *domain.Book, now time.Time) *Document {
	fm := Frontmatter{
		Title:                   book.Title,
		Author:                  book.Author,
		AdditionalAuthors:       book.AdditionalAuthors,
		ISBN:                    book.ISBN10,
		ISBN13:                  book.ISBN13,
		Publisher:               book.Publisher,
		Binding:                 book.Binding,
		Pages:                   book.Pages,
		YearPublished:           book.YearPublished,
		OriginalPublicationYear: book.OriginalPublicationYear,
		GoodreadsBookID:         book.GoodreadsID,
		CoverImageURL:           book.CoverImageURL,
		Shelves:                 book.Shelves,
		LastSynced:              now.UTC().Format(timestampLayout),
	}

	if !book.DateAdded.IsZero() {
		fm.DateAdded = book.DateAdded.UTC().Format(timestampLayout)
	}

	if r := book.Reading; r != nil {
		fm.Status = string(r.Status)
		fm.ReadCount = r.ReadCount
		if r.DateStarted != nil {
			fm.DateStarted = r.DateStarted.Format(dateLayout)
		}
		if r.DateFinished != nil {
			fm.DateFinished = r.DateFinished.Format(dateLayout)
		}
	}

	doc := &Document{Frontmatter: fm}

	if rv := book.Review; rv != nil {
		doc.Frontmatter.Rating = rv.Rating
		doc.Frontmatter.IsSpoiler = rv.IsSpoiler
		doc.Review = strings.TrimSpace(rv.Text)
		doc.Notes = strings.TrimSpace(rv.Notes)
		doc.Highlights = cleanHighlights(rv.Highlights)
	}

	return doc
}

// ToRecord converts the document to a transient catalog record with its
// sub-records populated. The record has no ID and no sync bookkeeping; the
// caller resolves identity and persists it.
func (d *Document) ToRecord() *domain.Book {
	fm := d.Frontmatter

	book := &domain.Book{
		Title:                   fm.Title,
		Author:                  fm.Author,
		AdditionalAuthors:       fm.AdditionalAuthors,
		ISBN10:                  fm.ISBN,
		ISBN13:                  fm.ISBN13,
		Publisher:               fm.Publisher,
		Binding:                 fm.Binding,
		Pages:                   fm.Pages,
		YearPublished:           fm.YearPublished,
		OriginalPublicationYear: fm.OriginalPublicationYear,
		GoodreadsID:             fm.GoodreadsBookID,
		CoverImageURL:           fm.CoverImageURL,
		Shelves:                 fm.Shelves,
	}
	if book.Title == "" {
		book.Title = "Untitled"
	}

	if t, ok := parseTimestamp(fm.DateAdded); ok {
		book.DateAdded = t
	}

	reading := domain.NewReadingRecord()
	if fm.Status != "" {
		reading.Status = domain.ReadingStatus(fm.Status)
	}
	if fm.ReadCount > 0 {
		reading.ReadCount = fm.ReadCount
	}
	if t, ok := parseDate(fm.DateStarted); ok {
		reading.DateStarted = &t
	}
	if t, ok := parseDate(fm.DateFinished); ok {
		reading.DateFinished = &t
	}
	book.Reading = reading

	review := &domain.Review{
		Rating:     fm.Rating,
		IsSpoiler:  fm.IsSpoiler,
		Text:       d.Review,
		Notes:      d.Notes,
		Highlights: d.Highlights,
	}
	if !review.IsEmpty() {
		book.Review = review
	}

	return book
}

// contentMap returns the document's content fields as a flat map, the form
// the fingerprint is computed over. Sync bookkeeping (last_synced) is
// excluded; zero-valued optionals are excluded to match what serialization
// writes. The three body sections ride along under synthetic keys so any
// change to them changes the fingerprint.
func (d *Document) contentMap() map[string]any {
	fm := d.Frontmatter
	m := map[string]any{
		"title": fm.Title,
	}

	putString := func(key, val string) {
		if val != "" {
			m[key] = val
		}
	}
	putInt := func(key string, val int) {
		if val != 0 {
			m[key] = val
		}
	}

	putString("author", fm.Author)
	putString("additional_authors", fm.AdditionalAuthors)
	putString("isbn", fm.ISBN)
	putString("isbn13", fm.ISBN13)
	putString("publisher", fm.Publisher)
	putString("binding", fm.Binding)
	putInt("pages", fm.Pages)
	putInt("year_published", fm.YearPublished)
	putInt("original_publication_year", fm.OriginalPublicationYear)
	putString("goodreads_book_id", fm.GoodreadsBookID)
	putString("cover_image_url", fm.CoverImageURL)
	putString("date_added", fm.DateAdded)
	putString("status", fm.Status)
	putString("date_started", fm.DateStarted)
	putString("date_finished", fm.DateFinished)
	putInt("read_count", fm.ReadCount)
	if fm.Rating != nil {
		m["rating"] = *fm.Rating
	}
	if fm.IsSpoiler {
		m["is_spoiler"] = true
	}
	if len(fm.Shelves) > 0 {
		m["shelves"] = fm.Shelves
	}

	m["_review_text"] = d.Review
	m["_private_notes"] = d.Notes
	if len(d.Highlights) > 0 {
		m["_highlights"] = d.Highlights
	} else {
		m["_highlights"] = []string{}
	}

	return m
}

// cleanHighlights trims each entry and drops blanks, preserving order.
func cleanHighlights(highlights []string) []string {
	var out []string
	for _, h := range highlights {
		h = strings.TrimSpace(h)
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return t, true
	}
	// Tolerate date-only values written by hand.
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true
	}
	// Tolerate a full timestamp; keep the calendar date.
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return t.Truncate(24 * time.Hour), true
	}
	return time.Time{}, false
}
