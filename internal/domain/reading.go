package domain

import "time"

// ReadingStatus is the reading state of a book.
type ReadingStatus string

// Reading statuses. These are stored verbatim in markdown frontmatter, so
// the hyphenated forms are part of the on-disk format.
const (
	StatusToRead           ReadingStatus = "to-read"
	StatusCurrentlyReading ReadingStatus = "currently-reading"
	StatusRead             ReadingStatus = "read"
)

// Valid reports whether s is a known reading status.
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusToRead, StatusCurrentlyReading, StatusRead:
		return true
	}
	return false
}

// ReadingRecord tracks when and how often a book was read.
// At most one per book.
type ReadingRecord struct {
	Status       ReadingStatus `json:"status"`
	DateStarted  *time.Time    `json:"date_started,omitempty"`
	DateFinished *time.Time    `json:"date_finished,omitempty"`
	ReadCount    int           `json:"read_count"`
}

// NewReadingRecord returns a reading record with defaults applied.
func NewReadingRecord() *ReadingRecord {
	return &ReadingRecord{
		Status:    StatusToRead,
		ReadCount: 1,
	}
}
