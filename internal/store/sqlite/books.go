package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, created_at, updated_at, title, author, additional_authors,
	isbn10, isbn13, publisher, binding, pages, year_published,
	original_publication_year, goodreads_id, cover_image_url, date_added,
	last_synced_at, sync_hash`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
// Sub-records and shelves are loaded separately.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book

	var (
		createdAt     string
		updatedAt     string
		dateAdded     string
		author        sql.NullString
		addlAuthors   sql.NullString
		isbn10        sql.NullString
		isbn13        sql.NullString
		publisher     sql.NullString
		binding       sql.NullString
		pages         sql.NullInt64
		yearPublished sql.NullInt64
		origPubYear   sql.NullInt64
		goodreadsID   sql.NullString
		coverImageURL sql.NullString
		lastSyncedAt  sql.NullString
		syncHash      sql.NullString
	)

	err := scanner.Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
		&b.Title,
		&author,
		&addlAuthors,
		&isbn10,
		&isbn13,
		&publisher,
		&binding,
		&pages,
		&yearPublished,
		&origPubYear,
		&goodreadsID,
		&coverImageURL,
		&dateAdded,
		&lastSyncedAt,
		&syncHash,
	)
	if err != nil {
		return nil, err
	}

	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if b.DateAdded, err = parseTime(dateAdded); err != nil {
		return nil, err
	}
	if b.LastSyncedAt, err = parseNullableTime(lastSyncedAt); err != nil {
		return nil, err
	}

	b.Author = author.String
	b.AdditionalAuthors = addlAuthors.String
	b.ISBN10 = isbn10.String
	b.ISBN13 = isbn13.String
	b.Publisher = publisher.String
	b.Binding = binding.String
	b.Pages = int(pages.Int64)
	b.YearPublished = int(yearPublished.Int64)
	b.OriginalPublicationYear = int(origPubYear.Int64)
	b.GoodreadsID = goodreadsID.String
	b.CoverImageURL = coverImageURL.String
	b.SyncHash = syncHash.String

	return &b, nil
}

// hydrateBook loads a book's sub-records and ordered shelf names.
func (s *Store) hydrateBook(ctx context.Context, b *domain.Book) error {
	row := s.db.QueryRowContext(ctx, `
		SELECT status, date_started, date_finished, read_count
		FROM reading_records WHERE book_id = ?`, b.ID)

	var (
		status       string
		dateStarted  sql.NullString
		dateFinished sql.NullString
		readCount    int
	)
	err := row.Scan(&status, &dateStarted, &dateFinished, &readCount)
	switch {
	case err == sql.ErrNoRows:
		// No reading record.
	case err != nil:
		return fmt.Errorf("load reading record: %w", err)
	default:
		r := &domain.ReadingRecord{Status: domain.ReadingStatus(status), ReadCount: readCount}
		if r.DateStarted, err = parseNullableTime(dateStarted); err != nil {
			return err
		}
		if r.DateFinished, err = parseNullableTime(dateFinished); err != nil {
			return err
		}
		b.Reading = r
	}

	row = s.db.QueryRowContext(ctx, `
		SELECT rating, review_text, private_notes, highlights, is_spoiler
		FROM reviews WHERE book_id = ?`, b.ID)

	var (
		rating     sql.NullInt64
		text       sql.NullString
		notes      sql.NullString
		highlights sql.NullString
		isSpoiler  bool
	)
	err = row.Scan(&rating, &text, &notes, &highlights, &isSpoiler)
	switch {
	case err == sql.ErrNoRows:
		// No review.
	case err != nil:
		return fmt.Errorf("load review: %w", err)
	default:
		rv := &domain.Review{
			Text:      text.String,
			Notes:     notes.String,
			IsSpoiler: isSpoiler,
		}
		if rating.Valid {
			v := int(rating.Int64)
			rv.Rating = &v
		}
		if highlights.Valid && highlights.String != "" {
			if err := json.Unmarshal([]byte(highlights.String), &rv.Highlights); err != nil {
				return fmt.Errorf("decode highlights: %w", err)
			}
		}
		b.Review = rv
	}

	shelves, err := s.loadBookShelfNames(ctx, b.ID)
	if err != nil {
		return err
	}
	b.Shelves = shelves
	return nil
}

// loadBookShelfNames loads the ordered shelf names for a book.
func (s *Store) loadBookShelfNames(ctx context.Context, bookID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sh.name
		FROM book_shelves bs
		JOIN shelves sh ON sh.id = bs.shelf_id
		WHERE bs.book_id = ?
		ORDER BY bs.sort_order`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CreateBook inserts a book with its sub-records and shelf memberships.
// Returns store.ErrAlreadyExists on duplicate ID.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO books (
			id, created_at, updated_at, title, author, additional_authors,
			isbn10, isbn13, publisher, binding, pages, year_published,
			original_publication_year, goodreads_id, cover_image_url,
			date_added, last_synced_at, sync_hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		book.Title,
		nullString(book.Author),
		nullString(book.AdditionalAuthors),
		nullString(book.ISBN10),
		nullString(book.ISBN13),
		nullString(book.Publisher),
		nullString(book.Binding),
		nullInt(book.Pages),
		nullInt(book.YearPublished),
		nullInt(book.OriginalPublicationYear),
		nullString(book.GoodreadsID),
		nullString(book.CoverImageURL),
		formatTime(book.DateAdded),
		nullTimeString(book.LastSyncedAt),
		nullString(book.SyncHash),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	if err := upsertSubRecords(ctx, tx, book); err != nil {
		return err
	}
	if err := s.replaceShelvesTx(ctx, tx, book.ID, book.Shelves); err != nil {
		return err
	}

	return tx.Commit()
}

// GetBook retrieves a book by ID with sub-records and shelves loaded.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.getBookWhere(ctx, `id = ?`, id)
}

// GetBookByISBN13 retrieves a book by its ISBN-13.
func (s *Store) GetBookByISBN13(ctx context.Context, isbn string) (*domain.Book, error) {
	return s.getBookWhere(ctx, `isbn13 = ?`, isbn)
}

// GetBookByISBN10 retrieves a book by its ISBN-10.
func (s *Store) GetBookByISBN10(ctx context.Context, isbn string) (*domain.Book, error) {
	return s.getBookWhere(ctx, `isbn10 = ?`, isbn)
}

func (s *Store) getBookWhere(ctx context.Context, where string, arg any) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE `+where, arg)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.hydrateBook(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBooks returns all books ordered by title, fully hydrated.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY title COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range books {
		if err := s.hydrateBook(ctx, b); err != nil {
			return nil, fmt.Errorf("hydrate book %s: %w", b.ID, err)
		}
	}
	return books, nil
}

// UpdateBookContent updates a book's content fields and replaces its
// sub-records. Shelf memberships and sync bookkeeping are left untouched.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) UpdateBookContent(ctx context.Context, book *domain.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE books SET
			updated_at = ?,
			title = ?,
			author = ?,
			additional_authors = ?,
			isbn10 = ?,
			isbn13 = ?,
			publisher = ?,
			binding = ?,
			pages = ?,
			year_published = ?,
			original_publication_year = ?,
			goodreads_id = ?,
			cover_image_url = ?
		WHERE id = ?`,
		formatTime(book.UpdatedAt),
		book.Title,
		nullString(book.Author),
		nullString(book.AdditionalAuthors),
		nullString(book.ISBN10),
		nullString(book.ISBN13),
		nullString(book.Publisher),
		nullString(book.Binding),
		nullInt(book.Pages),
		nullInt(book.YearPublished),
		nullInt(book.OriginalPublicationYear),
		nullString(book.GoodreadsID),
		nullString(book.CoverImageURL),
		book.ID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	// Replace sub-records: delete existing, then re-insert from the book.
	if _, err := tx.ExecContext(ctx, `DELETE FROM reading_records WHERE book_id = ?`, book.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE book_id = ?`, book.ID); err != nil {
		return err
	}
	if err := upsertSubRecords(ctx, tx, book); err != nil {
		return err
	}

	return tx.Commit()
}

// upsertSubRecords inserts the book's reading record and review rows.
// Callers must have cleared any existing rows first.
func upsertSubRecords(ctx context.Context, tx *sql.Tx, book *domain.Book) error {
	if r := book.Reading; r != nil {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reading_records (book_id, status, date_started, date_finished, read_count)
			VALUES (?, ?, ?, ?, ?)`,
			book.ID,
			string(r.Status),
			nullTimeString(r.DateStarted),
			nullTimeString(r.DateFinished),
			r.ReadCount,
		)
		if err != nil {
			return fmt.Errorf("insert reading record: %w", err)
		}
	}

	if rv := book.Review; rv != nil && !rv.IsEmpty() {
		var highlights sql.NullString
		if len(rv.Highlights) > 0 {
			data, err := json.Marshal(rv.Highlights)
			if err != nil {
				return fmt.Errorf("encode highlights: %w", err)
			}
			highlights = sql.NullString{String: string(data), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reviews (book_id, rating, review_text, private_notes, highlights, is_spoiler)
			VALUES (?, ?, ?, ?, ?, ?)`,
			book.ID,
			nullIntPtr(rv.Rating),
			nullString(rv.Text),
			nullString(rv.Notes),
			highlights,
			rv.IsSpoiler,
		)
		if err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
	}

	return nil
}

// ReplaceBookShelves replaces a book's shelf memberships with the given
// ordered names, creating unknown shelves on the fly.
func (s *Store) ReplaceBookShelves(ctx context.Context, bookID string, shelves []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.replaceShelvesTx(ctx, tx, bookID, shelves); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) replaceShelvesTx(ctx context.Context, tx *sql.Tx, bookID string, shelves []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM book_shelves WHERE book_id = ?`, bookID); err != nil {
		return err
	}

	for i, name := range shelves {
		shelfID, err := s.ensureShelfTx(ctx, tx, name)
		if err != nil {
			return fmt.Errorf("ensure shelf %q: %w", name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO book_shelves (book_id, shelf_id, sort_order)
			VALUES (?, ?, ?)`,
			bookID, shelfID, i,
		)
		if err != nil {
			return fmt.Errorf("insert book_shelf %q: %w", name, err)
		}
	}
	return nil
}

// UpdateSyncStatus records a successful sync for a book.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) UpdateSyncStatus(ctx context.Context, bookID, hash string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE books SET sync_hash = ?, last_synced_at = ? WHERE id = ?`,
		hash, formatTime(at), bookID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteBook performs a hard delete on a book. The ON DELETE CASCADE on
// reading_records, reviews, and book_shelves removes dependent rows.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
