package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/id"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// shelfColumns is the ordered list of columns selected in shelf queries.
// Must match the scan order in scanShelf. book_count is denormalized at
// query time.
const shelfColumns = `sh.id, sh.created_at, sh.name, sh.color,
	(SELECT COUNT(*) FROM book_shelves bs WHERE bs.shelf_id = sh.id) AS book_count`

// scanShelf scans a sql.Row (or sql.Rows via its Scan method) into a domain.Shelf.
func scanShelf(scanner interface{ Scan(dest ...any) error }) (*domain.Shelf, error) {
	var sh domain.Shelf
	var createdAt string

	err := scanner.Scan(&sh.ID, &createdAt, &sh.Name, &sh.Color, &sh.BookCount)
	if err != nil {
		return nil, err
	}

	sh.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// ListShelves returns all shelves ordered by name.
func (s *Store) ListShelves(ctx context.Context) ([]*domain.Shelf, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shelfColumns+` FROM shelves sh ORDER BY sh.name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shelves []*domain.Shelf
	for rows.Next() {
		sh, err := scanShelf(rows)
		if err != nil {
			return nil, err
		}
		shelves = append(shelves, sh)
	}
	return shelves, rows.Err()
}

// GetShelf retrieves a shelf by ID.
// Returns store.ErrNotFound if the shelf does not exist.
func (s *Store) GetShelf(ctx context.Context, shelfID string) (*domain.Shelf, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shelfColumns+` FROM shelves sh WHERE sh.id = ?`, shelfID)

	sh, err := scanShelf(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	return sh, err
}

// GetShelfByName retrieves a shelf by its unique name.
// Returns store.ErrNotFound if the shelf does not exist.
func (s *Store) GetShelfByName(ctx context.Context, name string) (*domain.Shelf, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shelfColumns+` FROM shelves sh WHERE sh.name = ?`, name)

	sh, err := scanShelf(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	return sh, err
}

// CreateShelf inserts a new shelf.
// Returns store.ErrAlreadyExists on duplicate ID or name.
func (s *Store) CreateShelf(ctx context.Context, shelf *domain.Shelf) error {
	if shelf.Color == "" {
		shelf.Color = domain.DefaultShelfColor
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shelves (id, created_at, name, color)
		VALUES (?, ?, ?, ?)`,
		shelf.ID,
		formatTime(shelf.CreatedAt),
		shelf.Name,
		shelf.Color,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// DeleteShelf performs a hard delete on a shelf. The ON DELETE CASCADE on
// book_shelves removes book memberships; the books themselves are kept.
// Returns store.ErrNotFound if the shelf does not exist.
func (s *Store) DeleteShelf(ctx context.Context, shelfID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM shelves WHERE id = ?`, shelfID)
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

// ensureShelfTx finds a shelf by name within a transaction, creating it
// with the default color when missing, and returns its ID.
func (s *Store) ensureShelfTx(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	var shelfID string
	err := tx.QueryRowContext(ctx, `SELECT id FROM shelves WHERE name = ?`, name).Scan(&shelfID)
	if err == nil {
		return shelfID, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	shelfID, err = id.Generate("shelf")
	if err != nil {
		return "", err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO shelves (id, created_at, name, color)
		VALUES (?, ?, ?, ?)`,
		shelfID,
		formatTime(time.Now()),
		name,
		domain.DefaultShelfColor,
	)
	if err != nil {
		return "", err
	}
	return shelfID, nil
}
