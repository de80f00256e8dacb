package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/id"
	"github.com/inkwellapp/inkwell-server/internal/store"
	"github.com/inkwellapp/inkwell-server/internal/validation"
)

// ShelfService orchestrates shelf operations.
type ShelfService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewShelfService creates a new shelf service.
func NewShelfService(st store.Store, validator *validation.Validator, logger *slog.Logger) *ShelfService {
	return &ShelfService{
		store:     st,
		validator: validator,
		logger:    logger,
	}
}

// ShelfInput carries the writable fields of a shelf.
type ShelfInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// CreateShelf creates a new shelf. An omitted color gets the default.
func (s *ShelfService) CreateShelf(ctx context.Context, input *ShelfInput) (*domain.Shelf, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	shelfID, err := id.Generate("shelf")
	if err != nil {
		return nil, fmt.Errorf("generate shelf ID: %w", err)
	}

	shelf := &domain.Shelf{
		ID:        shelfID,
		CreatedAt: time.Now(),
		Name:      input.Name,
		Color:     input.Color,
	}
	if shelf.Color == "" {
		shelf.Color = domain.DefaultShelfColor
	}

	if err := s.store.CreateShelf(ctx, shelf); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists(fmt.Sprintf("shelf %q already exists", input.Name))
		}
		return nil, fmt.Errorf("create shelf: %w", err)
	}

	s.logger.Info("shelf created", "shelf_id", shelfID, "name", shelf.Name)
	return shelf, nil
}

// GetShelf retrieves a shelf by ID.
func (s *ShelfService) GetShelf(ctx context.Context, shelfID string) (*domain.Shelf, error) {
	shelf, err := s.store.GetShelf(ctx, shelfID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("shelf %s not found", shelfID)
		}
		return nil, err
	}
	return shelf, nil
}

// ListShelves returns all shelves ordered by name.
func (s *ShelfService) ListShelves(ctx context.Context) ([]*domain.Shelf, error) {
	return s.store.ListShelves(ctx)
}

// DeleteShelf removes a shelf. Books on it are kept; only the memberships
// go away.
func (s *ShelfService) DeleteShelf(ctx context.Context, shelfID string) error {
	if err := s.store.DeleteShelf(ctx, shelfID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("shelf %s not found", shelfID)
		}
		return fmt.Errorf("delete shelf: %w", err)
	}

	s.logger.Info("shelf deleted", "shelf_id", shelfID)
	return nil
}
