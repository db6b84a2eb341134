package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
)

const favouriteColumns = "id, sequence, kind, item_id, title, author, created_at, updated_at, deleted_at"

// FavouriteRepository implements models.Repository[*models.Favourite].
//
// Favourites are unique per (kind, item_id). Starring an item that was removed earlier
// restores the old row instead of inserting a duplicate.
type FavouriteRepository struct {
	db *sql.DB
}

// NewFavouriteRepository creates a new FavouriteRepository with the given database connection
func NewFavouriteRepository(db *sql.DB) *FavouriteRepository {
	return &FavouriteRepository{db: db}
}

// Create stars an item. Starring an already starred item adopts the existing row.
func (r *FavouriteRepository) Create(f *models.Favourite) error {
	existing, err := r.find(f.Kind(), f.ItemID(), true)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if existing != nil {
		return r.restore(existing, f)
	}

	sequence, err := NextSequence(r.db, "favourites")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	f.SetID(shared.GenerateID())
	f.SetSequence(sequence)
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO favourites (id, sequence, kind, item_id, title, author, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, f.ID(), f.Sequence(), string(f.Kind()), f.ItemID(), f.Title(), f.Author(), f.CreatedAt(), f.UpdatedAt())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("%w: %s %s is already a favourite", shared.ErrInvalidInput, f.Kind(), f.ItemID())
		}
		return fmt.Errorf("failed to insert favourite: %w", err)
	}
	return nil
}

// restore brings a soft-deleted row back, refreshing its title and author.
func (r *FavouriteRepository) restore(existing, f *models.Favourite) error {
	f.SetID(existing.ID())
	f.SetSequence(existing.Sequence())
	f.SetCreatedAt(existing.CreatedAt())
	f.SetDeletedAt(nil)
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	f.SetUpdatedAt(now)

	query := `UPDATE favourites SET title = ?, author = ?, updated_at = ?, deleted_at = NULL WHERE id = ?`
	if _, err := r.db.Exec(query, f.Title(), f.Author(), now, f.ID()); err != nil {
		return fmt.Errorf("failed to restore favourite: %w", err)
	}
	return nil
}

// Get retrieves a favourite by ID, excluding removed favourites
func (r *FavouriteRepository) Get(id string) (*models.Favourite, error) {
	query := "SELECT " + favouriteColumns + " FROM favourites WHERE id = ? AND deleted_at IS NULL"
	return r.scan(r.db.QueryRow(query, id))
}

// GetByItem retrieves the favourite for an item of the given kind.
func (r *FavouriteRepository) GetByItem(kind models.ItemKind, itemID string) (*models.Favourite, error) {
	return r.find(kind, itemID, false)
}

func (r *FavouriteRepository) find(kind models.ItemKind, itemID string, withDeleted bool) (*models.Favourite, error) {
	query := "SELECT " + favouriteColumns + " FROM favourites WHERE kind = ? AND item_id = ?"
	if !withDeleted {
		query += " AND deleted_at IS NULL"
	}
	return r.scan(r.db.QueryRow(query, string(kind), itemID))
}

// Update changes the title and author of a favourite
func (r *FavouriteRepository) Update(f *models.Favourite) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	f.SetUpdatedAt(now)

	result, err := r.db.Exec(
		`UPDATE favourites SET title = ?, author = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		f.Title(), f.Author(), now, f.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update favourite: %w", err)
	}
	return expectRow(result, "favourite", f.ID())
}

// Delete soft deletes a favourite by setting deleted_at
func (r *FavouriteRepository) Delete(id string) error {
	now := time.Now()
	result, err := r.db.Exec(
		`UPDATE favourites SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete favourite: %w", err)
	}
	return expectRow(result, "favourite", id)
}

// DeleteByItem removes the favourite for an item of the given kind.
func (r *FavouriteRepository) DeleteByItem(kind models.ItemKind, itemID string) error {
	f, err := r.GetByItem(kind, itemID)
	if err != nil {
		return err
	}
	return r.Delete(f.ID())
}

// List retrieves favourites in the order they were starred.
//
// Supported criteria: "kind" (models.ItemKind or string).
func (r *FavouriteRepository) List(criteria map[string]any) ([]*models.Favourite, error) {
	query := "SELECT " + favouriteColumns + " FROM favourites WHERE deleted_at IS NULL"
	args := []any{}

	if kind, ok := criteria["kind"]; ok {
		query += " AND kind = ?"
		args = append(args, fmt.Sprint(kind))
	}
	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list favourites: %w", err)
	}
	defer rows.Close()

	favourites := []*models.Favourite{}
	for rows.Next() {
		f, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		favourites = append(favourites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favourites: %w", err)
	}
	return favourites, nil
}

// scan reads one favourite from a [sql.Row] or [sql.Rows]
func (r *FavouriteRepository) scan(s scanner) (*models.Favourite, error) {
	var (
		id        string
		sequence  int
		kind      string
		itemID    string
		title     string
		author    string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := s.Scan(&id, &sequence, &kind, &itemID, &title, &author, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: favourite", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan favourite: %w", err)
	}

	f := models.NewFavourite(sequence, models.ItemKind(kind), itemID, title, author)
	f.SetID(id)
	f.SetCreatedAt(createdAt)
	f.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		f.SetDeletedAt(&deletedAt.Time)
	}
	return f, nil
}
