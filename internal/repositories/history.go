package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
	"github.com/sudipghimire533/ytui-music-sub000/internal/shared"
)

// HistoryRepository stores one row per play. History is append-only; Clear wipes it.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record appends a play of item to the history.
func (r *HistoryRepository) Record(item models.MusicItem) (*models.HistoryEntry, error) {
	if item.ID == "" {
		return nil, fmt.Errorf("%w: history item id is required", shared.ErrInvalidInput)
	}

	sequence, err := NextSequence(r.db, "history")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	entry := &models.HistoryEntry{
		ID:       shared.GenerateID(),
		Sequence: sequence,
		Item:     item,
		PlayedAt: time.Now(),
	}

	query := `
		INSERT INTO history (id, sequence, item_id, title, author, duration, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, entry.ID, entry.Sequence, item.ID, item.Title, item.Author, item.Duration, entry.PlayedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert history entry: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first. A non-positive limit returns everything.
func (r *HistoryRepository) Recent(limit int) ([]models.HistoryEntry, error) {
	query := `
		SELECT id, sequence, item_id, title, author, duration, played_at
		FROM history
		ORDER BY sequence DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Item.ID, &e.Item.Title, &e.Item.Author, &e.Item.Duration, &e.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return entries, nil
}

// Clear removes every history entry and returns how many were removed.
func (r *HistoryRepository) Clear() (int64, error) {
	result, err := r.db.Exec("DELETE FROM history")
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return result.RowsAffected()
}
