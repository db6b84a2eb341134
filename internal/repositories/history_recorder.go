package repositories

import (
	"fmt"

	"github.com/sudipghimire533/ytui-music-sub000/internal/models"
)

// HistoryRecorder implements tasks.HistoryRecorder using HistoryRepository.
type HistoryRecorder struct {
	repo *HistoryRepository
}

// NewHistoryRecorder creates a new HistoryRecorder with the given repository
func NewHistoryRecorder(repo *HistoryRepository) *HistoryRecorder {
	return &HistoryRecorder{repo: repo}
}

// RecordPlay records that item started playing.
func (a *HistoryRecorder) RecordPlay(item models.MusicItem) error {
	if _, err := a.repo.Record(item); err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}
