package service

import (
	"context"
	"strings"
	"time"

	"signlearn/internal/database"
	"signlearn/internal/models"
	"signlearn/internal/repository"
)

// MistakeRecorder keeps one deduplicated mistake row per (user, gesture, lesson)
type MistakeRecorder struct {
	mistakes *repository.MistakeRepository
	now      func() time.Time
}

// NewMistakeRecorder creates a new mistake recorder
func NewMistakeRecorder(mistakes *repository.MistakeRepository) *MistakeRecorder {
	return &MistakeRecorder{mistakes: mistakes, now: time.Now}
}

// Record counts a wrong answer inside tx. The lesson's current module is
// stored only the first time the mistake is seen. Blank answers are ignored
// and Record reports whether anything was written.
func (r *MistakeRecorder) Record(ctx context.Context, tx *database.Tx, userID, gestureID int64, lesson *models.Lesson, answer string) (bool, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false, nil
	}

	err := r.mistakes.WithTx(tx).RecordMistake(ctx, userID, gestureID, lesson.ID, lesson.ModuleID, answer, r.now())
	if err != nil {
		return false, storageError(tx.GetDialect(), "failed to record mistake", err)
	}
	return true, nil
}
