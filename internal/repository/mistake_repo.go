package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"signlearn/internal/database"
	"signlearn/internal/models"
)

// MistakeRepository handles the deduplicated record of wrong answers
type MistakeRepository struct {
	db database.DBTX
}

// NewMistakeRepository creates a new mistake repository
func NewMistakeRepository(db database.DBTX) *MistakeRepository {
	return &MistakeRepository{db: db}
}

// WithTx returns a copy of the repository that runs its queries on tx
func (r *MistakeRepository) WithTx(tx *database.Tx) *MistakeRepository {
	return &MistakeRepository{db: tx}
}

// RecordMistake counts a wrong answer for (user, gesture, lesson).
// moduleID is only stored when the mistake is first seen.
func (r *MistakeRepository) RecordMistake(ctx context.Context, userID, gestureID, lessonID, moduleID int64, answer string, at time.Time) error {
	query := r.db.GetDialect().UpsertMistake()
	if _, err := r.db.ExecContext(ctx, query, userID, gestureID, lessonID, moduleID, answer, at); err != nil {
		return fmt.Errorf("failed to record mistake: %w", err)
	}
	return nil
}

// GetMistake retrieves the mistake record for a gesture in a lesson
func (r *MistakeRepository) GetMistake(ctx context.Context, userID, gestureID, lessonID int64) (*models.UserMistake, error) {
	mistake := &models.UserMistake{}
	query := `
		SELECT user_id, gesture_id, lesson_id, module_id, last_incorrect_answer, mistake_count, last_mistake_at
		FROM user_mistakes
		WHERE user_id = ? AND gesture_id = ? AND lesson_id = ?
	`
	err := r.db.GetContext(ctx, mistake, query, userID, gestureID, lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mistake: %w", err)
	}
	return mistake, nil
}

// GetUserMistakes retrieves a user's mistakes, most frequent first.
// A moduleID of 0 returns mistakes from every module.
func (r *MistakeRepository) GetUserMistakes(ctx context.Context, userID, moduleID int64) ([]models.MistakeWithGesture, error) {
	query := `
		SELECT m.user_id, m.gesture_id, m.lesson_id, m.module_id, m.last_incorrect_answer,
			m.mistake_count, m.last_mistake_at, g.word, l.title AS lesson_title
		FROM user_mistakes m
		JOIN gestures g ON g.id = m.gesture_id
		JOIN lessons l ON l.id = m.lesson_id
		WHERE m.user_id = ?
	`
	args := []interface{}{userID}
	if moduleID != 0 {
		query += " AND m.module_id = ?"
		args = append(args, moduleID)
	}
	query += " ORDER BY m.mistake_count DESC, m.last_mistake_at DESC"

	var mistakes []models.MistakeWithGesture
	if err := r.db.SelectContext(ctx, &mistakes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query mistakes: %w", err)
	}
	return mistakes, nil
}
