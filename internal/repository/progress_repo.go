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

// ModuleCompletion holds the lesson-completion counts used to derive a
// module's completion percentage.
type ModuleCompletion struct {
	TotalLessons      int  `db:"total_lessons"`
	CompletedLessons  int  `db:"completed_lessons"`
	FinalReviewPassed bool `db:"final_review_passed"`
}

// ProgressRepository handles the per-lesson and per-module progress ledger
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// WithTx returns a copy of the repository that runs its queries on tx
func (r *ProgressRepository) WithTx(tx *database.Tx) *ProgressRepository {
	return &ProgressRepository{db: tx}
}

// GetLessonRecord retrieves the user's record for a lesson
func (r *ProgressRepository) GetLessonRecord(ctx context.Context, userID, lessonID int64) (*models.UserLessonRecord, error) {
	record := &models.UserLessonRecord{}
	query := `
		SELECT user_id, lesson_id, completed_at, correct_answers, total_answers
		FROM user_lessons
		WHERE user_id = ? AND lesson_id = ?
	`
	err := r.db.GetContext(ctx, record, query, userID, lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson record: %w", err)
	}
	return record, nil
}

// GetUserLessonRecords retrieves every lesson record of a user
func (r *ProgressRepository) GetUserLessonRecords(ctx context.Context, userID int64) ([]models.UserLessonRecord, error) {
	var records []models.UserLessonRecord
	query := `
		SELECT user_id, lesson_id, completed_at, correct_answers, total_answers
		FROM user_lessons
		WHERE user_id = ?
	`
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("failed to query lesson records: %w", err)
	}
	return records, nil
}

// RecordLessonAnswer counts one answer on the user's lesson record, creating it if absent
func (r *ProgressRepository) RecordLessonAnswer(ctx context.Context, userID, lessonID int64, correct bool) error {
	query := r.db.GetDialect().UpsertLessonAnswer()
	if _, err := r.db.ExecContext(ctx, query, userID, lessonID, boolToInt(correct)); err != nil {
		return fmt.Errorf("failed to record lesson answer: %w", err)
	}
	return nil
}

// MarkLessonCompleted sets completed_at on the user's lesson record, creating it if absent
func (r *ProgressRepository) MarkLessonCompleted(ctx context.Context, userID, lessonID int64, completedAt time.Time) error {
	query := r.db.GetDialect().UpsertLessonCompletion()
	if _, err := r.db.ExecContext(ctx, query, userID, lessonID, completedAt); err != nil {
		return fmt.Errorf("failed to mark lesson completed: %w", err)
	}
	return nil
}

// EnsureLessonRecord creates an uncompleted lesson record unless one exists
func (r *ProgressRepository) EnsureLessonRecord(ctx context.Context, userID, lessonID int64) error {
	query := r.db.GetDialect().InsertLessonRecordIfAbsent()
	if _, err := r.db.ExecContext(ctx, query, userID, lessonID); err != nil {
		return fmt.Errorf("failed to create lesson record: %w", err)
	}
	return nil
}

// RecordModuleAnswer counts one answer on the user's module progress, creating it if absent
func (r *ProgressRepository) RecordModuleAnswer(ctx context.Context, userID, moduleID int64, correct bool) error {
	query := r.db.GetDialect().UpsertModuleAnswer()
	if _, err := r.db.ExecContext(ctx, query, userID, moduleID, boolToInt(correct)); err != nil {
		return fmt.Errorf("failed to record module answer: %w", err)
	}
	return nil
}

// EnsureModuleProgress creates an empty module progress row unless one exists
func (r *ProgressRepository) EnsureModuleProgress(ctx context.Context, userID, moduleID int64) error {
	query := r.db.GetDialect().InsertModuleProgressIfAbsent()
	if _, err := r.db.ExecContext(ctx, query, userID, moduleID); err != nil {
		return fmt.Errorf("failed to create module progress: %w", err)
	}
	return nil
}

// GetModuleCompletion counts the module's lessons and the ones the user has completed
func (r *ProgressRepository) GetModuleCompletion(ctx context.Context, userID, moduleID int64) (*ModuleCompletion, error) {
	completion := &ModuleCompletion{}
	query := `
		SELECT
			COUNT(*) AS total_lessons,
			COUNT(ul.completed_at) AS completed_lessons,
			COUNT(CASE WHEN l.lesson_type = ? AND ul.completed_at IS NOT NULL THEN 1 END) > 0 AS final_review_passed
		FROM lessons l
		LEFT JOIN user_lessons ul ON ul.lesson_id = l.id AND ul.user_id = ?
		WHERE l.module_id = ?
	`
	err := r.db.GetContext(ctx, completion, query, string(models.LessonTypeFinalReview), userID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to count module completion: %w", err)
	}
	return completion, nil
}

// UpdateModuleCompletion stores the derived completion state of a module
func (r *ProgressRepository) UpdateModuleCompletion(ctx context.Context, userID, moduleID int64, percentage float64, isCompleted bool) error {
	query := `
		UPDATE user_module_progress
		SET completion_percentage = ?, is_completed = ?
		WHERE user_id = ? AND module_id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, percentage, isCompleted, userID, moduleID); err != nil {
		return fmt.Errorf("failed to update module completion: %w", err)
	}
	return nil
}

// GetModuleProgress retrieves the user's progress row for a module
func (r *ProgressRepository) GetModuleProgress(ctx context.Context, userID, moduleID int64) (*models.UserModuleProgress, error) {
	progress := &models.UserModuleProgress{}
	query := `
		SELECT user_id, module_id, correct_answers, total_questions, completion_percentage, is_completed
		FROM user_module_progress
		WHERE user_id = ? AND module_id = ?
	`
	err := r.db.GetContext(ctx, progress, query, userID, moduleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get module progress: %w", err)
	}
	return progress, nil
}

// GetUserModuleProgress retrieves every module progress row of a user
func (r *ProgressRepository) GetUserModuleProgress(ctx context.Context, userID int64) ([]models.UserModuleProgress, error) {
	var progress []models.UserModuleProgress
	query := `
		SELECT user_id, module_id, correct_answers, total_questions, completion_percentage, is_completed
		FROM user_module_progress
		WHERE user_id = ?
	`
	if err := r.db.SelectContext(ctx, &progress, query, userID); err != nil {
		return nil, fmt.Errorf("failed to query module progress: %w", err)
	}
	return progress, nil
}

// CountCompletedModules returns how many modules the user has completed
func (r *ProgressRepository) CountCompletedModules(ctx context.Context, userID int64) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM user_module_progress WHERE user_id = ? AND is_completed = " + r.db.GetDialect().BoolValue(true)
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count completed modules: %w", err)
	}
	return count, nil
}

// CountCompletedLessons returns how many lessons the user has completed
func (r *ProgressRepository) CountCompletedLessons(ctx context.Context, userID int64) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM user_lessons WHERE user_id = ? AND completed_at IS NOT NULL"
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
