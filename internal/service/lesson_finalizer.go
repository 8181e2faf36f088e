package service

import (
	"context"
	"fmt"
	"log"

	"signlearn/internal/database"
	"signlearn/internal/models"
)

// FinishResult describes the state after a lesson was finished
type FinishResult struct {
	LessonID             int64   `json:"lesson_id"`
	ModuleID             int64   `json:"module_id"`
	NextLessonID         int64   `json:"next_lesson_id,omitempty"`
	CompletionPercentage float64 `json:"completion_percentage"`
	ModuleCompleted      bool    `json:"module_completed"`
}

// FinishLesson marks a lesson completed, opens the next lesson of the module
// and recomputes the module's completion. A finished final review completes
// the module. The writes happen in one transaction; any failure rolls all of
// them back.
func (s *ProgressService) FinishLesson(ctx context.Context, userID, lessonID int64) (*FinishResult, error) {
	lesson, err := s.getLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	access, err := s.lessonAccess(ctx, userID, lesson)
	if err != nil {
		return nil, err
	}
	if !access.Available {
		return nil, fmt.Errorf("lesson %d: %w", lesson.ID, ErrLessonLocked)
	}

	result := &FinishResult{LessonID: lesson.ID, ModuleID: lesson.ModuleID}
	var wasCompleted bool
	err = s.db.InTx(ctx, func(tx *database.Tx) error {
		dialect := tx.GetDialect()
		progress := s.progress.WithTx(tx)
		catalog := s.catalog.WithTx(tx)

		if err := progress.MarkLessonCompleted(ctx, userID, lesson.ID, s.now()); err != nil {
			return storageError(dialect, "failed to complete lesson", err)
		}

		next, err := catalog.GetNextLesson(ctx, lesson)
		if err != nil {
			return storageError(dialect, "failed to find next lesson", err)
		}
		if next != nil {
			if err := progress.EnsureLessonRecord(ctx, userID, next.ID); err != nil {
				return storageError(dialect, "failed to open next lesson", err)
			}
			result.NextLessonID = next.ID
		}

		if err := progress.EnsureModuleProgress(ctx, userID, lesson.ModuleID); err != nil {
			return storageError(dialect, "failed to create module progress", err)
		}
		before, err := progress.GetModuleProgress(ctx, userID, lesson.ModuleID)
		if err != nil {
			return storageError(dialect, "failed to load module progress", err)
		}
		wasCompleted = before != nil && before.IsCompleted

		percentage, completed, err := recomputeModuleCompletion(ctx, progress, userID, lesson.ModuleID)
		if err != nil {
			return storageError(dialect, "failed to update module completion", err)
		}
		if lesson.LessonType == models.LessonTypeFinalReview && !completed {
			percentage, completed = 100, true
			if err := progress.UpdateModuleCompletion(ctx, userID, lesson.ModuleID, percentage, completed); err != nil {
				return storageError(dialect, "failed to update module completion", err)
			}
		}
		result.CompletionPercentage = percentage
		result.ModuleCompleted = completed
		return nil
	})
	if err != nil {
		if isServiceError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to finish lesson: %w: %w", ErrPersistence, err)
	}

	if result.ModuleCompleted && !wasCompleted {
		s.notifyModuleCompleted(ctx, userID, lesson.ModuleID)
	}
	return result, nil
}

// notifyModuleCompleted sends the congratulation email. Failures are only logged.
func (s *ProgressService) notifyModuleCompleted(ctx context.Context, userID, moduleID int64) {
	if s.notifier == nil {
		return
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil || user == nil {
		log.Printf("Error loading user %d for module completion email: %v", userID, err)
		return
	}
	module, err := s.catalog.GetModuleByID(ctx, moduleID)
	if err != nil || module == nil {
		log.Printf("Error loading module %d for completion email: %v", moduleID, err)
		return
	}

	if err := s.notifier.SendModuleCompletedEmail(ctx, user.Email, user.Name, module.Title); err != nil {
		log.Printf("Error sending module completion email to user %d: %v", userID, err)
	}
}
