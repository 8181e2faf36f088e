package service

import (
	"context"
	"fmt"

	"signlearn/internal/database"
	"signlearn/internal/validation"
)

// AnswerInput is one answered question of a lesson
type AnswerInput struct {
	LessonID       int64
	GestureID      int64
	IsCorrect      bool
	SelectedAnswer string
}

// AnswerResult describes the state after an answer was recorded
type AnswerResult struct {
	LessonID             int64   `json:"lesson_id"`
	ModuleID             int64   `json:"module_id"`
	IsCorrect            bool    `json:"is_correct"`
	MistakeRecorded      bool    `json:"mistake_recorded"`
	CompletionPercentage float64 `json:"completion_percentage"`
	ModuleCompleted      bool    `json:"module_completed"`
}

// RecordAnswer counts an answer on the user's lesson record and module
// progress, recording a mistake when the answer is wrong. Everything is
// written in one transaction. Answering never changes the module's
// completion percentage by itself; only lesson completions do.
func (s *ProgressService) RecordAnswer(ctx context.Context, userID int64, input AnswerInput) (*AnswerResult, error) {
	if err := validation.ValidateAnswer(input.LessonID, input.GestureID, input.SelectedAnswer); err != nil {
		return nil, validationError(err)
	}

	lesson, err := s.getLesson(ctx, input.LessonID)
	if err != nil {
		return nil, err
	}
	gesture, err := s.catalog.GetGestureByID(ctx, input.GestureID)
	if err != nil {
		return nil, storageError(s.db.GetDialect(), "failed to load gesture", err)
	}
	if gesture == nil {
		return nil, fmt.Errorf("gesture %d: %w", input.GestureID, ErrNotFound)
	}

	access, err := s.lessonAccess(ctx, userID, lesson)
	if err != nil {
		return nil, err
	}
	if !access.Available {
		return nil, fmt.Errorf("lesson %d: %w", lesson.ID, ErrLessonLocked)
	}

	result := &AnswerResult{LessonID: lesson.ID, ModuleID: lesson.ModuleID, IsCorrect: input.IsCorrect}
	err = s.db.InTx(ctx, func(tx *database.Tx) error {
		dialect := tx.GetDialect()
		progress := s.progress.WithTx(tx)

		if !input.IsCorrect {
			recorded, err := s.recorder.Record(ctx, tx, userID, gesture.ID, lesson, input.SelectedAnswer)
			if err != nil {
				return err
			}
			result.MistakeRecorded = recorded
		}

		if err := progress.RecordLessonAnswer(ctx, userID, lesson.ID, input.IsCorrect); err != nil {
			return storageError(dialect, "failed to record lesson answer", err)
		}
		if err := progress.RecordModuleAnswer(ctx, userID, lesson.ModuleID, input.IsCorrect); err != nil {
			return storageError(dialect, "failed to record module answer", err)
		}

		percentage, completed, err := recomputeModuleCompletion(ctx, progress, userID, lesson.ModuleID)
		if err != nil {
			return storageError(dialect, "failed to update module completion", err)
		}
		result.CompletionPercentage = percentage
		result.ModuleCompleted = completed
		return nil
	})
	if err != nil {
		if isServiceError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record answer: %w: %w", ErrPersistence, err)
	}
	return result, nil
}
