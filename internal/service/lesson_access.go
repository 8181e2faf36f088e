package service

import (
	"context"

	"signlearn/internal/models"
)

// resolveAccess applies the unlock rule to a lesson given the user's record
// for it and, when the lesson is not first in its module, the user's record
// for the preceding lesson. A missing record means the lesson was never
// touched; the first lesson of a module is open without one.
func resolveAccess(record *models.UserLessonRecord, isFirst bool, previous *models.UserLessonRecord) models.LessonAccess {
	if record != nil {
		return models.LessonAccess{Available: true, Completed: record.IsCompleted()}
	}
	if isFirst {
		return models.LessonAccess{Available: true}
	}
	return models.LessonAccess{Available: previous != nil && previous.IsCompleted()}
}

// ResolveLessonAccess reports whether the user may open a lesson and whether
// they have completed it. Unknown lessons are neither available nor completed.
// No progress record is created.
func (s *ProgressService) ResolveLessonAccess(ctx context.Context, userID, lessonID int64) (models.LessonAccess, error) {
	lesson, err := s.catalog.GetLessonByID(ctx, lessonID)
	if err != nil {
		return models.LessonAccess{}, storageError(s.db.GetDialect(), "failed to load lesson", err)
	}
	if lesson == nil {
		return models.LessonAccess{}, nil
	}
	return s.lessonAccess(ctx, userID, lesson)
}

func (s *ProgressService) lessonAccess(ctx context.Context, userID int64, lesson *models.Lesson) (models.LessonAccess, error) {
	dialect := s.db.GetDialect()

	record, err := s.progress.GetLessonRecord(ctx, userID, lesson.ID)
	if err != nil {
		return models.LessonAccess{}, storageError(dialect, "failed to load lesson record", err)
	}
	if record != nil {
		return resolveAccess(record, false, nil), nil
	}

	previousLesson, err := s.catalog.GetPreviousLesson(ctx, lesson)
	if err != nil {
		return models.LessonAccess{}, storageError(dialect, "failed to load previous lesson", err)
	}
	if previousLesson == nil {
		return resolveAccess(nil, true, nil), nil
	}

	previous, err := s.progress.GetLessonRecord(ctx, userID, previousLesson.ID)
	if err != nil {
		return models.LessonAccess{}, storageError(dialect, "failed to load previous lesson record", err)
	}
	return resolveAccess(nil, false, previous), nil
}
