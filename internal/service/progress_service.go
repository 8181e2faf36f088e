package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"signlearn/internal/database"
	"signlearn/internal/models"
	"signlearn/internal/repository"
)

// CompletionNotifier is told when a user completes a module
type CompletionNotifier interface {
	SendModuleCompletedEmail(ctx context.Context, toEmail, toName, moduleTitle string) error
}

// ProgressService owns lesson unlocking, answer recording, lesson completion
// and the progress views derived from them.
type ProgressService struct {
	db       *database.DB
	catalog  *repository.CatalogRepository
	progress *repository.ProgressRepository
	mistakes *repository.MistakeRepository
	users    *repository.UserRepository
	recorder *MistakeRecorder
	notifier CompletionNotifier
	now      func() time.Time
}

// NewProgressService creates a new progress service. notifier may be nil.
func NewProgressService(db *database.DB, catalog *repository.CatalogRepository, progress *repository.ProgressRepository,
	mistakes *repository.MistakeRepository, users *repository.UserRepository, notifier CompletionNotifier) *ProgressService {
	return &ProgressService{
		db:       db,
		catalog:  catalog,
		progress: progress,
		mistakes: mistakes,
		users:    users,
		recorder: NewMistakeRecorder(mistakes),
		notifier: notifier,
		now:      time.Now,
	}
}

// completionPercentage is completed/total as a percentage in [0, 100]
func completionPercentage(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	return math.Min(100, float64(completed)/float64(total)*100)
}

// recomputeModuleCompletion derives the module's completion from its lesson
// completions and stores it on the user's progress row.
func recomputeModuleCompletion(ctx context.Context, progress *repository.ProgressRepository, userID, moduleID int64) (float64, bool, error) {
	completion, err := progress.GetModuleCompletion(ctx, userID, moduleID)
	if err != nil {
		return 0, false, err
	}

	percentage := completionPercentage(completion.CompletedLessons, completion.TotalLessons)
	isCompleted := completion.FinalReviewPassed
	if isCompleted {
		percentage = 100
	}

	if err := progress.UpdateModuleCompletion(ctx, userID, moduleID, percentage, isCompleted); err != nil {
		return 0, false, err
	}
	return percentage, isCompleted, nil
}

// GetModuleProgressSummary returns one row per module, in curriculum order,
// with the user's completion percentage and answer counts.
func (s *ProgressService) GetModuleProgressSummary(ctx context.Context, userID int64) ([]models.ModuleProgressSummary, error) {
	dialect := s.db.GetDialect()

	modules, err := s.catalog.GetModules(ctx)
	if err != nil {
		return nil, storageError(dialect, "failed to load modules", err)
	}
	rows, err := s.progress.GetUserModuleProgress(ctx, userID)
	if err != nil {
		return nil, storageError(dialect, "failed to load module progress", err)
	}

	byModule := make(map[int64]models.UserModuleProgress, len(rows))
	for _, row := range rows {
		byModule[row.ModuleID] = row
	}

	summary := make([]models.ModuleProgressSummary, 0, len(modules))
	for _, module := range modules {
		row := byModule[module.ID]
		summary = append(summary, models.ModuleProgressSummary{
			Module:      module,
			Percentage:  row.CompletionPercentage,
			Correct:     row.CorrectAnswers,
			Total:       row.TotalQuestions,
			IsCompleted: row.IsCompleted,
		})
	}
	return summary, nil
}

// GetOverview summarizes the user's progress across the whole curriculum
func (s *ProgressService) GetOverview(ctx context.Context, userID int64) (*models.ProgressOverview, error) {
	dialect := s.db.GetDialect()

	modules, err := s.GetModuleProgressSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	completedModules, err := s.progress.CountCompletedModules(ctx, userID)
	if err != nil {
		return nil, storageError(dialect, "failed to count completed modules", err)
	}
	totalLessons, err := s.catalog.CountLessons(ctx)
	if err != nil {
		return nil, storageError(dialect, "failed to count lessons", err)
	}
	completedLessons, err := s.progress.CountCompletedLessons(ctx, userID)
	if err != nil {
		return nil, storageError(dialect, "failed to count completed lessons", err)
	}

	var correct, total int
	for _, m := range modules {
		correct += m.Correct
		total += m.Total
	}
	accuracy := 0.0
	if total > 0 {
		accuracy = math.Round(float64(correct)/float64(total)*1000) / 10
	}

	return &models.ProgressOverview{
		Modules:          modules,
		TotalModules:     len(modules),
		CompletedModules: completedModules,
		TotalLessons:     totalLessons,
		CompletedLessons: completedLessons,
		OverallAccuracy:  accuracy,
	}, nil
}

// GetModulesWithLessons lists every module with its lessons annotated with
// the user's unlock and completion state.
func (s *ProgressService) GetModulesWithLessons(ctx context.Context, userID int64) ([]models.ModuleWithLessons, error) {
	dialect := s.db.GetDialect()

	modules, err := s.catalog.GetModules(ctx)
	if err != nil {
		return nil, storageError(dialect, "failed to load modules", err)
	}
	lessons, err := s.catalog.GetAllLessons(ctx)
	if err != nil {
		return nil, storageError(dialect, "failed to load lessons", err)
	}
	records, err := s.progress.GetUserLessonRecords(ctx, userID)
	if err != nil {
		return nil, storageError(dialect, "failed to load lesson records", err)
	}
	progressRows, err := s.progress.GetUserModuleProgress(ctx, userID)
	if err != nil {
		return nil, storageError(dialect, "failed to load module progress", err)
	}

	recordByLesson := make(map[int64]*models.UserLessonRecord, len(records))
	for i := range records {
		recordByLesson[records[i].LessonID] = &records[i]
	}
	percentByModule := make(map[int64]float64, len(progressRows))
	for _, row := range progressRows {
		percentByModule[row.ModuleID] = row.CompletionPercentage
	}
	lessonsByModule := make(map[int64][]models.Lesson)
	for _, lesson := range lessons {
		lessonsByModule[lesson.ModuleID] = append(lessonsByModule[lesson.ModuleID], lesson)
	}

	result := make([]models.ModuleWithLessons, 0, len(modules))
	for _, module := range modules {
		moduleLessons := lessonsByModule[module.ID]
		items := make([]models.LessonListItem, 0, len(moduleLessons))
		for i, lesson := range moduleLessons {
			var previous *models.UserLessonRecord
			if i > 0 {
				previous = recordByLesson[moduleLessons[i-1].ID]
			}
			access := resolveAccess(recordByLesson[lesson.ID], i == 0, previous)
			items = append(items, models.LessonListItem{
				Lesson:    lesson,
				TypeLabel: lesson.LessonType.Label(),
				Icon:      lesson.LessonType.Icon(),
				Available: access.Available,
				Completed: access.Completed,
			})
		}
		result = append(result, models.ModuleWithLessons{
			Module:             module,
			ProgressPercentage: percentByModule[module.ID],
			Lessons:            items,
		})
	}
	return result, nil
}

// GetMistakes returns the user's mistakes, most frequent first.
// A moduleID of 0 returns mistakes from every module.
func (s *ProgressService) GetMistakes(ctx context.Context, userID, moduleID int64) ([]models.MistakeWithGesture, error) {
	mistakes, err := s.mistakes.GetUserMistakes(ctx, userID, moduleID)
	if err != nil {
		return nil, storageError(s.db.GetDialect(), "failed to load mistakes", err)
	}
	if mistakes == nil {
		mistakes = []models.MistakeWithGesture{}
	}
	return mistakes, nil
}

func (s *ProgressService) getLesson(ctx context.Context, lessonID int64) (*models.Lesson, error) {
	lesson, err := s.catalog.GetLessonByID(ctx, lessonID)
	if err != nil {
		return nil, storageError(s.db.GetDialect(), "failed to load lesson", err)
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %d: %w", lessonID, ErrNotFound)
	}
	return lesson, nil
}
