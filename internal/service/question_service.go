package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"signlearn/internal/models"
)

const optionsPerQuestion = 4

// fallbackWords fill the answer options when the catalog has too few other words
var fallbackWords = []string{"House", "Car", "Sun"}

// GetQuestion returns question n (1-based) of a lesson with shuffled answer
// options. An n outside the lesson falls back to the first question.
func (s *ProgressService) GetQuestion(ctx context.Context, userID, lessonID int64, n int) (*models.Question, error) {
	dialect := s.db.GetDialect()

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

	gestures, err := s.catalog.GetLessonGestures(ctx, lesson.ID)
	if err != nil {
		return nil, storageError(dialect, "failed to load lesson gestures", err)
	}
	if len(gestures) == 0 {
		return nil, fmt.Errorf("lesson %d: %w", lesson.ID, ErrLessonEmpty)
	}
	if n < 1 || n > len(gestures) {
		n = 1
	}
	gesture := gestures[n-1]

	words, err := s.catalog.GetDistinctWords(ctx, gesture.Word)
	if err != nil {
		return nil, storageError(dialect, "failed to load answer options", err)
	}

	module, err := s.catalog.GetModuleByID(ctx, lesson.ModuleID)
	if err != nil {
		return nil, storageError(dialect, "failed to load module", err)
	}
	moduleTitle := ""
	if module != nil {
		moduleTitle = module.Title
	}

	next := 0
	if n < len(gestures) {
		next = n + 1
	}

	return &models.Question{
		LessonID:          lesson.ID,
		LessonTitle:       lesson.Title,
		LessonType:        lesson.LessonType,
		LessonDescription: lesson.LessonType.Description(),
		LessonIcon:        lesson.LessonType.Icon(),
		ModuleTitle:       moduleTitle,
		Number:            n,
		Total:             len(gestures),
		NextQuestion:      next,
		Gesture:           gesture,
		Options:           buildOptions(gesture.Word, words),
	}, nil
}

// buildOptions returns the correct word and up to three distinct distractors in random order
func buildOptions(correct string, candidates []string) []models.AnswerOption {
	pool := make([]string, len(candidates))
	copy(pool, candidates)
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	pool = append(pool, fallbackWords...)

	options := []models.AnswerOption{{Text: correct, IsCorrect: true}}
	seen := map[string]bool{correct: true}
	for _, word := range pool {
		if len(options) == optionsPerQuestion {
			break
		}
		if word == "" || seen[word] {
			continue
		}
		seen[word] = true
		options = append(options, models.AnswerOption{Text: word})
	}

	rand.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return options
}
