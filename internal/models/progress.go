package models

import "time"

// UserLessonRecord tracks a user's interaction with one lesson.
// Its existence means the lesson is unlocked; a non-nil CompletedAt means it is mastered.
type UserLessonRecord struct {
	UserID         int64      `db:"user_id" json:"user_id"`
	LessonID       int64      `db:"lesson_id" json:"lesson_id"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at"`
	CorrectAnswers int        `db:"correct_answers" json:"correct_answers"`
	TotalAnswers   int        `db:"total_answers" json:"total_answers"`
}

// IsCompleted reports whether the lesson has been finished
func (r *UserLessonRecord) IsCompleted() bool {
	return r.CompletedAt != nil
}

// UserModuleProgress aggregates a user's answers and lesson completions in a module
type UserModuleProgress struct {
	UserID               int64   `db:"user_id" json:"user_id"`
	ModuleID             int64   `db:"module_id" json:"module_id"`
	CorrectAnswers       int     `db:"correct_answers" json:"correct_answers"`
	TotalQuestions       int     `db:"total_questions" json:"total_questions"`
	CompletionPercentage float64 `db:"completion_percentage" json:"completion_percentage"`
	IsCompleted          bool    `db:"is_completed" json:"is_completed"`
}

// UserMistake is a deduplicated record of wrong answers for one gesture in one lesson
type UserMistake struct {
	UserID              int64     `db:"user_id" json:"user_id"`
	GestureID           int64     `db:"gesture_id" json:"gesture_id"`
	LessonID            int64     `db:"lesson_id" json:"lesson_id"`
	ModuleID            int64     `db:"module_id" json:"module_id"`
	LastIncorrectAnswer string    `db:"last_incorrect_answer" json:"last_incorrect_answer"`
	MistakeCount        int       `db:"mistake_count" json:"mistake_count"`
	LastMistakeAt       time.Time `db:"last_mistake_at" json:"last_mistake_at"`
}

// MistakeWithGesture joins a mistake with the gesture and lesson it belongs to
type MistakeWithGesture struct {
	UserMistake
	Word        string `db:"word" json:"word"`
	LessonTitle string `db:"lesson_title" json:"lesson_title"`
}

// LessonAccess is the unlock state of a lesson for a user
type LessonAccess struct {
	Available bool `json:"available"`
	Completed bool `json:"completed"`
}

// ModuleProgressSummary is one row of a user's per-module progress
type ModuleProgressSummary struct {
	Module      Module  `json:"module"`
	Percentage  float64 `json:"percentage"`
	Correct     int     `json:"correct"`
	Total       int     `json:"total"`
	IsCompleted bool    `json:"is_completed"`
}

// ProgressOverview summarizes a user's progress across the whole curriculum
type ProgressOverview struct {
	Modules          []ModuleProgressSummary `json:"modules"`
	TotalModules     int                     `json:"total_modules"`
	CompletedModules int                     `json:"completed_modules"`
	TotalLessons     int                     `json:"total_lessons"`
	CompletedLessons int                     `json:"completed_lessons"`
	OverallAccuracy  float64                 `json:"overall_accuracy"`
}

// LessonListItem is a lesson annotated with the user's unlock state
type LessonListItem struct {
	Lesson
	TypeLabel string `json:"type_label"`
	Icon      string `json:"icon"`
	Available bool   `json:"available"`
	Completed bool   `json:"completed"`
}

// ModuleWithLessons is a module with its lessons and the user's progress
type ModuleWithLessons struct {
	Module
	ProgressPercentage float64          `json:"progress_percentage"`
	Lessons            []LessonListItem `json:"lessons"`
}

// AnswerOption is one multiple-choice option of a question
type AnswerOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is a single gesture-recognition question of a lesson
type Question struct {
	LessonID          int64          `json:"lesson_id"`
	LessonTitle       string         `json:"lesson_title"`
	LessonType        LessonType     `json:"lesson_type"`
	LessonDescription string         `json:"lesson_description"`
	LessonIcon        string         `json:"lesson_icon"`
	ModuleTitle       string         `json:"module_title"`
	Number            int            `json:"number"`
	Total             int            `json:"total"`
	NextQuestion      int            `json:"next_question"`
	Gesture           Gesture        `json:"gesture"`
	Options           []AnswerOption `json:"options"`
}
