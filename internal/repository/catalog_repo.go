package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"signlearn/internal/database"
	"signlearn/internal/models"
)

const (
	moduleColumns  = "id, title, COALESCE(description, '') AS description, order_index"
	lessonColumns  = "id, module_id, title, lesson_type, order_index"
	gestureColumns = "id, word, video_reference, COALESCE(description, '') AS description"
)

// CatalogRepository handles database operations for modules, lessons and gestures
type CatalogRepository struct {
	db database.DBTX
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db database.DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// WithTx returns a copy of the repository that runs its queries on tx
func (r *CatalogRepository) WithTx(tx *database.Tx) *CatalogRepository {
	return &CatalogRepository{db: tx}
}

// GetModules retrieves all modules in curriculum order
func (r *CatalogRepository) GetModules(ctx context.Context) ([]models.Module, error) {
	var modules []models.Module
	query := "SELECT " + moduleColumns + " FROM modules ORDER BY order_index, id"
	if err := r.db.SelectContext(ctx, &modules, query); err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	return modules, nil
}

// GetModuleByID retrieves a module by ID
func (r *CatalogRepository) GetModuleByID(ctx context.Context, moduleID int64) (*models.Module, error) {
	module := &models.Module{}
	query := "SELECT " + moduleColumns + " FROM modules WHERE id = ?"
	err := r.db.GetContext(ctx, module, query, moduleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return module, nil
}

// GetLessonByID retrieves a lesson by ID
func (r *CatalogRepository) GetLessonByID(ctx context.Context, lessonID int64) (*models.Lesson, error) {
	lesson := &models.Lesson{}
	query := "SELECT " + lessonColumns + " FROM lessons WHERE id = ?"
	err := r.db.GetContext(ctx, lesson, query, lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return lesson, nil
}

// GetModuleLessons retrieves the lessons of a module ordered by order_index
func (r *CatalogRepository) GetModuleLessons(ctx context.Context, moduleID int64) ([]models.Lesson, error) {
	var lessons []models.Lesson
	query := "SELECT " + lessonColumns + " FROM lessons WHERE module_id = ? ORDER BY order_index, id"
	if err := r.db.SelectContext(ctx, &lessons, query, moduleID); err != nil {
		return nil, fmt.Errorf("failed to query module lessons: %w", err)
	}
	return lessons, nil
}

// GetAllLessons retrieves every lesson ordered by module and position
func (r *CatalogRepository) GetAllLessons(ctx context.Context) ([]models.Lesson, error) {
	var lessons []models.Lesson
	query := `
		SELECT l.id, l.module_id, l.title, l.lesson_type, l.order_index
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		ORDER BY m.order_index, m.id, l.order_index, l.id
	`
	if err := r.db.SelectContext(ctx, &lessons, query); err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	return lessons, nil
}

// GetPreviousLesson returns the lesson immediately before lesson in its module,
// or nil when lesson is the first one.
func (r *CatalogRepository) GetPreviousLesson(ctx context.Context, lesson *models.Lesson) (*models.Lesson, error) {
	previous := &models.Lesson{}
	query := "SELECT " + lessonColumns + " FROM lessons WHERE module_id = ? AND order_index < ? ORDER BY order_index DESC, id DESC LIMIT 1"
	err := r.db.GetContext(ctx, previous, query, lesson.ModuleID, lesson.OrderIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get previous lesson: %w", err)
	}
	return previous, nil
}

// GetNextLesson returns the lesson immediately after lesson in its module,
// or nil when lesson is the last one.
func (r *CatalogRepository) GetNextLesson(ctx context.Context, lesson *models.Lesson) (*models.Lesson, error) {
	next := &models.Lesson{}
	query := "SELECT " + lessonColumns + " FROM lessons WHERE module_id = ? AND order_index > ? ORDER BY order_index, id LIMIT 1"
	err := r.db.GetContext(ctx, next, query, lesson.ModuleID, lesson.OrderIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next lesson: %w", err)
	}
	return next, nil
}

// GetGestureByID retrieves a gesture by ID
func (r *CatalogRepository) GetGestureByID(ctx context.Context, gestureID int64) (*models.Gesture, error) {
	gesture := &models.Gesture{}
	query := "SELECT " + gestureColumns + " FROM gestures WHERE id = ?"
	err := r.db.GetContext(ctx, gesture, query, gestureID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gesture: %w", err)
	}
	return gesture, nil
}

// FindGesture retrieves a gesture by word and video reference
func (r *CatalogRepository) FindGesture(ctx context.Context, word, videoReference string) (*models.Gesture, error) {
	gesture := &models.Gesture{}
	query := "SELECT " + gestureColumns + " FROM gestures WHERE word = ? AND video_reference = ? ORDER BY id LIMIT 1"
	err := r.db.GetContext(ctx, gesture, query, word, videoReference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find gesture: %w", err)
	}
	return gesture, nil
}

// GetGestures retrieves every gesture in the catalog
func (r *CatalogRepository) GetGestures(ctx context.Context) ([]models.Gesture, error) {
	var gestures []models.Gesture
	query := "SELECT " + gestureColumns + " FROM gestures ORDER BY id"
	if err := r.db.SelectContext(ctx, &gestures, query); err != nil {
		return nil, fmt.Errorf("failed to query gestures: %w", err)
	}
	return gestures, nil
}

// GetLessonGestures retrieves the gestures of a lesson in question order
func (r *CatalogRepository) GetLessonGestures(ctx context.Context, lessonID int64) ([]models.Gesture, error) {
	var gestures []models.Gesture
	query := `
		SELECT g.id, g.word, g.video_reference, COALESCE(g.description, '') AS description
		FROM lesson_gestures lg
		JOIN gestures g ON g.id = lg.gesture_id
		WHERE lg.lesson_id = ?
		ORDER BY lg.order_index
	`
	if err := r.db.SelectContext(ctx, &gestures, query, lessonID); err != nil {
		return nil, fmt.Errorf("failed to query lesson gestures: %w", err)
	}
	return gestures, nil
}

// GetLessonGestureLinks retrieves every lesson-gesture link in lesson order
func (r *CatalogRepository) GetLessonGestureLinks(ctx context.Context) ([]models.LessonGesture, error) {
	var links []models.LessonGesture
	query := "SELECT lesson_id, gesture_id, order_index FROM lesson_gestures ORDER BY lesson_id, order_index"
	if err := r.db.SelectContext(ctx, &links, query); err != nil {
		return nil, fmt.Errorf("failed to query lesson gestures: %w", err)
	}
	return links, nil
}

// GetDistinctWords retrieves the distinct gesture words other than exclude
func (r *CatalogRepository) GetDistinctWords(ctx context.Context, exclude string) ([]string, error) {
	var words []string
	query := "SELECT DISTINCT word FROM gestures WHERE word <> ? ORDER BY word"
	if err := r.db.SelectContext(ctx, &words, query, exclude); err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	return words, nil
}

// CountModules returns the number of modules in the catalog
func (r *CatalogRepository) CountModules(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM modules"); err != nil {
		return 0, fmt.Errorf("failed to count modules: %w", err)
	}
	return count, nil
}

// CountLessons returns the number of lessons in the catalog
func (r *CatalogRepository) CountLessons(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM lessons"); err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

// CreateModule inserts a new module
func (r *CatalogRepository) CreateModule(ctx context.Context, title, description string, orderIndex int) (*models.Module, error) {
	query := "INSERT INTO modules (title, description, order_index) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(ctx, query, title, description, orderIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to create module: %w", err)
	}

	return &models.Module{
		ID:          id,
		Title:       title,
		Description: description,
		OrderIndex:  orderIndex,
	}, nil
}

// CreateLesson inserts a new lesson into a module
func (r *CatalogRepository) CreateLesson(ctx context.Context, moduleID int64, title string, lessonType models.LessonType, orderIndex int) (*models.Lesson, error) {
	query := "INSERT INTO lessons (module_id, title, lesson_type, order_index) VALUES (?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(ctx, query, moduleID, title, string(lessonType), orderIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	return &models.Lesson{
		ID:         id,
		ModuleID:   moduleID,
		Title:      title,
		LessonType: lessonType,
		OrderIndex: orderIndex,
	}, nil
}

// CreateGesture inserts a new gesture
func (r *CatalogRepository) CreateGesture(ctx context.Context, word, videoReference, description string) (*models.Gesture, error) {
	query := "INSERT INTO gestures (word, video_reference, description) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(ctx, query, word, videoReference, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create gesture: %w", err)
	}

	return &models.Gesture{
		ID:             id,
		Word:           word,
		VideoReference: videoReference,
		Description:    description,
	}, nil
}

// AddLessonGesture places a gesture at position orderIndex within a lesson
func (r *CatalogRepository) AddLessonGesture(ctx context.Context, lessonID, gestureID int64, orderIndex int) error {
	query := "INSERT INTO lesson_gestures (lesson_id, gesture_id, order_index) VALUES (?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, lessonID, gestureID, orderIndex); err != nil {
		return fmt.Errorf("failed to add lesson gesture: %w", err)
	}
	return nil
}
