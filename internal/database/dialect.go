package database

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// BoolValue returns the SQL representation of a boolean value
	BoolValue(b bool) string

	// IsUniqueViolation reports whether err was caused by a unique constraint
	IsUniqueViolation(err error) bool

	UpsertQueries
}

// UpsertQueries are single-statement insert-or-update writes keyed on the
// progress tables' unique constraints.
type UpsertQueries interface {
	// UpsertLessonAnswer args: user_id, lesson_id, correct (0 or 1)
	UpsertLessonAnswer() string

	// UpsertLessonCompletion args: user_id, lesson_id, completed_at
	UpsertLessonCompletion() string

	// InsertLessonRecordIfAbsent args: user_id, lesson_id
	InsertLessonRecordIfAbsent() string

	// UpsertModuleAnswer args: user_id, module_id, correct (0 or 1)
	UpsertModuleAnswer() string

	// InsertModuleProgressIfAbsent args: user_id, module_id
	InsertModuleProgressIfAbsent() string

	// UpsertMistake args: user_id, gesture_id, lesson_id, module_id, answer, mistake_at
	UpsertMistake() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	return sqlx.Rebind(sqlx.DOLLAR, query)
}

// onConflictUpserts implements UpsertQueries with ON CONFLICT clauses,
// shared by SQLite and PostgreSQL.
type onConflictUpserts struct{}

func (onConflictUpserts) UpsertLessonAnswer() string {
	return `
		INSERT INTO user_lessons (user_id, lesson_id, correct_answers, total_answers)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			correct_answers = user_lessons.correct_answers + excluded.correct_answers,
			total_answers = user_lessons.total_answers + 1
	`
}

func (onConflictUpserts) UpsertLessonCompletion() string {
	return `
		INSERT INTO user_lessons (user_id, lesson_id, completed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			completed_at = excluded.completed_at
	`
}

func (onConflictUpserts) InsertLessonRecordIfAbsent() string {
	return `
		INSERT INTO user_lessons (user_id, lesson_id)
		VALUES (?, ?)
		ON CONFLICT (user_id, lesson_id) DO NOTHING
	`
}

func (onConflictUpserts) UpsertModuleAnswer() string {
	return `
		INSERT INTO user_module_progress (user_id, module_id, correct_answers, total_questions)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (user_id, module_id) DO UPDATE SET
			correct_answers = user_module_progress.correct_answers + excluded.correct_answers,
			total_questions = user_module_progress.total_questions + 1
	`
}

func (onConflictUpserts) InsertModuleProgressIfAbsent() string {
	return `
		INSERT INTO user_module_progress (user_id, module_id)
		VALUES (?, ?)
		ON CONFLICT (user_id, module_id) DO NOTHING
	`
}

func (onConflictUpserts) UpsertMistake() string {
	return `
		INSERT INTO user_mistakes (user_id, gesture_id, lesson_id, module_id, last_incorrect_answer, mistake_count, last_mistake_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT (user_id, gesture_id, lesson_id) DO UPDATE SET
			mistake_count = user_mistakes.mistake_count + 1,
			last_incorrect_answer = excluded.last_incorrect_answer,
			last_mistake_at = excluded.last_mistake_at
	`
}
