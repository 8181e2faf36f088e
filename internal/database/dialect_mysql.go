package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN forces parseTime so DATETIME columns scan into time.Time
func (d *MySQLDialect) DSN(config DialectConfig) string {
	cfg, err := mysql.ParseDSN(config.URL)
	if err != nil {
		return config.URL
	}
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) SupportsLastInsertId() bool {
	return true
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Ensure foreign key checks are enabled
	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;"); err != nil {
		return err
	}

	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

func (d *MySQLDialect) BoolValue(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (d *MySQLDialect) IsUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

func (d *MySQLDialect) UpsertLessonAnswer() string {
	return "INSERT INTO user_lessons (user_id, lesson_id, correct_answers, total_answers) VALUES (?, ?, ?, 1) " +
		"ON DUPLICATE KEY UPDATE correct_answers = correct_answers + VALUES(correct_answers), total_answers = total_answers + 1"
}

func (d *MySQLDialect) UpsertLessonCompletion() string {
	return "INSERT INTO user_lessons (user_id, lesson_id, completed_at) VALUES (?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE completed_at = VALUES(completed_at)"
}

func (d *MySQLDialect) InsertLessonRecordIfAbsent() string {
	return "INSERT IGNORE INTO user_lessons (user_id, lesson_id) VALUES (?, ?)"
}

func (d *MySQLDialect) UpsertModuleAnswer() string {
	return "INSERT INTO user_module_progress (user_id, module_id, correct_answers, total_questions) VALUES (?, ?, ?, 1) " +
		"ON DUPLICATE KEY UPDATE correct_answers = correct_answers + VALUES(correct_answers), total_questions = total_questions + 1"
}

func (d *MySQLDialect) InsertModuleProgressIfAbsent() string {
	return "INSERT IGNORE INTO user_module_progress (user_id, module_id) VALUES (?, ?)"
}

func (d *MySQLDialect) UpsertMistake() string {
	return "INSERT INTO user_mistakes (user_id, gesture_id, lesson_id, module_id, last_incorrect_answer, mistake_count, last_mistake_at) " +
		"VALUES (?, ?, ?, ?, ?, 1, ?) " +
		"ON DUPLICATE KEY UPDATE mistake_count = mistake_count + 1, " +
		"last_incorrect_answer = VALUES(last_incorrect_answer), last_mistake_at = VALUES(last_mistake_at)"
}
