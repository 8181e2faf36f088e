package database

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("DSN", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{Path: "app.db"})
		for _, param := range []string{"_busy_timeout=5000", "_txlock=immediate", "_foreign_keys=on"} {
			if !strings.Contains(result, param) {
				t.Errorf("DSN() = %v, missing %v", result, param)
			}
		}
		if !strings.HasPrefix(result, "app.db?") {
			t.Errorf("DSN() = %v, want prefix %v", result, "app.db?")
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})

	t.Run("DSN enables parseTime", func(t *testing.T) {
		result := dialect.DSN(DialectConfig{URL: "user:pass@tcp(localhost:3306)/signlearn"})
		if !strings.Contains(result, "parseTime=true") {
			t.Errorf("DSN() = %v, want parseTime=true", result)
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM lessons WHERE id = ?",
			expected: "SELECT * FROM lessons WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM lessons WHERE id = ?",
			expected: "SELECT * FROM lessons WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO user_lessons (user_id, lesson_id) VALUES (?, ?)",
			expected: "INSERT INTO user_lessons (user_id, lesson_id) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE modules SET title = ? WHERE id = ?",
			expected: "UPDATE modules SET title = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		err     error
		want    bool
	}{
		{
			name:    "sqlite unique constraint",
			dialect: NewSQLiteDialect(),
			err:     sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique},
			want:    true,
		},
		{
			name:    "sqlite wrapped unique constraint",
			dialect: NewSQLiteDialect(),
			err:     fmt.Errorf("insert failed: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}),
			want:    true,
		},
		{
			name:    "sqlite foreign key is not unique",
			dialect: NewSQLiteDialect(),
			err:     sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey},
			want:    false,
		},
		{
			name:    "postgres unique violation",
			dialect: NewPostgresDialect(),
			err:     &pq.Error{Code: "23505"},
			want:    true,
		},
		{
			name:    "postgres other error",
			dialect: NewPostgresDialect(),
			err:     &pq.Error{Code: "23503"},
			want:    false,
		},
		{
			name:    "mysql duplicate entry",
			dialect: NewMySQLDialect(),
			err:     &mysql.MySQLError{Number: 1062},
			want:    true,
		},
		{
			name:    "plain error",
			dialect: NewMySQLDialect(),
			err:     errors.New("boom"),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	content := `
-- header comment
CREATE TABLE a (id INTEGER);

-- another
CREATE INDEX idx_a ON a(id);
`
	statements := splitStatements(content)
	if len(statements) != 2 {
		t.Fatalf("splitStatements() returned %d statements, want 2: %q", len(statements), statements)
	}
	if statements[0] != "CREATE TABLE a (id INTEGER)" {
		t.Errorf("statements[0] = %q", statements[0])
	}
}

func TestMigrationsExistForEveryDialect(t *testing.T) {
	for _, dialect := range []Dialect{NewSQLiteDialect(), NewPostgresDialect(), NewMySQLDialect()} {
		t.Run(dialect.MigrationsSubdir(), func(t *testing.T) {
			content, err := migrationsFS.ReadFile("migrations/" + dialect.MigrationsSubdir() + "/001_initial_schema.sql")
			if err != nil {
				t.Fatalf("missing migration: %v", err)
			}
			for _, table := range []string{"user_lessons", "user_module_progress", "user_mistakes", "lesson_gestures"} {
				if !strings.Contains(string(content), table) {
					t.Errorf("migration missing table %s", table)
				}
			}
		})
	}
}
