package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	maxAboutLength  = 500
	maxAnswerLength = 255
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidatePasswordConfirmation checks that both password fields match
func ValidatePasswordConfirmation(password, confirmation string) error {
	if password != confirmation {
		return ValidationError{Field: "password_confirm", Message: "passwords do not match"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateAbout checks the optional free-text profile field
func ValidateAbout(about string) error {
	if utf8.RuneCountInString(about) > maxAboutLength {
		return ValidationError{Field: "about", Message: fmt.Sprintf("about must be at most %d characters", maxAboutLength)}
	}
	return nil
}

// ValidateAnswer checks the identifiers and selected text of a submitted answer
func ValidateAnswer(lessonID, gestureID int64, selected string) error {
	if lessonID <= 0 {
		return ValidationError{Field: "lesson_id", Message: "lesson is required"}
	}
	if gestureID <= 0 {
		return ValidationError{Field: "gesture_id", Message: "gesture is required"}
	}
	if utf8.RuneCountInString(selected) > maxAnswerLength {
		return ValidationError{Field: "selected_answer", Message: fmt.Sprintf("answer must be at most %d characters", maxAnswerLength)}
	}
	return nil
}
