package models

import (
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{
				ID:        "test-session",
				UserID:    1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			result := session.IsExpired()
			if result != tt.want {
				t.Errorf("Session.IsExpired() = %v, want %v", result, tt.want)
			}
		})
	}
}

func TestLessonType(t *testing.T) {
	tests := []struct {
		lessonType LessonType
		valid      bool
		icon       string
		label      string
	}{
		{LessonTypeNewGestures, true, "star", "New gestures"},
		{LessonTypeRepeatNew, true, "redo", "Repeat new"},
		{LessonTypeRepeatOld, true, "history", "Repeat old"},
		{LessonTypeFinalReview, true, "trophy", "Final review"},
		{LessonType("quiz"), false, "star", "Lesson"},
		{LessonType(""), false, "star", "Lesson"},
	}

	for _, tt := range tests {
		t.Run(string(tt.lessonType), func(t *testing.T) {
			if got := tt.lessonType.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.lessonType.Icon(); got != tt.icon {
				t.Errorf("Icon() = %v, want %v", got, tt.icon)
			}
			if got := tt.lessonType.Label(); got != tt.label {
				t.Errorf("Label() = %v, want %v", got, tt.label)
			}
			if tt.lessonType.Description() == "" {
				t.Error("Description() should never be empty")
			}
		})
	}
}

func TestUserLessonRecordIsCompleted(t *testing.T) {
	now := time.Now()

	record := UserLessonRecord{UserID: 1, LessonID: 1}
	if record.IsCompleted() {
		t.Error("record without completed_at should not be completed")
	}

	record.CompletedAt = &now
	if !record.IsCompleted() {
		t.Error("record with completed_at should be completed")
	}
}
