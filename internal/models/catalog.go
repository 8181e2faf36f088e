package models

// LessonType classifies a lesson within its module
type LessonType string

const (
	LessonTypeNewGestures LessonType = "new_gestures"
	LessonTypeRepeatNew   LessonType = "repeat_new"
	LessonTypeRepeatOld   LessonType = "repeat_old"
	LessonTypeFinalReview LessonType = "final_review"
)

// Valid reports whether t is one of the known lesson types
func (t LessonType) Valid() bool {
	switch t {
	case LessonTypeNewGestures, LessonTypeRepeatNew, LessonTypeRepeatOld, LessonTypeFinalReview:
		return true
	}
	return false
}

// Label returns the display name of the lesson type
func (t LessonType) Label() string {
	switch t {
	case LessonTypeNewGestures:
		return "New gestures"
	case LessonTypeRepeatNew:
		return "Repeat new"
	case LessonTypeRepeatOld:
		return "Repeat old"
	case LessonTypeFinalReview:
		return "Final review"
	}
	return "Lesson"
}

// Icon returns the icon name shown next to the lesson
func (t LessonType) Icon() string {
	switch t {
	case LessonTypeRepeatNew:
		return "redo"
	case LessonTypeRepeatOld:
		return "history"
	case LessonTypeFinalReview:
		return "trophy"
	}
	return "star"
}

// Description returns a one-line summary of what the lesson type practices
func (t LessonType) Description() string {
	switch t {
	case LessonTypeNewGestures:
		return "Learn new gestures"
	case LessonTypeRepeatNew:
		return "Reinforce this module's gestures"
	case LessonTypeRepeatOld:
		return "Review earlier gestures"
	case LessonTypeFinalReview:
		return "Module final test"
	}
	return "Lesson"
}

// Module is a top-level curriculum unit containing ordered lessons
type Module struct {
	ID          int64  `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	OrderIndex  int    `db:"order_index" json:"order_index"`
}

// Lesson is an ordered sequence of gesture questions within a module
type Lesson struct {
	ID         int64      `db:"id" json:"id"`
	ModuleID   int64      `db:"module_id" json:"module_id"`
	Title      string     `db:"title" json:"title"`
	LessonType LessonType `db:"lesson_type" json:"lesson_type"`
	OrderIndex int        `db:"order_index" json:"order_index"`
}

// Gesture is a single vocabulary item with a demonstration video
type Gesture struct {
	ID             int64  `db:"id" json:"id"`
	Word           string `db:"word" json:"word"`
	VideoReference string `db:"video_reference" json:"video_reference"`
	Description    string `db:"description" json:"description"`
}

// LessonGesture places a gesture at a position within a lesson
type LessonGesture struct {
	LessonID   int64 `db:"lesson_id" json:"lesson_id"`
	GestureID  int64 `db:"gesture_id" json:"gesture_id"`
	OrderIndex int   `db:"order_index" json:"order_index"`
}
