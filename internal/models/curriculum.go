package models

// Curriculum is the portable form of the catalog used for import and export
type Curriculum struct {
	Modules []CurriculumModule `json:"modules"`
}

// CurriculumModule is a module with its lessons
type CurriculumModule struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Order       int                `json:"order"`
	Lessons     []CurriculumLesson `json:"lessons"`
}

// CurriculumLesson is a lesson with its gestures in question order
type CurriculumLesson struct {
	Title    string              `json:"title"`
	Type     LessonType          `json:"type"`
	Order    int                 `json:"order"`
	Gestures []CurriculumGesture `json:"gestures"`
}

// CurriculumGesture is a gesture placed at Order within a lesson.
// An Order of 0 means the gesture's position in the list.
type CurriculumGesture struct {
	Word        string `json:"word"`
	Video       string `json:"video"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order,omitempty"`
}
