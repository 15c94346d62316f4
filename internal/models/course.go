package models

// Course represents a course in the catalog with its ordered lessons
type Course struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons,omitempty"`
}

// Lesson represents a lesson in a course. Order is a dense integer starting
// at 1 and unique within the course; lessons are totally ordered by it.
type Lesson struct {
	ID              int    `json:"id"`
	CourseID        int    `json:"courseId,omitempty"`
	Title           string `json:"title"`
	Order           int    `json:"order"`
	DurationMinutes int    `json:"durationMinutes"`
}

// LessonListItem represents a lesson in user-facing lists, with unlock and
// completion state derived from the enrollment's completed-lesson set
type LessonListItem struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	Completed bool   `json:"completed"`
	Unlocked  bool   `json:"unlocked"`
}
