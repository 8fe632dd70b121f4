package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&LoginHistory{},
		&Course{},
		&Chapter{},
		&Lesson{},
		&Quiz{},
		&Question{},
		&Rubric{},
		&RubricCriterion{},
		&Assignment{},
		&Submission{},
		&ReleaseCondition{},
		&Announcement{},
		&Enrollment{},
		&LessonCompletion{},
	}
}
