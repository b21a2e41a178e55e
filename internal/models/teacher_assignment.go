package models

// TeacherAssignment links a teacher to a subject for one class stream.
type TeacherAssignment struct {
	ID        string `db:"id" json:"id"`
	TeacherID string `db:"teacher_id" json:"teacherId"`
	SubjectID string `db:"subject_id" json:"subjectId"`
	ClassID   string `db:"class_id" json:"classId"`
	StreamID  string `db:"stream_id" json:"streamId"`
}

// Roster bundles the registries consumed by the timetable core.
type Roster struct {
	Classes     []Class             `json:"classes"`
	Subjects    []Subject           `json:"subjects"`
	Teachers    []Teacher           `json:"teachers"`
	Assignments []TeacherAssignment `json:"assignments"`
}
