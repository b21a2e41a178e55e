package models

// Teacher is a staff member eligible for timetable lessons.
type Teacher struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"fullName"`
	Code     string `db:"code" json:"code"`
	Active   bool   `db:"active" json:"active"`
}
