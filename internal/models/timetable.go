package models

import (
	"fmt"
	"strings"
	"time"
)

// TimetableMode selects one of the fixed daily period structures.
type TimetableMode string

const (
	ModeUpperPrimary TimetableMode = "upper_primary"
	ModeJunior       TimetableMode = "junior"
	ModeECDE         TimetableMode = "ecde"
)

// TimetableModes lists the supported modes in display order.
var TimetableModes = []TimetableMode{ModeUpperPrimary, ModeJunior, ModeECDE}

// Valid reports whether the mode is part of the closed set.
func (m TimetableMode) Valid() bool {
	for _, mode := range TimetableModes {
		if m == mode {
			return true
		}
	}
	return false
}

// ParseTimetableMode normalises raw input such as "Upper-Primary".
func ParseTimetableMode(raw string) (TimetableMode, bool) {
	normalised := strings.ToLower(strings.TrimSpace(raw))
	normalised = strings.ReplaceAll(normalised, "-", "_")
	mode := TimetableMode(normalised)
	return mode, mode.Valid()
}

// School week runs Monday through Friday.
const (
	FirstSchoolDay = 1
	LastSchoolDay  = 5
	SchoolDays     = LastSchoolDay - FirstSchoolDay + 1
)

var schoolDayNames = map[int]string{
	1: "MONDAY",
	2: "TUESDAY",
	3: "WEDNESDAY",
	4: "THURSDAY",
	5: "FRIDAY",
}

// DayName returns the upper-case weekday name for a school day index.
func DayName(day int) string {
	return schoolDayNames[day]
}

// ValidSchoolDay reports whether day falls within Monday-Friday.
func ValidSchoolDay(day int) bool {
	return day >= FirstSchoolDay && day <= LastSchoolDay
}

// SlotID addresses one cell of the weekly grid.
type SlotID struct {
	Mode        TimetableMode `json:"mode"`
	ClassID     string        `json:"classId"`
	StreamID    string        `json:"streamId"`
	Day         int           `json:"day"`
	PeriodIndex int           `json:"periodIndex"`
}

// Key renders the identifier as a flat storage key.
func (id SlotID) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d|%d", id.Mode, id.ClassID, id.StreamID, id.Day, id.PeriodIndex)
}

// StreamKey identifies the class/stream group the slot belongs to.
func (id SlotID) StreamKey() StreamKey {
	return StreamKey{ClassID: id.ClassID, StreamID: id.StreamID}
}

// StreamKey groups demand and slots per class stream.
type StreamKey struct {
	ClassID  string `json:"classId"`
	StreamID string `json:"streamId"`
}

// Slot is one generated or edited timetable cell.
type Slot struct {
	Mode        TimetableMode `db:"mode" json:"mode"`
	ClassID     string        `db:"class_id" json:"classId"`
	ClassName   string        `db:"class_name" json:"className"`
	StreamID    string        `db:"stream_id" json:"streamId"`
	StreamName  string        `db:"stream_name" json:"streamName"`
	Day         int           `db:"day" json:"day"`
	PeriodIndex int           `db:"period_index" json:"periodIndex"`
	TimeStart   string        `db:"time_start" json:"timeStart"`
	TimeEnd     string        `db:"time_end" json:"timeEnd"`
	SubjectID   string        `db:"subject_id" json:"subjectId,omitempty"`
	SubjectName string        `db:"subject_name" json:"subjectName,omitempty"`
	TeacherID   string        `db:"teacher_id" json:"teacherId,omitempty"`
	TeacherName string        `db:"teacher_name" json:"teacherName,omitempty"`
	TeacherCode string        `db:"teacher_code" json:"teacherCode,omitempty"`
	IsLocked    bool          `db:"is_locked" json:"isLocked"`
	Label       string        `db:"label" json:"label,omitempty"`
	Forced      bool          `db:"forced" json:"forced,omitempty"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}

// ID returns the slot identifier.
func (s Slot) ID() SlotID {
	return SlotID{Mode: s.Mode, ClassID: s.ClassID, StreamID: s.StreamID, Day: s.Day, PeriodIndex: s.PeriodIndex}
}

// StreamKey returns the class/stream group of the slot.
func (s Slot) StreamKey() StreamKey {
	return StreamKey{ClassID: s.ClassID, StreamID: s.StreamID}
}

// Filled reports whether an open slot carries a lesson.
func (s Slot) Filled() bool {
	return !s.IsLocked && s.SubjectID != "" && s.TeacherID != ""
}

// DemandBinding is one teacher/subject obligation for a class stream.
type DemandBinding struct {
	TeacherID   string `db:"teacher_id" json:"teacherId"`
	TeacherName string `db:"teacher_name" json:"teacherName"`
	TeacherCode string `db:"teacher_code" json:"teacherCode"`
	SubjectID   string `db:"subject_id" json:"subjectId"`
	SubjectName string `db:"subject_name" json:"subjectName"`
	ClassID     string `db:"class_id" json:"classId"`
	ClassName   string `db:"class_name" json:"className"`
	StreamID    string `db:"stream_id" json:"streamId"`
	StreamName  string `db:"stream_name" json:"streamName"`
}

// StreamKey returns the scheduling group of the binding.
func (b DemandBinding) StreamKey() StreamKey {
	return StreamKey{ClassID: b.ClassID, StreamID: b.StreamID}
}

// Forced placement reasons.
const (
	ReasonTeacherDoubleBooked = "TEACHER_DOUBLE_BOOKED"
	ReasonSubjectDayCap       = "SUBJECT_DAY_CAP"
)

// ForcedPlacement records a slot filled in spite of a violated constraint.
type ForcedPlacement struct {
	Slot      SlotID   `json:"slot"`
	SubjectID string   `json:"subjectId"`
	TeacherID string   `json:"teacherId"`
	Reasons   []string `json:"reasons"`
}
