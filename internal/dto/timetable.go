package dto

import "github.com/noah-isme/sma-timetable-api/internal/models"

// GenerateTimetableRequest asks for a full regeneration of one mode.
type GenerateTimetableRequest struct {
	Mode string `json:"mode" validate:"required"`
}

// StreamGenerationSummary reports the outcome for one class stream.
type StreamGenerationSummary struct {
	ClassID       string `json:"classId"`
	ClassName     string `json:"className"`
	StreamID      string `json:"streamId"`
	StreamName    string `json:"streamName"`
	Bindings      int    `json:"bindings"`
	OpenSlots     int    `json:"openSlots"`
	FilledSlots   int    `json:"filledSlots"`
	LockedSlots   int    `json:"lockedSlots"`
	ForcedSlots   int    `json:"forcedSlots"`
	EmptyDemand   bool   `json:"emptyDemand"`
	UnfilledSlots int    `json:"unfilledSlots"`
}

// GenerateTimetableResponse summarises a completed generation run.
type GenerateTimetableResponse struct {
	Mode             models.TimetableMode      `json:"mode"`
	SlotCount        int                       `json:"slotCount"`
	DiscardedSlots   int                       `json:"discardedSlots"`
	Streams          []StreamGenerationSummary `json:"streams"`
	ForcedPlacements []models.ForcedPlacement  `json:"forcedPlacements"`
	EmptyDemand      []models.StreamKey        `json:"emptyDemand"`
	Degraded         bool                      `json:"degraded"`
}

// SetCellRequest overwrites a single open cell with a lesson.
type SetCellRequest struct {
	Mode        string `json:"mode" validate:"required"`
	ClassID     string `json:"classId" validate:"required"`
	StreamID    string `json:"streamId" validate:"required"`
	Day         int    `json:"day" validate:"required,min=1,max=5"`
	PeriodIndex int    `json:"periodIndex" validate:"min=0"`
	SubjectID   string `json:"subjectId" validate:"required"`
	TeacherID   string `json:"teacherId" validate:"required"`
}

// ClearCellRequest removes a single cell.
type ClearCellRequest struct {
	Mode        string `form:"mode" json:"mode" validate:"required"`
	ClassID     string `form:"classId" json:"classId" validate:"required"`
	StreamID    string `form:"streamId" json:"streamId" validate:"required"`
	Day         int    `form:"day" json:"day" validate:"required,min=1,max=5"`
	PeriodIndex int    `form:"periodIndex" json:"periodIndex" validate:"min=0"`
}

// CellWarning flags an accepted edit that breaks a generation constraint.
type CellWarning struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Cell warning codes.
const (
	WarningTeacherConflict = "TEACHER_CONFLICT"
	WarningTeacherUnbound  = "TEACHER_NOT_ASSIGNED"
	WarningSubjectDayCap   = "SUBJECT_DAY_CAP"
)

// SetCellResponse returns the stored slot along with non-blocking warnings.
type SetCellResponse struct {
	Slot     models.Slot   `json:"slot"`
	Warnings []CellWarning `json:"warnings"`
}

// TimetableQuery filters slots of a mode.
type TimetableQuery struct {
	Mode     string `form:"mode"`
	ClassID  string `form:"classId"`
	StreamID string `form:"streamId"`
}

// TeacherChoicesQuery narrows teacher suggestions for a cell edit.
type TeacherChoicesQuery struct {
	SubjectID string `form:"subjectId" validate:"required"`
	ClassID   string `form:"classId" validate:"required"`
}

// TeacherChoicesResponse lists the teachers offered to the operator.
type TeacherChoicesResponse struct {
	Teachers []models.Teacher `json:"teachers"`
	Fallback bool             `json:"fallback"`
}

// PeriodGridResponse exposes the period structure of a mode.
type PeriodGridResponse struct {
	Mode        models.TimetableMode      `json:"mode"`
	Periods     []models.PeriodDefinition `json:"periods"`
	OpenPerDay  int                       `json:"openPerDay"`
	OpenPerWeek int                       `json:"openPerWeek"`
}
