package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type subjectReader interface {
	FindSubject(ctx context.Context, id string) (*models.Subject, error)
}

type teacherDirectory interface {
	FindTeacher(ctx context.Context, id string) (*models.Teacher, error)
	ListActiveTeachers(ctx context.Context) ([]models.Teacher, error)
}

// TimetableEditorService applies manual single-cell edits to a generated timetable.
type TimetableEditorService struct {
	grids            *PeriodGrids
	streams          streamCatalog
	demand           demandRegistry
	subjects         subjectReader
	teachers         teacherDirectory
	store            GridStore
	metrics          timetableMetrics
	validator        *validator.Validate
	logger           *zap.Logger
	maxSubjectPerDay int
	now              func() time.Time
}

// NewTimetableEditorService wires editor dependencies.
func NewTimetableEditorService(
	grids *PeriodGrids,
	streams streamCatalog,
	demand demandRegistry,
	subjects subjectReader,
	teachers teacherDirectory,
	store GridStore,
	metrics timetableMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	maxSubjectPerDay int,
) *TimetableEditorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSubjectPerDay <= 0 {
		maxSubjectPerDay = 2
	}
	return &TimetableEditorService{
		grids:            grids,
		streams:          streams,
		demand:           demand,
		subjects:         subjects,
		teachers:         teachers,
		store:            store,
		metrics:          metrics,
		validator:        validate,
		logger:           logger,
		maxSubjectPerDay: maxSubjectPerDay,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Set overwrites one open cell with a lesson. Locked periods are rejected.
// Teacher clashes in other streams do not block the edit; they are returned as warnings.
func (s *TimetableEditorService) Set(ctx context.Context, req dto.SetCellRequest) (*dto.SetCellResponse, error) {
	req.SubjectID = strings.TrimSpace(req.SubjectID)
	req.TeacherID = strings.TrimSpace(req.TeacherID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "subject and teacher are required")
	}
	mode, _, err := s.grids.Resolve(req.Mode)
	if err != nil {
		return nil, err
	}
	period, err := s.grids.Period(mode, req.PeriodIndex)
	if err != nil {
		return nil, err
	}
	id := models.SlotID{Mode: mode, ClassID: req.ClassID, StreamID: req.StreamID, Day: req.Day, PeriodIndex: req.PeriodIndex}
	if period.Locked {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is locked (%s)", describeSlot(id), period.Label))
	}

	stream, err := s.streams.FindStream(ctx, req.ClassID, req.StreamID)
	if err != nil {
		return nil, lookupError(err, "class stream not found", "failed to load class stream")
	}
	if stream.Mode != "" && stream.Mode != mode {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("class %s is scheduled under mode %s", stream.ClassName, stream.Mode))
	}
	subject, err := s.subjects.FindSubject(ctx, req.SubjectID)
	if err != nil {
		return nil, lookupError(err, "subject not found", "failed to load subject")
	}
	teacher, err := s.teachers.FindTeacher(ctx, req.TeacherID)
	if err != nil {
		return nil, lookupError(err, "teacher not found", "failed to load teacher")
	}

	existing, err := s.store.LoadAll(ctx, mode)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load timetable")
	}

	slot := models.Slot{
		Mode:        mode,
		ClassID:     stream.ClassID,
		ClassName:   stream.ClassName,
		StreamID:    stream.StreamID,
		StreamName:  stream.StreamName,
		Day:         req.Day,
		PeriodIndex: req.PeriodIndex,
		TimeStart:   period.Start,
		TimeEnd:     period.End,
		SubjectID:   subject.ID,
		SubjectName: subject.Name,
		TeacherID:   teacher.ID,
		TeacherName: teacher.FullName,
		TeacherCode: teacher.Code,
		UpdatedAt:   s.now(),
	}

	warnings, err := s.warnings(ctx, slot, existing)
	if err != nil {
		return nil, err
	}

	if err := s.store.Upsert(ctx, id, slot); err != nil {
		return nil, appErrors.Internal(err, "failed to save timetable cell")
	}

	codes := lo.Map(warnings, func(w dto.CellWarning, _ int) string { return w.Code })
	if s.metrics != nil {
		s.metrics.RecordCellEdit(string(mode), "set", codes)
	}
	s.logger.Info("timetable cell set",
		zap.String("slot", id.Key()),
		zap.String("subject_id", slot.SubjectID),
		zap.String("teacher_id", slot.TeacherID),
		zap.Strings("warnings", codes),
	)
	return &dto.SetCellResponse{Slot: slot, Warnings: warnings}, nil
}

func (s *TimetableEditorService) warnings(ctx context.Context, slot models.Slot, existing []models.Slot) ([]dto.CellWarning, error) {
	id := slot.ID()
	warnings := make([]dto.CellWarning, 0)

	clashes := lo.Filter(existing, func(other models.Slot, _ int) bool {
		return other.TeacherID == slot.TeacherID &&
			other.Day == slot.Day &&
			other.PeriodIndex == slot.PeriodIndex &&
			other.StreamKey() != id.StreamKey()
	})
	for _, clash := range clashes {
		warnings = append(warnings, dto.CellWarning{
			Code:    dto.WarningTeacherConflict,
			Message: fmt.Sprintf("%s already teaches %s %s at this time", slot.TeacherName, clash.ClassName, clash.StreamName),
			Meta: map[string]any{
				"classId":   clash.ClassID,
				"streamId":  clash.StreamID,
				"subjectId": clash.SubjectID,
			},
		})
	}

	sameDay := lo.CountBy(existing, func(other models.Slot) bool {
		return other.StreamKey() == id.StreamKey() &&
			other.Day == slot.Day &&
			other.PeriodIndex != slot.PeriodIndex &&
			other.SubjectID == slot.SubjectID
	})
	if sameDay >= s.maxSubjectPerDay {
		warnings = append(warnings, dto.CellWarning{
			Code:    dto.WarningSubjectDayCap,
			Message: fmt.Sprintf("%s already has %d lessons on %s", slot.SubjectName, sameDay, models.DayName(slot.Day)),
			Meta:    map[string]any{"count": sameDay, "limit": s.maxSubjectPerDay},
		})
	}

	bindings, err := s.demand.ListBindingsBySubjectClass(ctx, slot.SubjectID, slot.ClassID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load teacher assignments")
	}
	if !lo.ContainsBy(bindings, func(b models.DemandBinding) bool { return b.TeacherID == slot.TeacherID }) {
		warnings = append(warnings, dto.CellWarning{
			Code:    dto.WarningTeacherUnbound,
			Message: fmt.Sprintf("%s is not assigned to teach %s in %s", slot.TeacherName, slot.SubjectName, slot.ClassName),
		})
	}
	return warnings, nil
}

// Clear removes one cell. Absent cells and locked periods are left alone.
func (s *TimetableEditorService) Clear(ctx context.Context, req dto.ClearCellRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable cell")
	}
	mode, _, err := s.grids.Resolve(req.Mode)
	if err != nil {
		return err
	}
	period, err := s.grids.Period(mode, req.PeriodIndex)
	if err != nil {
		return err
	}
	id := models.SlotID{Mode: mode, ClassID: req.ClassID, StreamID: req.StreamID, Day: req.Day, PeriodIndex: req.PeriodIndex}
	if period.Locked {
		s.logger.Debug("ignoring clear of locked period", zap.String("slot", id.Key()))
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to clear timetable cell")
	}
	if s.metrics != nil {
		s.metrics.RecordCellEdit(string(mode), "clear", nil)
	}
	s.logger.Info("timetable cell cleared", zap.String("slot", id.Key()))
	return nil
}

// TeacherChoices narrows the teachers offered for a subject in a class to those
// assigned to it, falling back to every active teacher when none is.
func (s *TimetableEditorService) TeacherChoices(ctx context.Context, query dto.TeacherChoicesQuery) (*dto.TeacherChoicesResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "subjectId and classId are required")
	}
	active, err := s.teachers.ListActiveTeachers(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load teachers")
	}
	bindings, err := s.demand.ListBindingsBySubjectClass(ctx, query.SubjectID, query.ClassID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load teacher assignments")
	}

	assigned := lo.SliceToMap(bindings, func(b models.DemandBinding) (string, struct{}) {
		return b.TeacherID, struct{}{}
	})
	choices := lo.Filter(active, func(t models.Teacher, _ int) bool {
		_, ok := assigned[t.ID]
		return ok
	})
	fallback := len(choices) == 0
	if fallback {
		choices = append([]models.Teacher(nil), active...)
	}
	sort.SliceStable(choices, func(i, j int) bool {
		return strings.ToLower(choices[i].FullName) < strings.ToLower(choices[j].FullName)
	})
	return &dto.TeacherChoicesResponse{Teachers: choices, Fallback: fallback}, nil
}

func lookupError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}

func describeSlot(id models.SlotID) string {
	return fmt.Sprintf("%s %s/%s %s period %d", id.Mode, id.ClassID, id.StreamID, models.DayName(id.Day), id.PeriodIndex)
}
