package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type rosterStub struct {
	streams     []models.ClassStream
	bindings    []models.DemandBinding
	subjects    map[string]models.Subject
	teachers    map[string]models.Teacher
	listErr     error
	bindingsErr error
}

func (r *rosterStub) ListStreams(ctx context.Context, mode models.TimetableMode) ([]models.ClassStream, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var result []models.ClassStream
	for _, stream := range r.streams {
		if stream.Mode == mode {
			result = append(result, stream)
		}
	}
	return result, nil
}

func (r *rosterStub) FindStream(ctx context.Context, classID, streamID string) (*models.ClassStream, error) {
	for _, stream := range r.streams {
		if stream.ClassID == classID && stream.StreamID == streamID {
			copied := stream
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *rosterStub) ListBindings(ctx context.Context, mode models.TimetableMode) ([]models.DemandBinding, error) {
	if r.bindingsErr != nil {
		return nil, r.bindingsErr
	}
	classModes := make(map[string]models.TimetableMode)
	for _, stream := range r.streams {
		classModes[stream.ClassID] = stream.Mode
	}
	var result []models.DemandBinding
	for _, binding := range r.bindings {
		if classModes[binding.ClassID] == mode {
			result = append(result, binding)
		}
	}
	return result, nil
}

func (r *rosterStub) ListBindingsBySubjectClass(ctx context.Context, subjectID, classID string) ([]models.DemandBinding, error) {
	if r.bindingsErr != nil {
		return nil, r.bindingsErr
	}
	var result []models.DemandBinding
	for _, binding := range r.bindings {
		if binding.SubjectID == subjectID && binding.ClassID == classID {
			result = append(result, binding)
		}
	}
	return result, nil
}

func (r *rosterStub) FindSubject(ctx context.Context, id string) (*models.Subject, error) {
	subject, ok := r.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &subject, nil
}

func (r *rosterStub) FindTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, ok := r.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &teacher, nil
}

func (r *rosterStub) ListActiveTeachers(ctx context.Context) ([]models.Teacher, error) {
	var result []models.Teacher
	for _, teacher := range r.teachers {
		if teacher.Active {
			result = append(result, teacher)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type gridStoreStub struct {
	mu         sync.Mutex
	slots      map[string]models.Slot
	loadErr    error
	replaceErr error
	upserts    int
	deletes    int
}

func newGridStoreStub(seed ...models.Slot) *gridStoreStub {
	store := &gridStoreStub{slots: make(map[string]models.Slot)}
	for _, slot := range seed {
		store.slots[slot.ID().Key()] = slot
	}
	return store
}

func (s *gridStoreStub) LoadAll(ctx context.Context, mode models.TimetableMode) ([]models.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	var result []models.Slot
	for _, slot := range s.slots {
		if slot.Mode == mode {
			result = append(result, slot)
		}
	}
	return result, nil
}

func (s *gridStoreStub) ReplaceAll(ctx context.Context, mode models.TimetableMode, slots []models.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return s.replaceErr
	}
	for key, slot := range s.slots {
		if slot.Mode == mode {
			delete(s.slots, key)
		}
	}
	for _, slot := range slots {
		s.slots[slot.ID().Key()] = slot
	}
	return nil
}

func (s *gridStoreStub) Upsert(ctx context.Context, id models.SlotID, slot models.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	s.slots[id.Key()] = slot
	return nil
}

func (s *gridStoreStub) Delete(ctx context.Context, id models.SlotID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	delete(s.slots, id.Key())
	return nil
}

func (s *gridStoreStub) get(id models.SlotID) (models.Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id.Key()]
	return slot, ok
}

func (s *gridStoreStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

type metricsStub struct {
	outcomes []string
	edits    []string
	warnings []string
}

func (m *metricsStub) ObserveGeneration(mode string, duration time.Duration, slots, forced int, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case forced > 0:
		outcome = "degraded"
	}
	m.outcomes = append(m.outcomes, mode+":"+outcome)
}

func (m *metricsStub) RecordCellEdit(mode, op string, warningCodes []string) {
	m.edits = append(m.edits, mode+":"+op)
	m.warnings = append(m.warnings, warningCodes...)
}

var errStoreDown = errors.New("store unavailable")

func classStream(mode models.TimetableMode, classID, streamID string) models.ClassStream {
	return models.ClassStream{
		ClassID:    classID,
		ClassName:  "Class " + classID,
		StreamID:   streamID,
		StreamName: "Stream " + streamID,
		Mode:       mode,
	}
}

func binding(stream models.ClassStream, teacherID, subjectID string) models.DemandBinding {
	return models.DemandBinding{
		TeacherID:   teacherID,
		TeacherName: "Teacher " + teacherID,
		TeacherCode: teacherID,
		SubjectID:   subjectID,
		SubjectName: "Subject " + subjectID,
		ClassID:     stream.ClassID,
		ClassName:   stream.ClassName,
		StreamID:    stream.StreamID,
		StreamName:  stream.StreamName,
	}
}
