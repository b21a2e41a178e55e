package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

// MemoryRoster serves the registries from a roster document held in memory.
// Lookups of unknown ids return sql.ErrNoRows like the SQL-backed roster.
type MemoryRoster struct {
	streams  []models.ClassStream
	bindings []models.DemandBinding
	subjects map[string]models.Subject
	teachers map[string]models.Teacher
}

// LoadMemoryRoster reads a JSON roster document from disk.
func LoadMemoryRoster(path string) (*MemoryRoster, error) {
	store, err := storage.NewLocalStorage(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	var roster models.Roster
	if err := store.ReadJSON(filepath.Base(path), &roster); err != nil {
		return nil, fmt.Errorf("load roster %s: %w", path, err)
	}
	return NewMemoryRoster(roster)
}

// NewMemoryRoster indexes the roster and rejects assignments that reference
// unknown teachers, subjects, classes or streams.
func NewMemoryRoster(roster models.Roster) (*MemoryRoster, error) {
	m := &MemoryRoster{
		subjects: lo.KeyBy(roster.Subjects, func(s models.Subject) string { return s.ID }),
		teachers: lo.KeyBy(roster.Teachers, func(t models.Teacher) string { return t.ID }),
	}

	streams := make(map[models.StreamKey]models.ClassStream)
	for _, class := range roster.Classes {
		mode, ok := models.ParseTimetableMode(string(class.Mode))
		if !ok {
			return nil, fmt.Errorf("class %s: unknown timetable mode %q", class.ID, class.Mode)
		}
		for _, stream := range class.Streams {
			cs := models.ClassStream{
				ClassID:    class.ID,
				ClassName:  class.Name,
				StreamID:   stream.ID,
				StreamName: stream.Name,
				Mode:       mode,
			}
			streams[cs.Key()] = cs
			m.streams = append(m.streams, cs)
		}
	}
	sort.SliceStable(m.streams, func(i, j int) bool {
		if m.streams[i].ClassName != m.streams[j].ClassName {
			return m.streams[i].ClassName < m.streams[j].ClassName
		}
		return m.streams[i].StreamName < m.streams[j].StreamName
	})

	for _, assignment := range roster.Assignments {
		teacher, ok := m.teachers[assignment.TeacherID]
		if !ok {
			return nil, fmt.Errorf("assignment %s: unknown teacher %q", assignment.ID, assignment.TeacherID)
		}
		subject, ok := m.subjects[assignment.SubjectID]
		if !ok {
			return nil, fmt.Errorf("assignment %s: unknown subject %q", assignment.ID, assignment.SubjectID)
		}
		stream, ok := streams[models.StreamKey{ClassID: assignment.ClassID, StreamID: assignment.StreamID}]
		if !ok {
			return nil, fmt.Errorf("assignment %s: unknown stream %s/%s", assignment.ID, assignment.ClassID, assignment.StreamID)
		}
		m.bindings = append(m.bindings, models.DemandBinding{
			TeacherID:   teacher.ID,
			TeacherName: teacher.FullName,
			TeacherCode: teacher.Code,
			SubjectID:   subject.ID,
			SubjectName: subject.Name,
			ClassID:     stream.ClassID,
			ClassName:   stream.ClassName,
			StreamID:    stream.StreamID,
			StreamName:  stream.StreamName,
		})
	}
	return m, nil
}

// ListStreams returns the class streams scheduled under mode.
func (m *MemoryRoster) ListStreams(ctx context.Context, mode models.TimetableMode) ([]models.ClassStream, error) {
	return lo.Filter(m.streams, func(s models.ClassStream, _ int) bool { return s.Mode == mode }), nil
}

// FindStream fetches a single class stream.
func (m *MemoryRoster) FindStream(ctx context.Context, classID, streamID string) (*models.ClassStream, error) {
	stream, ok := lo.Find(m.streams, func(s models.ClassStream) bool {
		return s.ClassID == classID && s.StreamID == streamID
	})
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &stream, nil
}

// ListBindings returns the assignments of every class in mode, in document order.
func (m *MemoryRoster) ListBindings(ctx context.Context, mode models.TimetableMode) ([]models.DemandBinding, error) {
	inMode := lo.SliceToMap(lo.Filter(m.streams, func(s models.ClassStream, _ int) bool { return s.Mode == mode }),
		func(s models.ClassStream) (models.StreamKey, struct{}) { return s.Key(), struct{}{} })
	return lo.Filter(m.bindings, func(b models.DemandBinding, _ int) bool {
		_, ok := inMode[b.StreamKey()]
		return ok
	}), nil
}

// ListBindingsBySubjectClass returns the assignments of a subject in any stream of a class.
func (m *MemoryRoster) ListBindingsBySubjectClass(ctx context.Context, subjectID, classID string) ([]models.DemandBinding, error) {
	return lo.Filter(m.bindings, func(b models.DemandBinding, _ int) bool {
		return b.SubjectID == subjectID && b.ClassID == classID
	}), nil
}

// FindSubject fetches a subject by id.
func (m *MemoryRoster) FindSubject(ctx context.Context, id string) (*models.Subject, error) {
	subject, ok := m.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &subject, nil
}

// FindTeacher fetches a teacher by id.
func (m *MemoryRoster) FindTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, ok := m.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &teacher, nil
}

// ListActiveTeachers returns active teachers ordered by name.
func (m *MemoryRoster) ListActiveTeachers(ctx context.Context) ([]models.Teacher, error) {
	active := lo.Filter(lo.Values(m.teachers), func(t models.Teacher, _ int) bool { return t.Active })
	sort.Slice(active, func(i, j int) bool {
		a, b := strings.ToLower(active[i].FullName), strings.ToLower(active[j].FullName)
		if a != b {
			return a < b
		}
		return active[i].ID < active[j].ID
	})
	return active, nil
}
