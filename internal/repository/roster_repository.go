package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const bindingSelect = `
SELECT ta.teacher_id, t.full_name AS teacher_name, t.code AS teacher_code,
       ta.subject_id, sub.name AS subject_name,
       ta.class_id, c.name AS class_name,
       ta.stream_id, s.name AS stream_name
FROM teacher_assignments ta
JOIN teachers t ON t.id = ta.teacher_id
JOIN subjects sub ON sub.id = ta.subject_id
JOIN classes c ON c.id = ta.class_id
JOIN streams s ON s.id = ta.stream_id AND s.class_id = ta.class_id`

// RosterRepository reads classes, streams, subjects, teachers and teacher
// assignments from PostgreSQL.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ListStreams returns the class streams scheduled under mode.
func (r *RosterRepository) ListStreams(ctx context.Context, mode models.TimetableMode) ([]models.ClassStream, error) {
	const query = `
SELECT c.id AS class_id, c.name AS class_name, s.id AS stream_id, s.name AS stream_name, c.mode
FROM streams s
JOIN classes c ON c.id = s.class_id
WHERE c.mode = $1
ORDER BY c.name ASC, s.name ASC`
	var streams []models.ClassStream
	if err := r.db.SelectContext(ctx, &streams, query, string(mode)); err != nil {
		return nil, fmt.Errorf("list class streams: %w", err)
	}
	return streams, nil
}

// FindStream fetches a single class stream.
func (r *RosterRepository) FindStream(ctx context.Context, classID, streamID string) (*models.ClassStream, error) {
	const query = `
SELECT c.id AS class_id, c.name AS class_name, s.id AS stream_id, s.name AS stream_name, c.mode
FROM streams s
JOIN classes c ON c.id = s.class_id
WHERE c.id = $1 AND s.id = $2`
	var stream models.ClassStream
	if err := r.db.GetContext(ctx, &stream, query, classID, streamID); err != nil {
		return nil, err
	}
	return &stream, nil
}

// ListBindings returns the teacher assignments of every class in mode, in creation order.
func (r *RosterRepository) ListBindings(ctx context.Context, mode models.TimetableMode) ([]models.DemandBinding, error) {
	query := bindingSelect + `
WHERE c.mode = $1
ORDER BY ta.created_at ASC, ta.id ASC`
	var bindings []models.DemandBinding
	if err := r.db.SelectContext(ctx, &bindings, query, string(mode)); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return bindings, nil
}

// ListBindingsBySubjectClass returns the assignments of a subject in any stream of a class.
func (r *RosterRepository) ListBindingsBySubjectClass(ctx context.Context, subjectID, classID string) ([]models.DemandBinding, error) {
	query := bindingSelect + `
WHERE ta.subject_id = $1 AND ta.class_id = $2
ORDER BY ta.created_at ASC, ta.id ASC`
	var bindings []models.DemandBinding
	if err := r.db.SelectContext(ctx, &bindings, query, subjectID, classID); err != nil {
		return nil, fmt.Errorf("list subject assignments: %w", err)
	}
	return bindings, nil
}

// FindSubject fetches a subject by id.
func (r *RosterRepository) FindSubject(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, code, name FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindTeacher fetches a teacher by id.
func (r *RosterRepository) FindTeacher(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, full_name, code, active FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ListActiveTeachers returns active teachers ordered by name.
func (r *RosterRepository) ListActiveTeachers(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, full_name, code, active FROM teachers WHERE active = TRUE ORDER BY full_name ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list active teachers: %w", err)
	}
	return teachers, nil
}
