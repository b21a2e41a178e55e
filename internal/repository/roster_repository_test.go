package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestRosterRepositoryListStreams(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	rows := sqlmock.NewRows([]string{"class_id", "class_name", "stream_id", "stream_name", "mode"}).
		AddRow("g5", "Grade 5", "east", "East", "upper_primary").
		AddRow("g5", "Grade 5", "west", "West", "upper_primary")
	mock.ExpectQuery(regexp.QuoteMeta("FROM streams s")).
		WithArgs("upper_primary").
		WillReturnRows(rows)

	streams, err := repo.ListStreams(context.Background(), models.ModeUpperPrimary)
	require.NoError(t, err)
	require.Len(t, streams, 2)
	assert.Equal(t, models.StreamKey{ClassID: "g5", StreamID: "west"}, streams[1].Key())
	assert.Equal(t, models.ModeUpperPrimary, streams[0].Mode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryFindStreamNotFound(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.id = $1 AND s.id = $2")).
		WithArgs("g5", "south").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindStream(context.Background(), "g5", "south")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryListBindings(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	rows := sqlmock.NewRows([]string{"teacher_id", "teacher_name", "teacher_code", "subject_id", "subject_name", "class_id", "class_name", "stream_id", "stream_name"}).
		AddRow("t1", "Jane Wanjiru", "JW", "math", "Mathematics", "g7", "Grade 7", "blue", "Blue")
	mock.ExpectQuery(regexp.QuoteMeta("FROM teacher_assignments ta") + "(?s).*" + regexp.QuoteMeta("WHERE c.mode = $1")).
		WithArgs("junior").
		WillReturnRows(rows)

	bindings, err := repo.ListBindings(context.Background(), models.ModeJunior)
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, "JW", bindings[0].TeacherCode)
	assert.Equal(t, models.StreamKey{ClassID: "g7", StreamID: "blue"}, bindings[0].StreamKey())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryListBindingsBySubjectClass(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	rows := sqlmock.NewRows([]string{"teacher_id", "teacher_name", "teacher_code", "subject_id", "subject_name", "class_id", "class_name", "stream_id", "stream_name"})
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ta.subject_id = $1 AND ta.class_id = $2")).
		WithArgs("art", "g7").
		WillReturnRows(rows)

	bindings, err := repo.ListBindingsBySubjectClass(context.Background(), "art", "g7")
	require.NoError(t, err)
	assert.Empty(t, bindings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryTeachersAndSubjects(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, name FROM subjects WHERE id = $1")).
		WithArgs("math").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name"}).AddRow("math", "MAT", "Mathematics"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, code, active FROM teachers WHERE id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "code", "active"}).AddRow("t1", "Jane Wanjiru", "JW", true))
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE active = TRUE ORDER BY full_name ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "code", "active"}).
			AddRow("t2", "Amos Kirui", "AK", true).
			AddRow("t1", "Jane Wanjiru", "JW", true))

	subject, err := repo.FindSubject(context.Background(), "math")
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", subject.Name)

	teacher, err := repo.FindTeacher(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, teacher.Active)

	teachers, err := repo.ListActiveTeachers(context.Background())
	require.NoError(t, err)
	assert.Len(t, teachers, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
