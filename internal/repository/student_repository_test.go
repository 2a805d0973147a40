package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/finalproject-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var studentRowColumns = []string{"id", "user_id", "first_name", "last_name", "student_id", "date_of_birth", "phone_number", "email",
	"address", "major", "year_enrolled", "graduation_year_estimate", "gpa", "status", "created_at", "updated_at"}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("s1", "u1", "Ana", "Lim", "2021001", now, "", "ana@example.com", "", "Informatics", 2021, nil, 3.5, "studying", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM students s WHERE 1=1 AND s.user_id = $1 AND s.status = $2 ORDER BY s.last_name ASC LIMIT 10 OFFSET 10")).
		WithArgs("u1", models.StudentStatusStudying).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s WHERE 1=1 AND s.user_id = $1 AND s.status = $2")).
		WithArgs("u1", models.StudentStatusStudying).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	students, total, err := repo.List(context.Background(), models.StudentFilter{
		ListQuery:   models.ListQuery{Page: 2, PageSize: 10, SortBy: "last_name", SortOrder: "asc"},
		Status:      models.StudentStatusStudying,
		OwnerUserID: "u1",
	})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 11, total)
	assert.Equal(t, "2021001", students[0].StudentID)
	require.NotNil(t, students[0].GPA)
	assert.InDelta(t, 3.5, *students[0].GPA, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListNoneSkipsQuery(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	students, total, err := repo.List(context.Background(), models.StudentFilter{None: true})
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListRejectsUnknownSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY s.created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(studentRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.StudentFilter{ListQuery: models.ListQuery{SortBy: "password; DROP TABLE students"}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{FirstName: "Ana", LastName: "Lim", StudentID: "2021001", Email: "ana@example.com", Major: "Informatics", YearEnrolled: 2021}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, models.StudentStatusStudying, student.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE email = $1 AND id <> $2 LIMIT 1")).
		WithArgs("ana@example.com", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsByEmail(context.Background(), "ana@example.com", "s1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
