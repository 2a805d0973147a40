package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/models"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

type mockStudentRepo struct {
	students   map[string]models.Student
	lastFilter models.StudentFilter
	err        error
}

func newMockStudentRepo(students ...models.Student) *mockStudentRepo {
	m := &mockStudentRepo{students: map[string]models.Student{}}
	for _, s := range students {
		m.students[s.ID] = s
	}
	return m
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	if filter.None {
		return nil, 0, nil
	}
	var out []models.Student
	for _, s := range m.students {
		if filter.OwnerUserID != "" && (s.UserID == nil || *s.UserID != filter.OwnerUserID) {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *mockStudentRepo) ExistsByStudentID(ctx context.Context, studentID string, excludeID string) (bool, error) {
	for id, s := range m.students {
		if id != excludeID && s.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	for id, s := range m.students {
		if id != excludeID && s.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	student.ID = "s-new"
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if _, ok := m.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	return nil
}

func seededStudents() []models.Student {
	return []models.Student{
		{ID: studentAni, UserID: strRef("u-ani"), FirstName: "Ani", LastName: "Rahma", StudentID: "2101", Email: "ani@example.com", Major: "CS", YearEnrolled: 2021, Status: models.StudentStatusStudying},
		{ID: studentRudi, UserID: strRef("u-rudi"), FirstName: "Rudi", LastName: "Hartono", StudentID: "2102", Email: "rudi@example.com", Major: "CS", YearEnrolled: 2021, Status: models.StudentStatusStudying},
	}
}

func validStudentPayload() dto.StudentPayload {
	year := 2022
	return dto.StudentPayload{
		FirstName:    strRef("Citra"),
		LastName:     strRef("Dewi"),
		StudentID:    strRef("2201"),
		Email:        strRef("citra@example.com"),
		Major:        strRef("IS"),
		YearEnrolled: &year,
	}
}

func TestStudentServiceListScopesToOwnRow(t *testing.T) {
	repo := newMockStudentRepo(seededStudents()...)
	svc := NewStudentService(repo, nil, nil, nil)

	items, pagination, err := svc.List(context.Background(), aniActor, models.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, studentAni, items[0].ID)
	assert.Equal(t, "u-ani", repo.lastFilter.OwnerUserID)
	assert.Equal(t, 20, pagination.PageSize)

	items, _, err = svc.List(context.Background(), adminActor, models.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestStudentServiceGetHidesOtherStudents(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(seededStudents()...), nil, nil, nil)

	_, err := svc.Get(context.Background(), aniActor, studentRudi)
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = svc.Get(context.Background(), budiActor, studentRudi)
	requireCode(t, err, appErrors.ErrNotFound)

	student, err := svc.Get(context.Background(), aniActor, studentAni)
	require.NoError(t, err)
	assert.Equal(t, "Ani", student.FirstName)
}

func TestStudentServiceCreate(t *testing.T) {
	repo := newMockStudentRepo(seededStudents()...)
	invalidator := &countingInvalidator{}
	svc := NewStudentService(repo, nil, invalidator, nil)

	_, err := svc.Create(context.Background(), aniActor, validStudentPayload())
	requireCode(t, err, appErrors.ErrForbidden)

	student, err := svc.Create(context.Background(), adminActor, validStudentPayload())
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusStudying, student.Status)
	assert.Equal(t, 1, invalidator.calls)
}

func TestStudentServiceCreateCollectsFieldErrors(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(seededStudents()...), nil, nil, nil)

	payload := validStudentPayload()
	payload.StudentID = strRef("2101")
	payload.Email = strRef("ani@example.com")
	payload.GPA = dto.Of(4.5)
	payload.GraduationYearEstimate = dto.Of(2020)
	payload.Major = nil

	_, err := svc.Create(context.Background(), adminActor, payload)
	appErr := requireCode(t, err, appErrors.ErrValidation)
	for _, field := range []string{"student_id", "email", "gpa", "graduation_year_estimate", "major"} {
		assert.Contains(t, appErr.Fields, field)
	}
}

func TestStudentServiceUpdate(t *testing.T) {
	repo := newMockStudentRepo(seededStudents()...)
	svc := NewStudentService(repo, nil, nil, nil)

	updated, err := svc.Update(context.Background(), aniActor, studentAni, dto.StudentPayload{PhoneNumber: strRef("0812")}, false)
	require.NoError(t, err)
	assert.Equal(t, "0812", updated.PhoneNumber)
	assert.Equal(t, "Ani", updated.FirstName)

	_, err = svc.Update(context.Background(), aniActor, studentRudi, dto.StudentPayload{PhoneNumber: strRef("0812")}, false)
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = svc.Update(context.Background(), adminActor, studentAni, dto.StudentPayload{PhoneNumber: strRef("0813")}, true)
	appErr := requireCode(t, err, appErrors.ErrValidation)
	assert.Equal(t, []string{requiredMessage}, appErr.Fields["first_name"])

	// keeping your own email is not a conflict
	_, err = svc.Update(context.Background(), adminActor, studentAni, dto.StudentPayload{Email: strRef("ani@example.com")}, false)
	require.NoError(t, err)
}

func TestStudentServiceDelete(t *testing.T) {
	repo := newMockStudentRepo(seededStudents()...)
	svc := NewStudentService(repo, nil, nil, nil)

	requireCode(t, svc.Delete(context.Background(), aniActor, studentAni), appErrors.ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), adminActor, studentAni))
	requireCode(t, svc.Delete(context.Background(), adminActor, studentAni), appErrors.ErrNotFound)
}

func TestStudentServiceMalformedIDIsNotFound(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(seededStudents()...), nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, adminActor, "abc")
	requireCode(t, err, appErrors.ErrNotFound)

	_, err = svc.Update(ctx, adminActor, "abc", dto.StudentPayload{PhoneNumber: strRef("0812")}, false)
	requireCode(t, err, appErrors.ErrNotFound)

	requireCode(t, svc.Delete(ctx, adminActor, "abc"), appErrors.ErrNotFound)
}
