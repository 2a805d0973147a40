package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/finalproject-api/internal/dto"
	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/policy"
	appErrors "github.com/noah-isme/finalproject-api/pkg/errors"
)

type fakeProjectSrv struct {
	lastFilter  models.ProjectFilter
	lastPayload dto.ProjectPayload
	lastFull    bool
	lastID      string
	err         error
}

func (f *fakeProjectSrv) List(_ context.Context, _ policy.Actor, filter models.ProjectFilter) ([]models.FinalProject, *models.Pagination, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, nil, f.err
	}
	return []models.FinalProject{{ID: "p-1", Title: "Thesis"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (f *fakeProjectSrv) Get(_ context.Context, _ policy.Actor, id string) (*models.FinalProject, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.FinalProject{ID: id}, nil
}

func (f *fakeProjectSrv) Create(_ context.Context, _ policy.Actor, payload dto.ProjectPayload) (*models.FinalProject, error) {
	f.lastPayload = payload
	if f.err != nil {
		return nil, f.err
	}
	return &models.FinalProject{ID: "p-new"}, nil
}

func (f *fakeProjectSrv) Update(_ context.Context, _ policy.Actor, id string, payload dto.ProjectPayload, full bool) (*models.FinalProject, error) {
	f.lastID, f.lastPayload, f.lastFull = id, payload, full
	if f.err != nil {
		return nil, f.err
	}
	return &models.FinalProject{ID: id}, nil
}

func (f *fakeProjectSrv) Delete(_ context.Context, _ policy.Actor, id string) error {
	f.lastID = id
	return f.err
}

func projectRouter(srv *fakeProjectSrv, actor policy.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewProjectHandler(srv)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("currentActor", actor)
		c.Next()
	})
	r.GET("/projects", h.List)
	r.POST("/projects", h.Create)
	r.GET("/projects/:id", h.Get)
	r.PUT("/projects/:id", h.Update)
	r.PATCH("/projects/:id", h.Patch)
	r.DELETE("/projects/:id", h.Delete)
	return r
}

func TestProjectHandlerListForwardsFilters(t *testing.T) {
	srv := &fakeProjectSrv{}
	r := projectRouter(srv, staffActor)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects?status=completed&advisor_id=a-1&search=graph&page=2&limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ProjectStatusCompleted, srv.lastFilter.Status)
	assert.Equal(t, "a-1", srv.lastFilter.AdvisorID)
	assert.Equal(t, "graph", srv.lastFilter.Search)
	assert.Equal(t, 2, srv.lastFilter.Page)
	assert.Equal(t, 5, srv.lastFilter.PageSize)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)
}

func TestProjectHandlerCreate(t *testing.T) {
	srv := &fakeProjectSrv{}
	r := projectRouter(srv, staffActor)

	body := `{"title":"Thesis","students":["s-1"],"advisor":null}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, srv.lastPayload.Title)
	assert.Equal(t, "Thesis", *srv.lastPayload.Title)
	assert.True(t, srv.lastPayload.Advisor.Set)
	assert.False(t, srv.lastPayload.Advisor.Valid)
	assert.Nil(t, srv.lastPayload.CommitteeMembers)
}

func TestProjectHandlerQuotaExceeded(t *testing.T) {
	quota := appErrors.FieldErrors{}
	quota.Add("advisor", "Advisor has reached the leading quota.")
	srv := &fakeProjectSrv{err: appErrors.WithFields(appErrors.ErrQuotaExceeded, "", quota)}
	r := projectRouter(srv, staffActor)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(`{"title":"x","students":["s-1"],"advisor":"a-1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrQuotaExceeded.Code, env.Error.Code)
	assert.Contains(t, env.Error.Fields, "advisor")
}

func TestProjectHandlerPutAndPatch(t *testing.T) {
	srv := &fakeProjectSrv{}
	r := projectRouter(srv, staffActor)

	for method, full := range map[string]bool{http.MethodPut: true, http.MethodPatch: false} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(method, "/projects/p-9", strings.NewReader(`{"status":"completed"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, method)
		assert.Equal(t, "p-9", srv.lastID)
		assert.Equal(t, full, srv.lastFull, method)
	}
}

func TestProjectHandlerHiddenProject(t *testing.T) {
	srv := &fakeProjectSrv{err: appErrors.ErrNotFound}
	r := projectRouter(srv, staffActor)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/p-2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectHandlerDelete(t *testing.T) {
	srv := &fakeProjectSrv{}
	r := projectRouter(srv, staffActor)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/projects/p-3", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "p-3", srv.lastID)
}
