package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farewellhq/event-pass-api/internal/models"
	"github.com/farewellhq/event-pass-api/internal/service"
	appErrors "github.com/farewellhq/event-pass-api/pkg/errors"
)

type fakeRosterSrv struct {
	students   []models.Student
	pagination *models.Pagination
	listErr    error
	lastFilter models.StudentFilter

	created   *models.Student
	createErr error

	classification *service.ClassificationResult
	classifyErr    error
}

func (f *fakeRosterSrv) List(_ context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	f.lastFilter = filter
	return f.students, f.pagination, f.listErr
}

func (f *fakeRosterSrv) Create(_ context.Context, _ service.CreateStudentRequest) (*models.Student, error) {
	return f.created, f.createErr
}

func (f *fakeRosterSrv) Classify(_ context.Context, _ []models.CandidateStudent) (*service.ClassificationResult, error) {
	return f.classification, f.classifyErr
}

type fakeExportSrv struct {
	file *service.ExportFile
	err  error
}

func (f *fakeExportSrv) Export(_ context.Context, _ string) (*service.ExportFile, error) {
	return f.file, f.err
}

func TestStudentHandlerListParsesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRosterSrv{
		students:   []models.Student{{ID: "s1", Name: "Asha Rao"}},
		pagination: &models.Pagination{Page: 2, PageSize: 10, TotalCount: 15},
	}
	h := NewStudentHandler(srv, &fakeExportSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students?search=asha&issued=false&page=2&limit=10&sort=name&order=asc", nil)
	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "asha", srv.lastFilter.Search)
	require.NotNil(t, srv.lastFilter.Issued)
	assert.False(t, *srv.lastFilter.Issued)
	assert.Equal(t, 2, srv.lastFilter.Page)
	assert.Equal(t, 10, srv.lastFilter.PageSize)
	assert.Equal(t, "name", srv.lastFilter.SortBy)

	var envelope struct {
		Data       []models.Student   `json:"data"`
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 1)
	assert.Equal(t, 15, envelope.Pagination.TotalCount)
}

func TestStudentHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRosterSrv{createErr: appErrors.Clone(appErrors.ErrConflict, "student with this email or roll number already exists")}
	h := NewStudentHandler(srv, &fakeExportSrv{})

	payload, _ := json.Marshal(service.CreateStudentRequest{Name: "Asha", Email: "asha@example.com", RollNumber: "R-001"})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/students", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStudentHandlerCreateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRosterSrv{created: &models.Student{ID: "s9", Name: "Chitra Devi"}}
	h := NewStudentHandler(srv, &fakeExportSrv{})

	payload, _ := json.Marshal(service.CreateStudentRequest{Name: "Chitra Devi", Email: "chitra@example.com", RollNumber: "R-400"})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/students", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestStudentHandlerClassify(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRosterSrv{classification: &service.ClassificationResult{
		Unique: []models.CandidateStudent{{Name: "New", Email: "new@example.com", RollNumber: "R-100"}},
		Duplicates: []service.DuplicateRecord{{
			Candidate:    models.CandidateStudent{Name: "Asha", Email: "asha@example.com", RollNumber: "R-001"},
			Reason:       service.DuplicateBoth,
			ConflictWith: models.StudentPublic{ID: "s1", Name: "Asha Rao"},
		}},
	}}
	h := NewStudentHandler(srv, &fakeExportSrv{})

	payload, _ := json.Marshal(BatchRequest{Students: []models.CandidateStudent{
		{Name: "New", Email: "new@example.com", RollNumber: "R-100"},
		{Name: "Asha", Email: "asha@example.com", RollNumber: "R-001"},
	}})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/students/classify", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Classify(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data service.ClassificationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Unique, 1)
	require.Len(t, envelope.Data.Duplicates, 1)
	assert.Equal(t, service.DuplicateBoth, envelope.Data.Duplicates[0].Reason)
}

func TestStudentHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewStudentHandler(&fakeRosterSrv{}, &fakeExportSrv{file: &service.ExportFile{
		Content:     []byte("Name,Email\n"),
		ContentType: "text/csv",
		Filename:    "students-2026-03-14.csv",
	}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/export?format=csv", nil)
	h.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "students-2026-03-14.csv")
	assert.Equal(t, "Name,Email\n", rec.Body.String())
}

func TestStudentHandlerExportUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewStudentHandler(&fakeRosterSrv{}, &fakeExportSrv{err: appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/export?format=xlsx", nil)
	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
