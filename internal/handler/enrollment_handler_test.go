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

	"github.com/enrolldesk/enroll-api/internal/middleware"
	"github.com/enrolldesk/enroll-api/internal/models"
	"github.com/enrolldesk/enroll-api/internal/service"
	appErrors "github.com/enrolldesk/enroll-api/pkg/errors"
)

type enrollmentServiceMock struct {
	createResp    *models.Enrollment
	createErr     error
	updateResp    *models.UpdatedEnrollment
	updateErr     error
	listResp      []models.Enrollment
	listErr       error
	csvResp       []byte
	pdfResp       []byte
	lastAdminName string
	lastUpdateID  int64
	createCalled  bool
	updateCalled  bool
	listCalled    bool
}

func (m *enrollmentServiceMock) Create(ctx context.Context, req service.EnrollmentRequest, adminName string) (*models.Enrollment, error) {
	m.createCalled = true
	m.lastAdminName = adminName
	return m.createResp, m.createErr
}

func (m *enrollmentServiceMock) Update(ctx context.Context, id int64, req service.EnrollmentRequest) (*models.UpdatedEnrollment, error) {
	m.updateCalled = true
	m.lastUpdateID = id
	return m.updateResp, m.updateErr
}

func (m *enrollmentServiceMock) List(ctx context.Context) ([]models.Enrollment, error) {
	m.listCalled = true
	return m.listResp, m.listErr
}

func (m *enrollmentServiceMock) ExportCSV(ctx context.Context) ([]byte, error) {
	return m.csvResp, nil
}

func (m *enrollmentServiceMock) ExportPDF(ctx context.Context, title string) ([]byte, error) {
	return m.pdfResp, nil
}

func enrollmentPayload() []byte {
	payload, _ := json.Marshal(service.EnrollmentRequest{
		Name:       "A",
		Phone:      "9999999999",
		Email:      "a@x.com",
		SchoolName: "S",
		Class:      "10",
	})
	return payload
}

func operatorClaims() *models.JWTClaims {
	return &models.JWTClaims{OperatorID: "op-1", Email: "admin@x.com", FullName: "Admin"}
}

func TestEnrollmentHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &enrollmentServiceMock{
		createResp: &models.Enrollment{ID: 1, Name: "A", Phone: "9999999999", Email: "a@x.com", AdminName: "admin@x.com"},
	}
	handler := NewEnrollmentHandler(mockSvc, "Student Enrollments")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments", bytes.NewReader(enrollmentPayload()))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, operatorClaims())

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCalled)
	assert.Equal(t, "admin@x.com", mockSvc.lastAdminName)
	assert.Contains(t, w.Body.String(), `"message":"enrollment saved"`)
}

func TestEnrollmentHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEnrollmentHandler(&enrollmentServiceMock{}, "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments", bytes.NewBufferString(`{"name":"A"`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, operatorClaims())

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentHandlerCreateMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &enrollmentServiceMock{}
	handler := NewEnrollmentHandler(mockSvc, "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments", bytes.NewReader(enrollmentPayload()))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, mockSvc.createCalled)
}

func TestEnrollmentHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &enrollmentServiceMock{
		createErr: appErrors.Clone(appErrors.ErrConflict, "student already enrolled"),
	}
	handler := NewEnrollmentHandler(mockSvc, "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments", bytes.NewReader(enrollmentPayload()))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, operatorClaims())

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "student already enrolled")
}

func TestEnrollmentHandlerUpdate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &enrollmentServiceMock{
		updateResp: &models.UpdatedEnrollment{ID: 7, EnrollmentFields: models.EnrollmentFields{Name: "A2"}},
	}
	handler := NewEnrollmentHandler(mockSvc, "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/enrollments/7", bytes.NewReader(enrollmentPayload()))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	c.Set(middleware.ContextUserKey, operatorClaims())

	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.updateCalled)
	assert.Equal(t, int64(7), mockSvc.lastUpdateID)
}

func TestEnrollmentHandlerUpdateBadID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &enrollmentServiceMock{}
	handler := NewEnrollmentHandler(mockSvc, "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/enrollments/abc", bytes.NewReader(enrollmentPayload()))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Update(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.updateCalled)
}

func TestEnrollmentHandlerUpdateNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &enrollmentServiceMock{
		updateErr: appErrors.Clone(appErrors.ErrNotFound, "enrollment not found"),
	}
	handler := NewEnrollmentHandler(mockSvc, "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/enrollments/999", bytes.NewReader(enrollmentPayload()))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "999"}}

	handler.Update(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnrollmentHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &enrollmentServiceMock{
		listResp: []models.Enrollment{{ID: 2}, {ID: 1}},
	}
	handler := NewEnrollmentHandler(mockSvc, "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/enrollments", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.listCalled)

	var envelope struct {
		Data []models.Enrollment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, int64(2), envelope.Data[0].ID)
}

func TestEnrollmentHandlerListStoreError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &enrollmentServiceMock{listErr: appErrors.ErrInternal}
	handler := NewEnrollmentHandler(mockSvc, "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/enrollments", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestEnrollmentHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &enrollmentServiceMock{csvResp: []byte("ID,Name\n1,A\n")}
	handler := NewEnrollmentHandler(mockSvc, "Student Enrollments")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/enrollments/export?format=csv", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "enrollments.csv")
}

func TestEnrollmentHandlerExportUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEnrollmentHandler(&enrollmentServiceMock{}, "")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/enrollments/export?format=xlsx", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
