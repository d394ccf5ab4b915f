package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook/internal/middleware"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	"github.com/noah-isme/sma-gradebook/internal/service"
	"github.com/noah-isme/sma-gradebook/pkg/storage"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewStore(repository.NewMemorySink(), nil, nil)
	require.NoError(t, store.Load(context.Background()))
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	teachers := service.NewTeacherService(store, nil, nil)
	auth := service.NewAuthService(store, nil, nil, service.AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour})
	reports := service.NewReportService(store, service.DefaultPassThreshold, nil)
	exports := service.NewExportService(reports, files, storage.NewSignedURLSigner("dl-secret", time.Hour), service.ExportConfig{APIPrefix: "/api/v1"}, nil)

	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), Handlers{
		Auth:        NewAuthHandler(auth, teachers),
		Teachers:    NewTeacherHandler(teachers),
		Students:    NewStudentHandler(service.NewStudentService(store, nil, nil)),
		Classes:     NewClassHandler(service.NewClassService(store, nil, nil)),
		Enrollments: NewEnrollmentHandler(service.NewEnrollmentService(store, nil), service.NewRosterImportService(store, nil, nil)),
		Activities:  NewActivityHandler(service.NewActivityService(store, nil, nil)),
		Grades:      NewGradeHandler(service.NewGradeService(store, nil)),
		Reports:     NewReportHandler(reports, exports),
	}, middleware.JWT(auth), nil)
	return &apiClient{t: t, router: r}
}

func (a *apiClient) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func urlf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

func (a *apiClient) createID(path string, body interface{}) int {
	a.t.Helper()
	w, env := a.do(http.MethodPost, path, body)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		ID int `json:"id"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &out))
	return out.ID
}

func (a *apiClient) signIn() {
	a.t.Helper()
	w, _ := a.do(http.MethodPost, "/auth/register", map[string]string{"name": "Sri", "registration_code": "T01", "password": "secret"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	w, env := a.do(http.MethodPost, "/auth/login", map[string]string{"registration_code": "T01", "password": "secret"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &login))
	a.token = login.AccessToken
}

func TestAPIRequiresToken(t *testing.T) {
	api := newAPI(t)
	w, env := api.do(http.MethodGet, "/students", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	w, _ = api.do(http.MethodPost, "/auth/login", map[string]string{"registration_code": "T01", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIGradebookFlow(t *testing.T) {
	api := newAPI(t)
	api.signIn()

	classID := api.createID("/classes", map[string]string{"name": "C1"})
	s1 := api.createID("/students", map[string]string{"name": "Ana", "registration_code": "S1"})
	s2 := api.createID("/students", map[string]string{"name": "Budi", "registration_code": "S2"})
	quiz := api.createID("/activities", map[string]interface{}{"class_id": classID, "name": "Quiz"})

	w, env := api.do(http.MethodPost, "/students", map[string]string{"name": "Copy", "registration_code": "s1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_KEY", env.Error.Code)

	for _, sid := range []int{s1, s2} {
		w, _ = api.do(http.MethodPost, urlf("/classes/%d/students/%d", classID, sid), nil)
		require.Equal(t, http.StatusNoContent, w.Code)
	}
	w, env = api.do(http.MethodPost, urlf("/classes/%d/students/%d", classID, s1), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_ENROLLED", env.Error.Code)

	w, _ = api.do(http.MethodPut, urlf("/activities/%d/grades/%d", quiz, s1), map[string]float64{"grade": 8})
	require.Equal(t, http.StatusNoContent, w.Code)
	w, _ = api.do(http.MethodPut, urlf("/activities/%d/grades/%d", quiz, s2), map[string]float64{"grade": 4})
	require.Equal(t, http.StatusNoContent, w.Code)
	w, env = api.do(http.MethodPut, urlf("/activities/%d/grades/%d", quiz, s2), map[string]float64{"grade": 10.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	w, _ = api.do(http.MethodPut, urlf("/activities/%d/grades/%d", quiz, s2), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = api.do(http.MethodGet, urlf("/classes/%d/ranking", classID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ranking struct {
		Best  struct{ ID int } `json:"best"`
		Worst struct{ ID int } `json:"worst"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ranking))
	assert.Equal(t, s1, ranking.Best.ID)
	assert.Equal(t, s2, ranking.Worst.ID)

	w, _ = api.do(http.MethodGet, urlf("/classes/%d/report/text", classID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "S1 - Ana -> Quiz: 8")

	w, env = api.do(http.MethodGet, urlf("/students/%d/standing", s2), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"standing":"FAIL"`)

	w, env = api.do(http.MethodDelete, urlf("/classes/%d/students/%d", classID, s2), nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w, env = api.do(http.MethodDelete, urlf("/classes/%d/students/%d", classID, s2), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "NOT_ENROLLED", env.Error.Code)

	w, env = api.do(http.MethodGet, urlf("/classes/%d/students/%d/average", classID, s2), nil)
	assert.Equal(t, "NOT_ENROLLED", env.Error.Code)

	w, env = api.do(http.MethodGet, "/students/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestAPIExportAndDownload(t *testing.T) {
	api := newAPI(t)
	api.signIn()
	classID := api.createID("/classes", map[string]string{"name": "C1"})
	s1 := api.createID("/students", map[string]string{"name": "Ana", "registration_code": "S1"})
	w, _ := api.do(http.MethodPost, urlf("/classes/%d/students/%d", classID, s1), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w, env := api.do(http.MethodPost, urlf("/classes/%d/report/export?format=csv", classID), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.True(t, strings.HasPrefix(result.URL, "/api/v1/reports/download?token="))

	api.token = ""
	req := httptest.NewRequest(http.MethodGet, result.URL, nil)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, rec.Body.String(), "S1,Ana")

	w, _ = api.do(http.MethodGet, "/reports/download?token=forged", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	api.signInAgain()
	w, env = api.do(http.MethodPost, urlf("/classes/%d/report/export?format=docx", classID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (a *apiClient) signInAgain() {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/auth/login", map[string]string{"registration_code": "T01", "password": "secret"})
	require.Equal(a.t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &login))
	a.token = login.AccessToken
}

func TestAPITeacherMayOnlyChangeSelf(t *testing.T) {
	api := newAPI(t)
	api.signIn()
	w, _ := api.do(http.MethodPost, "/auth/register", map[string]string{"name": "Agus", "registration_code": "T02", "password": "secret"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = api.do(http.MethodDelete, "/teachers/2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, env := api.do(http.MethodPut, "/teachers/1", map[string]string{"name": "Sri W"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Sri W")

	w, env = api.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, string(env.Data), "password")
}

func TestAPITokenRevokedWhenAccountDeleted(t *testing.T) {
	api := newAPI(t)
	api.signIn()

	w, _ := api.do(http.MethodDelete, "/teachers/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w, env := api.do(http.MethodPost, "/students", map[string]string{"name": "Ana", "registration_code": "S1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	w, _ = api.do(http.MethodPost, "/auth/register", map[string]string{"name": "Agus", "registration_code": "T02", "password": "secret"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = api.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIListWithHugePagination(t *testing.T) {
	api := newAPI(t)
	api.signIn()
	api.createID("/students", map[string]string{"name": "Ana", "registration_code": "S1"})

	w, env := api.do(http.MethodGet, "/students?page=2&limit=9223372036854775807", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `[]`, string(env.Data))

	w, env = api.do(http.MethodGet, "/students?page=9223372036854775807&limit=9223372036854775807", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `[]`, string(env.Data))
}
