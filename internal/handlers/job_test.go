package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanestdotsol/viralreels/internal/models"
	"github.com/cleanestdotsol/viralreels/internal/storage"
)

func setupHandler(t *testing.T) (*JobHandler, *storage.JobRepository, string) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	scripts := storage.NewScriptRepository(db)
	jobs := storage.NewJobRepository(db)

	script := &models.Script{
		UserID: "user-1",
		Topic:  "ocean",
		Hook:   "The ocean hides a secret",
		Payoff: "Follow for more",
	}
	require.NoError(t, scripts.Create(context.Background(), script))

	return NewJobHandler(jobs, scripts), jobs, script.ID
}

func doRequest(t *testing.T, method, target, body string, fn echo.HandlerFunc, params ...string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}

	require.NoError(t, fn(c))
	return rec
}

func TestCreateJobAccepted(t *testing.T) {
	h, jobs, scriptID := setupHandler(t)

	body := `{"user_id":"user-1","script_id":"` + scriptID + `","publish":true}`
	rec := doRequest(t, http.MethodPost, "/api/jobs", body, h.Create)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp["status"])
	require.NotEmpty(t, resp["job_id"])

	job, err := jobs.GetByID(context.Background(), resp["job_id"])
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.True(t, job.Publish)
}

func TestCreateJobValidation(t *testing.T) {
	h, _, _ := setupHandler(t)

	rec := doRequest(t, http.MethodPost, "/api/jobs", `{"publish":true}`, h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateJobUnknownScript(t *testing.T) {
	h, _, _ := setupHandler(t)

	body := `{"user_id":"user-1","script_id":"nope"}`
	rec := doRequest(t, http.MethodPost, "/api/jobs", body, h.Create)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateJobWrongOwner(t *testing.T) {
	h, _, scriptID := setupHandler(t)

	body := `{"user_id":"someone-else","script_id":"` + scriptID + `"}`
	rec := doRequest(t, http.MethodPost, "/api/jobs", body, h.Create)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetJob(t *testing.T) {
	h, jobs, scriptID := setupHandler(t)

	id, err := jobs.Create(context.Background(), "user-1", scriptID, false)
	require.NoError(t, err)

	rec := doRequest(t, http.MethodGet, "/api/jobs/"+id, "", h.Get, "id", id)
	assert.Equal(t, http.StatusOK, rec.Code)

	var job models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, id, job.ID)
	assert.Equal(t, models.JobStatusPending, job.Status)
}

func TestGetJobNotFound(t *testing.T) {
	h, _, _ := setupHandler(t)

	rec := doRequest(t, http.MethodGet, "/api/jobs/nope", "", h.Get, "id", "nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobsByStatus(t *testing.T) {
	h, jobs, scriptID := setupHandler(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := jobs.Create(ctx, "user-1", scriptID, false)
		require.NoError(t, err)
	}
	claimed, err := jobs.Claim(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, jobs.Fail(ctx, claimed[0].ID, "boom"))

	rec := doRequest(t, http.MethodGet, "/api/jobs?status=pending", "", h.List)
	assert.Equal(t, http.StatusOK, rec.Code)

	var listed []models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)

	rec = doRequest(t, http.MethodGet, "/api/jobs", "", h.List)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 3)
}

func TestListJobsClampsNegativeLimit(t *testing.T) {
	h, jobs, scriptID := setupHandler(t)
	ctx := context.Background()

	// More rows than the default page: an unclamped negative limit
	// would return all of them (sqlite reads LIMIT -1 as unbounded).
	for i := 0; i < 60; i++ {
		_, err := jobs.Create(ctx, "user-1", scriptID, false)
		require.NoError(t, err)
	}

	rec := doRequest(t, http.MethodGet, "/api/jobs?limit=-1", "", h.List)
	assert.Equal(t, http.StatusOK, rec.Code)

	var listed []models.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 50)
}

func TestInternalErrorBodyIsGeneric(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	h := NewJobHandler(storage.NewJobRepository(db), storage.NewScriptRepository(db))
	require.NoError(t, db.Close())

	rec := doRequest(t, http.MethodPost, "/api/jobs", `{"user_id":"u","script_id":"s"}`, h.Create)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp["error"])
}

func TestJobStats(t *testing.T) {
	h, jobs, scriptID := setupHandler(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := jobs.Create(ctx, "user-1", scriptID, false)
		require.NoError(t, err)
	}

	rec := doRequest(t, http.MethodGet, "/api/jobs/stats", "", h.Stats)
	assert.Equal(t, http.StatusOK, rec.Code)

	var counts map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, int64(2), counts[models.JobStatusPending])
}
