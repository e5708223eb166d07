package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/cleanestdotsol/viralreels/internal/storage"
)

// JobHandler serves the job API. Creating a job only inserts a pending
// row; rendering happens later in the worker, never inside a request.
type JobHandler struct {
	jobs     *storage.JobRepository
	scripts  *storage.ScriptRepository
	validate *validator.Validate
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobs *storage.JobRepository, scripts *storage.ScriptRepository) *JobHandler {
	return &JobHandler{
		jobs:     jobs,
		scripts:  scripts,
		validate: validator.New(),
	}
}

// CreateJobRequest is the job trigger payload.
type CreateJobRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	ScriptID string `json:"script_id" validate:"required"`
	Publish  bool   `json:"publish"`
}

// Create inserts a pending job and returns its id immediately.
func (h *JobHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateJobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	script, err := h.scripts.GetByID(ctx, req.ScriptID)
	if err != nil {
		return internalError(c, err)
	}
	if script == nil || script.UserID != req.UserID {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "script not found"})
	}

	id, err := h.jobs.Create(ctx, req.UserID, req.ScriptID, req.Publish)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"job_id": id,
		"status": "pending",
	})
}

// Get returns a job's current status, timestamps, artifact reference and
// error message. Safe to call at any time, including mid-processing.
func (h *JobHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	job, err := h.jobs.GetByID(ctx, id)
	if err != nil {
		return internalError(c, err)
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}

	return c.JSON(http.StatusOK, job)
}

// List returns recent jobs, optionally filtered by status.
func (h *JobHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	status := c.QueryParam("status")

	// Zero or negative limits fall back to the repository default;
	// sqlite would treat a negative LIMIT as unbounded.
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var jobs interface{}
	var err error

	if status != "" {
		jobs, err = h.jobs.ListByStatus(ctx, status, limit)
	} else {
		jobs, err = h.jobs.ListRecent(ctx, limit)
	}

	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusOK, jobs)
}

// Stats returns job counts per status.
func (h *JobHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	counts, err := h.jobs.CountByStatus(ctx)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusOK, counts)
}

// internalError logs the cause and returns a body that carries no
// storage or filesystem detail to the consumer.
func internalError(c echo.Context, err error) error {
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
