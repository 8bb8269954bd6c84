// Package api exposes the HTTP surface over the pipeline and repositories.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"bedesign/domain/core"
	"bedesign/domain/project"
	"bedesign/internal"
	apperrors "bedesign/internal/errors"
	"bedesign/internal/pipeline"
	"bedesign/ports"

	"github.com/gin-gonic/gin"
)

// Handlers holds the HTTP handler dependencies
type Handlers struct {
	projects   ports.ProjectRepository
	parameters ports.ParameterRepository
	renderer   ports.ReportRendererPort
	runner     *pipeline.Runner
	logger     *internal.Logger
}

// NewHandlers creates the HTTP handler set
func NewHandlers(
	projects ports.ProjectRepository,
	parameters ports.ParameterRepository,
	renderer ports.ReportRendererPort,
	runner *pipeline.Runner,
	logger *internal.Logger,
) *Handlers {
	return &Handlers{
		projects:   projects,
		parameters: parameters,
		renderer:   renderer,
		runner:     runner,
		logger:     logger,
	}
}

// Health reports service liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// startRequest is the POST /search/start payload
type startRequest struct {
	INNEn          string  `json:"inn_en" binding:"required"`
	INNRu          string  `json:"inn_ru"`
	Dosage         string  `json:"dosage" binding:"required"`
	Form           string  `json:"form"`
	Delta          float64 `json:"delta"`
	Power          float64 `json:"power"`
	Alpha          float64 `json:"alpha"`
	DropoutRate    float64 `json:"dropout_rate"`
	ScreenFailRate float64 `json:"screen_fail_rate"`
}

// StartSearch creates a project and launches its pipeline run
func (h *Handlers) StartSearch(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	drug := project.Drug{
		INNEn:  req.INNEn,
		INNRu:  req.INNRu,
		Dosage: req.Dosage,
		Form:   req.Form,
	}
	overrides := pipeline.Overrides{
		Delta:          req.Delta,
		Power:          req.Power,
		Alpha:          req.Alpha,
		DropoutRate:    req.DropoutRate,
		ScreenFailRate: req.ScreenFailRate,
	}

	p, err := h.runner.Start(c.Request.Context(), drug, overrides)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("started project %s for %s %s", p.ID, drug.INNEn, drug.Dosage)
	c.JSON(http.StatusAccepted, gin.H{
		"project_id": p.ID,
		"status":     p.Status,
		"message":    "literature search started",
	})
}

// SearchResults returns the search stage outcome and stored observations
func (h *Handlers) SearchResults(c *gin.Context) {
	id, ok := h.projectID(c)
	if !ok {
		return
	}

	p, err := h.projects.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	params, err := h.parameters.ListByProject(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id":     p.ID,
		"status":         p.Status,
		"status_message": p.StatusMessage,
		"search_summary": p.SearchSummary,
		"parameters":     params,
	})
}

// GetProject returns the full project with all stage results
func (h *Handlers) GetProject(c *gin.Context) {
	id, ok := h.projectID(c)
	if !ok {
		return
	}

	p, err := h.projects.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GenerateReport renders report artifacts for a completed project
func (h *Handlers) GenerateReport(c *gin.Context) {
	id, ok := h.projectID(c)
	if !ok {
		return
	}

	p, err := h.projects.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if p.Status != project.StatusCompleted {
		h.respondError(c, fmt.Errorf("%w: project status is %s", core.ErrNotCompleted, p.Status))
		return
	}

	artifact, err := h.renderer.Render(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.projects.SetReport(c.Request.Context(), id, artifact); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, artifact)
}

// DownloadReport serves the rendered synopsis file
func (h *Handlers) DownloadReport(c *gin.Context) {
	id, ok := h.projectID(c)
	if !ok {
		return
	}

	p, err := h.projects.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if p.Report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report has been generated for this project"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_synopsis.html", p.ID))
	c.File(p.Report.SynopsisPath)
}

func (h *Handlers) projectID(c *gin.Context) (core.ProjectID, bool) {
	id, err := core.ParseProjectID(c.Param("projectID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return "", false
	}
	return id, true
}

// respondError maps domain and application errors onto HTTP statuses
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case core.IsNotFoundError(err):
		status = http.StatusNotFound
	case core.IsDesignInputError(err), errors.Is(err, core.ErrImplausibleValue):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrPipelineActive), errors.Is(err, core.ErrNotCompleted):
		status = http.StatusConflict
	default:
		switch apperrors.GetCode(err) {
		case apperrors.CodeNotFound:
			status = http.StatusNotFound
		case apperrors.CodeValidationError, apperrors.CodeInvalidDesignInput:
			status = http.StatusBadRequest
		case apperrors.CodeConflict:
			status = http.StatusConflict
		case apperrors.CodeCollaboratorUnavailable:
			status = http.StatusBadGateway
		}
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
