package reports

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"finops-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the reports repo.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches report routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reports/:id", h.getReport)
	rg.GET("/jobs/:id/report", h.getReportByJob)
}

func (h *Handler) getReport(c *gin.Context) {
	reportID := c.Param("id")
	if reportID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "report id is required", nil)
		return
	}
	c.Set("reportId", reportID)

	report, err := h.Repo.GetByID(c.Request.Context(), reportID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	respond.OK(c, report)
}

func (h *Handler) getReportByJob(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "job id is required", nil)
		return
	}
	c.Set("jobId", jobID)

	report, err := h.Repo.GetByJobID(c.Request.Context(), jobID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	respond.OK(c, report)
}

func (h *Handler) respondLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "report not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch report", nil)
	}
}
