package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"finops-backend/internal/recommendations"
	"finops-backend/internal/shared/server/respond"
	"finops-backend/internal/shared/storage/object"
	"finops-backend/internal/shared/telemetry"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler accepts recommendation exports and loads them into the record store.
type Handler struct {
	Records recommendations.Repo
	Store   object.ObjectStore
}

// NewHandler constructs a Handler.
func NewHandler(records recommendations.Repo, store object.ObjectStore) *Handler {
	return &Handler{Records: records, Store: store}
}

// RegisterRoutes attaches ingest routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recommendations/import", h.importCSV)
	rg.GET("/recommendations", h.listBySource)
}

func (h *Handler) importCSV(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	sourceRef := strings.TrimSpace(c.PostForm("sourceRef"))
	if sourceRef == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sourceRef is required", nil)
		return
	}
	c.Set("sourceRef", sourceRef)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	result, err := ParseCSV(sourceRef, bytes.NewReader(payload))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	if len(result.Records) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "no usable rows in file", result.RowErrors)
		return
	}

	if err := h.Records.CreateBatch(c.Request.Context(), result.Records); err != nil {
		switch {
		case errors.Is(err, recommendations.ErrDuplicate):
			respond.Error(c, http.StatusConflict, "duplicate", "one or more records already exist", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store records", nil)
		}
		return
	}

	// Keep the raw upload for audit; losing it does not fail the import.
	if h.Store != nil {
		key := fmt.Sprintf("sources/%s.csv", sourceRef)
		if _, err := h.Store.Put(c.Request.Context(), key, "text/csv", bytes.NewReader(payload)); err != nil {
			telemetry.Error("ingest.artifact_failed", map[string]any{
				"source_ref": sourceRef,
				"error":      err.Error(),
			})
		}
	}

	telemetry.Info("ingest.imported", map[string]any{
		"source_ref": sourceRef,
		"records":    len(result.Records),
		"row_errors": len(result.RowErrors),
	})

	respond.JSON(c, http.StatusCreated, gin.H{
		"sourceRef": sourceRef,
		"imported":  len(result.Records),
		"rowErrors": result.RowErrors,
	})
}

func (h *Handler) listBySource(c *gin.Context) {
	sourceRef := strings.TrimSpace(c.Query("sourceRef"))
	if sourceRef == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sourceRef is required", nil)
		return
	}
	c.Set("sourceRef", sourceRef)

	records, err := h.Records.ListBySource(c.Request.Context(), sourceRef)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list records", nil)
		return
	}
	respond.OK(c, gin.H{"sourceRef": sourceRef, "items": records})
}
