package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"cinelens/api"
	"cinelens/database"
	"cinelens/metrics"
	"cinelens/models"
	"cinelens/quota"
	"cinelens/service"
	"cinelens/storage"
)

const maxUploadBytes = 10 << 20 // 10 MiB

// Handlers represents the HTTP handlers
type Handlers struct {
	svc   *service.Service
	store *storage.DiskStore
	gate  *quota.Gate
	db    *database.Database // nil when history is disabled
}

// NewHandlers creates new HTTP handlers
func NewHandlers(svc *service.Service, store *storage.DiskStore, gate *quota.Gate, db *database.Database) *Handlers {
	return &Handlers{svc: svc, store: store, gate: gate, db: db}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cinelens",
	})
}

// Upload stores an image and returns its public URL.
func (h *Handlers) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResult{Error: "No file uploaded"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, api.ErrorResult{Error: "File too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResult{Error: "Failed to read upload"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResult{Error: "Failed to read upload"})
		return
	}

	url, err := h.store.Store(file.Filename, data)
	if err != nil {
		if err == storage.ErrEmptyFile {
			c.JSON(http.StatusBadRequest, api.ErrorResult{Error: "Empty file"})
			return
		}
		log.Errorf("Failed to store upload %s: %v", file.Filename, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResult{Error: "Failed to store upload"})
		return
	}

	metrics.UploadsTotal.Inc()
	log.Infof("Upload stored: %s", url)
	c.JSON(http.StatusOK, api.UploadResult{URL: url})
}

// Recognize runs the recognition pipeline for an uploaded image.
func (h *Handlers) Recognize(c *gin.Context) {
	var args api.RecognizeArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResult{Error: "Invalid request body"})
		return
	}

	result, err := h.svc.Recognize(args.ImageURL, args.Mode)
	if err != nil {
		status := http.StatusInternalServerError
		if perr, ok := err.(*service.Error); ok {
			status = perr.HTTPStatus()
		}
		c.JSON(status, api.ErrorResult{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result.Record())
}

// LastResult returns the most recent cached record for a mode.
func (h *Handlers) LastResult(c *gin.Context) {
	mode, err := models.ParseMode(c.Param("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResult{Error: "mode must be \"movie\" or \"actor\""})
		return
	}

	result, ok := h.svc.LastResult(mode)
	if !ok {
		c.JSON(http.StatusNotFound, api.ErrorResult{Error: "No result for this mode yet"})
		return
	}

	c.JSON(http.StatusOK, result.Record())
}

// QuotaStatus reports the remaining daily allowance.
func (h *Handlers) QuotaStatus(c *gin.Context) {
	c.JSON(http.StatusOK, api.QuotaStatus{
		Remaining: h.gate.Remaining(),
		Limit:     h.gate.Limit(),
	})
}

// History returns recently saved recognitions for a mode.
func (h *Handlers) History(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusNotFound, api.ErrorResult{Error: "History is not enabled"})
		return
	}

	mode, err := models.ParseMode(c.Param("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResult{Error: "mode must be \"movie\" or \"actor\""})
		return
	}

	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	recognitions, err := h.db.GetRecentRecognitions(string(mode), limit)
	if err != nil {
		log.Errorf("Failed to load recognition history: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResult{Error: "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, recognitions)
}
