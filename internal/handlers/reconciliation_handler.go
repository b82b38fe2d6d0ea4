package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"invoice-reconciliation-backend/internal/export"
	"invoice-reconciliation-backend/internal/loader"
	"invoice-reconciliation-backend/internal/models"
	service "invoice-reconciliation-backend/internal/services/reconciliation"
)

type ReconciliationHandler struct {
	service *service.Service
	loader  *loader.Loader
	log     zerolog.Logger
}

func NewReconciliationHandler(s *service.Service, l *loader.Loader, log zerolog.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{
		service: s,
		loader:  l,
		log:     log.With().Str("component", "handler").Logger(),
	}
}

// CreateSession opens a fresh reconciliation session.
func (h *ReconciliationHandler) CreateSession(c *gin.Context) {
	session := h.service.CreateSession()
	c.JSON(http.StatusCreated, gin.H{
		"session_id": session.ID.String(),
		"status":     session.Status,
	})
}

// UploadDian receives the DIAN export file.
func (h *ReconciliationHandler) UploadDian(c *gin.Context) {
	h.upload(c, models.SourceDIAN)
}

// UploadContable receives the accounting export file.
func (h *ReconciliationHandler) UploadContable(c *gin.Context) {
	h.upload(c, models.SourceContable)
}

func (h *ReconciliationHandler) upload(c *gin.Context, source models.Source) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	raw, err := h.loader.FromUpload(file, header.Filename, source)
	if err != nil {
		h.writeError(c, err)
		return
	}

	info, err := h.service.LoadSource(id, source, header.Filename, raw)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source": source,
		"file":   info,
	})
}

// Run launches the matching pipeline in the background and answers 202.
// Progress and results are polled on the session endpoints.
func (h *ReconciliationHandler) Run(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.service.Start(id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"session_id": id.String(),
		"status":     models.SessionProcessing,
	})
}

// GetSession reports session status, loaded sources and run progress.
func (h *ReconciliationHandler) GetSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	session, err := h.service.GetSession(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	progress, _ := h.service.Progress(id)

	c.JSON(http.StatusOK, gin.H{
		"session":  session,
		"progress": progress,
	})
}

// GetMatches returns the matched view of a completed run.
func (h *ReconciliationHandler) GetMatches(c *gin.Context) {
	session, ok := h.completedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": session.Matched})
}

// GetUnmatched returns the unmatched view of a completed run.
func (h *ReconciliationHandler) GetUnmatched(c *gin.Context) {
	session, ok := h.completedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"unmatched": session.Unmatched})
}

// GetStatistics returns the run's aggregate statistics.
func (h *ReconciliationHandler) GetStatistics(c *gin.Context) {
	session, ok := h.completedSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": session.Statistics})
}

// Export streams the three-sheet result workbook.
func (h *ReconciliationHandler) Export(c *gin.Context) {
	session, ok := h.completedSession(c)
	if !ok {
		return
	}

	buf, err := export.Workbook(session)
	if err != nil {
		h.log.Error().Err(err).Stringer("session", session.ID).Msg("workbook export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	filename := fmt.Sprintf("conciliacion_%s.xlsx", session.ID.String())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ReconciliationHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *ReconciliationHandler) completedSession(c *gin.Context) (*models.Session, bool) {
	id, ok := h.sessionID(c)
	if !ok {
		return nil, false
	}
	session, err := h.service.GetSession(id)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	if session.Status != models.SessionCompleted {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "reconciliation not completed",
			"status": session.Status,
		})
		return nil, false
	}
	return session, true
}

// writeError maps the error taxonomy onto HTTP statuses.
func (h *ReconciliationHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrSourceMissing),
		errors.Is(err, models.ErrEmptyTable),
		errors.Is(err, models.ErrNoColumns):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
