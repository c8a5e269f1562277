package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pxbackup-system/cluster-orchestration/internal/repository"
	"github.com/pxbackup-system/cluster-orchestration/internal/utils"
	pkgutils "github.com/pxbackup-system/cluster-orchestration/pkg/utils"
)

type AuditHandler struct {
	auditRepo *repository.AuditRepository
}

func NewAuditHandler(auditRepo *repository.AuditRepository) *AuditHandler {
	return &AuditHandler{auditRepo: auditRepo}
}

// ListAuditLogs handles GET /api/v1/audit with optional filters on action,
// user, status, and a time window.
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	params := repository.AuditListParams{
		Action: c.Query("action"),
		UserID: c.Query("user_id"),
		Status: c.Query("status"),
		Limit:  50,
	}

	if v := c.Query("limit"); v != "" {
		limit := utils.ParseInt(v, -1)
		if limit < 1 || limit > 500 {
			pkgutils.Error(c, utils.ErrCodeInvalidInput, "limit must be an integer between 1 and 500")
			return
		}
		params.Limit = limit
	}
	if v := c.Query("offset"); v != "" {
		offset := utils.ParseInt(v, -1)
		if offset < 0 {
			pkgutils.Error(c, utils.ErrCodeInvalidInput, "offset must be a non-negative integer")
			return
		}
		params.Offset = offset
	}
	if v := c.Query("start_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			pkgutils.Error(c, utils.ErrCodeInvalidInput, "start_time must be RFC3339")
			return
		}
		params.StartTime = t
	}
	if v := c.Query("end_time"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			pkgutils.Error(c, utils.ErrCodeInvalidInput, "end_time must be RFC3339")
			return
		}
		params.EndTime = t
	}

	entries, total, err := h.auditRepo.List(params)
	if err != nil {
		pkgutils.HandleError(c, err)
		return
	}

	pkgutils.Success(c, http.StatusOK, gin.H{
		"total":   total,
		"limit":   params.Limit,
		"offset":  params.Offset,
		"entries": entries,
	})
}
