package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pxbackup-system/cluster-orchestration/internal/middleware"
	"github.com/pxbackup-system/cluster-orchestration/internal/service"
	"github.com/pxbackup-system/cluster-orchestration/internal/utils"
	pkgutils "github.com/pxbackup-system/cluster-orchestration/pkg/utils"
)

type ClusterHandler struct {
	orchestrator *service.Orchestrator
}

func NewClusterHandler(orchestrator *service.Orchestrator) *ClusterHandler {
	return &ClusterHandler{orchestrator: orchestrator}
}

// CreateCluster handles POST /api/v1/clusters. The playbook is started but
// not awaited, so a 201 means the creation was admitted, not finished.
func (h *ClusterHandler) CreateCluster(c *gin.Context) {
	var req service.CreateClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pkgutils.Error(c, utils.ErrCodeInvalidInput, "invalid request body: %v", err)
		return
	}

	cluster, execution, err := h.orchestrator.CreateCluster(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		pkgutils.HandleError(c, err)
		return
	}

	pkgutils.Success(c, http.StatusCreated, gin.H{
		"cluster_name": cluster.Name,
		"status":       cluster.Status,
		"execution_id": execution.ID,
		"pid":          execution.PID,
	})
}

// UpdateServiceAccount handles POST /api/v1/clusters/service-account and the
// legacy /api/v1/update_service_account route.
func (h *ClusterHandler) UpdateServiceAccount(c *gin.Context) {
	var req service.UpdateServiceAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		pkgutils.Error(c, utils.ErrCodeInvalidInput, "invalid request body: %v", err)
		return
	}

	execution, err := h.orchestrator.UpdateServiceAccount(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		pkgutils.HandleError(c, err)
		return
	}

	pkgutils.Success(c, http.StatusAccepted, gin.H{
		"cluster_name": req.ClusterName,
		"execution_id": execution.ID,
		"pid":          execution.PID,
	})
}

// GetClusterStatus handles GET /api/v1/clusters/:name/status.
func (h *ClusterHandler) GetClusterStatus(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		pkgutils.Error(c, utils.ErrCodeInvalidInput, "cluster name is required")
		return
	}

	status, err := h.orchestrator.GetClusterStatus(name)
	if err != nil {
		pkgutils.HandleError(c, err)
		return
	}

	pkgutils.Success(c, http.StatusOK, status)
}

// ListClusterStatuses handles GET /api/v1/clusters/status.
func (h *ClusterHandler) ListClusterStatuses(c *gin.Context) {
	statuses, err := h.orchestrator.ListClusterStatuses()
	if err != nil {
		pkgutils.HandleError(c, err)
		return
	}

	pkgutils.Success(c, http.StatusOK, gin.H{
		"count":    len(statuses),
		"clusters": statuses,
	})
}

// ListExecutions handles GET /api/v1/clusters/:name/executions.
func (h *ClusterHandler) ListExecutions(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		pkgutils.Error(c, utils.ErrCodeInvalidInput, "cluster name is required")
		return
	}

	executions, err := h.orchestrator.ListExecutions(name)
	if err != nil {
		pkgutils.HandleError(c, err)
		return
	}

	pkgutils.Success(c, http.StatusOK, gin.H{
		"cluster_name": name,
		"count":        len(executions),
		"executions":   executions,
	})
}
