package service

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pxbackup-system/cluster-orchestration/internal/model"
	"github.com/pxbackup-system/cluster-orchestration/internal/utils"
)

// ClusterStatus reports a single cluster together with its most recent
// execution, if any.
type ClusterStatus struct {
	Name            string                   `json:"name"`
	ServiceAccount  string                   `json:"service_account"`
	Namespace       string                   `json:"namespace"`
	Status          string                   `json:"status"`
	CreatedAt       string                   `json:"created_at"`
	UpdatedAt       string                   `json:"updated_at"`
	LatestExecution *model.PlaybookExecution `json:"latest_execution,omitempty"`
}

func (o *Orchestrator) GetClusterStatus(name string) (*ClusterStatus, error) {
	cluster, err := o.clusterRepo.GetByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClusterNotFound(name)
		}
		return nil, utils.WrapError(utils.ErrCodeInternalError, "failed to load cluster", err)
	}
	return o.statusOf(cluster), nil
}

func (o *Orchestrator) ListClusterStatuses() ([]*ClusterStatus, error) {
	clusters, err := o.clusterRepo.List()
	if err != nil {
		return nil, utils.WrapError(utils.ErrCodeInternalError, "failed to list clusters", err)
	}
	statuses := make([]*ClusterStatus, 0, len(clusters))
	for _, cluster := range clusters {
		statuses = append(statuses, o.statusOf(cluster))
	}
	return statuses, nil
}

func (o *Orchestrator) ListExecutions(name string) ([]*model.PlaybookExecution, error) {
	cluster, err := o.clusterRepo.GetByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClusterNotFound(name)
		}
		return nil, utils.WrapError(utils.ErrCodeInternalError, "failed to load cluster", err)
	}
	executions, err := o.execRepo.ListByCluster(cluster.ID)
	if err != nil {
		return nil, utils.WrapError(utils.ErrCodeInternalError, "failed to list executions", err)
	}
	return executions, nil
}

func (o *Orchestrator) statusOf(cluster *model.Cluster) *ClusterStatus {
	status := &ClusterStatus{
		Name:           cluster.Name,
		ServiceAccount: cluster.ServiceAccount,
		Namespace:      cluster.Namespace,
		Status:         cluster.Status,
		CreatedAt:      cluster.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:      cluster.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	latest, err := o.execRepo.LatestByCluster(cluster.ID)
	switch {
	case err == nil:
		status.LatestExecution = latest
	case !errors.Is(err, gorm.ErrRecordNotFound):
		log.Error().Err(err).Str("cluster", cluster.Name).
			Msg("failed to load latest execution")
	}
	return status
}
