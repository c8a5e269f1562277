package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pxbackup-system/cluster-orchestration/internal/constants"
	"github.com/pxbackup-system/cluster-orchestration/internal/model"
)

type ExecutionRepository struct {
	db *gorm.DB
}

func NewExecutionRepository(db *gorm.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

func (r *ExecutionRepository) Create(execution *model.PlaybookExecution) error {
	return r.db.Create(execution).Error
}

func (r *ExecutionRepository) Update(execution *model.PlaybookExecution) error {
	return r.db.Save(execution).Error
}

func (r *ExecutionRepository) GetByID(id uuid.UUID) (*model.PlaybookExecution, error) {
	var execution model.PlaybookExecution
	err := r.db.Where("id = ?", id).First(&execution).Error
	if err != nil {
		return nil, err
	}
	return &execution, nil
}

// LatestByCluster returns the execution with the maximum start time for the
// cluster; identical timestamps are broken by maximum id.
func (r *ExecutionRepository) LatestByCluster(clusterID uuid.UUID) (*model.PlaybookExecution, error) {
	var execution model.PlaybookExecution
	err := r.db.Where("cluster_id = ?", clusterID).
		Order("started_at DESC").Order("id DESC").
		First(&execution).Error
	if err != nil {
		return nil, err
	}
	return &execution, nil
}

func (r *ExecutionRepository) ListByCluster(clusterID uuid.UUID) ([]*model.PlaybookExecution, error) {
	var executions []*model.PlaybookExecution
	err := r.db.Where("cluster_id = ?", clusterID).
		Order("started_at DESC").Order("id DESC").
		Find(&executions).Error
	return executions, err
}

// SetProcess records the launch handle once the subprocess has started.
func (r *ExecutionRepository) SetProcess(id uuid.UUID, command string, pid int) error {
	return r.db.Model(&model.PlaybookExecution{}).Where("id = ?", id).
		Updates(map[string]interface{}{"command": command, "pid": pid}).Error
}

// SetResult records process exit: status, return code and completion time.
func (r *ExecutionRepository) SetResult(id uuid.UUID, status string, returnCode int, completedAt time.Time) error {
	return r.db.Model(&model.PlaybookExecution{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"return_code":  returnCode,
			"completed_at": completedAt,
		}).Error
}

// FailOrphaned marks executions still running at startup as failed; no
// process of this instance owns them, so they could never complete.
func (r *ExecutionRepository) FailOrphaned() (int64, error) {
	now := time.Now().UTC()
	result := r.db.Model(&model.PlaybookExecution{}).
		Where("status = ?", constants.ExecutionStatusRunning).
		Updates(map[string]interface{}{
			"status":       constants.ExecutionStatusFailed,
			"completed_at": now,
		})
	return result.RowsAffected, result.Error
}
