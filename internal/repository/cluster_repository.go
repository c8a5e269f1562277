package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pxbackup-system/cluster-orchestration/internal/model"
)

type ClusterRepository struct {
	db *gorm.DB
}

func NewClusterRepository(db *gorm.DB) *ClusterRepository {
	return &ClusterRepository{db: db}
}

func (r *ClusterRepository) DB() *gorm.DB {
	return r.db
}

func (r *ClusterRepository) Create(cluster *model.Cluster) error {
	return r.db.Create(cluster).Error
}

func (r *ClusterRepository) GetByName(name string) (*model.Cluster, error) {
	var cluster model.Cluster
	err := r.db.Where("name = ?", name).First(&cluster).Error
	if err != nil {
		return nil, err
	}
	return &cluster, nil
}

func (r *ClusterRepository) Update(cluster *model.Cluster) error {
	return r.db.Save(cluster).Error
}

func (r *ClusterRepository) List() ([]*model.Cluster, error) {
	var clusters []*model.Cluster
	err := r.db.Order("name ASC").Find(&clusters).Error
	return clusters, err
}

func (r *ClusterRepository) UpdateStatus(name, status string) error {
	return r.db.Model(&model.Cluster{}).Where("name = ?", name).
		Update("status", status).Error
}

// DeleteWithExecutions removes a cluster row together with its execution
// rows in one transaction, so a reader never observes the cluster gone but
// stale executions present. The row is locked for the duration of the
// delete.
func (r *ClusterRepository) DeleteWithExecutions(name string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var cluster model.Cluster
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", name).First(&cluster).Error
		if err != nil {
			return err
		}

		if err := tx.Where("cluster_id = ?", cluster.ID).
			Delete(&model.PlaybookExecution{}).Error; err != nil {
			return fmt.Errorf("failed to delete executions: %w", err)
		}

		if err := tx.Where("cluster_id = ?", cluster.ID).
			Delete(&model.AuditLog{}).Error; err != nil {
			return fmt.Errorf("failed to delete audit logs: %w", err)
		}

		if err := tx.Delete(&cluster).Error; err != nil {
			return fmt.Errorf("failed to delete cluster: %w", err)
		}

		return nil
	})
}
