package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/pxbackup-system/cluster-orchestration/internal/model"
)

type AuditRepository struct {
	db *gorm.DB
}

type AuditListParams struct {
	Action    string
	UserID    string
	Status    string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(entry *model.AuditLog) error {
	return r.db.Create(entry).Error
}

func (r *AuditRepository) List(params AuditListParams) ([]*model.AuditLog, int64, error) {
	var entries []*model.AuditLog
	var total int64

	query := r.db.Model(&model.AuditLog{})

	if params.Action != "" {
		query = query.Where("action = ?", params.Action)
	}
	if params.UserID != "" {
		query = query.Where("user_id = ?", params.UserID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if !params.StartTime.IsZero() {
		query = query.Where("timestamp >= ?", params.StartTime)
	}
	if !params.EndTime.IsZero() {
		query = query.Where("timestamp <= ?", params.EndTime)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}

	err := query.Order("timestamp DESC").Find(&entries).Error
	return entries, total, err
}
