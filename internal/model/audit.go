package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is append-only: one row per significant orchestrator action,
// attempt and outcome. ClusterID is nullable because some audited actions
// fail before any cluster row exists.
type AuditLog struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	Timestamp time.Time  `json:"timestamp" gorm:"autoCreateTime;index"`
	UserID    string     `json:"user_id" gorm:"size:255;not null"`
	Action    string     `json:"action" gorm:"size:255;not null;index"`
	Details   string     `json:"details" gorm:"type:text"`
	Status    string     `json:"status" gorm:"size:20"`
	ClusterID *uuid.UUID `json:"cluster_id,omitempty" gorm:"type:uuid;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
