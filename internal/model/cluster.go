package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Cluster struct {
	ID                  uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name                string    `json:"name" gorm:"uniqueIndex;not null;size:63"`
	ServiceAccount      string    `json:"service_account" gorm:"not null;size:63"`
	Namespace           string    `json:"namespace" gorm:"not null;size:63"`
	Status              string    `json:"status" gorm:"size:20;not null;default:'pending'"`
	KubeconfigEncrypted string    `json:"-" gorm:"column:kubeconfig_encrypted;type:text"`
	KubeconfigNonce     string    `json:"-" gorm:"column:kubeconfig_nonce;size:64"`
	KubeconfigVaultPath string    `json:"kubeconfig_vault_path,omitempty" gorm:"size:255"`
	CreatedAt           time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Executions []PlaybookExecution `json:"-" gorm:"foreignKey:ClusterID;constraint:OnDelete:CASCADE"`
	AuditLogs  []AuditLog          `json:"-" gorm:"foreignKey:ClusterID;constraint:OnDelete:CASCADE"`
}

func (Cluster) TableName() string {
	return "clusters"
}

func (c *Cluster) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type PlaybookExecution struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	ClusterID    uuid.UUID  `json:"cluster_id" gorm:"type:uuid;not null;index"`
	PlaybookName string     `json:"playbook_name" gorm:"size:255;not null"`
	Status       string     `json:"status" gorm:"size:20;not null"`
	StartedAt    time.Time  `json:"started_at" gorm:"autoCreateTime;index"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Command      string     `json:"command,omitempty" gorm:"type:text"`
	PID          *int       `json:"pid,omitempty" gorm:"column:pid"`
	ReturnCode   *int       `json:"return_code,omitempty"`
	ExtraVars    string     `json:"extra_vars,omitempty" gorm:"type:text"`
}

func (PlaybookExecution) TableName() string {
	return "playbook_executions"
}

func (e *PlaybookExecution) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
