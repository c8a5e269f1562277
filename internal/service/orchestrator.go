package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pxbackup-system/cluster-orchestration/internal/constants"
	"github.com/pxbackup-system/cluster-orchestration/internal/inventory"
	"github.com/pxbackup-system/cluster-orchestration/internal/lock"
	"github.com/pxbackup-system/cluster-orchestration/internal/model"
	"github.com/pxbackup-system/cluster-orchestration/internal/repository"
	"github.com/pxbackup-system/cluster-orchestration/internal/secrets"
	"github.com/pxbackup-system/cluster-orchestration/internal/utils"
)

// ExitTracker receives started playbook processes for exit tracking.
type ExitTracker interface {
	Track(executionID uuid.UUID, clusterName, playbook string, cmd *exec.Cmd)
}

// Orchestrator owns the cluster creation lifecycle: validation, the
// per-name distributed lock, external preconditions, persisted state
// transitions, and the playbook hand-off. It never waits for a playbook
// to finish.
type Orchestrator struct {
	clusterRepo *repository.ClusterRepository
	execRepo    *repository.ExecutionRepository
	auditRepo   *repository.AuditRepository

	lock       lock.DistributedLock
	inventory  inventory.Client
	secrets    secrets.Reader
	runner     Runner
	encryption *EncryptionService
	tracker    ExitTracker

	lockWait time.Duration
	lockTTL  time.Duration
}

func NewOrchestrator(
	clusterRepo *repository.ClusterRepository,
	execRepo *repository.ExecutionRepository,
	auditRepo *repository.AuditRepository,
	distLock lock.DistributedLock,
	inventoryClient inventory.Client,
	secretReader secrets.Reader,
	runner Runner,
	encryption *EncryptionService,
	tracker ExitTracker,
	lockWait, lockTTL time.Duration,
) *Orchestrator {
	return &Orchestrator{
		clusterRepo: clusterRepo,
		execRepo:    execRepo,
		auditRepo:   auditRepo,
		lock:        distLock,
		inventory:   inventoryClient,
		secrets:     secretReader,
		runner:      runner,
		encryption:  encryption,
		tracker:     tracker,
		lockWait:    lockWait,
		lockTTL:     lockTTL,
	}
}

// CreateCluster admits a creation request. Validation and lock acquisition
// happen before any external call or mutation; every failure from then on
// is audited, and the lock is always released.
func (o *Orchestrator) CreateCluster(ctx context.Context, userID string, req *CreateClusterRequest) (*model.Cluster, *model.PlaybookExecution, error) {
	if err := req.Validate(); err != nil {
		o.audit(userID, constants.ActionCreateCluster,
			fmt.Sprintf("rejected cluster %s: %v", req.Name, err), constants.AuditStatusError, nil)
		return nil, nil, err
	}

	lockKey := "cluster:" + req.Name
	acquired, err := o.lock.Acquire(ctx, lockKey, o.lockWait, o.lockTTL)
	if err != nil {
		wrapped := utils.WrapError(utils.ErrCodeInternalError, "failed to acquire cluster lock", err)
		o.audit(userID, constants.ActionCreateCluster,
			fmt.Sprintf("failed to create cluster %s: %v", req.Name, wrapped), constants.AuditStatusError, nil)
		return nil, nil, wrapped
	}
	if !acquired {
		o.audit(userID, constants.ActionCreateCluster,
			fmt.Sprintf("lock wait timed out for cluster %s", req.Name), constants.AuditStatusError, nil)
		return nil, nil, ErrCreationInProgress
	}
	defer o.lock.Release(lockKey)

	cluster, execution, err := o.provision(ctx, req)
	if err != nil {
		o.audit(userID, constants.ActionCreateCluster,
			fmt.Sprintf("failed to create cluster %s: %v", req.Name, err), constants.AuditStatusError, nil)
		return nil, nil, err
	}

	details := fmt.Sprintf("created cluster %s", req.Name)
	if req.Force {
		details += " (force=true)"
	}
	o.audit(userID, constants.ActionCreateCluster, details, constants.AuditStatusSuccess, &cluster.ID)

	return cluster, execution, nil
}

func (o *Orchestrator) provision(ctx context.Context, req *CreateClusterRequest) (*model.Cluster, *model.PlaybookExecution, error) {
	existing, err := o.clusterRepo.GetByName(req.Name)
	switch {
	case err == nil:
		if !req.Force {
			return nil, nil, ErrClusterExists(req.Name)
		}
		log.Warn().Str("cluster", req.Name).Msg("force recreating existing cluster")
		if err := o.clusterRepo.DeleteWithExecutions(existing.Name); err != nil {
			return nil, nil, utils.WrapError(utils.ErrCodeInternalError, "failed to delete existing cluster", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// proceed
	default:
		return nil, nil, utils.WrapError(utils.ErrCodeInternalError, "failed to check cluster existence", err)
	}

	record, err := o.inventory.Lookup(ctx, req.Name)
	if err != nil {
		return nil, nil, err
	}

	kubeconfig := req.Kubeconfig
	if req.KubeconfigVaultPath != "" {
		kubeconfig, err = o.secrets.ReadKubeconfig(ctx, req.KubeconfigVaultPath)
		if err != nil {
			return nil, nil, err
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(kubeconfig)
	if err != nil {
		return nil, nil, utils.NewError(utils.ErrCodeValidationFailed,
			"kubeconfig must be a valid base64 encoded string")
	}
	// Base64-decodability is the admission contract; the payload itself is
	// opaque to this service and consumed by the playbook. A blob that does
	// not parse as a client config is only worth a warning.
	if err := ValidateKubeconfig(decoded); err != nil {
		log.Warn().Err(err).Str("cluster", req.Name).
			Msg("kubeconfig does not parse as a client configuration")
	}

	encrypted, nonce, err := o.encryption.Encrypt(kubeconfig)
	if err != nil {
		return nil, nil, utils.WrapError(utils.ErrCodeInternalError, "failed to encrypt kubeconfig", err)
	}

	cluster := &model.Cluster{
		Name:                req.Name,
		ServiceAccount:      req.ServiceAccount,
		Namespace:           req.Namespace,
		Status:              constants.ClusterStatusCreating,
		KubeconfigEncrypted: encrypted,
		KubeconfigNonce:     nonce,
		KubeconfigVaultPath: req.KubeconfigVaultPath,
	}
	if err := o.clusterRepo.Create(cluster); err != nil {
		return nil, nil, utils.WrapError(utils.ErrCodeInternalError, "failed to create cluster record", err)
	}

	extraVars := map[string]string{
		"cluster_name":    req.Name,
		"service_account": req.ServiceAccount,
		"namespace":       req.Namespace,
		"kubeconfig":      kubeconfig,
		"force":           strconv.FormatBool(req.Force),
		"overwrite":       strconv.FormatBool(req.Force),
		"inventory_id":    record.ID,
	}
	if len(record.Metadata) > 0 {
		if encodedMeta, err := json.Marshal(record.Metadata); err == nil {
			extraVars["inventory_metadata"] = string(encodedMeta)
		}
	}

	execution, err := o.launch(cluster, constants.PlaybookCreateCluster, extraVars)
	if err != nil {
		if dbErr := o.clusterRepo.UpdateStatus(cluster.Name, constants.ClusterStatusFailed); dbErr != nil {
			log.Error().Err(dbErr).Str("cluster", cluster.Name).
				Msg("failed to mark cluster failed after launch error")
		}
		return nil, nil, err
	}

	return cluster, execution, nil
}

// UpdateServiceAccount changes the cluster's service account in place and
// starts the corresponding playbook.
func (o *Orchestrator) UpdateServiceAccount(ctx context.Context, userID string, req *UpdateServiceAccountRequest) (*model.PlaybookExecution, error) {
	if err := req.Validate(); err != nil {
		o.audit(userID, constants.ActionUpdateServiceAccount,
			fmt.Sprintf("rejected update for cluster %s: %v", req.ClusterName, err), constants.AuditStatusError, nil)
		return nil, err
	}

	cluster, err := o.clusterRepo.GetByName(req.ClusterName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrClusterNotFound(req.ClusterName)
		} else {
			err = utils.WrapError(utils.ErrCodeInternalError, "failed to load cluster", err)
		}
		o.audit(userID, constants.ActionUpdateServiceAccount,
			fmt.Sprintf("failed to update service account for cluster %s: %v", req.ClusterName, err),
			constants.AuditStatusError, nil)
		return nil, err
	}

	extraVars := map[string]string{
		"cluster_name":    req.ClusterName,
		"service_account": req.ServiceAccount,
		"overwrite":       "true",
	}
	if cluster.KubeconfigEncrypted != "" {
		kubeconfig, err := o.encryption.Decrypt(cluster.KubeconfigEncrypted, cluster.KubeconfigNonce)
		if err != nil {
			wrapped := utils.WrapError(utils.ErrCodeInternalError, "failed to decrypt stored kubeconfig", err)
			o.audit(userID, constants.ActionUpdateServiceAccount,
				fmt.Sprintf("failed to update service account for cluster %s: %v", req.ClusterName, wrapped),
				constants.AuditStatusError, &cluster.ID)
			return nil, wrapped
		}
		extraVars["kubeconfig"] = kubeconfig
	}

	cluster.ServiceAccount = req.ServiceAccount
	if err := o.clusterRepo.Update(cluster); err != nil {
		wrapped := utils.WrapError(utils.ErrCodeInternalError, "failed to update cluster", err)
		o.audit(userID, constants.ActionUpdateServiceAccount,
			fmt.Sprintf("failed to update service account for cluster %s: %v", req.ClusterName, wrapped),
			constants.AuditStatusError, &cluster.ID)
		return nil, wrapped
	}

	execution, err := o.launch(cluster, constants.PlaybookUpdateServiceAccount, extraVars)
	if err != nil {
		o.audit(userID, constants.ActionUpdateServiceAccount,
			fmt.Sprintf("failed to update service account for cluster %s: %v", req.ClusterName, err),
			constants.AuditStatusError, &cluster.ID)
		return nil, err
	}

	o.audit(userID, constants.ActionUpdateServiceAccount,
		fmt.Sprintf("updated service account for cluster %s", req.ClusterName),
		constants.AuditStatusSuccess, &cluster.ID)

	return execution, nil
}

// launch persists the execution row, starts the playbook, records the
// process handle, and hands the process to the exit tracker.
func (o *Orchestrator) launch(cluster *model.Cluster, playbook string, extraVars map[string]string) (*model.PlaybookExecution, error) {
	serialized, err := json.Marshal(extraVars)
	if err != nil {
		return nil, utils.WrapError(utils.ErrCodeInternalError, "failed to serialize extra vars", err)
	}

	execution := &model.PlaybookExecution{
		ClusterID:    cluster.ID,
		PlaybookName: playbook,
		Status:       constants.ExecutionStatusRunning,
		ExtraVars:    string(serialized),
	}
	if err := o.execRepo.Create(execution); err != nil {
		return nil, utils.WrapError(utils.ErrCodeInternalError, "failed to create execution record", err)
	}

	result, err := o.runner.Launch(playbook, extraVars)
	if err != nil {
		now := time.Now().UTC()
		if dbErr := o.execRepo.SetResult(execution.ID, constants.ExecutionStatusFailed, -1, now); dbErr != nil {
			log.Error().Err(dbErr).Str("execution_id", execution.ID.String()).
				Msg("failed to mark execution failed after launch error")
		}
		return nil, err
	}

	if err := o.execRepo.SetProcess(execution.ID, result.Command, result.PID); err != nil {
		log.Error().Err(err).Str("execution_id", execution.ID.String()).
			Msg("failed to record process handle")
	}
	execution.Command = result.Command
	execution.PID = &result.PID

	o.tracker.Track(execution.ID, cluster.Name, playbook, result.Cmd)

	return execution, nil
}

func (o *Orchestrator) audit(userID, action, details, status string, clusterID *uuid.UUID) {
	entry := &model.AuditLog{
		UserID:    userID,
		Action:    action,
		Details:   details,
		Status:    status,
		ClusterID: clusterID,
	}
	if err := o.auditRepo.Create(entry); err != nil {
		log.Error().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}
