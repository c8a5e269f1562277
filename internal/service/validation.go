package service

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/pxbackup-system/cluster-orchestration/internal/utils"
)

// namePattern matches DNS-label-like identifiers: lowercase alphanumerics
// and hyphens, starting and ending alphanumeric.
var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$`)

type CreateClusterRequest struct {
	Name                string `json:"name" binding:"required"`
	ServiceAccount      string `json:"service_account" binding:"required"`
	Namespace           string `json:"namespace" binding:"required"`
	Kubeconfig          string `json:"kubeconfig"`
	KubeconfigVaultPath string `json:"kubeconfig_vault_path"`
	Force               bool   `json:"force"`
}

type UpdateServiceAccountRequest struct {
	ClusterName    string `json:"cluster_name" binding:"required"`
	ServiceAccount string `json:"service_account" binding:"required"`
}

// validateLabel enforces the shared rules for name-like fields. The
// double-hyphen check guards against argument injection into the
// shell-invoked playbook command.
func validateLabel(field, value string) error {
	if len(value) < 3 || len(value) > 63 {
		return utils.NewError(utils.ErrCodeValidationFailed,
			fmt.Sprintf("%s must be between 3 and 63 characters", field))
	}
	if strings.Contains(value, "--") {
		return utils.NewError(utils.ErrCodeValidationFailed,
			fmt.Sprintf("%s cannot contain consecutive hyphens", field))
	}
	if !namePattern.MatchString(value) {
		return utils.NewError(utils.ErrCodeValidationFailed,
			fmt.Sprintf("%s must start and end with an alphanumeric character and contain only lowercase letters, numbers, and hyphens", field))
	}
	return nil
}

// Validate runs every check that must pass before any lock is acquired or
// any external call is made.
func (r *CreateClusterRequest) Validate() error {
	if err := validateLabel("name", r.Name); err != nil {
		return err
	}
	if err := validateLabel("service_account", r.ServiceAccount); err != nil {
		return err
	}
	if err := validateLabel("namespace", r.Namespace); err != nil {
		return err
	}

	hasInline := r.Kubeconfig != ""
	hasVaultPath := r.KubeconfigVaultPath != ""
	if !hasInline && !hasVaultPath {
		return utils.NewError(utils.ErrCodeValidationFailed,
			"either kubeconfig or kubeconfig_vault_path must be provided")
	}
	if hasInline && hasVaultPath {
		return utils.NewError(utils.ErrCodeValidationFailed,
			"only one of kubeconfig or kubeconfig_vault_path may be provided")
	}

	if hasInline {
		if _, err := base64.StdEncoding.DecodeString(r.Kubeconfig); err != nil {
			return utils.NewError(utils.ErrCodeValidationFailed,
				"kubeconfig must be a valid base64 encoded string")
		}
	}

	return nil
}

func (r *UpdateServiceAccountRequest) Validate() error {
	if err := validateLabel("cluster_name", r.ClusterName); err != nil {
		return err
	}
	return validateLabel("service_account", r.ServiceAccount)
}
