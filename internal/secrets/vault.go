package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	vault "github.com/hashicorp/vault/api"

	"github.com/pxbackup-system/cluster-orchestration/internal/config"
	"github.com/pxbackup-system/cluster-orchestration/internal/constants"
	"github.com/pxbackup-system/cluster-orchestration/internal/metrics"
	"github.com/pxbackup-system/cluster-orchestration/internal/utils"
)

// Reader fetches a base64-encoded kubeconfig from a secret path.
type Reader interface {
	ReadKubeconfig(ctx context.Context, path string) (string, error)
}

type VaultReader struct {
	client *vault.Client
	mount  string
}

// NewVaultReader builds a KV v2 reader. The token comes from a local file
// mounted by the platform.
func NewVaultReader(cfg config.VaultConfig) (*VaultReader, error) {
	vaultCfg := vault.DefaultConfig()
	vaultCfg.Address = cfg.Addr
	vaultCfg.Timeout = cfg.Timeout

	client, err := vault.NewClient(vaultCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	token, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault token file %s: %w", cfg.TokenFile, err)
	}
	client.SetToken(strings.TrimSpace(string(token)))

	return &VaultReader{client: client, mount: cfg.Mount}, nil
}

// ReadKubeconfig reads the "kubeconfig" key at the given KV v2 path. A
// reachable path with no kubeconfig key is a validation failure, not an
// external-service failure.
func (r *VaultReader) ReadKubeconfig(ctx context.Context, path string) (string, error) {
	secret, err := r.client.KVv2(r.mount).Get(ctx, path)
	if err != nil {
		metrics.VaultOperationsTotal.WithLabelValues("read_secret", "error").Inc()
		return "", utils.NewExternalServiceError(constants.ServiceVault,
			fmt.Sprintf("failed to read secret at %s", path), err)
	}
	metrics.VaultOperationsTotal.WithLabelValues("read_secret", "success").Inc()

	value, ok := secret.Data["kubeconfig"].(string)
	if !ok || value == "" {
		return "", utils.WrapError(utils.ErrCodeValidationFailed,
			fmt.Sprintf("no kubeconfig found at vault path %s", path), nil)
	}

	return value, nil
}

// Health reports whether the Vault server answers its health endpoint.
func (r *VaultReader) Health(ctx context.Context) error {
	_, err := r.client.Sys().HealthWithContext(ctx)
	return err
}
