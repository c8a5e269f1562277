package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pxbackup-system/cluster-orchestration/internal/config"
	"github.com/pxbackup-system/cluster-orchestration/internal/constants"
	"github.com/pxbackup-system/cluster-orchestration/internal/utils"
)

// Record is the inventory service's view of a registered cluster. ID and
// Metadata are passed through to the playbook untouched.
type Record struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Client confirms a cluster name is registered in the external inventory
// service before creation is allowed.
type Client interface {
	Lookup(ctx context.Context, name string) (*Record, error)
}

type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewClient(cfg config.InventoryConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *HTTPClient) Lookup(ctx context.Context, name string) (*Record, error) {
	url := fmt.Sprintf("%s/clusters/%s", c.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, utils.NewExternalServiceError(constants.ServiceInventory, "failed to build inventory request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, utils.NewExternalServiceError(constants.ServiceInventory, "inventory service unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, utils.WrapError(utils.ErrCodeNotFound,
			fmt.Sprintf("cluster %s not found in inventory", name), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, utils.NewExternalServiceError(constants.ServiceInventory,
			fmt.Sprintf("inventory service returned status %d", resp.StatusCode), nil)
	}

	var record Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, utils.NewExternalServiceError(constants.ServiceInventory, "invalid inventory response", err)
	}

	return &record, nil
}

// Ping is used by the health endpoint: any HTTP response counts as up.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/clusters", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
