package constants

const (
	ClusterStatusCreating = "creating"
	ClusterStatusActive   = "active"
	ClusterStatusFailed   = "failed"
)

const (
	ExecutionStatusRunning   = "running"
	ExecutionStatusSucceeded = "succeeded"
	ExecutionStatusFailed    = "failed"
)

const (
	AuditStatusSuccess = "success"
	AuditStatusError   = "error"
)

const (
	ActionCreateCluster        = "create_cluster"
	ActionUpdateServiceAccount = "update_service_account"
)

const (
	PlaybookCreateCluster        = "create_cluster.yml"
	PlaybookUpdateServiceAccount = "update_service_account.yml"
)

const (
	ServiceInventory = "inventory"
	ServiceVault     = "vault"
	ServiceDatabase  = "database"
)
