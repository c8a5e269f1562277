package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pxbackup-system/cluster-orchestration/internal/identity"
	"github.com/pxbackup-system/cluster-orchestration/internal/inventory"
	"github.com/pxbackup-system/cluster-orchestration/internal/middleware"
	"github.com/pxbackup-system/cluster-orchestration/internal/model"
	"github.com/pxbackup-system/cluster-orchestration/internal/repository"
	"github.com/pxbackup-system/cluster-orchestration/internal/service"
)

const testKubeconfigYAML = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://10.0.0.1:6443
  name: test
contexts:
- context:
    cluster: test
    user: admin
  name: test
current-context: test
users:
- name: admin
  user:
    token: sometoken
`

type stubLock struct{}

func (stubLock) Acquire(context.Context, string, time.Duration, time.Duration) (bool, error) {
	return true, nil
}
func (stubLock) Release(string) {}

type stubInventory struct{}

func (stubInventory) Lookup(_ context.Context, name string) (*inventory.Record, error) {
	return &inventory.Record{ID: "inv-1", Name: name}, nil
}

type stubSecrets struct{}

func (stubSecrets) ReadKubeconfig(context.Context, string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(testKubeconfigYAML)), nil
}

type stubRunner struct{}

func (stubRunner) Launch(playbook string, _ map[string]string) (*service.LaunchResult, error) {
	return &service.LaunchResult{PID: 4242, Command: "ansible-playbook " + playbook}, nil
}

type stubTracker struct{}

func (stubTracker) Track(uuid.UUID, string, string, *exec.Cmd) {}

type stubVerifier struct{}

func (stubVerifier) Verify(context.Context, string) (*identity.Claims, error) {
	return &identity.Claims{Subject: "user-1"}, nil
}

type handlerFixture struct {
	db     *gorm.DB
	router *gin.Engine
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Cluster{}, &model.PlaybookExecution{}, &model.AuditLog{}))

	encryption, err := service.NewEncryptionService("handler-test-key")
	require.NoError(t, err)

	auditRepo := repository.NewAuditRepository(db)
	orchestrator := service.NewOrchestrator(
		repository.NewClusterRepository(db),
		repository.NewExecutionRepository(db),
		auditRepo,
		stubLock{},
		stubInventory{},
		stubSecrets{},
		stubRunner{},
		encryption,
		stubTracker{},
		time.Second,
		time.Minute,
	)

	clusterHandler := NewClusterHandler(orchestrator)
	auditHandler := NewAuditHandler(auditRepo)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(stubVerifier{}))
	{
		clusters := v1.Group("/clusters")
		clusters.POST("", clusterHandler.CreateCluster)
		clusters.POST("/service-account", clusterHandler.UpdateServiceAccount)
		clusters.GET("/status", clusterHandler.ListClusterStatuses)
		clusters.GET(":name/status", clusterHandler.GetClusterStatus)
		clusters.GET(":name/executions", clusterHandler.ListExecutions)

		v1.GET("/audit", auditHandler.ListAuditLogs)
		v1.POST("/update_service_account", clusterHandler.UpdateServiceAccount)
		v1.GET("/check_cluster_status/:name", clusterHandler.GetClusterStatus)
	}

	return &handlerFixture{db: db, router: r}
}

func (f *handlerFixture) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func createBody() map[string]interface{} {
	return map[string]interface{}{
		"name":            "prod-east",
		"service_account": "backup-agent",
		"namespace":       "px-backup",
		"kubeconfig":      base64.StdEncoding.EncodeToString([]byte(testKubeconfigYAML)),
	}
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestCreateClusterEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/clusters", createBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	envelope := decodeEnvelope(t, w)
	assert.EqualValues(t, 0, envelope["code"])

	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "prod-east", data["cluster_name"])
	assert.Equal(t, "creating", data["status"])
	assert.NotEmpty(t, data["execution_id"])
}

func TestCreateClusterEndpointRejectsBadJSON(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clusters", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Authorization", "Bearer test-token")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateClusterEndpointValidation(t *testing.T) {
	f := newHandlerFixture(t)

	body := createBody()
	body["name"] = "Invalid_Name"
	w := f.request(t, http.MethodPost, "/api/v1/clusters", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestCreateClusterEndpointConflict(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/clusters", createBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(t, http.MethodPost, "/api/v1/clusters", createBody())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "RESOURCE_CONFLICT")
}

func TestGetClusterStatusEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/clusters", createBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(t, http.MethodGet, "/api/v1/clusters/prod-east/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "prod-east", data["name"])
	assert.NotNil(t, data["latest_execution"])

	w = f.request(t, http.MethodGet, "/api/v1/clusters/missing/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "RESOURCE_NOT_FOUND")
}

func TestLegacyStatusRoute(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/clusters", createBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(t, http.MethodGet, "/api/v1/check_cluster_status/prod-east", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListClusterStatusesEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/clusters", createBody())
	require.Equal(t, http.StatusCreated, w.Code)

	body := createBody()
	body["name"] = "prod-west"
	w = f.request(t, http.MethodPost, "/api/v1/clusters", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(t, http.MethodGet, "/api/v1/clusters/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]interface{})
	assert.EqualValues(t, 2, data["count"])
}

func TestUpdateServiceAccountEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/clusters", createBody())
	require.Equal(t, http.StatusCreated, w.Code)

	update := map[string]interface{}{
		"cluster_name":    "prod-east",
		"service_account": "rotated-agent",
	}
	for _, path := range []string{"/api/v1/clusters/service-account", "/api/v1/update_service_account"} {
		w = f.request(t, http.MethodPost, path, update)
		assert.Equal(t, http.StatusAccepted, w.Code, path)
	}

	w = f.request(t, http.MethodPost, "/api/v1/update_service_account", map[string]interface{}{
		"cluster_name":    "missing-one",
		"service_account": "rotated-agent",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListExecutionsEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/clusters", createBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(t, http.MethodGet, "/api/v1/clusters/prod-east/executions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["count"])
}

func TestAuditEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/clusters", createBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(t, http.MethodGet, "/api/v1/audit?action=create_cluster", nil)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["total"])

	w = f.request(t, http.MethodGet, "/api/v1/audit?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
