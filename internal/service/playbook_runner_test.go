package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "''", ShellQuote(""))
	assert.Equal(t, "plain-value", ShellQuote("plain-value"))
	assert.Equal(t, "'has space'", ShellQuote("has space"))
	assert.Equal(t, `'semi;colon'`, ShellQuote("semi;colon"))
	assert.Equal(t, `'a'"'"'b'`, ShellQuote("a'b"))
	assert.Equal(t, `'$(rm -rf /)'`, ShellQuote("$(rm -rf /)"))
}

func TestBuildPlaybookArgsStableOrder(t *testing.T) {
	args := BuildPlaybookArgs("/app/playbooks/create_cluster.yml", map[string]string{
		"namespace":    "px-backup",
		"cluster_name": "prod-east",
		"force":        "false",
	})

	assert.Equal(t, []string{
		"/app/playbooks/create_cluster.yml",
		"-e", "cluster_name=prod-east",
		"-e", "force=false",
		"-e", "namespace=px-backup",
	}, args)
}

func TestBuildPlaybookArgsQuotesValues(t *testing.T) {
	args := BuildPlaybookArgs("play.yml", map[string]string{
		"kubeconfig": "a b; rm -rf /",
	})

	require.Len(t, args, 3)
	assert.Equal(t, "kubeconfig='a b; rm -rf /'", args[2])
}

func TestVerifyPlaybooks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "create_cluster.yml"), []byte("---\n"), 0o644))

	runner := NewAnsibleRunner(dir)
	require.NoError(t, runner.VerifyPlaybooks("create_cluster.yml"))

	err := runner.VerifyPlaybooks("create_cluster.yml", "update_service_account.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update_service_account.yml")
}
