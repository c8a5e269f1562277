package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pxbackup-system/cluster-orchestration/internal/utils"
)

// LaunchResult is the handle for a started playbook process. Cmd is nil for
// test doubles; the reaper waits on it when present.
type LaunchResult struct {
	PID     int
	Command string
	Cmd     *exec.Cmd
}

// Runner launches an external playbook process without waiting for it to
// finish. It fails only when the process cannot start at all.
type Runner interface {
	Launch(playbook string, extraVars map[string]string) (*LaunchResult, error)
}

// AnsibleRunner runs ansible-playbook as a detached child inheriting the
// current environment.
type AnsibleRunner struct {
	dir string
}

func NewAnsibleRunner(dir string) *AnsibleRunner {
	return &AnsibleRunner{dir: dir}
}

// VerifyPlaybooks fails startup when a required playbook is missing.
func (r *AnsibleRunner) VerifyPlaybooks(required ...string) error {
	var missing []string
	for _, name := range required {
		if _, err := os.Stat(filepath.Join(r.dir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required playbooks not found in %s: %s", r.dir, strings.Join(missing, ", "))
	}
	return nil
}

func (r *AnsibleRunner) Launch(playbook string, extraVars map[string]string) (*LaunchResult, error) {
	args := BuildPlaybookArgs(filepath.Join(r.dir, playbook), extraVars)

	cmd := exec.Command("ansible-playbook", args...)
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return nil, utils.WrapError(utils.ErrCodeInternalError,
			fmt.Sprintf("failed to start playbook %s", playbook), err)
	}

	return &LaunchResult{
		PID:     cmd.Process.Pid,
		Command: "ansible-playbook " + strings.Join(args, " "),
		Cmd:     cmd,
	}, nil
}

// BuildPlaybookArgs assembles the argument list. Every extra var becomes a
// single "-e key=value" pair with the value shell-quoted as one unit; keys
// are sorted so the captured command line is stable.
func BuildPlaybookArgs(playbookPath string, extraVars map[string]string) []string {
	args := []string{playbookPath}

	keys := make([]string, 0, len(extraVars))
	for k := range extraVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, ShellQuote(extraVars[k])))
	}
	return args
}

// ShellQuote single-quotes a value the way shlex.quote does, so a value can
// never break out of its key=value pair.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'`$\\!*?[]{}()<>|&;~#%^") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
