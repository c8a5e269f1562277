package worker

import (
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pxbackup-system/cluster-orchestration/internal/constants"
	"github.com/pxbackup-system/cluster-orchestration/internal/logging"
	"github.com/pxbackup-system/cluster-orchestration/internal/metrics"
	"github.com/pxbackup-system/cluster-orchestration/internal/repository"
)

type trackedRun struct {
	executionID uuid.UUID
	clusterName string
	playbook    string
	cmd         *exec.Cmd
}

// Reaper owns playbook exit tracking: the request path starts a process
// and hands it off here; the reaper waits for the exit and writes the
// return code, completion time, and final status. For create-cluster runs
// it also flips the cluster row to active or failed.
type Reaper struct {
	execRepo    *repository.ExecutionRepository
	clusterRepo *repository.ClusterRepository
	log         zerolog.Logger

	runs   chan trackedRun
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewReaper(execRepo *repository.ExecutionRepository, clusterRepo *repository.ClusterRepository) *Reaper {
	return &Reaper{
		execRepo:    execRepo,
		clusterRepo: clusterRepo,
		log:         logging.WithComponent("reaper"),
		runs:        make(chan trackedRun, 64),
	}
}

func (r *Reaper) Start() {
	r.log.Info().Msg("starting playbook reaper")

	orphaned, err := r.execRepo.FailOrphaned()
	if err != nil {
		r.log.Error().Err(err).Msg("failed to fail orphaned executions")
	} else if orphaned > 0 {
		r.log.Warn().Int64("count", orphaned).Msg("marked orphaned executions as failed")
	}

	r.wg.Add(1)
	go r.loop()
}

func (r *Reaper) Stop() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.runs)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// Track hands a started process to the reaper. Nil commands (test doubles)
// are ignored; a process handed in after Stop is dropped with a warning
// rather than panicking on the closed channel.
func (r *Reaper) Track(executionID uuid.UUID, clusterName, playbook string, cmd *exec.Cmd) {
	if cmd == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.log.Warn().
			Str("execution_id", executionID.String()).
			Str("playbook", playbook).
			Msg("reaper stopped, dropping process handoff")
		return
	}
	r.runs <- trackedRun{
		executionID: executionID,
		clusterName: clusterName,
		playbook:    playbook,
		cmd:         cmd,
	}
}

func (r *Reaper) loop() {
	defer r.wg.Done()

	for run := range r.runs {
		r.wg.Add(1)
		go func(run trackedRun) {
			defer r.wg.Done()
			r.reap(run)
		}(run)
	}
}

func (r *Reaper) reap(run trackedRun) {
	err := run.cmd.Wait()

	returnCode := 0
	status := constants.ExecutionStatusSucceeded
	if err != nil {
		status = constants.ExecutionStatusFailed
		if exitErr, ok := err.(*exec.ExitError); ok {
			returnCode = exitErr.ExitCode()
		} else {
			returnCode = -1
		}
	}

	metrics.PlaybookExecutionsTotal.WithLabelValues(run.playbook, status).Inc()

	if err := r.execRepo.SetResult(run.executionID, status, returnCode, time.Now().UTC()); err != nil {
		r.log.Error().Err(err).
			Str("execution_id", run.executionID.String()).
			Msg("failed to record playbook result")
	}

	if run.playbook == constants.PlaybookCreateCluster {
		clusterStatus := constants.ClusterStatusActive
		if status == constants.ExecutionStatusFailed {
			clusterStatus = constants.ClusterStatusFailed
		}
		if err := r.clusterRepo.UpdateStatus(run.clusterName, clusterStatus); err != nil {
			r.log.Error().Err(err).
				Str("cluster", run.clusterName).
				Msg("failed to update cluster status after playbook exit")
		}
	}

	r.log.Info().
		Str("playbook", run.playbook).
		Str("execution_id", run.executionID.String()).
		Str("status", status).
		Int("return_code", returnCode).
		Msg("playbook finished")
}
