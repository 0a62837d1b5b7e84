package proc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"spectrum-keeper/internal/logger"
	"spectrum-keeper/internal/models"
	"spectrum-keeper/internal/utils"
)

type processWatcher struct {
	maxRestartCount int                    // restarts used to paper over transient crashes
	onChanged       func(*ProcessInstance) // invoked after exit/restart/stop
}

/**
 * ProcessInstance wraps one supervised child process.
 * @property {string} Title - Display name, stable across restarts
 * @property {string} ProcessName - Name as shown in the process list
 * @property {string} Command - Executable
 * @property {[]string} Args - Arguments
 * @property {string} WorkDir - Working directory ("" for inherited)
 * @property {models.RunStatus} Status - running/exited/stopped/error
 */
type ProcessInstance struct {
	Title          string
	ProcessName    string
	Command        string
	Args           []string
	WorkDir        string
	Status         models.RunStatus
	RestartCount   int
	StartTime      time.Time
	LastExitTime   time.Time
	LastExitReason string
	watcher        processWatcher
	process        *os.Process
	mutex          sync.Mutex
}

func NewProcessInstance(title, procName, command string, args []string) *ProcessInstance {
	return &ProcessInstance{
		Title:        title,
		ProcessName:  procName,
		Command:      command,
		Args:         args,
		WorkDir:      "",
		RestartCount: 0,
		Status:       models.StatusExited,
	}
}

// SetWatcher enables the monitoring goroutine. With maxRestart == 0 the
// watcher only reports exits, it never restarts.
func (pi *ProcessInstance) SetWatcher(maxRestart int, onChanged func(*ProcessInstance)) {
	pi.mutex.Lock()
	defer pi.mutex.Unlock()

	pi.watcher.onChanged = onChanged
	pi.watcher.maxRestartCount = maxRestart
}

func (pi *ProcessInstance) Pid() int {
	if pi.process == nil {
		return 0
	}
	return pi.process.Pid
}

/**
 * StartProcess starts the child and, when a watcher is set, a goroutine
 * that waits on it.
 * @param {context.Context} ctx - Context bounding the child's lifetime
 * @returns {error} Returns error if the child could not be started
 * @description
 * - Without a watcher the child is detached into its own process group so
 *   it survives the parent
 * - With a watcher the goroutine reaps the child and drives auto-restart
 */
func (pi *ProcessInstance) StartProcess(ctx context.Context) error {
	pi.mutex.Lock()
	defer pi.mutex.Unlock()
	return pi.startProcess(ctx)
}

func (pi *ProcessInstance) startProcess(ctx context.Context) error {
	if pi.Status == models.StatusRunning {
		return nil
	}
	logger.Infof("Executing command: %s %v", pi.Command, pi.Args)

	cmd := exec.CommandContext(ctx, pi.Command, pi.Args...)
	if pi.WorkDir != "" {
		cmd.Dir = pi.WorkDir
	}
	utils.SetNewPG(cmd)

	if err := cmd.Start(); err != nil {
		pi.Status = models.StatusError
		pi.LastExitReason = fmt.Sprintf("start failed: %v", err)
		logger.Errorf("Failed to start process '%s', error: %v", pi.Title, err)
		return err
	}

	pi.process = cmd.Process
	pi.Status = models.StatusRunning
	pi.StartTime = time.Now()

	logger.Infof("Process '%s' started (PID: %d)", pi.Title, pi.Pid())

	if pi.watcher.onChanged != nil {
		go pi.watchProcess(cmd.Process)
	}
	return nil
}

/**
 * StopProcess terminates the child group.
 * @description
 * - SIGTERM first, SIGKILL after a short grace period
 * - Status moves to stopped before signalling so the watcher does not
 *   treat the exit as a crash
 */
func (pi *ProcessInstance) StopProcess() error {
	pi.mutex.Lock()
	defer pi.mutex.Unlock()

	if pi.Status != models.StatusRunning {
		return nil
	}
	pi.Status = models.StatusStopped
	pi.LastExitTime = time.Now()
	pi.LastExitReason = "stopped by user"

	pid := pi.Pid()
	if pi.process != nil {
		if err := utils.TerminateGroup(pid); err != nil {
			logger.Warnf("SIGTERM to '%s' (PID: %d) failed: %v, killing", pi.Title, pid, err)
			if err := pi.process.Kill(); err != nil {
				logger.Errorf("Failed to kill process '%s' (PID: %d, NAME: %s)",
					pi.Title, pid, pi.ProcessName)
				return err
			}
		} else {
			time.AfterFunc(3*time.Second, func() {
				// Grace period over; a well-behaved tool is gone by now.
				utils.KillGroup(pid)
			})
		}
		if pi.watcher.onChanged == nil {
			pi.process.Wait()
		}
		pi.process = nil
	}

	logger.Infof("Process '%s' (PID: %d, NAME: %s) stopped",
		pi.Title, pid, pi.ProcessName)
	return nil
}

func (pi *ProcessInstance) CheckProcess() models.HealthyStatus {
	pi.mutex.Lock()
	defer pi.mutex.Unlock()

	if pi.Status != models.StatusRunning || pi.process == nil {
		return models.Unavailable
	}
	running, err := utils.IsProcessRunning(pi.Pid())
	if err != nil || !running {
		logger.Warnf("Process '%s' (PID: %d, NAME: %s) isn't running", pi.Title, pi.Pid(), pi.ProcessName)
		pi.Status = models.StatusError
		pi.process = nil
		return models.Unavailable
	}
	return models.Healthy
}

func getReason(status models.RunStatus) string {
	switch status {
	case models.StatusError:
		return "error"
	case models.StatusStopped:
		return "user"
	default:
		return "unknown"
	}
}

func (pi *ProcessInstance) watchProcess(p *os.Process) {
	_, err := p.Wait()

	pi.mutex.Lock()
	defer pi.mutex.Unlock()

	if pi.watcher.onChanged == nil { // watcher may have been cleared mid-flight
		return
	}

	if pi.Status == models.StatusStopped || pi.Status == models.StatusError {
		logger.Infof("Process '%s' stopped by %s", pi.Title, getReason(pi.Status))
		pi.watcher.onChanged(pi)
		return
	}
	pi.LastExitTime = time.Now()
	if err != nil {
		logger.Errorf("Process '%s' exited with error: %v", pi.Title, err)
		pi.LastExitReason = fmt.Sprintf("exited with error: %v", err)
	} else {
		logger.Infof("Process '%s' exited normally", pi.Title)
		pi.LastExitReason = "exited normally"
	}
	pi.Status = models.StatusExited
	pi.process = nil
	pi.autoRestart()
}

func (pi *ProcessInstance) autoRestart() {
	if pi.RestartCount >= pi.watcher.maxRestartCount {
		if pi.watcher.maxRestartCount > 0 {
			logger.Warnf("Process '%s' has reached maximum restart count (%d), not restarting",
				pi.Title, pi.watcher.maxRestartCount)
		}
		pi.watcher.onChanged(pi)
		return
	}

	logger.Infof("Process '%s' will restart in %v (restart: %d/%d)",
		pi.Title, time.Second, pi.RestartCount, pi.watcher.maxRestartCount)
	// Delayed restart avoids re-entering under the held lock.
	time.AfterFunc(time.Second, func() {
		pi.mutex.Lock()
		defer pi.mutex.Unlock()

		if pi.watcher.onChanged == nil {
			return
		}
		if pi.Status == models.StatusStopped || pi.Status == models.StatusError {
			pi.watcher.onChanged(pi)
			return
		}
		pi.RestartCount++
		pi.startProcess(context.Background())
		pi.watcher.onChanged(pi)
	})
}
