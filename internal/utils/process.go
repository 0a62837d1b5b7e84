//go:build unix || linux || darwin

package utils

import (
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// SetNewPG puts the child in its own process group so it survives the
// parent and can be signalled as a group.
func SetNewPG(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// IsProcessRunning checks process liveness with a null signal.
func IsProcessRunning(pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true, nil
	}
	if err == syscall.EPERM {
		// Exists but owned by someone else.
		return true, nil
	}
	return false, nil
}

/**
 * Find PIDs whose command line contains the given pattern
 * @param {string} psOutput - Output of `ps -e -o pid,command`
 * @param {string} pattern - Substring matched against the command line
 * @returns {[]int} Returns matching PIDs
 * @description
 * Parsing is separated from process enumeration so the scan can be tested
 * against canned ps output.
 */
func MatchProcessList(psOutput, pattern string) []int {
	var pids []int
	for _, line := range strings.Split(psOutput, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "PID") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if !strings.Contains(strings.Join(fields[1:], " "), pattern) {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

// TerminateGroup sends SIGTERM to the process group, used when stopping a
// tool launched with SetNewPG.
func TerminateGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}

// KillGroup sends SIGKILL to the process group.
func KillGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
