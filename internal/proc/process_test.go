package proc

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"spectrum-keeper/internal/models"
)

/**
 * TestWatcherReportsExit verifies the watcher goroutine reaps a child that
 * exits on its own and reports it through the callback without restarting.
 */
func TestWatcherReportsExit(t *testing.T) {
	p := NewProcessInstance("test-exit", "true", "/bin/sh", []string{"-c", "exit 0"})

	var calls int32
	done := make(chan *ProcessInstance, 1)
	p.SetWatcher(0, func(pi *ProcessInstance) {
		if atomic.AddInt32(&calls, 1) == 1 {
			done <- pi
		}
	})

	if err := p.StartProcess(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case pi := <-done:
		if pi.Status != models.StatusExited {
			t.Errorf("status = %s", pi.Status)
		}
		if pi.LastExitReason != "exited normally" {
			t.Errorf("reason = %q", pi.LastExitReason)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher callback never fired")
	}

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("callback fired %d times, restart was not requested", n)
	}
}

/**
 * TestWatcherRestartsCrashedChild verifies auto-restart: a child that
 * keeps exiting is restarted up to the configured count with a new PID.
 */
func TestWatcherRestartsCrashedChild(t *testing.T) {
	p := NewProcessInstance("test-restart", "false", "/bin/sh", []string{"-c", "exit 1"})

	restarted := make(chan int, 4)
	p.SetWatcher(2, func(pi *ProcessInstance) {
		restarted <- pi.RestartCount
	})

	if err := p.StartProcess(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(10 * time.Second)
	maxSeen := 0
	for maxSeen < 2 {
		select {
		case n := <-restarted:
			if n > maxSeen {
				maxSeen = n
			}
		case <-deadline:
			t.Fatalf("restart count stuck at %d", maxSeen)
		}
	}
}

func TestStopProcess(t *testing.T) {
	p := NewProcessInstance("test-stop", "sleep", "/bin/sleep", []string{"30"})

	stopped := make(chan struct{}, 1)
	p.SetWatcher(3, func(pi *ProcessInstance) {
		if pi.Status == models.StatusStopped {
			stopped <- struct{}{}
		}
	})

	if err := p.StartProcess(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	pid := p.Pid()
	if pid <= 0 {
		t.Fatalf("pid = %d", pid)
	}

	if err := p.StopProcess(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// Deliberate stop must not trigger the restart path.
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("stop was treated as a crash")
	}
	if p.Status != models.StatusStopped {
		t.Errorf("status = %s", p.Status)
	}
	if p.LastExitReason != "stopped by user" {
		t.Errorf("reason = %q", p.LastExitReason)
	}
}

func TestStartFailure(t *testing.T) {
	p := NewProcessInstance("test-missing", "missing", "/no/such/binary", nil)
	if err := p.StartProcess(context.Background()); err == nil {
		t.Fatal("missing binary must fail to start")
	}
	if p.Status != models.StatusError {
		t.Errorf("status = %s", p.Status)
	}
}

func TestStartIsIdempotentWhileRunning(t *testing.T) {
	p := NewProcessInstance("test-idem", "sleep", "/bin/sleep", []string{"30"})
	if err := p.StartProcess(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.StopProcess()

	pid := p.Pid()
	if err := p.StartProcess(context.Background()); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if p.Pid() != pid {
		t.Errorf("second start replaced the child: %d != %d", p.Pid(), pid)
	}
}
