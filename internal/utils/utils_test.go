package utils

import (
	"fmt"
	"net"
	"testing"
	"time"
)

func TestMatchProcessList(t *testing.T) {
	psOutput := `    PID COMMAND
      1 /sbin/init
    314 /usr/local/bin/spectrum-keeper run --service --host 127.0.0.1 --port 5000
    315 grep run --service
   9999 bash
`
	pids := MatchProcessList(psOutput, "run --service")
	if len(pids) != 2 {
		t.Fatalf("pids = %v", pids)
	}
	if pids[0] != 314 || pids[1] != 315 {
		t.Errorf("pids = %v", pids)
	}

	if pids := MatchProcessList(psOutput, "no-such-process"); len(pids) != 0 {
		t.Errorf("unexpected matches: %v", pids)
	}
	if pids := MatchProcessList("", "anything"); len(pids) != 0 {
		t.Errorf("empty input produced matches: %v", pids)
	}
}

func TestMatchProcessListSkipsHeaderAndGarbage(t *testing.T) {
	psOutput := "PID COMMAND\nnot-a-pid run --service\n  42 run --service\n"
	pids := MatchProcessList(psOutput, "run --service")
	if len(pids) != 1 || pids[0] != 42 {
		t.Errorf("pids = %v", pids)
	}
}

func TestGetCommandLine(t *testing.T) {
	data := struct {
		Venv string
		Port int
	}{"/opt/venv", 5000}

	cmd, args, err := GetCommandLine("{{.Venv}}/bin/python", []string{"-m", "spectrumsnek", "--port", "{{.Port}}"}, data)
	if err != nil {
		t.Fatal(err)
	}
	if cmd != "/opt/venv/bin/python" {
		t.Errorf("cmd = %q", cmd)
	}
	want := []string{"-m", "spectrumsnek", "--port", "5000"}
	if len(args) != len(want) {
		t.Fatalf("args = %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestGetCommandLineBadTemplate(t *testing.T) {
	if _, _, err := GetCommandLine("{{.Venv", nil, nil); err == nil {
		t.Error("malformed template must be rejected")
	}
}

func TestCheckPortConnectable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	if !CheckPortConnectable("127.0.0.1", port) {
		t.Error("listener not reported connectable")
	}
	ln.Close()
	if CheckPortConnectable("127.0.0.1", port) {
		t.Error("closed listener reported connectable")
	}
}

/**
 * TestWaitPortConnectableRetriesOnce verifies the single fixed-delay retry:
 * a listener that appears during the delay is caught by the second attempt.
 */
func TestWaitPortConnectableRetriesOnce(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	go func() {
		time.Sleep(100 * time.Millisecond)
		late, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			return
		}
		time.Sleep(2 * time.Second)
		late.Close()
	}()

	if !WaitPortConnectable("127.0.0.1", port, 500*time.Millisecond) {
		t.Error("late listener missed by the retry")
	}
}

func TestWaitPortConnectableGivesUp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	start := time.Now()
	if WaitPortConnectable("127.0.0.1", port, 50*time.Millisecond) {
		t.Error("dead port reported connectable")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("gave up too slowly: %v", elapsed)
	}
}
