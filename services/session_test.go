package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/**
 * TestSessionDecisionTable pins the four-case bootstrap semantics: local
 * logins replace their shell with the session, remote logins attach and
 * fall through, and only fresh cases create the session.
 */
func TestSessionDecisionTable(t *testing.T) {
	cases := []struct {
		local bool
		alive bool
		want  SessionCase
		plan  SessionPlan
	}{
		{true, false, LocalFresh, SessionPlan{Create: true, Exec: true}},
		{true, true, LocalExisting, SessionPlan{Create: false, Exec: true}},
		{false, false, RemoteFresh, SessionPlan{Create: true, Exec: false}},
		{false, true, RemoteExisting, SessionPlan{Create: false, Exec: false}},
	}
	for _, tc := range cases {
		t.Run(tc.want.String(), func(t *testing.T) {
			c := Classify(tc.local, tc.alive)
			assert.Equal(t, tc.want, c)
			assert.Equal(t, tc.plan, c.Plan())
		})
	}
}

func TestDetectLocality(t *testing.T) {
	cases := []struct {
		name  string
		env   map[string]string
		local bool
	}{
		{"console", map[string]string{}, true},
		{"ssh-connection", map[string]string{"SSH_CONNECTION": "10.0.0.2 55000 10.0.0.1 22"}, false},
		{"ssh-tty", map[string]string{"SSH_TTY": "/dev/pts/0"}, false},
		{"ssh-client", map[string]string{"SSH_CLIENT": "10.0.0.2 55000 22"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewSessionBootstrap(testConfig(t), newFakeRunner())
			b.getenv = func(key string) string { return tc.env[key] }
			assert.Equal(t, tc.local, b.DetectLocality())
		})
	}
}

func TestSessionAlive(t *testing.T) {
	run := newFakeRunner()
	b := NewSessionBootstrap(testConfig(t), run)
	assert.True(t, b.SessionAlive(context.Background()))
	assert.True(t, run.called("tmux has-session -t spectrumsnek"))
}

/**
 * TestRunFallbackWithoutTmux verifies the entry point runs in the
 * foreground when the multiplexer is missing instead of failing.
 */
func TestRunFallbackWithoutTmux(t *testing.T) {
	run := newFakeRunner()
	b := NewSessionBootstrap(testConfig(t), run)

	err := b.Run(context.Background(), "/opt/venv/bin/python -m spectrumsnek")
	require.NoError(t, err)
	assert.True(t, run.called("/opt/venv/bin/python -m spectrumsnek"))
	assert.False(t, run.called("tmux"))
}

// Remote logins attach through the runner, which the fake can observe; the
// local exec path replaces the test process and is covered by the decision
// table instead.
func TestRunRemoteCreatesAndAttaches(t *testing.T) {
	run := newFakeRunner()
	run.havePath("tmux", "/usr/bin/tmux")
	run.on("tmux has-session", "no server running", errors.New("exit status 1"))

	b := NewSessionBootstrap(testConfig(t), run)
	b.getenv = func(key string) string {
		if key == "SSH_TTY" {
			return "/dev/pts/0"
		}
		return ""
	}

	err := b.Run(context.Background(), "/opt/venv/bin/python -m spectrumsnek")
	require.NoError(t, err)
	assert.True(t, run.called("tmux new-session -d -s spectrumsnek"))
	assert.True(t, run.called("tmux attach-session -t spectrumsnek"))
}

func TestRunRemoteExistingOnlyAttaches(t *testing.T) {
	run := newFakeRunner()
	run.havePath("tmux", "/usr/bin/tmux")

	b := NewSessionBootstrap(testConfig(t), run)
	b.getenv = func(key string) string {
		if key == "SSH_CONNECTION" {
			return "10.0.0.2 55000 10.0.0.1 22"
		}
		return ""
	}

	err := b.Run(context.Background(), "entry")
	require.NoError(t, err)
	assert.False(t, run.called("tmux new-session"))
	assert.True(t, run.called("tmux attach-session -t spectrumsnek"))
}

func TestRenderBootstrapScript(t *testing.T) {
	cfg := testConfig(t)
	script, err := RenderBootstrapScript(cfg, "/opt/venv/bin/python -m spectrumsnek")
	require.NoError(t, err)

	text := string(script)
	assert.True(t, strings.HasPrefix(text, "#!/bin/sh"))
	assert.Contains(t, text, `SESSION="spectrumsnek"`)
	assert.Contains(t, text, "tmux has-session")
	assert.Contains(t, text, "exec tmux attach-session")
	assert.Contains(t, text, "SSH_CONNECTION")
}
