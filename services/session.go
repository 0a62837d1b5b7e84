package services

import (
	"bytes"
	"context"
	"os"
	"strings"
	"syscall"
	"text/template"

	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/logger"
	"spectrum-keeper/internal/system"
)

// SessionCase is the explicit decision-table state for session bootstrap.
// Two inputs (is this a local tty? is the named session alive?) produce
// four cases; keeping them as a tagged variant instead of nested
// conditionals pins the semantics down.
type SessionCase int

const (
	LocalFresh SessionCase = iota
	LocalExisting
	RemoteFresh
	RemoteExisting
)

func (c SessionCase) String() string {
	switch c {
	case LocalFresh:
		return "local-fresh"
	case LocalExisting:
		return "local-existing"
	case RemoteFresh:
		return "remote-fresh"
	case RemoteExisting:
		return "remote-existing"
	}
	return "unknown"
}

// Classify maps the two boolean inputs onto the four-case table.
func Classify(localTTY, sessionAlive bool) SessionCase {
	switch {
	case localTTY && !sessionAlive:
		return LocalFresh
	case localTTY && sessionAlive:
		return LocalExisting
	case !localTTY && !sessionAlive:
		return RemoteFresh
	default:
		return RemoteExisting
	}
}

/**
 * SessionPlan is the action the bootstrap takes for one case.
 * @property {bool} Create - Create the named session before attaching
 * @property {bool} Exec - Replace the login shell with the multiplexer
 *                  (local console); false means attach-and-fall-through
 *                  (remote login keeps its shell on detach)
 */
type SessionPlan struct {
	Create bool
	Exec   bool
}

// Plan resolves the chosen semantics: local consoles exec-replace into the
// session, remote logins attach and fall through.
func (c SessionCase) Plan() SessionPlan {
	switch c {
	case LocalFresh:
		return SessionPlan{Create: true, Exec: true}
	case LocalExisting:
		return SessionPlan{Create: false, Exec: true}
	case RemoteFresh:
		return SessionPlan{Create: true, Exec: false}
	default: // RemoteExisting
		return SessionPlan{Create: false, Exec: false}
	}
}

/**
 * SessionBootstrap attaches a login to the persistent multiplexed session
 * running the interactive entry point.
 */
type SessionBootstrap struct {
	cfg *config.AppConfig
	run system.Runner
	// environment lookup, overridable in tests
	getenv func(string) string
}

func NewSessionBootstrap(cfg *config.AppConfig, run system.Runner) *SessionBootstrap {
	return &SessionBootstrap{cfg: cfg, run: run, getenv: os.Getenv}
}

// DetectLocality treats any SSH login as remote; everything with a plain
// tty is the local console.
func (b *SessionBootstrap) DetectLocality() bool {
	if b.getenv("SSH_CONNECTION") != "" || b.getenv("SSH_TTY") != "" || b.getenv("SSH_CLIENT") != "" {
		return false
	}
	return true
}

// SessionAlive asks tmux whether the named session exists.
func (b *SessionBootstrap) SessionAlive(ctx context.Context) bool {
	_, err := b.run.Run(ctx, "tmux", "has-session", "-t", b.cfg.System.SessionName)
	return err == nil
}

/**
 * Run executes the bootstrap decision for the current login.
 * @param {string} entry - Interactive entry point command line
 * @returns {error} Returns error only when even the fallback could not run
 * @description
 * - tmux unavailable: entry point runs directly in the foreground, giving
 *   up persistence across disconnect (warning logged)
 * - Exec cases replace this process image via execve
 */
func (b *SessionBootstrap) Run(ctx context.Context, entry string) error {
	tmuxPath, err := b.run.LookPath("tmux")
	if err != nil {
		logger.Warnf("tmux not available, running entry point in foreground (no session persistence)")
		parts := strings.Fields(entry)
		_, err := b.run.Run(ctx, parts[0], parts[1:]...)
		return err
	}

	c := Classify(b.DetectLocality(), b.SessionAlive(ctx))
	plan := c.Plan()
	logger.Infof("Session bootstrap: case=%s create=%v exec=%v", c, plan.Create, plan.Exec)

	name := b.cfg.System.SessionName
	if plan.Create {
		if _, err := b.run.Run(ctx, "tmux", "new-session", "-d", "-s", name, entry); err != nil {
			return err
		}
	}
	if plan.Exec {
		return syscall.Exec(tmuxPath, []string{"tmux", "attach-session", "-t", name}, os.Environ())
	}
	_, err = b.run.Run(ctx, "tmux", "attach-session", "-t", name)
	return err
}

const bootstrapScriptTmpl = `#!/bin/sh
# Generated by spectrum-keeper; encodes its session decision table.
SESSION="{{.Session}}"
ENTRY="{{.Entry}}"

if ! command -v tmux >/dev/null 2>&1; then
    echo "tmux not found, running entry point without session persistence" >&2
    exec $ENTRY
fi

if [ -n "$SSH_CONNECTION" ] || [ -n "$SSH_TTY" ]; then
    LOCAL=0
else
    LOCAL=1
fi

if tmux has-session -t "$SESSION" 2>/dev/null; then
    ALIVE=1
else
    ALIVE=0
fi

[ "$ALIVE" = 0 ] && tmux new-session -d -s "$SESSION" "$ENTRY"

if [ "$LOCAL" = 1 ]; then
    # Local console becomes the application.
    exec tmux attach-session -t "$SESSION"
else
    # Remote login gets its shell back on detach.
    tmux attach-session -t "$SESSION"
fi
`

/**
 * RenderBootstrapScript produces the generated shell bootstrap, which is
 * what the auto-login console actually runs at login.
 */
func RenderBootstrapScript(cfg *config.AppConfig, entry string) ([]byte, error) {
	t, err := template.New("bootstrap").Parse(bootstrapScriptTmpl)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, struct {
		Session string
		Entry   string
	}{cfg.System.SessionName, entry}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
