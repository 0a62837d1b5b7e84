package services

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"spectrum-keeper/internal/config"
)

type fakeCall struct {
	Name string
	Args []string
}

type fakeRule struct {
	prefix string
	out    string
	err    error
}

/**
 * fakeRunner stands in for the host's package manager, init system and
 * assorted utilities. Rules match on the command-line prefix in the order
 * they were registered; unmatched commands succeed with empty output.
 */
type fakeRunner struct {
	paths map[string]string
	rules []fakeRule
	calls []fakeCall
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{paths: map[string]string{}}
}

func (f *fakeRunner) on(prefix, out string, err error) {
	f.rules = append(f.rules, fakeRule{prefix: prefix, out: out, err: err})
}

func (f *fakeRunner) havePath(name, path string) {
	f.paths[name] = path
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, fakeCall{Name: name, Args: args})
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	for _, r := range f.rules {
		if strings.HasPrefix(line, r.prefix) {
			return r.out, r.err
		}
	}
	return "", nil
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if p, ok := f.paths[name]; ok {
		return p, nil
	}
	return "", exec.ErrNotFound
}

// called reports whether any recorded command line starts with prefix.
func (f *fakeRunner) called(prefix string) bool {
	for _, c := range f.calls {
		line := strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// testConfig builds a configuration whose every path points into a private
// temp directory, so tests never touch real host locations.
func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	root := t.TempDir()
	return &config.AppConfig{
		// port chosen from the dynamic range so nothing on the test host
		// will be listening on it
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 59123, Mode: "test"},
		Log:    config.LogConfig{Level: "info", Path: "console"},
		Directory: config.DirectoryConfig{
			Root:  root,
			Bin:   filepath.Join(root, "bin"),
			Logs:  filepath.Join(root, "logs"),
			Cache: filepath.Join(root, "cache"),
			Venv:  filepath.Join(root, "venv"),
		},
		System: config.SystemConfig{
			UnitDir:          filepath.Join(root, "systemd"),
			GettyOverrideDir: filepath.Join(root, "systemd", "getty@tty1.service.d"),
			RulesDir:         filepath.Join(root, "udev"),
			UnitName:         "spectrumsnek",
			SessionName:      "spectrumsnek",
			DeviceGroup:      "plugdev",
		},
		Provision: config.ProvisionConfig{
			Python:       "python3",
			Packages:     config.DefaultPackages,
			Requirements: config.DefaultRequirements,
		},
	}
}
