package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectrum-keeper/internal/models"
)

func TestDetectFamily(t *testing.T) {
	cases := []struct {
		name string
		bin  string
		want PackageFamily
	}{
		{"debian", "apt-get", FamilyApt},
		{"fedora", "dnf", FamilyDnf},
		{"arch", "pacman", FamilyPacman},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			run := newFakeRunner()
			run.havePath(tc.bin, "/usr/bin/"+tc.bin)
			p := NewProvisioner(testConfig(t), run)
			assert.Equal(t, tc.want, p.DetectFamily())
		})
	}

	t.Run("none", func(t *testing.T) {
		p := NewProvisioner(testConfig(t), newFakeRunner())
		assert.Equal(t, FamilyUnknown, p.DetectFamily())
	})
}

/**
 * TestInstallNativeNotRoot verifies that missing privileges downgrade the
 * native package step to a warning instead of aborting provisioning.
 */
func TestInstallNativeNotRoot(t *testing.T) {
	run := newFakeRunner()
	run.havePath("apt-get", "/usr/bin/apt-get")
	p := NewProvisioner(testConfig(t), run)
	p.euid = func() int { return 1000 }

	report := p.InstallNative(context.Background())
	assert.Equal(t, models.OutcomePartial, report.Outcome)
	assert.False(t, run.called("apt-get"), "package manager must not run without root")
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "not running as root")
}

func TestInstallNativeAsRoot(t *testing.T) {
	run := newFakeRunner()
	run.havePath("apt-get", "/usr/bin/apt-get")
	p := NewProvisioner(testConfig(t), run)
	p.euid = func() int { return 0 }

	report := p.InstallNative(context.Background())
	assert.Equal(t, models.OutcomeSuccess, report.Outcome)
	assert.True(t, run.called("apt-get install -y rtl-sdr"))
}

func TestInstallNativeFailureIsWarning(t *testing.T) {
	run := newFakeRunner()
	run.havePath("dnf", "/usr/bin/dnf")
	run.on("dnf install", "No match for argument: rtl-sdr\n", errors.New("exit status 1"))
	p := NewProvisioner(testConfig(t), run)
	p.euid = func() int { return 0 }

	report := p.InstallNative(context.Background())
	assert.Equal(t, models.OutcomePartial, report.Outcome)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "No match for argument")
}

/**
 * TestCreateRuntimeWritesManifest verifies the runtime step records what it
 * installed, which is what Verify later checks against.
 */
func TestCreateRuntimeWritesManifest(t *testing.T) {
	cfg := testConfig(t)
	run := newFakeRunner()
	p := NewProvisioner(cfg, run)

	report := p.CreateRuntime(context.Background())
	assert.Equal(t, models.OutcomeSuccess, report.Outcome)
	assert.True(t, run.called("python3 -m venv"))
	assert.True(t, run.called(p.VenvPython()+" -m pip install"))

	data, err := os.ReadFile(filepath.Join(cfg.Directory.Venv, manifestName))
	require.NoError(t, err)
	for _, r := range cfg.Provision.Requirements {
		assert.Contains(t, string(data), r)
	}
}

func TestCreateRuntimeSkipsExistingVenv(t *testing.T) {
	cfg := testConfig(t)
	run := newFakeRunner()
	p := NewProvisioner(cfg, run)

	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Directory.Venv, "bin"), 0755))
	require.NoError(t, os.WriteFile(p.VenvPython(), []byte("#!/bin/true\n"), 0755))

	p.CreateRuntime(context.Background())
	assert.False(t, run.called("python3 -m venv"), "existing environment must be reused")
	assert.True(t, run.called(p.VenvPython()+" -m pip install"))
}

func TestVerify(t *testing.T) {
	cfg := testConfig(t)
	p := NewProvisioner(cfg, newFakeRunner())

	err := p.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime environment missing")

	// A full provisioning run must leave Verify satisfied.
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Directory.Venv, "bin"), 0755))
	require.NoError(t, os.WriteFile(p.VenvPython(), []byte("#!/bin/true\n"), 0755))
	report := p.CreateRuntime(context.Background())
	require.Equal(t, models.OutcomeSuccess, report.Outcome)
	assert.NoError(t, p.Verify())

	// Tightening the requirements invalidates the recorded manifest.
	cfg.Provision.Requirements = append(cfg.Provision.Requirements, "pandas==2.2.0")
	err = p.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pandas==2.2.0")
}

func TestProvisionSkipNative(t *testing.T) {
	run := newFakeRunner()
	run.havePath("apt-get", "/usr/bin/apt-get")
	p := NewProvisioner(testConfig(t), run)
	p.euid = func() int { return 0 }

	p.Provision(context.Background(), true)
	for _, c := range run.calls {
		if strings.HasPrefix(c.Name, "apt-get") {
			t.Fatalf("native install ran despite skip flag: %v", c)
		}
	}
}
