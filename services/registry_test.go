package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/models"
)

// fakeVenvPython drops a shell script where the registry expects the
// runtime interpreter, so tool launches spawn a real (harmless) process.
func fakeVenvPython(t *testing.T, cfg *config.AppConfig, body string) {
	t.Helper()
	bin := filepath.Join(cfg.Directory.Venv, "bin")
	require.NoError(t, os.MkdirAll(bin, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "python"), []byte(body), 0755))
}

func TestRegistryCatalogOrder(t *testing.T) {
	r := NewRegistry(testConfig(t), newFakeRunner())
	tools := r.List()
	require.Len(t, tools, 7)
	assert.Equal(t, "rtl_scanner", tools[0].Spec.Name)
	assert.Equal(t, "demo_scanner", tools[6].Spec.Name)
	for _, d := range tools {
		assert.Equal(t, models.StatusStopped, d.Status)
	}
}

/**
 * TestRegistryAvailability verifies a tool is available only when its host
 * dependency resolves and the runtime environment exists.
 */
func TestRegistryAvailability(t *testing.T) {
	cfg := testConfig(t)
	fakeVenvPython(t, cfg, "#!/bin/sh\nexit 0\n")
	run := newFakeRunner()
	run.havePath("rtl_test", "/usr/bin/rtl_test")

	r := NewRegistry(cfg, run)
	byName := map[string]models.ToolDetail{}
	for _, d := range r.List() {
		byName[d.Spec.Name] = d
	}

	assert.True(t, byName["rtl_scanner"].Available)
	assert.True(t, byName["demo_scanner"].Available, "tool without host dependency needs only the runtime")
	assert.False(t, byName["wifi_tool"].Available, "nmcli is missing")
}

func TestRegistryNoRuntimeNothingAvailable(t *testing.T) {
	run := newFakeRunner()
	run.havePath("rtl_test", "/usr/bin/rtl_test")
	r := NewRegistry(testConfig(t), run)
	for _, d := range r.List() {
		assert.False(t, d.Available, d.Spec.Name)
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry(testConfig(t), newFakeRunner())
	assert.ErrorIs(t, r.Start("no_such_tool"), ErrToolNotFound)
	assert.ErrorIs(t, r.Stop("no_such_tool"), ErrToolNotFound)
}

func TestRegistryStopNotRunning(t *testing.T) {
	r := NewRegistry(testConfig(t), newFakeRunner())
	assert.ErrorIs(t, r.Stop("demo_scanner"), ErrToolNotRunning)
}

func TestRegistryStartStop(t *testing.T) {
	cfg := testConfig(t)
	fakeVenvPython(t, cfg, "#!/bin/sh\nsleep 30\n")
	r := NewRegistry(cfg, newFakeRunner())

	require.NoError(t, r.Start("demo_scanner"))
	assert.ErrorIs(t, r.Start("demo_scanner"), ErrToolRunning)

	_, running := r.Counts()
	assert.Equal(t, 1, running)

	require.NoError(t, r.Stop("demo_scanner"))
	_, running = r.Counts()
	assert.Equal(t, 0, running)
}

/**
 * TestRegistryWatcherReapsExit verifies a tool that exits on its own is
 * flipped back to stopped by the watcher without operator action.
 */
func TestRegistryWatcherReapsExit(t *testing.T) {
	cfg := testConfig(t)
	fakeVenvPython(t, cfg, "#!/bin/sh\nexit 0\n")
	r := NewRegistry(cfg, newFakeRunner())

	require.NoError(t, r.Start("demo_scanner"))

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, running := r.Counts(); running == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("tool exit was never reaped")
		}
		time.Sleep(50 * time.Millisecond)
	}
	assert.ErrorIs(t, r.Stop("demo_scanner"), ErrToolNotRunning)
}

/**
 * TestRegistryRestartAfterStop verifies a quick stop-then-restart is not
 * clobbered by the first run's watcher firing late: the restarted tool
 * must still report running, and its new instance must stay supervised.
 */
func TestRegistryRestartAfterStop(t *testing.T) {
	cfg := testConfig(t)
	fakeVenvPython(t, cfg, "#!/bin/sh\nsleep 30\n")
	r := NewRegistry(cfg, newFakeRunner())

	require.NoError(t, r.Start("demo_scanner"))
	require.NoError(t, r.Stop("demo_scanner"))
	require.NoError(t, r.Start("demo_scanner"))

	// Give the stopped run's watcher time to fire.
	time.Sleep(time.Second)

	var d models.ToolDetail
	for _, got := range r.List() {
		if got.Spec.Name == "demo_scanner" {
			d = got
		}
	}
	assert.Equal(t, models.StatusRunning, d.Status)
	assert.NotZero(t, d.Pid)
	_, running := r.Counts()
	assert.Equal(t, 1, running)

	require.NoError(t, r.Stop("demo_scanner"))
}

func TestRegistryCounts(t *testing.T) {
	r := NewRegistry(testConfig(t), newFakeRunner())
	loaded, running := r.Counts()
	assert.Equal(t, 7, loaded)
	assert.Equal(t, 0, running)
}
