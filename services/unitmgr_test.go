package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitManagerVerbs(t *testing.T) {
	run := newFakeRunner()
	m := NewUnitManager(testConfig(t), run)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Stop(ctx))
	require.NoError(t, m.Restart(ctx))
	require.NoError(t, m.Enable(ctx))
	require.NoError(t, m.Disable(ctx))

	for _, verb := range []string{"start", "stop", "restart", "enable", "disable"} {
		assert.True(t, run.called("systemctl "+verb+" spectrumsnek.service"), verb)
	}
}

func TestUnitManagerVerbFailure(t *testing.T) {
	run := newFakeRunner()
	run.on("systemctl start", "Unit spectrumsnek.service not found.\n", errors.New("exit status 5"))
	m := NewUnitManager(testConfig(t), run)

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "systemctl start spectrumsnek.service failed")
	assert.Contains(t, err.Error(), "not found")
}

func TestUnitManagerLogs(t *testing.T) {
	run := newFakeRunner()
	run.on("journalctl", "Aug 30 12:00:00 host spectrum-keeper[100]: started\n", nil)
	m := NewUnitManager(testConfig(t), run)

	out, err := m.Logs(context.Background(), 0)
	require.NoError(t, err)
	assert.Contains(t, out, "started")
	// lines<=0 falls back to the default window
	assert.True(t, run.called("journalctl -u spectrumsnek.service -n 50"))
}

/**
 * TestStatusCrossChecks verifies the aggregated status combines the init
 * system's view with the process table instead of trusting either alone.
 */
func TestStatusCrossChecks(t *testing.T) {
	run := newFakeRunner()
	run.on("systemctl is-active", "active\n", nil)
	run.on("systemctl is-enabled", "enabled\n", nil)
	run.on("ps", "    PID COMMAND\n      1 /sbin/init\n    314 /usr/local/bin/spectrum-keeper run --service --host 127.0.0.1 --port 5000\n", nil)

	m := NewUnitManager(testConfig(t), run)
	m.startSettle = 10 * time.Millisecond

	st, err := m.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Active)
	assert.Equal(t, "active", st.ActiveState)
	assert.True(t, st.Enabled)
	assert.True(t, st.ProcessRunning)
	assert.Equal(t, []int{314}, st.Pids)
	// nothing listens on the test port
	assert.False(t, st.PortBound)
	assert.False(t, st.Converged())
}

func TestStatusInactive(t *testing.T) {
	run := newFakeRunner()
	run.on("systemctl is-active", "inactive\n", errors.New("exit status 3"))
	run.on("systemctl is-enabled", "disabled\n", errors.New("exit status 1"))
	run.on("ps", "    PID COMMAND\n      1 /sbin/init\n", nil)

	m := NewUnitManager(testConfig(t), run)
	m.startSettle = 10 * time.Millisecond

	st, err := m.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Active)
	assert.False(t, st.Enabled)
	assert.False(t, st.ProcessRunning)
	assert.False(t, st.Converged())
}
