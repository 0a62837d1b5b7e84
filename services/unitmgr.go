package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/models"
	"spectrum-keeper/internal/system"
	"spectrum-keeper/internal/utils"
)

/**
 * UnitManager is a thin wrapper around the host init system for the
 * generated background service unit.
 * @description
 * Command exit codes are surfaced verbatim to the operator; there is no
 * automatic remediation beyond the init system's own restart policy.
 */
type UnitManager struct {
	cfg *config.AppConfig
	run system.Runner
	// delay before the single post-start port retry
	startSettle time.Duration
}

func NewUnitManager(cfg *config.AppConfig, run system.Runner) *UnitManager {
	return &UnitManager{cfg: cfg, run: run, startSettle: 2 * time.Second}
}

func (m *UnitManager) unit() string {
	return m.cfg.System.UnitName + ".service"
}

func (m *UnitManager) systemctl(ctx context.Context, verb string) error {
	out, err := m.run.Run(ctx, "systemctl", verb, m.unit())
	if err != nil {
		return fmt.Errorf("systemctl %s %s failed (exit %d): %s",
			verb, m.unit(), system.ExitCode(err), strings.TrimSpace(out))
	}
	return nil
}

func (m *UnitManager) Start(ctx context.Context) error {
	return m.systemctl(ctx, "start")
}

func (m *UnitManager) Stop(ctx context.Context) error {
	return m.systemctl(ctx, "stop")
}

func (m *UnitManager) Restart(ctx context.Context) error {
	return m.systemctl(ctx, "restart")
}

// Enable/Disable toggle boot-time activation independent of run state.
func (m *UnitManager) Enable(ctx context.Context) error {
	return m.systemctl(ctx, "enable")
}

func (m *UnitManager) Disable(ctx context.Context) error {
	return m.systemctl(ctx, "disable")
}

// Logs returns the unit's recent journal lines.
func (m *UnitManager) Logs(ctx context.Context, lines int) (string, error) {
	if lines <= 0 {
		lines = 50
	}
	out, err := m.run.Run(ctx, "journalctl", "-u", m.unit(), "-n", fmt.Sprintf("%d", lines), "--no-pager")
	if err != nil {
		return out, fmt.Errorf("journalctl failed (exit %d)", system.ExitCode(err))
	}
	return out, nil
}

/**
 * Status cross-checks the init system's view against reality.
 * @returns {(*models.UnitStatus, error)} Aggregated status, error only on
 *                                        total command failure
 * @description
 * systemd's "active" can diverge from actual listener readiness, so the
 * process table and the network port are checked as well:
 * - `systemctl is-active` / `is-enabled` (non-zero exit just means
 *   inactive/disabled, not an error)
 * - process-table scan for a matching command line
 * - TCP connect probe on the configured port, with one fixed-delay retry
 *   to let a just-started service stabilize
 */
func (m *UnitManager) Status(ctx context.Context) (*models.UnitStatus, error) {
	st := &models.UnitStatus{Unit: m.unit(), Port: m.cfg.Server.Port}

	out, _ := m.run.Run(ctx, "systemctl", "is-active", m.unit())
	st.ActiveState = strings.TrimSpace(out)
	st.Active = st.ActiveState == "active"

	out, _ = m.run.Run(ctx, "systemctl", "is-enabled", m.unit())
	st.Enabled = strings.TrimSpace(out) == "enabled"

	psOut, err := m.run.Run(ctx, "ps", "-e", "-o", "pid,command")
	if err == nil {
		st.Pids = utils.MatchProcessList(psOut, "run --service")
		st.ProcessRunning = len(st.Pids) > 0
	}

	st.PortBound = utils.WaitPortConnectable(m.cfg.Server.Host, m.cfg.Server.Port, m.startSettle)
	return st, nil
}
