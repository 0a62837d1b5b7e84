package services

import (
	"context"
	"os"
	"path/filepath"

	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/logger"
	"spectrum-keeper/internal/models"
	"spectrum-keeper/internal/system"
)

/**
 * Uninstaller reverses provisioning in roughly reverse order:
 * service units, auto-login override, permission rule, generated scripts,
 * runtime environment. Every step is guarded by an existence check and the
 * whole run is best-effort.
 */
type Uninstaller struct {
	cfg *config.AppConfig
	run system.Runner
	// Confirm is asked once before any destructive action; tests and --yes
	// replace it with func() bool { return true }.
	Confirm func() bool
}

func NewUninstaller(cfg *config.AppConfig, run system.Runner) *Uninstaller {
	return &Uninstaller{cfg: cfg, run: run, Confirm: func() bool { return true }}
}

/**
 * Run removes everything installation produced.
 * @param {string} home - Home directory whose .profile hook gets stripped
 * @returns {models.StepReport} Outcome failed only when the user aborted
 * @description
 * Idempotent teardown: running against an already clean host removes
 * nothing and succeeds. Continues past individual step failures.
 */
func (u *Uninstaller) Run(ctx context.Context, home string) *models.StepReport {
	report := models.NewStepReport("uninstall")

	if !u.Confirm() {
		report.Failf("aborted by user")
		return report
	}

	cfgr := NewConfigurator(u.cfg, u.run)
	perms := NewPermissionInstaller(u.cfg, u.run)

	// Service units first: stop and disable before removing the files.
	reloadNeeded := false
	if _, err := os.Stat(cfgr.UnitPath()); err == nil {
		reloadNeeded = true
		unit := u.cfg.System.UnitName + ".service"
		if _, err := u.run.Run(ctx, "systemctl", "stop", unit); err != nil {
			report.Warnf("stop %s: %v", unit, err)
		}
		if _, err := u.run.Run(ctx, "systemctl", "disable", unit); err != nil {
			report.Warnf("disable %s: %v", unit, err)
		}
		if err := os.Remove(cfgr.UnitPath()); err != nil {
			report.Warnf("remove %s: %v", cfgr.UnitPath(), err)
		} else {
			logger.Infof("Removed %s", cfgr.UnitPath())
		}
	}

	if _, err := os.Stat(cfgr.GettyOverridePath()); err == nil {
		reloadNeeded = true
		if err := os.Remove(cfgr.GettyOverridePath()); err != nil {
			report.Warnf("remove %s: %v", cfgr.GettyOverridePath(), err)
		} else {
			// Drop the now-empty drop-in directory as well.
			os.Remove(u.cfg.System.GettyOverrideDir)
			logger.Infof("Removed console auto-login override")
		}
	}
	if reloadNeeded {
		if _, err := u.run.Run(ctx, "systemctl", "daemon-reload"); err != nil {
			report.Warnf("daemon-reload: %v", err)
		}
	}

	// Permission rule.
	if _, err := os.Stat(perms.RulesPath()); err == nil {
		if err := os.Remove(perms.RulesPath()); err != nil {
			report.Warnf("remove %s: %v", perms.RulesPath(), err)
		} else if _, err := u.run.Run(ctx, "udevadm", "control", "--reload-rules"); err != nil {
			report.Warnf("udev rule reload: %v", err)
		}
	}

	// Generated scripts and profile hook.
	for _, script := range []string{
		cfgr.BootstrapPath(),
		filepath.Join(u.cfg.Directory.Bin, "diagnose.sh"),
	} {
		if _, err := os.Stat(script); err == nil {
			if err := os.Remove(script); err != nil {
				report.Warnf("remove %s: %v", script, err)
			}
		}
	}
	if home != "" {
		if err := cfgr.RemoveProfileHook(home); err != nil {
			report.Warnf("profile hook: %v", err)
		}
	}

	// Runtime environment last.
	if _, err := os.Stat(u.cfg.Directory.Venv); err == nil {
		if err := os.RemoveAll(u.cfg.Directory.Venv); err != nil {
			report.Warnf("remove runtime environment: %v", err)
		} else {
			logger.Infof("Removed runtime environment %s", u.cfg.Directory.Venv)
		}
	}

	return report
}
