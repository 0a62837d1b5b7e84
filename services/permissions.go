package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/logger"
	"spectrum-keeper/internal/models"
	"spectrum-keeper/internal/system"
)

// RulesFileName is the udev rule file installed for the USB radio dongle.
const RulesFileName = "99-spectrumsnek-rtlsdr.rules"

// UsbDevice is one vendor/product pair granted to the device group.
type UsbDevice struct {
	Vendor  string
	Product string
	Symlink string
}

// rtlDevices is static and versioned with the repository; the rule file is
// rendered from it verbatim on every install.
var rtlDevices = []UsbDevice{
	{Vendor: "0bda", Product: "2832", Symlink: "rtl_sdr"},
	{Vendor: "0bda", Product: "2838", Symlink: "rtl_sdr"},
}

/**
 * PermissionInstaller writes the device-access rule so a non-privileged
 * user can open the USB radio hardware.
 */
type PermissionInstaller struct {
	cfg *config.AppConfig
	run system.Runner
}

func NewPermissionInstaller(cfg *config.AppConfig, run system.Runner) *PermissionInstaller {
	return &PermissionInstaller{cfg: cfg, run: run}
}

/**
 * RenderRules produces the rule file content.
 * @returns {[]byte} Deterministic bytes; re-rendering never differs, which
 *                   makes repeated installs byte-identical
 */
func RenderRules(group string) []byte {
	var buf bytes.Buffer
	buf.WriteString("# SpectrumSnek RTL-SDR device access\n")
	for _, d := range rtlDevices {
		fmt.Fprintf(&buf,
			"SUBSYSTEM==\"usb\", ATTRS{idVendor}==\"%s\", ATTRS{idProduct}==\"%s\", MODE=\"0666\", GROUP=\"%s\", SYMLINK+=\"%s\"\n",
			d.Vendor, d.Product, group, d.Symlink)
	}
	return buf.Bytes()
}

// RulesPath is where the rule file lands.
func (pi *PermissionInstaller) RulesPath() string {
	return filepath.Join(pi.cfg.System.RulesDir, RulesFileName)
}

/**
 * Install copies the rule file, reloads the rule subsystem and adds the
 * user to the device group.
 * @param {string} user - Invoking (non-privileged) user name
 * @returns {models.StepReport} Warnings per failed sub-step, no rollback
 * @description
 * Each sub-step is attempted independently; failure of one never blocks
 * the others. Re-running overwrites the same rule file harmlessly.
 */
func (pi *PermissionInstaller) Install(ctx context.Context, user string) *models.StepReport {
	report := models.NewStepReport("device permissions")

	if err := os.MkdirAll(pi.cfg.System.RulesDir, 0755); err != nil {
		report.Warnf("cannot create rules directory %s: %v", pi.cfg.System.RulesDir, err)
	} else if err := os.WriteFile(pi.RulesPath(), RenderRules(pi.cfg.System.DeviceGroup), 0644); err != nil {
		report.Warnf("cannot write %s: %v", pi.RulesPath(), err)
	} else {
		logger.Infof("Installed udev rules to %s", pi.RulesPath())
	}

	if user != "" {
		if _, err := pi.run.Run(ctx, "usermod", "-aG", pi.cfg.System.DeviceGroup, user); err != nil {
			report.Warnf("failed to add %s to group %s: %v", user, pi.cfg.System.DeviceGroup, err)
		}
	}

	if _, err := pi.run.Run(ctx, "udevadm", "control", "--reload-rules"); err != nil {
		report.Warnf("udev rule reload failed: %v", err)
	}
	if _, err := pi.run.Run(ctx, "udevadm", "trigger"); err != nil {
		report.Warnf("udev trigger failed: %v", err)
	}

	return report
}
