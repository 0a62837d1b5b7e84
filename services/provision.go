package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/logger"
	"spectrum-keeper/internal/models"
	"spectrum-keeper/internal/system"
)

// PackageFamily identifies the host's native package manager.
type PackageFamily string

const (
	FamilyApt     PackageFamily = "apt"
	FamilyDnf     PackageFamily = "dnf"
	FamilyPacman  PackageFamily = "pacman"
	FamilyUnknown PackageFamily = "unknown"
)

const manifestName = ".spectrumsnek-manifest.json"

type runtimeManifest struct {
	Python       string   `json:"python"`
	Requirements []string `json:"requirements"`
}

/**
 * Provisioner prepares the host: native packages plus the isolated runtime
 * environment (venv) holding the toolkit's pinned library dependencies.
 * @property {system.Runner} run - Command runner (faked in tests)
 * @property {func() int} euid - Effective UID source, overridable in tests
 */
type Provisioner struct {
	cfg  *config.AppConfig
	run  system.Runner
	euid func() int
}

func NewProvisioner(cfg *config.AppConfig, run system.Runner) *Provisioner {
	return &Provisioner{cfg: cfg, run: run, euid: os.Geteuid}
}

/**
 * DetectFamily probes for a known package manager.
 * @returns {PackageFamily} Returns apt/dnf/pacman, or unknown
 */
func (p *Provisioner) DetectFamily() PackageFamily {
	if _, err := p.run.LookPath("apt-get"); err == nil {
		return FamilyApt
	}
	if _, err := p.run.LookPath("dnf"); err == nil {
		return FamilyDnf
	}
	if _, err := p.run.LookPath("pacman"); err == nil {
		return FamilyPacman
	}
	return FamilyUnknown
}

func installArgs(family PackageFamily, packages []string) (string, []string) {
	switch family {
	case FamilyApt:
		return "apt-get", append([]string{"install", "-y"}, packages...)
	case FamilyDnf:
		return "dnf", append([]string{"install", "-y"}, packages...)
	case FamilyPacman:
		return "pacman", append([]string{"-S", "--noconfirm"}, packages...)
	}
	return "", nil
}

/**
 * InstallNative installs the fixed native package list.
 * @description
 * - Requires elevated privileges; without them the step is skipped with a
 *   warning, never treated as fatal
 * - Package manager failures are reported and provisioning continues
 */
func (p *Provisioner) InstallNative(ctx context.Context) *models.StepReport {
	report := models.NewStepReport("native packages")

	family := p.DetectFamily()
	if family == FamilyUnknown {
		report.Warnf("no supported package manager found (apt-get/dnf/pacman), skipping native packages")
		return report
	}
	if p.euid() != 0 {
		report.Warnf("not running as root, skipping native package installation (%s)", family)
		return report
	}

	name, args := installArgs(family, p.cfg.Provision.Packages)
	out, err := p.run.Run(ctx, name, args...)
	if err != nil {
		report.Warnf("%s install failed (exit %d): %s", family, system.ExitCode(err), firstLine(out))
	} else {
		logger.Infof("Installed native packages via %s", family)
	}
	return report
}

/**
 * CreateRuntime creates (or reuses) the runtime environment and installs
 * the pinned library dependencies into it.
 * @description
 * - `python3 -m venv <dir>` is skipped when the interpreter already exists
 * - A manifest file records what was installed; Verify compares against it
 */
func (p *Provisioner) CreateRuntime(ctx context.Context) *models.StepReport {
	report := models.NewStepReport("runtime environment")
	venv := p.cfg.Directory.Venv

	if _, err := os.Stat(p.venvPython()); err != nil {
		if _, err := p.run.Run(ctx, p.cfg.Provision.Python, "-m", "venv", venv); err != nil {
			report.Failf("failed to create runtime environment at %s: %v", venv, err)
			return report
		}
		logger.Infof("Created runtime environment at %s", venv)
	}

	args := append([]string{"-m", "pip", "install", "--quiet"}, p.cfg.Provision.Requirements...)
	if out, err := p.run.Run(ctx, p.venvPython(), args...); err != nil {
		report.Warnf("dependency installation failed: %s", firstLine(out))
		return report
	}

	if err := p.writeManifest(); err != nil {
		report.Warnf("failed to record runtime manifest: %v", err)
	}
	return report
}

// Provision runs the whole best-effort sequence.
func (p *Provisioner) Provision(ctx context.Context, skipNative bool) *models.StepReport {
	report := models.NewStepReport("provision")
	if !skipNative {
		report.Merge(p.InstallNative(ctx))
	}
	report.Merge(p.CreateRuntime(ctx))
	return report
}

/**
 * Verify checks the runtime environment invariant: the environment exists
 * and contains every required library.
 * @returns {error} Returns nil when intact; callers re-provision otherwise
 */
func (p *Provisioner) Verify() error {
	if _, err := os.Stat(p.venvPython()); err != nil {
		return fmt.Errorf("runtime environment missing at %s (run 'spectrum-keeper setup')", p.cfg.Directory.Venv)
	}
	data, err := os.ReadFile(filepath.Join(p.cfg.Directory.Venv, manifestName))
	if err != nil {
		return fmt.Errorf("runtime environment has no manifest, dependencies unknown (run 'spectrum-keeper setup')")
	}
	var m runtimeManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("runtime manifest unreadable: %v", err)
	}
	want := map[string]bool{}
	for _, r := range m.Requirements {
		want[r] = true
	}
	for _, r := range p.cfg.Provision.Requirements {
		if !want[r] {
			return fmt.Errorf("runtime environment missing dependency %s", r)
		}
	}
	return nil
}

// VenvPython is the interpreter inside the runtime environment.
func (p *Provisioner) VenvPython() string {
	return p.venvPython()
}

func (p *Provisioner) venvPython() string {
	return filepath.Join(p.cfg.Directory.Venv, "bin", "python")
}

func (p *Provisioner) writeManifest() error {
	m := runtimeManifest{
		Python:       p.cfg.Provision.Python,
		Requirements: p.cfg.Provision.Requirements,
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.cfg.Directory.Venv, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(p.cfg.Directory.Venv, manifestName), data, 0644)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
