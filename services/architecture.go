package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"text/template"

	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/logger"
	"spectrum-keeper/internal/models"
	"spectrum-keeper/internal/system"
)

const serviceUnitTmpl = `[Unit]
Description=SpectrumSnek headless radio service
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
User={{.User}}
WorkingDirectory={{.Home}}
ExecStart={{.Executable}} run --service --host {{.Host}} --port {{.Port}}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`

const gettyOverrideTmpl = `[Service]
ExecStart=
ExecStart=-/sbin/agetty --autologin {{.User}} --noclear %I $TERM
`

const profileHookTmpl = `# Added by spectrum-keeper: bootstrap the radio session on tty1 login.
if [ "$(tty)" = "/dev/tty1" ]; then
    . {{.Bootstrap}}
fi
`

/**
 * ConfiguratorOptions carry the identity and endpoint values baked into the
 * generated unit files as literals at generation time. They are not re-read
 * when the service later runs.
 */
type ConfiguratorOptions struct {
	User       string
	Home       string
	Executable string
	Host       string
	Port       int
	Entry      string
}

/**
 * Configurator materializes the service definitions a deployment
 * architecture implies: auto-login console session, background network
 * service, or both.
 */
type Configurator struct {
	cfg *config.AppConfig
	run system.Runner
}

func NewConfigurator(cfg *config.AppConfig, run system.Runner) *Configurator {
	return &Configurator{cfg: cfg, run: run}
}

func (c *Configurator) fillDefaults(opts *ConfiguratorOptions) {
	if opts.User == "" {
		opts.User = os.Getenv("SUDO_USER")
	}
	if opts.User == "" {
		opts.User = os.Getenv("USER")
	}
	if opts.Home == "" {
		opts.Home, _ = os.UserHomeDir()
	}
	if opts.Executable == "" {
		opts.Executable, _ = os.Executable()
	}
	if opts.Host == "" {
		opts.Host = c.cfg.Server.Host
	}
	if opts.Port == 0 {
		opts.Port = c.cfg.Server.Port
	}
	if opts.Entry == "" {
		opts.Entry = filepath.Join(c.cfg.Directory.Venv, "bin", "python") + " -m spectrumsnek"
	}
}

// UnitPath is the generated service unit file.
func (c *Configurator) UnitPath() string {
	return filepath.Join(c.cfg.System.UnitDir, c.cfg.System.UnitName+".service")
}

// GettyOverridePath is the auto-login drop-in for the primary console.
func (c *Configurator) GettyOverridePath() string {
	return filepath.Join(c.cfg.System.GettyOverrideDir, "override.conf")
}

// BootstrapPath is the generated session bootstrap script.
func (c *Configurator) BootstrapPath() string {
	return filepath.Join(c.cfg.Directory.Bin, "session-bootstrap.sh")
}

func renderTemplate(name, tmpl string, data interface{}) ([]byte, error) {
	t, err := template.New(name).Parse(tmpl)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

/**
 * Apply installs the service definitions the architecture implies.
 * @param {models.Architecture} arch - console, headless or full
 * @returns {models.StepReport} Per-step warnings; failed only when nothing
 *                              could be written
 * @description
 * - console: getty@tty1 auto-login override plus the generated session
 *   bootstrap script. Exactly one override file; re-running overwrites it.
 * - headless: one service unit, Restart=on-failure, enabled at boot.
 * - full: both at once.
 * - Finishes with daemon-reload and enable for each installed definition.
 */
func (c *Configurator) Apply(ctx context.Context, arch models.Architecture, opts ConfiguratorOptions) *models.StepReport {
	report := models.NewStepReport("architecture " + arch.String())
	c.fillDefaults(&opts)

	installed := []string{}

	if arch.HasConsole() {
		if err := c.installConsole(opts, report); err == nil {
			installed = append(installed, "getty@tty1.service")
		}
	}
	if arch.HasHeadless() {
		if err := c.installHeadless(opts, report); err == nil {
			installed = append(installed, c.cfg.System.UnitName+".service")
		}
	}

	if len(installed) == 0 {
		report.Failf("no service definition could be installed")
		return report
	}

	if _, err := c.run.Run(ctx, "systemctl", "daemon-reload"); err != nil {
		report.Warnf("daemon-reload failed: %v", err)
	}
	for _, unit := range installed {
		if _, err := c.run.Run(ctx, "systemctl", "enable", unit); err != nil {
			report.Warnf("enable %s failed: %v", unit, err)
		} else {
			logger.Infof("Enabled %s", unit)
		}
	}
	return report
}

func (c *Configurator) installConsole(opts ConfiguratorOptions, report *models.StepReport) error {
	script, err := RenderBootstrapScript(c.cfg, opts.Entry)
	if err != nil {
		report.Warnf("render bootstrap script: %v", err)
		return err
	}
	if err := os.MkdirAll(c.cfg.Directory.Bin, 0755); err != nil {
		report.Warnf("create %s: %v", c.cfg.Directory.Bin, err)
		return err
	}
	if err := os.WriteFile(c.BootstrapPath(), script, 0755); err != nil {
		report.Warnf("write %s: %v", c.BootstrapPath(), err)
		return err
	}

	override, err := renderTemplate("getty", gettyOverrideTmpl, opts)
	if err != nil {
		report.Warnf("render getty override: %v", err)
		return err
	}
	if err := os.MkdirAll(c.cfg.System.GettyOverrideDir, 0755); err != nil {
		report.Warnf("create %s: %v", c.cfg.System.GettyOverrideDir, err)
		return err
	}
	if err := os.WriteFile(c.GettyOverridePath(), override, 0644); err != nil {
		report.Warnf("write %s: %v", c.GettyOverridePath(), err)
		return err
	}
	if err := c.installProfileHook(opts); err != nil {
		report.Warnf("profile hook: %v", err)
	}
	logger.Infof("Installed console auto-login for %s", opts.User)
	return nil
}

const profileHookMarker = "# Added by spectrum-keeper"

// installProfileHook appends the tty1 bootstrap hook to the user's
// ~/.profile once; the marker keeps repeated installs from duplicating it.
func (c *Configurator) installProfileHook(opts ConfiguratorOptions) error {
	profile := filepath.Join(opts.Home, ".profile")
	existing, err := os.ReadFile(profile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if bytes.Contains(existing, []byte(profileHookMarker)) {
		return nil
	}
	hook, err := renderTemplate("profile", profileHookTmpl, struct{ Bootstrap string }{c.BootstrapPath()})
	if err != nil {
		return err
	}
	f, err := os.OpenFile(profile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		f.Write([]byte("\n"))
	}
	_, err = f.Write(hook)
	return err
}

// RemoveProfileHook strips the bootstrap hook from ~/.profile.
func (c *Configurator) RemoveProfileHook(home string) error {
	profile := filepath.Join(home, ".profile")
	existing, err := os.ReadFile(profile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	idx := bytes.Index(existing, []byte(profileHookMarker))
	if idx < 0 {
		return nil
	}
	// The hook is a contiguous block from the marker to the closing fi.
	rest := existing[idx:]
	end := bytes.Index(rest, []byte("fi\n"))
	if end < 0 {
		end = len(rest)
	} else {
		end += len("fi\n")
	}
	cleaned := append([]byte{}, existing[:idx]...)
	cleaned = append(cleaned, rest[end:]...)
	return os.WriteFile(profile, cleaned, 0644)
}

func (c *Configurator) installHeadless(opts ConfiguratorOptions, report *models.StepReport) error {
	unit, err := renderTemplate("unit", serviceUnitTmpl, opts)
	if err != nil {
		report.Warnf("render service unit: %v", err)
		return err
	}
	if err := os.MkdirAll(c.cfg.System.UnitDir, 0755); err != nil {
		report.Warnf("create %s: %v", c.cfg.System.UnitDir, err)
		return err
	}
	if err := os.WriteFile(c.UnitPath(), unit, 0644); err != nil {
		report.Warnf("write %s: %v", c.UnitPath(), err)
		return err
	}
	logger.Infof("Installed service unit %s (%s:%d)", c.UnitPath(), opts.Host, opts.Port)
	return nil
}

/**
 * InstalledDefinitions reports which generated service definitions exist.
 * @returns {[]string} Paths of the artifacts present on disk
 */
func (c *Configurator) InstalledDefinitions() []string {
	var defs []string
	for _, p := range []string{c.GettyOverridePath(), c.UnitPath()} {
		if _, err := os.Stat(p); err == nil {
			defs = append(defs, p)
		}
	}
	return defs
}

// ExpectedCount returns how many service definitions an architecture
// materializes (console 1, headless 1, full 2).
func ExpectedCount(arch models.Architecture) int {
	n := 0
	if arch.HasConsole() {
		n++
	}
	if arch.HasHeadless() {
		n++
	}
	return n
}
