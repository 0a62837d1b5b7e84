package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"spectrum-keeper/internal/config"
	"spectrum-keeper/internal/logger"
	"spectrum-keeper/internal/models"
	"spectrum-keeper/internal/proc"
	"spectrum-keeper/internal/system"
	"spectrum-keeper/internal/utils"
)

var (
	ErrToolNotFound   = errors.New("tool not found")
	ErrToolRunning    = errors.New("tool already running")
	ErrToolNotRunning = errors.New("tool not running")
)

// toolCatalog is the fixed set of tools the service can launch. Each runs
// as a module inside the runtime environment; Requires names a host
// executable the tool depends on.
var toolCatalog = []models.ToolSpec{
	{Name: "rtl_scanner", Title: "RTL-SDR Scanner", Description: "Interactive spectrum scanner and demodulator", Module: "rtl_scanner", Requires: "rtl_test"},
	{Name: "adsb_tool", Title: "ADS-B Aircraft Tracker", Description: "Aircraft surveillance decoder", Module: "adsb_tool", Requires: "rtl_test"},
	{Name: "radio_scanner", Title: "Radio Scanner", Description: "Classic frequency-bank scanner", Module: "radio_scanner", Requires: "rtl_test"},
	{Name: "wifi_tool", Title: "WiFi Selector", Description: "Select and join wireless networks", Module: "wifi_tool", Requires: "nmcli"},
	{Name: "bluetooth_tool", Title: "Bluetooth Connector", Description: "Pair and connect Bluetooth devices", Module: "bluetooth_tool", Requires: "bluetoothctl"},
	{Name: "audio_tool", Title: "Audio Output Selector", Description: "Select and test audio output devices", Module: "system_tools.audio_output_selector", Requires: "pactl"},
	{Name: "demo_scanner", Title: "Spectrum Analyzer (Demo)", Description: "Basic spectrum analysis demonstration", Module: "demo_scanner"},
}

type toolInstance struct {
	Spec      models.ToolSpec
	Status    models.RunStatus
	Available bool
	StartTime time.Time
	proc      *proc.ProcessInstance
}

/**
 * Registry holds the loadable tools and the ones currently running as
 * supervised child processes of the background service.
 */
type Registry struct {
	cfg   *config.AppConfig
	run   system.Runner
	mutex sync.Mutex
	tools map[string]*toolInstance
	order []string
}

func NewRegistry(cfg *config.AppConfig, run system.Runner) *Registry {
	r := &Registry{
		cfg:   cfg,
		run:   run,
		tools: make(map[string]*toolInstance),
	}
	for _, spec := range toolCatalog {
		r.tools[spec.Name] = &toolInstance{
			Spec:      spec,
			Status:    models.StatusStopped,
			Available: r.available(spec),
		}
		r.order = append(r.order, spec.Name)
	}
	return r
}

func (r *Registry) available(spec models.ToolSpec) bool {
	if spec.Requires != "" {
		if _, err := r.run.LookPath(spec.Requires); err != nil {
			return false
		}
	}
	_, err := os.Stat(r.venvPython())
	return err == nil
}

func (r *Registry) venvPython() string {
	return filepath.Join(r.cfg.Directory.Venv, "bin", "python")
}

// List returns tool details in catalog order.
func (r *Registry) List() []models.ToolDetail {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out []models.ToolDetail
	for _, name := range r.order {
		t := r.tools[name]
		d := models.ToolDetail{
			Spec:      t.Spec,
			Status:    t.Status,
			Available: t.Available,
		}
		if t.proc != nil {
			d.Pid = t.proc.Pid()
		}
		if t.Status == models.StatusRunning {
			d.StartTime = t.StartTime.Format(time.RFC3339)
		}
		out = append(out, d)
	}
	return out
}

/**
 * Start launches a tool inside the runtime environment.
 * @param {string} name - Catalog key
 * @returns {error} ErrToolNotFound / ErrToolRunning, or a start failure
 * @description
 * The child gets its own process group; a watcher goroutine flips the
 * status back to stopped when it exits. Tools never auto-restart, the
 * operator starts them deliberately.
 */
func (r *Registry) Start(name string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	t, ok := r.tools[name]
	if !ok {
		return ErrToolNotFound
	}
	if t.Status == models.StatusRunning {
		return ErrToolRunning
	}

	command, args, err := utils.GetCommandLine("{{.Python}}", []string{"-m", "{{.Module}}"}, struct {
		Python string
		Module string
	}{r.venvPython(), t.Spec.Module})
	if err != nil {
		return err
	}

	p := proc.NewProcessInstance("tool "+name, name, command, args)
	p.SetWatcher(0, func(pi *proc.ProcessInstance) {
		reason := pi.LastExitReason
		// Async: the watcher holds the process lock; taking the registry
		// lock inline would invert the order Stop acquires them in.
		go func() {
			r.mutex.Lock()
			defer r.mutex.Unlock()
			// A stop-then-restart may have replaced the instance before
			// this fires; a stale watcher must not touch the new run.
			if t.proc != p {
				return
			}
			t.Status = models.StatusStopped
			t.proc = nil
			logger.Infof("Tool [%s] finished: %s", name, reason)
		}()
	})
	// Background context: the tool's lifetime is decoupled from whatever
	// request triggered the launch.
	if err := p.StartProcess(context.Background()); err != nil {
		return err
	}
	t.proc = p
	t.Status = models.StatusRunning
	t.StartTime = time.Now()
	logger.Infof("Tool [%s] started (PID: %d)", name, p.Pid())
	return nil
}

// Stop terminates a running tool.
func (r *Registry) Stop(name string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	t, ok := r.tools[name]
	if !ok {
		return ErrToolNotFound
	}
	if t.Status != models.StatusRunning || t.proc == nil {
		return ErrToolNotRunning
	}
	if err := t.proc.StopProcess(); err != nil {
		return err
	}
	t.Status = models.StatusStopped
	t.proc = nil
	return nil
}

// StopAll terminates every running tool, used during shutdown.
func (r *Registry) StopAll() {
	r.mutex.Lock()
	names := make([]string, 0, len(r.tools))
	for name, t := range r.tools {
		if t.Status == models.StatusRunning {
			names = append(names, name)
		}
	}
	r.mutex.Unlock()
	for _, name := range names {
		if err := r.Stop(name); err != nil {
			logger.Warnf("Failed to stop tool [%s]: %v", name, err)
		}
	}
}

// Counts reports loaded and running tool totals for the status endpoint.
func (r *Registry) Counts() (loaded, running int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	loaded = len(r.tools)
	for _, t := range r.tools {
		if t.Status == models.StatusRunning {
			running++
		}
	}
	return loaded, running
}
