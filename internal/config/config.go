package config

import (
	"path/filepath"

	"github.com/spf13/viper"

	"spectrum-keeper/internal/env"
)

/**
 * Server configuration parameters
 * @property {string} host - Address the background service binds to
 * @property {int} port - Port the background service listens on
 * @property {string} mode - Gin mode (debug/release/test)
 */
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

/**
 * Logging configuration
 * @property {string} level - Log level (debug/info/warn/error)
 * @property {string} path - Log file path ("console" for stdout)
 */
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

/**
 * State directory layout
 * All generated artifacts live under explicit, configurable paths so that
 * independent installations (and tests) never collide on well-known names.
 */
type DirectoryConfig struct {
	Root  string `mapstructure:"root"`
	Bin   string `mapstructure:"bin"`
	Logs  string `mapstructure:"logs"`
	Cache string `mapstructure:"cache"`
	Venv  string `mapstructure:"venv"`
}

/**
 * Host system locations touched by the installer
 * @property {string} unit_dir - systemd unit directory
 * @property {string} getty_override_dir - getty@tty1 drop-in directory
 * @property {string} rules_dir - udev rules directory
 */
type SystemConfig struct {
	UnitDir          string `mapstructure:"unit_dir"`
	GettyOverrideDir string `mapstructure:"getty_override_dir"`
	RulesDir         string `mapstructure:"rules_dir"`
	UnitName         string `mapstructure:"unit_name"`
	SessionName      string `mapstructure:"session_name"`
	DeviceGroup      string `mapstructure:"device_group"`
}

/**
 * Provisioning configuration
 * @property {string} python - Interpreter used to create the runtime environment
 * @property {[]string} packages - Native packages installed on the host
 * @property {[]string} requirements - Pinned library dependencies for the venv
 */
type ProvisionConfig struct {
	Python       string   `mapstructure:"python"`
	Packages     []string `mapstructure:"packages"`
	Requirements []string `mapstructure:"requirements"`
}

type AppConfig struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Directory DirectoryConfig `mapstructure:"directory"`
	System    SystemConfig    `mapstructure:"system"`
	Provision ProvisionConfig `mapstructure:"provision"`
}

var Config AppConfig

/**
 * Load application configuration from YAML file
 * @description
 * - Looks for config.yaml in the state directory, then the working directory
 * - Environment variables with the SPECTRUMSNEK_ prefix override file values
 * - Missing config file is not an error; defaults apply
 */
func LoadConfig() (*AppConfig, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(env.SpectrumDir)
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("SPECTRUMSNEK")
	viper.AutomaticEnv()

	var cfg AppConfig
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func collectConfig(cfg *AppConfig) *AppConfig {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Directory.Root == "" {
		cfg.Directory.Root = env.SpectrumDir
	}
	if cfg.Directory.Bin == "" {
		cfg.Directory.Bin = filepath.Join(cfg.Directory.Root, "bin")
	}
	if cfg.Directory.Logs == "" {
		cfg.Directory.Logs = filepath.Join(cfg.Directory.Root, "logs")
	}
	if cfg.Directory.Cache == "" {
		cfg.Directory.Cache = filepath.Join(cfg.Directory.Root, "cache")
	}
	if cfg.Directory.Venv == "" {
		cfg.Directory.Venv = filepath.Join(cfg.Directory.Root, "venv")
	}
	if cfg.System.UnitDir == "" {
		cfg.System.UnitDir = "/etc/systemd/system"
	}
	if cfg.System.GettyOverrideDir == "" {
		cfg.System.GettyOverrideDir = "/etc/systemd/system/getty@tty1.service.d"
	}
	if cfg.System.RulesDir == "" {
		cfg.System.RulesDir = "/etc/udev/rules.d"
	}
	if cfg.System.UnitName == "" {
		cfg.System.UnitName = "spectrumsnek"
	}
	if cfg.System.SessionName == "" {
		cfg.System.SessionName = "spectrumsnek"
	}
	if cfg.System.DeviceGroup == "" {
		cfg.System.DeviceGroup = "plugdev"
	}
	if cfg.Provision.Python == "" {
		cfg.Provision.Python = "python3"
	}
	if len(cfg.Provision.Packages) == 0 {
		cfg.Provision.Packages = DefaultPackages
	}
	if len(cfg.Provision.Requirements) == 0 {
		cfg.Provision.Requirements = DefaultRequirements
	}
	return cfg
}

// DefaultPackages is the fixed native package list the provisioner installs.
// Names follow the debian convention; the dnf/pacman families resolve the
// same software under these names closely enough for a hobbyist host.
var DefaultPackages = []string{
	"rtl-sdr",
	"librtlsdr-dev",
	"tmux",
	"python3-venv",
	"pulseaudio-utils",
	"bluez",
}

// DefaultRequirements is the pinned library set installed into the venv.
var DefaultRequirements = []string{
	"numpy==1.26.4",
	"scipy==1.13.0",
	"pyrtlsdr==0.3.0",
	"flask==3.0.3",
	"flask-socketio==5.3.6",
}

func init() {
	cfg, err := LoadConfig()
	if err == nil {
		Config = *cfg
	}
	collectConfig(&Config)
}

// Get returns the process-wide configuration.
func Get() *AppConfig {
	return &Config
}
