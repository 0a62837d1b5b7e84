package env

import (
	"os"
	"path/filepath"
)

var Daemon bool = false
var ListenPort int = 0

// (default: $HOME/.spectrumsnek, overridable with $SPECTRUMSNEK_HOME)
var SpectrumDir string = GetSpectrumDir()

/**
 * Get spectrumsnek state directory path
 * @returns {string} Returns state directory path
 */
func GetSpectrumDir() string {
	if dir := os.Getenv("SPECTRUMSNEK_HOME"); dir != "" {
		return dir
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".spectrumsnek")
}
