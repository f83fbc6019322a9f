package pathing

import (
	"os"
	"path/filepath"
)

// EnsureDir creates dir and its parents when missing.
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func GetCongestionDbPath() string {
	return filepath.Join(GetDataDir(), "congestion.db")
}

func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "p1plus.toml")
}

func GetDataDir() string {
	return "/var/lib/p1plus_monitor"
}

func GetConfigDir() string {
	return "/etc/p1plus_monitor"
}
