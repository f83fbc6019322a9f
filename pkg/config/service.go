package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/NotCoffee418/p1plus_monitor/pkg/pathing"
)

var ActiveMonitorConfig *MonitorConfig

func DefaultMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		SerialDevice:     "/dev/ttyUSB0",
		Baudrate:         115200,
		ListenAddress:    "0.0.0.0",
		ListenPort:       9039,
		StopTimeoutMs:    1000,
		LedCount:         32,
		LedStageDelayMs:  50,
		CongestionDbPath: pathing.GetCongestionDbPath(),
		LogLevel:         "info",
		DemoMode:         false,
		AutoStart:        true,
	}
}

// LoadMonitorConfig loads configPath into ActiveMonitorConfig. An empty
// path means the default location. A default file is written when none
// exists.
func LoadMonitorConfig(configPath string) error {
	if configPath == "" {
		configPath = pathing.GetConfigPath()
	}

	cfg, err := loadMonitorConfig(configPath)
	if err != nil {
		return err
	}
	ActiveMonitorConfig = cfg
	return nil
}

func loadMonitorConfig(configPath string) (*MonitorConfig, error) {
	// Create default if not exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultMonitorConfig()
		if err := pathing.EnsureDir(filepath.Dir(configPath)); err != nil {
			return nil, err
		}
		cfgFile, err := os.Create(configPath)
		if err != nil {
			return nil, err
		}
		defer cfgFile.Close()
		if err := toml.NewEncoder(cfgFile).Encode(cfg); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
		return cfg, nil
	}

	// Keys missing from the file keep their defaults.
	cfg := DefaultMonitorConfig()
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", configPath, err)
	}
	return cfg, nil
}

func (c *MonitorConfig) Validate() error {
	if c.SerialDevice == "" {
		return fmt.Errorf("serial_device must be set")
	}
	if c.Baudrate == 0 {
		return fmt.Errorf("baudrate must be positive")
	}
	if c.LedCount < 0 {
		return fmt.Errorf("led_count must not be negative")
	}
	return nil
}

func (c *MonitorConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ListenAddress, c.ListenPort)
}

func (c *MonitorConfig) StopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutMs) * time.Millisecond
}

func (c *MonitorConfig) LedStageDelay() time.Duration {
	return time.Duration(c.LedStageDelayMs) * time.Millisecond
}
