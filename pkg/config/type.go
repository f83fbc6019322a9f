package config

type MonitorConfig struct {
	SerialDevice  string `toml:"serial_device"`
	Baudrate      uint   `toml:"baudrate"`
	ListenAddress string `toml:"listen_address"`
	ListenPort    int    `toml:"listen_port"`
	// How long stop waits for the read loop before closing the port.
	StopTimeoutMs   int `toml:"stop_timeout_ms"`
	LedCount        int `toml:"led_count"`
	LedStageDelayMs int `toml:"led_stage_delay_ms"`
	// Empty disables the congestion event log.
	CongestionDbPath string `toml:"congestion_db_path"`
	LogLevel         string `toml:"log_level"`
	DemoMode         bool   `toml:"demo_mode"`
	// Start reading as soon as the service is up.
	AutoStart bool `toml:"auto_start"`
}
