package reading

import "time"

// Reading is the typed view of one telegram's decoded fields. Energy is in
// Wh, power in W, voltage in dV and current in A.
type Reading struct {
	DSMRVersion          int64     `mapstructure:"dsmr_version" json:"dsmr_version"`
	Timestamp            time.Time `mapstructure:"timestamp" json:"timestamp"`
	Identifier           string    `mapstructure:"identifier" json:"identifier"`
	EnergyImportT1       int64     `mapstructure:"energy_import_t1" json:"energy_import_t1_wh"`
	EnergyImportT2       int64     `mapstructure:"energy_import_t2" json:"energy_import_t2_wh"`
	EnergyExportT1       int64     `mapstructure:"energy_export_t1" json:"energy_export_t1_wh"`
	EnergyExportT2       int64     `mapstructure:"energy_export_t2" json:"energy_export_t2_wh"`
	TariffIndicator      int64     `mapstructure:"tariff_indicator" json:"tariff_indicator"`
	PowerImport          int64     `mapstructure:"power_import" json:"power_import_w"`
	PowerExport          int64     `mapstructure:"power_export" json:"power_export_w"`
	NumPowerFailures     int64     `mapstructure:"num_power_failures" json:"num_power_failures"`
	NumLongPowerFailures int64     `mapstructure:"num_long_power_failures" json:"num_long_power_failures"`
	NumVoltageSagsL1     int64     `mapstructure:"num_voltage_sags_l1" json:"num_voltage_sags_l1"`
	NumVoltageSagsL2     int64     `mapstructure:"num_voltage_sags_l2" json:"num_voltage_sags_l2"`
	NumVoltageSagsL3     int64     `mapstructure:"num_voltage_sags_l3" json:"num_voltage_sags_l3"`
	NumVoltageSwellsL1   int64     `mapstructure:"num_voltage_swells_l1" json:"num_voltage_swells_l1"`
	NumVoltageSwellsL2   int64     `mapstructure:"num_voltage_swells_l2" json:"num_voltage_swells_l2"`
	NumVoltageSwellsL3   int64     `mapstructure:"num_voltage_swells_l3" json:"num_voltage_swells_l3"`
	TextMessage          string    `mapstructure:"text_message" json:"text_message"`
	VoltageL1            int64     `mapstructure:"voltage_l1" json:"voltage_l1_dv"`
	VoltageL2            int64     `mapstructure:"voltage_l2" json:"voltage_l2_dv"`
	VoltageL3            int64     `mapstructure:"voltage_l3" json:"voltage_l3_dv"`
	CurrentL1            int64     `mapstructure:"current_l1" json:"current_l1_a"`
	CurrentL2            int64     `mapstructure:"current_l2" json:"current_l2_a"`
	CurrentL3            int64     `mapstructure:"current_l3" json:"current_l3_a"`
	PowerImportL1        int64     `mapstructure:"power_import_l1" json:"power_import_l1_w"`
	PowerImportL2        int64     `mapstructure:"power_import_l2" json:"power_import_l2_w"`
	PowerImportL3        int64     `mapstructure:"power_import_l3" json:"power_import_l3_w"`
	PowerExportL1        int64     `mapstructure:"power_export_l1" json:"power_export_l1_w"`
	PowerExportL2        int64     `mapstructure:"power_export_l2" json:"power_export_l2_w"`
	PowerExportL3        int64     `mapstructure:"power_export_l3" json:"power_export_l3_w"`
}
