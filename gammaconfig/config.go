// Package gammaconfig is the typed realization of spec §6's "Preferences"
// object: every tunable the supervisor accepts, with defaults and bounds
// validation.
// Author: momentics <momentics@gmail.com>
package gammaconfig

import (
	"fmt"
	"time"
)

// ForceUnit is the display/logging unit for force channels.
type ForceUnit string

const (
	ForceUnitN   ForceUnit = "N"
	ForceUnitLbf ForceUnit = "lbf"
	ForceUnitKgf ForceUnit = "kgf"
)

// TorqueUnit is the display/logging unit for torque channels.
type TorqueUnit string

const (
	TorqueUnitNm    TorqueUnit = "Nm"
	TorqueUnitNmm   TorqueUnit = "Nmm"
	TorqueUnitLbfIn TorqueUnit = "lbf_in"
	TorqueUnitLbfFt TorqueUnit = "lbf_ft"
)

// BiasMode selects where tare/zero is applied.
type BiasMode string

const (
	BiasModeDevice BiasMode = "device"
	BiasModeSoft   BiasMode = "soft"
)

// LogFormat selects the on-disk row/column serialization.
type LogFormat string

const (
	FormatCSV            LogFormat = "csv"
	FormatTSV            LogFormat = "tsv"
	FormatExcelCompatible LogFormat = "excel_compatible"
)

// ConnectionConfig holds endpoint and reconnect settings.
type ConnectionConfig struct {
	LastIP          string
	UDPPort         int
	TCPPort         int
	HTTPPort        int
	ConnectTimeout  time.Duration
	AutoReconnect   bool
	DiscoverySubnets []string
}

// VisualizationConfig holds plotting/display settings.
type VisualizationConfig struct {
	ChannelsEnabled [6]bool
	TimeWindowSec   float64
	Autoscale       bool
	ManualYMin      float64
	ManualYMax      float64
	ShowGrid        bool
	ShowCrosshair   bool
	MaxPointsPerChannel int
}

// UnitsConfig holds display/logging unit selection.
type UnitsConfig struct {
	Force  ForceUnit
	Torque TorqueUnit
}

// FilteringConfig holds the optional IIR low-pass configuration.
type FilteringConfig struct {
	Enabled bool
	CutoffHz float64
}

// BiasConfig selects tare mode.
type BiasConfig struct {
	Mode BiasMode
}

// LoggingConfig holds async file writer tunables.
type LoggingConfig struct {
	OutputDir        string
	FilenamePrefix   string
	Format           LogFormat
	FlushIntervalMs  int
	DecimationFactor int
	RotationEnabled  bool
	RotationSizeBytes int64
	RotationTimeMinutes int
	BatchSize        int
	QueueCapacity    int
}

// ToolTransformConfig is the tool-frame transform, mm/degrees.
type ToolTransformConfig struct {
	DX, DY, DZ float64
	RX, RY, RZ float64
}

// Config is the complete typed preferences object.
type Config struct {
	Connection    ConnectionConfig
	Visualization VisualizationConfig
	Units         UnitsConfig
	Filtering     FilteringConfig
	Bias          BiasConfig
	Logging       LoggingConfig
	ToolTransform ToolTransformConfig

	RawRingCapacity int
	WriterQueueCapacity int
}

// Default returns the baseline configuration matching spec defaults:
// C_raw=60000, Q=1000, batch_size=100, flush_interval_ms=250.
func Default() *Config {
	return &Config{
		Connection: ConnectionConfig{
			UDPPort:        49152,
			TCPPort:        49151,
			HTTPPort:       80,
			ConnectTimeout: 2 * time.Second,
			AutoReconnect:  true,
		},
		Visualization: VisualizationConfig{
			ChannelsEnabled:     [6]bool{true, true, true, true, true, true},
			TimeWindowSec:       60,
			Autoscale:           true,
			ShowGrid:            true,
			ShowCrosshair:       true,
			MaxPointsPerChannel: 10000,
		},
		Units: UnitsConfig{
			Force:  ForceUnitN,
			Torque: TorqueUnitNm,
		},
		Filtering: FilteringConfig{
			Enabled:  false,
			CutoffHz: 30,
		},
		Bias: BiasConfig{
			Mode: BiasModeSoft,
		},
		Logging: LoggingConfig{
			Format:              FormatCSV,
			FlushIntervalMs:     250,
			DecimationFactor:    1,
			RotationEnabled:     true,
			RotationSizeBytes:   64 * 1024 * 1024,
			RotationTimeMinutes: 60,
			BatchSize:           100,
			QueueCapacity:       1000,
		},
		RawRingCapacity:     60000,
		WriterQueueCapacity: 1000,
	}
}

// Validate enforces every explicit bound spec §6 states. It returns the
// first violation found.
func (c *Config) Validate() error {
	if c.Visualization.TimeWindowSec < 1 || c.Visualization.TimeWindowSec > 604800 {
		return fmt.Errorf("visualization.time_window_sec %v out of range [1, 604800]", c.Visualization.TimeWindowSec)
	}
	if c.Filtering.Enabled && (c.Filtering.CutoffHz < 0.7 || c.Filtering.CutoffHz > 120) {
		return fmt.Errorf("filtering.cutoff_hz %v out of range [0.7, 120]", c.Filtering.CutoffHz)
	}
	if c.Logging.DecimationFactor < 1 {
		return fmt.Errorf("logging.decimation_factor %d must be >= 1", c.Logging.DecimationFactor)
	}
	switch c.Units.Force {
	case ForceUnitN, ForceUnitLbf, ForceUnitKgf:
	default:
		return fmt.Errorf("units.force %q is not a recognized force unit", c.Units.Force)
	}
	switch c.Units.Torque {
	case TorqueUnitNm, TorqueUnitNmm, TorqueUnitLbfIn, TorqueUnitLbfFt:
	default:
		return fmt.Errorf("units.torque %q is not a recognized torque unit", c.Units.Torque)
	}
	switch c.Bias.Mode {
	case BiasModeDevice, BiasModeSoft:
	default:
		return fmt.Errorf("bias.mode %q is not a recognized bias mode", c.Bias.Mode)
	}
	switch c.Logging.Format {
	case FormatCSV, FormatTSV, FormatExcelCompatible:
	default:
		return fmt.Errorf("logging.format %q is not a recognized format", c.Logging.Format)
	}
	if c.RawRingCapacity < 1 {
		return fmt.Errorf("raw_ring_capacity must be positive")
	}
	if c.WriterQueueCapacity < 1 {
		return fmt.Errorf("writer_queue_capacity must be positive")
	}
	return nil
}
