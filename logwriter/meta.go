// File: logwriter/meta.go
// Author: momentics <momentics@gmail.com>
//
// Every log part opens with a block of '#'-prefixed metadata lines per
// spec §4.6: sensor identity, calibration scale factors, configured
// units and filter settings, and the session's start time and id.

package logwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/momentics/gammacore/api"
	"github.com/momentics/gammacore/gammaconfig"
)

// SessionMeta carries everything the header needs to describe a recording
// session; it is fixed at session start and reused across rotated parts.
type SessionMeta struct {
	SessionID   string
	StartedAt   time.Time
	Calibration api.CalibrationInfo
	Units       gammaconfig.UnitsConfig
	Filtering   gammaconfig.FilteringConfig
	BiasMode    gammaconfig.BiasMode
}

// HeaderLines renders the '#'-prefixed metadata block for one part.
func (m SessionMeta) HeaderLines(part int) []string {
	lines := []string{
		fmt.Sprintf("# session_id: %s", m.SessionID),
		fmt.Sprintf("# started_at: %s", m.StartedAt.UTC().Format(time.RFC3339Nano)),
		fmt.Sprintf("# part: %03d", part),
		fmt.Sprintf("# sensor_serial: %s", m.Calibration.Serial),
		fmt.Sprintf("# sensor_firmware: %s", m.Calibration.Firmware),
		fmt.Sprintf("# counts_per_force: %g", m.Calibration.CPF),
		fmt.Sprintf("# counts_per_torque: %g", m.Calibration.CPT),
		fmt.Sprintf("# force_unit: %s", m.Units.Force),
		fmt.Sprintf("# torque_unit: %s", m.Units.Torque),
		fmt.Sprintf("# bias_mode: %s", m.BiasMode),
	}
	if m.Filtering.Enabled {
		lines = append(lines, fmt.Sprintf("# filter: butterworth_lowpass cutoff_hz=%g", m.Filtering.CutoffHz))
	} else {
		lines = append(lines, "# filter: none")
	}
	return lines
}

// WriteHeader writes the metadata block to w, one line per metadata field.
// The line ending matches format so excel_compatible parts are CRLF
// throughout, not just in the CSV data rows that follow.
func WriteHeader(w io.Writer, m SessionMeta, part int, format gammaconfig.LogFormat) error {
	eol := "\n"
	if format == gammaconfig.FormatExcelCompatible {
		eol = "\r\n"
	}
	for _, l := range m.HeaderLines(part) {
		if _, err := io.WriteString(w, l+eol); err != nil {
			return err
		}
	}
	return nil
}
