// File: logwriter/format.go
// Author: momentics <momentics@gmail.com>
//
// Row and header serialization for the three formats spec §4.6 names:
// csv, tsv, and excel_compatible. All three share one column layout and
// differ only in delimiter, line ending, and (for excel_compatible) a
// leading UTF-8 BOM. encoding/csv.Writer supplies conservative quoting
// for free via its Comma and UseCRLF fields.

package logwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/momentics/gammacore/api"
	"github.com/momentics/gammacore/gammaconfig"
)

// excelBOM is the UTF-8 byte-order-mark Excel expects to auto-detect
// encoding on files that start with a non-ASCII-safe column header.
var excelBOM = []byte{0xEF, 0xBB, 0xBF}

// newCSVWriter returns a csv.Writer configured for the given format.
func newCSVWriter(w io.Writer, format gammaconfig.LogFormat) *csv.Writer {
	cw := csv.NewWriter(w)
	switch format {
	case gammaconfig.FormatTSV:
		cw.Comma = '\t'
	case gammaconfig.FormatExcelCompatible:
		cw.Comma = ','
		cw.UseCRLF = true
	default:
		cw.Comma = ','
	}
	return cw
}

// WritePreamble writes the format-specific leading bytes (BOM for
// excel_compatible, nothing otherwise). Must run before any csv.Writer
// output reaches w.
func WritePreamble(w io.Writer, format gammaconfig.LogFormat) error {
	if format == gammaconfig.FormatExcelCompatible {
		_, err := w.Write(excelBOM)
		return err
	}
	return nil
}

// ColumnHeader returns the header row naming every column, with bracketed
// unit annotations on the engineering-unit columns.
func ColumnHeader(units gammaconfig.UnitsConfig) []string {
	return []string{
		"timestamp_utc",
		"t_mono_ns",
		"rdt_sequence",
		"ft_sequence",
		"status",
		fmt.Sprintf("fx[%s]", units.Force),
		fmt.Sprintf("fy[%s]", units.Force),
		fmt.Sprintf("fz[%s]", units.Force),
		fmt.Sprintf("tx[%s]", units.Torque),
		fmt.Sprintf("ty[%s]", units.Torque),
		fmt.Sprintf("tz[%s]", units.Torque),
	}
}

// WriteHeaderRow writes the column header as one CSV/TSV/Excel row.
func WriteHeaderRow(cw *csv.Writer, units gammaconfig.UnitsConfig) error {
	return cw.Write(ColumnHeader(units))
}

// FormatRow renders one sample as a row of fields, converting the
// engineering values to the configured display units.
func FormatRow(s api.SampleRecord, units gammaconfig.UnitsConfig, epoch time.Time) []string {
	ts := epoch.Add(time.Duration(s.TMonoNs)).UTC().Format(time.RFC3339Nano)
	return []string{
		ts,
		fmt.Sprintf("%d", s.TMonoNs),
		fmt.Sprintf("%d", s.RDTSequence),
		fmt.Sprintf("%d", s.FTSequence),
		fmt.Sprintf("%d", s.Status),
		fmt.Sprintf("%.9g", gammaconfig.ForceToDisplay(s.ForceN[0], units.Force)),
		fmt.Sprintf("%.9g", gammaconfig.ForceToDisplay(s.ForceN[1], units.Force)),
		fmt.Sprintf("%.9g", gammaconfig.ForceToDisplay(s.ForceN[2], units.Force)),
		fmt.Sprintf("%.9g", gammaconfig.TorqueToDisplay(s.TorqueNm[0], units.Torque)),
		fmt.Sprintf("%.9g", gammaconfig.TorqueToDisplay(s.TorqueNm[1], units.Torque)),
		fmt.Sprintf("%.9g", gammaconfig.TorqueToDisplay(s.TorqueNm[2], units.Torque)),
	}
}

// WriteRows writes and flushes a batch of samples through cw.
func WriteRows(cw *csv.Writer, samples []api.SampleRecord, units gammaconfig.UnitsConfig, epoch time.Time) error {
	for _, s := range samples {
		if err := cw.Write(FormatRow(s, units, epoch)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileExtension returns the on-disk extension for a format.
func FileExtension(format gammaconfig.LogFormat) string {
	switch format {
	case gammaconfig.FormatTSV:
		return "tsv"
	default:
		return "csv"
	}
}
