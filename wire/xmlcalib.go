// File: wire/xmlcalib.go
// Author: momentics <momentics@gmail.com>
//
// Decodes the calibration XML document served over HTTP. Unknown fields
// are ignored; counts_per_force and counts_per_torque are required.

package wire

import (
	"encoding/xml"

	"github.com/momentics/gammacore/api"
)

// calibrationDoc is the minimal shape of the XML calibration document.
// Unrecognized elements are silently dropped by encoding/xml.
type calibrationDoc struct {
	XMLName         xml.Name `xml:"calibration"`
	CountsPerForce  *float64 `xml:"counts_per_force"`
	CountsPerTorque *float64 `xml:"counts_per_torque"`
	Serial          string   `xml:"serial"`
	Firmware        string   `xml:"firmware"`
}

// DecodeCalibrationXML parses the HTTP calibration document body. Returns
// api.CalParseFailed if the XML is malformed or either required field is
// absent.
func DecodeCalibrationXML(body []byte) (api.CalibrationInfo, error) {
	var doc calibrationDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return api.CalibrationInfo{}, api.CalParseFailed(err)
	}
	if doc.CountsPerForce == nil || doc.CountsPerTorque == nil {
		return api.CalibrationInfo{}, api.CalParseFailed(errMissingField)
	}
	info := api.CalibrationInfo{
		CPF:      *doc.CountsPerForce,
		CPT:      *doc.CountsPerTorque,
		Serial:   doc.Serial,
		Firmware: doc.Firmware,
	}
	if !info.Valid() {
		return api.CalibrationInfo{}, api.CalParseFailed(errInvalidScale)
	}
	return info, nil
}

var (
	errMissingField = xmlErr("missing counts_per_force or counts_per_torque")
	errInvalidScale = xmlErr("counts_per_force/counts_per_torque must be positive and finite")
)

type xmlErr string

func (e xmlErr) Error() string { return string(e) }
