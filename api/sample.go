// File: api/sample.go
// Author: momentics <momentics@gmail.com>
//
// Core sample and calibration data types shared across every stage of the
// acquisition pipeline.

package api

// SampleRecord is one decoded 6-axis force/torque reading, immutable once
// constructed. Counts are the six raw signed 32-bit channel values in the
// fixed order Fx, Fy, Fz, Tx, Ty, Tz. ForceN/TorqueNm are populated by the
// processing stage; they are absent (all zero) on the record handed from
// the wire codec to the raw ring.
type SampleRecord struct {
	TMonoNs     int64
	RDTSequence uint32
	FTSequence  uint32
	Status      uint32
	Counts      [6]int32
	ForceN      [3]float64
	TorqueNm    [3]float64
}

// CalibrationInfo holds the counts-per-force / counts-per-torque scale
// factors required to convert raw counts into SI units, plus whatever
// identifying metadata the resolver could obtain.
type CalibrationInfo struct {
	CPF            float64
	CPT            float64
	Serial         string
	Firmware       string
	ForceUnitCode  uint8
	TorqueUnitCode uint8
}

// Valid reports whether the calibration carries strictly positive, finite
// scale factors, per spec invariant: cpf and cpt positive and finite.
func (c CalibrationInfo) Valid() bool {
	return c.CPF > 0 && c.CPT > 0 && !isNonFinite(c.CPF) && !isNonFinite(c.CPT)
}

func isNonFinite(f float64) bool {
	return f != f || f > maxFinite || f < -maxFinite
}

const maxFinite = 1.7976931348623157e+308
