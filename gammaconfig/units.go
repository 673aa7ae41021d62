// File: gammaconfig/units.go
// Author: momentics <momentics@gmail.com>
//
// Egress unit conversions (N/lbf/kgf, Nm/Nmm/lbf-in/lbf-ft), applied only
// at the display/logging boundary — canonical internal units stay N and
// N·m throughout the pipeline, per spec §4.4.

package gammaconfig

const (
	lbfPerN  = 1 / 4.4482216152605
	kgfPerN  = 1 / 9.80665
	inPerM   = 1 / 0.0254
	ftPerM   = 1 / 0.3048
)

// ForceToDisplay converts a force value in newtons to the given display unit.
func ForceToDisplay(n float64, unit ForceUnit) float64 {
	switch unit {
	case ForceUnitLbf:
		return n * lbfPerN
	case ForceUnitKgf:
		return n * kgfPerN
	default:
		return n
	}
}

// TorqueToDisplay converts a torque value in newton-meters to the given
// display unit.
func TorqueToDisplay(nm float64, unit TorqueUnit) float64 {
	switch unit {
	case TorqueUnitNmm:
		return nm * 1000
	case TorqueUnitLbfIn:
		return nm / (4.4482216152605 * 0.0254)
	case TorqueUnitLbfFt:
		return nm / (4.4482216152605 * 0.3048)
	default:
		return nm
	}
}
