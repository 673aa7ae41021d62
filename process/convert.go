// File: process/convert.go
// Author: momentics <momentics@gmail.com>
//
// Counts-to-SI conversion: divides the first three (soft-zero-adjusted)
// counts by cpf to produce force_N, and the last three by cpt to produce
// torque_Nm. Canonical internal units are always N and N·m (spec §4.4);
// display-unit conversion happens only at the egress boundary
// (gammaconfig.ForceToDisplay / TorqueToDisplay).

package process

import "github.com/momentics/gammacore/api"

// ConvertCounts converts six raw (already soft-zero-adjusted) counts into
// force_N (from counts[0:3]) and torque_Nm (from counts[3:6]) using the
// given calibration.
func ConvertCounts(counts [6]int32, cal api.CalibrationInfo) (forceN, torqueNm [3]float64) {
	for i := 0; i < 3; i++ {
		forceN[i] = float64(counts[i]) / cal.CPF
	}
	for i := 0; i < 3; i++ {
		torqueNm[i] = float64(counts[3+i]) / cal.CPT
	}
	return
}
