package cycle

// Calibrator builds the optional leading calibration microcycle. It clones
// the main-cycle blueprints and applies the calibration override to every
// assignment, so nothing done in that week counts toward progression.
type Calibrator struct{}

// Calibrate returns calibration copies of days. The input is not modified.
func (Calibrator) Calibrate(days []Blueprint) []Blueprint {
	out := make([]Blueprint, len(days))
	ctx := AdjustContext{Calibration: true}
	for i, d := range days {
		c := d.Clone()
		c.Calibration = true
		c.NoProgression = true
		c.IntensityPercent = CalibrationIntensity
		c.SessionName = "Calibration: " + d.SessionName
		for j := range c.Assignments {
			c.Assignments[j] = CalibrationOverride(c.Assignments[j], ctx)
		}
		out[i] = c
	}
	return out
}
