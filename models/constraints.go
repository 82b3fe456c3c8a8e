package models

// MIPLevelConstraints carries the user-configured resolution-level range for
// a layer. A value of -1 means unset. Levels are indices into the multiscale
// source list, 0 being the finest.
type MIPLevelConstraints struct {
	MinLevel int
	MaxLevel int
}

// UnconstrainedMIPLevels leaves both ends of the range open.
func UnconstrainedMIPLevels() MIPLevelConstraints {
	return MIPLevelConstraints{MinLevel: -1, MaxLevel: -1}
}

// EffectiveMinLevel resolves the lower end of the permitted range for a layer
// with numLevels scales, clamping out-of-range values.
func (c MIPLevelConstraints) EffectiveMinLevel(numLevels int) int {
	min := c.MinLevel
	if min < 0 {
		min = 0
	}
	if min > numLevels-1 {
		min = numLevels - 1
	}
	return min
}

// EffectiveMaxLevel resolves the upper end of the permitted range. It never
// drops below the effective minimum.
func (c MIPLevelConstraints) EffectiveMaxLevel(numLevels int) int {
	max := c.MaxLevel
	if max < 0 || max > numLevels-1 {
		max = numLevels - 1
	}
	if min := c.EffectiveMinLevel(numLevels); max < min {
		max = min
	}
	return max
}
