package enrollment

import "math"

// AmountTolerance is the largest absolute difference, in major currency units,
// accepted between the paid amount and the catalog price.
const AmountTolerance = 0.01

// minorUnitsPerMajor converts processor amounts (kobo, cents, pesewas).
const minorUnitsPerMajor = 100

// MinorToMajor converts an amount reported in minor currency units.
func MinorToMajor(minor int64) float64 {
	return float64(minor) / minorUnitsPerMajor
}

// AmountMatches reports whether paid is within AmountTolerance of expected.
// The bound is inclusive; a small epsilon absorbs binary rounding so that
// a difference of exactly one minor unit still matches.
func AmountMatches(paid, expected float64) bool {
	const epsilon = 1e-9
	return math.Abs(paid-expected) <= AmountTolerance+epsilon
}
