// Package units converts lengths between pixels, points and unit-suffixed
// strings, and inspects the transform stacks attached to scene groups.
package units

import (
	"math"
	"strconv"
	"strings"
)

// PixelsPerPoint is the CSS reference ratio: 96 px per inch, 72 pt per inch.
const PixelsPerPoint = 96.0 / 72.0

// PointSuffix is the only unit suffix the persisted model understands.
const PointSuffix = "pt"

// PointsToPixels converts a length in points to CSS pixels.
func PointsToPixels(pt float64) float64 {
	return pt * 96 / 72
}

// PixelsToPoints converts a length in CSS pixels to points.
func PixelsToPoints(px float64) float64 {
	return px * 72 / 96
}

// ToPoints parses a length carrying an explicit unit suffix, such as "12pt".
// Only point lengths yield a value; other units and malformed literals
// report false.
func ToPoints(length string) (float64, bool) {
	s := strings.TrimSpace(length)
	num, ok := strings.CutSuffix(s, PointSuffix)
	if !ok || num == "" {
		return 0, false
	}
	// Reject "12 pt" and nested suffixes such as "12ptpt".
	if strings.TrimSpace(num) != num {
		return 0, false
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatPoints renders v as a point length. ToPoints(FormatPoints(v)) == v
// for every finite v.
func FormatPoints(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64) + PointSuffix
}

// RoundPoints quantizes a point value to the integer precision of the
// persisted format.
func RoundPoints(v float64) int64 {
	return int64(math.Round(v))
}
