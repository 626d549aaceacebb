package gdd

import "math"

// DailyGDD calculates a single day's growing-degree-day contribution from
// the day's mean temperature and the base temperature effective that day.
// Negative contributions clamp to zero. No rounding is applied here;
// rounding is a display concern.
func DailyGDD(meanTemp, baseTemp float64) float64 {
	return math.Max(0, meanTemp-baseTemp)
}

// MeanTemp computes a daily mean from max and min temperatures.
func MeanTemp(tmax, tmin float64) float64 {
	return (tmax + tmin) / 2
}
