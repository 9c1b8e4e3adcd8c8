// Package alert holds the hysteresis decision for unhealthy-air
// notifications. The policy is a pure function; the monitor loop owns the
// lastAqi memory and passes it in each cycle.
package alert

// UnhealthyThreshold is the AQI value at which air quality enters the
// unhealthy band.
const UnhealthyThreshold = 100.0

// ShouldNotify reports whether a notification should fire for the current
// reading. Edge-triggered: it fires only on the transition from
// below-threshold (or unknown, lastAqi == nil) to at-or-above-threshold.
// While the AQI stays at or above the threshold no further notification
// fires until it first drops below and rises again.
func ShouldNotify(currentAqi float64, lastAqi *float64, notifyEnabled bool) bool {
	if !notifyEnabled || currentAqi < UnhealthyThreshold {
		return false
	}
	return lastAqi == nil || *lastAqi < UnhealthyThreshold
}
