package config

import "time"

// CalculateTimerDuration converts a Timer into a duration, enforcing a one
// second floor so a zeroed timer cannot produce a busy loop.
func CalculateTimerDuration(timer Timer) time.Duration {
	intervalMs := calculateMilliseconds(timer)

	minInterval := uint64(1000)
	if intervalMs < minInterval {
		intervalMs = minInterval
	}

	return time.Duration(intervalMs) * time.Millisecond
}

func calculateMilliseconds(timer Timer) uint64 {
	return uint64(timer.Days)*24*60*60*1000 +
		uint64(timer.Hours)*60*60*1000 +
		uint64(timer.Minutes)*60*1000 +
		uint64(timer.Seconds)*1000
}

// GetRateLimitWindow returns the configured request window.
func GetRateLimitWindow() time.Duration {
	return time.Duration(GetConfig().RateLimit.WindowSeconds) * time.Second
}

// GetSweepInterval returns how often idle rate-limit windows are reaped.
func GetSweepInterval() time.Duration {
	return CalculateTimerDuration(GetConfig().RateLimit.SweepTimer)
}
