package injector

import "time"

func nowUnix() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func durationSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
