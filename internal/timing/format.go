package timing

import (
	"fmt"
	"math"
	"time"
)

// FormatHMS renders whole seconds as HH:MM:SS. Hours are not wrapped at 24.
func FormatHMS(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatDuration is FormatHMS for a time.Duration.
func FormatDuration(d time.Duration) string {
	return FormatHMS(int64(d / time.Second))
}

// Minutes converts seconds to minutes rounded to two decimals.
func Minutes(seconds int64) float64 {
	return math.Round(float64(seconds)/60*100) / 100
}
