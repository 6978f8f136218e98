package activity

import (
	"fmt"
	"time"
)

// HumanBitrate renders a bits-per-second value with a binary-scaled unit,
// e.g. 2621440 -> "2.5 Mbps".
func HumanBitrate(bps float64) string {
	units := []string{"bps", "kbps", "Mbps", "Gbps", "Tbps"}
	i := 0
	for bps >= 1024 && i < len(units)-1 {
		bps /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%.0f %s", bps, units[i])
	}
	return fmt.Sprintf("%.1f %s", bps, units[i])
}

// msToClock renders a millisecond count as "M:SS".
func msToClock(ms int) string {
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// clockFormat returns the time layout for the given clock preference.
func clockFormat(militaryTime bool) string {
	if militaryTime {
		return "15:04"
	}
	return "03:04 PM"
}

// plural appends "s" to word when count is not 1.
func plural(word string, count int) string {
	if count == 1 {
		return word
	}
	return word + "s"
}

// etaClock renders the wall-clock time remaining milliseconds from now,
// in the configured timezone.
func etaClock(now time.Time, remainingMS int, loc *time.Location, militaryTime bool) string {
	eta := now.Add(time.Duration(remainingMS) * time.Millisecond)
	if loc != nil {
		eta = eta.In(loc)
	}
	return eta.Format(clockFormat(militaryTime))
}
