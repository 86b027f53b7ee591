package medialink

import (
	"math"
	"regexp"
	"strconv"
)

// MaxDurationSeconds is the ceiling ParseDuration saturates at. It keeps the result within an
// int on 32-bit platforms and lets callers multiply by 1000 without overflowing int64.
const MaxDurationSeconds = math.MaxInt32

const (
	secondsPerHour   = 3600
	secondsPerMinute = 60
)

var isoDurationRegex = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// ParseDuration converts an ISO-8601 style "PT#H#M#S" duration into whole seconds.
// Anything that does not start with "PT" yields 0; duration is treated as best-effort metadata.
// Totals above MaxDurationSeconds are clamped to it.
func ParseDuration(s string) int {
	matches := isoDurationRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0
	}

	var total int64
	for i, unit := range []int64{secondsPerHour, secondsPerMinute, 1} {
		n := durationComponent(matches[i+1])
		if n > MaxDurationSeconds/unit {
			return MaxDurationSeconds
		}
		total += n * unit
	}
	if total > MaxDurationSeconds {
		return MaxDurationSeconds
	}
	return int(total)
}

// durationComponent parses one digit group. Groups too long for an int64 count as absent.
func durationComponent(digits string) int64 {
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
