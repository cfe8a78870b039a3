package video

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// clockRegex matches [HH:]MM:SS[.fff]
var clockRegex = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{1,2}(?:\.\d+)?)$`)

// ParseSeconds parses a time offset given either as decimal seconds ("12.5")
// or as a clock value ("01:02:03.5", "02:03")
func ParseSeconds(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid time %q: value is required", s)
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("invalid time %q: must be a finite number", s)
		}
		if v < 0 {
			return 0, fmt.Errorf("invalid time %q: must not be negative", s)
		}
		return v, nil
	}

	matches := clockRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid time format %q: expected seconds or HH:MM:SS", s)
	}

	hours := 0
	if matches[1] != "" {
		hours, _ = strconv.Atoi(matches[1])
	}
	minutes, _ := strconv.Atoi(matches[2])
	seconds, _ := strconv.ParseFloat(matches[3], 64)

	if minutes > 59 {
		return 0, fmt.Errorf("invalid time %q: minutes must be 0-59", s)
	}
	if seconds >= 60 {
		return 0, fmt.Errorf("invalid time %q: seconds must be 0-59", s)
	}

	return float64(hours*3600+minutes*60) + seconds, nil
}

// FormatSeconds renders seconds as the shortest decimal string ffmpeg accepts
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
