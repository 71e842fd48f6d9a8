package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Average calendar lengths used to order durations with year and month
// components.
const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
	secondsPerWeek   = 7 * secondsPerDay
	secondsPerMonth  = 2629746  // 365.2425 days / 12
	secondsPerYear   = 31556952 // 365.2425 days
)

var durationPattern = regexp.MustCompile(
	`^([-+])?P(?:(\d+(?:[.,]\d+)?)Y)?(?:(\d+(?:[.,]\d+)?)M)?(?:(\d+(?:[.,]\d+)?)W)?(?:(\d+(?:[.,]\d+)?)D)?` +
		`(?:T(?:(\d+(?:[.,]\d+)?)H)?(?:(\d+(?:[.,]\d+)?)M)?(?:(\d+(?:[.,]\d+)?)S)?)?$`)

// Duration is an ISO 8601 duration such as P1Y2M10DT2H30M.
type Duration struct {
	Negative bool
	Years    float64
	Months   float64
	Weeks    float64
	Days     float64
	Hours    float64
	Minutes  float64
	Seconds  float64
	source   string
}

// TotalSeconds returns the approximate length of the duration in seconds, using
// average year and month lengths.
func (d Duration) TotalSeconds() float64 {
	total := d.Years*secondsPerYear +
		d.Months*secondsPerMonth +
		d.Weeks*secondsPerWeek +
		d.Days*secondsPerDay +
		d.Hours*secondsPerHour +
		d.Minutes*secondsPerMinute +
		d.Seconds
	if d.Negative {
		return -total
	}
	return total
}

// String returns the text the duration was parsed from.
func (d Duration) String() string {
	return d.source
}

// ParseDuration parses an ISO 8601 duration.
func ParseDuration(v any) (Duration, error) {
	s, err := asString(v, "duration")
	if err != nil {
		return Duration{}, err
	}
	match := durationPattern.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil || s == "P" || strings.HasSuffix(s, "T") {
		return Duration{}, fmt.Errorf("%s is not a valid duration: expected ISO 8601 such as P1DT2H", s)
	}

	parts := make([]float64, 7)
	present := false
	for i := range parts {
		raw := match[i+2]
		if raw == "" {
			continue
		}
		present = true
		f, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			return Duration{}, fmt.Errorf("%s is not a valid duration: %w", s, err)
		}
		parts[i] = f
	}
	if !present {
		return Duration{}, fmt.Errorf("%s is not a valid duration: no components", s)
	}

	return Duration{
		Negative: match[1] == "-",
		Years:    parts[0],
		Months:   parts[1],
		Weeks:    parts[2],
		Days:     parts[3],
		Hours:    parts[4],
		Minutes:  parts[5],
		Seconds:  parts[6],
		source:   s,
	}, nil
}
