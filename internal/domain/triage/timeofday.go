package triage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Minutes converts an "HH:MM" string to minutes since midnight. Malformed
// input yields NaN, which callers let flow into layout values.
func Minutes(hhmm string) float64 {
	parts := strings.Split(hhmm, ":")
	if len(parts) < 2 {
		return math.NaN()
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return math.NaN()
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return math.NaN()
	}
	return float64(60*h + m)
}

// FormatMinutes renders minutes since midnight as "HH:MM".
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
