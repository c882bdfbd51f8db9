package triage

import (
	"math"
	"testing"
)

func TestMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"00:00", 0},
		{"00:15", 15},
		{"07:00", 420},
		{"08:30", 510},
		{"13:05", 785},
		{"21:00", 1260},
		{"23:59", 1439},
		{"8:5", 485},
		{"08:00:30", 480},
	}
	for _, c := range cases {
		if got := Minutes(c.in); got != c.want {
			t.Errorf("Minutes(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestMinutes_MalformedIsNaN(t *testing.T) {
	for _, in := range []string{"", "0800", "8am", "ab:cd", "08:", ":30"} {
		if got := Minutes(in); !math.IsNaN(got) {
			t.Errorf("Minutes(%q) = %v, want NaN", in, got)
		}
	}
}

func TestMinutes_MonotonicOverDay(t *testing.T) {
	for m := 0; m < 24*60-1; m++ {
		a, b := FormatMinutes(m), FormatMinutes(m+1)
		if !(Minutes(a) < Minutes(b)) {
			t.Fatalf("Minutes(%s) = %v not < Minutes(%s) = %v", a, Minutes(a), b, Minutes(b))
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{0, "00:00"},
		{90, "01:30"},
		{545, "09:05"},
		{1260, "21:00"},
	}
	for _, c := range cases {
		if got := FormatMinutes(c.minutes); got != c.want {
			t.Errorf("FormatMinutes(%d) = %s, want %s", c.minutes, got, c.want)
		}
	}
}
