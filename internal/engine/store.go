// Package engine holds the checkout ledger for the shared workstation and the
// flat files it is persisted in.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrStateMissing is returned when the state file has not been initialized.
	ErrStateMissing = errors.New("checkout state file missing")
	// ErrCorruptState is returned when the state file cannot be parsed.
	ErrCorruptState = errors.New("checkout state file corrupt")
)

// NoHolder is the holder field written when the resource is free.
const NoHolder = "None"

// timestampLayout matches Python's datetime.isoformat() for naive local times,
// so files written by earlier deployments stay readable.
const timestampLayout = "2006-01-02T15:04:05.000000"

var parseLayouts = []string{
	timestampLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// LockState is the persisted holder record. Holder is empty iff Since is zero.
type LockState struct {
	Holder string
	Since  time.Time
}

// Free reports whether nobody holds the resource.
func (s LockState) Free() bool {
	return s.Holder == ""
}

// FormatTimestamp renders t the way the state and usage files store it, in
// local time without an offset.
func FormatTimestamp(t time.Time) string {
	return t.In(time.Local).Format(timestampLayout)
}

// ParseTimestamp accepts every layout FormatTimestamp has ever produced.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ElapsedMinutes formats d as minutes with one decimal place.
func ElapsedMinutes(d time.Duration) string {
	return fmt.Sprintf("%.1f", Minutes(d))
}

// Minutes converts d to minutes counting only whole seconds. Negative
// durations from clock skew count as zero.
func Minutes(d time.Duration) float64 {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return float64(secs) / 60
}
