package domain

import (
	"time"

	dErrors "vigie/pkg/domain-errors"
)

// Cadence is the minimum interval before a surveillance becomes eligible for
// re-check.
type Cadence string

// Supported check cadences.
const (
	CadenceHourly Cadence = "hourly"
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

// cadenceWindows maps each cadence to its re-check window.
var cadenceWindows = map[Cadence]time.Duration{
	CadenceHourly: time.Hour,
	CadenceDaily:  24 * time.Hour,
	CadenceWeekly: 7 * 24 * time.Hour,
}

// ParseCadence constructs a Cadence from external input.
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseCadence(s string) (Cadence, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "cadence cannot be empty")
	}
	c := Cadence(s)
	if !c.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown cadence %q", s)
	}
	return c, nil
}

// IsValid checks if the cadence is one of the supported enum values.
func (c Cadence) IsValid() bool {
	_, ok := cadenceWindows[c]
	return ok
}

// Window returns the re-check interval for the cadence. Unknown cadences fall
// back to the daily window so a corrupt row can never make a watch ineligible
// forever.
func (c Cadence) Window() time.Duration {
	if w, ok := cadenceWindows[c]; ok {
		return w
	}
	return cadenceWindows[CadenceDaily]
}

// String returns the string representation of the cadence.
func (c Cadence) String() string {
	return string(c)
}
