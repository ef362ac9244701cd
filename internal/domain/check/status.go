package check

import "time"

// Status is the outcome of a single availability check.
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusUnavailable Status = "UNAVAILABLE"
	StatusError       Status = "ERROR"
	// StatusUnknown is the zero value, used for listings never checked.
	StatusUnknown Status = ""
)

// DetermineStatus maps a raw probe outcome to a Status. A non-empty error
// message always wins, even when the probe also reported available=true.
func DetermineStatus(errMsg string, available bool) Status {
	if errMsg != "" {
		return StatusError
	}
	if available {
		return StatusAvailable
	}
	return StatusUnavailable
}

// ShouldNotify reports whether a status transition warrants an owner
// notification: only a transition *into* AVAILABLE from anything that was
// not already AVAILABLE, and only when there is somewhere to deliver it.
// ERROR results never notify.
func ShouldNotify(newStatus, prevStatus Status, hasTarget bool) bool {
	return newStatus == StatusAvailable && prevStatus != StatusAvailable && hasTarget
}

// NightsBetween returns the number of nights between two stay dates,
// counted on UTC calendar days with time-of-day ignored. Floors at 1 so
// per-night price math never divides by zero.
func NightsBetween(checkIn, checkOut time.Time) int {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	nights := int(out.Sub(in).Hours() / 24)
	if nights < 1 {
		return 1
	}
	return nights
}

// SameStayDates reports whether two stays cover the same check-in and
// check-out calendar days, independent of time-of-day.
func SameStayDates(aIn, aOut, bIn, bOut time.Time) bool {
	return sameDay(aIn, bIn) && sameDay(aOut, bOut)
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
