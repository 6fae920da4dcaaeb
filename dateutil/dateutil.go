// Package dateutil converts between the three date representations used by
// the drilling data pipeline: ISO dates from the UI (YYYY-MM-DD), the storage
// format kept in the date text column (D/M/YY, no leading zeros), and the
// display format handed back to date pickers (YYYY-MM-DD).
package dateutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UnparseableDateError is returned when a date string cannot be converted.
// Callers decide whether to skip the row or drop the filter; the ingestion
// path must keep processing subsequent rows.
type UnparseableDateError struct {
	Input string
}

func (e *UnparseableDateError) Error() string {
	return fmt.Sprintf("unparseable date: %q", e.Input)
}

// ToStorageDate converts an ISO date (YYYY-MM-DD) to the storage format
// D/M/YY: day and month without leading zeros, year truncated to two digits.
// Month and day ranges are not validated; the storage engine parses the
// result with to_date and is the authority on ordering.
func ToStorageDate(isoDate string) (string, error) {
	if isoDate == "" {
		return "", &UnparseableDateError{Input: isoDate}
	}

	parts := strings.Split(isoDate, "-")
	if len(parts) != 3 {
		return "", &UnparseableDateError{Input: isoDate}
	}

	year, month, day := parts[0], parts[1], parts[2]
	if len(year) < 2 {
		return "", &UnparseableDateError{Input: isoDate}
	}

	d, err := strconv.Atoi(day)
	if err != nil {
		return "", &UnparseableDateError{Input: isoDate}
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return "", &UnparseableDateError{Input: isoDate}
	}

	return fmt.Sprintf("%d/%d/%s", d, m, year[len(year)-2:]), nil
}

// ToDisplayDate converts a stored date back to ISO YYYY-MM-DD for the UI.
// Accepts either a native time.Time (Postgres to_date results scan as
// time.Time) or a D/M/YY text string. Two-digit years are expanded with a
// "20" prefix, so only 2000-2099 are representable.
func ToDisplayDate(stored interface{}) string {
	switch v := stored.(type) {
	case time.Time:
		return v.Format("2006-01-02")
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format("2006-01-02")
	case string:
		return displayFromStorageText(v)
	default:
		return ""
	}
}

func displayFromStorageText(stored string) string {
	parts := strings.Split(stored, "/")
	if len(parts) != 3 {
		return ""
	}

	day, month, year := parts[0], parts[1], parts[2]
	if len(year) == 2 {
		year = "20" + year
	}
	if len(month) == 1 {
		month = "0" + month
	}
	if len(day) == 1 {
		day = "0" + day
	}

	return fmt.Sprintf("%s-%s-%s", year, month, day)
}

// NormalizeTime expands a short HH:MM time to HH:MM:SS by appending ":00".
// Anything that is not exactly five characters passes through unchanged.
// Numeric ranges are deliberately not validated.
func NormalizeTime(t string) string {
	if len(t) == 5 {
		return t + ":00"
	}
	return t
}

// CompareDates compares two storage-format dates (D/M/YY) and returns a
// negative, zero, or positive value. Each date collapses into
// year*10000 + month*100 + day. Live range queries delegate ordering to the
// storage engine's to_date on the same text format; this function documents
// the equivalent ordering in-process.
func CompareDates(a, b string) (int, error) {
	av, err := dateOrdinal(a)
	if err != nil {
		return 0, err
	}
	bv, err := dateOrdinal(b)
	if err != nil {
		return 0, err
	}
	return av - bv, nil
}

func dateOrdinal(stored string) (int, error) {
	parts := strings.Split(stored, "/")
	if len(parts) != 3 {
		return 0, &UnparseableDateError{Input: stored}
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, &UnparseableDateError{Input: stored}
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, &UnparseableDateError{Input: stored}
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, &UnparseableDateError{Input: stored}
	}

	return year*10000 + month*100 + day, nil
}

// VendorDateToStorage converts the M/D/YYYY dates found in surface-sensor
// exports (e.g. "8/2/2021") to the storage D/M/YY form.
func VendorDateToStorage(vendorDate string) (string, error) {
	parts := strings.Split(strings.TrimSpace(vendorDate), "/")
	if len(parts) != 3 {
		return "", &UnparseableDateError{Input: vendorDate}
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", &UnparseableDateError{Input: vendorDate}
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", &UnparseableDateError{Input: vendorDate}
	}
	year := parts[2]
	if len(year) < 2 {
		return "", &UnparseableDateError{Input: vendorDate}
	}

	return fmt.Sprintf("%d/%d/%s", day, month, year[len(year)-2:]), nil
}
