// Package dateparse normalizes the release dates found on vendor pages to
// ISO-8601 (YYYY-MM-DD).
package dateparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const ISO = "2006-01-02"

// layouts seen on the scraped pages
const (
	Chocolatey    = "Monday, January 2, 2006"
	Slash         = "1/2/2006"
	ShortMonth    = "Jan 2, 2006"
	LongMonth     = "January 2, 2006"
	DayMonthYear  = "2 January 2006"
	YearMonthDay  = "2006 January 2"
	MonthYear     = "January,2006"
	MonthDayYear  = "January 2 2006"
	TimestampUTC  = "2006-01-02 15:04:05 UTC"
	ShortMonthDot = "Jan. 2, 2006"
)

var ErrUnparseable = errors.New("unparseable date")

// ParseError is returned when none of the layouts matched.
type ParseError struct {
	Raw     string
	Layouts []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %q (tried %d layouts)", ErrUnparseable, e.Raw, len(e.Layouts))
}

func (e *ParseError) Unwrap() error {
	return ErrUnparseable
}

func normalize(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Parse tries every layout in order and returns the first match formatted as
// ISO. ISO itself is always tried last.
func Parse(raw string, layouts ...string) (string, error) {
	value := normalize(raw)
	tried := append(append([]string{}, layouts...), ISO)
	for _, layout := range tried {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.Format(ISO), nil
		}
	}
	return "", &ParseError{Raw: raw, Layouts: tried}
}

var frenchMonths = map[string]time.Month{
	"janvier":   time.January,
	"février":   time.February,
	"fevrier":   time.February,
	"mars":      time.March,
	"avril":     time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"août":      time.August,
	"aout":      time.August,
	"septembre": time.September,
	"octobre":   time.October,
	"novembre":  time.November,
	"décembre":  time.December,
	"decembre":  time.December,
}

// French parses "1er mars 2021" or "15 juillet 2019" style dates.
func French(raw string) (string, error) {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) != 3 {
		return "", &ParseError{Raw: raw, Layouts: []string{"2 janvier 2006"}}
	}

	day, err := strconv.Atoi(strings.TrimSuffix(fields[0], "er"))
	if err != nil || day < 1 || day > 31 {
		return "", &ParseError{Raw: raw, Layouts: []string{"2 janvier 2006"}}
	}
	month, ok := frenchMonths[fields[1]]
	if !ok {
		return "", &ParseError{Raw: raw, Layouts: []string{"2 janvier 2006"}}
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil || len(fields[2]) != 4 {
		return "", &ParseError{Raw: raw, Layouts: []string{"2 janvier 2006"}}
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return "", &ParseError{Raw: raw, Layouts: []string{"2 janvier 2006"}}
	}
	return t.Format(ISO), nil
}
