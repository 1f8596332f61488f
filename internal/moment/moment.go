// Package moment resolves the instant a chart is cast for: the current time
// (optionally shifted), or a calendar event with an optional wall-clock time.
package moment

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidDateFormat  = errors.New("invalid date format")
	ErrInvalidTimeFormat  = errors.New("invalid time format")
	ErrInvalidShiftFormat = errors.New("invalid shift format")
	ErrInvalidTimezone    = errors.New("invalid timezone")
	ErrYearOutOfRange     = errors.New("year out of range")
)

// Supported ephemeris span, 13000 BCE to 3999 CE
const (
	MinYear = -13000
	MaxYear = 3999
)

var (
	dateRE  = regexp.MustCompile(`^(\d{4}|-\d{1,5})-(\d{2})-(\d{2})$`)
	timeRE  = regexp.MustCompile(`^(\d{1,2})(?::(\d{1,2}))?(?::(\d{1,2}))?$`)
	shiftRE = regexp.MustCompile(`^\s*([+-]?\d*\.?\d*)([wdhm]?)\s*$`)
)

// Moment is a resolved chart instant
type Moment struct {
	Local       time.Time `json:"local"`
	UTC         time.Time `json:"utc"`
	Approximate bool      `json:"approximate"`
}

// Clock returns the current instant. Tests substitute a fixed clock.
type Clock func() time.Time

// Request describes what the caller asked for. An empty Date means "now".
type Request struct {
	Date  string
	Time  string
	Zone  string
	Shift string
}

// WallClock is a validated time of day
type WallClock struct {
	Hour, Minute, Second int
}

func (w WallClock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", w.Hour, w.Minute, w.Second)
}

// Noon is the time assumed for events given without a time
var Noon = WallClock{Hour: 12}

// Resolve dispatches to Now or Event. Shift only applies to now mode.
func Resolve(clock Clock, req Request) (Moment, error) {
	zone, err := LoadZone(req.Zone)
	if err != nil {
		return Moment{}, err
	}

	if strings.TrimSpace(req.Date) == "" {
		shift, err := ParseShift(req.Shift)
		if err != nil {
			return Moment{}, err
		}
		return Now(clock, zone, shift)
	}

	return Event(req.Date, req.Time, zone)
}

// Now returns the current instant plus shift, viewed in zone. It is never
// approximate.
func Now(clock Clock, zone *time.Location, shift Shift) (Moment, error) {
	if clock == nil {
		clock = time.Now
	}
	if zone == nil {
		zone = time.UTC
	}

	t := shift.Apply(clock())
	if err := ValidateYear(t.UTC().Year()); err != nil {
		return Moment{}, err
	}

	return Moment{
		Local: t.In(zone),
		UTC:   t.UTC(),
	}, nil
}

// Event builds the instant for a calendar date and optional time in zone.
// Without a time the moment defaults to local noon and is approximate.
func Event(date, clockTime string, zone *time.Location) (Moment, error) {
	if zone == nil {
		zone = time.UTC
	}

	year, month, day, err := ParseDate(date)
	if err != nil {
		return Moment{}, err
	}

	wall := Noon
	approximate := true
	if strings.TrimSpace(clockTime) != "" {
		wall, err = ParseTime(clockTime)
		if err != nil {
			return Moment{}, err
		}
		approximate = false
	}

	local := time.Date(year, month, day, wall.Hour, wall.Minute, wall.Second, 0, zone)

	return Moment{
		Local:       local,
		UTC:         local.UTC(),
		Approximate: approximate,
	}, nil
}

// ParseDate parses YYYY-MM-DD. Negative years are astronomical (0 = 1 BCE)
// and may have fewer or more than four digits, e.g. -500-03-01.
func ParseDate(s string) (int, time.Month, int, error) {
	m := dateRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, 0, fmt.Errorf("%w: date must be in YYYY-MM-DD format, got %q", ErrInvalidDateFormat, s)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	if err := ValidateYear(year); err != nil {
		return 0, 0, 0, err
	}

	// time.Date normalizes out-of-range values, so a round trip catches 2025-02-30
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return 0, 0, 0, fmt.Errorf("%w: %q is not a calendar date", ErrInvalidDateFormat, s)
	}

	return year, time.Month(month), day, nil
}

// ParseTime accepts H, H:MM or H:MM:SS. Missing minutes and seconds are zero.
func ParseTime(s string) (WallClock, error) {
	m := timeRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return WallClock{}, fmt.Errorf("%w: time must be in H, H:MM or H:MM:SS format, got %q", ErrInvalidTimeFormat, s)
	}

	var w WallClock
	w.Hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		w.Minute, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		w.Second, _ = strconv.Atoi(m[3])
	}

	if w.Hour > 23 || w.Minute > 59 || w.Second > 59 {
		return WallClock{}, fmt.Errorf("%w: time out of range: %s", ErrInvalidTimeFormat, w)
	}

	return w, nil
}

// Shift is a signed offset from the current time, kept as whole days plus a
// remainder so that it can span more than time.Duration's ±292 years.
type Shift struct {
	Days      int
	Remainder time.Duration
}

// Apply adds the shift to t using UTC calendar days
func (s Shift) Apply(t time.Time) time.Time {
	return t.UTC().AddDate(0, 0, s.Days).Add(s.Remainder)
}

// maxShiftDays is wider than the whole supported span, so anything larger
// can never land on a valid year
const maxShiftDays = (MaxYear - MinYear + 1) * 366

// ParseShift parses a signed amount with an optional unit: w(eeks), d(ays),
// h(ours, the default) or m(inutes). An empty string is no shift.
func ParseShift(s string) (Shift, error) {
	if strings.TrimSpace(s) == "" {
		return Shift{}, nil
	}

	m := shiftRE.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return Shift{}, fmt.Errorf("%w: expected e.g. 2h, -30m, 1.5d or 4w, got %q", ErrInvalidShiftFormat, s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Shift{}, fmt.Errorf("%w: expected e.g. 2h, -30m, 1.5d or 4w, got %q", ErrInvalidShiftFormat, s)
	}

	unit := 3600.0
	switch m[2] {
	case "w":
		unit = 7 * 86400
	case "d":
		unit = 86400
	case "m":
		unit = 60
	}

	secs := value * unit
	if math.IsInf(secs, 0) || math.Abs(secs) > maxShiftDays*86400 {
		return Shift{}, fmt.Errorf("%w: shift %q reaches past 13000 BCE to 3999 CE", ErrYearOutOfRange, s)
	}

	whole := math.Trunc(secs / 86400)
	rem := time.Duration(math.Round((secs - whole*86400) * float64(time.Second)))
	return Shift{Days: int(whole), Remainder: rem}, nil
}

// ValidateYear rejects years outside the supported ephemeris span
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: year must be between 13000 BCE and 3999 CE, got %d", ErrYearOutOfRange, year)
	}
	return nil
}

// LoadZone loads an IANA zone by name. An empty name is UTC.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not an IANA time zone name", ErrInvalidTimezone, name)
	}
	return loc, nil
}

// ParseEvent splits DATE [TIME] [TITLE...] arguments. The second argument is
// taken as a time only if it parses as one; otherwise it starts the title.
func ParseEvent(args []string) (date, clockTime, title string) {
	if len(args) == 0 {
		return "", "", ""
	}

	date = args[0]
	if len(args) == 1 {
		return date, "", ""
	}

	if w, err := ParseTime(args[1]); err == nil {
		return date, w.String(), strings.Join(args[2:], " ")
	}

	return date, "", strings.Join(args[1:], " ")
}
