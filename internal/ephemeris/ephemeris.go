// Package ephemeris adapts the meeus astronomy routines to the handful of
// calls a chart needs: ecliptic longitude of a body at a Julian day, and the
// ascendant and midheaven for an observer.
package ephemeris

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/chrissnell/ephem/internal/types"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
)

var (
	ErrInvalidOffset = errors.New("invalid sidereal offset")
	ErrUnknownBody   = errors.New("unknown body")
)

// JulianMinute is one minute expressed in days
const JulianMinute = 1.0 / 1440

// J2000 is the Julian day of 2000-01-01 12:00 TT
const J2000 = 2451545.0

// Body identifies something the ephemeris can place on the ecliptic
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
	MeanNode
	TrueNode
)

// Bodies lists every body in calculation order
var Bodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto, MeanNode, TrueNode}

var bodyKeys = map[Body]string{
	Sun:      "ae",
	Moon:     "ag",
	Mercury:  "hg",
	Venus:    "cu",
	Mars:     "fe",
	Jupiter:  "sn",
	Saturn:   "pb",
	Uranus:   "ura",
	Neptune:  "nep",
	Pluto:    "plu",
	MeanNode: "mean_node",
	TrueNode: "true_node",
}

// Key returns the short object code used throughout chart output
func (b Body) Key() string {
	if k, ok := bodyKeys[b]; ok {
		return k
	}
	return fmt.Sprintf("body(%d)", int(b))
}

func (b Body) String() string { return b.Key() }

// Ephemeris computes raw ecliptic longitudes in degrees [0, 360)
type Ephemeris interface {
	Longitude(body Body, jd float64, z Zodiac) (float64, error)
	Angles(jd float64, c types.Coordinate, z Zodiac) (asc, mc float64, err error)
}

// Ayanamsa is a named sidereal zodiac offset, given as its value at J2000
type Ayanamsa struct {
	Name  string
	J2000 float64
}

// Ayanamsas are the supported sidereal presets, selected by index
var Ayanamsas = []Ayanamsa{
	{"Fagan/Bradley", 24.7403},
	{"Lahiri", 23.857092},
	{"De Luce", 27.815753},
	{"Raman", 22.410791},
	{"Usha/Shashi", 20.057541},
	{"Krishnamurti", 23.760240},
	{"Djwhal Khul", 28.359679},
	{"Yukteshwar", 22.478803},
	{"J.N. Bhasin", 22.762137},
}

// precessionRate is the general precession in longitude, degrees per Julian year
const precessionRate = 50.290966 / 3600

// Zodiac selects the tropical frame (zero value) or a sidereal preset
type Zodiac struct {
	Sidereal bool
	Offset   int
}

// Tropical is the default zodiac
var Tropical = Zodiac{}

// NewZodiac builds a zodiac from an optional preset index
func NewZodiac(offset *int) (Zodiac, error) {
	if offset == nil {
		return Tropical, nil
	}
	if *offset < 0 || *offset >= len(Ayanamsas) {
		return Zodiac{}, fmt.Errorf("%w: offset must be between 0 and %d, got %d", ErrInvalidOffset, len(Ayanamsas)-1, *offset)
	}
	return Zodiac{Sidereal: true, Offset: *offset}, nil
}

// Name returns "Tropical" or "Sidereal — <preset>"
func (z Zodiac) Name() string {
	if !z.Sidereal {
		return "Tropical"
	}
	if z.Offset < 0 || z.Offset >= len(Ayanamsas) {
		return fmt.Sprintf("Sidereal — Offset %d", z.Offset)
	}
	return "Sidereal — " + Ayanamsas[z.Offset].Name
}

// Ayanamsa returns the offset in degrees to subtract from a tropical
// longitude at jd. It is zero for the tropical zodiac.
func (z Zodiac) Ayanamsa(jd float64) float64 {
	if !z.Sidereal || z.Offset < 0 || z.Offset >= len(Ayanamsas) {
		return 0
	}
	years := (jd - J2000) / 365.25
	return Ayanamsas[z.Offset].J2000 + years*precessionRate
}

// Apply converts a tropical longitude into this zodiac
func (z Zodiac) Apply(lng, jd float64) float64 {
	return Normalize(lng - z.Ayanamsa(jd))
}

// JulianDay converts an instant to a Julian day number
func JulianDay(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// Normalize wraps degrees to [0, 360)
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// SplitDegrees splits a longitude into a zodiac sign index and the truncated
// degree, minute and second within that sign.
func SplitDegrees(lng float64) (sign, deg, mnt, sec int) {
	// whole arcseconds; the epsilon keeps 143.2 from splitting as 23°11'59"
	total := int(math.Floor(Normalize(lng)*3600 + 1e-6))
	if total >= 360*3600 {
		total = 0
	}

	sign = total / (30 * 3600)
	rem := total % (30 * 3600)
	return sign, rem / 3600, rem % 3600 / 60, rem % 60
}

// SiderealTime returns apparent Greenwich sidereal time at jd as HH:MM:SS
func SiderealTime(jd float64) string {
	total := int(math.Round(sidereal.Apparent(jd).Mod1().Sec()))
	h := (total / 3600) % 24
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
