// Package lunar derives the moon phase from the ecliptic longitudes of the
// Sun and Moon. The elongation gives the phase directly; illumination uses
// the geocentric approximation i ≈ 180° − elongation.
package lunar

import (
	"fmt"
	"math"
)

// SynodicMonth is the average length of the lunar cycle in days
const SynodicMonth = 29.530588853

// MoonPhase contains calculated moon phase information
type MoonPhase struct {
	Phase        float64 `json:"phase"`        // [0,1): 0=new, 0.5=full
	Elongation   float64 `json:"elongation"`   // Sun→Moon angle in degrees [0,360)
	Illumination float64 `json:"illumination"` // [0,1]: 0=new, 1=full
	AgeDays      float64 `json:"age_days"`     // days since new moon
	IsWaxing     bool    `json:"waxing"`
	PhaseName    string  `json:"name"`
}

// FromLongitudes computes the phase for the given Sun and Moon longitudes in
// degrees. Either zodiac works as long as both use the same one.
func FromLongitudes(sun, moon float64) MoonPhase {
	elongation := normalizeAngle(moon - sun)
	phase := elongation / 360.0
	illumination := (1 - math.Cos(degToRad(elongation))) / 2
	isWaxing := elongation < 180

	return MoonPhase{
		Phase:        phase,
		Elongation:   elongation,
		Illumination: illumination,
		AgeDays:      phase * SynodicMonth,
		IsWaxing:     isWaxing,
		PhaseName:    phaseName(illumination, isWaxing),
	}
}

// String renders e.g. "Waxing Gibbous, 78% illuminated, 10.2 days old"
func (p MoonPhase) String() string {
	return fmt.Sprintf("%s, %.0f%% illuminated, %.1f days old", p.PhaseName, p.Illumination*100, p.AgeDays)
}

// phaseName returns the 8-phase name based on illumination percentage and direction
func phaseName(illumination float64, isWaxing bool) string {
	switch {
	case illumination < 0.01:
		return "New Moon"
	case illumination > 0.99:
		return "Full Moon"
	case illumination >= 0.49 && illumination <= 0.51:
		if isWaxing {
			return "First Quarter"
		}
		return "Third Quarter"
	case illumination < 0.50:
		if isWaxing {
			return "Waxing Crescent"
		}
		return "Waning Crescent"
	default:
		if isWaxing {
			return "Waxing Gibbous"
		}
		return "Waning Gibbous"
	}
}

// normalizeAngle wraps an angle to the range [0, 360), like ephemeris.Normalize
func normalizeAngle(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	return angle
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
