package ephemeris

import (
	"fmt"
	"math"

	"github.com/chrissnell/ephem/internal/types"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/kepler"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/planetelements"
	"github.com/soniakeys/meeus/v3/pluto"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// Meeus computes positions with the algorithms from Jean Meeus'
// Astronomical Algorithms. Planets use mean orbital elements solved with
// Kepler's equation, so outer planet accuracy is on the order of a degree.
type Meeus struct{}

// NewMeeus returns the default ephemeris
func NewMeeus() *Meeus {
	return &Meeus{}
}

var planetIndex = map[Body]int{
	Mercury: planetelements.Mercury,
	Venus:   planetelements.Venus,
	Mars:    planetelements.Mars,
	Jupiter: planetelements.Jupiter,
	Saturn:  planetelements.Saturn,
	Uranus:  planetelements.Uranus,
	Neptune: planetelements.Neptune,
}

// Longitude returns the apparent geocentric ecliptic longitude of body
func (m *Meeus) Longitude(body Body, jd float64, z Zodiac) (float64, error) {
	T := base.J2000Century(jd)
	Δψ, _ := nutation.Nutation(jd)

	var lng unit.Angle
	switch body {
	case Sun:
		lng = solar.ApparentLongitude(T)
	case Moon:
		λ, _, _ := moonposition.Position(jd)
		lng = λ + Δψ
	case MeanNode:
		lng = moonposition.Node(jd)
	case TrueNode:
		lng = trueNode(jd, T)
	case Pluto:
		l, b, r := pluto.Heliocentric(jd)
		// Pluto's theory is referred to the J2000 equinox
		l += unit.AngleFromDeg(precessionRate * (jd - J2000) / 365.25)
		lng = geocentric(l, b, r, T) + Δψ
	default:
		p, ok := planetIndex[body]
		if !ok {
			return 0, fmt.Errorf("%w: %v", ErrUnknownBody, body)
		}
		l, b, r := heliocentric(p, jd)
		lng = geocentric(l, b, r, T) + Δψ
	}

	return z.Apply(lng.Mod1().Deg(), jd), nil
}

// Angles returns the ascendant and midheaven for an observer at c
func (m *Meeus) Angles(jd float64, c types.Coordinate, z Zodiac) (asc, mc float64, err error) {
	_, Δε := nutation.Nutation(jd)
	ε := nutation.MeanObliquity(jd) + Δε

	// local apparent sidereal time, east longitude positive
	θ := sidereal.Apparent(jd).Angle() + unit.AngleFromDeg(c.Longitude)
	φ := unit.AngleFromDeg(c.Latitude)

	sθ, cθ := θ.Sincos()
	sε, cε := ε.Sincos()

	mcRad := math.Atan2(sθ, cθ*cε)
	ascRad := math.Atan2(cθ, -(sθ*cε + φ.Tan()*sε))

	mc = z.Apply(unit.Angle(mcRad).Mod1().Deg(), jd)
	asc = z.Apply(unit.Angle(ascRad).Mod1().Deg(), jd)
	return asc, mc, nil
}

// heliocentric solves the mean orbit of planet p for ecliptic longitude,
// latitude and radius vector (AU), referred to the equinox of date.
func heliocentric(p int, jd float64) (l, b unit.Angle, r float64) {
	var e planetelements.Elements
	planetelements.Mean(p, jd, &e)

	M := (e.Lon - e.Peri).Mod1()
	E := kepler.Kepler3(e.Ecc, M)

	ν := 2 * math.Atan(math.Sqrt((1+e.Ecc)/(1-e.Ecc))*math.Tan(E.Rad()/2))
	r = e.Axis * (1 - e.Ecc*E.Cos())

	u := e.Peri - e.Node + unit.Angle(ν)
	su, cu := u.Sincos()
	sΩ, cΩ := e.Node.Sincos()
	si, ci := e.Inc.Sincos()

	x := r * (cΩ*cu - sΩ*su*ci)
	y := r * (sΩ*cu + cΩ*su*ci)
	z := r * su * si

	l = unit.Angle(math.Atan2(y, x))
	b = unit.Angle(math.Atan2(z, math.Hypot(x, y)))
	return l, b, r
}

// geocentric converts a heliocentric position to geocentric longitude using
// the Earth's position from the solar theory
func geocentric(l, b unit.Angle, r, T float64) unit.Angle {
	s, _ := solar.True(T)
	R := solar.Radius(T)
	L0 := s + math.Pi

	sl, cl := l.Sincos()
	cb := b.Cos()
	sL0, cL0 := L0.Sincos()

	x := r*cb*cl - R*cL0
	y := r*cb*sl - R*sL0
	return unit.Angle(math.Atan2(y, x))
}

// trueNode applies the principal periodic terms to the mean node
func trueNode(jd, T float64) unit.Angle {
	D := unit.AngleFromDeg(297.8501921 + 445267.1114034*T - 0.0018819*T*T + T*T*T/545868 - T*T*T*T/113065000)
	M := unit.AngleFromDeg(357.5291092 + 35999.0502909*T - 0.0001536*T*T + T*T*T/24490000)
	Mp := unit.AngleFromDeg(134.9633964 + 477198.8675055*T + 0.0087414*T*T + T*T*T/69699 - T*T*T*T/14712000)
	F := unit.AngleFromDeg(93.2720950 + 483202.0175233*T - 0.0036539*T*T - T*T*T/3526000 + T*T*T*T/863310000)

	corr := -1.4979*math.Sin(2*(D-F).Rad()) -
		0.1500*M.Sin() +
		0.1226*math.Sin(2*D.Rad()) +
		0.1176*math.Sin(2*F.Rad()) -
		0.0801*math.Sin(2*(Mp-F).Rad())

	return moonposition.Node(jd) + unit.AngleFromDeg(corr)
}
