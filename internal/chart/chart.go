// Package chart ties location and time resolution to the ephemeris and the
// horoscope assembler. It is shared by the CLI and the HTTP server.
package chart

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissnell/ephem/internal/ephemeris"
	"github.com/chrissnell/ephem/internal/horoscope"
	"github.com/chrissnell/ephem/internal/locale"
	"github.com/chrissnell/ephem/internal/moment"
	"github.com/chrissnell/ephem/internal/types"
	"github.com/chrissnell/ephem/pkg/lunar"
)

// Default chart names
const (
	MomentTitle   = "Chart of the Moment"
	UntitledChart = "Untitled Chart"
)

// Chart is a fully computed chart and the context it was computed in
type Chart struct {
	Title     string                `json:"title,omitempty"`
	Moment    moment.Moment         `json:"moment"`
	Locale    locale.Locale         `json:"locale"`
	Zodiac    ephemeris.Zodiac      `json:"zodiac"`
	Node      horoscope.NodeVariant `json:"node"`
	JulianDay float64               `json:"julian_day"`
	Horoscope horoscope.Horoscope   `json:"horoscope"`
	Phase     lunar.MoonPhase       `json:"moon_phase"`
}

// Approximate reports whether either the time or the place was defaulted
func (c Chart) Approximate() bool {
	return c.Moment.Approximate || c.Locale.Approximate
}

// Request describes a chart to cast
type Request struct {
	Title  string
	Moment moment.Request
	Locale locale.Request
	Offset *int
	Node   horoscope.NodeVariant
}

// Service computes charts
type Service struct {
	eph     ephemeris.Ephemeris
	locales *locale.Resolver
	clock   moment.Clock
}

// NewService creates a chart service. A nil clock uses time.Now.
func NewService(eph ephemeris.Ephemeris, locales *locale.Resolver, clock moment.Clock) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		eph:     eph,
		locales: locales,
		clock:   clock,
	}
}

// Cast resolves the request's time and place and computes the chart.
// Validation errors from the resolvers are returned unchanged so callers can
// match them with errors.Is.
func (s *Service) Cast(ctx context.Context, req Request) (Chart, error) {
	z, err := ephemeris.NewZodiac(req.Offset)
	if err != nil {
		return Chart{}, err
	}

	m, err := moment.Resolve(s.clock, req.Moment)
	if err != nil {
		return Chart{}, err
	}

	loc, err := s.locales.Resolve(ctx, req.Locale)
	if err != nil {
		return Chart{}, err
	}

	return s.Compute(req.Title, m, loc, z, req.Node)
}

// FromSaved recomputes a stored chart. Missing coordinates fall back through
// the resolver like any other chart without an explicit location.
func (s *Service) FromSaved(ctx context.Context, saved types.SavedChart, offset *int, node horoscope.NodeVariant) (Chart, error) {
	z, err := ephemeris.NewZodiac(offset)
	if err != nil {
		return Chart{}, err
	}

	m, err := SavedMoment(saved)
	if err != nil {
		return Chart{}, err
	}

	loc, err := s.locales.Resolve(ctx, locale.Request{Lat: saved.Latitude, Lng: saved.Longitude})
	if err != nil {
		return Chart{}, err
	}

	return s.Compute(saved.Name, m, loc, z, node)
}

// Compute runs the ephemeris for a resolved moment and locale. Angles are
// only computed when neither is approximate.
func (s *Service) Compute(title string, m moment.Moment, loc locale.Locale, z ephemeris.Zodiac, node horoscope.NodeVariant) (Chart, error) {
	if err := moment.ValidateYear(m.UTC.Year()); err != nil {
		return Chart{}, err
	}

	jd := ephemeris.JulianDay(m.UTC)

	bodies, err := s.sample(jd, z)
	if err != nil {
		return Chart{}, err
	}

	in := horoscope.Input{Bodies: bodies, Node: node}
	if !m.Approximate && !loc.Approximate {
		asc, mc, err := s.eph.Angles(jd, loc.Coordinate, z)
		if err != nil {
			return Chart{}, fmt.Errorf("error computing angles: %w", err)
		}
		in.Angles = &horoscope.Angles{Asc: asc, MC: mc}
	}

	h, err := horoscope.Assemble(in)
	if err != nil {
		return Chart{}, err
	}

	return Chart{
		Title:     title,
		Moment:    m,
		Locale:    loc,
		Zodiac:    z,
		Node:      node,
		JulianDay: jd,
		Horoscope: h,
		Phase:     lunar.FromLongitudes(bodies[horoscope.Sun].Now, bodies[horoscope.Moon].Now),
	}, nil
}

// sample computes every body at jd and one Julian minute earlier
func (s *Service) sample(jd float64, z ephemeris.Zodiac) (map[string]horoscope.Sample, error) {
	bodies := make(map[string]horoscope.Sample, len(ephemeris.Bodies))
	for _, b := range ephemeris.Bodies {
		now, err := s.eph.Longitude(b, jd, z)
		if err != nil {
			return nil, fmt.Errorf("error computing %v: %w", b, err)
		}
		then, err := s.eph.Longitude(b, jd-ephemeris.JulianMinute, z)
		if err != nil {
			return nil, fmt.Errorf("error computing %v: %w", b, err)
		}
		bodies[b.Key()] = horoscope.Sample{Now: now, Then: then}
	}
	return bodies, nil
}

// Ascendant computes the current ascendant for the resolved location. The
// returned locale tells the caller whether Null Island was assumed.
func (s *Service) Ascendant(ctx context.Context, req locale.Request, offset *int) (horoscope.Position, locale.Locale, error) {
	z, err := ephemeris.NewZodiac(offset)
	if err != nil {
		return horoscope.Position{}, locale.Locale{}, err
	}

	loc, err := s.locales.Resolve(ctx, req)
	if err != nil {
		return horoscope.Position{}, locale.Locale{}, err
	}

	asc, _, err := s.eph.Angles(ephemeris.JulianDay(s.clock()), loc.Coordinate, z)
	if err != nil {
		return horoscope.Position{}, locale.Locale{}, fmt.Errorf("error computing angles: %w", err)
	}

	p, err := horoscope.NewPosition(horoscope.Ascendant, asc, false)
	return p, loc, err
}

// Saved converts a computed chart into its persisted form. Coordinates are
// stored only when the location was known.
func Saved(c Chart) types.SavedChart {
	name := c.Title
	if name == "" {
		name = UntitledChart
	}

	saved := types.SavedChart{
		Name:           name,
		TimestampUTC:   c.Moment.UTC.Format(time.RFC3339),
		TimestampLocal: c.Moment.Local.Format(time.RFC3339),
	}
	if !c.Locale.Approximate {
		lat, lng := c.Locale.Latitude, c.Locale.Longitude
		saved.Latitude = &lat
		saved.Longitude = &lng
	}
	return saved
}

// SavedMoment rebuilds the instant of a stored chart, keeping the local
// offset it was cast with
func SavedMoment(saved types.SavedChart) (moment.Moment, error) {
	utc, err := time.Parse(time.RFC3339, saved.TimestampUTC)
	if err != nil {
		return moment.Moment{}, fmt.Errorf("%w: stored timestamp %q: %v", moment.ErrInvalidDateFormat, saved.TimestampUTC, err)
	}

	local := utc.UTC()
	if saved.TimestampLocal != "" {
		if l, err := time.Parse(time.RFC3339, saved.TimestampLocal); err == nil {
			local = utc.In(l.Location())
		}
	}

	return moment.Moment{Local: local, UTC: utc.UTC()}, nil
}
