// Package display renders charts as terminal text.
package display

import (
	"fmt"
	"strings"

	"github.com/chrissnell/ephem/internal/chart"
	"github.com/chrissnell/ephem/internal/horoscope"
	"github.com/chrissnell/ephem/pkg/config"
)

// Warning messages shown above a chart
const (
	WarnApproximateTime   = "No time provided. Using UTC noon and not printing angles."
	WarnApproximateLocale = "No valid location provided or found in config. No angles will be printed."
	WarnConfigLocale      = "Using location from config file."
	WarnGeoIPLocale       = "Using approximate location from IP geolocation."
)

// Options controls how a chart is rendered
type Options struct {
	ASCII     bool
	Theme     string
	Color     bool
	Classical bool
	NoAngles  bool
	NoGeo     bool
	Verbose   bool

	// ConfigNotice warns when the location came from saved preferences
	ConfigNotice bool
}

// OptionsFromPreferences seeds display options from the saved display section
func OptionsFromPreferences(d config.DisplayData) Options {
	return Options{
		ASCII:     d.ASCII,
		Theme:     d.Theme,
		Color:     !d.NoColor,
		Classical: d.Classical,
		NoAngles:  d.NoAngles,
		NoGeo:     d.NoGeo,
		Verbose:   d.Verbose,
	}
}

// Sphere is one object line to render and its color
type Sphere struct {
	Key   string
	Color string
}

var sectColors = map[string]string{
	horoscope.Sun:     "bright_red",
	horoscope.Moon:    "bright_blue",
	horoscope.Venus:   "blue",
	horoscope.Mars:    "blue",
	horoscope.Jupiter: "red",
	horoscope.Saturn:  "red",
}

var elementColors = map[horoscope.Element]string{
	horoscope.Fire:  "red",
	horoscope.Earth: "green",
	horoscope.Air:   "bright_black",
	horoscope.Water: "blue",
}

var modeColors = map[horoscope.Modality]string{
	horoscope.Cardinal: "magenta",
	horoscope.Fixed:    "yellow",
	horoscope.Mutable:  "cyan",
}

// Format renders a chart as lines: warnings, title, subtitle, optional
// verbose details, then one line per object in canonical order
func Format(c chart.Chart, o Options) []string {
	var lines []string

	for _, w := range Warnings(c, o) {
		lines = append(lines, Colorize(w, "yellow", o.Color))
	}

	lines = append(lines, Colorize(Title(c), "bold", o.Color))
	lines = append(lines, Colorize(Subtitle(c, o), "bold", o.Color))

	if o.Verbose {
		lines = append(lines, Verbose(c)...)
	}

	lines = append(lines, "")
	lines = append(lines, Spheres(c, o)...)
	return lines
}

// Warnings lists the notices that apply to a chart
func Warnings(c chart.Chart, o Options) []string {
	var w []string
	if c.Moment.Approximate {
		w = append(w, WarnApproximateTime)
	}
	if c.Locale.Approximate {
		w = append(w, WarnApproximateLocale)
	}
	if c.Locale.FromConfig && o.ConfigNotice {
		w = append(w, WarnConfigLocale)
	}
	if c.Locale.FromGeoIP {
		w = append(w, WarnGeoIPLocale)
	}
	return w
}

// Title renders "<title> hyp. (<zodiac>)", with "hyp." marking a chart cast
// for a defaulted time or place
func Title(c chart.Chart) string {
	title := c.Title
	if c.Approximate() {
		title += " hyp."
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "(" + c.Zodiac.Name() + ")"
	}
	return fmt.Sprintf("%s (%s)", title, c.Zodiac.Name())
}

// Subtitle renders "<local> | <utc> @ <lat> <lng>". The UTC time is omitted
// when it matches the local time, and the location when it is hidden or
// unknown.
func Subtitle(c chart.Chart, o Options) string {
	local := c.Moment.Local.Format("2006-01-02 15:04:05 MST")
	utc := c.Moment.UTC.Format("2006-01-02 15:04:05") + " UTC"

	s := local
	if local != utc {
		s = local + " | " + utc
	}

	if !o.NoGeo && !c.Locale.Approximate {
		s += fmt.Sprintf(" @ %v %v", c.Locale.Latitude, c.Locale.Longitude)
	}
	return s
}

// Verbose renders the moon phase and the Julian day
func Verbose(c chart.Chart) []string {
	return []string{
		"Moon phase: " + c.Phase.String(),
		fmt.Sprintf("Julian day: %.6f", c.JulianDay),
	}
}

// Select picks the objects to render and their colors, applying the theme
// and the classical and angle filters
func Select(c chart.Chart, o Options) []Sphere {
	hideAngles := o.NoAngles || c.Approximate()

	var spheres []Sphere
	for _, key := range c.Horoscope.Keys() {
		if o.Classical && horoscope.Outer[key] {
			continue
		}
		if hideAngles && (horoscope.IsAngle(key) || key == horoscope.Fortune) {
			continue
		}
		spheres = append(spheres, Sphere{Key: key, Color: color(c.Horoscope, key, o.Theme)})
	}
	return spheres
}

func color(h horoscope.Horoscope, key, theme string) string {
	p := h[key]
	switch theme {
	case config.ThemeElement:
		return elementColors[p.Sign.Element]
	case config.ThemeMode:
		return modeColors[p.Sign.Modality]
	}

	if key == horoscope.Mercury {
		return mercurySect(h)
	}
	return sectColors[key]
}

// mercurySect colors Mercury as diurnal when it rises before the Sun and
// nocturnal when it sets after
func mercurySect(h horoscope.Horoscope) string {
	hg, ok1 := h[horoscope.Mercury]
	ae, ok2 := h[horoscope.Sun]
	if !ok1 || !ok2 {
		return ""
	}
	if horoscope.Delta(hg.Longitude, ae.Longitude) < 0 {
		return "red"
	}
	return "blue"
}

// Spheres renders one line per selected object
func Spheres(c chart.Chart, o Options) []string {
	var lines []string
	for _, s := range Select(c, o) {
		lines = append(lines, Colorize(Line(c.Horoscope[s.Key], o.ASCII), s.Color, o.Color))
	}
	return lines
}

// Line renders a single placement: the object name and abbreviated sign in
// ASCII mode, or the glyph and full sign name otherwise
func Line(p horoscope.Position, ascii bool) string {
	if ascii {
		return pad(p.Object.Name, 12) + " " + p.Short
	}
	return pad(p.Object.Glyph, 3) + " " + p.Full
}

// AscendantLine renders "AC dd Sign mm" using the sign abbreviation, or its
// glyph when glyphs is set
func AscendantLine(p horoscope.Position, glyphs bool) string {
	sign := p.Sign.Abbrev
	if glyphs {
		sign = p.Sign.Glyph
	}
	return fmt.Sprintf("AC %2d %s %d", p.Degree, sign, p.Minutes)
}

// NullIslandNotice is printed by the ascendant command without a location
const NullIslandNotice = "No location given or found in config; using Null Island (0,0)."
