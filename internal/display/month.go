package display

import (
	"fmt"
	"strings"

	"github.com/chrissnell/ephem/internal/chart"
	"github.com/chrissnell/ephem/internal/horoscope"
)

// monthColumns are the object columns after Day and Sid. 0hr
var monthColumns = []string{
	horoscope.Sun, "moon_0hr", "moon_noon", horoscope.TrueNode,
	horoscope.Mercury, horoscope.Venus, horoscope.Mars, horoscope.Jupiter,
	horoscope.Saturn, horoscope.Uranus, horoscope.Neptune, horoscope.Pluto,
}

var weekdays = [...]string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// Month renders the monthly ephemeris as a title line and an aligned table
func Month(m chart.Month, o Options) []string {
	header := []string{"Day", "Sid. 0hr"}
	for _, col := range monthColumns {
		header = append(header, monthHeader(col, o.ASCII))
	}

	rows := [][]string{header}
	for _, d := range m.Days {
		row := []string{
			fmt.Sprintf("%2d %s", d.Date.Day(), weekdays[d.Date.Weekday()]),
			d.Sidereal,
		}
		for _, col := range monthColumns {
			switch col {
			case "moon_0hr":
				row = append(row, Cell(d.Positions[horoscope.Moon], o.ASCII, false))
			case "moon_noon":
				row = append(row, Cell(d.MoonNoon, o.ASCII, false))
			default:
				p, ok := d.Positions[col]
				if !ok {
					row = append(row, "--")
					continue
				}
				row = append(row, Cell(p, o.ASCII, true))
			}
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row {
			if w := width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	title := fmt.Sprintf("%s %d — %s", m.Month, m.Year, m.Zodiac.Name())
	lines := []string{Colorize(title, "bold", o.Color)}

	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			if j == 0 {
				cells[j] = padLeft(cell, widths[j])
			} else {
				cells[j] = pad(cell, widths[j])
			}
		}
		line := strings.TrimRight(strings.Join(cells, "  "), " ")
		if i == 0 {
			line = Colorize(line, "bold", o.Color)
		}
		lines = append(lines, line)
	}

	return lines
}

func monthHeader(col string, ascii bool) string {
	moon := horoscope.Objects[horoscope.Moon]
	switch col {
	case "moon_0hr":
		if ascii {
			return "0hr " + moon.Name
		}
		return "0hr " + moon.Glyph
	case "moon_noon":
		if ascii {
			return "Noon " + moon.Name
		}
		return "Noon " + moon.Glyph
	}

	obj := horoscope.Objects[col]
	if ascii {
		return obj.Name
	}
	return obj.Glyph
}

// Cell renders a compact placement "dd Sgn mm ss", with the sign
// abbreviation in ASCII mode or its glyph otherwise
func Cell(p horoscope.Position, ascii, showRetrograde bool) string {
	sign := p.Sign.Glyph
	if ascii {
		sign = p.Sign.Abbrev
	}
	s := fmt.Sprintf("%2d %s %02d %02d", p.Degree, pad(sign, 3), p.Minutes, p.Seconds)
	if showRetrograde && p.Retrograde {
		s += " r"
	}
	return s
}
