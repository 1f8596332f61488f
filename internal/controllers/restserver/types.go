package restserver

import (
	"github.com/chrissnell/ephem/internal/chart"
	"github.com/chrissnell/ephem/internal/horoscope"
	"github.com/chrissnell/ephem/internal/locale"
	"github.com/chrissnell/ephem/internal/moment"
	"github.com/chrissnell/ephem/pkg/lunar"
)

// ChartResponse is the wire form of a computed chart. Positions follow the
// canonical display order.
type ChartResponse struct {
	ID          int64                 `json:"id,omitempty"`
	Title       string                `json:"title"`
	Zodiac      string                `json:"zodiac"`
	Node        horoscope.NodeVariant `json:"node"`
	Approximate bool                  `json:"approximate"`
	Moment      moment.Moment         `json:"moment"`
	Locale      locale.Locale         `json:"locale"`
	JulianDay   float64               `json:"julian_day"`
	Positions   []horoscope.Position  `json:"positions"`
	MoonPhase   lunar.MoonPhase       `json:"moon_phase"`
}

func newChartResponse(c chart.Chart) ChartResponse {
	r := ChartResponse{
		Title:       c.Title,
		Zodiac:      c.Zodiac.Name(),
		Node:        c.Node,
		Approximate: c.Approximate(),
		Moment:      c.Moment,
		Locale:      c.Locale,
		JulianDay:   c.JulianDay,
		MoonPhase:   c.Phase,
	}
	for _, key := range c.Horoscope.Keys() {
		r.Positions = append(r.Positions, c.Horoscope[key])
	}
	return r
}
