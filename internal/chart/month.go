package chart

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/chrissnell/ephem/internal/ephemeris"
	"github.com/chrissnell/ephem/internal/horoscope"
	"github.com/chrissnell/ephem/internal/moment"
	"golang.org/x/sync/errgroup"
)

// Day is one row of the monthly ephemeris: positions at 0h UT, plus the
// Moon again at noon
type Day struct {
	Date      time.Time           `json:"date"`
	Sidereal  string              `json:"sidereal_time"`
	Positions horoscope.Horoscope `json:"positions"`
	MoonNoon  horoscope.Position  `json:"moon_noon"`
}

// Month is the ephemeris for one calendar month
type Month struct {
	Year   int              `json:"year"`
	Month  time.Month       `json:"month"`
	Zodiac ephemeris.Zodiac `json:"zodiac"`
	Days   []Day            `json:"days"`
}

// Month computes a row for every day of the month. Rows are independent and
// computed concurrently.
func (s *Service) Month(ctx context.Context, year int, month time.Month, offset *int) (Month, error) {
	if err := moment.ValidateYear(year); err != nil {
		return Month{}, err
	}
	if month < time.January || month > time.December {
		return Month{}, fmt.Errorf("%w: month must be between 1 and 12, got %d", moment.ErrInvalidDateFormat, month)
	}

	z, err := ephemeris.NewZodiac(offset)
	if err != nil {
		return Month{}, err
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	n := first.AddDate(0, 1, 0).Sub(first).Hours() / 24
	days := make([]Day, int(n))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i := range days {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := s.day(first.AddDate(0, 0, i), z)
			if err != nil {
				return err
			}
			days[i] = d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Month{}, err
	}

	return Month{Year: year, Month: month, Zodiac: z, Days: days}, nil
}

func (s *Service) day(date time.Time, z ephemeris.Zodiac) (Day, error) {
	jd := ephemeris.JulianDay(date)

	bodies, err := s.sample(jd, z)
	if err != nil {
		return Day{}, err
	}

	h, err := horoscope.Assemble(horoscope.Input{Bodies: bodies, Node: horoscope.NodeTrue})
	if err != nil {
		return Day{}, err
	}

	noon, err := s.eph.Longitude(ephemeris.Moon, jd+0.5, z)
	if err != nil {
		return Day{}, fmt.Errorf("error computing noon moon: %w", err)
	}
	moonNoon, err := horoscope.NewPosition(horoscope.Moon, noon, false)
	if err != nil {
		return Day{}, err
	}

	return Day{
		Date:      date,
		Sidereal:  ephemeris.SiderealTime(jd),
		Positions: h,
		MoonNoon:  moonNoon,
	}, nil
}
