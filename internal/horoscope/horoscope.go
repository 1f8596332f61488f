// Package horoscope joins raw ecliptic longitudes with sign and object
// metadata into display-ready chart positions.
package horoscope

import (
	"fmt"

	"github.com/chrissnell/ephem/internal/ephemeris"
)

// NodeVariant selects which lunar node calculation appears in a chart
type NodeVariant string

const (
	NodeTrue NodeVariant = "true"
	NodeMean NodeVariant = "mean"
)

// Key returns the object key for the variant. Anything but "mean" is the
// true node.
func (n NodeVariant) Key() string {
	if n == NodeMean {
		return MeanNode
	}
	return TrueNode
}

// Position is one object's placement on the zodiac
type Position struct {
	Object     Object  `json:"object"`
	Sign       Sign    `json:"sign"`
	SignIndex  int     `json:"sign_index"`
	Degree     int     `json:"degree"`
	Minutes    int     `json:"minutes"`
	Seconds    int     `json:"seconds"`
	Retrograde bool    `json:"retrograde"`
	Longitude  float64 `json:"longitude"`
	Full       string  `json:"full"`
	Short      string  `json:"short"`
	Glyph      string  `json:"glyph"`
}

// Sample is a body's longitude at the chart instant and one Julian minute
// before it
type Sample struct {
	Now  float64
	Then float64
}

// Angles are the ascendant and midheaven longitudes
type Angles struct {
	Asc float64
	MC  float64
}

// Input is everything Assemble needs. Angles is nil when the time or place
// of the chart is approximate.
type Input struct {
	Bodies map[string]Sample
	Angles *Angles
	Node   NodeVariant
}

// Horoscope maps object keys to positions
type Horoscope map[string]Position

// Keys returns the keys present in canonical order
func (h Horoscope) Keys() []string {
	keys := make([]string, 0, len(h))
	for _, k := range CanonicalOrder {
		if _, ok := h[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// HasAngles reports whether the ascendant and midheaven were computed
func (h Horoscope) HasAngles() bool {
	_, asc := h[Ascendant]
	_, mc := h[Midheaven]
	return asc && mc
}

// Assemble builds a horoscope from raw longitudes. Only the selected node
// variant is kept, and the lot of fortune is added whenever angles are.
func Assemble(in Input) (Horoscope, error) {
	h := make(Horoscope, len(in.Bodies)+3)

	dropNode := TrueNode
	if in.Node.Key() == TrueNode {
		dropNode = MeanNode
	}

	for key, s := range in.Bodies {
		if key == dropNode {
			continue
		}
		p, err := NewPosition(key, s.Now, IsRetrograde(s.Now, s.Then))
		if err != nil {
			return nil, err
		}
		h[key] = p
	}

	if in.Angles == nil {
		return h, nil
	}

	for key, lng := range map[string]float64{Ascendant: in.Angles.Asc, Midheaven: in.Angles.MC} {
		p, err := NewPosition(key, lng, false)
		if err != nil {
			return nil, err
		}
		h[key] = p
	}

	sun, okSun := in.Bodies[Sun]
	moon, okMoon := in.Bodies[Moon]
	if okSun && okMoon {
		p, err := NewPosition(Fortune, PartOfFortune(in.Angles.Asc, sun.Now, moon.Now), false)
		if err != nil {
			return nil, err
		}
		h[Fortune] = p
	}

	return h, nil
}

// NewPosition places the object key at longitude lng
func NewPosition(key string, lng float64, retrograde bool) (Position, error) {
	obj, ok := Objects[key]
	if !ok {
		return Position{}, fmt.Errorf("%w: %q", ErrUnknownObject, key)
	}

	lng = ephemeris.Normalize(lng)
	idx, deg, mnt, sec := ephemeris.SplitDegrees(lng)
	sign, err := SignFromIndex(idx)
	if err != nil {
		return Position{}, err
	}

	rx := ""
	if retrograde {
		rx = " r"
	}

	return Position{
		Object:     obj,
		Sign:       sign,
		SignIndex:  idx,
		Degree:     deg,
		Minutes:    mnt,
		Seconds:    sec,
		Retrograde: retrograde,
		Longitude:  lng,
		Full:       fmt.Sprintf("%2d %s %02d %02d%s", deg, sign.Name, mnt, sec, rx),
		Short:      fmt.Sprintf("%2d %s %02d %02d%s", deg, sign.Abbrev, mnt, sec, rx),
		Glyph:      fmt.Sprintf("%2d %s %02d %02d%s", deg, sign.Glyph, mnt, sec, rx),
	}, nil
}

// Delta returns the signed shortest arc from then to now in (-180, 180]
func Delta(now, then float64) float64 {
	d := ephemeris.Normalize(now - then)
	if d > 180 {
		d -= 360
	}
	return d
}

// IsRetrograde reports apparent backward motion between then and now.
// Motion across 0° Aries is measured along the shortest arc, so 359.9° to
// 0.1° is direct.
func IsRetrograde(now, then float64) bool {
	return Delta(now, then) < 0
}

// IsDayChart reports whether the Sun is above the horizon, that is within
// the 180° of ecliptic preceding the ascendant
func IsDayChart(asc, sun float64) bool {
	d := ephemeris.Normalize(asc - sun)
	return d > 0 && d < 180
}

// PartOfFortune computes the lot of fortune by sect: ASC + Moon - Sun by
// day, ASC - Moon + Sun by night
func PartOfFortune(asc, sun, moon float64) float64 {
	if IsDayChart(asc, sun) {
		return ephemeris.Normalize(asc + moon - sun)
	}
	return ephemeris.Normalize(asc - moon + sun)
}
