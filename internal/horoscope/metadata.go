package horoscope

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSignIndex = errors.New("sign index must be between 0 and 11")
	ErrUnknownObject    = errors.New("unknown celestial object")
)

// Element is a sign's triplicity
type Element string

const (
	Fire  Element = "fire"
	Earth Element = "earth"
	Air   Element = "air"
	Water Element = "water"
)

// Modality is a sign's quadruplicity
type Modality string

const (
	Cardinal Modality = "cardinal"
	Fixed    Modality = "fixed"
	Mutable  Modality = "mutable"
)

// Sign is one 30° segment of the zodiac
type Sign struct {
	Name     string   `json:"name"`
	Abbrev   string   `json:"abbrev"`
	Glyph    string   `json:"glyph"`
	Element  Element  `json:"element"`
	Modality Modality `json:"modality"`
}

// Signs is indexed by floor(longitude / 30)
var Signs = [12]Sign{
	{"Aries", "Ari", "♈︎", Fire, Cardinal},
	{"Taurus", "Tau", "♉︎", Earth, Fixed},
	{"Gemini", "Gem", "♊︎", Air, Mutable},
	{"Cancer", "Can", "♋︎", Water, Cardinal},
	{"Leo", "Leo", "♌︎", Fire, Fixed},
	{"Virgo", "Vir", "♍︎", Earth, Mutable},
	{"Libra", "Lib", "♎︎", Air, Cardinal},
	{"Scorpio", "Sco", "♏︎", Water, Fixed},
	{"Sagittarius", "Sag", "♐︎", Fire, Mutable},
	{"Capricorn", "Cap", "♑︎", Earth, Cardinal},
	{"Aquarius", "Aqu", "♒︎", Air, Fixed},
	{"Pisces", "Pis", "♓︎", Water, Mutable},
}

// SignFromIndex returns the sign for index 0 (Aries) through 11 (Pisces)
func SignFromIndex(i int) (Sign, error) {
	if i < 0 || i > 11 {
		return Sign{}, fmt.Errorf("%w, got %d", ErrInvalidSignIndex, i)
	}
	return Signs[i], nil
}

// Object keys
const (
	Sun       = "ae"
	Moon      = "ag"
	Mercury   = "hg"
	Venus     = "cu"
	Mars      = "fe"
	Jupiter   = "sn"
	Saturn    = "pb"
	Uranus    = "ura"
	Neptune   = "nep"
	Pluto     = "plu"
	MeanNode  = "mean_node"
	TrueNode  = "true_node"
	Ascendant = "asc"
	Midheaven = "mc"
	Fortune   = "for"
)

// Object is static metadata for something placed on a chart
type Object struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Glyph string `json:"glyph"`
}

// Objects holds every object a horoscope can contain
var Objects = map[string]Object{
	Sun:       {Sun, "Sun", "☉"},
	Moon:      {Moon, "Moon", "☽"},
	Mercury:   {Mercury, "Mercury", "☿"},
	Venus:     {Venus, "Venus", "♀"},
	Mars:      {Mars, "Mars", "♂"},
	Jupiter:   {Jupiter, "Jupiter", "♃"},
	Saturn:    {Saturn, "Saturn", "♄"},
	Uranus:    {Uranus, "Uranus", "♅"},
	Neptune:   {Neptune, "Neptune", "♆"},
	Pluto:     {Pluto, "Pluto", "♇"},
	MeanNode:  {MeanNode, "Mean Node", "M☊"},
	TrueNode:  {TrueNode, "True Node", "T☊"},
	Ascendant: {Ascendant, "Ascendant", "AC"},
	Midheaven: {Midheaven, "Midheaven", "MC"},
	Fortune:   {Fortune, "Fortune", "⊗"},
}

// CanonicalOrder is the display order: luminaries, personal and social
// planets, the lot of fortune, outer planets, nodes, then angles
var CanonicalOrder = []string{
	Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn,
	Fortune,
	Uranus, Neptune, Pluto,
	MeanNode, TrueNode,
	Ascendant, Midheaven,
}

// Outer planets are dropped from classical charts
var Outer = map[string]bool{Uranus: true, Neptune: true, Pluto: true}

// IsAngle reports whether key is the ascendant or midheaven
func IsAngle(key string) bool {
	return key == Ascendant || key == Midheaven
}
