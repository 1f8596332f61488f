package main

import (
	"flag"
	"strconv"
	"strings"

	"github.com/chrissnell/ephem/internal/display"
	"github.com/chrissnell/ephem/internal/horoscope"
	"github.com/chrissnell/ephem/internal/locale"
	"github.com/chrissnell/ephem/pkg/config"
)

// optionalFloat is a float flag that remembers whether it was set
type optionalFloat struct {
	value *float64
}

func (o *optionalFloat) String() string {
	if o == nil || o.value == nil {
		return ""
	}
	return strconv.FormatFloat(*o.value, 'g', -1, 64)
}

func (o *optionalFloat) Set(s string) error {
	f, err := locale.ParseCoordinate(s)
	if err != nil {
		return err
	}
	o.value = &f
	return nil
}

// optionalInt is an int flag that remembers whether it was set
type optionalInt struct {
	value *int
}

func (o *optionalInt) String() string {
	if o == nil || o.value == nil {
		return ""
	}
	return strconv.Itoa(*o.value)
}

func (o *optionalInt) Set(s string) error {
	i, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	o.value = &i
	return nil
}

// commonFlags are accepted by every chart subcommand
type commonFlags struct {
	lat, lng   optionalFloat
	offset     optionalInt
	zone       string
	geoip      bool
	saveConfig bool
}

func (c *commonFlags) register(fs *flag.FlagSet, prefs *config.Preferences) {
	fs.Var(&c.lat, "lat", "latitude in decimal degrees, north positive")
	fs.Var(&c.lat, "y", "shorthand for --lat")
	fs.Var(&c.lng, "lng", "longitude in decimal degrees, east positive")
	fs.Var(&c.lng, "x", "shorthand for --lng")
	fs.StringVar(&c.zone, "timezone", "", "IANA time zone name, e.g. 'America/New_York'")
	fs.StringVar(&c.zone, "z", "", "shorthand for --timezone")

	c.offset.value = prefs.Zodiac.Offset
	fs.Var(&c.offset, "offset", "sidereal ayanamsa index (see --list-offsets); tropical when unset")
	fs.Var(&c.offset, "o", "shorthand for --offset")

	fs.BoolVar(&c.geoip, "geoip", prefs.Location.GeoIP, "look up an approximate location by IP when none is given")
	fs.BoolVar(&c.saveConfig, "save-config", false, "save the current location and display settings as defaults")
}

func (c *commonFlags) locale() locale.Request {
	return locale.Request{Lat: c.lat.value, Lng: c.lng.value}
}

// displayFlags control chart rendering; defaults come from the display
// section of the preferences
type displayFlags struct {
	ascii     bool
	theme     string
	noColor   bool
	classical bool
	node      string
	noAngles  bool
	noGeo     bool
	verbose   bool
}

func (d *displayFlags) register(fs *flag.FlagSet, prefs *config.Preferences) {
	p := prefs.Display
	fs.BoolVar(&d.ascii, "ascii", p.ASCII, "use ASCII text instead of Unicode glyphs")
	fs.BoolVar(&d.ascii, "a", p.ASCII, "shorthand for --ascii")
	fs.StringVar(&d.theme, "theme", p.Theme, "color scheme: sect, element or mode")
	fs.StringVar(&d.theme, "t", p.Theme, "shorthand for --theme")
	fs.BoolVar(&d.noColor, "no-color", p.NoColor, "disable ANSI colors")
	fs.BoolVar(&d.noColor, "C", p.NoColor, "shorthand for --no-color")
	fs.BoolVar(&d.classical, "classical", p.Classical, "exclude Uranus through Pluto")
	fs.BoolVar(&d.classical, "c", p.Classical, "shorthand for --classical")
	fs.StringVar(&d.node, "node", p.Node, "lunar node calculation: true or mean")
	fs.StringVar(&d.node, "n", p.Node, "shorthand for --node")
	fs.BoolVar(&d.noAngles, "no-angles", p.NoAngles, "don't print Ascendant or Midheaven")
	fs.BoolVar(&d.noAngles, "A", p.NoAngles, "shorthand for --no-angles")
	fs.BoolVar(&d.noGeo, "no-geo", p.NoGeo, "don't print coordinates")
	fs.BoolVar(&d.noGeo, "G", p.NoGeo, "shorthand for --no-geo")
	fs.BoolVar(&d.verbose, "verbose", p.Verbose, "print the moon phase and Julian day")
	fs.BoolVar(&d.verbose, "v", p.Verbose, "shorthand for --verbose")
}

func (d *displayFlags) validate() error {
	switch d.theme {
	case config.ThemeSect, config.ThemeElement, config.ThemeMode:
	default:
		return usageErrorf("--theme must be one of sect, element or mode, got %q", d.theme)
	}
	switch d.node {
	case config.NodeTrue, config.NodeMean:
	default:
		return usageErrorf("--node must be true or mean, got %q", d.node)
	}
	return nil
}

func (d *displayFlags) options(colorOK bool) display.Options {
	return display.Options{
		ASCII:     d.ascii,
		Theme:     d.theme,
		Color:     colorOK && !d.noColor,
		Classical: d.classical,
		NoAngles:  d.noAngles,
		NoGeo:     d.noGeo,
		Verbose:   d.verbose,
	}
}

func (d *displayFlags) nodeVariant() horoscope.NodeVariant {
	return horoscope.NodeVariant(d.node)
}

// parseInterspersed parses fs over args, allowing flags after positional
// arguments. Negative numbers such as BCE dates (-500-03-01) are positional
// unless they are the value of a flag. Everything after "--" is positional.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for len(args) > 0 {
		i := negativeArg(fs, args)
		if i == 0 {
			positional = append(positional, args[0])
			args = args[1:]
			continue
		}

		head := args
		if i > 0 {
			head = args[:i]
		}
		rest, done, err := parseFlags(fs, head)
		if err != nil {
			return nil, err
		}
		positional = append(positional, rest...)
		if done || i < 0 {
			return positional, nil
		}
		args = args[i:]
	}
	return positional, nil
}

// parseFlags parses flags and positionals up to the end of args. done is
// set when "--" ended flag parsing.
func parseFlags(fs *flag.FlagSet, args []string) (positional []string, done bool, err error) {
	for {
		if err := fs.Parse(args); err != nil {
			return nil, false, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, false, nil
		}
		// flag stops at "--" and consumes it; anything left over is positional
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), true, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// negativeArg returns the index of the first negative-number argument that
// is not a flag value, or -1
func negativeArg(fs *flag.FlagSet, args []string) int {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return -1
		case isNegativeNumber(arg):
			return i
		case takesValue(fs, arg):
			i++
		}
	}
	return -1
}

func isNegativeNumber(s string) bool {
	return len(s) > 1 && s[0] == '-' && s[1] >= '0' && s[1] <= '9'
}

// takesValue reports whether arg is a defined non-boolean flag given
// without "=value", so the next argument is its value
func takesValue(fs *flag.FlagSet, arg string) bool {
	if !strings.HasPrefix(arg, "-") {
		return false
	}
	name := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if name == "" || strings.Contains(name, "=") {
		return false
	}
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return false
	}
	return true
}
