package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/ephem/internal/controllers/restserver"
	"github.com/chrissnell/ephem/internal/display"
	"github.com/chrissnell/ephem/internal/locale"
	"github.com/chrissnell/ephem/internal/log"
	"github.com/chrissnell/ephem/internal/storage"
	"gopkg.in/yaml.v2"
)

// parseMonth accepts 1-12, a month name or its three-letter abbreviation
func parseMonth(s string) (time.Month, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return time.Month(n), nil
		}
		return 0, usageErrorf("month must be between 1 and 12, got %d", n)
	}

	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if l := strings.ToLower(s); l == name || l == name[:3] {
			return m, nil
		}
	}
	return 0, usageErrorf("invalid month: %s", s)
}

func runCal(a *app, ctx context.Context, args []string) error {
	fs := a.flagSet("cal", "[YEAR] [MONTH] [flags]")
	var disp displayFlags
	disp.register(fs, a.prefs)
	var offset optionalInt
	offset.value = a.prefs.Zodiac.Offset
	fs.Var(&offset, "offset", "sidereal ayanamsa index (see --list-offsets); tropical when unset")
	fs.Var(&offset, "o", "shorthand for --offset")

	positional, err := a.parse(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 2 {
		return usageErrorf("`cal` takes at most YEAR and MONTH")
	}

	today := a.clock()
	year, month := today.Year(), today.Month()
	if len(positional) > 0 {
		if year, err = strconv.Atoi(positional[0]); err != nil {
			return usageErrorf("year must be an integer, got %q", positional[0])
		}
	}
	if len(positional) > 1 {
		if month, err = parseMonth(positional[1]); err != nil {
			return err
		}
	}

	m, err := a.service(false).Month(ctx, year, month, offset.value)
	if err != nil {
		return err
	}

	a.println(display.Month(m, disp.options(a.tty))...)
	return nil
}

func runConfig(a *app, ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageErrorf("`config` needs a subcommand: show, save or path")
	}

	switch args[0] {
	case "path":
		a.println(a.provider.Path())
		return nil

	case "show":
		raw, err := os.ReadFile(a.provider.Path())
		if errors.Is(err, os.ErrNotExist) {
			a.println(fmt.Sprintf("No config file found at %s", a.provider.Path()), "", "Effective defaults:")
			out, err := yaml.Marshal(a.prefs)
			if err != nil {
				return err
			}
			fmt.Fprint(a.stdout, string(out))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprint(a.stdout, string(raw))
		return nil

	case "save":
		fs := a.flagSet("config save", "[flags]")
		var common commonFlags
		var disp displayFlags
		common.register(fs, a.prefs)
		disp.register(fs, a.prefs)
		if _, err := a.parse(fs, args[1:]); err != nil {
			return err
		}
		if err := disp.validate(); err != nil {
			return err
		}
		return a.saveConfig(&common, &disp)
	}

	return usageErrorf("unknown config subcommand %q", args[0])
}

func runServe(a *app, ctx context.Context, args []string) error {
	fs := a.flagSet("serve", "[flags]")
	sc := a.prefs.Server
	fs.StringVar(&sc.ListenAddr, "listen", sc.ListenAddr, "address to listen on")
	fs.IntVar(&sc.Port, "port", sc.Port, "port to listen on")
	geoip := fs.Bool("geoip", a.prefs.Location.GeoIP, "look up an approximate location by IP for requests without one")

	if _, err := a.parse(fs, args); err != nil {
		return err
	}

	var geo locale.Geolocator
	if *geoip {
		geo = locale.NewRateLimitedGeolocator(
			locale.NewHTTPGeolocator(a.prefs.Location.GeoIPURL, geoIPTimeout), sc.GeoIPRate, 1)
	}
	charts := newChartService(a, geo)

	var store storage.ChartStore
	if s, err := a.openStore(ctx); err != nil {
		log.Warnf("saved charts unavailable: %v", err)
	} else {
		store = s
		defer store.Close()
	}

	ctrl, err := restserver.NewController(charts, store, sc, log.GetSugaredLogger())
	if err != nil {
		return err
	}
	return ctrl.Run(ctx)
}
