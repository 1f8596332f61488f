package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/chrissnell/ephem/internal/chart"
	"github.com/chrissnell/ephem/internal/display"
	"github.com/chrissnell/ephem/internal/ephemeris"
	"github.com/chrissnell/ephem/internal/locale"
	"github.com/chrissnell/ephem/internal/log"
	"github.com/chrissnell/ephem/internal/moment"
	"github.com/chrissnell/ephem/pkg/config"
)

func runNow(a *app, ctx context.Context, args []string) error {
	fs := a.flagSet("now", "[flags]")
	var common commonFlags
	var disp displayFlags
	common.register(fs, a.prefs)
	disp.register(fs, a.prefs)
	shift := fs.String("shift", "", "shift time forward or backward, e.g. 2h, -30m, 1.5d, 4w (default unit is hours)")
	fs.StringVar(shift, "s", "", "shorthand for --shift")
	save := fs.Bool("save", false, "save to the chart database")

	positional, err := a.parse(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return usageErrorf("`now` takes no arguments, got %q", strings.Join(positional, " "))
	}
	if err := disp.validate(); err != nil {
		return err
	}

	if common.saveConfig {
		if err := a.saveConfig(&common, &disp); err != nil {
			return err
		}
	}

	c, err := a.service(common.geoip).Cast(ctx, chart.Request{
		Title:  chart.MomentTitle,
		Moment: moment.Request{Zone: common.zone, Shift: *shift},
		Locale: common.locale(),
		Offset: common.offset.value,
		Node:   disp.nodeVariant(),
	})
	if err != nil {
		return err
	}

	a.println(display.Format(c, disp.options(a.tty))...)

	if *save {
		id, err := a.saveChart(ctx, c)
		if err != nil {
			return err
		}
		a.println("", fmt.Sprintf("Chart saved at index %d.", id))
	}
	return nil
}

func runCast(a *app, ctx context.Context, args []string) error {
	fs := a.flagSet("cast", "DATE [TIME] [TITLE...] [flags]")
	var common commonFlags
	var disp displayFlags
	common.register(fs, a.prefs)
	disp.register(fs, a.prefs)
	save := fs.Bool("save", false, "save to the chart database")

	positional, err := a.parse(fs, args)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return fmt.Errorf("`cast` needs at minimum a DATE argument. Type `ephem cast -h` for more info")
	}
	if err := disp.validate(); err != nil {
		return err
	}

	if common.saveConfig {
		if err := a.saveConfig(&common, &disp); err != nil {
			return err
		}
	}

	date, clockTime, title := moment.ParseEvent(positional)
	c, err := a.service(common.geoip).Cast(ctx, chart.Request{
		Title:  title,
		Moment: moment.Request{Date: date, Time: clockTime, Zone: common.zone},
		Locale: common.locale(),
		Offset: common.offset.value,
		Node:   disp.nodeVariant(),
	})
	if err != nil {
		return err
	}

	if *save {
		id, err := a.saveChart(ctx, c)
		if err != nil {
			return err
		}
		a.println("", fmt.Sprintf("Chart saved at index %d.", id))
	}

	opts := disp.options(a.tty)
	opts.ConfigNotice = true
	a.println(display.Format(c, opts)...)
	return nil
}

func runAsc(a *app, ctx context.Context, args []string) error {
	fs := a.flagSet("asc", "[flags]")
	var common commonFlags
	common.register(fs, a.prefs)
	glyphs := fs.Bool("glyphs", false, "print the sign glyph instead of its abbreviation")
	fs.BoolVar(glyphs, "g", false, "shorthand for --glyphs")

	positional, err := a.parse(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return usageErrorf("`asc` takes no arguments, got %q", strings.Join(positional, " "))
	}

	p, loc, err := a.service(common.geoip).Ascendant(ctx, common.locale(), common.offset.value)
	if err != nil {
		return err
	}

	if loc.Approximate {
		a.println(display.NullIslandNotice)
	}
	a.println(display.AscendantLine(p, *glyphs))
	return nil
}

// saveChart stores c in the configured chart database
func (a *app) saveChart(ctx context.Context, c chart.Chart) (int64, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	id, err := store.Add(ctx, chart.Saved(c))
	if err != nil {
		return 0, err
	}
	log.Debugf("saved chart %q as %d", c.Title, id)
	return id, nil
}

// saveConfig merges the command's location and display flags into the
// preferences and writes them out
func (a *app) saveConfig(common *commonFlags, disp *displayFlags) error {
	if a.provider.IsReadOnly() {
		return fmt.Errorf("config %s is read-only", a.provider.Path())
	}

	p := *a.prefs
	if common.lat.value != nil || common.lng.value != nil {
		if common.lat.value == nil || common.lng.value == nil {
			return usageErrorf("--save-config needs both --lat and --lng to save a location")
		}
		if _, err := locale.ValidateCoordinates(*common.lat.value, *common.lng.value); err != nil {
			return err
		}
		p.Location.Lat, p.Location.Lng = common.lat.value, common.lng.value
	}
	if _, err := ephemeris.NewZodiac(common.offset.value); err != nil {
		return err
	}
	p.Location.GeoIP = common.geoip
	p.Zodiac.Offset = common.offset.value

	if disp != nil {
		p.Display = config.DisplayData{
			Theme:     disp.theme,
			Node:      disp.node,
			ASCII:     disp.ascii,
			NoColor:   disp.noColor,
			Classical: disp.classical,
			NoAngles:  disp.noAngles,
			NoGeo:     disp.noGeo,
			Verbose:   disp.verbose,
		}
	}

	if err := a.provider.SaveConfig(&p); err != nil {
		return err
	}
	*a.prefs = p
	a.println(fmt.Sprintf("Saved config to %s", a.provider.Path()))
	return nil
}
