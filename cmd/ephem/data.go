package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/chrissnell/ephem/internal/chartsync"
	"github.com/chrissnell/ephem/internal/display"
	"github.com/chrissnell/ephem/internal/storage"
	"github.com/chrissnell/ephem/internal/types"
	"github.com/chrissnell/ephem/pkg/config"
	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
)

const noChartsYet = "✨ No charts saved yet! Run `ephem cast --save` to add your first chart."

func runData(a *app, ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageErrorf("`data` needs a subcommand: view, load ID, delete ID or sync")
	}

	switch args[0] {
	case "view":
		return runDataView(a, ctx, args[1:])
	case "load":
		return runDataLoad(a, ctx, args[1:])
	case "delete":
		return runDataDelete(a, ctx, args[1:])
	case "sync":
		return runDataSync(a, ctx, args[1:])
	}
	return usageErrorf("unknown data subcommand %q", args[0])
}

func runDataView(a *app, ctx context.Context, args []string) error {
	fs := a.flagSet("data view", "")
	if _, err := a.parse(fs, args); err != nil {
		return err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	charts, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(charts) == 0 {
		a.println(noChartsYet)
		return nil
	}

	for _, c := range charts {
		a.println(chartListing(c, a.clock())...)
		a.println("")
	}
	return nil
}

// chartListing renders one saved chart for `data view`
func chartListing(c types.SavedChart, now time.Time) []string {
	utc := c.TimestampUTC
	if t, err := time.Parse(time.RFC3339, c.TimestampUTC); err == nil {
		utc = fmt.Sprintf("%s (%s)", c.TimestampUTC, humanize.RelTime(t, now, "ago", "from now"))
	}

	location := "Lat: unknown, Lng: unknown"
	if coord, ok := c.Coordinate(); ok {
		location = fmt.Sprintf("Lat: %v, Lng: %v", coord.Latitude, coord.Longitude)
	}

	return []string{
		fmt.Sprintf("[%d] %s", c.ID, c.Name),
		"   UTC:   " + utc,
		"   Local: " + c.TimestampLocal,
		"   " + location,
	}
}

func parseID(positional []string) (int64, error) {
	if len(positional) != 1 {
		return 0, usageErrorf("expected one chart ID")
	}
	id, err := strconv.ParseInt(positional[0], 10, 64)
	if err != nil {
		return 0, usageErrorf("chart ID must be an integer, got %q", positional[0])
	}
	return id, nil
}

func runDataLoad(a *app, ctx context.Context, args []string) error {
	fs := a.flagSet("data load", "ID [flags]")
	var common commonFlags
	var disp displayFlags
	common.register(fs, a.prefs)
	disp.register(fs, a.prefs)

	positional, err := a.parse(fs, args)
	if err != nil {
		return err
	}
	id, err := parseID(positional)
	if err != nil {
		return err
	}
	if err := disp.validate(); err != nil {
		return err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	saved, err := store.Get(ctx, id)
	if errors.Is(err, storage.ErrChartNotFound) {
		a.println(fmt.Sprintf("No chart found with ID %d", id))
		return nil
	}
	if err != nil {
		return err
	}

	// explicit coordinates override the stored ones
	if common.lat.value != nil || common.lng.value != nil {
		saved.Latitude, saved.Longitude = common.lat.value, common.lng.value
	}

	c, err := a.service(common.geoip).FromSaved(ctx, saved, common.offset.value, disp.nodeVariant())
	if err != nil {
		return err
	}

	a.println(display.Format(c, disp.options(a.tty))...)
	return nil
}

func runDataDelete(a *app, ctx context.Context, args []string) error {
	fs := a.flagSet("data delete", "ID")
	positional, err := a.parse(fs, args)
	if err != nil {
		return err
	}
	id, err := parseID(positional)
	if err != nil {
		return err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	err = store.Delete(ctx, id)
	switch {
	case errors.Is(err, storage.ErrChartNotFound):
		a.println(fmt.Sprintf("⚠️  Chart ID %d not found. Nothing deleted.", id))
		return nil
	case err != nil:
		return err
	}

	a.println(fmt.Sprintf("✅ Deleted chart %d", id))
	return nil
}

// chartsDir sits next to the SQLite file, or in the data directory when
// charts live in PostgreSQL
func (a *app) chartsDir() string {
	if a.prefs.Storage.Backend == config.BackendPostgres {
		return filepath.Join(config.DefaultDataDir(), "charts")
	}
	return chartsync.DirFor(a.dbPath)
}

func runDataSync(a *app, ctx context.Context, args []string) error {
	fs := a.flagSet("data sync", "")
	if _, err := a.parse(fs, args); err != nil {
		return err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	a.println("💫 Syncing database...")

	res, err := chartsync.New(a.chartsDir()).Sync(ctx, store)
	if err != nil {
		return err
	}

	for _, f := range res.Exported {
		a.println("Created: " + f)
	}
	for _, f := range res.Added {
		a.println("Added to DB: " + f)
	}

	a.println("", "🪐 Sync complete!")
	if len(res.Exported) > 0 {
		a.println(fmt.Sprintf("Exported %d charts to YAML", len(res.Exported)))
	}
	if len(res.Added) > 0 {
		a.println(fmt.Sprintf("Added %d new entries to database", len(res.Added)))
	}
	if errs := multierr.Errors(res.Err); len(errs) > 0 {
		a.println(fmt.Sprintf("Errors: %d", len(errs)))
		for _, e := range errs {
			a.println("  - " + e.Error())
		}
	}
	return nil
}
