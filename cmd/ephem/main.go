package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // zone names work on hosts without a zoneinfo database

	"github.com/chrissnell/ephem/internal/chart"
	"github.com/chrissnell/ephem/internal/constants"
	"github.com/chrissnell/ephem/internal/ephemeris"
	"github.com/chrissnell/ephem/internal/locale"
	"github.com/chrissnell/ephem/internal/log"
	"github.com/chrissnell/ephem/internal/moment"
	"github.com/chrissnell/ephem/internal/storage"
	"github.com/chrissnell/ephem/pkg/config"
	"github.com/joho/godotenv"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// geoIPTimeout bounds the single IP geolocation request
const geoIPTimeout = 5 * time.Second

type command struct {
	summary string
	run     func(a *app, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"now":    {"calculate the chart of the moment", runNow},
		"cast":   {"calculate an event or birth chart: DATE [TIME] [TITLE]", runCast},
		"asc":    {"print the current ascendant", runAsc},
		"cal":    {"print the ephemeris table for a month: [YEAR] [MONTH]", runCal},
		"data":   {"manage saved charts: view, load ID, delete ID, sync", runData},
		"config": {"manage preferences: show, save, path", runConfig},
		"serve":  {"serve charts over HTTP", runServe},
	}
}

var commandOrder = []string{"now", "cast", "asc", "cal", "data", "config", "serve"}

func main() {
	// a .env file is optional; it can set EPHEM_CONFIG and EPHEM_DB
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], colorable.NewColorableStdout(), os.Stderr, isTerminal(os.Stdout))
	stop()
	os.Exit(code)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// app carries what every subcommand needs
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	tty      bool
	provider config.ConfigProvider
	prefs    *config.Preferences
	dbPath   string
	clock    moment.Clock
}

// run executes one invocation and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer, tty bool) int {
	global := flag.NewFlagSet("ephem", flag.ContinueOnError)
	global.SetOutput(stderr)

	listOffsets := global.Bool("list-offsets", false, "list the sidereal ayanamsa offsets and exit")
	showVersion := global.Bool("version", false, "show version and exit")
	debug := global.Bool("debug", false, "turn on debugging output")
	logFile := global.String("log-file", "", "also write logs to this file, rotated")
	cfgFile := global.String("config", "", "preference file (default $EPHEM_CONFIG or "+config.DefaultPath()+")")
	dbFile := global.String("db", "", "SQLite chart database (default $EPHEM_DB or the XDG data directory)")
	global.Usage = func() { usage(stderr, global) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", constants.AppName, constants.Version)
		return 0
	}
	if *listOffsets {
		printOffsets(stdout)
		return 0
	}

	if err := log.Init(*debug, *logFile); err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	rest := global.Args()
	if len(rest) == 0 {
		usage(stdout, global)
		return 0
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\nUse -h or --help for more information.\n", rest[0])
		return 2
	}

	path := *cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	provider := config.NewYAMLProvider(path)
	prefs, err := provider.LoadConfig()
	if err != nil {
		// prefs holds defaults; a bad file never stops a chart
		log.Warnf("%v", err)
	}

	a := &app{
		stdout:   stdout,
		stderr:   stderr,
		tty:      tty,
		provider: provider,
		prefs:    prefs,
		dbPath:   prefs.SQLitePath(*dbFile),
		clock:    time.Now,
	}

	return a.exitCode(cmd.run(a, ctx, rest[1:]))
}

// usageError marks mistakes in how the command was invoked
type usageError struct {
	msg string
}

func (e usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...interface{}) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// errFlagParse wraps flag parsing failures, which flag has already reported
var errFlagParse = errors.New("invalid flags")

func (a *app) exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errFlagParse):
		return 2
	case errors.As(err, &ue):
		fmt.Fprintf(a.stderr, "Error: %v\n\nUse -h or --help for more information.\n", err)
		return 2
	default:
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
}

// flagSet returns a subcommand flag set that reports to stderr
func (a *app) flagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet("ephem "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: ephem %s %s\n\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

func (a *app) parse(fs *flag.FlagSet, args []string) ([]string, error) {
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errFlagParse, err)
	}
	return positional, nil
}

// service builds a chart service over the saved preferences. geoip enables
// the IP lookup step of location resolution.
func (a *app) service(geoip bool) *chart.Service {
	var geo locale.Geolocator
	if geoip {
		geo = locale.NewHTTPGeolocator(a.prefs.Location.GeoIPURL, geoIPTimeout)
	}
	return newChartService(a, geo)
}

func newChartService(a *app, geo locale.Geolocator) *chart.Service {
	return chart.NewService(ephemeris.NewMeeus(), locale.NewResolver(a.prefs.Location, geo), a.clock)
}

func (a *app) openStore(ctx context.Context) (storage.ChartStore, error) {
	return storage.Open(ctx, a.prefs.Storage, a.dbPath)
}

func (a *app) println(lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(a.stdout, l)
	}
}

func usage(w io.Writer, global *flag.FlagSet) {
	fmt.Fprintln(w, "ephem calculates astrological charts and monthly ephemerides.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: ephem [global flags] <command> [flags] [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-7s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	global.SetOutput(w)
	global.PrintDefaults()
}

func printOffsets(w io.Writer) {
	fmt.Fprintln(w, "\nAyanamsa offsets:")
	fmt.Fprintln(w)
	for i, a := range ephemeris.Ayanamsas {
		fmt.Fprintf(w, "%2d: %s\n", i, a.Name)
	}
}
