package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/ephem/internal/types"
)

// cli runs ephem against an isolated config file and database
type cli struct {
	t   *testing.T
	dir string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("EPHEM_CONFIG", filepath.Join(dir, "ephem.yaml"))
	t.Setenv("EPHEM_DB", filepath.Join(dir, "ephem.db"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return &cli{t: t, dir: dir}
}

func (c *cli) run(args ...string) (int, string, string) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, false)
	return code, stdout.String(), stderr.String()
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	code, stdout, stderr := c.run(args...)
	if code != 0 {
		c.t.Fatalf("ephem %v exited %d\nstdout:\n%s\nstderr:\n%s", args, code, stdout, stderr)
	}
	return stdout
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		code     int
		contains string
	}{
		{"no command", nil, 0, ""},
		{"unknown command", []string{"frobnicate"}, 2, "unknown command"},
		{"cast without date", []string{"cast"}, 1, "needs at minimum a DATE"},
		{"bad date", []string{"cast", "1993-13-45", "-C"}, 1, "Error:"},
		{"latitude only", []string{"cast", "1993-08-16", "--lat", "40"}, 1, "Error:"},
		{"latitude out of range", []string{"cast", "1993-08-16", "--lat", "91", "--lng", "0"}, 1, "Error:"},
		{"bad theme", []string{"now", "-t", "plaid"}, 2, "--theme"},
		{"bad offset", []string{"now", "-o", "42"}, 1, "offset"},
		{"bad flag", []string{"now", "--nope"}, 2, ""},
		{"now with argument", []string{"now", "extra"}, 2, "takes no arguments"},
		{"data without subcommand", []string{"data"}, 2, "subcommand"},
		{"non-numeric id", []string{"data", "load", "one"}, 2, "integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := newCLI(t).run(tt.args...)
			if code != tt.code {
				t.Errorf("exit code = %d, expected %d (stderr %q)", code, tt.code, stderr)
			}
			if !strings.Contains(stderr, tt.contains) {
				t.Errorf("stderr %q does not contain %q", stderr, tt.contains)
			}
		})
	}
}

func TestVersionAndOffsets(t *testing.T) {
	c := newCLI(t)

	if out := c.mustRun("--version"); !strings.HasPrefix(out, "ephem 1.0-") {
		t.Errorf("--version = %q", out)
	}

	out := c.mustRun("--list-offsets")
	for _, want := range []string{" 0: Fagan/Bradley", " 1: Lahiri", " 8: J.N. Bhasin"} {
		if !strings.Contains(out, want) {
			t.Errorf("--list-offsets missing %q:\n%s", want, out)
		}
	}
}

func TestCastApproximate(t *testing.T) {
	// flags follow the positional date
	out := newCLI(t).mustRun("cast", "1993-08-16", "-a", "-C")

	if !strings.Contains(out, "hyp.") {
		t.Errorf("chart not marked hyp.:\n%s", out)
	}
	if strings.Contains(out, "Ascendant") || strings.Contains(out, "Midheaven") {
		t.Errorf("angles printed for an approximate chart:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("color printed with -C:\n%s", out)
	}
}

func TestCastWithTitle(t *testing.T) {
	out := newCLI(t).mustRun("cast", "2000-01-01", "12:00", "New", "Year", "--lat", "51.5", "--lng", "-0.12", "-a", "-o", "1")

	if !strings.Contains(out, "New Year (Sidereal — Lahiri)") {
		t.Errorf("unexpected title:\n%s", out)
	}
	if !strings.Contains(out, "@ 51.5 -0.12") {
		t.Errorf("coordinates missing:\n%s", out)
	}
	if !strings.Contains(out, "Ascendant") {
		t.Errorf("angles missing from a located chart:\n%s", out)
	}
}

func TestSavedChartLifecycle(t *testing.T) {
	c := newCLI(t)

	if out := c.mustRun("data", "view"); strings.TrimSpace(out) != noChartsYet {
		t.Errorf("empty view = %q", out)
	}

	out := c.mustRun("cast", "1993-08-16", "12:00", "Test Chart", "--lat", "40.7", "--lng", "-74", "-a", "-C", "--save")
	if !strings.HasPrefix(strings.TrimSpace(out), "Chart saved at index 1.") {
		t.Errorf("save notice should precede the chart:\n%s", out)
	}

	out = c.mustRun("data", "view")
	for _, want := range []string{"[1] Test Chart", "   UTC:   1993-08-16T12:00:00Z", "Lat: 40.7, Lng: -74"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}

	out = c.mustRun("data", "load", "1", "-a", "-C")
	if !strings.Contains(out, "Test Chart (Tropical)") || !strings.Contains(out, "Ascendant") {
		t.Errorf("unexpected loaded chart:\n%s", out)
	}

	if out := c.mustRun("data", "delete", "1"); !strings.Contains(out, "✅ Deleted chart 1") {
		t.Errorf("delete = %q", out)
	}
	if out := c.mustRun("data", "delete", "1"); !strings.Contains(out, "Chart ID 1 not found. Nothing deleted.") {
		t.Errorf("second delete = %q", out)
	}
	if out := c.mustRun("data", "load", "1"); !strings.Contains(out, "No chart found with ID 1") {
		t.Errorf("load after delete = %q", out)
	}
}

func TestNowSave(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("now", "-a", "-C", "--save", "-s", "-2h")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if last := lines[len(lines)-1]; last != "Chart saved at index 1." {
		t.Errorf("save notice should follow the chart, last line %q", last)
	}
	if !strings.Contains(out, "Chart of the Moment") {
		t.Errorf("unexpected title:\n%s", out)
	}
}

func TestDataSync(t *testing.T) {
	c := newCLI(t)
	c.mustRun("cast", "1993-08-16", "12:00", "Sync Me", "-C", "--save")

	out := c.mustRun("data", "sync")
	for _, want := range []string{"💫 Syncing database...", "🪐 Sync complete!", "Exported 1 charts to YAML"} {
		if !strings.Contains(out, want) {
			t.Errorf("sync output missing %q:\n%s", want, out)
		}
	}

	if _, err := os.Stat(filepath.Join(c.dir, "charts", "sync-me.yaml")); err != nil {
		t.Errorf("exported file missing: %v", err)
	}

	// a hand-written file is imported on the next sync
	chart := "name: From Disk\ntimestamp_utc: \"2001-02-03T04:05:06Z\"\ntimestamp_local: \"2001-02-03T04:05:06Z\"\n"
	if err := os.WriteFile(filepath.Join(c.dir, "charts", "from-disk.yaml"), []byte(chart), 0o644); err != nil {
		t.Fatal(err)
	}

	out = c.mustRun("data", "sync")
	if !strings.Contains(out, "Added 1 new entries to database") {
		t.Errorf("second sync output:\n%s", out)
	}
	if out := c.mustRun("data", "view"); !strings.Contains(out, "[2] From Disk") {
		t.Errorf("imported chart not listed:\n%s", out)
	}
}

func TestConfigCommands(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(c.dir, "ephem.yaml")

	if out := c.mustRun("config", "path"); strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, expected %q", out, path)
	}

	if out := c.mustRun("config", "show"); !strings.Contains(out, "No config file found at "+path) {
		t.Errorf("config show without file = %q", out)
	}

	out := c.mustRun("config", "save", "--lat", "10", "--lng", "20", "-t", "element", "-o", "1")
	if !strings.Contains(out, "Saved config to "+path) {
		t.Errorf("config save = %q", out)
	}

	out = c.mustRun("config", "show")
	for _, want := range []string{"lat: 10", "lng: 20", "theme: element", "offset: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}

	// saved preferences now drive a chart
	out = c.mustRun("cast", "1993-08-16", "12:00", "-a")
	if !strings.Contains(out, "Using location from config file.") || !strings.Contains(out, "Lahiri") {
		t.Errorf("saved preferences not applied:\n%s", out)
	}

	if code, _, _ := c.run("config", "save", "--lat", "10"); code != 2 {
		t.Errorf("saving half a location exited %d, expected 2", code)
	}
}

func TestSaveConfigFlag(t *testing.T) {
	c := newCLI(t)
	c.mustRun("now", "--lat", "1", "--lng", "2", "--save-config", "-C")

	raw, err := os.ReadFile(filepath.Join(c.dir, "ephem.yaml"))
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(raw), "lat: 1") {
		t.Errorf("config = %q", raw)
	}
}

func TestCal(t *testing.T) {
	c := newCLI(t)

	for _, month := range []string{"2", "feb", "February"} {
		out := c.mustRun("cal", "2025", month, "-a")
		lines := strings.Split(out, "\n")
		if lines[0] != "February 2025 — Tropical" {
			t.Errorf("cal 2025 %s title = %q", month, lines[0])
		}
	}

	if code, _, _ := c.run("cal", "2025", "13"); code != 2 {
		t.Errorf("cal with month 13 exited %d, expected 2", code)
	}
}

func TestAscNullIsland(t *testing.T) {
	out := newCLI(t).mustRun("asc")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "Null Island") || !strings.HasPrefix(lines[1], "AC ") {
		t.Errorf("asc output = %q", out)
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in       string
		expected time.Month
		wantErr  bool
	}{
		{"1", time.January, false},
		{"12", time.December, false},
		{"sep", time.September, false},
		{"AUGUST", time.August, false},
		{"0", 0, true},
		{"smarch", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseMonth(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMonth(%q) error = %v", tt.in, err)
			}
			if got != tt.expected {
				t.Errorf("parseMonth(%q) = %v, expected %v", tt.in, got, tt.expected)
			}
		})
	}
}

func TestChartListing(t *testing.T) {
	lat, lng := 40.7, -74.0
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	got := chartListing(types.SavedChart{
		ID: 3, Name: "Party", TimestampUTC: "2024-01-01T00:00:00Z", TimestampLocal: "2023-12-31T19:00:00-05:00",
		Latitude: &lat, Longitude: &lng,
	}, now)

	expected := []string{
		"[3] Party",
		"   UTC:   2024-01-01T00:00:00Z (1 year ago)",
		"   Local: 2023-12-31T19:00:00-05:00",
		"   Lat: 40.7, Lng: -74",
	}
	if strings.Join(got, "\n") != strings.Join(expected, "\n") {
		t.Errorf("chartListing() = %q", got)
	}

	got = chartListing(types.SavedChart{ID: 4, Name: "Nowhere", TimestampUTC: "2024-01-01T00:00:00Z"}, now)
	if got[3] != "   Lat: unknown, Lng: unknown" {
		t.Errorf("unlocated listing = %q", got[3])
	}
}

func TestParseInterspersed(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		positional string
		ascii      bool
		lat        string
	}{
		{"flags after positionals", []string{"one", "-a", "two", "--", "-three"}, "one,two,-three", true, ""},
		{"BCE date first", []string{"-500-03-01", "-a", "12:00"}, "-500-03-01,12:00", true, ""},
		{"BCE date after flags", []string{"-a", "-500-03-01"}, "-500-03-01", true, ""},
		{"negative flag value", []string{"--lat", "-33.9", "-500-03-01"}, "-500-03-01", false, "-33.9"},
		{"negative value with equals", []string{"-y=-33.9", "2000-01-01"}, "2000-01-01", false, "-33.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &app{stderr: &bytes.Buffer{}}
			fs := a.flagSet("test", "")
			ascii := fs.Bool("a", false, "")
			var lat optionalFloat
			fs.Var(&lat, "lat", "")
			fs.Var(&lat, "y", "")

			positional, err := parseInterspersed(fs, tt.args)
			if err != nil {
				t.Fatalf("parseInterspersed() error = %v", err)
			}
			if got := strings.Join(positional, ","); got != tt.positional {
				t.Errorf("positional = %q, expected %q", got, tt.positional)
			}
			if *ascii != tt.ascii {
				t.Errorf("ascii = %v, expected %v", *ascii, tt.ascii)
			}
			if got := lat.String(); got != tt.lat {
				t.Errorf("lat = %q, expected %q", got, tt.lat)
			}
		})
	}
}

func TestCastBCE(t *testing.T) {
	out := newCLI(t).mustRun("cast", "-500-03-01", "-a", "-C")
	if !strings.Contains(out, "hyp.") || !strings.Contains(out, "Sun ") {
		t.Errorf("unexpected BCE chart:\n%s", out)
	}
}
