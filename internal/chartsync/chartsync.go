// Package chartsync mirrors saved charts to one YAML file per chart so they
// can be edited by hand or kept under version control.
package chartsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/chrissnell/ephem/internal/log"
	"github.com/chrissnell/ephem/internal/storage"
	"github.com/chrissnell/ephem/internal/types"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

// Source tags files written by this program
const Source = "ephem_cli"

// fallbackStem names files for charts whose name has no usable characters
const fallbackStem = "unnamed-chart"

var (
	unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	separators  = regexp.MustCompile(`[-\s]+`)
)

// Slugify lowercases text, drops punctuation and joins words with hyphens
func Slugify(text string) string {
	s := unsafeChars.ReplaceAllString(strings.ToLower(text), "")
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// FileName returns the YAML file name for a chart called name
func FileName(name string) string {
	slug := Slugify(name)
	if slug == "" {
		slug = fallbackStem
	}
	return slug + ".yaml"
}

type metadata struct {
	Created string   `yaml:"created"`
	Source  string   `yaml:"source"`
	Tags    []string `yaml:"tags"`
}

// chartFile is the on-disk layout. timestamp_input is the key older files
// used for the local timestamp.
type chartFile struct {
	Name           string   `yaml:"name,omitempty"`
	TimestampUTC   string   `yaml:"timestamp_utc"`
	TimestampLocal string   `yaml:"timestamp_local,omitempty"`
	TimestampInput string   `yaml:"timestamp_input,omitempty"`
	Latitude       *float64 `yaml:"latitude,omitempty"`
	Longitude      *float64 `yaml:"longitude,omitempty"`
	Metadata       metadata `yaml:"_metadata"`
}

// Syncer reads and writes chart files in one directory
type Syncer struct {
	dir string
	now func() time.Time
}

// New returns a Syncer for dir
func New(dir string) *Syncer {
	return &Syncer{dir: dir, now: time.Now}
}

// DirFor returns the charts directory that sits next to a SQLite database
func DirFor(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "charts")
}

// Dir returns the directory this Syncer manages
func (s *Syncer) Dir() string {
	return s.dir
}

// Export writes c to its YAML file, replacing any file of the same name
func (s *Syncer) Export(c types.SavedChart) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create charts directory: %w", err)
	}

	f := chartFile{
		Name:           c.Name,
		TimestampUTC:   c.TimestampUTC,
		TimestampLocal: c.TimestampLocal,
		Metadata: metadata{
			Created: s.now().Format(time.RFC3339),
			Source:  Source,
			Tags:    []string{},
		},
	}
	if _, ok := c.Coordinate(); ok {
		f.Latitude, f.Longitude = c.Latitude, c.Longitude
	}

	out, err := yaml.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chart %q: %w", c.Name, err)
	}

	path := filepath.Join(s.dir, FileName(c.Name))
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// LoadFile reads one chart file. A missing name falls back to the file name,
// title-cased.
func LoadFile(path string) (types.SavedChart, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.SavedChart{}, err
	}

	var f chartFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return types.SavedChart{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if f.TimestampUTC == "" {
		return types.SavedChart{}, fmt.Errorf("%s: missing timestamp_utc", filepath.Base(path))
	}

	c := types.SavedChart{
		Name:           f.Name,
		TimestampUTC:   f.TimestampUTC,
		TimestampLocal: f.TimestampLocal,
		Latitude:       f.Latitude,
		Longitude:      f.Longitude,
	}
	if c.TimestampLocal == "" {
		c.TimestampLocal = f.TimestampInput
	}
	if c.TimestampLocal == "" {
		c.TimestampLocal = c.TimestampUTC
	}
	if c.Name == "" {
		c.Name = nameFromFile(path)
	}
	return c, nil
}

func nameFromFile(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.Fields(strings.ReplaceAll(stem, "-", " "))
	for i, w := range words {
		r := []rune(w)
		words[i] = string(unicode.ToUpper(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

// Files lists the chart files in the directory, sorted by name
func (s *Syncer) Files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Result reports what a Sync changed
type Result struct {
	// Exported are file names written for charts that had none
	Exported []string
	// Added are file names imported as new charts
	Added []string
	// Err combines the per-file failures; use multierr.Errors to list them
	Err error
}

// Sync exports every stored chart that has no file, then imports every file
// whose content matches no stored chart. A failure on one file is recorded
// in Result.Err and the rest carry on.
func (s *Syncer) Sync(ctx context.Context, store storage.ChartStore) (Result, error) {
	var res Result

	charts, err := store.List(ctx)
	if err != nil {
		return res, err
	}

	files, err := s.Files()
	if err != nil {
		return res, err
	}
	existing := make(map[string]bool, len(files))
	for _, f := range files {
		existing[filepath.Base(f)] = true
	}

	for _, c := range charts {
		name := FileName(c.Name)
		if existing[name] {
			continue
		}
		if _, err := s.Export(c); err != nil {
			res.Err = multierr.Append(res.Err, err)
			continue
		}
		existing[name] = true
		res.Exported = append(res.Exported, name)
		log.Debugf("exported chart %d to %s", c.ID, name)
	}

	files, err = s.Files()
	if err != nil {
		return res, err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		c, err := LoadFile(path)
		if err != nil {
			res.Err = multierr.Append(res.Err, err)
			continue
		}
		if contains(charts, c) {
			continue
		}

		id, err := store.Add(ctx, c)
		if err != nil {
			res.Err = multierr.Append(res.Err, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		c.ID = id
		charts = append(charts, c)
		res.Added = append(res.Added, filepath.Base(path))
	}

	return res, nil
}

func contains(charts []types.SavedChart, c types.SavedChart) bool {
	for _, have := range charts {
		if same(have, c) {
			return true
		}
	}
	return false
}

// same compares everything but the id
func same(a, b types.SavedChart) bool {
	return a.Name == b.Name &&
		a.TimestampUTC == b.TimestampUTC &&
		a.TimestampLocal == b.TimestampLocal &&
		equalFloat(a.Latitude, b.Latitude) &&
		equalFloat(a.Longitude, b.Longitude)
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
