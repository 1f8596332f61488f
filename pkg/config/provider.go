package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/chrissnell/ephem/internal/constants"
)

// ErrConfigRead is returned alongside default preferences when the
// preference file exists but can't be parsed. Callers warn and carry on.
var ErrConfigRead = errors.New("unable to read config file")

// Display themes
const (
	ThemeSect    = "sect"
	ThemeElement = "element"
	ThemeMode    = "mode"
)

// Lunar node variants
const (
	NodeTrue = "true"
	NodeMean = "mean"
)

// Storage backends for saved charts
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// ConfigProvider defines the interface for preference data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*Preferences, error)

	// Persist configuration
	SaveConfig(p *Preferences) error

	// Path of the underlying source, for display
	Path() string

	IsReadOnly() bool
	Close() error
}

// Preferences represents the complete user preference file
type Preferences struct {
	Location LocationData `yaml:"location"`
	Display  DisplayData  `yaml:"display"`
	Zodiac   ZodiacData   `yaml:"zodiac"`
	Storage  StorageData  `yaml:"storage"`
	Server   ServerData   `yaml:"server"`
}

// LocationData holds the default observer location. Lat and Lng are pointers
// because (0, 0) is a real place and must be told apart from "unset".
type LocationData struct {
	Lat      *float64 `yaml:"lat,omitempty"`
	Lng      *float64 `yaml:"lng,omitempty"`
	GeoIP    bool     `yaml:"geoip,omitempty"`
	GeoIPURL string   `yaml:"geoip-url,omitempty"`
}

// DisplayData holds chart formatting defaults
type DisplayData struct {
	Theme     string `yaml:"theme,omitempty"`
	Node      string `yaml:"node,omitempty"`
	ASCII     bool   `yaml:"ascii,omitempty"`
	NoColor   bool   `yaml:"no-color,omitempty"`
	Classical bool   `yaml:"classical,omitempty"`
	NoAngles  bool   `yaml:"no-angles,omitempty"`
	NoGeo     bool   `yaml:"no-geo,omitempty"`
	Verbose   bool   `yaml:"verbose,omitempty"`
}

// ZodiacData selects tropical (nil Offset) or a sidereal ayanamsa preset
type ZodiacData struct {
	Offset *int `yaml:"offset,omitempty"`
}

// StorageData holds the saved-chart database configuration
type StorageData struct {
	Backend     string `yaml:"backend,omitempty"`
	SQLitePath  string `yaml:"sqlite-path,omitempty"`
	PostgresDSN string `yaml:"postgres-dsn,omitempty"`
}

// ServerData configures the optional HTTP server
type ServerData struct {
	ListenAddr string  `yaml:"listen-addr,omitempty"`
	Port       int     `yaml:"port,omitempty"`
	GeoIPRate  float64 `yaml:"geoip-rate,omitempty"`
}

// Coordinates returns the configured location if both halves are present
func (l LocationData) Coordinates() (lat, lng float64, ok bool) {
	if l.Lat == nil || l.Lng == nil {
		return 0, 0, false
	}
	return *l.Lat, *l.Lng, true
}

// ApplyDefaults fills unset or unrecognized fields with documented defaults
// and reports which fields were replaced.
func (p *Preferences) ApplyDefaults() []string {
	var replaced []string

	switch p.Display.Theme {
	case "":
		p.Display.Theme = ThemeSect
	case ThemeSect, ThemeElement, ThemeMode:
	default:
		replaced = append(replaced, "display.theme")
		p.Display.Theme = ThemeSect
	}

	switch p.Display.Node {
	case "":
		p.Display.Node = NodeTrue
	case NodeTrue, NodeMean:
	default:
		replaced = append(replaced, "display.node")
		p.Display.Node = NodeTrue
	}

	switch p.Storage.Backend {
	case "":
		p.Storage.Backend = BackendSQLite
	case BackendSQLite, BackendPostgres:
	default:
		replaced = append(replaced, "storage.backend")
		p.Storage.Backend = BackendSQLite
	}

	if p.Server.ListenAddr == "" {
		p.Server.ListenAddr = "127.0.0.1"
	}
	if p.Server.Port == 0 {
		p.Server.Port = 8080
	}
	if p.Server.GeoIPRate <= 0 {
		p.Server.GeoIPRate = 0.5
	}

	return replaced
}

// Defaults returns preferences with every field at its documented default
func Defaults() *Preferences {
	p := &Preferences{}
	p.ApplyDefaults()
	return p
}

// DefaultPath returns the preference file location: $EPHEM_CONFIG, else
// $XDG_CONFIG_HOME/ephem/ephem.yaml, else ~/.config/ephem/ephem.yaml.
func DefaultPath() string {
	if p := os.Getenv("EPHEM_CONFIG"); p != "" {
		return p
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, constants.AppName, constants.AppName+".yaml")
}

// DefaultDataDir returns $XDG_DATA_HOME/ephem, else ~/.local/share/ephem
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, constants.AppName)
}

// SQLitePath resolves the chart database path: explicit flag, $EPHEM_DB,
// storage.sqlite-path, then the XDG data directory.
func (p *Preferences) SQLitePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("EPHEM_DB"); env != "" {
		return env
	}
	if p.Storage.SQLitePath != "" {
		return p.Storage.SQLitePath
	}
	return filepath.Join(DefaultDataDir(), constants.AppName+".db")
}
