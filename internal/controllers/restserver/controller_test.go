package restserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/chrissnell/ephem/internal/chart"
	"github.com/chrissnell/ephem/internal/ephemeris"
	"github.com/chrissnell/ephem/internal/horoscope"
	"github.com/chrissnell/ephem/internal/locale"
	"github.com/chrissnell/ephem/internal/log"
	"github.com/chrissnell/ephem/internal/storage"
	"github.com/chrissnell/ephem/internal/types"
	"github.com/chrissnell/ephem/pkg/config"
	"github.com/chrissnell/ephem/pkg/responseformat"
)

func newTestServer(t *testing.T, withStore bool) (*httptest.Server, storage.ChartStore) {
	t.Helper()

	charts := chart.NewService(ephemeris.NewMeeus(), locale.NewResolver(config.LocationData{}, nil), nil)

	var store storage.ChartStore
	if withStore {
		s, err := storage.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "ephem.db"))
		if err != nil {
			t.Fatalf("NewSQLiteStore() error = %v", err)
		}
		t.Cleanup(func() { s.Close() })
		store = s
	}

	ctrl, err := NewController(charts, store, config.ServerData{}, log.GetSugaredLogger())
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	srv := httptest.NewServer(ctrl.Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func get(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp
}

func hasKey(positions []horoscope.Position, key string) bool {
	for _, p := range positions {
		if p.Object.Key == key {
			return true
		}
	}
	return false
}

func TestChartEndpointsStatus(t *testing.T) {
	srv, _ := newTestServer(t, true)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"now", "/chart/now", http.StatusOK},
		{"now with location", "/chart/now?lat=40.7128&lng=-74.006", http.StatusOK},
		{"now sidereal", "/chart/now?offset=1", http.StatusOK},
		{"now shifted", "/chart/now?shift=-2h", http.StatusOK},
		{"event", "/chart/event?date=1993-08-16&time=13:00&tz=America/New_York", http.StatusOK},
		{"event bad date", "/chart/event?date=1993-13-45", http.StatusBadRequest},
		{"event bad time", "/chart/event?date=1993-08-16&time=25:00", http.StatusBadRequest},
		{"event bad zone", "/chart/event?date=1993-08-16&tz=Mars/Olympus", http.StatusBadRequest},
		{"event without date", "/chart/event", http.StatusBadRequest},
		{"event out of range", "/chart/event?date=5000-01-01", http.StatusBadRequest},
		{"lat only", "/chart/now?lat=40", http.StatusBadRequest},
		{"lat out of range", "/chart/now?lat=95&lng=0", http.StatusBadRequest},
		{"non-numeric lng", "/chart/now?lat=40&lng=east", http.StatusBadRequest},
		{"bad offset", "/chart/now?offset=99", http.StatusBadRequest},
		{"non-numeric offset", "/chart/now?offset=lahiri", http.StatusBadRequest},
		{"bad node", "/chart/now?node=osculating", http.StatusBadRequest},
		{"bad shift", "/chart/now?shift=soon", http.StatusBadRequest},
		{"missing chart", "/charts/99", http.StatusNotFound},
		{"non-numeric id", "/charts/abc", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, srv.URL+tt.path, nil)
			if resp.StatusCode != tt.status {
				t.Errorf("GET %s = %d, expected %d", tt.path, resp.StatusCode, tt.status)
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}
}

func TestChartEventBody(t *testing.T) {
	srv, _ := newTestServer(t, false)

	var r ChartResponse
	get(t, srv.URL+"/chart/event?date=1993-08-16", &r)

	if !r.Approximate {
		t.Error("event without time or place should be approximate")
	}
	if r.Zodiac != "Tropical" {
		t.Errorf("Zodiac = %q", r.Zodiac)
	}
	if hasKey(r.Positions, horoscope.Ascendant) {
		t.Error("approximate chart has an ascendant")
	}
	if len(r.Positions) == 0 || r.Positions[0].Object.Key != horoscope.Sun || r.Positions[0].Sign.Name != "Leo" {
		t.Errorf("first position = %+v", r.Positions)
	}
}

func TestChartNowWithLocation(t *testing.T) {
	srv, _ := newTestServer(t, false)

	var r ChartResponse
	get(t, srv.URL+"/chart/now?lat=51.5&lng=-0.12&node=mean", &r)

	if r.Approximate {
		t.Error("chart with time and place should not be approximate")
	}
	for _, key := range []string{horoscope.Ascendant, horoscope.Midheaven, horoscope.Fortune, horoscope.MeanNode} {
		if !hasKey(r.Positions, key) {
			t.Errorf("missing %s", key)
		}
	}
	if hasKey(r.Positions, horoscope.TrueNode) {
		t.Error("mean node chart includes the true node")
	}
	if r.Title != chart.MomentTitle {
		t.Errorf("Title = %q", r.Title)
	}
}

func TestSavedCharts(t *testing.T) {
	srv, store := newTestServer(t, true)

	var list []types.SavedChart
	get(t, srv.URL+"/charts", &list)
	if list == nil || len(list) != 0 {
		t.Errorf("empty list = %#v", list)
	}

	lat, lng := 40.7128, -74.006
	id, err := store.Add(context.Background(), types.SavedChart{
		Name:           "Saved",
		TimestampUTC:   "2025-08-09T07:54:00Z",
		TimestampLocal: "2025-08-09T03:54:00-04:00",
		Latitude:       &lat,
		Longitude:      &lng,
	})
	if err != nil {
		t.Fatal(err)
	}

	get(t, srv.URL+"/charts", &list)
	if len(list) != 1 || list[0].Name != "Saved" {
		t.Errorf("list = %+v", list)
	}

	var r ChartResponse
	resp := get(t, srv.URL+"/charts/1", &r)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if r.ID != id || r.Title != "Saved" || r.Approximate {
		t.Errorf("saved chart = %+v", r)
	}
	if !hasKey(r.Positions, horoscope.Ascendant) {
		t.Error("saved chart with location has no ascendant")
	}
}

func TestChartsWithoutStore(t *testing.T) {
	srv, _ := newTestServer(t, false)

	var body responseformat.ErrorBody
	resp := get(t, srv.URL+"/charts", &body)
	if resp.StatusCode != http.StatusServiceUnavailable || body.Error == "" {
		t.Errorf("GET /charts = %d %+v", resp.StatusCode, body)
	}
}

func TestMsgPackResponse(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp := get(t, srv.URL+"/chart/now?format=msgpack", nil)
	if ct := resp.Header.Get("Content-Type"); ct != responseformat.ContentTypeMsgPack {
		t.Errorf("Content-Type = %q", ct)
	}
}
