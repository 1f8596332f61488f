package restserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/chrissnell/ephem/internal/chart"
	"github.com/chrissnell/ephem/internal/ephemeris"
	"github.com/chrissnell/ephem/internal/horoscope"
	"github.com/chrissnell/ephem/internal/locale"
	"github.com/chrissnell/ephem/internal/moment"
	"github.com/chrissnell/ephem/internal/storage"
	"github.com/chrissnell/ephem/internal/types"
	"github.com/chrissnell/ephem/pkg/responseformat"
	"github.com/gorilla/mux"
)

var (
	errInvalidNode  = errors.New("invalid node")
	errNoDate       = errors.New("date is required")
	errNoChartStore = errors.New("chart storage is not configured")
)

// badRequest lists the errors that are the caller's fault
var badRequest = []error{
	locale.ErrInvalidCoordinates,
	locale.ErrIncompleteCoordinates,
	moment.ErrInvalidDateFormat,
	moment.ErrInvalidTimeFormat,
	moment.ErrInvalidShiftFormat,
	moment.ErrInvalidTimezone,
	moment.ErrYearOutOfRange,
	ephemeris.ErrInvalidOffset,
	errInvalidNode,
	errNoDate,
}

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetChartNow handles GET /chart/now
func (h *Handlers) GetChartNow(w http.ResponseWriter, req *http.Request) {
	cr, err := chartRequest(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	cr.Title = chart.MomentTitle
	cr.Moment.Shift = req.URL.Query().Get("shift")

	h.cast(w, req, cr)
}

// GetChartEvent handles GET /chart/event?date=YYYY-MM-DD[&time=HH:MM][&tz=Zone]
func (h *Handlers) GetChartEvent(w http.ResponseWriter, req *http.Request) {
	cr, err := chartRequest(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	q := req.URL.Query()
	cr.Moment.Date = q.Get("date")
	cr.Moment.Time = q.Get("time")
	cr.Title = q.Get("title")
	if cr.Moment.Date == "" {
		h.writeError(w, req, errNoDate)
		return
	}

	h.cast(w, req, cr)
}

func (h *Handlers) cast(w http.ResponseWriter, req *http.Request, cr chart.Request) {
	c, err := h.controller.charts.Cast(req.Context(), cr)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.write(w, req, http.StatusOK, newChartResponse(c))
}

// ListCharts handles GET /charts
func (h *Handlers) ListCharts(w http.ResponseWriter, req *http.Request) {
	if h.controller.store == nil {
		h.writeError(w, req, errNoChartStore)
		return
	}

	charts, err := h.controller.store.List(req.Context())
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	if charts == nil {
		charts = []types.SavedChart{}
	}
	h.write(w, req, http.StatusOK, charts)
}

// GetChart handles GET /charts/{id}, recomputing the saved chart
func (h *Handlers) GetChart(w http.ResponseWriter, req *http.Request) {
	if h.controller.store == nil {
		h.writeError(w, req, errNoChartStore)
		return
	}

	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		h.writeError(w, req, fmt.Errorf("%w: no chart with id %q", storage.ErrChartNotFound, mux.Vars(req)["id"]))
		return
	}

	cr, err := chartRequest(req)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	saved, err := h.controller.store.Get(req.Context(), id)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	c, err := h.controller.charts.FromSaved(req.Context(), saved, cr.Offset, cr.Node)
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	resp := newChartResponse(c)
	resp.ID = saved.ID
	h.write(w, req, http.StatusOK, resp)
}

// chartRequest reads the parameters every chart endpoint accepts: lat, lng,
// tz, node and offset
func chartRequest(req *http.Request) (chart.Request, error) {
	q := req.URL.Query()
	var cr chart.Request

	if s := q.Get("lat"); s != "" {
		lat, err := locale.ParseCoordinate(s)
		if err != nil {
			return cr, err
		}
		cr.Locale.Lat = &lat
	}
	if s := q.Get("lng"); s != "" {
		lng, err := locale.ParseCoordinate(s)
		if err != nil {
			return cr, err
		}
		cr.Locale.Lng = &lng
	}

	switch node := horoscope.NodeVariant(q.Get("node")); node {
	case "", horoscope.NodeTrue:
		cr.Node = horoscope.NodeTrue
	case horoscope.NodeMean:
		cr.Node = horoscope.NodeMean
	default:
		return cr, fmt.Errorf("%w: node must be %q or %q, got %q", errInvalidNode, horoscope.NodeTrue, horoscope.NodeMean, node)
	}

	if s := q.Get("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil {
			return cr, fmt.Errorf("%w: offset must be an integer, got %q", ephemeris.ErrInvalidOffset, s)
		}
		cr.Offset = &offset
	}

	cr.Moment.Zone = q.Get("tz")
	return cr, nil
}

func statusFor(err error) int {
	for _, e := range badRequest {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}
	switch {
	case errors.Is(err, storage.ErrChartNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNoChartStore):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.controller.logger.Errorf("error serving %s: %v", req.URL.Path, err)
	}
	if werr := h.formatter.WriteError(w, req, status, err); werr != nil {
		h.controller.logger.Warnf("error writing response: %v", werr)
	}
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteResponse(w, req, status, data); err != nil {
		h.controller.logger.Warnf("error writing response: %v", err)
	}
}
