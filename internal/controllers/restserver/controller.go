package restserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chrissnell/ephem/internal/chart"
	"github.com/chrissnell/ephem/internal/log"
	"github.com/chrissnell/ephem/internal/storage"
	"github.com/chrissnell/ephem/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// server context is cancelled
const shutdownTimeout = 5 * time.Second

// Controller represents the REST server controller
type Controller struct {
	Server   http.Server
	charts   *chart.Service
	store    storage.ChartStore
	logger   *zap.SugaredLogger
	handlers *Handlers
}

// NewController creates a new REST server controller. store may be nil, in
// which case the /charts endpoints answer 503.
func NewController(charts *chart.Service, store storage.ChartStore, sc config.ServerData, logger *zap.SugaredLogger) (*Controller, error) {
	if charts == nil {
		return nil, errors.New("REST server requires a chart service")
	}

	if sc.ListenAddr == "" {
		logger.Info("server.listen-addr not provided; defaulting to 127.0.0.1")
		sc.ListenAddr = "127.0.0.1"
	}
	if sc.Port == 0 {
		logger.Info("server.port not provided; defaulting to 8080")
		sc.Port = 8080
	}

	ctrl := &Controller{
		charts: charts,
		store:  store,
		logger: logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", sc.ListenAddr, sc.Port)
	ctrl.Server.Handler = ctrl.Router()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (c *Controller) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		c.logger.Infof("REST server listening on %s", c.Server.Addr)
		if err := c.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("REST server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down the REST server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

// Router configures the HTTP router with all endpoints. Request logging
// wraps the whole router so unmatched paths are logged too.
func (c *Controller) Router() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/chart/now", c.handlers.GetChartNow).Methods(http.MethodGet)
	router.HandleFunc("/chart/event", c.handlers.GetChartEvent).Methods(http.MethodGet)
	router.HandleFunc("/charts", c.handlers.ListCharts).Methods(http.MethodGet)
	router.HandleFunc("/charts/{id:[0-9]+}", c.handlers.GetChart).Methods(http.MethodGet)

	return log.HTTPMiddleware(router)
}
