// Package restserver exposes the GDD core over HTTP. Routes and payload
// field names follow the contract the dashboard frontend consumes.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/turftrack/turftrack/internal/log"
	"github.com/turftrack/turftrack/pkg/config"
)

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.HTTPData
	Server     http.Server
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.HTTPData, svc GDDService, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		logger:     logger,
	}

	// If a listen address was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("http.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}
	if rc.Port == 0 {
		logger.Info("http.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	ctrl.handlers = NewHandlers(svc, logger)

	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = router

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.Use(requestLogMiddleware)

	h := c.handlers

	// Location-scoped routes come first so "location" isn't swallowed by
	// the {id} matcher.
	router.HandleFunc("/gdd_models/location/{id:[0-9]+}/dashboard", h.GetDashboard).Methods(http.MethodGet)
	router.HandleFunc("/gdd_models/location/{id:[0-9]+}", h.ListModelsByLocation).Methods(http.MethodGet)

	router.HandleFunc("/gdd_models/", h.CreateModel).Methods(http.MethodPost)
	router.HandleFunc("/gdd_models/", h.ListModels).Methods(http.MethodGet)

	router.HandleFunc("/gdd_models/{id:[0-9]+}/history", h.GetParameterHistory).Methods(http.MethodGet)
	router.HandleFunc("/gdd_models/{id:[0-9]+}/parameters", h.UpdateParameters).Methods(http.MethodPut)
	router.HandleFunc("/gdd_models/{id:[0-9]+}/reset", h.ManualReset).Methods(http.MethodPost)
	router.HandleFunc("/gdd_models/{id:[0-9]+}/resets", h.ListResets).Methods(http.MethodGet)
	router.HandleFunc("/gdd_models/{id:[0-9]+}/resets/{resetId:[0-9]+}", h.DeleteReset).Methods(http.MethodDelete)
	router.HandleFunc("/gdd_models/{id:[0-9]+}/runs/{run:[0-9]+}/values", h.GetRunValues).Methods(http.MethodGet)

	router.HandleFunc("/gdd_models/{id:[0-9]+}", h.GetModel).Methods(http.MethodGet)
	router.HandleFunc("/gdd_models/{id:[0-9]+}", h.UpdateModel).Methods(http.MethodPut)
	router.HandleFunc("/gdd_models/{id:[0-9]+}", h.DeleteModel).Methods(http.MethodDelete)

	return router
}
