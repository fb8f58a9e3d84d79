package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/config"
	"github.com/nergy-se/factoryenergy/pkg/api/v1/types"
	"github.com/nergy-se/factoryenergy/pkg/metrics"
	"github.com/nergy-se/factoryenergy/pkg/predictor"
	"github.com/nergy-se/factoryenergy/pkg/predictor/formula"
	"github.com/nergy-se/factoryenergy/pkg/predictor/lookup"
	"github.com/nergy-se/factoryenergy/pkg/predictor/regression"
	"github.com/nergy-se/factoryenergy/pkg/server"
	"github.com/nergy-se/factoryenergy/pkg/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

type App struct {
	wg       *sync.WaitGroup
	config   *config.Config
	server   *http.Server
	listener net.Listener
}

func New(config *config.Config) *App {
	return &App{
		wg:     &sync.WaitGroup{},
		config: config,
	}
}

// Start builds the configured predictor and serves HTTP until ctx is done.
func (a *App) Start(ctx context.Context) error {
	p, err := newPredictor(a.config)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := server.New(server.Options{
		Predictor: p,
		Metrics:   metrics.NewService(reg),
		Gatherer:  reg,
		Origins:   a.config.Origins(),
		Version:   version.Get().String(),
	})

	a.listener, err = net.Listen("tcp", a.config.Listen)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", a.config.Listen, err)
	}
	a.server = &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logrus.WithFields(logrus.Fields{
		"addr":        a.Addr(),
		"strategy":    p.Strategy(),
		"ready":       p.Ready(),
		"cors_origin": a.config.Origins(),
	}).Info("energy predictor listening")

	a.wg.Add(2)
	go a.serve()
	go a.shutdownOnDone(ctx)
	return nil
}

func (a *App) Wait() {
	a.wg.Wait()
}

// Addr is the bound listen address, useful when listening on port 0.
func (a *App) Addr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

func (a *App) serve() {
	defer a.wg.Done()
	err := a.server.Serve(a.listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Errorf("error serving http: %s", err)
	}
}

func (a *App) shutdownOnDone(ctx context.Context) {
	defer a.wg.Done()
	<-ctx.Done()

	timeout := time.Duration(a.config.ShutdownTimeout) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logrus.Info("shutting down http server")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error shutting down http server: %s", err)
	}
}

func newPredictor(c *config.Config) (predictor.Predictor, error) {
	var p predictor.Predictor
	switch c.PredictionStrategy() {
	case types.StrategyFormula:
		p = formula.New()
	case types.StrategyLookup:
		p = lookup.New()
	case types.StrategyModel:
		p = regression.Open(c.ModelPath)
	default:
		return nil, fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	return predictor.WithMachinePolicy(p, c.UnknownMachinePolicy()), nil
}
