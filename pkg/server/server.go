// Package server exposes a Predictor over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/nergy-se/factoryenergy/pkg/metrics"
	"github.com/nergy-se/factoryenergy/pkg/predictor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// corsHeaders may be sent by browsers on cross-origin requests. Accept, Accept-Language, Content-Language
// and Origin are always allowed by the CORS handler.
var corsHeaders = []string{
	"Authorization",
	"Cache-Control",
	"Content-Type",
	"If-Match",
	"If-None-Match",
	"If-Modified-Since",
	"Pragma",
	"Traceparent",
	"Tracestate",
	"X-CSRF-Token",
	"X-Request-ID",
	"X-Requested-With",
}

type Options struct {
	Predictor predictor.Predictor
	Metrics   *metrics.Service
	Gatherer  prometheus.Gatherer
	Origins   []string
	Version   string

	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	predictor predictor.Predictor
	metrics   *metrics.Service
	gatherer  prometheus.Gatherer
	origins   []string
	version   string
	now       func() time.Time
}

func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.NewRegistry()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewService(prometheus.NewRegistry())
	}
	s := &Server{
		predictor: opts.Predictor,
		metrics:   opts.Metrics,
		gatherer:  opts.Gatherer,
		origins:   opts.Origins,
		version:   opts.Version,
		now:       opts.Now,
	}
	s.metrics.SetModelLoaded(s.predictor.Ready())
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.HandleFunc("/", s.root).Methods("GET")
	r.HandleFunc("/health", s.health).Methods("GET")
	r.HandleFunc("/machines", s.machines).Methods("GET")
	r.HandleFunc("/predict", s.predict).Methods("POST")
	r.HandleFunc("/predict/batch", s.batch).Methods("GET")
	r.Handle("/metrics", metrics.Handler(s.gatherer)).Methods("GET")
	return r
}

// Handler returns the router wrapped in recovery, CORS and request logging.
func (s *Server) Handler() http.Handler {
	router := s.Router()
	var h http.Handler = s.logRequests(router, router)
	h = handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"}),
		handlers.AllowedHeaders(corsHeaders),
		handlers.AllowCredentials(),
	)(h)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(logrus.StandardLogger()),
		handlers.PrintRecoveryStack(true),
	)(h)
}
