package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/prediction"
	"github.com/nergy-se/factoryenergy/pkg/machine"
	"github.com/nergy-se/factoryenergy/pkg/metrics"
	"github.com/nergy-se/factoryenergy/pkg/predictor"
	"github.com/sirupsen/logrus"
)

const (
	rootMessage = "Smart Factory Energy Optimizer Backend Running"

	defaultTemperature = 25.0
	defaultHumidity    = 60.0
)

// writeJSON encodes v before writing the status so an encoding failure is still answered with a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		logrus.Errorf("error encoding response: %s", err)
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(buf).Encode(prediction.ErrorResponse{Detail: "Internal Server Error"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logrus.Debugf("error writing response: %s", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, prediction.ErrorResponse{Detail: detail})
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	ready := s.predictor.Ready()
	status := "ready"
	if !ready {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, prediction.RootResponse{
		Message:     rootMessage,
		ModelLoaded: ready,
		Status:      status,
		Strategy:    s.predictor.Strategy(),
		Version:     s.version,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, prediction.HealthResponse{
		Status:      "healthy",
		ModelLoaded: s.predictor.Ready(),
		Strategy:    s.predictor.Strategy(),
		Timestamp:   s.now(),
	})
}

func (s *Server) machines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, prediction.MachinesResponse{
		Machines:     machine.All(),
		Descriptions: machine.Descriptions(),
	})
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	strategy := string(s.predictor.Strategy())

	req := &prediction.Request{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.metrics.Prediction(strategy, machineLabel(nil), metrics.OutcomeInvalid)
		writeDetail(w, http.StatusUnprocessableEntity, []prediction.FieldError{prediction.DecodeError(err)})
		return
	}
	if errs := req.Validate(s.predictor.Strategy()); len(errs) > 0 {
		s.metrics.Prediction(strategy, machineLabel(req.Machine), metrics.OutcomeInvalid)
		writeDetail(w, http.StatusUnprocessableEntity, errs)
		return
	}

	in := req.Input()
	est, err := s.predictor.Predict(in)
	if err != nil {
		s.predictError(w, in.Machine, err)
		return
	}
	s.metrics.Prediction(strategy, est.Machine, metrics.OutcomeOK)
	writeJSON(w, http.StatusOK, prediction.NewResponse(est, s.now()))
}

func (s *Server) batch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	temperature, err := floatParam(q, "temperature", defaultTemperature)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []prediction.FieldError{queryError("temperature")})
		return
	}
	humidity, err := floatParam(q, "humidity", defaultHumidity)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, []prediction.FieldError{queryError("humidity")})
		return
	}
	if !s.predictor.Ready() {
		s.predictError(w, "", predictor.ErrModelUnavailable)
		return
	}

	now := s.now()
	resp := prediction.BatchResponse{Timestamp: now}
	for _, id := range machine.All() {
		est, err := s.predictor.Predict(predictor.Input{
			Machine:     id,
			Hour:        now.Hour(),
			Day:         now.Day(),
			Temperature: predictor.Pointer(temperature),
			Humidity:    predictor.Pointer(humidity),
		})
		if err != nil {
			s.predictError(w, id, err)
			return
		}
		s.metrics.Prediction(string(est.Strategy), est.Machine, metrics.OutcomeOK)
		resp.Predictions = append(resp.Predictions, prediction.NewResponse(est, now))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) predictError(w http.ResponseWriter, machineID string, err error) {
	strategy := string(s.predictor.Strategy())
	label := machineLabel(&machineID)
	switch {
	case errors.Is(err, predictor.ErrUnknownMachine):
		s.metrics.Prediction(strategy, label, metrics.OutcomeBadRequest)
		writeDetail(w, http.StatusBadRequest, "Unknown machine: "+machineID)
	case errors.Is(err, predictor.ErrModelUnavailable):
		s.metrics.Prediction(strategy, label, metrics.OutcomeUnavailable)
		writeDetail(w, http.StatusServiceUnavailable, "ML model not available.")
	case errors.Is(err, predictor.ErrOutOfRange):
		s.metrics.Prediction(strategy, label, metrics.OutcomeInvalid)
		writeDetail(w, http.StatusUnprocessableEntity, "Prediction is out of range for the given input.")
	case errors.Is(err, predictor.ErrMissingReading):
		s.metrics.Prediction(strategy, label, metrics.OutcomeInvalid)
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
	default:
		logrus.WithField("machine", machineID).Errorf("error predicting: %s", err)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// machineLabel keeps metric cardinality bounded by collapsing unknown identifiers.
func machineLabel(id *string) string {
	if id == nil || !machine.Valid(*id) {
		return "unknown"
	}
	return *id
}

func floatParam(q url.Values, name string, def float64) (float64, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s is not a finite number", name)
	}
	return f, nil
}

func queryError(name string) prediction.FieldError {
	return prediction.FieldError{Loc: []string{"query", name}, Msg: "value is not a valid float", Type: "type_error.float"}
}
