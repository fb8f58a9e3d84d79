package prediction

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"time"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/types"
	"github.com/nergy-se/factoryenergy/pkg/predictor"
)

// Request is the POST /predict body. Pointer fields distinguish missing from zero.
type Request struct {
	Machine     *string  `json:"machine"`
	Hour        *int     `json:"hour"`
	Day         *int     `json:"day"`
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
}

type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func missing(field string) FieldError {
	return FieldError{Loc: []string{"body", field}, Msg: "field required", Type: "value_error.missing"}
}

// Validate returns one FieldError per missing required field. Temperature and humidity are only
// required by the lookup strategy.
func (r *Request) Validate(strategy types.Strategy) []FieldError {
	var errs []FieldError
	if r.Machine == nil {
		errs = append(errs, missing("machine"))
	}
	if r.Hour == nil {
		errs = append(errs, missing("hour"))
	}
	if r.Day == nil {
		errs = append(errs, missing("day"))
	}
	if strategy == types.StrategyLookup {
		if r.Temperature == nil {
			errs = append(errs, missing("temperature"))
		}
		if r.Humidity == nil {
			errs = append(errs, missing("humidity"))
		}
	}
	return errs
}

// Input must only be called after Validate returned no errors.
func (r *Request) Input() predictor.Input {
	return predictor.Input{
		Machine:     *r.Machine,
		Hour:        *r.Hour,
		Day:         *r.Day,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
	}
}

type Response struct {
	PredictedEnergy float64        `json:"predicted_energy"`
	Machine         string         `json:"machine"`
	Hour            int            `json:"hour"`
	Day             int            `json:"day"`
	Strategy        types.Strategy `json:"strategy"`

	Temperature         *float64 `json:"temperature,omitempty"`
	Humidity            *float64 `json:"humidity,omitempty"`
	WorkHours           *bool    `json:"work_hours,omitempty"`
	TemperatureCategory string   `json:"temperature_category,omitempty"`
	HumidityFactor      *float64 `json:"humidity_factor,omitempty"`
	DayFactor           *float64 `json:"day_factor,omitempty"`
	ModelVersion        string   `json:"model_version,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

func NewResponse(e *predictor.Estimate, now time.Time) *Response {
	return &Response{
		PredictedEnergy:     e.Energy,
		Machine:             e.Machine,
		Hour:                e.Hour,
		Day:                 e.Day,
		Strategy:            e.Strategy,
		Temperature:         e.Temperature,
		Humidity:            e.Humidity,
		WorkHours:           e.WorkHours,
		TemperatureCategory: e.TemperatureCategory,
		HumidityFactor:      e.HumidityFactor,
		DayFactor:           e.DayFactor,
		ModelVersion:        e.ModelVersion,
		Timestamp:           now,
	}
}

type BatchResponse struct {
	Predictions []*Response `json:"predictions"`
	Timestamp   time.Time   `json:"timestamp"`
}

type MachinesResponse struct {
	Machines     []string          `json:"machines"`
	Descriptions map[string]string `json:"descriptions"`
}

type HealthResponse struct {
	Status      string         `json:"status"`
	ModelLoaded bool           `json:"model_loaded"`
	Strategy    types.Strategy `json:"strategy"`
	Timestamp   time.Time      `json:"timestamp"`
}

type RootResponse struct {
	Message     string         `json:"message"`
	ModelLoaded bool           `json:"model_loaded"`
	Status      string         `json:"status"`
	Strategy    types.Strategy `json:"strategy"`
	Version     string         `json:"version"`
}

// ErrorResponse carries either a message or a list of FieldError.
type ErrorResponse struct {
	Detail any `json:"detail"`
}

// DecodeError converts a JSON decoding error of the request body into a FieldError.
func DecodeError(err error) FieldError {
	if errors.Is(err, io.EOF) {
		return FieldError{Loc: []string{"body"}, Msg: "field required", Type: "value_error.missing"}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		loc := []string{"body"}
		if typeErr.Field != "" {
			loc = append(loc, typeErr.Field)
		}
		kind := "value"
		switch typeErr.Type.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			kind = "integer"
		case reflect.Float32, reflect.Float64:
			kind = "float"
		case reflect.String:
			kind = "str"
		case reflect.Struct:
			kind = "dict"
		}
		return FieldError{Loc: loc, Msg: "value is not a valid " + kind, Type: "type_error." + kind}
	}

	return FieldError{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error.jsondecode"}
}
