package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/estimate"
	"github.com/rshade/footprint/internal/logging"
	"github.com/rshade/footprint/internal/report"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Calculator runs a footprint calculation.
type Calculator interface {
	Calculate(ctx context.Context, in activity.Input) (*engine.Snapshot, error)
}

// Handler serves the footprint HTTP API.
type Handler struct {
	calc         Calculator
	apiKeyLoaded bool
}

// NewHandler builds a Handler. apiKeyLoaded is reported by /health.
func NewHandler(calc Calculator, apiKeyLoaded bool) *Handler {
	return &Handler{calc: calc, apiKeyLoaded: apiKeyLoaded}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.health)
	mux.HandleFunc("/api/calculate", h.calculate)
	mux.HandleFunc("/api/vehicle", h.vehicle)
	mux.HandleFunc("/api/electricity", h.electricity)
	mux.Handle("/metrics", promhttp.Handler())
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	OK           bool   `json:"ok"`
	APIKeyLoaded bool   `json:"apiKeyLoaded"`
	Msg          string `json:"msg"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{OK: true, APIKeyLoaded: h.apiKeyLoaded, Msg: "Server is up"})
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	in, err := activity.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), activity.FormatJSON)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	snap, err := h.calc.Calculate(r.Context(), in)
	if err != nil {
		logging.FromContext(r.Context()).Error().Ctx(r.Context()).
			Str("operation", "calculate").Err(err).Msg("calculation aborted")
		writeError(w, http.StatusServiceUnavailable, "calculation_aborted", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report.Build(snap))
}

// VehicleRequest is the body of /api/vehicle.
type VehicleRequest struct {
	DistanceValue activity.Quantity `json:"distance_value"`
	DistanceUnit  string            `json:"distance_unit"`
	Mode          string            `json:"mode"`
}

// ElectricityRequest is the body of /api/electricity.
type ElectricityRequest struct {
	ElectricityValue activity.Quantity `json:"electricity_value"`
	ElectricityUnit  string            `json:"electricity_unit"`
	Region           string            `json:"region"`
}

// CarbonResponse is the success body of the single-activity endpoints.
type CarbonResponse struct {
	Data struct {
		Attributes struct {
			CarbonKg float64 `json:"carbon_kg"`
			Method   string  `json:"method"`
		} `json:"attributes"`
	} `json:"data"`
}

func (h *Handler) vehicle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	var req VehicleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	in := activity.Input{Trips: []activity.Trip{{
		Mode:         activity.ResolveTripMode(req.Mode),
		Distance:     float64(req.DistanceValue),
		DistanceUnit: activity.ResolveDistanceUnit(req.DistanceUnit),
	}}}
	h.single(w, r, in, "vehicle")
}

func (h *Handler) electricity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	var req ElectricityRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	in := activity.Input{Electricity: activity.ElectricityUsage{
		Amount:     float64(req.ElectricityValue),
		EnergyUnit: activity.ResolveEnergyUnit(req.ElectricityUnit),
		GridRegion: activity.NormalizeRegion(req.Region),
	}}
	h.single(w, r, in, "electricity")
}

// single calculates a one-record input. A failed estimate is reported with
// its kind and never as zero emissions.
func (h *Handler) single(w http.ResponseWriter, r *http.Request, in activity.Input, op string) {
	ctx := r.Context()
	snap, err := h.calc.Calculate(ctx, in)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "calculation_aborted", err.Error())
		return
	}
	if len(snap.Failures) > 0 {
		f := snap.Failures[0]
		logging.FromContext(ctx).Warn().Ctx(ctx).
			Str("operation", op).
			Stringer("kind", f.Kind).
			Int("upstream_status", f.Status).
			Msg("estimate failed")
		writeFailure(w, f)
		return
	}

	var resp CarbonResponse
	resp.Data.Attributes.CarbonKg = snap.Totals.TotalKg
	switch {
	case len(snap.Details.Trips) > 0:
		resp.Data.Attributes.Method = snap.Details.Trips[0].Method.String()
	case snap.Details.Electricity != nil:
		resp.Data.Attributes.Method = snap.Details.Electricity.Method.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// FailureResponse describes a record whose estimate could not be produced.
type FailureResponse struct {
	Type    string `json:"type"`
	Detail  string `json:"detail"`
	Status  int    `json:"upstreamStatus,omitempty"`
	Payload string `json:"upstreamPayload,omitempty"`
}

// StatusForKind maps an estimation error kind to an HTTP status. Rejected
// requests are a bad gateway and overflowing quantities are unprocessable.
// Everything else is unavailable.
func StatusForKind(k estimate.Kind) int {
	switch k {
	case estimate.KindUpstreamRejected:
		return http.StatusBadGateway
	case estimate.KindOverflow:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

func writeFailure(w http.ResponseWriter, f engine.Failure) {
	writeJSON(w, StatusForKind(f.Kind), FailureResponse{
		Type:    f.Kind.String(),
		Detail:  f.Message,
		Status:  f.Status,
		Payload: f.Payload,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return fmt.Errorf("malformed json at offset %d: %w", syntaxErr.Offset, err)
		}
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{
		"type":   code,
		"detail": detail,
	})
}

// writeJSON encodes payload before touching the response, so an encoding
// failure is reported as a 500 instead of a truncated success.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
