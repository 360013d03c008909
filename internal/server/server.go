// Package server exposes the transform, ranking and validation operations as
// a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MortalityWatch/mortality.watch-sub005/internal/ranking"
	"github.com/MortalityWatch/mortality.watch-sub005/internal/transform"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/datetime"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/metrickey"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

type loggerKey struct{}

type handler struct {
	logger         *zap.Logger
	maxUploadSize  int64
	version        string
	rankingWorkers int
	pipeline       *transform.Pipeline
	rows           *ranking.RowProcessor
	states         *validation.StateValidator
}

// NewHandler constructs the HTTP handler that serves the mortality API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, rankingWorkers int) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	if rankingWorkers <= 0 {
		rankingWorkers = constants.DefaultRankingWorkers
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:         logger,
		maxUploadSize:  maxUploadSize,
		version:        trimmedVersion,
		rankingWorkers: rankingWorkers,
		pipeline:       transform.NewPipeline(logger),
		rows:           ranking.NewRowProcessor(logger),
		states:         validation.NewStateValidator(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/transform", h.handleTransform)
	mux.HandleFunc("/api/transform/errorbar", h.handleErrorBar)
	mux.HandleFunc("/api/ranking", h.handleRanking)
	mux.HandleFunc("/api/validate/explorer", h.handleValidateExplorer)
	mux.HandleFunc("/api/validate/ranking", h.handleValidateRanking)
	mux.HandleFunc("/api/baseline-dates", h.handleBaselineDates)
	mux.HandleFunc("/api/version", h.handleVersion)

	return h.withRequestID(mux)
}

// withRequestID tags every request with an ID, reusing the client's when sent,
// and attaches a logger carrying it to the request context.
func (h *handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		logger := h.logger.With(zap.String("requestId", id))
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), loggerKey{}, logger)))
		logger.Debug("request served",
			zap.String("op", "server.withRequestID"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) requestLogger(r *http.Request) *zap.Logger {
	if logger, ok := r.Context().Value(loggerKey{}).(*zap.Logger); ok {
		return logger
	}
	return h.logger
}

type transformRequest struct {
	Config transform.Config `json:"config"`
	Series transform.Series `json:"series"`
	Key    string           `json:"key"`
}

type transformResponse struct {
	Key    string     `json:"key"`
	Values []*float64 `json:"values"`
}

type errorBarResponse struct {
	Key    string                     `json:"key"`
	Points []transform.ErrorDataPoint `json:"points"`
}

type rankingRequest struct {
	Rows           []ranking.RowInput `json:"rows"`
	SortBy         string             `json:"sortBy,omitempty"`
	Descending     bool               `json:"descending,omitempty"`
	ShowTotals     bool               `json:"showTotals"`
	ShowTotalsOnly bool               `json:"showTotalsOnly"`
	ShowIntervals  bool               `json:"showIntervals"`
}

type rankingResponse struct {
	Columns []string           `json:"columns"`
	Rows    []ranking.TableRow `json:"rows"`
}

type validationResponse struct {
	Valid      bool                   `json:"valid"`
	Violations []validation.Violation `json:"violations"`
}

func (h *handler) handleTransform(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTransform"
	var req transformRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}

	values, err := h.pipeline.TransformData(req.Config, req.Series, req.Key)
	if err != nil {
		h.respondErrorWithOp(w, r, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, r, http.StatusOK, transformResponse{Key: req.Key, Values: transform.Nullable(values)})
}

func (h *handler) handleErrorBar(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleErrorBar"
	var req transformRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}

	points, err := h.pipeline.TransformErrorBarData(req.Config, req.Series, req.Key)
	if err != nil {
		h.respondErrorWithOp(w, r, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, r, http.StatusOK, errorBarResponse{Key: req.Key, Points: points})
}

func (h *handler) handleRanking(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRanking"
	var req rankingRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}

	rows, err := h.rows.BuildTable(r.Context(), req.Rows, h.rankingWorkers)
	if err != nil {
		h.respondErrorWithOp(w, r, statusFor(err), err.Error(), op)
		return
	}
	if req.SortBy != "" {
		ranking.SortRows(rows, req.SortBy, req.Descending)
	}

	var periods []string
	totalKey := ""
	if len(req.Rows) > 0 {
		periods = req.Rows[0].Periods()
		totalKey = req.Rows[0].TotalKey
	}

	h.requestLogger(r).Info("ranking computed",
		zap.String("op", op),
		zap.Int("jurisdictions", len(req.Rows)),
		zap.Int("rows", len(rows)),
	)
	h.writeJSON(w, r, http.StatusOK, rankingResponse{
		Columns: ranking.Columns(periods, totalKey, req.ShowTotals, req.ShowTotalsOnly, req.ShowIntervals),
		Rows:    rows,
	})
}

func (h *handler) handleValidateExplorer(w http.ResponseWriter, r *http.Request) {
	var state validation.ExplorerState
	if !h.decodePost(w, r, &state, "server.handleValidateExplorer") {
		return
	}
	h.writeViolations(w, r, h.states.ValidateExplorerState(state))
}

func (h *handler) handleValidateRanking(w http.ResponseWriter, r *http.Request) {
	var state validation.RankingState
	if !h.decodePost(w, r, &state, "server.handleValidateRanking") {
		return
	}
	h.writeViolations(w, r, h.states.ValidateRankingState(state))
}

func (h *handler) handleBaselineDates(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleBaselineDates"
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	var labels []string
	if raw := strings.TrimSpace(q.Get("labels")); raw != "" {
		labels = strings.Split(raw, ",")
	}

	from, to, err := datetime.DefaultBaselineRange(q.Get("chartType"), q.Get("method"), labels)
	if err != nil {
		h.respondErrorWithOp(w, r, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{"from": from, "to": to})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// decodePost checks the method and decodes a size-limited JSON body into v.
// It writes the error response itself and reports whether to continue.
func (h *handler) decodePost(w http.ResponseWriter, r *http.Request, v interface{}, op string) bool {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) writeViolations(w http.ResponseWriter, r *http.Request, violations []validation.Violation) {
	if violations == nil {
		violations = []validation.Violation{}
	}
	h.writeJSON(w, r, http.StatusOK, validationResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
	})
}

// statusFor maps caller errors to 400 and everything else to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, metrickey.ErrUnknownMetric),
		errors.Is(err, metrickey.ErrInvalidKey),
		errors.Is(err, datetime.ErrUnknownChartType),
		errors.Is(err, datetime.ErrUnknownBaselineMethod):
		return http.StatusBadRequest
	case errors.Is(err, datetime.ErrNoBaselinePeriod):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.requestLogger(r).Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, r, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.requestLogger(r).Error("failed to write JSON response", zap.Error(err))
	}
}
