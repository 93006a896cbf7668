package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/deal-calculator/internal/deal"
	"github.com/iwvelando/deal-calculator/internal/service"
	"github.com/iwvelando/deal-calculator/internal/store"
	"github.com/iwvelando/deal-calculator/pkg/constants"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type handler struct {
	service       *service.DealService
	logger        *zap.Logger
	limiter       *rate.Limiter
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the deal API.
func NewHandler(svc *service.DealService, cfg *Config, logger *zap.Logger, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{}
		if err := cfg.normalize(); err != nil {
			logger.Warn("failed to normalize server defaults", zap.String("op", "server.NewHandler"), zap.Error(err))
		}
	}

	maxUploadSize := cfg.UploadSizeBytes()
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		service:       svc,
		logger:        logger,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.rateLimit)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Post("/recompute", h.handleRecompute)
		r.Post("/{variant}/stages/{stage}", h.handleStage)

		r.Route("/deals", func(r chi.Router) {
			r.Get("/", h.handleListDeals)
			r.Post("/", h.handleCreateDeal)
			r.Get("/{id}", h.handleGetDeal)
			r.Put("/{id}", h.handleUpdateDeal)
			r.Delete("/{id}", h.handleDeleteDeal)
			r.Post("/{id}/recalculate", h.handleRecalculateDeal)
			r.Patch("/{id}/fields", h.handleFieldChange)
		})
	})

	return r
}

func (h *handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			h.logger.Warn("rate limit exceeded",
				zap.String("op", "server.rateLimit"),
				zap.String("path", r.URL.Path),
			)
			h.writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": http.StatusText(http.StatusTooManyRequests)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

type recomputeRequest struct {
	Variant       string      `json:"variant,omitempty"`
	Input         *deal.Input `json:"input,omitempty"`
	Domestic      *deal.Input `json:"domestic,omitempty"`
	International *deal.Input `json:"international,omitempty"`
	Force         bool        `json:"force,omitempty"`
}

type recomputeResponse struct {
	Domestic      *deal.Result `json:"domestic,omitempty"`
	International *deal.Result `json:"international,omitempty"`
	Duration      string       `json:"duration"`
}

type missingFieldsResponse struct {
	Error   string                    `json:"error"`
	Missing map[deal.Variant][]string `json:"missing"`
}

func (h *handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRecompute"
	start := time.Now()

	var req recomputeRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	inputs := make(map[deal.Variant]deal.Input)
	if strings.TrimSpace(req.Variant) != "" {
		variant, err := deal.ParseVariant(req.Variant)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		if req.Input == nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, "missing input", op)
			return
		}
		inputs[variant] = *req.Input
	} else {
		if req.Domestic != nil {
			inputs[deal.Domestic] = *req.Domestic
		}
		if req.International != nil {
			inputs[deal.International] = *req.International
		}
	}
	if len(inputs) == 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing input: expected variant and input, or domestic and/or international", op)
		return
	}

	if !req.Force {
		missing := make(map[deal.Variant][]string)
		for variant, in := range inputs {
			if fields := in.MissingRequired(variant); len(fields) > 0 {
				missing[variant] = fields
			}
		}
		if len(missing) > 0 {
			h.logger.Info("recompute rejected for missing fields",
				zap.String("op", op),
				zap.Int("variants", len(missing)),
			)
			h.writeJSON(w, http.StatusUnprocessableEntity, missingFieldsResponse{
				Error:   "please fill in all required fields",
				Missing: missing,
			})
			return
		}
	}

	var resp recomputeResponse
	for _, variant := range deal.Variants() {
		in, ok := inputs[variant]
		if !ok {
			continue
		}
		result, err := h.service.Calculate(r.Context(), variant, in)
		if err != nil {
			h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
			return
		}
		if variant == deal.Domestic {
			resp.Domestic = &result
		} else {
			resp.International = &result
		}
	}
	resp.Duration = time.Since(start).String()

	h.writeJSON(w, http.StatusOK, resp)
}

type stageRequest struct {
	Input   deal.Input   `json:"input"`
	Metrics deal.Metrics `json:"metrics"`
}

func (h *handler) handleStage(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleStage"

	variant, err := deal.ParseVariant(chi.URLParam(r, "variant"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	stage, err := deal.ParseStage(chi.URLParam(r, "stage"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}

	var req stageRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	out, err := h.service.RunStage(variant, stage, req.Input, req.Metrics)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

type dealRequest struct {
	Name    string     `json:"name"`
	Variant string     `json:"variant"`
	Input   deal.Input `json:"input"`
}

func (h *handler) handleListDeals(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), "server.handleListDeals")
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *handler) handleCreateDeal(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreateDeal"

	var req dealRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	variant, err := deal.ParseVariant(req.Variant)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	record, err := h.service.Save(r.Context(), req.Name, variant, req.Input)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusCreated, record)
}

func (h *handler) handleGetDeal(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), "server.handleGetDeal")
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *handler) handleUpdateDeal(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateDeal"

	var req dealRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	record, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.Name, req.Input)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *handler) handleDeleteDeal(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), "server.handleDeleteDeal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleRecalculateDeal(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Recalculate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), "server.handleRecalculateDeal")
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

type fieldChangeRequest struct {
	Field     string      `json:"field"`
	Value     interface{} `json:"value"`
	Recompute bool        `json:"recompute,omitempty"`
}

type fieldChangeResponse struct {
	Deal   *store.Record `json:"deal"`
	Stages []deal.Stage  `json:"stages"`
}

func (h *handler) handleFieldChange(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleFieldChange"

	var req fieldChangeRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if strings.TrimSpace(req.Field) == "" {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing field name", op)
		return
	}

	record, stages, err := h.service.ApplyChange(r.Context(), chi.URLParam(r, "id"), req.Field, req.Value, req.Recompute)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	if stages == nil {
		stages = []deal.Stage{}
	}
	h.writeJSON(w, http.StatusOK, fieldChangeResponse{Deal: record, Stages: stages})
}

// decode reads a JSON request body into dst, answering the request itself
// when the body is unusable.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidName), errors.Is(err, deal.ErrUnknownField), errors.Is(err, deal.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, deal.ErrRecomputeInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if h.logger != nil {
		h.logger.Error("deal request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && h.logger != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
