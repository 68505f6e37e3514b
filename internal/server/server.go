package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/iwvelando/savings-protocol/internal/protocol"
	"github.com/iwvelando/savings-protocol/internal/ratelimit"
	"github.com/iwvelando/savings-protocol/pkg/constants"
	"github.com/iwvelando/savings-protocol/pkg/validation"
	"go.uber.org/zap"
)

const (
	decisionProcessed = "processed"
	decisionRejected  = "rejected"

	internalErrorReason     = "Internal processing error."
	internalErrorSuggestion = "Try again in a few moments."
	malformedSuggestion     = "Send a well-formed JSON body."
)

type handler struct {
	logger      *zap.Logger
	svc         *protocol.Service
	limiter     *ratelimit.Limiter
	maxBodySize int64
	version     string
	now         func() time.Time
}

// Option customizes the handler built by NewHandler.
type Option func(*handler)

// WithLimiter supplies the limiter. Without it NewHandler builds one from the
// configured rate limits.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(h *handler) {
		if l != nil {
			h.limiter = l
		}
	}
}

// WithClock overrides the clock used for rejection timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *handler) {
		if now != nil {
			h.now = now
		}
	}
}

type progressiveRequest struct {
	Goal     *protocol.Goal       `json:"goal"`
	Protocol *protocol.Parameters `json:"protocol"`
}

type optimizedRequest struct {
	Goal *protocol.Goal `json:"goal"`
}

type simulateRequest struct {
	Goal *protocol.Goal `json:"goal"`
	protocol.Sweep
}

type assessRequest struct {
	Goal     *protocol.Goal `json:"goal"`
	Deposits []float64      `json:"deposits"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Message string `json:"message"`
}

type rejection struct {
	ProtocolVersion string    `json:"protocol_version"`
	Decision        string    `json:"decision"`
	Reason          string    `json:"reason"`
	Field           string    `json:"field,omitempty"`
	Suggestion      string    `json:"suggestion"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewHandler constructs the HTTP handler that serves the protocol API.
func NewHandler(logger *zap.Logger, svc *protocol.Service, cfg *Config, version string, opts ...Option) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if svc == nil {
		svc = protocol.NewService(logger, validation.DefaultLimits())
	}

	maxBodySize := cfg.BodySizeBytes()
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		svc:         svc,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.limiter == nil {
		h.limiter = ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.RequestsPerHour)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(h.rateLimit)

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	r.Get("/api/version", h.handleVersion)

	r.Route("/api/v1/protocols", func(r chi.Router) {
		r.Post("/progressive", h.handleProgressive)
		r.Post("/optimized", h.handleOptimized)
		r.Post("/compare", h.handleCompare)
		r.Post("/simulate", h.handleSimulate)
		r.Post("/assessment", h.handleAssess)
		r.Get("/info", h.handleInfo)
	})

	return r
}

func (h *handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Version: h.version,
		Message: "Savings protocol API operational.",
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Version: h.version,
		Message: "System operational.",
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version":          h.version,
		"protocol_version": constants.ProtocolVersion,
	})
}

func (h *handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Info())
}

func (h *handler) handleProgressive(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProgressive"

	var req progressiveRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Goal == nil {
		h.reject(w, http.StatusBadRequest, &validation.RejectionError{Field: "goal", Reason: "goal is required"}, op)
		return
	}
	params := h.svc.Defaults()
	if req.Protocol != nil {
		params = *req.Protocol
	}

	resp, err := h.svc.Progressive(*req.Goal, params)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleOptimized(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimized"

	var req optimizedRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Goal == nil {
		h.reject(w, http.StatusBadRequest, &validation.RejectionError{Field: "goal", Reason: "goal is required"}, op)
		return
	}

	resp, err := h.svc.Optimized(*req.Goal)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"

	var req progressiveRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Goal == nil {
		h.reject(w, http.StatusBadRequest, &validation.RejectionError{Field: "goal", Reason: "goal is required"}, op)
		return
	}
	params := h.svc.Defaults()
	if req.Protocol != nil {
		params = *req.Protocol
	}

	cmp, err := h.svc.Compare(*req.Goal, params)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, cmp)
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"

	var req simulateRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Goal == nil {
		h.reject(w, http.StatusBadRequest, &validation.RejectionError{Field: "goal", Reason: "goal is required"}, op)
		return
	}

	sim, err := h.svc.Simulate(*req.Goal, req.Sweep)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, sim)
}

func (h *handler) handleAssess(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAssess"

	var req assessRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Goal == nil {
		h.reject(w, http.StatusBadRequest, &validation.RejectionError{Field: "goal", Reason: "goal is required"}, op)
		return
	}

	assessment, err := h.svc.Assess(*req.Goal, req.Deposits)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, assessment)
}

// decode reads a size-limited JSON body into dst. It writes the error
// response itself and reports whether the handler should continue.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.reject(w, http.StatusRequestEntityTooLarge, &validation.RejectionError{
				Reason:     fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize),
				Suggestion: "Send a smaller request body.",
			}, op)
			return false
		}
		h.reject(w, http.StatusBadRequest, &validation.RejectionError{
			Reason:     fmt.Sprintf("malformed request body: %v", err),
			Suggestion: malformedSuggestion,
		}, op)
		return false
	}
	return true
}

func (h *handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	var rejectionErr *validation.RejectionError
	if errors.As(err, &rejectionErr) {
		h.reject(w, http.StatusUnprocessableEntity, rejectionErr, op)
		return
	}

	h.logger.Error("protocol request failed",
		zap.String("op", op),
		zap.Error(err),
	)
	h.writeJSON(w, http.StatusInternalServerError, rejection{
		ProtocolVersion: constants.ProtocolVersion,
		Decision:        decisionRejected,
		Reason:          internalErrorReason,
		Suggestion:      internalErrorSuggestion,
		CreatedAt:       h.now().UTC(),
	})
}

func (h *handler) reject(w http.ResponseWriter, status int, rej *validation.RejectionError, op string) {
	h.logger.Warn("protocol request rejected",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("field", rej.Field),
		zap.String("reason", rej.Reason),
	)

	suggestion := rej.Suggestion
	if suggestion == "" {
		suggestion = "Review the protocol parameters."
	}
	h.writeJSON(w, status, rejection{
		ProtocolVersion: constants.ProtocolVersion,
		Decision:        decisionRejected,
		Reason:          rej.Reason,
		Field:           rej.Field,
		Suggestion:      suggestion,
		CreatedAt:       h.now().UTC(),
	})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

// logRequests records one line per request. Bodies and amounts are never
// logged.
func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		decision := decisionProcessed
		if status >= http.StatusBadRequest {
			decision = decisionRejected
		}

		h.logger.Info("HTTP request",
			zap.String("op", "server.logRequests"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("decision", decision),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (h *handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if err := h.limiter.Allow(clientKey(r)); err != nil {
			var limitErr *ratelimit.LimitError
			if !errors.As(err, &limitErr) {
				h.respondServiceError(w, err, "server.rateLimit")
				return
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(limitErr.Window.Length.Seconds())))
			h.reject(w, http.StatusTooManyRequests, &validation.RejectionError{
				Reason:     "Rate limit exceeded: " + limitErr.Error(),
				Suggestion: "Slow down and retry once the " + limitErr.Window.Name + " window has passed.",
			}, "server.rateLimit")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller by IP. RealIP has already rewritten
// RemoteAddr from the forwarding headers when present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("X-Content-Type-Options", "nosniff")
		header.Set("X-Frame-Options", "DENY")
		header.Set("X-XSS-Protection", "1; mode=block")
		header.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}
