package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mathieuventurini/QuittanceOnClick/internal/auth"
	"github.com/mathieuventurini/QuittanceOnClick/internal/domain"
	"github.com/mathieuventurini/QuittanceOnClick/internal/issuance"
)

// maxRequestBodySize is the maximum allowed request body size (1MB).
const maxRequestBodySize = 1 << 20

// Gate authenticates requests. Satisfied by *auth.Gate.
type Gate interface {
	Login(password string) (string, error)
	Cookie(token string) *http.Cookie
	Authenticated(r *http.Request) bool
}

// Issuer is the part of the issuance workflow the HTTP surface uses.
type Issuer interface {
	SendManual(ctx context.Context, req issuance.ManualRequest) (domain.Receipt, error)
	Preview(req issuance.ManualRequest, now time.Time) ([]byte, error)
}

// Store is the document access the read endpoints need.
type Store interface {
	Load(ctx context.Context) (domain.Document, error)
	Save(ctx context.Context, doc domain.Document) error
	Ping(ctx context.Context) error
}

// MetricsSink records auth failures. Fire-and-forget.
type MetricsSink interface {
	AuthFailure()
}

type Handler struct {
	gate    Gate
	issuer  Issuer
	store   Store
	clock   func() time.Time
	metrics MetricsSink // optional, nil = disabled
}

func NewHandler(gate Gate, issuer Issuer, store Store) *Handler {
	return &Handler{
		gate:   gate,
		issuer: issuer,
		store:  store,
		clock:  time.Now,
	}
}

// WithClock overrides the time source used for preview dates.
func (h *Handler) WithClock(clock func() time.Time) *Handler {
	h.clock = clock
	return h
}

// WithMetrics attaches a metrics sink.
func (h *Handler) WithMetrics(sink MetricsSink) *Handler {
	h.metrics = sink
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/health" && r.Method == http.MethodGet:
		h.health(w, r)

	case r.URL.Path == "/auth/login" && r.Method == http.MethodPost:
		h.login(w, r)

	case r.URL.Path == "/auth/me" && r.Method == http.MethodGet:
		h.me(w, r)

	case r.URL.Path == "/automation/status" && r.Method == http.MethodGet:
		h.authenticated(w, r, h.automationStatus)

	case r.URL.Path == "/automation/status" && r.Method == http.MethodPost:
		h.authenticated(w, r, h.setAutomationStatus)

	case r.URL.Path == "/history" && r.Method == http.MethodGet:
		h.authenticated(w, r, h.history)

	case r.URL.Path == "/receipts/preview" && r.Method == http.MethodPost:
		h.authenticated(w, r, h.preview)

	case r.URL.Path == "/receipts/send" && r.Method == http.MethodPost:
		h.authenticated(w, r, h.send)

	case knownPath(r.URL.Path):
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func knownPath(path string) bool {
	switch path {
	case "/health", "/auth/login", "/auth/me", "/automation/status", "/history", "/receipts/preview", "/receipts/send":
		return true
	}
	return false
}

// authenticated rejects the request with 401 unless it carries a valid
// session token.
func (h *Handler) authenticated(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	if !h.gate.Authenticated(r) {
		if h.metrics != nil {
			h.metrics.AuthFailure()
		}
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	next(w, r)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	verbose := r.URL.Query().Get("verbose") == "true"

	if !verbose {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}

	resp := HealthResponse{
		Status:     "ok",
		Components: make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Components["store"] = "unhealthy: " + err.Error()
	} else {
		resp.Components["store"] = "healthy"
	}

	statusCode := http.StatusOK
	if resp.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, resp)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, err := h.gate.Login(req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.AuthFailure()
		}
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	http.SetCookie(w, h.gate.Cookie(token))
	writeJSON(w, http.StatusOK, LoginResponse{Success: true})
}

// me always answers 200 so the front-end can branch on the flag
// instead of handling a 401.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MeResponse{Authenticated: h.gate.Authenticated(r)})
}

func (h *Handler) automationStatus(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Load(r.Context())
	if err != nil {
		log.Printf("api: automation status error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read automation status")
		return
	}
	writeJSON(w, http.StatusOK, doc.Automation)
}

func (h *Handler) setAutomationStatus(w http.ResponseWriter, r *http.Request) {
	var req AutomationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	doc, err := h.store.Load(r.Context())
	if err != nil {
		log.Printf("api: automation status error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read automation status")
		return
	}

	doc.Automation.SkipNext = req.SkipNext
	if err := h.store.Save(r.Context(), doc); err != nil {
		log.Printf("api: automation status save error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update automation status")
		return
	}

	writeJSON(w, http.StatusOK, doc.Automation)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Load(r.Context())
	if err != nil {
		log.Printf("api: history error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	writeJSON(w, http.StatusOK, doc.Receipts)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := validatePreview(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.issuer.Preview(issuance.ManualRequest{
		TenantName: req.TenantName,
		Address:    req.Address,
		Amount:     req.Amount,
		Period:     req.Period,
	}, h.clock())
	if err != nil {
		log.Printf("api: preview error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to generate receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=preview.pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		log.Printf("api: preview write error: %v", err)
	}
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := validateSend(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := h.issuer.SendManual(r.Context(), issuance.ManualRequest{
		Email:      req.Email,
		TenantName: req.TenantName,
		Address:    req.Address,
		Amount:     req.Amount,
		Period:     req.Period,
		Force:      req.Force,
	})
	if errors.Is(err, issuance.ErrDuplicate) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		log.Printf("api: send error: %v", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to send receipt: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, SendResponse{Success: true, Receipt: receipt})
}

// decodeBody decodes a JSON request body, answering 400/413 itself.
// Returns false when the request has already been answered.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: json encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// Ensure *auth.Gate keeps satisfying the Gate interface.
var _ Gate = (*auth.Gate)(nil)
