// Package handler is the sync module's thin HTTP layer. It parses requests,
// delegates to the service and maps results to JSON; business rules stay out.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"syncgate/internal/sync/models"
	"syncgate/internal/sync/service"
	domainerrors "syncgate/pkg/domainerrors"
)

type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register wires the public sync endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/sync/{domain}", func(r chi.Router) {
		r.Post("/validate", h.handleValidate)
		r.Post("/apply", h.handleApply)
		r.Get("/transitions", h.handleTransitions)
		r.Get("/statuses", h.handleStatuses)
	})
}

// RegisterAdmin wires the admin endpoints. The caller is expected to mount
// these behind the admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/admin/sync/domains/{domain}", h.handleRegisterDomain)
	r.Get("/admin/sync/domains/{domain}/records", h.handleListRecords)
}

type validateRequest struct {
	FromStatus string         `json:"from_status"`
	ToStatus   string         `json:"to_status"`
	Context    map[string]any `json:"context,omitempty"`
}

// handleValidate answers the policy question without touching records.
// Denials are part of the answer, so the HTTP status is 200 either way.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, domainerrors.New(domainerrors.CodeInvalidInput, "invalid JSON body"))
		return
	}

	domain := chi.URLParam(r, "domain")
	result := h.svc.Validate(r.Context(), domain, req.FromStatus, req.ToStatus, req.Context)
	h.writeJSON(w, http.StatusOK, result)
}

// handleApply applies a client change. Policy denials and rejected version
// conflicts surface as 409 with the full result body so the mobile client
// can render the conflict.
func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	var req models.ChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, domainerrors.New(domainerrors.CodeInvalidInput, "invalid JSON body"))
		return
	}
	req.Domain = chi.URLParam(r, "domain")

	result, err := h.svc.Apply(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if !result.Applied && !result.Deduped {
		status = http.StatusConflict
	}
	h.writeJSON(w, status, result)
}

func (h *Handler) handleTransitions(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	from := r.URL.Query().Get("from")

	transitions := h.svc.AllowedTransitions(domain, from)
	if transitions == nil {
		transitions = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"domain":      domain,
		"from_status": from,
		"transitions": transitions,
	})
}

func (h *Handler) handleStatuses(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	statuses := h.svc.DomainStatuses(domain)
	if statuses == nil {
		statuses = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"domain":   domain,
		"statuses": statuses,
	})
}

func (h *Handler) handleRegisterDomain(w http.ResponseWriter, r *http.Request) {
	var cfg models.DomainConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.writeError(w, r, domainerrors.New(domainerrors.CodeInvalidInput, "invalid JSON body"))
		return
	}
	cfg.Domain = chi.URLParam(r, "domain")

	if err := h.svc.RegisterDomain(r.Context(), &cfg); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"domain":      cfg.Domain,
		"policy":      cfg.Policy,
		"transitions": len(cfg.Transitions),
	})
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	records, err := h.svc.ListRecords(r.Context(), domain)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []*models.Record{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"domain":  domain,
		"records": records,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response failed", "error", err)
	}
}

// writeError centralizes domain error translation to HTTP responses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := domainerrors.CodeOf(err)
	status := domainerrors.ToHTTPStatus(code)

	message := "internal error"
	var de *domainerrors.Error
	if errors.As(err, &de) && status < http.StatusInternalServerError {
		message = de.Message
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	h.writeJSON(w, status, map[string]string{
		"error":             string(code),
		"error_description": message,
	})
}
