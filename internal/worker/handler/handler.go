// Package handler exposes a worker's own identity fields over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"vouch/internal/worker/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	authmw "vouch/pkg/platform/middleware/auth"
	"vouch/pkg/requestcontext"
)

type Service interface {
	SetIdentity(ctx context.Context, workerID id.WorkerID, field models.IdentityField, value string) error
	GetIdentity(ctx context.Context, workerID id.WorkerID, field models.IdentityField) (string, bool, error)
}

type Handler struct {
	service Service
	logger  zerolog.Logger
}

func New(service Service, logger zerolog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the identity endpoints. Both require a caller worker ID.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireWorker(h.logger))
		r.Put("/workers/{workerID}/identity/{field}", h.HandleSet)
		r.Get("/workers/{workerID}/identity/{field}", h.HandleGet)
	})
}

// SetIdentityRequest is the body of PUT /workers/{workerID}/identity/{field}.
// A null or empty value clears the field.
type SetIdentityRequest struct {
	Value *string `json:"value" validate:"omitempty,max=256"`
}

// IdentityResponse carries a decrypted value, or null when the field is unset.
type IdentityResponse struct {
	Value *string `json:"value"`
}

// HandleSet handles PUT /workers/{workerID}/identity/{field}.
func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, field, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetIdentityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	var value string
	if req.Value != nil {
		value = *req.Value
	}

	if err := h.service.SetIdentity(ctx, workerID, field, value); err != nil {
		h.logFailure(ctx, "set identity failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGet handles GET /workers/{workerID}/identity/{field}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workerID, field, ok := h.target(w, r)
	if !ok {
		return
	}

	value, found, err := h.service.GetIdentity(ctx, workerID, field)
	if err != nil {
		h.logFailure(ctx, "get identity failed", err)
		httputil.WriteError(w, err)
		return
	}
	resp := IdentityResponse{}
	if found {
		resp.Value = &value
	}
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// target parses the path and enforces that workers only touch their own profile.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (id.WorkerID, models.IdentityField, bool) {
	workerID, err := id.ParseWorkerID(chi.URLParam(r, "workerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.WorkerID{}, "", false
	}
	field, err := models.ParseIdentityField(chi.URLParam(r, "field"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.WorkerID{}, "", false
	}
	if requestcontext.WorkerID(r.Context()) != workerID {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "workers may only access their own identity fields"))
		return id.WorkerID{}, "", false
	}
	return workerID, field, true
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	event := h.logger.Debug()
	if httputil.StatusFor(dErrors.GetCode(err)) >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).
		Str("request_id", requestcontext.RequestID(ctx)).
		Str("code", string(dErrors.GetCode(err))).
		Msg(msg)
}
