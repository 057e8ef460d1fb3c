package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"vouch/internal/review/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	adminmw "vouch/pkg/platform/middleware/admin"
	authmw "vouch/pkg/platform/middleware/auth"
	"vouch/pkg/requestcontext"
)

// Service defines the review operations exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, cmd models.SubmitCommand) (*models.Review, error)
	Update(ctx context.Context, reviewID id.ReviewID, by id.WorkerID, cmd models.UpdateCommand) (*models.Review, error)
	Moderate(ctx context.Context, reviewID id.ReviewID, action models.ModerationAction) (*models.Review, error)
	MarkHelpful(ctx context.Context, reviewID id.ReviewID) (*models.Review, error)
	Report(ctx context.Context, reviewID id.ReviewID) (*models.Review, error)
	Get(ctx context.Context, reviewID id.ReviewID) (*models.Review, error)
	ListByAgency(ctx context.Context, agencyID id.AgencyID, filter models.ListFilter) ([]*models.Review, error)
}

// Handler wires review endpoints to the review service.
type Handler struct {
	service        Service
	logger         zerolog.Logger
	moderatorToken string
}

// New constructs a review handler. moderatorToken guards the moderation endpoint.
func New(service Service, logger zerolog.Logger, moderatorToken string) *Handler {
	return &Handler{service: service, logger: logger, moderatorToken: moderatorToken}
}

// Register mounts review endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/agencies/{agencyID}/reviews", h.HandleList)
	r.Get("/reviews/{reviewID}", h.HandleGet)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireWorker(h.logger))
		r.Post("/agencies/{agencyID}/reviews", h.HandleSubmit)
		r.Patch("/reviews/{reviewID}", h.HandleUpdate)
		r.Post("/reviews/{reviewID}/helpful", h.HandleHelpful)
		r.Post("/reviews/{reviewID}/report", h.HandleReport)
	})

	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireModeratorToken(h.moderatorToken, h.logger))
		r.Post("/reviews/{reviewID}/moderation", h.HandleModerate)
	})
}

// HandleSubmit handles POST /agencies/{agencyID}/reviews.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	agencyID, err := id.ParseAgencyID(chi.URLParam(r, "agencyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	review, err := h.service.Submit(ctx, models.SubmitCommand{
		AgencyID:    agencyID,
		WorkerID:    requestcontext.WorkerID(ctx),
		Rating:      req.Rating,
		Comment:     req.Comment,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		h.logFailure(ctx, "submit review failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromReview(review))
}

// HandleList handles GET /agencies/{agencyID}/reviews. Only active reviews are listed.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agencyID, err := id.ParseAgencyID(chi.URLParam(r, "agencyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reviews, err := h.service.ListByAgency(ctx, agencyID, models.ListFilter{Status: models.StatusActive})
	if err != nil {
		h.logFailure(ctx, "list reviews failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReviews(reviews))
}

// HandleGet handles GET /reviews/{reviewID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, ok := h.reviewID(w, r)
	if !ok {
		return
	}
	review, err := h.service.Get(ctx, reviewID)
	if err != nil {
		h.logFailure(ctx, "get review failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReview(review))
}

// HandleUpdate handles PATCH /reviews/{reviewID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	reviewID, ok := h.reviewID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	review, err := h.service.Update(ctx, reviewID, requestcontext.WorkerID(ctx), req.Command())
	if err != nil {
		h.logFailure(ctx, "update review failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReview(review))
}

// HandleModerate handles POST /reviews/{reviewID}/moderation.
func (h *Handler) HandleModerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	reviewID, ok := h.reviewID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ModerateReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	review, err := h.service.Moderate(ctx, reviewID, req.ParsedAction())
	if err != nil {
		h.logFailure(ctx, "moderate review failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReview(review))
}

// HandleHelpful handles POST /reviews/{reviewID}/helpful.
func (h *Handler) HandleHelpful(w http.ResponseWriter, r *http.Request) {
	h.handleFeedback(w, r, h.service.MarkHelpful)
}

// HandleReport handles POST /reviews/{reviewID}/report.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	h.handleFeedback(w, r, h.service.Report)
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request, fn func(context.Context, id.ReviewID) (*models.Review, error)) {
	ctx := r.Context()
	reviewID, ok := h.reviewID(w, r)
	if !ok {
		return
	}
	review, err := fn(ctx, reviewID)
	if err != nil {
		h.logFailure(ctx, "record review feedback failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReview(review))
}

func (h *Handler) reviewID(w http.ResponseWriter, r *http.Request) (id.ReviewID, bool) {
	reviewID, err := id.ParseReviewID(chi.URLParam(r, "reviewID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ReviewID{}, false
	}
	return reviewID, true
}

// logFailure logs server-side failures at error level and client errors at debug.
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
