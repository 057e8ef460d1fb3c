package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"vouch/internal/aggregation/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

type Service interface {
	Get(ctx context.Context, agencyID id.AgencyID) (*models.Aggregate, error)
}

type Handler struct {
	service Service
	logger  zerolog.Logger
}

func New(service Service, logger zerolog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/agencies/{agencyID}/rating", h.HandleGetRating)
}

// RatingResponse is the public aggregate shape. Distribution is keyed "1".."5".
type RatingResponse struct {
	AgencyID          string         `json:"agencyId"`
	AverageRating     float64        `json:"averageRating"`
	TotalReviews      int            `json:"totalReviews"`
	Distribution      map[string]int `json:"distribution"`
	VerificationRatio float64        `json:"verificationRatio"`
	ComplianceScore   float64        `json:"complianceScore"`
	TrustScore        float64        `json:"trustScore"`
	ComputedAt        *time.Time     `json:"computedAt,omitempty"`
}

func toRatingResponse(a *models.Aggregate) RatingResponse {
	dist := make(map[string]int, 5)
	for stars := 1; stars <= 5; stars++ {
		dist[strconv.Itoa(stars)] = a.Distribution.Count(stars)
	}
	resp := RatingResponse{
		AgencyID:          a.AgencyID.String(),
		AverageRating:     a.AverageRating.InexactFloat64(),
		TotalReviews:      a.TotalReviews,
		Distribution:      dist,
		VerificationRatio: a.VerificationRatio.InexactFloat64(),
		ComplianceScore:   a.ComplianceInput.InexactFloat64(),
		TrustScore:        a.TrustScore.InexactFloat64(),
	}
	if !a.ComputedAt.IsZero() {
		computed := a.ComputedAt.UTC()
		resp.ComputedAt = &computed
	}
	return resp
}

// HandleGetRating handles GET /agencies/{agencyID}/rating.
func (h *Handler) HandleGetRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agencyID, err := id.ParseAgencyID(chi.URLParam(r, "agencyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	agg, err := h.service.Get(ctx, agencyID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("request_id", requestcontext.RequestID(ctx)).
			Str("agency_id", agencyID.String()).
			Msg("failed to load agency rating")
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRatingResponse(agg))
}
