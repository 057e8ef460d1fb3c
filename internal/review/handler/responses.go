package handler

import (
	"time"

	"vouch/internal/review/models"
)

// ReviewResponse is the public review shape. Anonymous reviews omit workerId.
type ReviewResponse struct {
	ID                 string    `json:"id"`
	AgencyID           string    `json:"agencyId"`
	WorkerID           string    `json:"workerId,omitempty"`
	Rating             int       `json:"rating"`
	Comment            string    `json:"comment"`
	VerificationStatus string    `json:"verificationStatus"`
	IsAnonymous        bool      `json:"isAnonymous"`
	HelpfulCount       int       `json:"helpfulCount"`
	ReportCount        int       `json:"reportCount"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type ReviewListResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
	Count   int              `json:"count"`
}

func FromReview(r *models.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:                 r.ID.String(),
		AgencyID:           r.AgencyID.String(),
		Rating:             r.Rating,
		Comment:            r.Comment,
		VerificationStatus: r.VerificationStatus.String(),
		IsAnonymous:        r.IsAnonymous,
		HelpfulCount:       r.HelpfulCount,
		ReportCount:        r.ReportCount,
		Status:             r.Status.String(),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if !r.IsAnonymous {
		resp.WorkerID = r.WorkerID.String()
	}
	return resp
}

func FromReviews(reviews []*models.Review) ReviewListResponse {
	out := make([]ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, FromReview(r))
	}
	return ReviewListResponse{Reviews: out, Count: len(out)}
}
