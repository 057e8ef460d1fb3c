package handler

import (
	"strings"

	"vouch/internal/review/models"
	dErrors "vouch/pkg/domain-errors"
)

// SubmitReviewRequest is the body of POST /agencies/{agencyID}/reviews.
type SubmitReviewRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
	// Raw input; the 10..500 bound applies after sanitization in the service.
	Comment     string `json:"comment" validate:"required,max=8000"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// UpdateReviewRequest is the body of PATCH /reviews/{reviewID}. Omitted fields are unchanged.
type UpdateReviewRequest struct {
	Rating      *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment     *string `json:"comment,omitempty" validate:"omitempty,max=8000"`
	IsAnonymous *bool   `json:"isAnonymous,omitempty"`
}

func (r *UpdateReviewRequest) Validate() error {
	if r.Rating == nil && r.Comment == nil && r.IsAnonymous == nil {
		return dErrors.New(dErrors.CodeBadRequest, "at least one of rating, comment or isAnonymous is required")
	}
	return nil
}

func (r *UpdateReviewRequest) Command() models.UpdateCommand {
	return models.UpdateCommand{Rating: r.Rating, Comment: r.Comment, IsAnonymous: r.IsAnonymous}
}

// ModerateReviewRequest is the body of POST /reviews/{reviewID}/moderation.
type ModerateReviewRequest struct {
	Action string `json:"action" validate:"required"`

	parsedAction models.ModerationAction
}

func (r *ModerateReviewRequest) Normalize() {
	r.Action = strings.TrimSpace(r.Action)
}

// Validate parses the action.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ModerateReviewRequest) Validate() error {
	action, err := models.ParseModerationAction(r.Action)
	if err != nil {
		return err
	}
	r.parsedAction = action
	return nil
}

func (r *ModerateReviewRequest) ParsedAction() models.ModerationAction {
	return r.parsedAction
}
