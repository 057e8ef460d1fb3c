package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MinCommentLength = 10
	MaxCommentLength = 500
)

// Review is the aggregate root for one worker's rating of one agency.
//
// Invariants:
//   - (AgencyID, WorkerID) is unique regardless of Status
//   - Rating is within [MinRating, MaxRating]
//   - Comment is sanitized and its rune length is within [MinCommentLength, MaxCommentLength]
//   - WorkerID is never an owner or operator of AgencyID (checked at submission)
//   - HelpfulCount and ReportCount never decrease, except ReportCount via ActionClearReports
//   - Status deleted is terminal; reviews are never physically removed
//   - CreatedAt is immutable after construction
//
// Version increases on every content or moderation write and is used for
// optimistic concurrency. Counter increments do not change it.
type Review struct {
	ID                 id.ReviewID        `json:"id"`
	AgencyID           id.AgencyID        `json:"agencyId"`
	WorkerID           id.WorkerID        `json:"workerId"`
	Rating             int                `json:"rating"`
	Comment            string             `json:"comment"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	IsAnonymous        bool               `json:"isAnonymous"`
	HelpfulCount       int                `json:"helpfulCount"`
	ReportCount        int                `json:"reportCount"`
	Status             Status             `json:"status"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
	Version            int64              `json:"version"`
}

// NewReview constructs an active, pending review. comment must already be sanitized.
func NewReview(reviewID id.ReviewID, agencyID id.AgencyID, workerID id.WorkerID, rating int, comment string, anonymous bool, now time.Time) (*Review, error) {
	if agencyID.IsNil() {
		return nil, dErrors.Validation("agencyId", "agency ID is required")
	}
	if workerID.IsNil() {
		return nil, dErrors.Validation("workerId", "worker ID is required")
	}
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}
	if err := ValidateComment(comment); err != nil {
		return nil, err
	}
	return &Review{
		ID:                 reviewID,
		AgencyID:           agencyID,
		WorkerID:           workerID,
		Rating:             rating,
		Comment:            comment,
		VerificationStatus: VerificationPending,
		IsAnonymous:        anonymous,
		Status:             StatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
		Version:            1,
	}, nil
}

// ValidateRating checks the rating range.
func ValidateRating(rating int) error {
	err := validation.Validate(rating,
		validation.Required.Error("rating is required"),
		validation.Min(MinRating).Error("rating must be between 1 and 5"),
		validation.Max(MaxRating).Error("rating must be between 1 and 5"),
	)
	if err != nil {
		return dErrors.Validation("rating", err.Error())
	}
	return nil
}

// ValidateComment checks the post-sanitization comment length in runes.
func ValidateComment(comment string) error {
	err := validation.Validate(comment,
		validation.Required.Error("comment is required"),
		validation.RuneLength(MinCommentLength, MaxCommentLength).Error("comment must be between 10 and 500 characters"),
	)
	if err != nil {
		return dErrors.Validation("comment", err.Error())
	}
	return nil
}

// IsActive reports whether the review counts toward the agency aggregate.
func (r *Review) IsActive() bool {
	return r.Status == StatusActive
}

func (r *Review) IsDeleted() bool {
	return r.Status == StatusDeleted
}

// CanModerate checks whether action is a legal transition from the current
// state. Every action on a deleted review fails, as does any action whose
// target equals the current state.
// Use with ApplyModeration inside a version-checked write.
func (r *Review) CanModerate(action ModerationAction) error {
	if !action.IsValid() {
		return dErrors.Validation("action", "unknown moderation action: "+string(action))
	}
	if r.IsDeleted() {
		return invalidTransition(action, "review is deleted")
	}
	switch action {
	case ActionHide:
		if r.Status != StatusActive {
			return invalidTransition(action, "only active reviews can be hidden")
		}
	case ActionRestore:
		if r.Status != StatusHidden {
			return invalidTransition(action, "only hidden reviews can be restored")
		}
	case ActionSoftDelete:
		// active or hidden; deleted handled above
	case ActionVerify:
		if r.VerificationStatus == VerificationVerified {
			return invalidTransition(action, "review is already verified")
		}
	case ActionUnverify:
		if r.VerificationStatus == VerificationUnverified {
			return invalidTransition(action, "review is already unverified")
		}
	case ActionClearReports:
		if r.ReportCount == 0 {
			return invalidTransition(action, "review has no reports")
		}
	}
	return nil
}

// ApplyModeration applies action and bumps Version.
// Call CanModerate first to validate the transition.
func (r *Review) ApplyModeration(action ModerationAction, now time.Time) {
	switch action {
	case ActionHide:
		r.Status = StatusHidden
	case ActionRestore:
		r.Status = StatusActive
	case ActionSoftDelete:
		r.Status = StatusDeleted
	case ActionVerify:
		r.VerificationStatus = VerificationVerified
	case ActionUnverify:
		r.VerificationStatus = VerificationUnverified
	case ActionClearReports:
		r.ReportCount = 0
	}
	r.touch(now)
}

// Moderate validates and applies action in one call.
func (r *Review) Moderate(action ModerationAction, now time.Time) error {
	if err := r.CanModerate(action); err != nil {
		return err
	}
	r.ApplyModeration(action, now)
	return nil
}

// Edit carries optional changes from the author. Comment must already be sanitized.
type Edit struct {
	Rating      *int
	Comment     *string
	IsAnonymous *bool
}

func (e Edit) IsEmpty() bool {
	return e.Rating == nil && e.Comment == nil && e.IsAnonymous == nil
}

// CanEdit checks authorship, status, the optional edit window and the new
// field values. A zero window means edits are never time-limited.
func (r *Review) CanEdit(by id.WorkerID, edit Edit, now time.Time, window time.Duration) error {
	if r.WorkerID != by {
		return dErrors.New(dErrors.CodeForbidden, "only the author can edit a review")
	}
	if r.IsDeleted() {
		return dErrors.New(dErrors.CodeInvalidTransition, "deleted reviews cannot be edited")
	}
	if window > 0 && now.Sub(r.CreatedAt) > window {
		return dErrors.New(dErrors.CodeForbidden, "edit window has expired")
	}
	if edit.IsEmpty() {
		return dErrors.New(dErrors.CodeBadRequest, "no changes supplied")
	}
	if edit.Rating != nil {
		if err := ValidateRating(*edit.Rating); err != nil {
			return err
		}
	}
	if edit.Comment != nil {
		if err := ValidateComment(*edit.Comment); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEdit writes the changes, bumps Version and reports whether the rating changed.
// Call CanEdit first.
func (r *Review) ApplyEdit(edit Edit, now time.Time) (ratingChanged bool) {
	if edit.Rating != nil && *edit.Rating != r.Rating {
		r.Rating = *edit.Rating
		ratingChanged = true
	}
	if edit.Comment != nil {
		r.Comment = *edit.Comment
	}
	if edit.IsAnonymous != nil {
		r.IsAnonymous = *edit.IsAnonymous
	}
	r.touch(now)
	return ratingChanged
}

// CanReceiveFeedback checks whether helpful votes and reports are accepted.
func (r *Review) CanReceiveFeedback() error {
	if r.IsDeleted() {
		return dErrors.New(dErrors.CodeInvalidTransition, "review is deleted")
	}
	return nil
}

func (r *Review) touch(now time.Time) {
	r.UpdatedAt = now
	r.Version++
}

func invalidTransition(action ModerationAction, reason string) error {
	return dErrors.New(dErrors.CodeInvalidTransition, "cannot "+string(action)+": "+reason)
}
