package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vouch/internal/review/handler/mocks"
	"vouch/internal/review/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/review-mocks.go -package=mocks Service

const testModeratorToken = "moderator-secret"

type ReviewHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	worker  id.WorkerID
	agency  id.AgencyID
}

func TestReviewHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReviewHandlerSuite))
}

func (s *ReviewHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, zerolog.Nop(), testModeratorToken).Register(s.router)
	s.worker = id.WorkerID(uuid.New())
	s.agency = id.AgencyID(uuid.New())
}

func (s *ReviewHandlerSuite) review(anonymous bool) *models.Review {
	now := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	r, err := models.NewReview(id.NewReviewID(), s.agency, s.worker, 5, "Helpful recruiters, fair contract.", anonymous, now)
	s.Require().NoError(err)
	return r
}

func (s *ReviewHandlerSuite) TestSubmit() {
	path := "/agencies/" + s.agency.String() + "/reviews"

	s.Run("creates a review for the calling worker", func() {
		created := s.review(false)
		s.service.EXPECT().Submit(gomock.Any(), models.SubmitCommand{
			AgencyID: s.agency,
			WorkerID: s.worker,
			Rating:   5,
			Comment:  "Helpful recruiters, fair contract.",
		}).Return(created, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]any{
			"rating":  5,
			"comment": "Helpful recruiters, fair contract.",
		})
		rr := testutil.DoRequest(s.router, testutil.WithWorkerHeader(req, s.worker.String()))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[ReviewResponse](s.T(), rr)
		s.Equal(created.ID.String(), resp.ID)
		s.Equal(s.worker.String(), resp.WorkerID)
		s.Equal("pending", resp.VerificationStatus)
	})

	s.Run("requires the worker header", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]any{"rating": 5, "comment": "Helpful recruiters, fair contract."})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("rejects out-of-range rating with field detail", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]any{"rating": 6, "comment": "Helpful recruiters, fair contract."})
		rr := testutil.DoRequest(s.router, testutil.WithWorkerHeader(req, s.worker.String()))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("validation_error", body["error"])
		s.Equal("rating", body["field"])
	})

	s.Run("maps duplicate to 409", func() {
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeDuplicateReview, "worker has already reviewed this agency"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]any{"rating": 3, "comment": "Second attempt at a review."})
		rr := testutil.DoRequest(s.router, testutil.WithWorkerHeader(req, s.worker.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "duplicate_review")
	})

	s.Run("maps self review to 403", func() {
		s.service.EXPECT().Submit(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeSelfReview, "workers cannot review an agency they own or operate"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]any{"rating": 5, "comment": "My own agency is the best."})
		rr := testutil.DoRequest(s.router, testutil.WithWorkerHeader(req, s.worker.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "self_review")
	})

	s.Run("rejects a malformed agency id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/agencies/not-a-uuid/reviews", map[string]any{"rating": 5, "comment": "Helpful recruiters, fair contract."})
		rr := testutil.DoRequest(s.router, testutil.WithWorkerHeader(req, s.worker.String()))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *ReviewHandlerSuite) TestListOnlyActive() {
	anonymous := s.review(true)
	s.service.EXPECT().ListByAgency(gomock.Any(), s.agency, models.ListFilter{Status: models.StatusActive}).
		Return([]*models.Review{anonymous}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/agencies/"+s.agency.String()+"/reviews"))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[ReviewListResponse](s.T(), rr)
	s.Equal(1, resp.Count)
	s.Empty(resp.Reviews[0].WorkerID, "anonymous reviews omit workerId")
	s.True(resp.Reviews[0].IsAnonymous)
}

func (s *ReviewHandlerSuite) TestGet() {
	r := s.review(false)

	s.Run("returns the review", func() {
		s.service.EXPECT().Get(gomock.Any(), r.ID).Return(r, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/reviews/"+r.ID.String()))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "active")
	})

	s.Run("not found", func() {
		s.service.EXPECT().Get(gomock.Any(), r.ID).Return(nil, dErrors.New(dErrors.CodeNotFound, "review not found"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/reviews/"+r.ID.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("malformed id", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/reviews/xyz"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *ReviewHandlerSuite) TestUpdate() {
	r := s.review(false)
	path := "/reviews/" + r.ID.String()

	s.Run("passes the caller as author", func() {
		s.service.EXPECT().Update(gomock.Any(), r.ID, s.worker, gomock.Any()).
			DoAndReturn(func(_ any, _ id.ReviewID, _ id.WorkerID, cmd models.UpdateCommand) (*models.Review, error) {
				s.Require().NotNil(cmd.Rating)
				s.Equal(2, *cmd.Rating)
				s.Nil(cmd.Comment)
				return r, nil
			})
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, path, map[string]any{"rating": 2})
		rr := testutil.DoRequest(s.router, testutil.WithWorkerHeader(req, s.worker.String()))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("empty patch is a bad request", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, path, map[string]any{})
		rr := testutil.DoRequest(s.router, testutil.WithWorkerHeader(req, s.worker.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("forbidden for other workers", func() {
		s.service.EXPECT().Update(gomock.Any(), r.ID, gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "only the author can edit a review"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPatch, path, map[string]any{"comment": "Not my review to change."})
		rr := testutil.DoRequest(s.router, testutil.WithWorkerHeader(req, uuid.NewString()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}

func (s *ReviewHandlerSuite) TestModerate() {
	r := s.review(false)
	path := "/reviews/" + r.ID.String() + "/moderation"

	s.Run("requires the moderator token", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]any{"action": "hide"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("applies the parsed action", func() {
		hidden := *r
		hidden.Status = models.StatusHidden
		s.service.EXPECT().Moderate(gomock.Any(), r.ID, models.ActionSoftDelete).Return(&hidden, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]any{"action": "softDelete"})
		testutil.WithModeratorToken(req, testModeratorToken)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("unknown action", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]any{"action": "purge"})
		testutil.WithModeratorToken(req, testModeratorToken)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("invalid transition maps to 409", func() {
		s.service.EXPECT().Moderate(gomock.Any(), r.ID, models.ActionRestore).
			Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "cannot restore: review is deleted"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]any{"action": "restore"})
		testutil.WithModeratorToken(req, testModeratorToken)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invalid_transition")
	})
}

func (s *ReviewHandlerSuite) TestFeedback() {
	r := s.review(false)
	r.HelpfulCount = 1
	s.service.EXPECT().MarkHelpful(gomock.Any(), r.ID).Return(r, nil)
	req := testutil.NewRequest(s.T(), http.MethodPost, "/reviews/"+r.ID.String()+"/helpful")
	rr := testutil.DoRequest(s.router, testutil.WithWorkerHeader(req, s.worker.String()))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "helpfulCount", float64(1))

	s.service.EXPECT().Report(gomock.Any(), r.ID).Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "review is deleted"))
	req = testutil.NewRequest(s.T(), http.MethodPost, "/reviews/"+r.ID.String()+"/report")
	rr = testutil.DoRequest(s.router, testutil.WithWorkerHeader(req, s.worker.String()))
	testutil.AssertStatus(s.T(), rr, http.StatusConflict)
}
