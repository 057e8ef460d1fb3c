package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vouch/internal/review/models"
	"vouch/internal/review/service/mocks"
	"vouch/internal/review/store"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/audit"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service-mocks.go -package=mocks OwnershipLookup,AggregationSignaler,EventPublisher,AuditPublisher

type ReviewServiceSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	store     *store.InMemory
	ownership *mocks.MockOwnershipLookup
	signaler  *mocks.MockAggregationSignaler
	events    *mocks.MockEventPublisher
	audit     *mocks.MockAuditPublisher
	service   *Service
	now       time.Time
}

func TestReviewServiceSuite(t *testing.T) {
	suite.Run(t, new(ReviewServiceSuite))
}

func (s *ReviewServiceSuite) SetupTest() {
	s.now = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctrl = gomock.NewController(s.T())
	s.store = store.NewInMemory()
	s.ownership = mocks.NewMockOwnershipLookup(s.ctrl)
	s.signaler = mocks.NewMockAggregationSignaler(s.ctrl)
	s.events = mocks.NewMockEventPublisher(s.ctrl)
	s.audit = mocks.NewMockAuditPublisher(s.ctrl)
	s.service = New(s.store, s.ownership, s.signaler,
		WithEventPublisher(s.events),
		WithAuditPublisher(s.audit),
	)
}

func (s *ReviewServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ReviewServiceSuite) submitCmd() models.SubmitCommand {
	return models.SubmitCommand{
		AgencyID: id.AgencyID(uuid.New()),
		WorkerID: id.WorkerID(uuid.New()),
		Rating:   4,
		Comment:  "Paid on time and the housing was clean.",
	}
}

// seed submits a review with all collaborators stubbed permissively.
func (s *ReviewServiceSuite) seed() *models.Review {
	cmd := s.submitCmd()
	s.ownership.EXPECT().IsOwner(gomock.Any(), cmd.WorkerID, cmd.AgencyID).Return(false, nil)
	s.signaler.EXPECT().Signal(gomock.Any(), cmd.AgencyID)
	s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	r, err := s.service.Submit(s.ctx, cmd)
	s.Require().NoError(err)
	return r
}

func (s *ReviewServiceSuite) TestSubmit() {
	s.Run("persists an active pending review and signals aggregation", func() {
		cmd := s.submitCmd()
		cmd.Comment = "  Great <b>agency</b><script>steal()</script>, honest fees.  "
		s.ownership.EXPECT().IsOwner(gomock.Any(), cmd.WorkerID, cmd.AgencyID).Return(false, nil)
		s.signaler.EXPECT().Signal(gomock.Any(), cmd.AgencyID)
		s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e models.Event) error {
			s.Equal(models.EventSubmitted, e.Type)
			s.Equal(cmd.AgencyID.String(), e.AgencyID)
			s.Equal(4, e.Rating)
			return nil
		})

		r, err := s.service.Submit(s.ctx, cmd)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, r.Status)
		s.Equal(models.VerificationPending, r.VerificationStatus)
		s.Equal("Great agency, honest fees.", r.Comment)
		s.Zero(r.HelpfulCount)
		s.Zero(r.ReportCount)
		s.Equal(s.now, r.CreatedAt)

		stored, err := s.store.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(r.Comment, stored.Comment)
	})

	s.Run("rejects ratings outside 1..5 before any lookup", func() {
		for _, rating := range []int{0, 6, -3} {
			cmd := s.submitCmd()
			cmd.Rating = rating
			_, err := s.service.Submit(s.ctx, cmd)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "rating %d", rating)
			s.Equal("rating", dErrors.FieldOf(err))
		}
	})

	s.Run("measures comment length after sanitization", func() {
		cmd := s.submitCmd()
		cmd.Comment = "<p><i>ok</i></p><script>" + strings.Repeat("x", 50) + "</script>"
		_, err := s.service.Submit(s.ctx, cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("comment", dErrors.FieldOf(err))

		cmd.Comment = strings.Repeat("a", 501)
		_, err = s.service.Submit(s.ctx, cmd)
		s.Equal("comment", dErrors.FieldOf(err))
	})

	s.Run("rejects self review", func() {
		cmd := s.submitCmd()
		s.ownership.EXPECT().IsOwner(gomock.Any(), cmd.WorkerID, cmd.AgencyID).Return(true, nil)

		_, err := s.service.Submit(s.ctx, cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeSelfReview))

		list, err := s.store.ListByAgency(s.ctx, cmd.AgencyID, models.ListFilter{})
		s.Require().NoError(err)
		s.Empty(list)
	})

	s.Run("rejects a second submission for the same pair", func() {
		first := s.seed()
		cmd := models.SubmitCommand{AgencyID: first.AgencyID, WorkerID: first.WorkerID, Rating: 1, Comment: "Trying to submit a second time."}
		s.ownership.EXPECT().IsOwner(gomock.Any(), cmd.WorkerID, cmd.AgencyID).Return(false, nil)

		_, err := s.service.Submit(s.ctx, cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateReview))

		stored, err := s.store.FindByID(s.ctx, first.ID)
		s.Require().NoError(err)
		s.Equal(4, stored.Rating, "existing review must not be overwritten")
	})

	s.Run("ownership lookup failure is surfaced", func() {
		cmd := s.submitCmd()
		s.ownership.EXPECT().IsOwner(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, sentinel.ErrUnavailable)
		_, err := s.service.Submit(s.ctx, cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("event publish failure does not fail the submission", func() {
		cmd := s.submitCmd()
		s.ownership.EXPECT().IsOwner(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
		s.signaler.EXPECT().Signal(gomock.Any(), cmd.AgencyID)
		s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

		_, err := s.service.Submit(s.ctx, cmd)
		s.NoError(err)
	})
}

// TestConcurrentSubmit verifies one winner among simultaneous submissions.
func (s *ReviewServiceSuite) TestConcurrentSubmit() {
	cmd := s.submitCmd()
	const goroutines = 30
	s.ownership.EXPECT().IsOwner(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).Times(goroutines)
	s.signaler.EXPECT().Signal(gomock.Any(), cmd.AgencyID).Times(1)
	s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	var wg sync.WaitGroup
	var wins, duplicates atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Submit(s.ctx, cmd)
			switch {
			case err == nil:
				wins.Add(1)
			case dErrors.HasCode(err, dErrors.CodeDuplicateReview):
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), duplicates.Load())
}

func (s *ReviewServiceSuite) TestUpdate() {
	rating := func(v int) *int { return &v }
	text := func(v string) *string { return &v }

	s.Run("author changes rating and aggregation is signalled", func() {
		r := s.seed()
		s.signaler.EXPECT().Signal(gomock.Any(), r.AgencyID)
		s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		updated, err := s.service.Update(s.ctx, r.ID, r.WorkerID, models.UpdateCommand{Rating: rating(2)})
		s.Require().NoError(err)
		s.Equal(2, updated.Rating)
		s.Equal(r.Version+1, updated.Version)
	})

	s.Run("comment-only edit does not signal aggregation", func() {
		r := s.seed()
		s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		updated, err := s.service.Update(s.ctx, r.ID, r.WorkerID, models.UpdateCommand{Comment: text("<em>Updated</em> after three months.")})
		s.Require().NoError(err)
		s.Equal("Updated after three months.", updated.Comment)
	})

	s.Run("non-author is forbidden", func() {
		r := s.seed()
		_, err := s.service.Update(s.ctx, r.ID, id.WorkerID(uuid.New()), models.UpdateCommand{Rating: rating(1)})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("sanitized comment too short", func() {
		r := s.seed()
		_, err := s.service.Update(s.ctx, r.ID, r.WorkerID, models.UpdateCommand{Comment: text("<b>short</b>")})
		s.Equal("comment", dErrors.FieldOf(err))
	})

	s.Run("unknown review", func() {
		_, err := s.service.Update(s.ctx, id.NewReviewID(), id.WorkerID(uuid.New()), models.UpdateCommand{Rating: rating(1)})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("edit window expires", func() {
		r := s.seed()
		svc := New(s.store, s.ownership, s.signaler, WithEditWindow(time.Hour))
		late := requestcontext.WithTime(context.Background(), s.now.Add(2*time.Hour))
		_, err := svc.Update(late, r.ID, r.WorkerID, models.UpdateCommand{Rating: rating(1)})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ReviewServiceSuite) TestModerate() {
	s.Run("hide signals aggregation, publishes and audits", func() {
		r := s.seed()
		s.signaler.EXPECT().Signal(gomock.Any(), r.AgencyID)
		s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e models.Event) error {
			s.Equal(models.EventModerated, e.Type)
			s.Equal("hide", e.Action)
			s.Equal("hidden", e.Status)
			return nil
		})
		s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
			s.Equal(string(audit.EventReviewModerated), e.Action)
			s.Equal("hide", e.Reason)
			s.Equal(r.WorkerID, e.WorkerID)
			return nil
		})

		moderated, err := s.service.Moderate(s.ctx, r.ID, models.ActionHide)
		s.Require().NoError(err)
		s.Equal(models.StatusHidden, moderated.Status)
	})

	s.Run("deleted is terminal", func() {
		r := s.seed()
		s.signaler.EXPECT().Signal(gomock.Any(), r.AgencyID)
		s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
		s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		_, err := s.service.Moderate(s.ctx, r.ID, models.ActionSoftDelete)
		s.Require().NoError(err)

		for _, action := range []models.ModerationAction{models.ActionRestore, models.ActionHide, models.ActionVerify, models.ActionUnverify, models.ActionSoftDelete} {
			_, err := s.service.Moderate(s.ctx, r.ID, action)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "action %s", action)
		}
		stored, err := s.store.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusDeleted, stored.Status)
	})

	s.Run("clear reports resets the counter without signalling", func() {
		r := s.seed()
		_, err := s.service.Report(s.ctx, r.ID)
		s.Require().NoError(err)
		s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
		s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		cleared, err := s.service.Moderate(s.ctx, r.ID, models.ActionClearReports)
		s.Require().NoError(err)
		s.Zero(cleared.ReportCount)

		stored, err := s.store.FindByID(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Zero(stored.ReportCount)
	})

	s.Run("unknown action", func() {
		r := s.seed()
		_, err := s.service.Moderate(s.ctx, r.ID, models.ModerationAction("purge"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("audit failure does not fail moderation", func() {
		r := s.seed()
		s.signaler.EXPECT().Signal(gomock.Any(), r.AgencyID)
		s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
		s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit store down"))

		_, err := s.service.Moderate(s.ctx, r.ID, models.ActionVerify)
		s.NoError(err)
	})
}

// conflictingStore loses the version check a fixed number of times.
type conflictingStore struct {
	*store.InMemory
	conflicts atomic.Int32
}

func (c *conflictingStore) UpdateIfVersion(ctx context.Context, r *models.Review, expected int64, resetReports bool) error {
	if c.conflicts.Load() > 0 {
		c.conflicts.Add(-1)
		return sentinel.ErrConflict
	}
	return c.InMemory.UpdateIfVersion(ctx, r, expected, resetReports)
}

func (s *ReviewServiceSuite) TestVersionConflictRetry() {
	s.Run("retries and succeeds within the attempt budget", func() {
		r := s.seed()
		cs := &conflictingStore{InMemory: s.store}
		cs.conflicts.Store(2)
		svc := New(cs, s.ownership, s.signaler)
		s.signaler.EXPECT().Signal(gomock.Any(), r.AgencyID)

		moderated, err := svc.Moderate(s.ctx, r.ID, models.ActionHide)
		s.Require().NoError(err)
		s.Equal(models.StatusHidden, moderated.Status)
	})

	s.Run("gives up with a conflict after the budget", func() {
		r := s.seed()
		cs := &conflictingStore{InMemory: s.store}
		cs.conflicts.Store(5)
		svc := New(cs, s.ownership, s.signaler, WithMaxAttempts(3))

		_, err := svc.Moderate(s.ctx, r.ID, models.ActionHide)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(int32(2), cs.conflicts.Load())
	})
}

func (s *ReviewServiceSuite) TestFeedback() {
	s.Run("helpful and report increment without signalling", func() {
		r := s.seed()
		got, err := s.service.MarkHelpful(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(1, got.HelpfulCount)

		got, err = s.service.Report(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(1, got.ReportCount)
		s.Equal(r.Version, got.Version)
	})

	s.Run("deleted review rejects feedback", func() {
		r := s.seed()
		s.signaler.EXPECT().Signal(gomock.Any(), r.AgencyID)
		s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
		s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		_, err := s.service.Moderate(s.ctx, r.ID, models.ActionSoftDelete)
		s.Require().NoError(err)

		_, err = s.service.MarkHelpful(s.ctx, r.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("unknown review", func() {
		_, err := s.service.Report(s.ctx, id.NewReviewID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ReviewServiceSuite) TestReads() {
	r := s.seed()

	got, err := s.service.Get(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.ID, got.ID)

	_, err = s.service.Get(s.ctx, id.ReviewID{})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	list, err := s.service.ListByAgency(s.ctx, r.AgencyID, models.ListFilter{Status: models.StatusActive})
	s.Require().NoError(err)
	s.Len(list, 1)

	_, err = s.service.ListByAgency(s.ctx, r.AgencyID, models.ListFilter{Status: "archived"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
