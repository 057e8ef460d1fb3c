package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vouch/internal/pii/cipher"
	"vouch/internal/worker/models"
	"vouch/internal/worker/service/mocks"
	"vouch/internal/worker/store"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/audit"
	"vouch/pkg/platform/audit/publisher"
	auditmemory "vouch/pkg/platform/audit/store/memory"
	"vouch/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service-mocks.go -package=mocks Store,Cipher,AuditPublisher

type IdentityServiceSuite struct {
	suite.Suite
	cipher  *cipher.Cipher
	ctx     context.Context
	worker  id.WorkerID
	store   *store.InMemory
	audit   *publisher.Publisher
	service *Service
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) SetupSuite() {
	c, err := cipher.New(cipher.Config{Secret: "worker-test-secret", Salt: "worker-test-install"})
	s.Require().NoError(err)
	s.cipher = c
}

func (s *IdentityServiceSuite) SetupTest() {
	s.worker = id.WorkerID(uuid.New())
	s.ctx = requestcontext.WithWorkerID(
		requestcontext.WithTime(context.Background(), time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)),
		s.worker,
	)
	s.store = store.NewInMemory()
	s.audit = publisher.NewPublisher(auditmemory.NewInMemoryStore())
	s.service = New(s.store, s.cipher, s.audit)
}

func (s *IdentityServiceSuite) actions() []string {
	events, err := s.audit.List(context.Background(), s.worker)
	s.Require().NoError(err)
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

func (s *IdentityServiceSuite) TestStoresOnlyCiphertext() {
	s.Require().NoError(s.service.SetIdentity(s.ctx, s.worker, models.FieldPassport, "A1234567"))

	token, ok, err := s.store.GetToken(s.ctx, s.worker, models.FieldPassport)
	s.Require().NoError(err)
	s.True(ok)
	s.NotContains(token, "A1234567")
	s.Regexp(`^[0-9a-f]{32}:[0-9a-f]+$`, token)

	value, ok, err := s.service.GetIdentity(s.ctx, s.worker, models.FieldPassport)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("A1234567", value)
}

func (s *IdentityServiceSuite) TestSameValueEncryptsDifferently() {
	other := id.WorkerID(uuid.New())
	otherCtx := requestcontext.WithWorkerID(s.ctx, other)
	s.Require().NoError(s.service.SetIdentity(s.ctx, s.worker, models.FieldPassport, "A1234567"))
	s.Require().NoError(s.service.SetIdentity(otherCtx, other, models.FieldPassport, "A1234567"))

	first, _, _ := s.store.GetToken(s.ctx, s.worker, models.FieldPassport)
	second, _, _ := s.store.GetToken(s.ctx, other, models.FieldPassport)
	s.NotEqual(first, second)

	for _, w := range []id.WorkerID{s.worker, other} {
		value, ok, err := s.service.GetIdentity(requestcontext.WithWorkerID(s.ctx, w), w, models.FieldPassport)
		s.Require().NoError(err)
		s.True(ok)
		s.Equal("A1234567", value)
	}
}

func (s *IdentityServiceSuite) TestAbsentField() {
	value, ok, err := s.service.GetIdentity(s.ctx, s.worker, models.FieldNID)
	s.Require().NoError(err)
	s.False(ok)
	s.Empty(value)
	s.Equal([]string{string(audit.EventIdentityRead)}, s.actions())
}

func (s *IdentityServiceSuite) TestEmptyValueClears() {
	s.Require().NoError(s.service.SetIdentity(s.ctx, s.worker, models.FieldNID, "1985-0412-7781"))
	s.Require().NoError(s.service.SetIdentity(s.ctx, s.worker, models.FieldNID, "  "))

	_, ok, err := s.service.GetIdentity(s.ctx, s.worker, models.FieldNID)
	s.Require().NoError(err)
	s.False(ok)
	s.Equal([]string{
		string(audit.EventIdentityStored),
		string(audit.EventIdentityCleared),
		string(audit.EventIdentityRead),
	}, s.actions())
}

func (s *IdentityServiceSuite) TestAuditNeverCarriesValue() {
	s.Require().NoError(s.service.SetIdentity(s.ctx, s.worker, models.FieldPassport, "A1234567"))
	_, _, err := s.service.GetIdentity(s.ctx, s.worker, models.FieldPassport)
	s.Require().NoError(err)

	events, err := s.audit.List(context.Background(), s.worker)
	s.Require().NoError(err)
	s.Len(events, 2)
	for _, e := range events {
		s.Equal("identity:passport", e.Subject)
		s.Equal(audit.CategoryCompliance, e.Category)
		s.NotContains(e.Reason, "A1234567")
		s.NotContains(e.Subject, "A1234567")
	}
}

func (s *IdentityServiceSuite) TestTamperedTokenIsReported() {
	s.Require().NoError(s.service.SetIdentity(s.ctx, s.worker, models.FieldPassport, "A1234567"))
	s.Require().NoError(s.store.SetToken(s.ctx, s.worker, models.FieldPassport, "not-a-token", time.Now()))

	value, ok, err := s.service.GetIdentity(s.ctx, s.worker, models.FieldPassport)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeEncryption))
	s.False(ok)
	s.Empty(value)
	s.Equal([]string{
		string(audit.EventIdentityStored),
		string(audit.EventIdentityDecryptFailed),
	}, s.actions())
}

func (s *IdentityServiceSuite) TestValidation() {
	s.Run("nil worker", func() {
		err := s.service.SetIdentity(s.ctx, id.WorkerID(uuid.Nil), models.FieldNID, "x")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
	s.Run("unknown field", func() {
		err := s.service.SetIdentity(s.ctx, s.worker, models.IdentityField("ssn"), "x")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		_, _, err = s.service.GetIdentity(s.ctx, s.worker, models.IdentityField("ssn"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
	s.Run("control characters", func() {
		err := s.service.SetIdentity(s.ctx, s.worker, models.FieldNID, "12\n34")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

type IdentityServiceFailureSuite struct {
	suite.Suite
	ctx     context.Context
	ctrl    *gomock.Controller
	worker  id.WorkerID
	store   *mocks.MockStore
	cipher  *mocks.MockCipher
	audit   *mocks.MockAuditPublisher
	service *Service
}

func TestIdentityServiceFailureSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceFailureSuite))
}

func (s *IdentityServiceFailureSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.worker = id.WorkerID(uuid.New())
	s.store = mocks.NewMockStore(s.ctrl)
	s.cipher = mocks.NewMockCipher(s.ctrl)
	s.audit = mocks.NewMockAuditPublisher(s.ctrl)
	s.service = New(s.store, s.cipher, s.audit)
}

func (s *IdentityServiceFailureSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *IdentityServiceFailureSuite) TestEncryptionFailureStoresNothing() {
	s.cipher.EXPECT().Encrypt("A1234567").Return("", dErrors.New(dErrors.CodeEncryption, "failed to generate iv"))

	err := s.service.SetIdentity(s.ctx, s.worker, models.FieldPassport, "A1234567")
	s.True(dErrors.HasCode(err, dErrors.CodeEncryption))
}

func (s *IdentityServiceFailureSuite) TestAuditFailureFailsWrite() {
	s.cipher.EXPECT().Encrypt("A1234567").Return("00:11", nil)
	s.store.EXPECT().SetToken(gomock.Any(), s.worker, models.FieldPassport, "00:11", gomock.Any()).Return(nil)
	s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit store down"))

	err := s.service.SetIdentity(s.ctx, s.worker, models.FieldPassport, "A1234567")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *IdentityServiceFailureSuite) TestAuditFailureWithholdsValue() {
	s.store.EXPECT().GetToken(gomock.Any(), s.worker, models.FieldNID).Return("00:11", true, nil)
	s.cipher.EXPECT().Decrypt("00:11").Return("1985-0412-7781", nil)
	s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit store down"))

	value, ok, err := s.service.GetIdentity(s.ctx, s.worker, models.FieldNID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.False(ok)
	s.Empty(value)
}

func (s *IdentityServiceFailureSuite) TestStoreFailure() {
	s.store.EXPECT().GetToken(gomock.Any(), s.worker, models.FieldNID).Return("", false, errors.New("connection reset"))

	_, _, err := s.service.GetIdentity(s.ctx, s.worker, models.FieldNID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *IdentityServiceFailureSuite) TestDecryptFailureEmitsSecurityEvent() {
	s.store.EXPECT().GetToken(gomock.Any(), s.worker, models.FieldNID).Return("00:11", true, nil)
	s.cipher.EXPECT().Decrypt("00:11").Return("", dErrors.New(dErrors.CodeEncryption, "failed to decrypt token"))
	s.audit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(audit.EventIdentityDecryptFailed), e.Action)
		s.Equal(s.worker, e.WorkerID)
		return nil
	})

	_, _, err := s.service.GetIdentity(s.ctx, s.worker, models.FieldNID)
	s.True(dErrors.HasCode(err, dErrors.CodeEncryption))
}
