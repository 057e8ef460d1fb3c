// Package service stores and reveals worker identity numbers. Plaintext exists
// only inside this package's calls: it is encrypted before it reaches the store
// and decrypted on demand, never cached or logged.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vouch/internal/worker/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/audit"
	txcontext "vouch/pkg/platform/tx"
	"vouch/pkg/requestcontext"
)

type Store interface {
	SetToken(ctx context.Context, workerID id.WorkerID, field models.IdentityField, token string, now time.Time) error
	GetToken(ctx context.Context, workerID id.WorkerID, field models.IdentityField) (string, bool, error)
}

type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	store  Store
	cipher Cipher
	audit  AuditPublisher
	tx     TxRunner
	logger zerolog.Logger
	tracer trace.Tracer
}

type Option func(*Service)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTxRunner makes the token write and its audit record commit together.
func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(store Store, cipher Cipher, auditor AuditPublisher, opts ...Option) *Service {
	s := &Service{
		store:  store,
		cipher: cipher,
		audit:  auditor,
		tx:     txcontext.NoopRunner{},
		logger: zerolog.Nop(),
		tracer: otel.Tracer("vouch/internal/worker/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetIdentity encrypts and stores value for field. An empty value clears the
// field. The write fails if its audit record cannot be written.
func (s *Service) SetIdentity(ctx context.Context, workerID id.WorkerID, field models.IdentityField, value string) error {
	ctx, span := s.tracer.Start(ctx, "worker.SetIdentity", trace.WithAttributes(
		attribute.String("field", field.String()),
	))
	defer span.End()

	if err := s.setIdentity(ctx, workerID, field, value); err != nil {
		recordSpanError(span, err)
		return err
	}
	return nil
}

func (s *Service) setIdentity(ctx context.Context, workerID id.WorkerID, field models.IdentityField, value string) error {
	if workerID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "worker ID required")
	}
	if !field.IsValid() {
		return dErrors.Validation("field", "identity field must be passport or nid")
	}
	value, err := models.NormalizeIdentity(value)
	if err != nil {
		return err
	}

	token, err := s.cipher.Encrypt(value)
	if err != nil {
		return err
	}

	action := audit.EventIdentityStored
	if token == "" {
		action = audit.EventIdentityCleared
	}
	now := requestcontext.Now(ctx)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.SetToken(ctx, workerID, field, token, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store identity")
		}
		if err := s.emit(ctx, workerID, field, action); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to audit identity change")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("request_id", requestcontext.RequestID(ctx)).
		Str("worker_id", workerID.String()).
		Str("field", field.String()).
		Str("action", string(action)).
		Msg("worker identity updated")
	return nil
}

// GetIdentity decrypts the stored value. ok is false when the field is unset.
// A token that cannot be decrypted is reported and audited, never returned.
func (s *Service) GetIdentity(ctx context.Context, workerID id.WorkerID, field models.IdentityField) (string, bool, error) {
	ctx, span := s.tracer.Start(ctx, "worker.GetIdentity", trace.WithAttributes(
		attribute.String("field", field.String()),
	))
	defer span.End()

	value, ok, err := s.getIdentity(ctx, workerID, field)
	if err != nil {
		recordSpanError(span, err)
		return "", false, err
	}
	return value, ok, nil
}

func (s *Service) getIdentity(ctx context.Context, workerID id.WorkerID, field models.IdentityField) (string, bool, error) {
	if workerID.IsNil() {
		return "", false, dErrors.New(dErrors.CodeBadRequest, "worker ID required")
	}
	if !field.IsValid() {
		return "", false, dErrors.Validation("field", "identity field must be passport or nid")
	}

	token, ok, err := s.store.GetToken(ctx, workerID, field)
	if err != nil {
		return "", false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}

	var value string
	if ok {
		value, err = s.cipher.Decrypt(token)
		if err != nil {
			s.logger.Error().
				Str("request_id", requestcontext.RequestID(ctx)).
				Str("worker_id", workerID.String()).
				Str("field", field.String()).
				Str("code", string(dErrors.GetCode(err))).
				Msg("stored identity token failed to decrypt")
			if auditErr := s.emit(ctx, workerID, field, audit.EventIdentityDecryptFailed); auditErr != nil {
				s.logger.Warn().Err(auditErr).Str("worker_id", workerID.String()).Msg("failed to audit decrypt failure")
			}
			return "", false, dErrors.Wrap(err, dErrors.CodeEncryption, "stored identity could not be decrypted")
		}
	}

	if err := s.emit(ctx, workerID, field, audit.EventIdentityRead); err != nil {
		return "", false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to audit identity read")
	}
	return value, ok, nil
}

func (s *Service) emit(ctx context.Context, workerID id.WorkerID, field models.IdentityField, action audit.AuditEvent) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Emit(ctx, audit.Event{
		WorkerID:  workerID,
		Subject:   field.Subject(),
		Action:    string(action),
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   requestcontext.WorkerID(ctx).String(),
	})
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.GetCode(err)))
}
