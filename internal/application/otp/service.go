package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/securescan-api/internal/domain"
	"github.com/securescan-api/internal/pkg/id"
	"github.com/securescan-api/internal/pkg/keylock"
	"github.com/securescan-api/internal/pkg/logger"
	"go.uber.org/zap"
)

const defaultTTL = 5 * time.Minute

// CodeStore persists pending codes keyed by identity.
// Get returns an error wrapping domain.ErrNotFound when nothing is stored.
type CodeStore interface {
	Get(ctx context.Context, identity string) (*domain.PendingCode, error)
	Put(ctx context.Context, pc *domain.PendingCode) error
	Delete(ctx context.Context, identity string) error
}

// IdentityRegistry reports whether an identity belongs to a registered account.
type IdentityRegistry interface {
	Exists(ctx context.Context, identity string) (bool, error)
}

// Deliverer sends an issued code to its destination.
type Deliverer interface {
	Deliver(ctx context.Context, to string, d domain.Delivery) error
}

// Metrics receives issuance and verification outcomes.
type Metrics interface {
	IssueOutcome(outcome string)
	VerifyOutcome(outcome string)
	ObserveDelivery(d time.Duration)
}

// Outcome labels passed to Metrics.
const (
	OutcomeIssued           = "issued"
	OutcomeReused           = "reused"
	OutcomeIdentityNotFound = "identity_not_found"
	OutcomeDeliveryFailed   = "delivery_failed"
	OutcomeVerified         = "verified"
	OutcomeExpired          = "expired"
	OutcomeMismatch         = "mismatch"
	OutcomeNoCode           = "no_code"
	OutcomeError            = "error"
)

type IssueOptions struct {
	AllowUnknownIdentity bool
}

type Service interface {
	// Issue sends the pending code for identity, creating one when none is
	// valid. A still-valid code is resent unchanged.
	Issue(ctx context.Context, identity string, opts IssueOptions) error
	// Reissue discards any pending code for identity and issues a fresh one.
	Reissue(ctx context.Context, identity string) error
	// Verify consumes the pending code for identity when submitted matches it.
	Verify(ctx context.Context, identity, submitted string) error
}

// ServiceDeps groups the collaborators and tunables of the OTP service.
// Clock and Generate default to time.Now and a crypto/rand generator.
type ServiceDeps struct {
	Store      CodeStore
	Registry   IdentityRegistry
	Deliverer  Deliverer
	Metrics    Metrics
	Logger     *zap.Logger
	TTL        time.Duration
	LockShards int
	Clock      func() time.Time
	Generate   func() (int, error)
}

type service struct {
	store     CodeStore
	registry  IdentityRegistry
	deliverer Deliverer
	metrics   Metrics
	log       *zap.Logger
	ttl       time.Duration
	locks     *keylock.Table
	now       func() time.Time
	generate  func() (int, error)
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:     deps.Store,
		registry:  deps.Registry,
		deliverer: deps.Deliverer,
		metrics:   deps.Metrics,
		log:       deps.Logger,
		ttl:       deps.TTL,
		locks:     keylock.New(deps.LockShards),
		now:       deps.Clock,
		generate:  deps.Generate,
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.ttl <= 0 {
		s.ttl = defaultTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.generate == nil {
		s.generate = GenerateCode
	}
	return s
}

func (s *service) Issue(ctx context.Context, identity string, opts IssueOptions) error {
	if identity == "" {
		return fmt.Errorf("identity is required: %w", domain.ErrInvalidInput)
	}
	if !opts.AllowUnknownIdentity {
		exists, err := s.registry.Exists(ctx, identity)
		if err != nil {
			s.metrics.IssueOutcome(OutcomeError)
			return fmt.Errorf("look up identity: %w", err)
		}
		if !exists {
			s.metrics.IssueOutcome(OutcomeIdentityNotFound)
			return fmt.Errorf("email is not registered: %w", domain.ErrIdentityNotFound)
		}
	}

	pc, outcome, err := s.prepare(ctx, identity, false)
	if err != nil {
		return err
	}
	return s.deliver(ctx, identity, pc, outcome)
}

func (s *service) Reissue(ctx context.Context, identity string) error {
	if identity == "" {
		return fmt.Errorf("identity is required: %w", domain.ErrInvalidInput)
	}
	pc, outcome, err := s.prepare(ctx, identity, true)
	if err != nil {
		return err
	}
	return s.deliver(ctx, identity, pc, outcome)
}

// prepare runs the read-check-write for identity under its lock and returns
// the code to deliver. With discard set, any pending code is dropped first.
// Delivery happens after the lock is released.
func (s *service) prepare(ctx context.Context, identity string, discard bool) (*domain.PendingCode, string, error) {
	unlock := s.locks.Lock(identity)
	defer unlock()

	if discard {
		if err := s.store.Delete(ctx, identity); err != nil {
			s.metrics.IssueOutcome(OutcomeError)
			return nil, "", fmt.Errorf("discard pending code: %w", err)
		}
	}

	now := s.now()
	pc, err := s.store.Get(ctx, identity)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.metrics.IssueOutcome(OutcomeError)
		return nil, "", fmt.Errorf("load pending code: %w", err)
	}
	if pc != nil && !pc.Expired(now) {
		return pc, OutcomeReused, nil
	}

	code, err := s.generate()
	if err != nil {
		s.metrics.IssueOutcome(OutcomeError)
		return nil, "", fmt.Errorf("generate code: %w", err)
	}
	pc = &domain.PendingCode{
		Identity:   identity,
		IssuanceID: id.NewAt(now),
		Code:       code,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.store.Put(ctx, pc); err != nil {
		s.metrics.IssueOutcome(OutcomeError)
		return nil, "", fmt.Errorf("store pending code: %w", err)
	}
	return pc, OutcomeIssued, nil
}

func (s *service) deliver(ctx context.Context, identity string, pc *domain.PendingCode, outcome string) error {
	fields := []zap.Field{
		zap.String("identity", logger.MaskEmail(identity)),
		zap.String("issuance_id", pc.IssuanceID),
		zap.Time("expires_at", pc.ExpiresAt),
		zap.Bool("reused", outcome == OutcomeReused),
	}

	start := time.Now()
	err := s.deliverer.Deliver(ctx, identity, domain.Delivery{
		Code:       pc.Code,
		TTLMinutes: int(s.ttl / time.Minute),
	})
	s.metrics.ObserveDelivery(time.Since(start))
	if err != nil {
		// The stored code stays valid; the user recovers with a resend.
		s.metrics.IssueOutcome(OutcomeDeliveryFailed)
		s.log.Warn("otp delivery failed", append(fields, zap.Error(err))...)
		return fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}

	s.metrics.IssueOutcome(outcome)
	s.log.Info("otp sent", fields...)
	return nil
}

func (s *service) Verify(ctx context.Context, identity, submitted string) error {
	if identity == "" || submitted == "" {
		return fmt.Errorf("identity and code are required: %w", domain.ErrInvalidInput)
	}

	unlock := s.locks.Lock(identity)
	defer unlock()

	pc, err := s.store.Get(ctx, identity)
	if errors.Is(err, domain.ErrNotFound) {
		s.metrics.VerifyOutcome(OutcomeNoCode)
		return fmt.Errorf("no code sent to this identity: %w", domain.ErrNoCodePending)
	}
	if err != nil {
		s.metrics.VerifyOutcome(OutcomeError)
		return fmt.Errorf("load pending code: %w", err)
	}

	if pc.Expired(s.now()) {
		if err := s.store.Delete(ctx, identity); err != nil {
			s.log.Warn("failed to evict expired code",
				zap.String("issuance_id", pc.IssuanceID), zap.Error(err))
		}
		s.metrics.VerifyOutcome(OutcomeExpired)
		return fmt.Errorf("code expired at %s: %w", pc.ExpiresAt.UTC().Format(time.RFC3339), domain.ErrCodeExpired)
	}

	if n, err := strconv.Atoi(strings.TrimSpace(submitted)); err != nil || n != pc.Code {
		s.metrics.VerifyOutcome(OutcomeMismatch)
		return fmt.Errorf("submitted code does not match: %w", domain.ErrCodeMismatch)
	}

	// A code that cannot be removed must not be reported as consumed.
	if err := s.store.Delete(ctx, identity); err != nil {
		s.metrics.VerifyOutcome(OutcomeError)
		return fmt.Errorf("consume pending code: %w", err)
	}
	s.metrics.VerifyOutcome(OutcomeVerified)
	s.log.Info("otp verified",
		zap.String("identity", logger.MaskEmail(identity)),
		zap.String("issuance_id", pc.IssuanceID))
	return nil
}

// GenerateCode returns a uniformly random code in [domain.CodeMin, domain.CodeMax].
func GenerateCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(domain.CodeMax-domain.CodeMin+1))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()) + domain.CodeMin, nil
}

type nopMetrics struct{}

func (nopMetrics) IssueOutcome(string)           {}
func (nopMetrics) VerifyOutcome(string)          {}
func (nopMetrics) ObserveDelivery(time.Duration) {}
