package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/authsvc/internal/domain"
)

// CodeStore is the one-time code persistence interface consumed by
// CodeService.
type CodeStore interface {
	Insert(ctx context.Context, code domain.OneTimeCode) error
	Consume(ctx context.Context, userID uuid.UUID, channel domain.CodeChannel, code string, now time.Time) error
}

// CodeService issues and verifies one-time verification codes.
type CodeService struct {
	codes    CodeStore
	emailTTL time.Duration
	phoneTTL time.Duration
	now      func() time.Time
}

// NewCodeService creates a CodeService. A nil clock defaults to time.Now.
func NewCodeService(codes CodeStore, emailTTL, phoneTTL time.Duration, now func() time.Time) *CodeService {
	if now == nil {
		now = time.Now
	}
	return &CodeService{codes: codes, emailTTL: emailTTL, phoneTTL: phoneTTL, now: now}
}

// Issue generates a fresh 6-digit code for the user on the given
// channel and persists it. Earlier outstanding codes stay valid.
func (s *CodeService) Issue(ctx context.Context, userID uuid.UUID, channel domain.CodeChannel) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	ttl := s.emailTTL
	if channel == domain.CodeChannelPhone {
		ttl = s.phoneTTL
	}

	err = s.codes.Insert(ctx, domain.OneTimeCode{
		UserID:    userID,
		Channel:   channel,
		Code:      code,
		ExpiresAt: s.now().Add(ttl),
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// Verify consumes a submitted code. A correct, unexpired code succeeds
// exactly once; an unknown code reports domain.ErrInvalidCredential
// and an expired one domain.ErrExpired.
func (s *CodeService) Verify(ctx context.Context, userID uuid.UUID, channel domain.CodeChannel, code string) error {
	err := s.codes.Consume(ctx, userID, channel, code, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: verification code mismatch", domain.ErrInvalidCredential)
		}
		return err
	}
	return nil
}

// generateCode returns a uniformly random 6-digit numeric code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
