package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/authsvc/internal/domain"
	"github.com/ivlev/authsvc/internal/notify"
	"github.com/ivlev/authsvc/internal/provider"
	"github.com/ivlev/authsvc/internal/token"
)

// UserStore defines the user data access interface consumed by AuthService.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	Create(ctx context.Context, user domain.User) (*domain.User, error)
	ResolveOrCreateByProvider(ctx context.Context, p domain.Provider, providerID string) (*domain.User, error)
}

// AuthService orchestrates the authentication flows: registration with
// one-time codes, email code login, provider login, password login,
// and the refresh-token lifecycle.
type AuthService struct {
	users     UserStore
	codes     *CodeService
	ledger    *RefreshLedger
	signer    *token.Signer
	oauth     *provider.Registry
	telegram  *provider.Telegram
	email     notify.Dispatcher
	sms       notify.Dispatcher
	accessTTL time.Duration
}

// NewAuthService creates an AuthService from its collaborators.
func NewAuthService(
	users UserStore,
	codes *CodeService,
	ledger *RefreshLedger,
	signer *token.Signer,
	oauth *provider.Registry,
	telegram *provider.Telegram,
	email notify.Dispatcher,
	sms notify.Dispatcher,
	accessTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:     users,
		codes:     codes,
		ledger:    ledger,
		signer:    signer,
		oauth:     oauth,
		telegram:  telegram,
		email:     email,
		sms:       sms,
		accessTTL: accessTTL,
	}
}

// RegisterRequest starts registration for an email or phone identity:
// the user row is created (the unique index rejects duplicates as
// domain.ErrConflict) and a verification code is dispatched.
func (s *AuthService) RegisterRequest(ctx context.Context, email, phone *string) error {
	switch {
	case email != nil:
		user, err := s.users.Create(ctx, domain.User{Email: email, ServiceType: domain.ServiceTypeEmail})
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return fmt.Errorf("%w: email already registered", domain.ErrConflict)
			}
			return err
		}
		return s.sendCode(ctx, user.ID, domain.CodeChannelEmail, *email)

	case phone != nil:
		user, err := s.users.Create(ctx, domain.User{Phone: phone, ServiceType: domain.ServiceTypePhone})
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return fmt.Errorf("%w: phone already registered", domain.ErrConflict)
			}
			return err
		}
		return s.sendCode(ctx, user.ID, domain.CodeChannelPhone, *phone)

	default:
		return fmt.Errorf("%w: email or phone is required", domain.ErrInvalidInput)
	}
}

// RegisterConfirm completes registration by consuming the verification
// code and issuing the first token pair. An unknown identity and a bad
// code are indistinguishable to the caller.
func (s *AuthService) RegisterConfirm(ctx context.Context, email, phone *string, code string) (*domain.TokenPair, error) {
	user, channel, err := s.findByChannel(ctx, email, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: verification code mismatch", domain.ErrInvalidCredential)
		}
		return nil, err
	}

	if err := s.codes.Verify(ctx, user.ID, channel, code); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user.ID)
}

// EmailLoginRequest dispatches a login code to a registered email.
// Unlike registration, an unknown email reports domain.ErrNotFound.
func (s *AuthService) EmailLoginRequest(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.sendCode(ctx, user.ID, domain.CodeChannelEmail, email)
}

// EmailLoginVerify consumes a login code and issues a token pair.
func (s *AuthService) EmailLoginVerify(ctx context.Context, email, code string) (*domain.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.codes.Verify(ctx, user.ID, domain.CodeChannelEmail, code); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user.ID)
}

// OAuthURL builds the authorization URL for a configured provider.
func (s *AuthService) OAuthURL(name domain.Provider, state string) (string, error) {
	v, err := s.oauth.Get(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return v.AuthCodeURL(state), nil
}

// OAuthCallback finishes a provider code flow: the verifier resolves
// the provider subject, the subject is linked to a user (created on
// first login), and a token pair is issued.
func (s *AuthService) OAuthCallback(ctx context.Context, name domain.Provider, code string) (*domain.User, *domain.TokenPair, error) {
	v, err := s.oauth.Get(name)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}

	subject, err := v.Exchange(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	return s.loginWithProvider(ctx, name, subject)
}

// TelegramLogin validates a Telegram widget payload and issues tokens
// for the linked (or newly created) user.
func (s *AuthService) TelegramLogin(ctx context.Context, payload map[string]string) (*domain.User, *domain.TokenPair, error) {
	subject, err := s.telegram.Verify(payload)
	if err != nil {
		return nil, nil, err
	}
	return s.loginWithProvider(ctx, domain.ProviderTelegram, subject)
}

// PasswordLogin authenticates an email+password credential pair. The
// hash comparison runs even when the user or the credential is missing.
func (s *AuthService) PasswordLogin(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	var hash *string
	var userID uuid.UUID

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		hash = user.PasswordHash
		userID = user.ID
	case errors.Is(err, domain.ErrNotFound):
		// fall through to the dummy comparison
	default:
		return nil, err
	}

	if !verifyPassword(hash, password) {
		return nil, fmt.Errorf("%w: bad email or password", domain.ErrInvalidCredential)
	}
	return s.issueTokens(ctx, userID)
}

// Refresh rotates a refresh token and returns a new token pair. Any
// ledger rejection (unknown, revoked, expired) surfaces as a single
// unauthorized error so callers learn nothing about ledger state.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	userID, newRefresh, err := s.ledger.Rotate(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) ||
			errors.Is(err, domain.ErrAlreadyRevoked) ||
			errors.Is(err, domain.ErrExpired) {
			return nil, fmt.Errorf("%w: invalid or expired refresh token", domain.ErrUnauthorized)
		}
		return nil, err
	}

	access, err := s.signer.Mint(userID, token.KindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

// Revoke invalidates a refresh token. Revoking an unknown token and
// revoking twice both report domain.ErrAlreadyRevoked.
func (s *AuthService) Revoke(ctx context.Context, refreshToken string) error {
	err := s.ledger.Revoke(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyRevoked) {
			return fmt.Errorf("%w: token already revoked or invalid", domain.ErrAlreadyRevoked)
		}
		return err
	}
	return nil
}

// ValidateAccessToken verifies a signed access token and returns the
// user id, for use by the auth middleware.
func (s *AuthService) ValidateAccessToken(raw string) (uuid.UUID, error) {
	claims, err := s.signer.Verify(raw)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	if claims.Kind != token.KindAccess {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return claims.UserID, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) loginWithProvider(ctx context.Context, name domain.Provider, subject string) (*domain.User, *domain.TokenPair, error) {
	user, err := s.users.ResolveOrCreateByProvider(ctx, name, subject)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AuthService) issueTokens(ctx context.Context, userID uuid.UUID) (*domain.TokenPair, error) {
	access, err := s.signer.Mint(userID, token.KindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := s.ledger.Issue(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// sendCode issues a one-time code and hands it to the channel's
// dispatcher. Delivery failure is logged and not reported to the user;
// the code stays valid so a later redelivery can reuse the flow.
func (s *AuthService) sendCode(ctx context.Context, userID uuid.UUID, channel domain.CodeChannel, destination string) error {
	code, err := s.codes.Issue(ctx, userID, channel)
	if err != nil {
		return err
	}

	dispatcher := s.email
	if channel == domain.CodeChannelPhone {
		dispatcher = s.sms
	}
	if err := dispatcher.Send(ctx, destination, code); err != nil {
		slog.Error("code delivery failed", "channel", channel, "error", err)
	}
	return nil
}

func (s *AuthService) findByChannel(ctx context.Context, email, phone *string) (*domain.User, domain.CodeChannel, error) {
	switch {
	case email != nil:
		user, err := s.users.FindByEmail(ctx, *email)
		return user, domain.CodeChannelEmail, err
	case phone != nil:
		user, err := s.users.FindByPhone(ctx, *phone)
		return user, domain.CodeChannelPhone, err
	default:
		return nil, "", fmt.Errorf("%w: email or phone is required", domain.ErrInvalidInput)
	}
}
