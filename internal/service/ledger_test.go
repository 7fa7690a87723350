package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/authsvc/internal/domain"
	"github.com/ivlev/authsvc/internal/token"
)

func newTestLedger(clk *fakeClock) *RefreshLedger {
	signer := token.NewSigner("ledger-test-secret", clk.Now)
	return NewRefreshLedger(&fakeTokenStore{}, signer, 7*24*time.Hour, clk.Now)
}

func TestLedgerRotationInvalidatesOldToken(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	ledger := newTestLedger(clk)
	userID := uuid.New()

	t0, err := ledger.Issue(context.Background(), userID)
	require.NoError(t, err)

	// jwt exp has second granularity; move the clock so t1 differs from t0
	clk.Advance(time.Second)

	owner, t1, err := ledger.Rotate(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, userID, owner)
	assert.NotEqual(t, t0, t1)

	// the old value no longer resolves
	_, _, err = ledger.Rotate(context.Background(), t0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the new value rotates fine
	clk.Advance(time.Second)
	_, t2, err := ledger.Rotate(context.Background(), t1)
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestLedgerRotateExpired(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	ledger := newTestLedger(clk)

	raw, err := ledger.Issue(context.Background(), uuid.New())
	require.NoError(t, err)

	clk.Advance(7*24*time.Hour + time.Minute)
	_, _, err = ledger.Rotate(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrExpired)
}

func TestLedgerRevoke(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	ledger := newTestLedger(clk)

	raw, err := ledger.Issue(context.Background(), uuid.New())
	require.NoError(t, err)

	require.NoError(t, ledger.Revoke(context.Background(), raw))

	// a revoked token never rotates
	_, _, err = ledger.Rotate(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrAlreadyRevoked)

	// repeated revocation is reported, not absorbed
	err = ledger.Revoke(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrAlreadyRevoked)
}

func TestLedgerRevokeUnknown(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	ledger := newTestLedger(clk)

	err := ledger.Revoke(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
