package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/authsvc/internal/domain"
)

const testBotToken = "123456:test-bot-token"

// signPayload computes the widget hash the way Telegram's servers do.
func signPayload(t *testing.T, botToken string, fields map[string]string) string {
	t.Helper()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

func telegramPayload(t *testing.T) map[string]string {
	fields := map[string]string{
		"id":         "987654321",
		"first_name": "Ivan",
		"username":   "ivan_p",
		"auth_date":  "1741000000",
	}
	payload := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["hash"] = signPayload(t, testBotToken, fields)
	return payload
}

func TestTelegramVerify(t *testing.T) {
	tg := NewTelegram(testBotToken)

	id, err := tg.Verify(telegramPayload(t))
	require.NoError(t, err)
	assert.Equal(t, "987654321", id)
}

func TestTelegramVerifyTamperedField(t *testing.T) {
	tg := NewTelegram(testBotToken)

	payload := telegramPayload(t)
	payload["id"] = "111111111"

	_, err := tg.Verify(payload)
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestTelegramVerifyWrongBotToken(t *testing.T) {
	tg := NewTelegram("other:token")

	_, err := tg.Verify(telegramPayload(t))
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestTelegramVerifyMissingHash(t *testing.T) {
	tg := NewTelegram(testBotToken)

	payload := telegramPayload(t)
	delete(payload, "hash")

	_, err := tg.Verify(payload)
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestTelegramVerifyMissingID(t *testing.T) {
	tg := NewTelegram(testBotToken)

	fields := map[string]string{
		"first_name": "Ivan",
		"auth_date":  "1741000000",
	}
	payload := map[string]string{
		"first_name": "Ivan",
		"auth_date":  "1741000000",
		"hash":       signPayload(t, testBotToken, fields),
	}

	_, err := tg.Verify(payload)
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

// The signature covers field content, not field order: a map built in
// any insertion order canonicalizes to the same check string.
func TestTelegramVerifySortInvariance(t *testing.T) {
	tg := NewTelegram(testBotToken)
	reference := telegramPayload(t)

	reordered := map[string]string{}
	reordered["username"] = reference["username"]
	reordered["auth_date"] = reference["auth_date"]
	reordered["hash"] = reference["hash"]
	reordered["id"] = reference["id"]
	reordered["first_name"] = reference["first_name"]

	id, err := tg.Verify(reordered)
	require.NoError(t, err)
	assert.Equal(t, reference["id"], id)
}
