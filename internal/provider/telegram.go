package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/ivlev/authsvc/internal/domain"
)

const telegramHashField = "hash"

// Telegram validates the signed payload produced by the Telegram login
// widget. The check is a pure HMAC computation; no network call is made.
type Telegram struct {
	// secret is SHA-256 of the bot token, per the widget protocol.
	secret []byte
}

// NewTelegram creates a Telegram verifier for the given bot token.
func NewTelegram(botToken string) *Telegram {
	sum := sha256.Sum256([]byte(botToken))
	return &Telegram{secret: sum[:]}
}

// Verify checks the payload signature and returns the Telegram user id.
// The signed string is every field except "hash", sorted by key and
// joined as key=value lines; the comparison is constant-time. Any
// mismatch, a missing hash, or a missing id reports
// domain.ErrInvalidCredential.
func (t *Telegram) Verify(payload map[string]string) (string, error) {
	submitted, ok := payload[telegramHashField]
	if !ok || submitted == "" {
		return "", fmt.Errorf("%w: telegram payload has no hash", domain.ErrInvalidCredential)
	}

	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(checkString(payload)))
	computed := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computed), []byte(submitted)) {
		return "", fmt.Errorf("%w: telegram signature mismatch", domain.ErrInvalidCredential)
	}

	id := payload["id"]
	if id == "" {
		return "", fmt.Errorf("%w: telegram payload has no id", domain.ErrInvalidCredential)
	}
	return id, nil
}

func checkString(payload map[string]string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k == telegramHashField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+payload[k])
	}
	return strings.Join(lines, "\n")
}
