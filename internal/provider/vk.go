package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/ivlev/authsvc/internal/domain"
)

var vkEndpoint = oauth2.Endpoint{
	AuthURL:   "https://oauth.vk.com/authorize",
	TokenURL:  "https://oauth.vk.com/access_token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// VK verifies logins through VK's OAuth code flow. VK returns the
// subject id directly in the token exchange response, so no user-info
// call is needed.
type VK struct {
	oauth *oauth2.Config
}

// NewVK creates a VK verifier.
func NewVK(clientID, clientSecret, redirectURI string) *VK {
	return newVK(clientID, clientSecret, redirectURI, vkEndpoint)
}

func newVK(clientID, clientSecret, redirectURI string, endpoint oauth2.Endpoint) *VK {
	return &VK{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     endpoint,
			Scopes:       []string{"email"},
		},
	}
}

// Name returns the provider identifier.
func (v *VK) Name() domain.Provider {
	return domain.ProviderVK
}

// AuthCodeURL returns VK's authorization URL.
func (v *VK) AuthCodeURL(state string) string {
	return v.oauth.AuthCodeURL(state)
}

// Exchange trades the authorization code for VK's subject id, read
// from the user_id field of the token response.
func (v *VK) Exchange(ctx context.Context, code string) (string, error) {
	token, err := v.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: vk token exchange: %v", domain.ErrInvalidCredential, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: vk returned no access token", domain.ErrInvalidCredential)
	}

	userID := extraString(token, "user_id")
	if userID == "" {
		return "", fmt.Errorf("%w: vk returned no user id", domain.ErrInvalidCredential)
	}
	return userID, nil
}

// extraString normalizes an extra token-response field: VK serializes
// user_id as a JSON number.
func extraString(token *oauth2.Token, key string) string {
	switch v := token.Extra(key).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
