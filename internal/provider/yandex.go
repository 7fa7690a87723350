package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/ivlev/authsvc/internal/domain"
)

var yandexEndpoint = oauth2.Endpoint{
	AuthURL:  "https://oauth.yandex.com/authorize",
	TokenURL: "https://oauth.yandex.com/token",
}

const yandexUserInfoURL = "https://login.yandex.ru/info"

// Yandex verifies logins through Yandex's OAuth code flow. The token
// exchange only yields an access token; the subject id comes from the
// user-info endpoint.
type Yandex struct {
	oauth       *oauth2.Config
	userInfoURL string
}

// NewYandex creates a Yandex verifier.
func NewYandex(clientID, clientSecret, redirectURI string) *Yandex {
	return newYandex(clientID, clientSecret, redirectURI, yandexEndpoint, yandexUserInfoURL)
}

func newYandex(clientID, clientSecret, redirectURI string, endpoint oauth2.Endpoint, userInfoURL string) *Yandex {
	return &Yandex{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

// Name returns the provider identifier.
func (y *Yandex) Name() domain.Provider {
	return domain.ProviderYandex
}

// AuthCodeURL returns Yandex's authorization URL.
func (y *Yandex) AuthCodeURL(state string) string {
	return y.oauth.AuthCodeURL(state)
}

// Exchange trades the authorization code for Yandex's subject id.
func (y *Yandex) Exchange(ctx context.Context, code string) (string, error) {
	token, err := y.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: yandex token exchange: %v", domain.ErrInvalidCredential, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: yandex returned no access token", domain.ErrInvalidCredential)
	}

	id, err := y.fetchSubjectID(ctx, token.AccessToken)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (y *Yandex) fetchSubjectID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.userInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch yandex user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: yandex user info returned status %d", domain.ErrInvalidCredential, resp.StatusCode)
	}

	var info struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode yandex user info: %w", err)
	}
	if info.ID == "" {
		return "", fmt.Errorf("%w: yandex returned no user id", domain.ErrInvalidCredential)
	}
	return info.ID, nil
}
