package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marinelli-collision/bodyshop-api/config"
)

// Auth0UserInfo is the subset of the /userinfo response used when
// provisioning a user row for a fresh Auth0 subject
type Auth0UserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Auth0Service fetches identity details from the Auth0 tenant
type Auth0Service struct {
	domain     string
	httpClient *http.Client
}

// NewAuth0Service creates an Auth0 client for the configured tenant
func NewAuth0Service(cfg *config.Config) *Auth0Service {
	return &Auth0Service{
		domain:     cfg.Auth0Domain,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// userinfoURL builds the endpoint URL. Test setups pass a full http:// URL
// as the domain to point at an httptest server; production config carries a
// bare tenant domain.
func (s *Auth0Service) userinfoURL() string {
	if strings.HasPrefix(s.domain, "http://") || strings.HasPrefix(s.domain, "https://") {
		return s.domain + "/userinfo"
	}
	return "https://" + s.domain + "/userinfo"
}

// GetUserInfo exchanges a bearer access token for the subject's profile via
// Auth0's /userinfo endpoint
func (s *Auth0Service) GetUserInfo(accessToken string) (*Auth0UserInfo, error) {
	req, err := http.NewRequest(http.MethodGet, s.userinfoURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, string(body))
	}

	var info Auth0UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	return &info, nil
}
