package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/logging"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/protocol"
)

// Google OAuth endpoints and client registration.
const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleRevokeURL   = "https://oauth2.googleapis.com/revoke"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo?alt=json"

	googleRedirectURL  = "http://localhost:51841/oauth-callback"
	googleCallbackPort = ":51841"

	tokenFileName = "google_token.json"
)

var googleScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// googleToken holds the cached OAuth token details.
type googleToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	Expiry       time.Time `json:"expiry"`
	Email        string    `json:"email,omitempty"`
}

// GoogleProvider implements Provider against Google OAuth with a PKCE
// interactive flow and a token-file cache for the non-interactive path.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	tokenFile    string
	httpClient   *http.Client

	mu sync.Mutex

	// OpenURL presents the consent URL to the user during the interactive
	// flow. Defaults to printing it; the CLI installs a browser opener.
	OpenURL func(url string) error
}

// NewGoogleProvider creates a provider caching its token under stateDir.
// Client registration comes from the environment so credentials never live
// in the repository.
func NewGoogleProvider(stateDir string) *GoogleProvider {
	return &GoogleProvider{
		clientID:     os.Getenv("TRUTHSCOPE_GOOGLE_CLIENT_ID"),
		clientSecret: os.Getenv("TRUTHSCOPE_GOOGLE_CLIENT_SECRET"),
		tokenFile:    filepath.Join(stateDir, tokenFileName),
		httpClient:   &http.Client{},
		OpenURL: func(u string) error {
			fmt.Fprintf(os.Stderr, "Open this URL to sign in:\n%s\n", u)
			return nil
		},
	}
}

// RequestCredential obtains an access token. The non-interactive path only
// consults the cached token file, refreshing when expired; the interactive
// path runs the full PKCE consent flow.
func (g *GoogleProvider) RequestCredential(ctx context.Context, interactive bool) (string, error) {
	if !interactive {
		return g.cachedCredential(ctx)
	}
	if g.clientID == "" || g.clientSecret == "" {
		return "", fmt.Errorf("google client registration not configured")
	}
	return g.interactiveCredential(ctx)
}

func (g *GoogleProvider) cachedCredential(ctx context.Context) (string, error) {
	tok, err := g.loadToken()
	if err != nil {
		return "", fmt.Errorf("no cached credential: %w", err)
	}

	// Refresh with margin so a token does not expire mid-pipeline.
	if time.Now().Add(5 * time.Minute).Before(tok.Expiry) {
		return tok.AccessToken, nil
	}
	if tok.RefreshToken == "" {
		return "", fmt.Errorf("cached credential expired and not refreshable")
	}

	logging.SessionDebug("cached token expired, refreshing")
	refreshed, err := g.refresh(ctx, tok.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh credential: %w", err)
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	refreshed.Email = tok.Email
	if err := g.saveToken(refreshed); err != nil {
		logging.SessionWarn("failed to persist refreshed token: %v", err)
	}
	return refreshed.AccessToken, nil
}

func (g *GoogleProvider) interactiveCredential(ctx context.Context) (string, error) {
	verifier, challenge, err := pkcePair()
	if err != nil {
		return "", err
	}
	state, err := randomState()
	if err != nil {
		return "", err
	}

	authURL, err := g.buildAuthURL(challenge, state)
	if err != nil {
		return "", err
	}
	if err := g.OpenURL(authURL); err != nil {
		return "", fmt.Errorf("failed to present consent URL: %w", err)
	}

	code, err := g.waitForCallback(ctx, state)
	if err != nil {
		return "", err
	}

	tok, err := g.exchangeCode(ctx, code, verifier)
	if err != nil {
		return "", err
	}
	if err := g.saveToken(tok); err != nil {
		logging.SessionWarn("failed to cache token: %v", err)
	}
	return tok.AccessToken, nil
}

// FetchProfile resolves the Google userinfo behind a credential.
func (g *GoogleProvider) FetchProfile(ctx context.Context, credential string) (*protocol.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("userinfo request failed (%d): %s", resp.StatusCode, string(body))
	}

	var info struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("userinfo response missing email")
	}
	return &protocol.Profile{
		Email:       info.Email,
		DisplayName: info.Name,
		PictureURL:  info.Picture,
	}, nil
}

// RemoveCached deletes the token file. Missing file is fine.
func (g *GoogleProvider) RemoveCached(string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := os.Remove(g.tokenFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Revoke revokes the credential at Google.
func (g *GoogleProvider) Revoke(ctx context.Context, credential string) error {
	data := url.Values{}
	data.Set("token", credential)

	req, err := http.NewRequestWithContext(ctx, "POST", googleRevokeURL, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("revocation failed (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}

func (g *GoogleProvider) buildAuthURL(challenge, state string) (string, error) {
	u, err := url.Parse(googleAuthURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("client_id", g.clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", googleRedirectURL)
	q.Set("scope", strings.Join(googleScopes, " "))
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	q.Set("state", state)
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// waitForCallback runs a local HTTP server until the OAuth redirect arrives.
func (g *GoogleProvider) waitForCallback(ctx context.Context, expectedState string) (string, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth-callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != expectedState {
			http.Error(w, "Invalid state", http.StatusBadRequest)
			errChan <- fmt.Errorf("invalid state received")
			return
		}
		if errStr := q.Get("error"); errStr != "" {
			http.Error(w, "Sign-in failed: "+errStr, http.StatusBadRequest)
			errChan <- fmt.Errorf("sign-in declined: %s", errStr)
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code received", http.StatusBadRequest)
			errChan <- fmt.Errorf("no code received")
			return
		}
		w.Write([]byte("Signed in. You can close this window."))
		codeChan <- code
	})

	server := &http.Server{Addr: googleCallbackPort, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	defer server.Close()

	select {
	case code := <-codeChan:
		return code, nil
	case err := <-errChan:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *GoogleProvider) exchangeCode(ctx context.Context, code, verifier string) (*googleToken, error) {
	data := url.Values{}
	data.Set("client_id", g.clientID)
	data.Set("client_secret", g.clientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", googleRedirectURL)
	data.Set("code_verifier", verifier)

	tok, err := g.tokenRequest(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	return tok, nil
}

func (g *GoogleProvider) refresh(ctx context.Context, refreshToken string) (*googleToken, error) {
	data := url.Values{}
	data.Set("client_id", g.clientID)
	data.Set("client_secret", g.clientSecret)
	data.Set("refresh_token", refreshToken)
	data.Set("grant_type", "refresh_token")
	return g.tokenRequest(ctx, data)
}

func (g *GoogleProvider) tokenRequest(ctx context.Context, data url.Values) (*googleToken, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", googleTokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token request failed (%d): %s", resp.StatusCode, string(body))
	}

	var tok googleToken
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, err
	}
	tok.Expiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return &tok, nil
}

func (g *GoogleProvider) loadToken() (*googleToken, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	data, err := os.ReadFile(g.tokenFile)
	if err != nil {
		return nil, err
	}
	var tok googleToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (g *GoogleProvider) saveToken(tok *googleToken) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(g.tokenFile), 0755); err != nil {
		return err
	}
	return os.WriteFile(g.tokenFile, data, 0600)
}

func pkcePair() (verifier, challenge string, err error) {
	verifierBytes := make([]byte, 32)
	if _, err = rand.Read(verifierBytes); err != nil {
		return "", "", err
	}
	verifier = base64.RawURLEncoding.EncodeToString(verifierBytes)
	hash := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(hash[:])
	return verifier, challenge, nil
}

func randomState() (string, error) {
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(stateBytes), nil
}
