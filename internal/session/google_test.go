package session

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPKCEPair(t *testing.T) {
	verifier, challenge, err := pkcePair()
	require.NoError(t, err)
	assert.NotEmpty(t, verifier)
	assert.NotEmpty(t, challenge)

	hash := sha256.Sum256([]byte(verifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(hash[:]), challenge)

	// No padding characters allowed by the PKCE grammar.
	assert.NotContains(t, verifier, "=")
	assert.NotContains(t, challenge, "=")
}

func TestRandomStateUnique(t *testing.T) {
	a, err := randomState()
	require.NoError(t, err)
	b, err := randomState()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBuildAuthURL(t *testing.T) {
	g := &GoogleProvider{clientID: "client-123"}
	raw, err := g.buildAuthURL("chal", "state-xyz")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "chal", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Contains(t, q.Get("scope"), "userinfo.email")
}

func TestTokenSaveLoadRemove(t *testing.T) {
	dir := t.TempDir()
	g := NewGoogleProvider(dir)

	tok := &googleToken{
		AccessToken:  "acc",
		RefreshToken: "ref",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).UTC(),
		Email:        "a@b.c",
	}
	require.NoError(t, g.saveToken(tok))

	info, err := os.Stat(filepath.Join(dir, tokenFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := g.loadToken()
	require.NoError(t, err)
	assert.Equal(t, "acc", loaded.AccessToken)
	assert.Equal(t, "ref", loaded.RefreshToken)
	assert.Equal(t, "a@b.c", loaded.Email)

	require.NoError(t, g.RemoveCached(""))
	_, err = g.loadToken()
	assert.Error(t, err)

	// Removing again is fine.
	require.NoError(t, g.RemoveCached(""))
}

func TestCachedCredentialUsesUnexpiredToken(t *testing.T) {
	dir := t.TempDir()
	g := NewGoogleProvider(dir)
	require.NoError(t, g.saveToken(&googleToken{
		AccessToken: "fresh",
		Expiry:      time.Now().Add(time.Hour),
	}))

	cred, err := g.RequestCredential(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "fresh", cred)
}

func TestCachedCredentialExpiredWithoutRefresh(t *testing.T) {
	dir := t.TempDir()
	g := NewGoogleProvider(dir)
	require.NoError(t, g.saveToken(&googleToken{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Hour),
	}))

	_, err := g.RequestCredential(context.Background(), false)
	assert.Error(t, err)
}

func TestNonInteractiveWithoutCacheFails(t *testing.T) {
	g := NewGoogleProvider(t.TempDir())
	_, err := g.RequestCredential(context.Background(), false)
	assert.Error(t, err)
}
