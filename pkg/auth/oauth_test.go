package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", TokenFile)
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, saveToken(path, tok))
	got, err := tokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a", got.AccessToken)
	assert.Equal(t, "r", got.RefreshToken)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestResetToken(t *testing.T) {
	dir := t.TempDir()
	opts := Options{CredentialsFile: filepath.Join(dir, "c.json"), TokenFile: filepath.Join(dir, TokenFile)}

	require.NoError(t, ResetToken(opts), "missing token is not an error")
	require.NoError(t, os.WriteFile(opts.TokenFile, []byte("{}"), 0600))
	require.NoError(t, ResetToken(opts))
	_, err := os.Stat(opts.TokenFile)
	assert.True(t, os.IsNotExist(err))
}

func TestFixRedirectURL(t *testing.T) {
	assert.Equal(t, "http://localhost:6789/oauth2callback", fixRedirectURL("urn:ietf:wg:oauth:2.0:oob"))
	assert.Equal(t, "http://localhost:6789", fixRedirectURL("http://localhost"))
	assert.Equal(t, "http://127.0.0.1:6789/cb", fixRedirectURL("http://127.0.0.1:9000/cb"))
	assert.Equal(t, "https://example.com/cb", fixRedirectURL("https://example.com/cb"))
}

func TestClientOptionErrors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := ClientOption(ctx, Options{Mode: ModeServiceAccount, CredentialsFile: filepath.Join(dir, "missing.json"), TokenFile: "x"}, nil)
	assert.ErrorContains(t, err, "unable to read service account file")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0600))
	_, err = ClientOption(ctx, Options{Mode: ModeServiceAccount, CredentialsFile: bad, TokenFile: "x"}, nil)
	assert.ErrorContains(t, err, "unable to parse service account file")

	_, err = ClientOption(ctx, Options{Mode: "kerberos", CredentialsFile: bad, TokenFile: "x"}, nil)
	assert.ErrorContains(t, err, "unknown credentials mode")
}
