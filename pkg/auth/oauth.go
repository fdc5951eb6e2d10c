package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	// ClientSecretsFile is the default name of the downloaded OAuth client
	// or service account JSON, looked up under the config directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile is where the installed-app flow stores the user's token.
	TokenFile = "token.json"

	// LocalhostAuthPort is the port the local server listens on to capture
	// the OAuth redirect.
	LocalhostAuthPort = "6789"

	xdgAppName = "taskboard"
)

// Credential modes.
const (
	ModeServiceAccount = "service_account"
	ModeOAuth          = "oauth"
	ModeDefault        = "default"
)

// Options selects how the Sheets client authenticates.
type Options struct {
	Mode            string `yaml:"mode" json:"mode"`
	CredentialsFile string `yaml:"file" json:"file"`
	TokenFile       string `yaml:"token_file" json:"token_file"`
}

// withDefaults fills empty paths from the config directory.
func (o Options) withDefaults() (Options, error) {
	if o.Mode == "" {
		o.Mode = ModeServiceAccount
	}
	if o.CredentialsFile != "" && o.TokenFile != "" {
		return o, nil
	}
	base, err := GetXdgHome()
	if err != nil {
		return o, err
	}
	if o.CredentialsFile == "" {
		o.CredentialsFile = filepath.Join(base, ClientSecretsFile)
	}
	if o.TokenFile == "" {
		o.TokenFile = filepath.Join(base, TokenFile)
	}
	return o, nil
}

// ClientOption returns the API option that authenticates requests for the
// configured mode.
func ClientOption(ctx context.Context, opts Options, scopes []string) (option.ClientOption, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	switch opts.Mode {
	case ModeServiceAccount:
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account file %s: %w", opts.CredentialsFile, err)
		}
		creds, err := google.CredentialsFromJSON(ctx, b, scopes...)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account file: %w", err)
		}
		return option.WithCredentials(creds), nil
	case ModeOAuth:
		client, err := GetClient(ctx, opts, scopes)
		if err != nil {
			return nil, err
		}
		return option.WithHTTPClient(client), nil
	case ModeDefault:
		creds, err := google.FindDefaultCredentials(ctx, scopes...)
		if err != nil {
			return nil, fmt.Errorf("unable to find default credentials: %w", err)
		}
		return option.WithCredentials(creds), nil
	default:
		return nil, fmt.Errorf("unknown credentials mode %q (want %s, %s or %s)",
			opts.Mode, ModeServiceAccount, ModeOAuth, ModeDefault)
	}
}

// GetConfig creates an oauth2.Config from the client secrets file and scopes.
func GetConfig(secretsFile string, scopes []string) (*oauth2.Config, error) {
	b, err := os.ReadFile(secretsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", secretsFile, err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = fixRedirectURL(config.RedirectURL)
	return config, nil
}

// fixRedirectURL forces localhost and out-of-band redirects onto
// LocalhostAuthPort, where getTokenFromWeb listens.
func fixRedirectURL(redirect string) string {
	log := zap.L()
	if redirect == "urn:ietf:wg:oauth:2.0:oob" {
		fixed := fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
		log.Info("overriding out-of-band redirect URL", zap.String("redirect_url", fixed))
		return fixed
	}

	parsedURL, err := url.Parse(redirect)
	if err != nil {
		log.Warn("could not parse redirect URL, using it as is", zap.String("redirect_url", redirect), zap.Error(err))
		return redirect
	}
	if parsedURL.Hostname() != "localhost" && parsedURL.Hostname() != "127.0.0.1" {
		log.Warn("redirect URL is not a localhost callback", zap.String("redirect_url", redirect))
		return redirect
	}
	if parsedURL.Port() != LocalhostAuthPort {
		if parsedURL.Port() != "" {
			log.Warn("forcing localhost redirect port",
				zap.String("configured", parsedURL.Port()),
				zap.String("port", LocalhostAuthPort))
		}
		parsedURL.Host = net.JoinHostPort(parsedURL.Hostname(), LocalhostAuthPort)
	}
	return parsedURL.String()
}

// GetClient retrieves an authenticated *http.Client for the installed-app
// flow. It loads a saved token, or runs the browser flow when there is none.
// The returned client refreshes the access token on its own.
func GetClient(ctx context.Context, opts Options, scopes []string) (*http.Client, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	config, err := GetConfig(opts.CredentialsFile, scopes)
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(opts.TokenFile)
	if err != nil {
		zap.L().Info("no saved token, starting web authorization flow", zap.String("token_file", opts.TokenFile))
		tok, err = getTokenFromWeb(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := saveToken(opts.TokenFile, tok); err != nil {
			return nil, err
		}
	}

	// Persist the token again if it was refreshed on the way in.
	src := config.TokenSource(ctx, tok)
	if current, err := src.Token(); err == nil &&
		(current.AccessToken != tok.AccessToken || current.RefreshToken != tok.RefreshToken) {
		if err := saveToken(opts.TokenFile, current); err != nil {
			zap.L().Warn("could not save refreshed token", zap.Error(err))
		}
		tok = current
	}

	return config.Client(ctx, tok), nil
}

// ResetToken removes a saved token so the next GetClient re-authorizes.
func ResetToken(opts Options) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}
	if err := os.Remove(opts.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete token file '%s': %w", opts.TokenFile, err)
	}
	return nil
}

// getTokenFromWeb runs the authorization code flow through a local web
// server that captures the redirect.
func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				errCh <- fmt.Errorf("authorization code not found in redirect URL")
				return
			}
			fmt.Fprintf(w, "Authentication successful! You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// AccessTypeOffline is needed for a refresh token.
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Please open the following URL in your browser to authorize taskboard:\n%s\n", authURL)
	zap.L().Info("waiting for authorization code", zap.String("redirect_url", config.RedirectURL))

	select {
	case authCode := <-codeCh:
		exCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exCtx, authCode)
		_ = server.Shutdown(exCtx)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		_ = server.Shutdown(context.Background())
		return nil, err
	case <-ctx.Done():
		_ = server.Shutdown(context.Background())
		return nil, ctx.Err()
	case <-time.After(5 * time.Minute):
		_ = server.Shutdown(context.Background())
		return nil, fmt.Errorf("authorization timed out. Please try again")
	}
}

// tokenFromFile reads an oauth2.Token from a JSON file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

// saveToken writes an oauth2.Token to a JSON file readable only by the owner.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	zap.L().Info("saved authentication token", zap.String("path", path))
	return json.NewEncoder(f).Encode(token)
}

// GetXdgHome returns ~/.config/taskboard.
func GetXdgHome() (string, error) {
	xdgHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(xdgHome, ".config", xdgAppName), nil
}
