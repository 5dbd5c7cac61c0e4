package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/qiniu/x/log"
	"golang.org/x/oauth2"

	"github.com/qiniu/ghostsite/internal/config"
)

var ErrNotConfigured = errors.New("no GitHub credentials configured")

// NewHTTPClient returns an HTTP client authenticated for the GitHub APIs.
// GitHub App credentials take priority; a personal access token is the fallback.
func NewHTTPClient(ctx context.Context, cfg *config.Config) (*http.Client, error) {
	if cfg.IsGitHubAppConfigured() {
		client, err := newAppHTTPClient(cfg.GitHub.App)
		if err == nil {
			return client, nil
		}
		log.Warnf("GitHub App configuration failed: %v", err)
	}

	if cfg.IsGitHubTokenConfigured() {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHub.Token})
		return oauth2.NewClient(ctx, ts), nil
	}

	return nil, ErrNotConfigured
}

// newAppHTTPClient authenticates as a GitHub App installation via ghinstallation
func newAppHTTPClient(app config.GitHubAppConfig) (*http.Client, error) {
	var (
		transport *ghinstallation.Transport
		err       error
	)
	switch {
	case app.PrivateKeyPath != "":
		transport, err = ghinstallation.NewKeyFromFile(http.DefaultTransport, app.AppID, app.InstallationID, app.PrivateKeyPath)
	case app.PrivateKey != "":
		transport, err = ghinstallation.New(http.DefaultTransport, app.AppID, app.InstallationID, []byte(app.PrivateKey))
	default:
		return nil, errors.New("no private key source configured")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}
	return &http.Client{Transport: transport}, nil
}
