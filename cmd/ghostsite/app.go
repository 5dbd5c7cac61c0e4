package main

import (
	"context"
	"fmt"

	"github.com/qiniu/x/log"

	"github.com/qiniu/ghostsite/internal/config"
	"github.com/qiniu/ghostsite/internal/publish"
	"github.com/qiniu/ghostsite/internal/remote"
	"github.com/qiniu/ghostsite/internal/site"
	"github.com/qiniu/ghostsite/internal/updater"
)

// app holds the wired components for one invocation
type app struct {
	cfg     *config.Config
	git     publish.GitService
	remote  *remote.Client // nil unless GitHub credentials are configured
	updater *updater.Updater
}

func newApp(ctx context.Context, cfg *config.Config) *app {
	store := site.NewStore(cfg.Site.RootDir, site.Layout{
		Blog:      cfg.Site.BlogFile,
		Gallery:   cfg.Site.GalleryFile,
		Dashboard: cfg.Site.DashboardFile,
	})
	git := publish.NewGitService(publish.ExecRunner{}, cfg.Git.Binary, cfg.Site.RootDir)

	a := &app{cfg: cfg, git: git}

	if cfg.IsGitHubConfigured() {
		client, err := newRemoteClient(ctx, cfg, git)
		if err != nil {
			log.Warnf("GitHub read-back disabled: %v", err)
		} else {
			a.remote = client
		}
	}

	opts := []publish.Option{publish.WithTarget(cfg.Git.Remote, cfg.Git.Branch)}
	if cfg.GitHub.ConfirmPush && a.remote != nil {
		opts = append(opts, publish.WithConfirmer(a.remote))
	}
	publisher := publish.NewPublisher(git, opts...)

	a.updater = updater.New(store, publisher, updater.WithAnchor(cfg.Site.Anchor))
	return a
}

func newRemoteClient(ctx context.Context, cfg *config.Config, git publish.GitService) (*remote.Client, error) {
	httpClient, err := remote.NewHTTPClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo remote.Repository
	if cfg.GitHub.Repository != "" {
		repo, err = remote.ParseRepository(cfg.GitHub.Repository)
	} else {
		var url string
		url, err = git.RemoteURL(ctx, cfg.Git.Remote)
		if err == nil {
			repo, err = remote.ParseRemoteURL(url)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("cannot determine GitHub repository: %w", err)
	}

	return remote.NewClient(httpClient, repo, cfg.Git.Branch, remote.WithTimeout(cfg.GitHub.Timeout))
}

// requireRemote returns the GitHub client or explains why there is none
func (a *app) requireRemote() (*remote.Client, error) {
	if a.remote == nil {
		return nil, fmt.Errorf("GitHub read-back is not available: %w", remote.ErrNotConfigured)
	}
	return a.remote, nil
}
