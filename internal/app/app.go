// Package app wires configuration into the card pipeline for the server and
// the CLI.
package app

import (
	"fmt"

	"github.com/youruser/memberids/internal/batch"
	"github.com/youruser/memberids/internal/config"
	imagepkg "github.com/youruser/memberids/internal/image"
	"github.com/youruser/memberids/internal/layout"
	"github.com/youruser/memberids/internal/logger"
	"github.com/youruser/memberids/internal/members"
	"github.com/youruser/memberids/internal/metrics"
	"github.com/youruser/memberids/internal/util"
)

type App struct {
	Config   config.Config
	Log      *logger.Logger
	Profiles layout.Profiles
	Fetcher  *imagepkg.HTTPFetcher
	Branding layout.Branding
	Options  batch.Options
}

func New(cfg config.Config, log *logger.Logger) (*App, error) {
	profiles := layout.Presets()
	if cfg.ProfilesFile != "" {
		var err error
		if profiles, err = layout.LoadProfiles(cfg.ProfilesFile); err != nil {
			return nil, err
		}
	}
	if _, err := profiles.Get(cfg.Profile); err != nil {
		return nil, fmt.Errorf("default profile: %w", err)
	}

	var logoURL string
	if cfg.LogoURL != "" {
		u, err := util.ResolveURL(cfg.SiteBase, cfg.LogoURL)
		if err != nil {
			return nil, fmt.Errorf("logo url: %w", err)
		}
		logoURL = u
	}

	fetcher := imagepkg.NewHTTPFetcher(imagepkg.FetcherOptions{
		BaseURL:  cfg.APIBase,
		Timeout:  cfg.FetchTimeout,
		MaxBytes: cfg.FetchMaxBytes,
	}, log)

	return &App{
		Config:   cfg,
		Log:      log,
		Profiles: profiles,
		Fetcher:  fetcher,
		Branding: layout.Branding{
			Name:    cfg.Org.Name,
			Address: cfg.Org.Address,
			Phones:  cfg.Org.Phones,
			Website: cfg.Org.Website,
		},
		Options: batch.Options{
			ArtifactName:       config.ArtifactName,
			Limit:              cfg.BatchLimit,
			LogoURL:            logoURL,
			FetchLogoPerMember: cfg.FetchLogoPerMember,
			BarcodeTextAsQR:    cfg.BarcodeTextAsQR,
		},
	}, nil
}

// Directory is the HTTP membership directory.
func (a *App) Directory() (*members.HTTPDirectory, error) {
	return members.NewHTTPDirectory(a.Config.APIBase, a.Config.DirectoryPath, a.Config.FetchTimeout*6, a.Log)
}

// Compositor builds a compositor for the named profile; an empty name picks
// the configured default.
func (a *App) Compositor(profile string, r batch.Renderer, m *metrics.Metrics) (*batch.Compositor, error) {
	if profile == "" {
		profile = a.Config.Profile
	}
	p, err := a.Profiles.Get(profile)
	if err != nil {
		return nil, err
	}
	engine, err := layout.NewEngine(p, a.Branding)
	if err != nil {
		return nil, err
	}
	return batch.New(a.Fetcher, engine, r, a.Options, a.Log, m), nil
}
