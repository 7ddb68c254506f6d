// Package app wires the storage client, the mail dispatcher and the flow
// for a host process. The storage client is created once and shared by
// every invocation; configuration is loaded per invocation.
package app

import (
	"context"
	"fmt"

	"github.com/shineum/s3-mail-sender/internal/config"
	"github.com/shineum/s3-mail-sender/internal/flow"
	"github.com/shineum/s3-mail-sender/internal/mail"
	"github.com/shineum/s3-mail-sender/internal/storage"
)

// Loader returns the configuration for one invocation.
type Loader func() (*config.Config, error)

// App runs the mail flow on demand.
type App struct {
	fetcher  flow.Fetcher
	load     Loader
	mailOpts []mail.Option
}

// Option configures an App.
type Option func(*App)

// WithLoader replaces config.Load as the per-invocation configuration source.
func WithLoader(load Loader) Option {
	return func(a *App) {
		a.load = load
	}
}

// WithMailOptions appends options applied to every dispatcher the App builds.
func WithMailOptions(opts ...mail.Option) Option {
	return func(a *App) {
		a.mailOpts = append(a.mailOpts, opts...)
	}
}

// New builds the S3 fetcher from cfg.Storage and returns an App using it.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	fetcher, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return NewWithFetcher(fetcher, opts...), nil
}

// NewWithFetcher creates an App with a custom fetcher, used for testing.
func NewWithFetcher(fetcher flow.Fetcher, opts ...Option) *App {
	a := &App{
		fetcher: fetcher,
		load:    config.Load,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Execute loads the configuration, builds the dispatcher and runs the flow once.
func (a *App) Execute(ctx context.Context) (*flow.Result, error) {
	cfg, err := a.load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dispatcher, err := mail.NewFromConfig(ctx, cfg, a.mailOpts...)
	if err != nil {
		return nil, err
	}

	return flow.New(a.fetcher, dispatcher).Run(ctx, cfg)
}
