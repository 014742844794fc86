package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/loomonai/loomon/internal/api"
	"github.com/loomonai/loomon/internal/config"
	"github.com/loomonai/loomon/internal/flow"
	"github.com/loomonai/loomon/internal/session"
	"github.com/loomonai/loomon/internal/transcript"
)

// newAPIClient builds the backend client with the persisted cookie jar, so
// a login survives across invocations.
var newAPIClient = func() (*api.Client, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("loading config: %w", err)
	}

	origin, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("parsing base URL %q: %w", cfg.Backend.BaseURL, err)
	}

	jar, err := api.NewPersistentJar(cfg.CookieFile(), origin)
	if err != nil {
		return nil, config.Config{}, err
	}

	client, err := api.New(cfg.Backend.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: 60 * time.Second, Jar: jar}),
		api.WithCredentials(api.StaticCredentials(cfg.Backend.CSRFToken)),
	)
	if err != nil {
		return nil, config.Config{}, err
	}
	return client, cfg, nil
}

// cookieJar rebuilds the persistent jar for commands that clear it.
func cookieJar(cfg config.Config) (*api.PersistentJar, error) {
	origin, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", cfg.Backend.BaseURL, err)
	}
	return api.NewPersistentJar(cfg.CookieFile(), origin)
}

// assistantSession wires everything a conversation turn needs.
type assistantSession struct {
	client      *api.Client
	cfg         config.Config
	store       *session.Store
	transcripts *transcript.Store
	controller  *flow.Controller
	user        *api.User
}

func (s *assistantSession) Close() {
	if s.transcripts != nil {
		s.transcripts.Close()
	}
}

// newAssistantSession builds the flow controller on top of the API client,
// the persisted session state, and the local transcript cache. The
// transcript cache is optional; a failure to open it only costs the local
// mirror.
func newAssistantSession(ctx context.Context) (*assistantSession, error) {
	client, cfg, err := newAPIClient()
	if err != nil {
		return nil, err
	}

	user, err := client.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking authentication: %w", err)
	}

	store := session.NewStore(cfg.StateFile())

	opts := []flow.Option{
		flow.WithStore(store),
		flow.WithAuthenticated(user != nil),
	}

	transcripts, err := transcript.Open(cfg.TranscriptDB())
	if err != nil {
		printWarning("transcript cache unavailable: %v", err)
		transcripts = nil
	} else {
		opts = append(opts, flow.WithRecorder(transcripts))
	}

	controller := flow.New(client, slog.Default(), flow.GenSettings{
		Quality:      cfg.Defaults.Quality,
		Specificity:  cfg.Defaults.Specificity,
		InternetMode: cfg.Defaults.InternetMode,
		Model:        cfg.Defaults.Model,
	}, opts...)

	return &assistantSession{
		client:      client,
		cfg:         cfg,
		store:       store,
		transcripts: transcripts,
		controller:  controller,
		user:        user,
	}, nil
}
