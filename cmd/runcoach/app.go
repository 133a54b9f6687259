package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ajohnson23/runcoach/internal/api"
	"github.com/ajohnson23/runcoach/internal/config"
	"github.com/ajohnson23/runcoach/internal/push"
	"github.com/ajohnson23/runcoach/internal/store"
)

// errPushDisabled is returned when no push gateway is configured.
var errPushDisabled = errors.New("push gateway not configured (set push.gateway_url)")

// openApp loads the config, opens the local database, and builds an API
// client whose bearer token comes from the persisted session.
func openApp(configPath string) (*config.Config, *store.Store, *api.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	client := api.New(cfg.API.BaseURL, st, time.Duration(cfg.API.TimeoutSeconds)*time.Second)
	return cfg, st, client, nil
}

// newCoordinator builds the push coordinator from config. The API client
// registers tokens with the backend and the store records received
// notifications.
func newCoordinator(cfg *config.Config, client *api.Client, st *store.Store) (*push.Coordinator, error) {
	if cfg.Push.GatewayURL == "" {
		return nil, errPushDisabled
	}
	provider, err := push.NewGatewayProvider(push.GatewayOpts{
		URL:      cfg.Push.GatewayURL,
		Physical: !cfg.Push.Simulator,
		Notifier: &push.Notifier{Command: cfg.Push.NotifyCommand},
	})
	if err != nil {
		return nil, err
	}
	return push.NewCoordinator(push.CoordinatorOpts{
		Provider:  provider,
		Registrar: client,
		Records:   st,
		ProjectID: cfg.Push.ProjectID,
	})
}

// errorMessage maps an API failure to a short message for the user.
func errorMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			return "Not authenticated. Run 'runcoach login' first."
		case apiErr.Message != "":
			return apiErr.Message
		default:
			return fmt.Sprintf("Server error (%d).", apiErr.StatusCode)
		}
	}
	return "Could not reach the coaching service. Check your connection."
}
