// Package main is the entry point for the tasktracker CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tasktracker/internal/backend/firestore"
	"tasktracker/internal/backend/identity"
	"tasktracker/internal/cli"
	"tasktracker/internal/commands"
	"tasktracker/internal/config"
	"tasktracker/internal/service"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The identity provider owns the session; the store authenticates with
	// the session's ID token, so both are built from the same settings.
	factory := func(ctx context.Context, cfg *config.Config) (*service.Backend, error) {
		settings, err := cfg.LoadSettings()
		if err != nil {
			return nil, err
		}
		sessions, err := identity.New(ctx, cfg, settings)
		if err != nil {
			return nil, err
		}
		store, err := firestore.New(ctx, cfg, settings, sessions.TokenSource(ctx))
		if err != nil {
			return nil, err
		}
		return &service.Backend{Store: store, Sessions: sessions}, nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
