package notefolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/notefolio/notefolio/pkg/models"
	"github.com/notefolio/notefolio/pkg/store"
)

// Command is one discrete application operation parsed from the CLI.
type Command interface {
	Name() string
}

// RunCommand starts the HTTP server.
type RunCommand struct{}

func (c *RunCommand) Name() string { return "run" }

// MigrateCommand applies the table and index definitions.
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string { return "migrate" }

// WatchCommand tails one live collection to stdout, printing the full
// window as a JSON line on every change. Useful for verifying push
// behavior against a running database.
type WatchCommand struct {
	// Owner scopes the watch to one user's notes (or folders).
	Owner string
	// Folder further scopes to one folder's notes.
	Folder string
	// Feed watches the public feed instead of an owner's notes.
	Feed bool
	// Folders watches the owner's folder list instead of notes.
	Folders bool
}

func (c *WatchCommand) Name() string { return "watch" }

// Migrate runs schema migrations on stores that support them.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	type migrator interface {
		Migrate(context.Context) error
	}
	m, ok := a.store.(migrator)
	if !ok {
		return errors.New("store does not support migrations")
	}
	if err := m.Migrate(ctx); err != nil {
		return err
	}
	a.log.Info().Msg("migrations applied")
	return nil
}

// Watch resolves the command's scope to a query, subscribes, and streams
// windows to stdout until the context is cancelled.
func (a *App) Watch(ctx context.Context, cmd *WatchCommand) error {
	q, err := cmd.query()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	errs := make(chan error, 1)

	var stop func()
	if cmd.Folders {
		stop, err = a.store.Folders().Watch(ctx, q,
			func(window []models.Folder) { _ = enc.Encode(window) },
			func(err error) { errs <- err },
		)
	} else {
		stop, err = a.store.Notes().Watch(ctx, q,
			func(window []models.Note) { _ = enc.Encode(window) },
			func(err error) { errs <- err },
		)
	}
	if err != nil {
		return err
	}
	defer stop()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errs:
		return fmt.Errorf("subscription failed: %w", err)
	}
}

func (c *WatchCommand) query() (store.Query, error) {
	if c.Feed {
		return store.PublicFeed(), nil
	}
	if c.Owner == "" {
		return store.Query{}, errors.New("watch requires -owner unless -feed is set")
	}
	owner, err := models.ParseUserID(c.Owner)
	if err != nil {
		return store.Query{}, fmt.Errorf("invalid owner id: %w", err)
	}
	if c.Folders {
		return store.OwnerFolders(owner), nil
	}
	if c.Folder != "" {
		folder, err := models.ParseFolderID(c.Folder)
		if err != nil {
			return store.Query{}, fmt.Errorf("invalid folder id: %w", err)
		}
		return store.FolderNotes(owner, folder), nil
	}
	return store.OwnerNotes(owner), nil
}
