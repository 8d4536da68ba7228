// Package surrealdb implements store.Store on SurrealDB: one-shot queries
// over the websocket RPC connection, live collection windows via LIVE SELECT,
// and the conditional default-folder claim as a CREATE on a marker record.
//
// The connection uses the surrealcbor codec. Without it, time.Time and
// record IDs marshal in a format the server rejects, which surfaces as
// "invalid datetime" errors on createdAt comparisons.
package surrealdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/notefolio/notefolio/pkg/models"
	"github.com/notefolio/notefolio/pkg/store"
)

// Config locates and authenticates the SurrealDB connection.
type Config struct {
	// Endpoint is the websocket URL, e.g. ws://localhost:8000/rpc. Live
	// queries need a ws/wss scheme; HTTP endpoints cannot push.
	Endpoint  string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// Store is the SurrealDB-backed store.
type Store struct {
	db  *surrealdb.DB
	log zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// New connects, authenticates, and selects the namespace and database.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	conf := connection.NewConfig(u)
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	db, err := surrealdb.FromConnection(ctx, gorillaws.New(conf))
	if err != nil {
		return nil, fmt.Errorf("connect to surrealdb: %w", err)
	}

	if cfg.Username != "" {
		if _, err := db.SignIn(ctx, surrealdb.Auth{
			Username: cfg.Username,
			Password: cfg.Password,
		}); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("sign in: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("use %s/%s: %w", cfg.Namespace, cfg.Database, err)
	}

	return &Store{
		db:  db,
		log: log.With().Str("component", "surrealdb").Logger(),
	}, nil
}

// migrations are idempotent; Migrate can run on every start.
var migrations = []string{
	"DEFINE TABLE IF NOT EXISTS notes SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS folders SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS folder_seeds SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS notes_user ON notes FIELDS userId",
	"DEFINE INDEX IF NOT EXISTS notes_folder ON notes FIELDS folderId",
	"DEFINE INDEX IF NOT EXISTS notes_public ON notes FIELDS isPublic",
	"DEFINE INDEX IF NOT EXISTS notes_created ON notes FIELDS createdAt",
	"DEFINE INDEX IF NOT EXISTS folders_user ON folders FIELDS userId",
}

// Migrate applies the table and index definitions.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := surrealdb.Query[any](ctx, s.db, stmt, nil); err != nil {
			return &store.StoreError{Op: "migrate", Err: err}
		}
		s.log.Debug().Str("stmt", stmt).Msg("applied")
	}
	return nil
}

func (s *Store) CreateFolder(ctx context.Context, folder *models.Folder) error {
	if folder.ID.IsZero() {
		folder.ID = models.NewFolderID()
	}
	if _, err := surrealdb.Create[models.Folder](ctx, s.db, store.CollectionFolders, folder); err != nil {
		return &store.StoreError{Op: "create folder", Err: err}
	}
	return nil
}

func (s *Store) GetFolder(ctx context.Context, id models.FolderID) (*models.Folder, error) {
	folder, err := surrealdb.Select[models.Folder](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, &store.StoreError{Op: "get folder", Err: err}
	}
	if folder == nil || folder.ID.IsZero() {
		return nil, store.ErrNotFound
	}
	return folder, nil
}

func (s *Store) UpdateFolder(ctx context.Context, id models.FolderID, name, description string) error {
	if _, err := surrealdb.Merge[models.Folder](ctx, s.db, id.RecordID(), map[string]any{
		"name":        name,
		"description": description,
	}); err != nil {
		return &store.StoreError{Op: "update folder", Err: err}
	}
	return nil
}

func (s *Store) DeleteFolder(ctx context.Context, id models.FolderID) error {
	if _, err := surrealdb.Delete[models.Folder](ctx, s.db, id.RecordID()); err != nil {
		return &store.StoreError{Op: "delete folder", Err: err}
	}
	return nil
}

// ClaimDefaultFolders creates the per-owner marker record. The record id is
// the owner's UUID, so a second CREATE from any process fails with "already
// exists" and the claim reports false without racing the first.
func (s *Store) ClaimDefaultFolders(ctx context.Context, owner models.UserID) (bool, error) {
	_, err := surrealdb.Query[any](ctx, s.db,
		"CREATE type::thing('folder_seeds', $owner) SET claimedAt = time::now()",
		map[string]any{"owner": owner.String()},
	)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return false, nil
		}
		return false, &store.StoreError{Op: "claim default folders", Err: err}
	}
	s.log.Info().Str("owner", owner.String()).Msg("claimed default folder seed")
	return true, nil
}

const createNoteQuery = `CREATE $id CONTENT {
	title: $title,
	content: $content,
	folderId: $folderId,
	isPublic: $isPublic,
	userId: $userId,
	createdAt: time::now()
}`

// CreateNote inserts the note with a server-assigned createdAt. The clock
// must come from the server: client clocks skew, and the pagination cursor
// compares createdAt across records written by different clients.
func (s *Store) CreateNote(ctx context.Context, note *models.Note) error {
	if note.ID.IsZero() {
		note.ID = models.NewNoteID()
	}
	res, err := surrealdb.Query[[]models.Note](ctx, s.db, createNoteQuery, map[string]any{
		"id":       note.ID,
		"title":    note.Title,
		"content":  note.Content,
		"folderId": note.FolderID,
		"isPublic": note.IsPublic,
		"userId":   note.UserID,
	})
	if err != nil {
		return &store.StoreError{Op: "create note", Err: err}
	}
	if res != nil && len(*res) > 0 && len((*res)[0].Result) > 0 {
		note.CreatedAt = (*res)[0].Result[0].CreatedAt
	}
	return nil
}

func (s *Store) GetNote(ctx context.Context, id models.NoteID) (*models.Note, error) {
	note, err := surrealdb.Select[models.Note](ctx, s.db, id.RecordID())
	if err != nil {
		if isNotFound(err) {
			return nil, store.ErrNotFound
		}
		return nil, &store.StoreError{Op: "get note", Err: err}
	}
	if note == nil || note.ID.IsZero() {
		return nil, store.ErrNotFound
	}
	return note, nil
}

func (s *Store) SetNotePublic(ctx context.Context, id models.NoteID, public bool) error {
	if _, err := surrealdb.Merge[models.Note](ctx, s.db, id.RecordID(), map[string]any{
		"isPublic": public,
	}); err != nil {
		return &store.StoreError{Op: "set note public", Err: err}
	}
	return nil
}

func (s *Store) DeleteNote(ctx context.Context, id models.NoteID) error {
	if _, err := surrealdb.Delete[models.Note](ctx, s.db, id.RecordID()); err != nil {
		return &store.StoreError{Op: "delete note", Err: err}
	}
	return nil
}

func (s *Store) Notes() store.Collection[models.Note] {
	return collection[models.Note]{s: s}
}

func (s *Store) Folders() store.Collection[models.Folder] {
	return collection[models.Folder]{s: s}
}

func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

// isNotFound recognizes the driver's missing-record responses, which arrive
// as unmarshal failures rather than a sentinel.
func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Expected a single or multiple results but got 0") ||
		strings.Contains(msg, "cannot unmarshal array into Go value")
}

// collection is the generic query/watch surface over one table.
type collection[T any] struct {
	s *Store
}

func (c collection[T]) Query(ctx context.Context, q store.Query) ([]T, error) {
	sql, vars := renderSelect(q)
	res, err := surrealdb.Query[[]T](ctx, c.s.db, sql, vars)
	if err != nil {
		return nil, &store.StoreError{Op: "query " + q.Collection, Err: err}
	}
	if res == nil || len(*res) == 0 {
		return nil, nil
	}
	return (*res)[0].Result, nil
}
