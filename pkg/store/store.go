// Package store defines the persistence contract for notefolio: query
// descriptors for the four view shapes, the error taxonomy surfaced to the UI,
// and the Store interface implemented by the SurrealDB backend and by the
// in-memory fake in storetest.
//
// The interface follows the repository pattern: entity-level mutations with
// explicit contracts, plus typed live collections that feed the liveview
// layer. Mutations never perform authorization checks themselves — those
// belong to the notes service — with one deliberate exception: the
// default-folder claim, which must be atomic at the store to be race-free.
package store

import (
	"context"

	"github.com/notefolio/notefolio/pkg/models"
)

// Querier performs one-shot bounded queries: the "load more" path.
type Querier[T any] interface {
	// Query returns the entities matching q in the established order, at
	// most q.Limit of them when Limit is positive. Failures are reported
	// as a *StoreError.
	Query(ctx context.Context, q Query) ([]T, error)
}

// Watcher is the push half of a collection. A subscription delivers the full
// current window matching q (not deltas) on every relevant change, starting
// with one initial delivery of the current state.
type Watcher[T any] interface {
	// Watch opens a subscription. onChange receives the complete ordered
	// result window; onError receives at most one terminal error, after
	// which no further onChange calls are made for this subscription.
	// The returned stop function releases the subscription and
	// synchronously prevents any further delivery; it is idempotent.
	Watch(ctx context.Context, q Query, onChange func([]T), onError func(error)) (stop func(), err error)
}

// Collection is one queryable, watchable entity collection.
type Collection[T any] interface {
	Querier[T]
	Watcher[T]
}

// Store is the persistence interface for the notefolio domain.
//
// Get methods return ErrNotFound for missing entities. Mutations are
// individually atomic; there are no cross-entity transactions (deleting a
// folder deliberately leaves its notes orphaned). All methods respect
// context cancellation.
type Store interface {
	// CreateFolder persists a new folder. The ID is assigned when zero.
	CreateFolder(ctx context.Context, folder *models.Folder) error

	// GetFolder returns the folder or ErrNotFound.
	GetFolder(ctx context.Context, id models.FolderID) (*models.Folder, error)

	// UpdateFolder partially updates name and description only; owner and
	// id are immutable.
	UpdateFolder(ctx context.Context, id models.FolderID, name, description string) error

	// DeleteFolder removes the folder by id. Notes referencing it are not
	// touched.
	DeleteFolder(ctx context.Context, id models.FolderID) error

	// ClaimDefaultFolders performs a conditional write keyed by the owner
	// id, returning true exactly once per owner across all processes.
	// Callers seed the default folders only when the claim succeeds; this
	// removes the read-then-write race between concurrent sign-ins.
	ClaimDefaultFolders(ctx context.Context, owner models.UserID) (bool, error)

	// CreateNote persists a new note. The ID is assigned when zero and
	// CreatedAt is assigned by the store; any caller-supplied CreatedAt
	// is ignored.
	CreateNote(ctx context.Context, note *models.Note) error

	// GetNote returns the note or ErrNotFound.
	GetNote(ctx context.Context, id models.NoteID) (*models.Note, error)

	// SetNotePublic partially updates the isPublic field only.
	SetNotePublic(ctx context.Context, id models.NoteID, public bool) error

	// DeleteNote removes the note by id. Ownership verification is the
	// caller's job (see notes.Service.DeleteNote).
	DeleteNote(ctx context.Context, id models.NoteID) error

	// Notes returns the live note collection.
	Notes() Collection[models.Note]

	// Folders returns the live folder collection.
	Folders() Collection[models.Folder]

	// Close releases the underlying connection.
	Close() error
}
