package store

import (
	"time"

	"github.com/notefolio/notefolio/pkg/models"
)

// DefaultPageSize bounds every paginated note listing. The live window and
// each "load more" page both hold at most this many entities.
const DefaultPageSize = 10

// Collection names used by the store.
const (
	CollectionNotes   = "notes"
	CollectionFolders = "folders"
)

// Cursor marks the last entity of a materialized page. The next page starts
// strictly after it under the established order: createdAt descending with
// ascending-id tiebreak, so "after" means an older createdAt, or an equal
// createdAt with a greater id.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Query describes one filtered, ordered, bounded listing. It is a plain
// value: building one has no side effects and cannot fail. Note queries are
// always ordered by createdAt descending (id ascending on ties); the folder
// listing is unpaginated and ordered by name.
type Query struct {
	Collection string

	// Owner restricts results to documents whose userId matches. Nil for
	// the public feed, which is the only unscoped note listing.
	Owner *models.UserID

	// Folder restricts notes to one folder. Nil means no folder filter,
	// not "unfiled".
	Folder *models.FolderID

	// PublicOnly keeps only documents with isPublic = true.
	PublicOnly bool

	// Cursor, when set, restricts to entities strictly after it in the
	// established order.
	Cursor *Cursor

	// Limit bounds the result count. Zero means unbounded (folder lists).
	Limit int
}

// OwnerNotes lists every note owned by owner, newest first.
func OwnerNotes(owner models.UserID) Query {
	return Query{
		Collection: CollectionNotes,
		Owner:      &owner,
		Limit:      DefaultPageSize,
	}
}

// FolderNotes lists the owner's notes filed in one folder, newest first.
func FolderNotes(owner models.UserID, folder models.FolderID) Query {
	return Query{
		Collection: CollectionNotes,
		Owner:      &owner,
		Folder:     &folder,
		Limit:      DefaultPageSize,
	}
}

// PublicFeed lists public notes across all users, newest first.
func PublicFeed() Query {
	return Query{
		Collection: CollectionNotes,
		PublicOnly: true,
		Limit:      DefaultPageSize,
	}
}

// OwnerFolders lists every folder owned by owner. Folders carry no creation
// timestamp and the list is not paginated, so the order key is name
// ascending with id tiebreak.
func OwnerFolders(owner models.UserID) Query {
	return Query{
		Collection: CollectionFolders,
		Owner:      &owner,
	}
}

// After returns a copy of q restricted to entities strictly after c.
func (q Query) After(c Cursor) Query {
	q.Cursor = &c
	return q
}
