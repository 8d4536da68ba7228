package notefolio

import (
	"github.com/rs/zerolog"

	"github.com/notefolio/notefolio/pkg/liveview"
	"github.com/notefolio/notefolio/pkg/models"
	"github.com/notefolio/notefolio/pkg/store"
)

// NoteCursor extracts the pagination cursor from a note.
func NoteCursor(n models.Note) store.Cursor {
	return store.Cursor{CreatedAt: n.CreatedAt, ID: n.ID.String()}
}

// FolderCursor exists so folder views satisfy the view contract; the folder
// listing is unpaginated, so it is never invoked.
func FolderCursor(f models.Folder) store.Cursor {
	return store.Cursor{ID: f.ID.String()}
}

// OwnerNotesView is the live "all my notes" list, newest first.
func (a *App) OwnerNotesView(owner models.UserID, log zerolog.Logger) *liveview.View[models.Note] {
	return liveview.New[models.Note](a.store.Notes(), store.OwnerNotes(owner), NoteCursor, log)
}

// FolderNotesView is the live list of one folder's notes, newest first.
func (a *App) FolderNotesView(owner models.UserID, folder models.FolderID, log zerolog.Logger) *liveview.View[models.Note] {
	return liveview.New[models.Note](a.store.Notes(), store.FolderNotes(owner, folder), NoteCursor, log)
}

// PublicFeedView is the live cross-user feed of public notes.
func (a *App) PublicFeedView(log zerolog.Logger) *liveview.View[models.Note] {
	return liveview.New[models.Note](a.store.Notes(), store.PublicFeed(), NoteCursor, log)
}

// FoldersView is the live, unpaginated folder list, ordered by name.
func (a *App) FoldersView(owner models.UserID, log zerolog.Logger) *liveview.View[models.Folder] {
	return liveview.New[models.Folder](a.store.Folders(), store.OwnerFolders(owner), FolderCursor, log)
}
