package notes

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefolio/notefolio/pkg/liveview"
	"github.com/notefolio/notefolio/pkg/models"
	"github.com/notefolio/notefolio/pkg/store"
	"github.com/notefolio/notefolio/pkg/store/storetest"
)

func noteCursor(n models.Note) store.Cursor {
	return store.Cursor{CreatedAt: n.CreatedAt, ID: n.ID.String()}
}

func folderCursor(f models.Folder) store.Cursor {
	return store.Cursor{ID: f.ID.String()}
}

// TestFirstSessionFlow drives a whole first session through the service and
// live views: sign-in seeding, filing a note, publishing it, then deleting
// its folder and keeping the orphaned note reachable.
func TestFirstSessionFlow(t *testing.T) {
	ctx := context.Background()
	fake := storetest.NewFake()
	svc := NewService(fake, zerolog.Nop())
	owner := models.NewUserID()

	// First sign-in seeds the starter folders.
	seeded, err := svc.EnsureDefaultFolders(ctx, owner)
	require.NoError(t, err)
	require.True(t, seeded)

	folders := liveview.New[models.Folder](fake.Folders(), store.OwnerFolders(owner), folderCursor, zerolog.Nop())
	require.NoError(t, folders.Start(ctx))
	defer folders.Stop()

	myNotes := liveview.New[models.Note](fake.Notes(), store.OwnerNotes(owner), noteCursor, zerolog.Nop())
	require.NoError(t, myNotes.Start(ctx))
	defer myNotes.Stop()

	feed := liveview.New[models.Note](fake.Notes(), store.PublicFeed(), noteCursor, zerolog.Nop())
	require.NoError(t, feed.Start(ctx))
	defer feed.Stop()

	snap := folders.Snapshot()
	require.Len(t, snap.Entities, 3)
	ideas := snap.Entities[0]
	require.Equal(t, "Ideas", ideas.Name)

	// File a note in Ideas; the folder view of Ideas picks it up.
	ideasNotes := liveview.New[models.Note](fake.Notes(), store.FolderNotes(owner, ideas.ID), noteCursor, zerolog.Nop())
	require.NoError(t, ideasNotes.Start(ctx))
	defer ideasNotes.Stop()

	note, err := svc.CreateNote(ctx, owner, "weekend project", "build a birdhouse", &ideas.ID, false)
	require.NoError(t, err)

	require.Len(t, myNotes.Snapshot().Entities, 1)
	require.Len(t, ideasNotes.Snapshot().Entities, 1)
	assert.Empty(t, feed.Snapshot().Entities, "private note stays out of the feed")

	// Publish it: the feed updates without a refresh.
	require.NoError(t, svc.SetNoteVisibility(ctx, owner, note.ID, true))
	feedSnap := feed.Snapshot()
	require.Len(t, feedSnap.Entities, 1)
	assert.Equal(t, note.ID, feedSnap.Entities[0].ID)

	// Unpublish: it leaves the feed again.
	require.NoError(t, svc.SetNoteVisibility(ctx, owner, note.ID, false))
	assert.Empty(t, feed.Snapshot().Entities)

	// Delete the Ideas folder. The note is orphaned, not deleted: it
	// vanishes from the folder view but stays in the all-notes view.
	require.NoError(t, svc.DeleteFolder(ctx, owner, ideas.ID))
	assert.Len(t, folders.Snapshot().Entities, 2)
	assert.Len(t, myNotes.Snapshot().Entities, 1)

	got, err := fake.GetNote(ctx, note.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FolderID)
	assert.Equal(t, ideas.ID, *got.FolderID, "orphan keeps its dangling folder reference")
}

// TestPaginationAcrossLiveUpdates checks that paging below the live window
// and a concurrent insert compose: the window replacement resets the list
// and the next page re-fetches from the fresh cursor without duplicates.
func TestPaginationAcrossLiveUpdates(t *testing.T) {
	ctx := context.Background()
	fake := storetest.NewFake()
	svc := NewService(fake, zerolog.Nop())
	owner := models.NewUserID()

	for i := 0; i < 25; i++ {
		_, err := svc.CreateNote(ctx, owner, "note", "", nil, false)
		require.NoError(t, err)
	}

	view := liveview.New[models.Note](fake.Notes(), store.OwnerNotes(owner), noteCursor, zerolog.Nop())
	require.NoError(t, view.Start(ctx))
	defer view.Stop()

	require.Len(t, view.Snapshot().Entities, store.DefaultPageSize)
	require.NoError(t, view.LoadMore(ctx))
	require.Len(t, view.Snapshot().Entities, 20)

	// A new note replaces the window: back to one page, newest on top.
	latest, err := svc.CreateNote(ctx, owner, "just in", "", nil, false)
	require.NoError(t, err)
	snap := view.Snapshot()
	require.Len(t, snap.Entities, store.DefaultPageSize)
	assert.Equal(t, latest.ID, snap.Entities[0].ID)

	// Page all the way down: 26 notes, no duplicates.
	require.NoError(t, view.LoadMore(ctx))
	require.NoError(t, view.LoadMore(ctx))
	snap = view.Snapshot()
	require.Len(t, snap.Entities, 26)
	assert.False(t, snap.HasMore)

	seen := map[models.NoteID]bool{}
	for _, n := range snap.Entities {
		assert.False(t, seen[n.ID], "duplicate note %s", n.ID)
		seen[n.ID] = true
	}
	require.NoError(t, view.LoadMore(ctx), "exhausted view tolerates further calls")
}
