package models

import (
	"time"
)

// Note is a short text note owned by exactly one user.
//
// CreatedAt is assigned by the store at creation time (time::now() on the
// server) and never changes afterwards; it is the sole ordering key for every
// note listing. FolderID is nil for unfiled notes. A note may keep referencing
// a folder that has since been deleted; such orphans are valid notes that
// simply no longer show up in any folder view.
type Note struct {
	ID        NoteID    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	FolderID  *FolderID `json:"folderId,omitempty"`
	IsPublic  bool      `json:"isPublic"`
	UserID    UserID    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Folder groups notes for one owner. Name and Description are user-editable;
// ID and UserID are immutable after creation. Deleting a folder does not
// cascade to its notes.
type Folder struct {
	ID          FolderID `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	UserID      UserID   `json:"userId"`
}

// User is the account entity. The sync core only ever needs the id; the rest
// exists for the HTTP surface.
type User struct {
	ID    UserID `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DefaultFolders are seeded once per user at first sign-in, behind the
// store's conditional-write claim so concurrent sign-ins cannot duplicate
// them.
func DefaultFolders(owner UserID) []*Folder {
	return []*Folder{
		{Name: "Ideas", Description: "Store your creative ideas here", UserID: owner},
		{Name: "Tasks", Description: "Keep track of your to-do list", UserID: owner},
		{Name: "Journal", Description: "Write your daily thoughts and reflections", UserID: owner},
	}
}
