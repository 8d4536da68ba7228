// Package notes holds the mutation service: input validation, ownership
// checks, and default-folder seeding sit here, in front of the store. Live
// reads bypass the service and go straight to the store collections.
package notes

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/notefolio/notefolio/pkg/models"
	"github.com/notefolio/notefolio/pkg/store"
)

// Service performs all writes to the notes domain on behalf of one
// identified user per call. The caller passes the acting user explicitly;
// the service never reaches into ambient session state.
type Service struct {
	store store.Store
	log   zerolog.Logger
}

func NewService(st store.Store, log zerolog.Logger) *Service {
	return &Service{
		store: st,
		log:   log.With().Str("component", "notes").Logger(),
	}
}

// CreateFolder validates the name and persists a folder owned by owner.
// The name must be non-empty after trimming; it is stored trimmed.
func (s *Service) CreateFolder(ctx context.Context, owner models.UserID, name, description string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &store.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	folder := &models.Folder{
		ID:          models.NewFolderID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		UserID:      owner,
	}
	if err := s.store.CreateFolder(ctx, folder); err != nil {
		return nil, err
	}
	s.log.Info().Str("folder", folder.ID.String()).Str("owner", owner.String()).Msg("folder created")
	return folder, nil
}

// UpdateFolder renames a folder the owner holds. The folder is read first:
// a missing folder is ErrNotFound, another user's folder is a
// PermissionError, and neither issues a write.
func (s *Service) UpdateFolder(ctx context.Context, owner models.UserID, id models.FolderID, name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &store.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return err
	}
	if folder.UserID != owner {
		return &store.PermissionError{Op: "update folder"}
	}
	return s.store.UpdateFolder(ctx, id, name, strings.TrimSpace(description))
}

// DeleteFolder removes a folder the owner holds. Notes filed in it are
// deliberately left in place with a dangling folderId; they remain
// reachable from the all-notes view.
func (s *Service) DeleteFolder(ctx context.Context, owner models.UserID, id models.FolderID) error {
	folder, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return err
	}
	if folder.UserID != owner {
		return &store.PermissionError{Op: "delete folder"}
	}
	if err := s.store.DeleteFolder(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("folder", id.String()).Msg("folder deleted")
	return nil
}

// EnsureDefaultFolders seeds the starter folders for a first sign-in. The
// store's claim is a conditional write keyed by owner, so exactly one of
// any number of concurrent sign-ins seeds; the rest see claimed=false and
// do nothing. It reports whether this call did the seeding.
func (s *Service) EnsureDefaultFolders(ctx context.Context, owner models.UserID) (bool, error) {
	claimed, err := s.store.ClaimDefaultFolders(ctx, owner)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}
	for _, folder := range models.DefaultFolders(owner) {
		if err := s.store.CreateFolder(ctx, folder); err != nil {
			return false, err
		}
	}
	s.log.Info().Str("owner", owner.String()).Msg("default folders seeded")
	return true, nil
}

// CreateNote persists a note owned by owner. folderID may be nil for an
// unfiled note. CreatedAt is assigned by the store.
func (s *Service) CreateNote(ctx context.Context, owner models.UserID, title, content string, folderID *models.FolderID, isPublic bool) (*models.Note, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &store.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	note := &models.Note{
		ID:       models.NewNoteID(),
		Title:    title,
		Content:  content,
		FolderID: folderID,
		IsPublic: isPublic,
		UserID:   owner,
	}
	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, err
	}
	s.log.Info().Str("note", note.ID.String()).Str("owner", owner.String()).Msg("note created")
	return note, nil
}

// SetNoteVisibility publishes or unpublishes a note the owner holds.
func (s *Service) SetNoteVisibility(ctx context.Context, owner models.UserID, id models.NoteID, public bool) error {
	note, err := s.store.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if note.UserID != owner {
		return &store.PermissionError{Op: "set note visibility"}
	}
	return s.store.SetNotePublic(ctx, id, public)
}

// DeleteNote removes a note the owner holds. The note is read first; if it
// is missing or belongs to someone else, no delete is issued.
func (s *Service) DeleteNote(ctx context.Context, owner models.UserID, id models.NoteID) error {
	note, err := s.store.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if note.UserID != owner {
		return &store.PermissionError{Op: "delete note"}
	}
	if err := s.store.DeleteNote(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("note", id.String()).Msg("note deleted")
	return nil
}
