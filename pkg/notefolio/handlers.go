package notefolio

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/notefolio/notefolio/pkg/identity"
	"github.com/notefolio/notefolio/pkg/models"
	"github.com/notefolio/notefolio/pkg/store"
)

// Router builds the HTTP surface. Listings are one-shot reads with the same
// ordering and cursor semantics as the live views; push subscriptions stay
// in-process behind the view API.
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/signin", a.handleSignIn).Methods("POST")
	api.HandleFunc("/auth/signout", a.handleSignOut).Methods("POST")
	api.HandleFunc("/auth/me", a.handleMe).Methods("GET")

	api.HandleFunc("/folders", a.handleListFolders).Methods("GET")
	api.HandleFunc("/folders", a.handleCreateFolder).Methods("POST")
	api.HandleFunc("/folders/{id}", a.handleUpdateFolder).Methods("PUT")
	api.HandleFunc("/folders/{id}", a.handleDeleteFolder).Methods("DELETE")

	api.HandleFunc("/notes", a.handleListNotes).Methods("GET")
	api.HandleFunc("/notes", a.handleCreateNote).Methods("POST")
	api.HandleFunc("/notes/{id}/visibility", a.handleSetNoteVisibility).Methods("PUT")
	api.HandleFunc("/notes/{id}", a.handleDeleteNote).Methods("DELETE")

	api.HandleFunc("/feed", a.handleFeed).Methods("GET")

	router.HandleFunc("/health", a.handleHealth).Methods("GET")
	return router
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type signInRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type signInResponse struct {
	User           models.User `json:"user"`
	SeededDefaults bool        `json:"seededDefaults"`
}

// handleSignIn establishes the session user and, on a first sign-in, seeds
// the starter folders. Seeding is safe to race: the store claim admits one
// winner, every other concurrent sign-in reports seededDefaults=false.
func (a *App) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user := models.User{Name: req.Name, Email: req.Email}
	if req.ID != "" {
		id, err := models.ParseUserID(req.ID)
		if err != nil {
			http.Error(w, "invalid user id", http.StatusBadRequest)
			return
		}
		user.ID = id
	} else {
		user.ID = models.NewUserID()
	}

	seeded, err := a.svc.EnsureDefaultFolders(r.Context(), user.ID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.ident.SignIn(user)
	a.writeJSON(w, http.StatusOK, signInResponse{User: user, SeededDefaults: seeded})
}

func (a *App) handleSignOut(w http.ResponseWriter, r *http.Request) {
	a.ident.SignOut()
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := a.ident.Current()
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, user)
}

func (a *App) handleListFolders(w http.ResponseWriter, r *http.Request) {
	user, err := a.ident.Current()
	if err != nil {
		a.writeError(w, err)
		return
	}
	folders, err := a.store.Folders().Query(r.Context(), store.OwnerFolders(user.ID))
	if err != nil {
		a.writeError(w, err)
		return
	}
	if folders == nil {
		folders = []models.Folder{}
	}
	a.writeJSON(w, http.StatusOK, folders)
}

type folderRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (a *App) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	user, err := a.ident.Current()
	if err != nil {
		a.writeError(w, err)
		return
	}
	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	folder, err := a.svc.CreateFolder(r.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, folder)
}

func (a *App) handleUpdateFolder(w http.ResponseWriter, r *http.Request) {
	user, err := a.ident.Current()
	if err != nil {
		a.writeError(w, err)
		return
	}
	id, err := models.ParseFolderID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid folder id", http.StatusBadRequest)
		return
	}
	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := a.svc.UpdateFolder(r.Context(), user.ID, id, req.Name, req.Description); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	user, err := a.ident.Current()
	if err != nil {
		a.writeError(w, err)
		return
	}
	id, err := models.ParseFolderID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid folder id", http.StatusBadRequest)
		return
	}
	if err := a.svc.DeleteFolder(r.Context(), user.ID, id); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListNotes serves the owner's notes, optionally scoped to one folder
// with ?folder={id}, one page per request. ?after and ?afterId carry the
// cursor of the previous page's last note.
func (a *App) handleListNotes(w http.ResponseWriter, r *http.Request) {
	user, err := a.ident.Current()
	if err != nil {
		a.writeError(w, err)
		return
	}
	q := store.OwnerNotes(user.ID)
	if folderParam := r.URL.Query().Get("folder"); folderParam != "" {
		folderID, err := models.ParseFolderID(folderParam)
		if err != nil {
			http.Error(w, "invalid folder id", http.StatusBadRequest)
			return
		}
		q = store.FolderNotes(user.ID, folderID)
	}
	a.serveNotePage(w, r, q)
}

// handleFeed serves the public feed. No sign-in required.
func (a *App) handleFeed(w http.ResponseWriter, r *http.Request) {
	a.serveNotePage(w, r, store.PublicFeed())
}

type notePage struct {
	Notes   []models.Note `json:"notes"`
	HasMore bool          `json:"hasMore"`
}

func (a *App) serveNotePage(w http.ResponseWriter, r *http.Request, q store.Query) {
	cursor, err := parseCursor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if cursor != nil {
		q = q.After(*cursor)
	}
	page, err := a.store.Notes().Query(r.Context(), q)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if page == nil {
		page = []models.Note{}
	}
	a.writeJSON(w, http.StatusOK, notePage{
		Notes:   page,
		HasMore: q.Limit > 0 && len(page) == q.Limit,
	})
}

func parseCursor(r *http.Request) (*store.Cursor, error) {
	after := r.URL.Query().Get("after")
	afterID := r.URL.Query().Get("afterId")
	if after == "" && afterID == "" {
		return nil, nil
	}
	if after == "" || afterID == "" {
		return nil, errors.New("after and afterId must be passed together")
	}
	at, err := time.Parse(time.RFC3339Nano, after)
	if err != nil {
		return nil, errors.New("after must be an RFC3339 timestamp")
	}
	return &store.Cursor{CreatedAt: at, ID: afterID}, nil
}

type createNoteRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	FolderID string `json:"folderId,omitempty"`
	IsPublic bool   `json:"isPublic"`
}

func (a *App) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	user, err := a.ident.Current()
	if err != nil {
		a.writeError(w, err)
		return
	}
	var req createNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	var folderID *models.FolderID
	if req.FolderID != "" {
		id, err := models.ParseFolderID(req.FolderID)
		if err != nil {
			http.Error(w, "invalid folder id", http.StatusBadRequest)
			return
		}
		folderID = &id
	}
	note, err := a.svc.CreateNote(r.Context(), user.ID, req.Title, req.Content, folderID, req.IsPublic)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, note)
}

type visibilityRequest struct {
	IsPublic bool `json:"isPublic"`
}

func (a *App) handleSetNoteVisibility(w http.ResponseWriter, r *http.Request) {
	user, err := a.ident.Current()
	if err != nil {
		a.writeError(w, err)
		return
	}
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid note id", http.StatusBadRequest)
		return
	}
	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := a.svc.SetNoteVisibility(r.Context(), user.ID, id, req.IsPublic); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	user, err := a.ident.Current()
	if err != nil {
		a.writeError(w, err)
		return
	}
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid note id", http.StatusBadRequest)
		return
	}
	if err := a.svc.DeleteNote(r.Context(), user.ID, id); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error().Err(err).Msg("encode response")
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func (a *App) writeError(w http.ResponseWriter, err error) {
	var verr *store.ValidationError
	var perr *store.PermissionError
	switch {
	case errors.Is(err, identity.ErrNotSignedIn):
		http.Error(w, "not signed in", http.StatusUnauthorized)
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.As(err, &perr):
		http.Error(w, perr.Error(), http.StatusForbidden)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		a.log.Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
