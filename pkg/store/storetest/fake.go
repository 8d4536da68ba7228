// Package storetest provides an in-memory store.Store for tests: mutations
// push synchronously to open watchers, CreatedAt comes from a deterministic
// monotonic clock, and per-operation failure injection plus call counters
// let tests exercise error paths and assert which operations ran.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/notefolio/notefolio/pkg/models"
	"github.com/notefolio/notefolio/pkg/store"
)

// Fake is an in-memory Store. Watch deliveries happen synchronously inside
// the mutating call, so tests observe the updated window as soon as the
// mutation returns, with no sleeps or polling.
type Fake struct {
	mu      sync.Mutex
	notes   map[models.NoteID]*models.Note
	folders map[models.FolderID]*models.Folder
	claims  map[models.UserID]bool

	// clock advances one second per created note so createdAt ordering is
	// deterministic across a test run.
	clock time.Time

	noteWatchers   map[int]*watcher[models.Note]
	folderWatchers map[int]*watcher[models.Folder]
	nextWatcher    int

	// FailNext maps an operation name (the Store method name, or "Query"
	// / "Watch") to an error returned by its next invocation. The entry
	// is consumed.
	failNext map[string]error

	// Calls counts invocations per operation name, including failed ones.
	calls map[string]int
}

type watcher[T any] struct {
	query    store.Query
	onChange func([]T)
	onError  func(error)
	stopped  bool
}

// NewFake returns an empty store.
func NewFake() *Fake {
	return &Fake{
		notes:          map[models.NoteID]*models.Note{},
		folders:        map[models.FolderID]*models.Folder{},
		claims:         map[models.UserID]bool{},
		clock:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		noteWatchers:   map[int]*watcher[models.Note]{},
		folderWatchers: map[int]*watcher[models.Folder]{},
		failNext:       map[string]error{},
		calls:          map[string]int{},
	}
}

var _ store.Store = (*Fake)(nil)

// FailNext makes the next invocation of the named operation return err.
func (f *Fake) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[op] = err
}

// Calls returns how many times the named operation was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// begin records the call and pops any injected failure. Callers must hold mu.
func (f *Fake) begin(op string) error {
	f.calls[op]++
	if err, ok := f.failNext[op]; ok {
		delete(f.failNext, op)
		return err
	}
	return nil
}

func (f *Fake) CreateFolder(ctx context.Context, folder *models.Folder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateFolder"); err != nil {
		return err
	}
	if folder.ID.IsZero() {
		folder.ID = models.NewFolderID()
	}
	cp := *folder
	f.folders[cp.ID] = &cp
	f.notifyFoldersLocked()
	return nil
}

func (f *Fake) GetFolder(ctx context.Context, id models.FolderID) (*models.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetFolder"); err != nil {
		return nil, err
	}
	folder, ok := f.folders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *folder
	return &cp, nil
}

func (f *Fake) UpdateFolder(ctx context.Context, id models.FolderID, name, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdateFolder"); err != nil {
		return err
	}
	folder, ok := f.folders[id]
	if !ok {
		return store.ErrNotFound
	}
	folder.Name = name
	folder.Description = description
	f.notifyFoldersLocked()
	return nil
}

func (f *Fake) DeleteFolder(ctx context.Context, id models.FolderID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteFolder"); err != nil {
		return err
	}
	if _, ok := f.folders[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.folders, id)
	f.notifyFoldersLocked()
	return nil
}

func (f *Fake) ClaimDefaultFolders(ctx context.Context, owner models.UserID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ClaimDefaultFolders"); err != nil {
		return false, err
	}
	if f.claims[owner] {
		return false, nil
	}
	f.claims[owner] = true
	return true, nil
}

func (f *Fake) CreateNote(ctx context.Context, note *models.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateNote"); err != nil {
		return err
	}
	if note.ID.IsZero() {
		note.ID = models.NewNoteID()
	}
	f.clock = f.clock.Add(time.Second)
	note.CreatedAt = f.clock
	cp := *note
	f.notes[cp.ID] = &cp
	f.notifyNotesLocked()
	return nil
}

func (f *Fake) GetNote(ctx context.Context, id models.NoteID) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetNote"); err != nil {
		return nil, err
	}
	note, ok := f.notes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *note
	return &cp, nil
}

func (f *Fake) SetNotePublic(ctx context.Context, id models.NoteID, public bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("SetNotePublic"); err != nil {
		return err
	}
	note, ok := f.notes[id]
	if !ok {
		return store.ErrNotFound
	}
	note.IsPublic = public
	f.notifyNotesLocked()
	return nil
}

func (f *Fake) DeleteNote(ctx context.Context, id models.NoteID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteNote"); err != nil {
		return err
	}
	if _, ok := f.notes[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.notes, id)
	f.notifyNotesLocked()
	return nil
}

func (f *Fake) Notes() store.Collection[models.Note] { return noteColl{f} }

func (f *Fake) Folders() store.Collection[models.Folder] { return folderColl{f} }

func (f *Fake) Close() error { return nil }

// FailWatchers delivers err to every open watcher and marks the
// subscriptions dead, simulating a lost connection.
func (f *Fake) FailWatchers(err error) {
	f.mu.Lock()
	var errFns []func(error)
	for _, w := range f.noteWatchers {
		if !w.stopped {
			w.stopped = true
			errFns = append(errFns, w.onError)
		}
	}
	for _, w := range f.folderWatchers {
		if !w.stopped {
			w.stopped = true
			errFns = append(errFns, w.onError)
		}
	}
	f.mu.Unlock()
	for _, fn := range errFns {
		fn(err)
	}
}

type noteColl struct{ f *Fake }

func (c noteColl) Query(ctx context.Context, q store.Query) ([]models.Note, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if err := c.f.begin("Query"); err != nil {
		return nil, err
	}
	return c.f.notesWindowLocked(q), nil
}

func (c noteColl) Watch(ctx context.Context, q store.Query, onChange func([]models.Note), onError func(error)) (func(), error) {
	c.f.mu.Lock()
	if err := c.f.begin("Watch"); err != nil {
		c.f.mu.Unlock()
		return nil, err
	}
	id := c.f.nextWatcher
	c.f.nextWatcher++
	w := &watcher[models.Note]{query: q, onChange: onChange, onError: onError}
	c.f.noteWatchers[id] = w
	initial := c.f.notesWindowLocked(q)
	c.f.mu.Unlock()

	onChange(initial)
	return func() {
		c.f.mu.Lock()
		defer c.f.mu.Unlock()
		w.stopped = true
		delete(c.f.noteWatchers, id)
	}, nil
}

type folderColl struct{ f *Fake }

func (c folderColl) Query(ctx context.Context, q store.Query) ([]models.Folder, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	if err := c.f.begin("Query"); err != nil {
		return nil, err
	}
	return c.f.foldersWindowLocked(q), nil
}

func (c folderColl) Watch(ctx context.Context, q store.Query, onChange func([]models.Folder), onError func(error)) (func(), error) {
	c.f.mu.Lock()
	if err := c.f.begin("Watch"); err != nil {
		c.f.mu.Unlock()
		return nil, err
	}
	id := c.f.nextWatcher
	c.f.nextWatcher++
	w := &watcher[models.Folder]{query: q, onChange: onChange, onError: onError}
	c.f.folderWatchers[id] = w
	initial := c.f.foldersWindowLocked(q)
	c.f.mu.Unlock()

	onChange(initial)
	return func() {
		c.f.mu.Lock()
		defer c.f.mu.Unlock()
		w.stopped = true
		delete(c.f.folderWatchers, id)
	}, nil
}

// notifyNotesLocked recomputes and delivers the window of every live note
// watcher. Callers hold mu; deliveries run after it is released so a
// callback may call back into the store.
func (f *Fake) notifyNotesLocked() {
	type delivery struct {
		fn     func([]models.Note)
		window []models.Note
	}
	var out []delivery
	for _, w := range f.noteWatchers {
		if w.stopped {
			continue
		}
		out = append(out, delivery{w.onChange, f.notesWindowLocked(w.query)})
	}
	f.mu.Unlock()
	for _, d := range out {
		d.fn(d.window)
	}
	f.mu.Lock()
}

func (f *Fake) notifyFoldersLocked() {
	type delivery struct {
		fn     func([]models.Folder)
		window []models.Folder
	}
	var out []delivery
	for _, w := range f.folderWatchers {
		if w.stopped {
			continue
		}
		out = append(out, delivery{w.onChange, f.foldersWindowLocked(w.query)})
	}
	f.mu.Unlock()
	for _, d := range out {
		d.fn(d.window)
	}
	f.mu.Lock()
}

func (f *Fake) notesWindowLocked(q store.Query) []models.Note {
	var out []models.Note
	for _, n := range f.notes {
		if q.Owner != nil && n.UserID != *q.Owner {
			continue
		}
		if q.Folder != nil && (n.FolderID == nil || *n.FolderID != *q.Folder) {
			continue
		}
		if q.PublicOnly && !n.IsPublic {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if q.Cursor != nil {
		idx := 0
		for idx < len(out) && !noteAfterCursor(out[idx], *q.Cursor) {
			idx++
		}
		out = out[idx:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// noteAfterCursor reports whether n sorts strictly after c: an older
// createdAt, or the same createdAt with a greater id.
func noteAfterCursor(n models.Note, c store.Cursor) bool {
	if n.CreatedAt.Before(c.CreatedAt) {
		return true
	}
	return n.CreatedAt.Equal(c.CreatedAt) && n.ID.String() > c.ID
}

func (f *Fake) foldersWindowLocked(q store.Query) []models.Folder {
	var out []models.Folder
	for _, fl := range f.folders {
		if q.Owner != nil && fl.UserID != *q.Owner {
			continue
		}
		out = append(out, *fl)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := strings.Compare(out[i].Name, out[j].Name); c != 0 {
			return c < 0
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
