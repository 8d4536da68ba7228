package liveview

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/notefolio/notefolio/pkg/store"
)

// State identifies where a View is in its lifecycle.
type State int

const (
	// StateIdle is a View that has never been started.
	StateIdle State = iota
	// StateSubscribing is a View whose subscription is being established
	// and has not yet received its first window.
	StateSubscribing
	// StateLive is a View receiving pushes.
	StateLive
	// StateError is a View whose subscription failed. Entity updates have
	// stopped; the subscription is not retried. Restart with Start.
	StateError
	// StateStopped is a View after Stop.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribing:
		return "subscribing"
	case StateLive:
		return "live"
	case StateError:
		return "error"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ErrLoadInProgress is returned by LoadMore while a previous LoadMore for the
// same view is still in flight. Two concurrent fetches would both append
// against the same cursor and duplicate results, so the second is rejected;
// the UI contract is "load more is disabled while loading".
var ErrLoadInProgress = errors.New("liveview: load already in progress")

// ErrStalePage is returned by LoadMore when a live replacement arrived while
// the page was being fetched. The fetched page was built against a cursor
// that no longer matches the list, so it is discarded; the caller should
// re-issue LoadMore against the fresh cursor.
var ErrStalePage = errors.New("liveview: page discarded, cursor superseded by live update")

// ErrNotStarted is returned by LoadMore on a view that is not Live.
var ErrNotStarted = errors.New("liveview: view not started")

// CursorFunc extracts the pagination cursor from an entity. It is the only
// piece of entity knowledge the view needs.
type CursorFunc[T any] func(T) store.Cursor

// Snapshot is the UI-facing read model of a View.
type Snapshot[T any] struct {
	// Entities is the current ordered list: the live window, plus any
	// pages appended since the window last changed.
	Entities []T
	// Loading is true from Start until the first window (or error)
	// arrives.
	Loading bool
	// Err is the terminal subscription error, if any.
	Err error
	// HasMore reports whether a LoadMore call can fetch further entities.
	HasMore bool
}

// View is a live collection window with pagination. It is safe for
// concurrent use; all state transitions are serialized by an internal mutex,
// and callbacks carry an epoch token so deliveries from a replaced or
// stopped subscription are ignored.
type View[T any] struct {
	coll   store.Collection[T]
	query  store.Query
	cursor CursorFunc[T]
	log    zerolog.Logger

	mu         sync.Mutex
	state      State
	entities   []T
	pageCursor *store.Cursor
	loading    bool
	err        error

	// generation increments on every list replacement. A page append is
	// valid only if the generation it was fetched under is still current.
	generation uint64

	// epoch identifies the active subscription. Callbacks from older
	// epochs are dropped.
	epoch uint64
	stop  func()

	loadInFlight bool
}

// New builds a View over coll for the given query. cursor extracts the page
// marker from an entity; queries with a zero Limit never paginate and may
// pass a cursor function that is never called.
func New[T any](coll store.Collection[T], query store.Query, cursor CursorFunc[T], log zerolog.Logger) *View[T] {
	return &View[T]{
		coll:   coll,
		query:  query,
		cursor: cursor,
		log:    log.With().Str("collection", query.Collection).Logger(),
		state:  StateIdle,
	}
}

// Start opens the subscription. A view holds at most one subscription;
// starting an already-started view stops the previous subscription first.
func (v *View[T]) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.stop != nil {
		v.stop()
		v.stop = nil
	}
	v.epoch++
	epoch := v.epoch
	v.state = StateSubscribing
	v.entities = nil
	v.pageCursor = nil
	v.loading = true
	v.err = nil
	v.loadInFlight = false
	v.mu.Unlock()

	stop, err := v.coll.Watch(ctx, v.query,
		func(window []T) { v.applyWindow(epoch, window) },
		func(err error) { v.applyError(epoch, err) },
	)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.epoch != epoch {
		// Raced with Stop or another Start; release the late handle.
		if stop != nil {
			stop()
		}
		return nil
	}
	if err != nil {
		v.state = StateError
		v.loading = false
		v.err = err
		return err
	}
	v.stop = stop
	return nil
}

// Stop releases the subscription. Idempotent. No callback is applied after
// Stop returns, even if one was already in flight from the store.
func (v *View[T]) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.epoch++
	if v.stop != nil {
		v.stop()
		v.stop = nil
	}
	v.state = StateStopped
	v.loading = false
}

// applyWindow is the push path: the list is replaced wholesale with the
// current window and the cursor resets to its last element.
func (v *View[T]) applyWindow(epoch uint64, window []T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.epoch != epoch || v.state == StateError {
		return
	}
	v.state = StateLive
	v.loading = false
	v.entities = window
	v.generation++
	if v.query.Limit > 0 && len(window) >= v.query.Limit {
		c := v.cursor(window[len(window)-1])
		v.pageCursor = &c
	} else {
		// A short window is the whole collection; nothing to page.
		v.pageCursor = nil
	}
	v.log.Debug().Int("entities", len(window)).Uint64("generation", v.generation).Msg("window replaced")
}

func (v *View[T]) applyError(epoch uint64, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.epoch != epoch {
		return
	}
	v.state = StateError
	v.loading = false
	v.err = err
	v.log.Warn().Err(err).Msg("subscription failed")
}

// LoadMore fetches one page of up to the query's Limit entities strictly
// after the current cursor and appends it to the list. It returns
// ErrLoadInProgress while another LoadMore is in flight and ErrStalePage if
// the live window was replaced while fetching (the page is discarded; call
// again). Calling with no cursor — before the first window, or after the
// end of data — is a no-op.
func (v *View[T]) LoadMore(ctx context.Context) error {
	v.mu.Lock()
	if v.state != StateLive {
		state, err := v.state, v.err
		v.mu.Unlock()
		if state == StateError {
			return err
		}
		return ErrNotStarted
	}
	if v.loadInFlight {
		v.mu.Unlock()
		return ErrLoadInProgress
	}
	if v.pageCursor == nil {
		v.mu.Unlock()
		return nil
	}
	cursor := *v.pageCursor
	generation := v.generation
	v.loadInFlight = true
	v.mu.Unlock()

	page, err := v.coll.Query(ctx, v.query.After(cursor))

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadInFlight = false
	if err != nil {
		return err
	}
	if v.generation != generation {
		v.log.Debug().Uint64("fetched", generation).Uint64("current", v.generation).Msg("stale page discarded")
		return ErrStalePage
	}
	v.entities = append(v.entities, page...)
	if len(page) < v.query.Limit {
		// Short page: end of data. Further LoadMore calls are no-ops
		// until the next live replacement resets the cursor.
		v.pageCursor = nil
	} else {
		c := v.cursor(page[len(page)-1])
		v.pageCursor = &c
	}
	v.log.Debug().Int("appended", len(page)).Msg("page loaded")
	return nil
}

// Snapshot returns a copy of the current UI-facing state.
func (v *View[T]) Snapshot() Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	entities := make([]T, len(v.entities))
	copy(entities, v.entities)
	return Snapshot[T]{
		Entities: entities,
		Loading:  v.loading,
		Err:      v.err,
		HasMore:  v.pageCursor != nil,
	}
}

// State returns the current lifecycle state.
func (v *View[T]) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}
