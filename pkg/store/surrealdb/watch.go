package surrealdb

import (
	"context"
	"errors"
	"sync"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/notefolio/notefolio/pkg/store"
)

// subscription serializes deliveries against stop. A delivery holds mu for
// the duration of the callback, so once stop returns no callback is running
// and none will run again.
type subscription struct {
	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
}

// deliver invokes fn unless the subscription was stopped. It reports
// whether the delivery happened.
func (sub *subscription) deliver(fn func()) bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.stopped {
		return false
	}
	fn()
	return true
}

func (sub *subscription) stop() bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.stopped {
		return false
	}
	sub.stopped = true
	close(sub.stopCh)
	return true
}

// Watch opens a LIVE SELECT carrying q's filter and delivers the full
// ordered window on every change. The live query pushes per-record deltas;
// rather than patching the window locally, each notification triggers a
// re-run of the bounded one-shot query. That keeps ordering, the limit, and
// filter edge cases (a note toggled private, a note moved out of the
// folder) in one place: the server.
func (c collection[T]) Watch(ctx context.Context, q store.Query, onChange func([]T), onError func(error)) (func(), error) {
	liveSQL, liveVars := renderLive(q)
	res, err := surrealdb.Query[surrealmodels.UUID](ctx, c.s.db, liveSQL, liveVars)
	if err != nil {
		return nil, &store.StoreError{Op: "live " + q.Collection, Err: err}
	}
	if res == nil || len(*res) == 0 {
		return nil, &store.StoreError{Op: "live " + q.Collection, Err: errors.New("no live query id returned")}
	}
	liveID := (*res)[0].Result.String()

	notifications, err := c.s.db.LiveNotifications(liveID)
	if err != nil {
		_ = surrealdb.Kill(ctx, c.s.db, liveID)
		return nil, &store.StoreError{Op: "live notifications " + q.Collection, Err: err}
	}

	// Initial delivery: the current window, before any notification.
	window, err := c.Query(ctx, q)
	if err != nil {
		_ = surrealdb.Kill(ctx, c.s.db, liveID)
		return nil, err
	}
	onChange(window)

	sub := &subscription{stopCh: make(chan struct{})}
	log := c.s.log.With().Str("collection", q.Collection).Str("live_id", liveID).Logger()

	var killOnce sync.Once
	kill := func() {
		killOnce.Do(func() {
			if err := surrealdb.Kill(context.Background(), c.s.db, liveID); err != nil {
				log.Warn().Err(err).Msg("kill live query")
			}
		})
	}

	go func() {
		defer kill()
		for {
			select {
			case <-sub.stopCh:
				return
			case <-ctx.Done():
				sub.stop()
				return
			case notification, ok := <-notifications:
				if !ok {
					sub.deliver(func() {
						onError(&store.StoreError{Op: "live " + q.Collection, Err: errors.New("notification channel closed")})
					})
					return
				}
				log.Debug().Str("action", string(notification.Action)).Msg("notification")
				window, err := c.Query(ctx, q)
				if err != nil {
					sub.deliver(func() { onError(err) })
					return
				}
				if !sub.deliver(func() { onChange(window) }) {
					return
				}
			}
		}
	}()

	return func() {
		if sub.stop() {
			kill()
		}
	}, nil
}
