// Package liveview keeps an in-memory window of a store collection current
// via push notifications, with cursor-based "load more" pagination layered on
// top.
//
// Each View owns at most one subscription. Every push from the store replaces
// the whole entity list with the most recent window matching the filter and
// resets the pagination cursor to the window's last element (or clears it
// when the window is short, meaning the collection fits in one page); a page
// load appends instead. The two writers are reconciled with a generation counter:
// a page fetched against a cursor from generation N is discarded if the view
// has since moved to generation N+1, and the caller is told to re-issue the
// fetch. Without the guard the stale append could duplicate or skip entities.
//
// The view is an explicit state machine:
//
//	Idle -> Subscribing -> Live <-> Live (each push)
//	                     \-> Error (terminal for the subscription)
//	any -> Stopped (Stop, or Start replacing the previous subscription)
//
// Stopping is synchronous with respect to delivery: callbacks from a stopped
// subscription epoch are ignored even if they were already in flight.
package liveview
