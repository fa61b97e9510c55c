package watcher

import "time"

// pendingEvent tracks one path's coalescing window.
type pendingEvent struct {
	event Event
	timer *time.Timer
}

// schedule merges an event into its path's pending window, opening one when
// none is active. Each new event pushes the window out again, so a burst
// delivers once, after it quiets down.
func (w *Watcher) schedule(event Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if p, ok := w.pending[event.Path]; ok {
		p.event.Op |= event.Op
		p.event.Timestamp = event.Timestamp
		p.timer.Reset(w.debounce)
		return
	}

	path := event.Path
	w.pending[path] = &pendingEvent{
		event: event,
		// The timer hands the path back to the run loop instead of sending
		// the event itself, keeping the loop the only output sender.
		timer: time.AfterFunc(w.debounce, func() {
			select {
			case w.fires <- path:
			case <-w.closeCh:
			}
		}),
	}
}

// firePending delivers a path's coalesced event once its window elapses.
// Runs on the delivery loop.
func (w *Watcher) firePending(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	event := p.event
	w.mu.Unlock()

	w.sendEvent(event)
}
