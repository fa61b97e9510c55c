// Package watcher provides file system watching for configuration live
// reload.
//
// Config files are watched through their parent directory so editor
// write-rename-replace cycles are still observed, with events filtered back
// to the registered files. Rapid change bursts to one path are coalesced by
// a debounce window.
package watcher

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dshills/eslintrc"
)

// Common errors returned by watcher operations.
var (
	ErrClosed          = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrNotWatching     = errors.New("path is not being watched")
)

// Op represents the type of file system operation. Coalesced events carry
// the union of the operations observed in the window.
type Op uint32

const (
	// OpCreate indicates the file was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates the file was written to.
	OpWrite
	// OpRemove indicates the file was removed.
	OpRemove
	// OpRename indicates the file was renamed.
	OpRename
	// OpChmod indicates file permissions were changed.
	OpChmod
)

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	var parts []string
	if op.Has(OpCreate) {
		parts = append(parts, "CREATE")
	}
	if op.Has(OpWrite) {
		parts = append(parts, "WRITE")
	}
	if op.Has(OpRemove) {
		parts = append(parts, "REMOVE")
	}
	if op.Has(OpRename) {
		parts = append(parts, "RENAME")
	}
	if op.Has(OpChmod) {
		parts = append(parts, "CHMOD")
	}
	if len(parts) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(parts, "|")
}

// Event represents a change to a watched file.
type Event struct {
	// Path is the absolute path of the affected file.
	Path string

	// Op is the operation that occurred, possibly a union.
	Op Op

	// Timestamp is when the most recent underlying event occurred.
	Timestamp time.Time
}

// Option configures a Watcher.
type Option func(*config)

type config struct {
	debounce   time.Duration
	bufferSize int
	log        *zap.SugaredLogger
}

// WithDebounce sets the coalescing window per path. Zero disables
// debouncing and delivers every event immediately. Default: 100ms.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		c.debounce = d
	}
}

// WithBufferSize sets the event and error channel capacity. Default: 100.
func WithBufferSize(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// Watcher monitors registered config files for changes. Watches are placed
// on parent directories and filtered to the registered files, so a file
// replaced by rename (the common editor save strategy) keeps reporting.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	log      *zap.SugaredLogger

	mu      sync.Mutex
	files   map[string]bool
	dirRefs map[string]int
	pending map[string]*pendingEvent
	closed  bool

	// events and errs are written only by the run loop, so Close can wait
	// for the loop and then close them without racing a sender.
	events  chan Event
	errs    chan error
	fires   chan string
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New creates a Watcher and starts its delivery loop.
func New(opts ...Option) (*Watcher, error) {
	cfg := config{
		debounce:   100 * time.Millisecond,
		bufferSize: 100,
		log:        zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bufferSize <= 0 {
		cfg.bufferSize = 100
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: cfg.debounce,
		log:      cfg.log,
		files:    make(map[string]bool),
		dirRefs:  make(map[string]int),
		pending:  make(map[string]*pendingEvent),
		events:   make(chan Event, cfg.bufferSize),
		errs:     make(chan error, cfg.bufferSize),
		fires:    make(chan string, cfg.bufferSize),
		closeCh:  make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Add registers a file for watching. The file itself need not exist yet;
// its parent directory must. Returns ErrAlreadyWatching for a duplicate.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.files[abs] {
		return ErrAlreadyWatching
	}

	dir := filepath.Dir(abs)
	if w.dirRefs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirRefs[dir]++
	w.files[abs] = true
	w.log.Debugw("watching file", "path", abs, "dir", dir)
	return nil
}

// Remove unregisters a file. The directory watch is released when its last
// registered file goes. Returns ErrNotWatching for an unknown path.
func (w *Watcher) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if !w.files[abs] {
		return ErrNotWatching
	}

	delete(w.files, abs)
	if p, ok := w.pending[abs]; ok {
		p.timer.Stop()
		delete(w.pending, abs)
	}

	dir := filepath.Dir(abs)
	w.dirRefs[dir]--
	if w.dirRefs[dir] <= 0 {
		delete(w.dirRefs, dir)
		if err := w.fsw.Remove(dir); err != nil {
			return err
		}
	}
	w.log.Debugw("unwatched file", "path", abs)
	return nil
}

// WatchSequence registers the source file of every fragment in the
// sequence. In-memory fragments have no file and are skipped; files already
// registered stay registered.
func (w *Watcher) WatchSequence(seq *eslintrc.Sequence) error {
	if seq == nil {
		return nil
	}
	for _, fr := range seq.Fragments() {
		if fr.FilePath == "" {
			continue
		}
		if err := w.Add(fr.FilePath); err != nil && !errors.Is(err, ErrAlreadyWatching) {
			return err
		}
	}
	return nil
}

// Paths returns the registered file paths, sorted.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Events returns the event channel. It is closed when the watcher closes.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel. It is closed when the watcher closes.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher, waits for the delivery loop to finish, and
// closes the event and error channels. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	close(w.closeCh)
	err := w.fsw.Close()
	w.wg.Wait()

	close(w.events)
	close(w.errs)
	return err
}

// run is the delivery loop and the only sender on the output channels.
func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sendError(err)

		case path := <-w.fires:
			w.firePending(path)
		}
	}
}

// handleFSEvent filters a raw directory event down to the registered files
// and routes it through the debounce window.
func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}

	path := filepath.Clean(fsEvent.Name)

	w.mu.Lock()
	watched := w.files[path]
	w.mu.Unlock()
	if !watched {
		return
	}

	event := Event{Path: path, Op: op, Timestamp: time.Now()}
	w.log.Debugw("file event", "path", path, "op", op.String())

	if w.debounce <= 0 {
		w.sendEvent(event)
		return
	}
	w.schedule(event)
}

// sendEvent sends an event to the output channel, dropping when full.
func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
	default:
		w.sendError(errors.New("event channel full, dropping event"))
	}
}

// sendError sends an error to the output channel, dropping when full.
func (w *Watcher) sendError(err error) {
	select {
	case w.errs <- err:
	default:
	}
}

// convertOp converts fsnotify.Op to watcher.Op.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	if fsOp.Has(fsnotify.Chmod) {
		op |= OpChmod
	}
	return op
}
