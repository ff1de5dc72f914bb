package aghos

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/fsnotify/fsnotify"
)

// Event is a convenient alias for an empty struct to signal that watched file
// event happened.
type Event = struct{}

// FSWatcher notifies about writes to a single tracked file, the authority
// configuration file of an authority-role daemon.
//
// TODO(e.burkov, a.garipov): Move into another package like aghfs.
type FSWatcher interface {
	service.Interface

	// Events returns the channel to notify about the file system events.
	Events() (e <-chan Event)

	// Add starts tracking name for writes.  Calling Add a second time
	// replaces the previously tracked file.  It returns an error if the file
	// can't be tracked.
	Add(name string) (err error)

	// Remove stops tracking the currently watched file, if any.
	Remove(name string) (err error)
}

// osWatcher watches a single file on the real OS file system for writes,
// since fsnotify recommends watching the containing directory and filtering
// by name rather than watching the file handle directly.
//
// See https://pkg.go.dev/github.com/fsnotify/fsnotify@v1.7.0#readme-watching-a-file-doesn-t-work-well.
type osWatcher struct {
	// logger is used for logging the operations of the osWatcher.
	logger *slog.Logger

	// watcher is the actual notifier that is handled by osWatcher.
	watcher *fsnotify.Watcher

	// events is the channel to notify.
	events chan Event

	// nameMu protects name.
	nameMu *sync.RWMutex

	// name is the absolute path of the currently tracked file, or "" if
	// nothing is tracked.
	name string
}

// osWatcherPref is a prefix for logging and wrapping errors in osWatcher's
// methods.
const osWatcherPref = "os watcher"

// NewOSWritesWatcher creates an FSWatcher that tracks the real file system of
// the OS and notifies only about writing events.  l must not be nil.
func NewOSWritesWatcher(l *slog.Logger) (w FSWatcher, err error) {
	defer func() { err = errors.Annotate(err, "%s: %w", osWatcherPref) }()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	return &osWatcher{
		logger:  l,
		watcher: watcher,
		events:  make(chan Event, 1),
		nameMu:  &sync.RWMutex{},
	}, nil
}

// type check
var _ FSWatcher = (*osWatcher)(nil)

// Start implements the [FSWatcher] interface for *osWatcher.
func (w *osWatcher) Start(ctx context.Context) (err error) {
	go w.handleErrors(ctx)
	go w.handleEvents(ctx)

	return nil
}

// Shutdown implements the [FSWatcher] interface for *osWatcher.
func (w *osWatcher) Shutdown(_ context.Context) (err error) {
	return w.watcher.Close()
}

// Events implements the [FSWatcher] interface for *osWatcher.
func (w *osWatcher) Events() (e <-chan Event) {
	return w.events
}

// Add implements the [FSWatcher] interface for *osWatcher.
func (w *osWatcher) Add(name string) (err error) {
	defer func() { err = errors.Annotate(err, "%s: %w", osWatcherPref) }()

	name, err = filepath.Abs(name)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", name, err)
	}

	if _, err = os.Stat(name); err != nil {
		return fmt.Errorf("checking file %q: %w", name, err)
	}

	dirName := filepath.Dir(name)

	w.nameMu.Lock()
	defer w.nameMu.Unlock()

	w.name = name

	err = w.watcher.Add(dirName)
	if err != nil {
		return fmt.Errorf("adding %q: %w", dirName, err)
	}

	return nil
}

// Remove implements the [FSWatcher] interface for *osWatcher.  name is
// unused; only one file is ever tracked at a time.
func (w *osWatcher) Remove(_ string) (err error) {
	defer func() { err = errors.Annotate(err, "%s: %w", osWatcherPref) }()

	w.nameMu.Lock()
	defer w.nameMu.Unlock()

	if w.name == "" {
		return nil
	}

	dirName := filepath.Dir(w.name)
	w.name = ""

	err = w.watcher.Remove(dirName)
	if err != nil {
		return fmt.Errorf("removing %q: %w", dirName, err)
	}

	return nil
}

// handleEvents notifies about the received file system's event if needed.  It
// is intended to be used as a goroutine.
func (w *osWatcher) handleEvents(ctx context.Context) {
	defer slogutil.RecoverAndLog(ctx, w.logger)

	defer close(w.events)

	ch := w.watcher.Events
	for e := range ch {
		if e.Op&fsnotify.Write == 0 || !w.isTrackedFile(e.Name) {
			continue
		}

		skipDuplicates(ch)

		select {
		case w.events <- Event{}:
			// Go on.
		default:
			w.logger.DebugContext(ctx, "events buffer is full")
		}
	}
}

// isTrackedFile returns true if name is the currently tracked file.
func (w *osWatcher) isTrackedFile(name string) (tracked bool) {
	w.nameMu.RLock()
	defer w.nameMu.RUnlock()

	return w.name != "" && w.name == name
}

// skipDuplicates drains the given channel of events, assuming that some events
// might occur multiple times.
func skipDuplicates(ch <-chan fsnotify.Event) {
	for {
		select {
		case <-ch:
			// Go on.
		default:
			return
		}
	}
}

// handleErrors handles accompanying errors.  It used to be called in a separate
// goroutine.
func (w *osWatcher) handleErrors(ctx context.Context) {
	defer slogutil.RecoverAndLog(ctx, w.logger)

	for err := range w.watcher.Errors {
		w.logger.ErrorContext(ctx, "handling error", slogutil.KeyError, err)
	}
}

// EmptyFSWatcher is a no-op implementation of the [FSWatcher] interface.  It
// is used for client-role daemons, which have no local file to reload.
type EmptyFSWatcher struct{}

// type check
var _ FSWatcher = EmptyFSWatcher{}

// Start implements the [FSWatcher] interface for EmptyFSWatcher.  It always
// returns nil error.
func (EmptyFSWatcher) Start(_ context.Context) (err error) {
	return nil
}

// Shutdown implements the [FSWatcher] interface for EmptyFSWatcher.  It always
// returns nil error.
func (EmptyFSWatcher) Shutdown(_ context.Context) (err error) {
	return nil
}

// Events implements the [FSWatcher] interface for EmptyFSWatcher.  It always
// returns nil channel.
func (EmptyFSWatcher) Events() (e <-chan Event) {
	return nil
}

// Add implements the [FSWatcher] interface for EmptyFSWatcher.  It always
// returns nil error.
func (EmptyFSWatcher) Add(_ string) (err error) {
	return nil
}

// Remove implements the [FSWatcher] interface for EmptyFSWatcher.  It always
// returns nil error.
func (EmptyFSWatcher) Remove(_ string) (err error) {
	return nil
}
