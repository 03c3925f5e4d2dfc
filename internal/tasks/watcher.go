package tasks

import (
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// StoreChangedMsg is sent when the database files change on disk, for
// example after a write from another process.
type StoreChangedMsg struct{}

// Watcher watches the database file and its WAL and emits StoreChangedMsg
// via tea.Cmd. Bursts of events are coalesced into one message.
type Watcher struct {
	watcher     *fsnotify.Watcher
	base        string
	debounceDur time.Duration
	log         zerolog.Logger
}

// NewWatcher watches the directory holding dbPath. Returns nil if fsnotify
// fails; the caller then simply sees no external changes.
func NewWatcher(dbPath string, log zerolog.Logger) *Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("failed to create fsnotify watcher")
		return nil
	}

	if err := watcher.Add(filepath.Dir(dbPath)); err != nil {
		log.Warn().Err(err).Str("path", dbPath).Msg("failed to watch database directory")
		_ = watcher.Close()
		return nil
	}

	return &Watcher{
		watcher:     watcher,
		base:        filepath.Base(dbPath),
		debounceDur: 100 * time.Millisecond,
		log:         log.With().Str("cmp", "store-watcher").Logger(),
	}
}

// Start returns a tea.Cmd that blocks until the database changes, then
// returns a StoreChangedMsg. The caller must re-invoke Start after handling
// the message to keep watching.
func (w *Watcher) Start() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return nil
				}
				if !w.relevant(event) {
					continue
				}

				debounce := time.NewTimer(w.debounceDur)
			debounceLoop:
				for {
					select {
					case _, ok := <-w.watcher.Events:
						if !ok {
							debounce.Stop()
							return nil
						}
						if !debounce.Stop() {
							<-debounce.C
						}
						debounce.Reset(w.debounceDur)
					case <-debounce.C:
						break debounceLoop
					}
				}

				w.log.Debug().Str("path", event.Name).Msg("database changed")
				return StoreChangedMsg{}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return nil
				}
				w.log.Error().Err(err).Msg("watcher error")
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	name := filepath.Base(event.Name)
	return name == w.base || strings.HasPrefix(name, w.base+"-wal")
}
