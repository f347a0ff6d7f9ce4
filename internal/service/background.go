package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/tree"
)

// ─────────────────────────────────────────────────────────────
// Background jobs: autosave (cron) and import watcher (fsnotify)
// ─────────────────────────────────────────────────────────────

// DefaultAutosaveSchedule saves a dirty document every half minute.
const DefaultAutosaveSchedule = "@every 30s"

// importDebounce coalesces the burst of write events an editor produces
// when saving a file.
const importDebounce = 500 * time.Millisecond

// Background runs the autosave schedule and the import watcher of one
// editor.
type Background struct {
	editor  *EditorService
	emitter EventEmitter
	logger  *log.Logger
	running runningJobsGuard

	mu          sync.Mutex
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewBackground creates the background jobs of editor. Nothing runs until
// StartAutosave or WatchImports is called.
func NewBackground(editor *EditorService, emitter EventEmitter, logger *log.Logger) *Background {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if emitter == nil {
		emitter = &MockEmitter{}
	}
	return &Background{editor: editor, emitter: emitter, logger: logger}
}

// ── Autosave ───────────────────────────────────────────────

// StartAutosave saves the open document on schedule whenever it is dirty.
// An empty schedule uses DefaultAutosaveSchedule.
func (b *Background) StartAutosave(schedule string) error {
	if schedule == "" {
		schedule = DefaultAutosaveSchedule
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { b.Autosave() }); err != nil {
		return fmt.Errorf("autosave: invalid schedule %q: %w", schedule, err)
	}

	b.mu.Lock()
	if b.cronSched != nil {
		b.cronSched.Stop()
	}
	b.cronSched = c
	b.mu.Unlock()

	c.Start()
	b.logger.Info("autosave scheduled", "schedule", schedule)
	return nil
}

// Autosave saves the open document if it has unsaved changes. It reports
// whether a save happened. Overlapping runs are skipped.
func (b *Background) Autosave() bool {
	if !b.running.TryLock("autosave") {
		return false
	}
	defer b.running.Unlock("autosave")

	if !b.editor.Dirty() {
		return false
	}
	if err := b.editor.Save(); err != nil {
		b.logger.Error("autosave failed", "err", err)
		return false
	}
	b.logger.Debug("autosaved", "document", b.editor.Document().ID)
	return true
}

// ── Import watcher ─────────────────────────────────────────

// ImportFile reads a document JSON file, saves it when the editor has a
// store and opens it.
func (b *Background) ImportFile(path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	b.editor.Open(doc)
	if b.editor.store != nil {
		if err := b.editor.Save(); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// DecodeDocument parses an exported document and checks that its element
// tree is well formed.
func DecodeDocument(data []byte) (*domain.Document, error) {
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("decode document: missing id")
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("decode document %s: no pages", doc.ID)
	}
	if doc.Elements == nil {
		doc.Elements = map[string]*domain.Element{}
	}
	if doc.Connections == nil {
		doc.Connections = []domain.Connection{}
	}
	if doc.Status == "" {
		doc.Status = domain.StatusDraft
	}
	for i := range doc.Pages {
		if doc.Pages[i].ElementIDs == nil {
			doc.Pages[i].ElementIDs = []string{}
		}
	}
	if err := tree.Validate(&doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	for _, el := range doc.Elements {
		if el.Properties == nil {
			el.Properties = domain.Properties{}
		}
		if el.IsContainer() && el.Children == nil {
			el.Children = []string{}
		}
	}
	return &doc, nil
}

// WatchImports imports every *.json file written or created in dir.
func (b *Background) WatchImports(dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("import watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("import watcher: watch %q: %w", dir, err)
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	b.mu.Lock()
	b.stopWatcherLocked()
	b.watcher = watcher
	b.watchCancel = cancel
	b.mu.Unlock()

	go func() {
		timers := make(map[string]*time.Timer)
		defer func() {
			for _, t := range timers {
				t.Stop()
			}
		}()
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
					continue
				}
				path := event.Name
				if t, exists := timers[path]; exists {
					t.Stop()
				}
				timers[path] = time.AfterFunc(importDebounce, func() {
					doc, err := b.ImportFile(path)
					if err != nil {
						b.logger.Error("import failed", "file", path, "err", err)
						return
					}
					b.logger.Info("imported", "file", path, "document", doc.ID)
					b.emitter.Emit(watchCtx, EventDocumentImported, doc.ID)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				b.logger.Warn("import watcher", "err", err)
			}
		}
	}()

	b.logger.Info("watching for imports", "dir", dir)
	return nil
}

// WaitRunning blocks until a running autosave finishes or ctx is cancelled.
func (b *Background) WaitRunning(ctx context.Context) {
	b.running.WaitAll(ctx)
}

// Stop tears down the watcher and the scheduler.
func (b *Background) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopWatcherLocked()
	if b.cronSched != nil {
		b.cronSched.Stop()
		b.cronSched = nil
	}
}

func (b *Background) stopWatcherLocked() {
	if b.watchCancel != nil {
		b.watchCancel()
		b.watchCancel = nil
	}
	if b.watcher != nil {
		b.watcher.Close()
		b.watcher = nil
	}
}
