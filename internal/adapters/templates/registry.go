package templates

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/millcert/internal/domain/checklist"
	"github.com/okian/millcert/pkg/logger"
	"github.com/okian/millcert/pkg/metrics"
)

const defaultDebounce = 300 * time.Millisecond

// catalog is an immutable set of templates swapped in as a whole.
type catalog struct {
	byID   map[string]checklist.Template
	sorted []checklist.Template
}

func newCatalog(tmpls []checklist.Template) *catalog {
	c := &catalog{byID: make(map[string]checklist.Template, len(tmpls))}
	for _, t := range tmpls {
		c.byID[t.ID] = t
	}
	c.sorted = make([]checklist.Template, 0, len(c.byID))
	for _, t := range c.byID {
		c.sorted = append(c.sorted, t)
	}
	slices.SortFunc(c.sorted, func(a, b checklist.Template) int { return strings.Compare(a.ID, b.ID) })
	return c
}

// Registry serves templates by id. Readers never block on a reload; a failed
// reload keeps the previous catalog.
type Registry struct {
	dir      string
	debounce time.Duration
	current  atomic.Pointer[catalog]
	reloadMu sync.Mutex
	logger   logger.Logger
	onReload func(count int, err error)

	wg sync.WaitGroup
}

// NewRegistry creates a registry. Call Reload to read templates from dir.
func NewRegistry(dir string, opts ...Option) *Registry {
	r := &Registry{
		dir:      dir,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Named("templates")
	}
	r.current.Store(newCatalog(nil))
	return r
}

// Dir returns the directory the registry loads from.
func (r *Registry) Dir() string { return r.dir }

// Get returns the template with the given id.
func (r *Registry) Get(id string) (checklist.Template, bool) {
	t, ok := r.current.Load().byID[id]
	return t, ok
}

// List returns every template ordered by id.
func (r *Registry) List() []checklist.Template {
	return slices.Clone(r.current.Load().sorted)
}

// Len returns the number of templates served.
func (r *Registry) Len() int {
	return len(r.current.Load().byID)
}

// Set validates and installs templates directly, replacing the catalog.
func (r *Registry) Set(tmpls ...checklist.Template) error {
	seen := make(map[string]struct{}, len(tmpls))
	for _, t := range tmpls {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w %q", ErrDuplicateTemplate, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()
	r.install(tmpls)
	return nil
}

// Reload re-reads the template directory. On error the previous templates
// stay in service.
func (r *Registry) Reload(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	if r.dir == "" {
		return nil
	}

	tmpls, err := LoadDir(r.dir)
	if err != nil {
		metrics.RecordTemplateReload("error")
		r.logger.Error(ctx, "template reload failed, keeping previous templates",
			logger.String("dir", r.dir), logger.Error(err))
		r.notify(r.Len(), err)
		return err
	}

	r.install(tmpls)
	metrics.RecordTemplateReload("ok")
	r.logger.Info(ctx, "templates loaded", logger.String("dir", r.dir), logger.Int("count", len(tmpls)))
	r.notify(len(tmpls), nil)
	return nil
}

// install must be called with reloadMu held.
func (r *Registry) install(tmpls []checklist.Template) {
	r.current.Store(newCatalog(tmpls))
	metrics.UpdateTemplatesLoaded(r.Len())
}

func (r *Registry) notify(count int, err error) {
	if r.onReload != nil {
		r.onReload(count, err)
	}
}

// Watch reloads the registry when files in its directory change. Bursts of
// events are collapsed into one reload. It returns once the watcher is
// running; the watch stops when ctx is cancelled.
func (r *Registry) Watch(ctx context.Context) error {
	if r.dir == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init failed: %w", err)
	}
	if err := watcher.Add(r.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s failed: %w", r.dir, err)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer watcher.Close()

		// The reload runs on this goroutine so Wait also covers it.
		timer := time.NewTimer(r.debounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				if ctx.Err() != nil {
					return
				}
				_ = r.Reload(ctx)
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isTemplateFile(filepath.Base(ev.Name)) || ev.Op == fsnotify.Chmod {
					continue
				}
				timer.Reset(r.debounce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn(ctx, "template watch error", logger.Error(err))
			}
		}
	}()
	return nil
}

// Wait blocks until the watch goroutine has exited.
func (r *Registry) Wait() {
	r.wg.Wait()
}
