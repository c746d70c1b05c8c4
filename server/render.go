package server

import (
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"ratemyfit/logger"
)

// Renderer loads the HTML templates under the views directory. In development
// it watches the directory and re-parses on change, so template edits don't
// need a restart.
type Renderer struct {
	dir string

	mu   sync.RWMutex
	tmpl *template.Template
}

// NewRenderer parses the views directory. When watch is true, changes to
// .html files trigger a re-parse.
func NewRenderer(dir string, watch bool) (*Renderer, error) {
	r := &Renderer{dir: dir}
	if err := r.reload(); err != nil {
		return nil, err
	}
	if watch {
		go r.watch()
	}
	return r, nil
}

func (r *Renderer) reload() error {
	tmpl, err := template.ParseGlob(filepath.Join(r.dir, "*.html"))
	if err != nil {
		return fmt.Errorf("failed to parse templates in %s: %w", r.dir, err)
	}
	r.mu.Lock()
	r.tmpl = tmpl
	r.mu.Unlock()
	return nil
}

func (r *Renderer) watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("template watcher unavailable", logger.ErrorField(err))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(r.dir); err != nil {
		logger.Warn("failed to watch views directory", logger.ErrorField(err))
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".html") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := r.reload(); err != nil {
				logger.Warn("template reload failed", logger.ErrorField(err))
				continue
			}
			logger.Debug("templates reloaded", logger.String("file", event.Name))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("template watcher error", logger.ErrorField(err))
		}
	}
}

// Render writes the named template with the given data. A failing template is
// a server bug; the client gets the generic failure page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data interface{}) {
	r.mu.RLock()
	tmpl := r.tmpl
	r.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		logger.Error("failed to render template", logger.String("template", name), logger.ErrorField(err))
	}
}
