// Package resources loads the HTML templates, either embedded in the binary
// or from a directory that is watched and hot reloaded.
package resources

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

const layoutName = "layout.html"

var ErrTemplateNotFound = errors.New("template not found")

//go:embed templates/*.html
var embedded embed.FS

// Templates renders pages. Each page is parsed together with the shared
// layout, so pages can define the same blocks without colliding.
type Templates struct {
	mu      sync.RWMutex
	pages   map[string]*template.Template
	watcher *fsnotify.Watcher
}

// NewEmbedded loads the templates compiled into the binary.
func NewEmbedded() (*Templates, error) {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	pages, err := parsePages(sub)
	if err != nil {
		return nil, err
	}
	return &Templates{pages: pages}, nil
}

// NewFromDir loads templates from directory and reloads them whenever the
// directory changes. A reload that fails to parse keeps the previous set.
func NewFromDir(directory string) (*Templates, error) {
	pages, err := parsePages(os.DirFS(directory))
	if err != nil {
		return nil, err
	}
	t := &Templates{pages: pages}

	t.watcher, err = watchDir(directory, func() { t.reload(directory) })
	if err != nil {
		return nil, fmt.Errorf("failed to start template watcher: %v", err)
	}

	log.Printf("Loaded templates from %s\n", directory)
	return t, nil
}

// Render executes page into w. Output is buffered so a failed render never
// writes a partial page.
func (t *Templates) Render(
	w io.Writer,
	page string,
	data any,
) error {
	t.mu.RLock()
	tmpl, ok := t.pages[page]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutName, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// Close stops watching the template directory.
func (t *Templates) Close() error {
	if t.watcher == nil {
		return nil
	}
	return t.watcher.Close()
}

func (t *Templates) reload(directory string) {
	pages, err := parsePages(os.DirFS(directory))
	if err != nil {
		log.Printf("Failed to parse templates from '%s': %v\n", directory, err)
		return
	}

	t.mu.Lock()
	t.pages = pages
	t.mu.Unlock()
	log.Printf("Reloaded templates from %s\n", directory)
}

func parsePages(fsys fs.FS) (map[string]*template.Template, error) {
	layout, err := template.ParseFS(fsys, layoutName)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse layout: %v", err)
	}

	names, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template)
	for _, name := range names {
		if name == layoutName {
			continue
		}
		page, err := template.Must(layout.Clone()).ParseFS(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse '%s': %v", name, err)
		}
		pages[strings.TrimSuffix(path.Base(name), ".html")] = page
	}
	return pages, nil
}
