// Package page provides an in-memory document that satisfies the bridge's DOM
// contract.
//
// A Document holds a fixed set of elements with hidden flags and click
// handlers, a document.cookie style cookie store, the current location, alerts
// and mounted widgets. It also implements http.CookieJar, so an http.Client
// that uses the document as its jar sends whatever token cookie the bridge
// last wrote.
package page

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"git.sr.ht/~jakintosh/gallery/pkg/bridge"
)

var (
	ErrNoElement = errors.New("no such element")
	ErrClosed    = errors.New("document closed")
)

// Compile-time check that *Document implements bridge.Page.
var _ bridge.Page = (*Document)(nil)

type element struct {
	hidden  bool
	onClick func()
}

type mount struct {
	widget bridge.Widget
	cancel context.CancelFunc
}

type Document struct {
	mu        sync.Mutex
	elements  map[string]*element
	cookies   map[string]string
	location  string
	history   []string
	alerts    []string
	mounts    map[string]*mount
	closed    bool
	ctx       context.Context
	cancel    context.CancelFunc
	widgets   sync.WaitGroup
	navigated func(path string)
	alerted   func(message string)
}

// New creates a document at "/" containing the given element ids. Elements
// start visible.
func New(ids ...string) *Document {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Document{
		elements: make(map[string]*element),
		cookies:  make(map[string]string),
		location: "/",
		mounts:   make(map[string]*mount),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, id := range ids {
		d.elements[id] = &element{}
	}
	return d
}

// OnNavigate registers a hook called after every navigation.
func (d *Document) OnNavigate(fn func(path string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigated = fn
}

// OnAlert registers a hook called for every alert, in place of a dialog.
func (d *Document) OnAlert(fn func(message string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alerted = fn
}

func (d *Document) OnClick(
	id string,
	handler func(),
) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.elements[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoElement, id)
	}
	el.onClick = handler
	return nil
}

// Click runs the element's click handler on the calling goroutine.
func (d *Document) Click(id string) error {
	d.mu.Lock()
	el, ok := d.elements[id]
	var handler func()
	if ok {
		handler = el.onClick
	}
	d.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNoElement, id)
	}
	if handler != nil {
		handler()
	}
	return nil
}

func (d *Document) SetHidden(
	id string,
	hidden bool,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.elements[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoElement, id)
	}
	el.hidden = hidden
	return nil
}

func (d *Document) Hidden(id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.elements[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNoElement, id)
	}
	return el.hidden, nil
}

// SetCookie overwrites one cookie, the way assigning "name=value" to
// document.cookie does.
func (d *Document) SetCookie(
	name string,
	value string,
) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cookies[name] = value
}

// CookieValue returns the value of one cookie and whether it was ever set.
func (d *Document) CookieValue(name string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	value, ok := d.cookies[name]
	return value, ok
}

// Cookie renders every cookie as document.cookie would, sorted by name:
// "a=1; token=abc".
func (d *Document) Cookie() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.cookies))
	for name := range d.cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+d.cookies[name])
	}
	return strings.Join(pairs, "; ")
}

func (d *Document) Navigate(path string) {
	d.mu.Lock()
	d.location = path
	d.history = append(d.history, path)
	hook := d.navigated
	d.mu.Unlock()

	if hook != nil {
		hook(path)
	}
}

func (d *Document) Location() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.location
}

// History returns every path navigated to, oldest first.
func (d *Document) History() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.history...)
}

func (d *Document) Alert(message string) {
	d.mu.Lock()
	d.alerts = append(d.alerts, message)
	hook := d.alerted
	d.mu.Unlock()

	if hook != nil {
		hook(message)
	} else {
		log.Printf("alert: %s\n", message)
	}
}

func (d *Document) Alerts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.alerts...)
}

// MountWidget starts widget in the container element on its own goroutine.
// A widget already mounted there is stopped first.
func (d *Document) MountWidget(
	container string,
	widget bridge.Widget,
) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if _, ok := d.elements[container]; !ok {
		return fmt.Errorf("%w: %s", ErrNoElement, container)
	}
	if prev, ok := d.mounts[container]; ok {
		prev.cancel()
	}

	ctx, cancel := context.WithCancel(d.ctx)
	d.mounts[container] = &mount{widget: widget, cancel: cancel}

	host := &widgetHost{doc: d, container: container}
	d.widgets.Add(1)
	go func() {
		defer d.widgets.Done()
		err := widget.Start(ctx, host)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("widget in '%s' stopped: %v\n", container, err)
		}
	}()
	return nil
}

// Mounted returns the widget currently mounted in container.
func (d *Document) Mounted(container string) (bridge.Widget, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, ok := d.mounts[container]
	if !ok {
		return nil, false
	}
	return m.widget, true
}

// Close stops every mounted widget and waits for them to return.
func (d *Document) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.widgets.Wait()
	return nil
}

type widgetHost struct {
	doc       *Document
	container string
}

func (h *widgetHost) Container() string {
	return h.container
}

func (h *widgetHost) Navigate(path string) {
	h.doc.Navigate(path)
}
