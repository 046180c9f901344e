package tooltip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/tipcache"
	"github.com/unkn0wn-root/tipcache/api"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeEl struct {
	name   string
	id     string
	kind   Kind
	attrs  map[string]string
	parent *fakeEl
}

func website(id string) *fakeEl {
	return &fakeEl{name: id, id: id, kind: KindWebsite, attrs: map[string]string{AttrItemID: id}}
}

func docker(id string, attrs map[string]string) *fakeEl {
	all := map[string]string{AttrItemID: id}
	for k, v := range attrs {
		all[k] = v
	}
	return &fakeEl{name: id, id: id, kind: KindDocker, attrs: all}
}

func button(text string) *fakeEl {
	return &fakeEl{name: "button", kind: KindButton, attrs: map[string]string{AttrTooltip: text}}
}

func childOf(p *fakeEl) *fakeEl { return &fakeEl{name: p.name + "/child", parent: p} }

// fakeDoc is a mutable page model; every element starts attached, visible
// and hovered.
type fakeDoc struct {
	mu        sync.Mutex
	detached  map[*fakeEl]bool
	unhovered map[*fakeEl]bool
	hidden    map[*fakeEl]bool
	neighbors map[*fakeEl][]*fakeEl
	menuOpen  bool
}

func newFakeDoc() *fakeDoc {
	return &fakeDoc{
		detached:  make(map[*fakeEl]bool),
		unhovered: make(map[*fakeEl]bool),
		hidden:    make(map[*fakeEl]bool),
		neighbors: make(map[*fakeEl][]*fakeEl),
	}
}

func asEl(el Element) *fakeEl {
	f, _ := el.(*fakeEl)
	return f
}

func (d *fakeDoc) Closest(el Element) Element {
	for f := asEl(el); f != nil; f = f.parent {
		if f.kind != KindNone {
			return f
		}
	}
	return nil
}

func (d *fakeDoc) Classify(el Element) Kind {
	if f := asEl(el); f != nil {
		return f.kind
	}
	return KindNone
}

func (d *fakeDoc) ItemID(el Element) string {
	if f := asEl(el); f != nil {
		return f.id
	}
	return ""
}

func (d *fakeDoc) Attrs(el Element) map[string]string {
	if f := asEl(el); f != nil {
		return f.attrs
	}
	return nil
}

func (d *fakeDoc) IsAttached(el Element) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.detached[asEl(el)]
}

func (d *fakeDoc) IsHovered(el Element) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.unhovered[asEl(el)]
}

func (d *fakeDoc) InViewport(el Element) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.hidden[asEl(el)]
}

func (d *fakeDoc) Contains(parent, child Element) bool {
	p := asEl(parent)
	for f := asEl(child); f != nil; f = f.parent {
		if f == p {
			return true
		}
	}
	return false
}

func (d *fakeDoc) Neighbors(el Element) []Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Element
	for _, n := range d.neighbors[asEl(el)] {
		out = append(out, n)
	}
	return out
}

func (d *fakeDoc) ContextMenuOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.menuOpen
}

func (d *fakeDoc) setHovered(el *fakeEl, on bool) {
	d.mu.Lock()
	d.unhovered[el] = !on
	d.mu.Unlock()
}

func (d *fakeDoc) detach(el *fakeEl) {
	d.mu.Lock()
	d.detached[el] = true
	d.mu.Unlock()
}

type fakeHandle struct {
	class    Class
	content  string
	visible  bool
	detached bool
	at       *fakeEl
	sets     int
	shows    int
	hides    int
}

// fakeRenderer records what a DOM renderer would do.
type fakeRenderer struct {
	mu       sync.Mutex
	handles  map[Class]*fakeHandle
	acquired int
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{handles: make(map[Class]*fakeHandle)}
}

func (r *fakeRenderer) Acquire(class Class) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acquired++
	h := &fakeHandle{class: class}
	r.handles[class] = h
	return h
}

func (r *fakeRenderer) SetContent(h Handle, html string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fh := h.(*fakeHandle)
	fh.content = html
	fh.sets++
}

func (r *fakeRenderer) Position(h Handle, target Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.(*fakeHandle).at = asEl(target)
}

func (r *fakeRenderer) Show(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fh := h.(*fakeHandle)
	fh.visible = true
	fh.shows++
}

func (r *fakeRenderer) Hide(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fh := h.(*fakeHandle)
	fh.visible = false
	fh.hides++
}

func (r *fakeRenderer) Detach(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fh := h.(*fakeHandle)
	fh.visible = false
	fh.detached = true
}

// snapshot returns a copy of the class instance; ok is false before Acquire.
func (r *fakeRenderer) snapshot(class Class) (fakeHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[class]
	if !ok {
		return fakeHandle{}, false
	}
	return *h, true
}

func (r *fakeRenderer) visible(class Class) bool {
	h, ok := r.snapshot(class)
	return ok && h.visible
}

func (r *fakeRenderer) acquireCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acquired
}

// backend serves websites to the coordinator; blocked ids wait for release.
type backend struct {
	mu    sync.Mutex
	sites map[string]api.Website
	errs  map[string]error
	gates map[string]chan struct{}
	calls map[string]int
}

func newBackend() *backend {
	return &backend{
		sites: make(map[string]api.Website),
		errs:  make(map[string]error),
		gates: make(map[string]chan struct{}),
		calls: make(map[string]int),
	}
}

func (b *backend) add(id, url string, accessed time.Time) {
	b.mu.Lock()
	b.sites[id] = api.Website{ID: id, URL: url, LastAccessTime: accessed}
	b.mu.Unlock()
}

func (b *backend) fail(id string, err error) {
	b.mu.Lock()
	b.errs[id] = err
	b.mu.Unlock()
}

func (b *backend) block(id string) {
	b.mu.Lock()
	b.gates[id] = make(chan struct{})
	b.mu.Unlock()
}

func (b *backend) release(id string) {
	b.mu.Lock()
	g := b.gates[id]
	delete(b.gates, id)
	b.mu.Unlock()
	if g != nil {
		close(g)
	}
}

func (b *backend) count(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[id]
}

func (b *backend) fetch(ctx context.Context, id string) (api.Website, error) {
	b.mu.Lock()
	b.calls[id]++
	gate := b.gates[id]
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return api.Website{}, ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.errs[id]; err != nil {
		return api.Website{}, err
	}
	if w, ok := b.sites[id]; ok {
		return w, nil
	}
	return api.Website{}, errors.New("not found")
}

func testConfig() Config {
	return Config{
		Debounce:     20 * time.Millisecond,
		AutoClose:    150 * time.Millisecond,
		FadeOut:      10 * time.Millisecond,
		ErrorDismiss: 80 * time.Millisecond,
		Location:     time.UTC,
		Logger:       quiet,
	}
}

type harness struct {
	doc  *fakeDoc
	ui   *fakeRenderer
	be   *backend
	co   *tipcache.Coordinator[api.Website]
	ctrl *Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{doc: newFakeDoc(), ui: newFakeRenderer(), be: newBackend()}
	h.co = tipcache.NewCoordinator(h.be.fetch, tipcache.CoordinatorConfig{
		MaxConcurrent: 3,
		MergeWindow:   50 * time.Millisecond,
		FailureTTL:    time.Minute,
		Cache:         tipcache.LRUConfig{Capacity: 10, TTL: time.Hour},
		Logger:        quiet,
	})
	h.ctrl = New(h.doc, h.ui, h.co, testConfig())
	t.Cleanup(func() {
		h.ctrl.Destroy()
		h.co.Close()
	})
	return h
}

const waitFor, tick = 2 * time.Second, 5 * time.Millisecond

func (h *harness) eventuallyShows(t *testing.T, class Class, substr string) fakeHandle {
	t.Helper()
	var snap fakeHandle
	require.Eventually(t, func() bool {
		s, ok := h.ui.snapshot(class)
		snap = s
		return ok && s.visible && strings.Contains(s.content, substr)
	}, waitFor, tick, "tooltip with %q never shown", substr)
	return snap
}

func (h *harness) eventuallyHidden(t *testing.T, class Class) {
	t.Helper()
	require.Eventually(t, func() bool { return !h.ui.visible(class) }, waitFor, tick)
}

func (h *harness) eventuallyState(t *testing.T, el *fakeEl, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return h.ctrl.State(el) == want }, waitFor, tick,
		"%s never reached %s", el.name, want)
}
