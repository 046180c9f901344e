// Package tooltip drives hover tooltips for dashboard items: it debounces
// hover intent, resolves data through a request coordinator, keeps at most
// one visible tooltip per class and tears everything down on Destroy.
package tooltip

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/unkn0wn-root/tipcache"
	"github.com/unkn0wn-root/tipcache/api"
)

// session is one hover target's trip through the state machine.
type session struct {
	id     string
	target Element
	itemID string
	kind   Kind
	state  State
	timers []*time.Timer

	call  *tipcache.Call[api.Website]
	owned bool // this session issued or queued the call
}

func (s *session) stopTimers() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

// slot is the pooled tooltip instance of one class.
type slot struct {
	handle     Handle
	owner      *session // nil while idle or showing an error
	visible    bool
	digest     uint64
	hasContent bool
	gen        uint64 // bumped on every takeover; stale dismiss timers compare it
	dismiss    *time.Timer
}

// Controller is the hover session state machine. Handlers may be called
// from any goroutine. Document and Renderer methods are invoked with the
// controller lock held and must not call back into the controller.
type Controller struct {
	mu      sync.Mutex
	doc     Document
	ui      Renderer
	src     Source
	cfg     Config
	log     *slog.Logger
	content *content

	sessions map[Element]*session
	active   *session
	slots    [numClasses]*slot

	ctx       context.Context
	stop      context.CancelFunc
	wg        sync.WaitGroup
	destroyed bool
}

// New wires a controller. Zero Config fields take the DefaultConfig values.
func New(doc Document, ui Renderer, src Source, cfg Config) *Controller {
	cfg.fillDefaults()
	ctx, stop := context.WithCancel(context.Background())
	return &Controller{
		doc:      doc,
		ui:       ui,
		src:      src,
		cfg:      cfg,
		log:      cfg.Logger,
		content:  newContent(cfg),
		sessions: make(map[Element]*session),
		ctx:      ctx,
		stop:     stop,
	}
}

// OnPointerEnter starts (or restarts) a hover session for the qualifying
// element around ev.Target. A different active session is superseded.
func (c *Controller) OnPointerEnter(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}

	target := c.doc.Closest(ev.Target)
	if target == nil {
		return
	}
	kind := c.doc.Classify(target)
	if kind == KindNone {
		return
	}

	if s := c.sessions[target]; s != nil {
		switch s.state {
		case Resolving, Showing:
			c.active = s
			return
		case Debouncing:
			c.active = s
			s.stopTimers()
			c.armLocked(s, c.cfg.Debounce, c.onDebounce)
			return
		case Closing:
			c.finishCloseLocked(s)
		}
	}

	if prev := c.active; prev != nil {
		c.supersedeLocked(prev)
	}

	s := &session{
		id:     uuid.NewString(),
		target: target,
		itemID: c.doc.ItemID(target),
		kind:   kind,
		state:  Debouncing,
	}
	c.sessions[target] = s
	c.active = s
	c.armLocked(s, c.cfg.Debounce, c.onDebounce)
	c.log.Debug("hover started", "session", s.id, "kind", kind, "key", s.itemID)
}

// OnPointerLeave ends the session of the element being left. Moving into a
// descendant of that element is not a leave.
func (c *Controller) OnPointerLeave(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}

	target := c.doc.Closest(ev.Target)
	if target == nil {
		return
	}
	if ev.Related != nil && c.doc.Contains(target, ev.Related) {
		return
	}
	s := c.sessions[target]
	if s == nil {
		return
	}
	if c.active == s {
		c.active = nil
	}

	switch s.state {
	case Debouncing:
		c.endLocked(s)
	case Resolving:
		c.releaseLocked(s)
		c.endLocked(s)
	case Showing:
		c.closeLocked(s)
	}
}

// Destroy stops every timer, cancels outstanding requests, detaches the
// pooled tooltips and waits for in-flight waiters. Later calls are no-ops.
func (c *Controller) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true

	for _, s := range c.sessions {
		s.stopTimers()
		s.state = Idle
	}
	c.sessions = make(map[Element]*session)
	c.active = nil

	c.src.CancelAll()
	for i, sl := range c.slots {
		if sl == nil {
			continue
		}
		if sl.dismiss != nil {
			sl.dismiss.Stop()
		}
		c.ui.Detach(sl.handle)
		c.slots[i] = nil
	}
	c.stop()
	c.mu.Unlock()

	c.wg.Wait()
	c.log.Debug("tooltip controller destroyed")
}

// State reports the session state of a qualifying element.
func (c *Controller) State(el Element) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.sessions[el]; s != nil {
		return s.state
	}
	return Idle
}

// Active returns the current hover target, nil if none.
func (c *Controller) Active() Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	return c.active.target
}

func (c *Controller) armLocked(s *session, d time.Duration, fire func(*session)) {
	s.timers = append(s.timers, time.AfterFunc(d, func() { fire(s) }))
}

func (c *Controller) transitionLocked(s *session, to State) {
	c.log.Debug("session transition", "session", s.id, "from", s.state, "to", to)
	s.state = to
}

func (c *Controller) validLocked(s *session) bool {
	return c.active == s && c.doc.IsAttached(s.target) && c.doc.IsHovered(s.target)
}

func (c *Controller) onDebounce(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed || s.state != Debouncing || c.active != s {
		return
	}
	if !c.validLocked(s) {
		c.endLocked(s)
		return
	}
	c.transitionLocked(s, Resolving)
	c.resolveLocked(s)
}

func (c *Controller) resolveLocked(s *session) {
	switch s.kind {
	case KindButton:
		html, err := c.content.button(c.doc.Attrs(s.target)[AttrTooltip])
		c.renderLocked(s, html, err)

	case KindDocker:
		c.preloadLocked(s)
		info, err := DecodeDocker(c.doc.Attrs(s.target))
		if err != nil {
			c.renderLocked(s, "", err)
			return
		}
		html, err := c.content.docker(info)
		c.renderLocked(s, html, err)

	case KindWebsite:
		if s.itemID == "" {
			c.log.Debug("website item without id", "session", s.id)
			c.endLocked(s)
			return
		}
		c.preloadLocked(s)
		call, origin := c.src.Request(s.itemID)
		s.call = call
		s.owned = origin == tipcache.Issued || origin == tipcache.Queued
		c.log.Debug("website requested", "session", s.id, "key", s.itemID, "origin", origin)

		if v, ok, err := call.Result(); ok {
			c.settledLocked(s, v, err)
			return
		}
		c.wg.Add(1)
		go c.await(s, call)
	}
}

// await parks until the call settles, then resumes the session.
func (c *Controller) await(s *session, call *tipcache.Call[api.Website]) {
	defer c.wg.Done()

	select {
	case <-call.Done():
	case <-c.ctx.Done():
		return
	}
	v, _, err := call.Result()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.settledLocked(s, v, err)
}

func (c *Controller) settledLocked(s *session, v api.Website, err error) {
	if s.state != Resolving || c.active != s {
		c.log.Debug("dropping result of superseded session", "session", s.id, "key", s.itemID)
		return
	}
	if tipcache.IsCancelled(err) {
		c.endLocked(s)
		return
	}
	if !c.validLocked(s) {
		c.endLocked(s)
		return
	}
	if err != nil {
		c.showErrorLocked(s, err)
		return
	}
	html, rerr := c.content.website(v)
	c.renderLocked(s, html, rerr)
}

func (c *Controller) renderLocked(s *session, html string, err error) {
	if err != nil {
		c.log.Error("render tooltip", "session", s.id, "kind", s.kind, "err", err)
		c.endLocked(s)
		return
	}
	c.displayLocked(s, html)
}

func (c *Controller) displayLocked(s *session, html string) {
	if c.doc.ContextMenuOpen() {
		c.log.Debug("context menu open, tooltip suppressed", "session", s.id)
		c.endLocked(s)
		return
	}

	sl := c.takeSlotLocked(s.kind.Class(), s)
	sl.owner = s
	c.paintLocked(sl, html, s.target)

	c.transitionLocked(s, Showing)
	c.armLocked(s, c.cfg.AutoClose, c.onAutoClose)
}

// showErrorLocked presents err in the item tooltip. The error tooltip is
// not tied to the pointer: it stays for ErrorDismiss and the session ends.
func (c *Controller) showErrorLocked(s *session, err error) {
	c.log.Warn("tooltip data unavailable", "session", s.id, "key", s.itemID, "err", err)

	html, rerr := c.content.failure(Message(err))
	if rerr != nil {
		c.renderLocked(s, "", rerr)
		return
	}

	sl := c.takeSlotLocked(ClassItem, s)
	c.paintLocked(sl, html, s.target)
	gen := sl.gen
	sl.dismiss = time.AfterFunc(c.cfg.ErrorDismiss, func() { c.onErrorDismiss(ClassItem, gen) })

	c.endLocked(s)
}

// takeSlotLocked hands the class instance to s. A previous owner loses it
// without a hide, so at most one tooltip of the class is ever visible.
func (c *Controller) takeSlotLocked(class Class, s *session) *slot {
	sl := c.slots[class]
	if sl == nil {
		sl = &slot{handle: c.ui.Acquire(class)}
		c.slots[class] = sl
	}
	if prev := sl.owner; prev != nil && prev != s {
		c.endLocked(prev)
	}
	if sl.dismiss != nil {
		sl.dismiss.Stop()
		sl.dismiss = nil
	}
	sl.owner = nil
	sl.gen++
	return sl
}

func (c *Controller) paintLocked(sl *slot, html string, target Element) {
	// identical content is not pushed to the renderer again
	if d := xxhash.Sum64String(html); !sl.hasContent || sl.digest != d {
		c.ui.SetContent(sl.handle, html)
		sl.digest = d
		sl.hasContent = true
	}
	c.ui.Show(sl.handle)
	c.ui.Position(sl.handle, target)
	sl.visible = true
}

func (c *Controller) onAutoClose(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed || s.state != Showing {
		return
	}
	c.closeLocked(s)
}

func (c *Controller) closeLocked(s *session) {
	s.stopTimers()
	c.transitionLocked(s, Closing)
	c.armLocked(s, c.cfg.FadeOut, c.onFaded)
}

func (c *Controller) onFaded(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed || s.state != Closing {
		return
	}
	c.finishCloseLocked(s)
}

// finishCloseLocked hides the instance if s still owns it. The instance
// is kept for reuse.
func (c *Controller) finishCloseLocked(s *session) {
	if sl := c.slots[s.kind.Class()]; sl != nil && sl.owner == s {
		c.ui.Hide(sl.handle)
		sl.visible = false
		sl.owner = nil
	}
	c.endLocked(s)
}

func (c *Controller) onErrorDismiss(class Class, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	sl := c.slots[class]
	if sl == nil || sl.gen != gen {
		return
	}
	sl.dismiss = nil
	if sl.visible {
		c.ui.Hide(sl.handle)
		sl.visible = false
	}
}

// supersedeLocked retires the previously active session when another
// target becomes active. Its request keeps running to warm the cache.
func (c *Controller) supersedeLocked(prev *session) {
	switch prev.state {
	case Debouncing:
		c.endLocked(prev)
	case Resolving:
		c.releaseLocked(prev)
		c.endLocked(prev)
	case Showing:
		c.closeLocked(prev)
	}
	if c.active == prev {
		c.active = nil
	}
}

// releaseLocked cancels the session's own request once its target has
// left the document; nobody will hover it again.
func (c *Controller) releaseLocked(s *session) {
	if !s.owned || s.call == nil || c.doc.IsAttached(s.target) {
		return
	}
	if _, settled, _ := s.call.Result(); settled {
		return
	}
	c.log.Debug("cancelling request of detached target", "session", s.id, "key", s.itemID)
	s.call.Cancel()
}

func (c *Controller) endLocked(s *session) {
	s.stopTimers()
	if s.state != Idle {
		c.transitionLocked(s, Idle)
	}
	if c.sessions[s.target] == s {
		delete(c.sessions, s.target)
	}
	if c.active == s {
		c.active = nil
	}
}

// preloadLocked warms the cache for visible website neighbours.
func (c *Controller) preloadLocked(s *session) {
	for _, n := range c.doc.Neighbors(s.target) {
		if n == nil || c.doc.Classify(n) != KindWebsite || !c.doc.InViewport(n) {
			continue
		}
		id := c.doc.ItemID(n)
		if id == "" || c.src.Contains(id) {
			continue
		}
		_, origin := c.src.Request(id)
		c.log.Debug("preload", "session", s.id, "key", id, "origin", origin)
	}
}
