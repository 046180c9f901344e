package tooltip

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lastVisit = time.Date(2024, 11, 3, 9, 30, 0, 0, time.UTC)

func TestWebsiteTooltipLifecycle(t *testing.T) {
	h := newHarness(t)
	site := website("site-42")
	h.be.add("site-42", "https://example.com", lastVisit)

	h.ctrl.OnPointerEnter(Event{Target: site})
	assert.Equal(t, Debouncing, h.ctrl.State(site))
	assert.Equal(t, Element(site), h.ctrl.Active())

	snap := h.eventuallyShows(t, ClassItem, "https://example.com")
	assert.Contains(t, snap.content, "2024/11/03 09:30:00")
	assert.Same(t, site, snap.at)
	assert.Equal(t, Showing, h.ctrl.State(site))
	assert.Equal(t, 1, h.be.count("site-42"))

	// auto-close, then the fade hides the instance without discarding it
	h.eventuallyHidden(t, ClassItem)
	h.eventuallyState(t, site, Idle)
	final, _ := h.ui.snapshot(ClassItem)
	assert.False(t, final.detached)
	assert.Equal(t, 1, final.hides)
	assert.Equal(t, 1, h.ui.acquireCount())
}

func TestErrorTooltipDismissesOnItsOwnTimer(t *testing.T) {
	h := newHarness(t)
	site := website("site-99")
	h.be.fail("site-99", errors.New("connection refused"))

	h.ctrl.OnPointerEnter(Event{Target: site})
	h.eventuallyShows(t, ClassItem, "Failed to load: connection refused")

	// the error tooltip belongs to no session; only the dismiss timer hides it
	assert.Equal(t, Idle, h.ctrl.State(site))
	h.ctrl.OnPointerLeave(Event{Target: site})
	assert.True(t, h.ui.visible(ClassItem))
	h.eventuallyHidden(t, ClassItem)

	// the failure marker serves repeated hovers without hitting the backend
	h.ctrl.OnPointerEnter(Event{Target: site})
	h.eventuallyShows(t, ClassItem, "Failed to load")
	assert.Equal(t, 1, h.be.count("site-99"))
}

func TestOnlyOneTooltipPerClass(t *testing.T) {
	h := newHarness(t)
	a, b := website("a"), website("b")
	h.be.add("a", "https://a.example", lastVisit)
	h.be.add("b", "https://b.example", lastVisit)

	h.ctrl.OnPointerEnter(Event{Target: a})
	h.eventuallyShows(t, ClassItem, "https://a.example")

	h.doc.setHovered(a, false)
	h.ctrl.OnPointerEnter(Event{Target: b, Related: a})

	snap := h.eventuallyShows(t, ClassItem, "https://b.example")
	assert.Same(t, b, snap.at)
	assert.NotContains(t, snap.content, "https://a.example")
	assert.Equal(t, 1, h.ui.acquireCount(), "instance is reused")
	h.eventuallyState(t, a, Idle)
	assert.Equal(t, Showing, h.ctrl.State(b))
}

func TestLeaveIntoChildKeepsTooltip(t *testing.T) {
	h := newHarness(t)
	site := website("site-1")
	inner := childOf(site)
	h.be.add("site-1", "https://one.example", lastVisit)

	h.ctrl.OnPointerEnter(Event{Target: inner})
	h.eventuallyShows(t, ClassItem, "https://one.example")

	h.ctrl.OnPointerLeave(Event{Target: site, Related: inner})
	assert.Equal(t, Showing, h.ctrl.State(site))
	assert.True(t, h.ui.visible(ClassItem))

	h.ctrl.OnPointerLeave(Event{Target: site})
	assert.Equal(t, Closing, h.ctrl.State(site))
	h.eventuallyHidden(t, ClassItem)
	h.eventuallyState(t, site, Idle)
	assert.Nil(t, h.ctrl.Active())
}

func TestLeaveDuringDebounceSkipsFetch(t *testing.T) {
	h := newHarness(t)
	site := website("site-1")
	h.be.add("site-1", "https://one.example", lastVisit)

	h.ctrl.OnPointerEnter(Event{Target: site})
	h.ctrl.OnPointerLeave(Event{Target: site})
	assert.Equal(t, Idle, h.ctrl.State(site))

	time.Sleep(3 * testConfig().Debounce)
	assert.Equal(t, 0, h.be.count("site-1"))
	assert.Equal(t, 0, h.ui.acquireCount())
}

func TestPointerGoneDuringFetchSkipsDisplay(t *testing.T) {
	h := newHarness(t)
	site := website("slow")
	h.be.add("slow", "https://slow.example", lastVisit)
	h.be.block("slow")

	h.ctrl.OnPointerEnter(Event{Target: site})
	h.eventuallyState(t, site, Resolving)

	h.doc.setHovered(site, false)
	h.be.release("slow")

	h.eventuallyState(t, site, Idle)
	assert.False(t, h.ui.visible(ClassItem))
	assert.True(t, h.co.Contains("slow"), "result still cached")
}

func TestSupersededResultIsNeverShown(t *testing.T) {
	h := newHarness(t)
	slow := website("slow")
	box := docker("box", map[string]string{AttrDockerName: "nginx"})
	h.be.add("slow", "https://slow.example", lastVisit)
	h.be.block("slow")

	h.ctrl.OnPointerEnter(Event{Target: slow})
	h.eventuallyState(t, slow, Resolving)

	h.ctrl.OnPointerEnter(Event{Target: box})
	h.eventuallyShows(t, ClassItem, "Docker Name: nginx")
	assert.Equal(t, Idle, h.ctrl.State(slow))

	h.be.release("slow")
	require.Eventually(t, func() bool { return h.co.Contains("slow") && !h.co.Pending("slow") }, waitFor, tick)

	snap, _ := h.ui.snapshot(ClassItem)
	assert.NotContains(t, snap.content, "https://slow.example")
	assert.Same(t, box, snap.at)
}

func TestDetachedTargetCancelsOwnedRequest(t *testing.T) {
	h := newHarness(t)
	site := website("gone")
	h.be.add("gone", "https://gone.example", lastVisit)
	h.be.block("gone")

	h.ctrl.OnPointerEnter(Event{Target: site})
	h.eventuallyState(t, site, Resolving)
	require.Equal(t, 1, h.co.InFlight())

	h.doc.detach(site)
	h.ctrl.OnPointerLeave(Event{Target: site})

	require.Eventually(t, func() bool { return h.co.InFlight() == 0 }, waitFor, tick)
	assert.False(t, h.co.Contains("gone"))
	assert.Equal(t, int64(1), h.co.Stats().Cancelled)
	assert.Equal(t, Idle, h.ctrl.State(site))
}

func TestAttachedTargetKeepsRequestOnLeave(t *testing.T) {
	h := newHarness(t)
	site := website("stay")
	h.be.add("stay", "https://stay.example", lastVisit)
	h.be.block("stay")

	h.ctrl.OnPointerEnter(Event{Target: site})
	h.eventuallyState(t, site, Resolving)
	h.ctrl.OnPointerLeave(Event{Target: site})

	h.be.release("stay")
	require.Eventually(t, func() bool { return h.co.Contains("stay") && !h.co.Pending("stay") }, waitFor, tick)
	assert.Equal(t, int64(0), h.co.Stats().Cancelled)
	assert.False(t, h.ui.visible(ClassItem))
}

func TestPreloadsVisibleWebsiteNeighbours(t *testing.T) {
	h := newHarness(t)
	target, next, offscreen, box := website("t"), website("next"), website("far"), docker("box", nil)
	for _, id := range []string{"t", "next", "far"} {
		h.be.add(id, "https://"+id+".example", lastVisit)
	}
	h.doc.neighbors[target] = []*fakeEl{next, offscreen, box}
	h.doc.hidden[offscreen] = true

	h.ctrl.OnPointerEnter(Event{Target: target})
	h.eventuallyShows(t, ClassItem, "https://t.example")

	require.Eventually(t, func() bool { return h.co.Contains("next") && !h.co.Pending("next") }, waitFor, tick)
	assert.Equal(t, 1, h.be.count("next"))
	assert.Equal(t, 0, h.be.count("far"))
	assert.Equal(t, 0, h.be.count("box"))
	assert.Equal(t, Idle, h.ctrl.State(next), "preloads never display")

	// a preloaded neighbour is then served from the cache
	h.ctrl.OnPointerEnter(Event{Target: next})
	h.eventuallyShows(t, ClassItem, "https://next.example")
	assert.Equal(t, 1, h.be.count("next"))
}

func TestContextMenuSuppressesTooltip(t *testing.T) {
	h := newHarness(t)
	site := website("site-1")
	h.be.add("site-1", "https://one.example", lastVisit)
	h.doc.menuOpen = true

	h.ctrl.OnPointerEnter(Event{Target: site})
	h.eventuallyState(t, site, Idle)
	assert.Equal(t, 1, h.be.count("site-1"))
	assert.False(t, h.ui.visible(ClassItem))
	assert.Equal(t, 0, h.ui.acquireCount())
}

func TestDockerTooltipReadsAttributes(t *testing.T) {
	h := newHarness(t)
	box := docker("box", map[string]string{
		AttrDockerName:    "nginx",
		AttrDockerURLPort: "8080",
	})

	h.ctrl.OnPointerEnter(Event{Target: box})
	snap := h.eventuallyShows(t, ClassItem, "Docker Name: nginx")
	assert.Contains(t, snap.content, "URL Port: 8080")
	assert.Contains(t, snap.content, "Server: N/A")
	assert.Contains(t, snap.content, "Notes: N/A")
	assert.Equal(t, 0, h.be.count("box"))
}

func TestButtonTooltipUsesOwnInstance(t *testing.T) {
	h := newHarness(t)
	site := website("site-1")
	save := button("<b>Save</b>")
	h.be.add("site-1", "https://one.example", lastVisit)

	h.ctrl.OnPointerEnter(Event{Target: site})
	h.eventuallyShows(t, ClassItem, "https://one.example")

	h.ctrl.OnPointerEnter(Event{Target: save})
	snap := h.eventuallyShows(t, ClassButton, "&lt;b&gt;Save&lt;/b&gt;")
	assert.Equal(t, ClassButton, snap.class)
	assert.Equal(t, 2, h.ui.acquireCount())

	// the superseded item tooltip fades out
	h.eventuallyHidden(t, ClassItem)
}

func TestReenterDuringDebounceRestartsTimer(t *testing.T) {
	h := newHarness(t)
	site := website("site-1")
	h.be.add("site-1", "https://one.example", lastVisit)

	h.ctrl.OnPointerEnter(Event{Target: site})
	h.ctrl.OnPointerEnter(Event{Target: childOf(site)})
	assert.Equal(t, Debouncing, h.ctrl.State(site))

	h.eventuallyShows(t, ClassItem, "https://one.example")
	assert.Equal(t, 1, h.be.count("site-1"))
}

func TestDestroyTearsDown(t *testing.T) {
	h := newHarness(t)
	site, slow := website("site-1"), website("slow")
	h.be.add("site-1", "https://one.example", lastVisit)
	h.be.add("slow", "https://slow.example", lastVisit)

	h.ctrl.OnPointerEnter(Event{Target: site})
	h.eventuallyShows(t, ClassItem, "https://one.example")

	h.be.block("slow")
	h.ctrl.OnPointerEnter(Event{Target: slow})
	h.eventuallyState(t, slow, Resolving)

	h.ctrl.Destroy()
	h.ctrl.Destroy()

	snap, _ := h.ui.snapshot(ClassItem)
	assert.True(t, snap.detached)
	assert.False(t, snap.visible)
	assert.Equal(t, Idle, h.ctrl.State(slow))
	assert.Nil(t, h.ctrl.Active())
	require.Eventually(t, func() bool { return h.co.InFlight() == 0 }, waitFor, tick)
	assert.False(t, h.co.Contains("slow"))

	h.ctrl.OnPointerEnter(Event{Target: site})
	h.ctrl.OnPointerLeave(Event{Target: site})
	time.Sleep(3 * testConfig().Debounce)
	assert.Equal(t, 1, h.ui.acquireCount())
	assert.Equal(t, Idle, h.ctrl.State(site))
}

func TestIgnoresUnqualifiedElements(t *testing.T) {
	h := newHarness(t)
	plain := &fakeEl{name: "plain"}

	h.ctrl.OnPointerEnter(Event{Target: plain})
	h.ctrl.OnPointerEnter(Event{Target: nil})
	h.ctrl.OnPointerLeave(Event{Target: plain})

	assert.Nil(t, h.ctrl.Active())
	assert.Equal(t, Idle, h.ctrl.State(plain))
}

func TestWebsiteWithoutIDIsNotRequested(t *testing.T) {
	h := newHarness(t)
	site := website("")

	h.ctrl.OnPointerEnter(Event{Target: site})
	require.Equal(t, Debouncing, h.ctrl.State(site))
	h.eventuallyState(t, site, Idle)

	assert.Nil(t, h.ctrl.Active())
	assert.Equal(t, 0, h.be.count(""))
	assert.Zero(t, h.co.Stats().Fetches)
	assert.Equal(t, 0, h.ui.acquireCount())
}
