package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/net/html"

	"github.com/unkn0wn-root/tipcache/tooltip"
)

const (
	rowLeft    = 20
	rowTop     = 40
	rowHeight  = 24
	rowWidth   = 240
	rowSpacing = 32

	// rough glyph metrics used to size a tooltip from its text
	charWidth  = 7
	lineHeight = 18
	tipPadding = 12
	maxTipW    = 320
)

// item is one row of the simulated dashboard listing.
type item struct {
	label string
	id    string
	kind  tooltip.Kind
	attrs map[string]string
	rect  tooltip.Rect
}

func (it *item) String() string { return it.label }

// panel is a tooltip instance drawn to the terminal.
type panel struct {
	class   tooltip.Class
	text    []string
	visible bool
}

// scene is a tooltip.Document and tooltip.Renderer over a fixed listing.
// The controller calls the renderer under its own lock; scene methods
// never call back into the controller.
type scene struct {
	mu      sync.Mutex
	out     *termenv.Output
	items   []*item
	hovered *item
	visible int // rows inside the viewport
	view    tooltip.Viewport
	panels  [2]*panel
}

func newScene(w io.Writer, ids []string, profile termenv.Profile) *scene {
	s := &scene{
		out:  termenv.NewOutput(w, termenv.WithProfile(profile)),
		view: tooltip.Viewport{Width: 800, Height: 600},
	}
	for _, id := range ids {
		s.add(&item{label: id, id: id, kind: tooltip.KindWebsite})
	}
	s.add(&item{
		label: "docker-pg",
		id:    "docker-pg",
		kind:  tooltip.KindDocker,
		attrs: map[string]string{
			tooltip.AttrDockerName:       "postgres",
			tooltip.AttrDockerURLPort:    "5432",
			tooltip.AttrDockerServerIP:   "10.0.0.5",
			tooltip.AttrDockerServerPort: "22",
		},
	})
	s.add(&item{
		label: "refresh button",
		kind:  tooltip.KindButton,
		attrs: map[string]string{tooltip.AttrTooltip: "Refresh all items"},
	})
	s.visible = int((s.view.Height - rowTop) / rowSpacing)
	return s
}

func (s *scene) add(it *item) {
	n := len(s.items)
	it.rect = tooltip.Rect{Left: rowLeft, Top: float64(rowTop + n*rowSpacing), Width: rowWidth, Height: rowHeight}
	if it.kind == tooltip.KindButton {
		it.rect = tooltip.Rect{Left: s.view.Width - 40, Top: rowTop, Width: 24, Height: 24}
	}
	if it.attrs == nil {
		it.attrs = map[string]string{}
	}
	if it.id != "" {
		it.attrs[tooltip.AttrItemID] = it.id
	}
	s.items = append(s.items, it)
}

// hover moves the simulated pointer; nil leaves the listing.
func (s *scene) hover(it *item) {
	s.mu.Lock()
	s.hovered = it
	s.mu.Unlock()
}

func (s *scene) Closest(el tooltip.Element) tooltip.Element {
	it, ok := el.(*item)
	if !ok || it == nil {
		return nil
	}
	return it
}

func (s *scene) Classify(el tooltip.Element) tooltip.Kind {
	if it, ok := el.(*item); ok {
		return it.kind
	}
	return tooltip.KindNone
}

func (s *scene) ItemID(el tooltip.Element) string {
	if it, ok := el.(*item); ok {
		return it.id
	}
	return ""
}

func (s *scene) Attrs(el tooltip.Element) map[string]string {
	if it, ok := el.(*item); ok {
		return it.attrs
	}
	return nil
}

func (s *scene) IsAttached(el tooltip.Element) bool { return s.index(el) >= 0 }

func (s *scene) IsHovered(el tooltip.Element) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hovered != nil && s.hovered == el
}

func (s *scene) InViewport(el tooltip.Element) bool {
	i := s.index(el)
	return i >= 0 && i < s.visible
}

func (s *scene) Contains(parent, child tooltip.Element) bool { return parent == child }

func (s *scene) Neighbors(el tooltip.Element) []tooltip.Element {
	i := s.index(el)
	if i < 0 {
		return nil
	}
	var out []tooltip.Element
	if i > 0 {
		out = append(out, s.items[i-1])
	}
	if i+1 < len(s.items) {
		out = append(out, s.items[i+1])
	}
	return out
}

func (s *scene) ContextMenuOpen() bool { return false }

func (s *scene) index(el tooltip.Element) int {
	for i, it := range s.items {
		if tooltip.Element(it) == el {
			return i
		}
	}
	return -1
}

func (s *scene) Acquire(class tooltip.Class) tooltip.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panels[class] == nil {
		s.panels[class] = &panel{class: class}
	}
	return s.panels[class]
}

func (s *scene) SetContent(h tooltip.Handle, content string) {
	p := h.(*panel)
	s.mu.Lock()
	p.text = textLines(content)
	s.mu.Unlock()
}

func (s *scene) Position(h tooltip.Handle, target tooltip.Element) {
	p, it := h.(*panel), target.(*item)
	s.mu.Lock()
	defer s.mu.Unlock()

	at := tooltip.Place(p.class, it.rect, p.size(), s.view)
	head := s.out.String(fmt.Sprintf("[%s tooltip] %s", p.class, it.label)).Bold()
	fmt.Fprintf(s.out, "%s %s\n", head, s.out.String(fmt.Sprintf("at (%.0f, %.0f)", at.Left, at.Top)).Faint())
	for _, line := range p.text {
		style := s.out.String("  " + line)
		if strings.HasPrefix(line, "Failed to load") {
			style = style.Foreground(s.out.Color("1"))
		}
		fmt.Fprintln(s.out, style)
	}
}

func (s *scene) Show(h tooltip.Handle) {
	s.mu.Lock()
	h.(*panel).visible = true
	s.mu.Unlock()
}

func (s *scene) Hide(h tooltip.Handle) {
	p := h.(*panel)
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.visible {
		p.visible = false
		fmt.Fprintln(s.out, s.out.String(fmt.Sprintf("[%s tooltip] hidden", p.class)).Faint())
	}
}

func (s *scene) Detach(h tooltip.Handle) {
	p := h.(*panel)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panels[p.class] == p {
		s.panels[p.class] = nil
	}
}

func (p *panel) size() tooltip.Size {
	w := 0
	for _, line := range p.text {
		w = max(w, runewidth.StringWidth(line))
	}
	return tooltip.Size{
		Width:  float64(min(w*charWidth+tipPadding, maxTipW)),
		Height: float64(len(p.text)*lineHeight + tipPadding),
	}
}

// textLines reduces tooltip markup to its visible text, one line per block.
func textLines(markup string) []string {
	var (
		lines []string
		cur   strings.Builder
	)
	flush := func() {
		if line := strings.Join(strings.Fields(cur.String()), " "); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			flush()
			return lines
		case html.TextToken:
			cur.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "div", "p", "br", "li", "ul", "ol":
				flush()
			}
		}
	}
}
