package tooltip

import (
	"github.com/unkn0wn-root/tipcache"
	"github.com/unkn0wn-root/tipcache/api"
)

//go:generate go tool mockgen -destination=mock_renderer_test.go -package=tooltip . Renderer

// Element is an opaque node owned by the Document. Implementations must use
// comparable values (typically pointers); the controller keys sessions by them.
type Element any

// Handle is an opaque tooltip instance owned by the Renderer.
type Handle any

// Event is a pointer transition. Related is the element the pointer came
// from (enter) or moved to (leave); it may be nil.
type Event struct {
	Target  Element
	Related Element
}

// Kind classifies a qualifying element.
type Kind int

const (
	KindNone Kind = iota
	KindWebsite
	KindDocker
	KindButton
)

func (k Kind) String() string {
	switch k {
	case KindWebsite:
		return "website"
	case KindDocker:
		return "docker"
	case KindButton:
		return "button"
	default:
		return "none"
	}
}

// Class returns the tooltip instance class the kind renders into.
func (k Kind) Class() Class {
	if k == KindButton {
		return ClassButton
	}
	return ClassItem
}

// Class selects one of the pooled tooltip instances.
type Class int

const (
	ClassItem   Class = iota // website, docker and error tooltips
	ClassButton              // icon button hints
	numClasses
)

func (c Class) String() string {
	if c == ClassButton {
		return "button"
	}
	return "item"
}

// Document is the read side of the page the controller observes.
type Document interface {
	// Closest returns el or its nearest ancestor that carries an item id or
	// a tooltip attribute, nil if none does.
	Closest(el Element) Element
	Classify(el Element) Kind
	ItemID(el Element) string
	// Attrs returns the element's data attributes, keyed by full name
	// ("data-docker-name", "data-tooltip", ...).
	Attrs(el Element) map[string]string
	IsAttached(el Element) bool
	IsHovered(el Element) bool
	InViewport(el Element) bool
	// Contains reports whether child is parent or one of its descendants.
	Contains(parent, child Element) bool
	// Neighbors returns the items immediately before and after el in its listing.
	Neighbors(el Element) []Element
	ContextMenuOpen() bool
}

// Renderer owns tooltip instances. Acquire returns the pooled instance for
// a class, creating it on first use; the controller never asks twice.
type Renderer interface {
	Acquire(class Class) Handle
	SetContent(h Handle, html string)
	Position(h Handle, target Element)
	Show(h Handle)
	Hide(h Handle)
	Detach(h Handle)
}

// Source is the part of the request coordinator the controller uses.
// *tipcache.Coordinator[api.Website] satisfies it.
type Source interface {
	Request(key string) (*tipcache.Call[api.Website], tipcache.Origin)
	Contains(key string) bool
	CancelAll()
}
