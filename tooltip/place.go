package tooltip

const (
	itemGap      = 5
	buttonGap    = 10
	viewportEdge = 10
)

// Rect is a viewport-relative box, as returned by a bounding client rect.
type Rect struct {
	Left, Top, Width, Height float64
}

func (r Rect) Right() float64  { return r.Left + r.Width }
func (r Rect) Bottom() float64 { return r.Top + r.Height }

type Size struct {
	Width, Height float64
}

// Viewport is the visible window and its scroll offset.
type Viewport struct {
	Width, Height    float64
	ScrollX, ScrollY float64
}

// Point is a document position for the tooltip's top-left corner.
type Point struct {
	Left, Top float64
}

// Place computes where a tooltip of size tip goes next to target.
//
// Item tooltips sit below the target and flip above when they would cross
// the bottom edge; they are pulled left when crossing the right edge.
// Button tooltips sit left of the button, vertically centred, and move to
// its right when there is no room on the left.
func Place(class Class, target Rect, tip Size, view Viewport) Point {
	if class == ClassButton {
		return placeButton(target, tip, view)
	}

	left := target.Left + view.ScrollX
	top := target.Bottom() + view.ScrollY + itemGap

	if top+tip.Height > view.Height {
		top = target.Top + view.ScrollY - tip.Height - itemGap
	}
	if left+tip.Width > view.Width {
		left = view.Width - tip.Width - viewportEdge
	}
	return Point{Left: left, Top: top}
}

func placeButton(target Rect, tip Size, view Viewport) Point {
	left := target.Left - tip.Width - buttonGap
	top := target.Top + (target.Height-tip.Height)/2 + view.ScrollY

	if left < 0 {
		left = target.Right() + buttonGap
	}
	switch {
	case top < 0:
		top = target.Top + view.ScrollY
	case top+tip.Height > view.Height:
		top = target.Bottom() - tip.Height + view.ScrollY - buttonGap
	}
	return Point{Left: left, Top: top}
}
