package visibility

// Default trigger configuration: a section counts as in view once half of it
// sits inside the viewport shrunk by 100px at the top and bottom.
const (
	DefaultThreshold = 0.5
	DefaultMargin    = -100.0
)

// Rect is the vertical extent of an element in page coordinates (pixels).
type Rect struct {
	Top    float64
	Height float64
}

// Bottom returns the element's lower edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Viewport is the visible window onto the page.
type Viewport struct {
	Top    float64
	Height float64
}

// Options configures the visibility predicate.
type Options struct {
	// Threshold is the fraction of the element that must be inside the root.
	Threshold float64
	// Margin grows (positive) or shrinks (negative) the root at its top and
	// bottom edges.
	Margin float64
}

// DefaultOptions returns the standard threshold and margin.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, Margin: DefaultMargin}
}

// Ratio returns the fraction of r that lies inside the margin-adjusted viewport.
func (o Options) Ratio(r Rect, vp Viewport) float64 {
	rootTop := vp.Top - o.Margin
	rootBottom := vp.Top + vp.Height + o.Margin
	if rootBottom <= rootTop {
		return 0
	}

	if r.Height <= 0 {
		if r.Top >= rootTop && r.Top <= rootBottom {
			return 1
		}
		return 0
	}

	top := max(r.Top, rootTop)
	bottom := min(r.Bottom(), rootBottom)
	if bottom <= top {
		return 0
	}
	return (bottom - top) / r.Height
}

// Visible reports whether r satisfies the predicate within vp.
func (o Options) Visible(r Rect, vp Viewport) bool {
	ratio := o.Ratio(r, vp)
	return ratio > 0 && ratio >= o.Threshold
}
