package topology

// Surface is the drawing area a layout is computed for. Its logical width
// can grow to fit a long route but never shrinks below what it has been
// grown to, even when the viewport is resized smaller.
type Surface struct {
	width    float64
	height   float64
	viewport float64 // last viewport width reported by the host
	dpr      float64
}

// NewSurface returns a surface matching a viewport of the given logical size.
// A device pixel ratio below 1 is treated as 1.
func NewSurface(width, height, dpr float64) *Surface {
	if dpr < 1 {
		dpr = 1
	}
	return &Surface{width: width, height: height, viewport: width, dpr: dpr}
}

// Width returns the logical drawing width.
func (s *Surface) Width() float64 { return s.width }

// Height returns the logical drawing height.
func (s *Surface) Height() float64 { return s.height }

// DPR returns the device pixel ratio.
func (s *Surface) DPR() float64 { return s.dpr }

// Expanded reports whether the surface is wider than the viewport.
func (s *Surface) Expanded() bool { return s.width > s.viewport }

// Grow widens the surface to w. Smaller values are ignored.
func (s *Surface) Grow(w float64) {
	if w > s.width {
		s.width = w
	}
}

// Resize applies a new viewport size. An expanded width larger than the new
// viewport width is retained.
func (s *Surface) Resize(width, height float64) {
	keep := s.Expanded() && s.width > width
	s.viewport = width
	s.height = height
	if !keep {
		s.width = width
	}
}

// SetDPR updates the device pixel ratio.
func (s *Surface) SetDPR(dpr float64) {
	if dpr < 1 {
		dpr = 1
	}
	s.dpr = dpr
}

// PixelSize returns the backing-store size in device pixels.
func (s *Surface) PixelSize() (w, h int) {
	return int(s.width*s.dpr + 0.5), int(s.height*s.dpr + 0.5)
}
