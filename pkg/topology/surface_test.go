package topology

import "testing"

func TestSurfaceGrow(t *testing.T) {
	s := NewSurface(800, 400, 1)
	s.Grow(600)
	if s.Width() != 800 {
		t.Errorf("Grow(600) shrank width to %v", s.Width())
	}
	s.Grow(1200)
	if s.Width() != 1200 || !s.Expanded() {
		t.Errorf("Grow(1200): width=%v expanded=%v", s.Width(), s.Expanded())
	}
}

func TestSurfaceResize(t *testing.T) {
	tests := []struct {
		name      string
		grow      float64
		newWidth  float64
		wantWidth float64
	}{
		{"plain_shrinks", 0, 600, 600},
		{"plain_widens", 0, 1000, 1000},
		{"expanded_kept", 1300, 1000, 1300},
		{"expanded_overtaken", 1300, 1500, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSurface(800, 400, 1)
			s.Grow(tt.grow)
			s.Resize(tt.newWidth, 300)
			if s.Width() != tt.wantWidth {
				t.Errorf("width = %v, want %v", s.Width(), tt.wantWidth)
			}
			if s.Height() != 300 {
				t.Errorf("height = %v, want 300", s.Height())
			}
		})
	}
}

func TestSurfacePixelSize(t *testing.T) {
	s := NewSurface(800, 400, 2)
	if w, h := s.PixelSize(); w != 1600 || h != 800 {
		t.Errorf("PixelSize() = %dx%d, want 1600x800", w, h)
	}

	s.SetDPR(0.5)
	if s.DPR() != 1 {
		t.Errorf("DPR() = %v, want 1 after clamping", s.DPR())
	}

	s.SetDPR(1.5)
	if w, h := s.PixelSize(); w != 1200 || h != 600 {
		t.Errorf("PixelSize() = %dx%d, want 1200x600", w, h)
	}
}

func TestLayoutRespondsToHeight(t *testing.T) {
	s := NewSurface(800, 400, 1)
	hops := makeHops(3)
	before := Layout(hops, s)

	s.Resize(800, 600)
	after := Layout(hops, s)

	if after.Nodes[0].Y != 300 || before.Nodes[0].Y != 200 {
		t.Errorf("self y before/after = %v/%v, want 200/300", before.Nodes[0].Y, after.Nodes[0].Y)
	}
}
