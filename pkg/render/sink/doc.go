// Package sink renders animation frames.
//
// [RenderSVG] draws a frame the way a browser canvas host would: grey edges,
// coloured node discs with white outlines, labels above or below each node
// depending on which side of the centre line it sits, and packets with a
// radial glow. [RenderJSON] exports the same data for hosts that draw on
// their own. [RenderPNG] and [RenderPDF] convert the SVG with rsvg-convert,
// and [RenderTerminal] rasterises a frame into coloured character cells.
//
//	f := session.Tick(now)
//	svg := sink.RenderSVG(f, sink.WithBackground("#f7fafc"))
package sink
