package mcpserver

import (
	"pagebuilder/internal/domain"
	"pagebuilder/internal/geometry"
)

// Padding keeps one grid cell between auto-placed elements.
const Padding = geometry.DefaultGridSize

// LayoutEngine places elements created by agents so they don't overlap the
// existing roots of a page.
type LayoutEngine struct {
	gridSize float64
	padding  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: geometry.DefaultGridSize,
		padding:  Padding,
	}
}

// rect is a simple axis-aligned bounding box.
type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

// NextPosition finds the first free grid position, scanning rows top to
// bottom, for an element of the given size on a canvas of width canvasW.
func (le *LayoutEngine) NextPosition(existing []*domain.Element, size domain.Size, canvasW float64) domain.Position {
	if len(existing) == 0 {
		return domain.Position{}
	}

	occupied := make([]rect, len(existing))
	maxY := 0.0
	for i, el := range existing {
		occupied[i] = rect{
			x: el.Position.X - le.padding,
			y: el.Position.Y - le.padding,
			w: el.Size.Width + le.padding*2,
			h: el.Size.Height + le.padding*2,
		}
		maxY = max(maxY, el.Position.Y+el.Size.Height)
	}

	candidate := rect{w: size.Width, h: size.Height}
	for y := 0.0; y <= maxY; y += le.gridSize {
		for x := 0.0; x+size.Width <= canvasW; x += le.gridSize {
			candidate.x, candidate.y = x, y
			free := true
			for _, occ := range occupied {
				if candidate.intersects(occ) {
					free = false
					break
				}
			}
			if free {
				return domain.Position{X: x, Y: y}
			}
		}
	}

	// place below everything
	return domain.Position{X: 0, Y: geometry.Snap(maxY+le.padding, le.gridSize)}
}
