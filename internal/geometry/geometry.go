// Package geometry holds the pure canvas math behind drag, drop and resize
// gestures: grid snapping, clamping and resize-handle mapping.
package geometry

import (
	"math"

	"pagebuilder/internal/domain"
)

// DefaultGridSize is the snap unit of the canvas.
const DefaultGridSize = 20.0

// Snap rounds v to the nearest multiple of grid. A non-positive grid
// disables snapping.
func Snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

// Clamp limits v to [lo, hi]. When hi < lo the lower bound wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// ClampSize bounds s by the element constraints. A zero max is unbounded.
func ClampSize(s domain.Size, c domain.Constraints) domain.Size {
	maxW, maxH := c.MaxWidth, c.MaxHeight
	if maxW <= 0 {
		maxW = math.Inf(1)
	}
	if maxH <= 0 {
		maxH = math.Inf(1)
	}
	return domain.Size{
		Width:  Clamp(s.Width, c.MinWidth, maxW),
		Height: Clamp(s.Height, c.MinHeight, maxH),
	}
}

// DropPosition maps a pointer position on a zoomed canvas (zoom in percent,
// 100 = 1:1) to a snapped, non-negative canvas coordinate.
func DropPosition(pointer domain.Position, zoom, grid float64) domain.Position {
	scale := 1.0
	if zoom > 0 {
		scale = zoom / 100
	}
	return domain.Position{
		X: math.Max(0, Snap(pointer.X/scale, grid)),
		Y: math.Max(0, Snap(pointer.Y/scale, grid)),
	}
}

// ── Drag ───────────────────────────────────────────────────

// Drag captures the pointer offset inside an element at gesture start.
type Drag struct {
	Offset domain.Position
}

// StartDrag records offset = pointer - element position.
func StartDrag(pointer, elementPos domain.Position) Drag {
	return Drag{Offset: domain.Position{X: pointer.X - elementPos.X, Y: pointer.Y - elementPos.Y}}
}

// Move computes the element position for the current pointer: subtract the
// offset, snap each axis to grid, then clamp into [0, canvas - element].
func (d Drag) Move(pointer domain.Position, element, canvas domain.Size, grid float64) domain.Position {
	x := Snap(pointer.X-d.Offset.X, grid)
	y := Snap(pointer.Y-d.Offset.Y, grid)
	return domain.Position{
		X: Clamp(x, 0, canvas.Width-element.Width),
		Y: Clamp(y, 0, canvas.Height-element.Height),
	}
}
