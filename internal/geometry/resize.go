package geometry

import (
	"fmt"

	"pagebuilder/internal/domain"
)

// Handle identifies one of the eight resize grips of an element.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

// axes says which size deltas a handle applies: +1 grows with the pointer
// delta, -1 shrinks with it, 0 ignores that axis.
type axes struct{ w, h float64 }

var handleAxes = map[Handle]axes{
	HandleN:  {0, -1},
	HandleS:  {0, 1},
	HandleE:  {1, 0},
	HandleW:  {-1, 0},
	HandleNE: {1, -1},
	HandleNW: {-1, -1},
	HandleSE: {1, 1},
	HandleSW: {-1, 1},
}

// ParseHandle validates a handle name.
func ParseHandle(s string) (Handle, error) {
	h := Handle(s)
	if _, ok := handleAxes[h]; !ok {
		return "", fmt.Errorf("unknown resize handle %q", s)
	}
	return h, nil
}

// Resize applies the pointer delta (dx, dy) measured from gesture start to
// the starting size through handle h, then clamps to the constraints.
func Resize(h Handle, start domain.Size, dx, dy float64, c domain.Constraints) domain.Size {
	a := handleAxes[h]
	return ClampSize(domain.Size{
		Width:  start.Width + a.w*dx,
		Height: start.Height + a.h*dy,
	}, c)
}
