package cropper

import "strings"

// Edge is a bit mask describing which part of the crop rectangle a pointer
// is over. A drag on one or two edges resizes; Move translates.
type Edge uint8

// Hit-test results. Edge bits may be combined for corner drags.
const (
	EdgeLeft Edge = 1 << iota
	EdgeRight
	EdgeTop
	EdgeBottom
	Move

	EdgeNone Edge = 0
)

// Has reports whether every bit of o is set in e.
func (e Edge) Has(o Edge) bool {
	return o != 0 && e&o == o
}

func (e Edge) String() string {
	if e == EdgeNone {
		return "none"
	}
	var parts []string
	for _, n := range []struct {
		edge Edge
		name string
	}{
		{EdgeLeft, "left"},
		{EdgeRight, "right"},
		{EdgeTop, "top"},
		{EdgeBottom, "bottom"},
		{Move, "move"},
	} {
		if e&n.edge != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
