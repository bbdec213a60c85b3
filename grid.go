package tmximport

import "encoding/json"

// GridLayout is the destination grid's cell shape.
type GridLayout uint8

const (
	LayoutRectangle GridLayout = iota
	LayoutIsometric
	LayoutHexagon
)

func (l GridLayout) String() string {
	switch l {
	case LayoutIsometric:
		return "isometric"
	case LayoutHexagon:
		return "hexagon"
	default:
		return "rectangle"
	}
}

// MarshalJSON encodes the layout by name.
func (l GridLayout) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// GridSwizzle is the destination grid's axis order.
type GridSwizzle uint8

const (
	SwizzleXYZ GridSwizzle = iota
	SwizzleYXZ             // column and row axes swapped
)

func (s GridSwizzle) String() string {
	if s == SwizzleYXZ {
		return "YXZ"
	}
	return "XYZ"
}

// MarshalJSON encodes the swizzle by name.
func (s GridSwizzle) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// isoPivotOffset shifts isometric objects up by a quarter cell so they line up
// with a destination grid that pivots iso cells at their center.
const isoPivotOffset = 0.25

// Grid is the destination grid configuration derived once from a map. Cell
// and ObjectPosition are total for every configuration GridFor produces.
type Grid struct {
	Orientation  Orientation  `json:"orientation"`
	StaggerAxis  StaggerAxis  `json:"staggeraxis"`
	StaggerIndex StaggerIndex `json:"staggerindex"`
	Layout       GridLayout   `json:"layout"`
	Swizzle      GridSwizzle  `json:"swizzle"`
	CellWidth    int          `json:"cellwidth"`
	CellHeight   int          `json:"cellheight"`
}

// GridFor configures the destination grid for m. The map must have passed
// Validate.
func GridFor(m *Map) Grid {
	tw, th := m.CellSize()
	g := Grid{
		Orientation:  m.Orientation.Or(OrientationOrthogonal),
		StaggerAxis:  m.StaggerAxis,
		StaggerIndex: m.StaggerIndex,
		CellWidth:    tw,
		CellHeight:   th,
	}
	switch g.Orientation {
	case OrientationIsometric:
		g.Layout = LayoutIsometric
	case OrientationStaggered:
		g.Layout = LayoutIsometric
	case OrientationHexagonal:
		g.Layout = LayoutHexagon
	}
	if g.Orientation == OrientationStaggered || g.Orientation == OrientationHexagonal {
		if g.StaggerAxis == StaggerAxisNone {
			g.StaggerAxis = StaggerAxisY
		}
		if g.StaggerAxis == StaggerAxisX {
			g.Swizzle = SwizzleYXZ
		}
	}
	return g
}

// staggerParity is 0 for even staggering and 1 for odd.
func (g Grid) staggerParity() int {
	if g.StaggerIndex == StaggerEven {
		return 0
	}
	return 1
}

// Cell converts a tile coordinate to a destination cell. originX/originY is
// the chunk origin (zero for finite layers) and x/y the chunk-local column
// and row, with rows increasing downward.
func (g Grid) Cell(originX, originY, x, y int) (col, row int) {
	x += originX
	y += originY
	switch g.Orientation {
	case OrientationIsometric:
		oc, or := x, -(y + 1)
		return or, -(oc + 1)

	case OrientationStaggered, OrientationHexagonal:
		if g.StaggerAxis == StaggerAxisX {
			return x, y
		}
		half := floorDiv(y, 2)
		col = x - half
		row = -half - x
		if floorMod(y, 2) == g.staggerParity() {
			col++
		}
		return col, row

	default:
		return x, -(y + 1)
	}
}

// ObjectPosition converts an object's pixel position to destination space in
// cell units. Isometric positions are remapped to u = tx-ty, v = -(tx+ty) at
// half a cell per unit.
func (g Grid) ObjectPosition(px, py float64) Vec2 {
	tx, ty := px/float64(g.CellWidth), -py/float64(g.CellHeight)
	if g.Orientation == OrientationIsometric {
		u := tx - ty
		v := -(tx + ty)
		return Vec2{X: u * 0.5, Y: v*0.5 + isoPivotOffset}
	}
	return Vec2{X: tx, Y: ty}
}

// PixelOffset converts a layer's pixel offset to cell units, Y up.
func (g Grid) PixelOffset(ox, oy float64) Vec2 {
	return Vec2{X: ox / float64(g.CellWidth), Y: -oy / float64(g.CellHeight)}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}
