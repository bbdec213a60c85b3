package tmximport

// Base matrices for tile flags, in grid space (Y up).
var (
	rot90Matrix = Matrix{0, 1, -1, 0, 0, 0}
	flipHMatrix = Matrix{-1, 0, 0, 1, 0, 0}
	flipVMatrix = Matrix{1, 0, 0, -1, 0, 0}
)

// FlipTransform composes the tile transform for flags. Each step premultiplies
// the accumulated matrix, in fixed order: diagonal (90° rotation then vertical
// flip), then horizontal, then vertical.
func FlipTransform(flags FlipFlags) Matrix {
	m := Identity
	if flags&FlipDiagonal != 0 {
		m = rot90Matrix.Multiply(m)
		m = flipVMatrix.Multiply(m)
	}
	if flags&FlipHorizontal != 0 {
		m = flipHMatrix.Multiply(m)
	}
	if flags&FlipVertical != 0 {
		m = flipVMatrix.Multiply(m)
	}
	return m
}

// AnchorCorrection sets the translation of m so that flipping or rotating a
// tile about its pivot leaves the tile's footprint in its own cell. rect is
// the tile's source rectangle, pivot its normalized pivot and cellW/cellH the
// map's cell size, all in pixels. The result is in cell units.
//
// The tile center sits at c = ((0.5-px)*w/cellW, (0.5-py)*h/cellH) from the
// pivot. Rotating about the pivot moves it to M*c, so translating by c - M*c
// makes the rotation happen about the center instead.
func AnchorCorrection(m Matrix, rect Rect, pivot Vec2, cellW, cellH float64) Matrix {
	if cellW <= 0 || cellH <= 0 {
		return m
	}
	cx := (0.5 - pivot.X) * rect.Width / cellW
	cy := (0.5 - pivot.Y) * rect.Height / cellH
	mx, my := m.ApplyVector(cx, cy)
	m[4] = cx - mx
	m[5] = cy - my
	return m
}
