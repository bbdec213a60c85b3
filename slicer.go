package tmximport

import "fmt"

// Slice is one tile's region in its source image.
type Slice struct {
	ID    uint32 // tileset-local id
	Image string // resolved image path
	Rect  Rect   // top-left origin, pixels
	Pivot Vec2   // normalized, Y up from the rect's bottom edge
}

// Measure reports the size of a tileset or tile image.
type Measure func(img *Image) (ImageInfo, error)

// TileCount returns how many tiles of tileW×tileH fit in an image, solving
// imageW = 2*margin + tileW*n + spacing*(n-1) for n on each axis.
func TileCount(imageW, imageH, tileW, tileH, spacing, margin int) (across, down int) {
	if tileW <= 0 || tileH <= 0 {
		return 0, 0
	}
	across = (imageW + spacing - 2*margin) / (spacing + tileW)
	down = (imageH + spacing - 2*margin) / (spacing + tileH)
	if across < 0 {
		across = 0
	}
	if down < 0 {
		down = 0
	}
	return across, down
}

// TilePivot returns the normalized pivot that centers a tileW×tileH sprite
// on a cellW×cellH cell, shifted by the tileset's tile offset. The result is
// not clamped: large offsets place the pivot outside the sprite.
func TilePivot(cellW, cellH, tileW, tileH int, offset TileOffset) Vec2 {
	tw, th := float64(tileW), float64(tileH)
	return Vec2{
		X: float64(cellW)/(2*tw) - float64(offset.X)/tw,
		Y: float64(cellH)/(2*th) + float64(offset.Y)/th,
	}
}

// SliceTileset computes every tile's source rectangle and pivot. dir is the
// tileset document path that image sources are relative to; cellW/cellH is
// the map's cell size. Size disagreements between the document and the
// measured image are returned as warnings and the measured values win. An
// error means no image could be measured and the tileset is unusable.
func SliceTileset(ts *Tileset, dir string, cellW, cellH int, measure Measure) ([]Slice, []Diagnostic, error) {
	if ts.IsImageCollection() {
		return sliceCollection(ts, dir, cellW, cellH, measure)
	}

	var diags []Diagnostic
	info, err := measure(ts.Image)
	if err != nil {
		return nil, nil, fmt.Errorf("image %s: %w", ts.Image.Source, err)
	}
	if w, ok := ts.Image.Width.Get(); ok && w != info.Width {
		diags = append(diags, warnf(CodeTilesetMismatch, "tileset %q: declared image width %d, measured %d", ts.Name, w, info.Width))
	}
	if h, ok := ts.Image.Height.Get(); ok && h != info.Height {
		diags = append(diags, warnf(CodeTilesetMismatch, "tileset %q: declared image height %d, measured %d", ts.Name, h, info.Height))
	}

	across, down := TileCount(info.Width, info.Height, ts.TileWidth, ts.TileHeight, ts.Spacing, ts.Margin)
	computed := across * down
	count := computed
	switch {
	case ts.TileCount > computed:
		diags = append(diags, warnf(CodeTilesetMismatch, "tileset %q: declared %d tiles, image holds %d", ts.Name, ts.TileCount, computed))
	case ts.TileCount > 0:
		count = ts.TileCount
	}
	if ts.Columns > 0 && ts.Columns != across {
		diags = append(diags, warnf(CodeTilesetMismatch, "tileset %q: declared %d columns, image holds %d", ts.Name, ts.Columns, across))
	}

	src := ResolvePath(dir, ts.Image.Source)
	pivot := TilePivot(cellW, cellH, ts.TileWidth, ts.TileHeight, ts.TileOffset)
	slices := make([]Slice, count)
	for i := range slices {
		col, row := i%across, i/across
		slices[i] = Slice{
			ID:    uint32(i),
			Image: src,
			Rect: Rect{
				X:      float64(ts.Margin + col*(ts.TileWidth+ts.Spacing)),
				Y:      float64(ts.Margin + row*(ts.TileHeight+ts.Spacing)),
				Width:  float64(ts.TileWidth),
				Height: float64(ts.TileHeight),
			},
			Pivot: pivot,
		}
	}
	return slices, diags, nil
}

// sliceCollection slices a tileset whose tiles each bring their own image.
// Slices follow the order of the tile entries.
func sliceCollection(ts *Tileset, dir string, cellW, cellH int, measure Measure) ([]Slice, []Diagnostic, error) {
	var diags []Diagnostic
	slices := make([]Slice, 0, len(ts.Tiles))
	for i := range ts.Tiles {
		t := &ts.Tiles[i]
		if t.Image == nil || t.Image.Source == "" {
			continue
		}
		info, err := measure(t.Image)
		if err != nil {
			return nil, nil, fmt.Errorf("tile %d image %s: %w", t.ID, t.Image.Source, err)
		}
		if w, ok := t.Image.Width.Get(); ok && w != info.Width {
			diags = append(diags, warnf(CodeTilesetMismatch, "tileset %q tile %d: declared image width %d, measured %d", ts.Name, t.ID, w, info.Width))
		}
		if h, ok := t.Image.Height.Get(); ok && h != info.Height {
			diags = append(diags, warnf(CodeTilesetMismatch, "tileset %q tile %d: declared image height %d, measured %d", ts.Name, t.ID, h, info.Height))
		}
		if info.Width <= 0 || info.Height <= 0 {
			diags = append(diags, warnf(CodeTilesetMismatch, "tileset %q tile %d: empty image", ts.Name, t.ID))
			continue
		}
		slices = append(slices, Slice{
			ID:    t.ID,
			Image: ResolvePath(dir, t.Image.Source),
			Rect:  Rect{Width: float64(info.Width), Height: float64(info.Height)},
			Pivot: TilePivot(cellW, cellH, info.Width, info.Height, ts.TileOffset),
		})
	}
	return slices, diags, nil
}

// ImportedTileset is a tileset after slicing and sprite registration. A
// tileset whose import failed keeps Err set and resolves nothing.
type ImportedTileset struct {
	Source  string // resolved .tsx path, empty when embedded
	Tileset *Tileset
	Slices  []Slice
	Tiles   []TileInfo // parallel to Slices
	Err     error

	byID map[uint32]int // collection tilesets: tile id -> slice index
}

// Name returns the tileset name.
func (s *ImportedTileset) Name() string {
	if s.Tileset == nil {
		return s.Source
	}
	return s.Tileset.Name
}

// IsCollection reports whether tiles are looked up by declared id.
func (s *ImportedTileset) IsCollection() bool {
	return s.Tileset != nil && s.Tileset.IsImageCollection()
}

// Count returns the number of GIDs the tileset spans.
func (s *ImportedTileset) Count() int {
	if s.Tileset == nil {
		return 0
	}
	if !s.IsCollection() {
		if len(s.Slices) > 0 {
			return len(s.Slices)
		}
		return s.Tileset.TileCount
	}
	n := s.Tileset.TileCount
	for _, t := range s.Tileset.Tiles {
		if int(t.ID)+1 > n {
			n = int(t.ID) + 1
		}
	}
	return n
}

// Lookup returns the tile with the given local index.
func (s *ImportedTileset) Lookup(local uint32) (*TileInfo, bool) {
	if s.Err != nil {
		return nil, false
	}
	if s.IsCollection() {
		i, ok := s.byID[local]
		if !ok {
			return nil, false
		}
		return &s.Tiles[i], true
	}
	if int64(local) >= int64(len(s.Tiles)) {
		return nil, false
	}
	return &s.Tiles[local], true
}

// newImportedTileset builds tile metadata for slices. Per-tile entries are
// matched by id; the first entry with a given id wins.
func newImportedTileset(source string, ts *Tileset, slices []Slice) *ImportedTileset {
	set := &ImportedTileset{
		Source:  source,
		Tileset: ts,
		Slices:  slices,
		Tiles:   make([]TileInfo, len(slices)),
		byID:    make(map[uint32]int),
	}
	meta := make(map[uint32]*Tile, len(ts.Tiles))
	for i := range ts.Tiles {
		if _, dup := meta[ts.Tiles[i].ID]; !dup {
			meta[ts.Tiles[i].ID] = &ts.Tiles[i]
		}
	}
	for i, sl := range slices {
		info := TileInfo{
			ID:     sl.ID,
			Sprite: i,
			Rect:   sl.Rect,
			Pivot:  sl.Pivot,
			Image:  sl.Image,
		}
		if t, ok := meta[sl.ID]; ok {
			info.Type = t.Type
			if info.Type == "" {
				info.Type = t.Class
			}
			info.Properties = t.Properties
			if t.ObjectGroup != nil && len(t.ObjectGroup.Objects) > 0 {
				info.HasCollision = true
				info.Collision = t.ObjectGroup
			}
			for _, f := range t.Animation {
				info.Animation = append(info.Animation, AnimFrame{TileID: f.TileID, Duration: f.Duration})
			}
		}
		set.Tiles[i] = info
		if _, dup := set.byID[sl.ID]; !dup {
			set.byID[sl.ID] = i
		}
	}
	return set
}

// failedTileset stands in for a tileset that could not be imported so its GID
// range still resolves, as unresolved.
func failedTileset(source string, ts *Tileset, err error) *ImportedTileset {
	return &ImportedTileset{Source: source, Tileset: ts, Err: err}
}
