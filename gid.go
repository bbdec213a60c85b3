package tmximport

import (
	"fmt"
	"sort"
)

// GID flag bits (Tiled TMX format).
const (
	GIDFlipH    uint32 = 1 << 31 // horizontal flip
	GIDFlipV    uint32 = 1 << 30 // vertical flip
	GIDFlipD    uint32 = 1 << 29 // diagonal flip
	GIDFlagMask uint32 = GIDFlipH | GIDFlipV | GIDFlipD
)

// FlipFlags are the three flag bits of a GID shifted down:
// (flipH << 2) | (flipV << 1) | flipD.
type FlipFlags uint8

const (
	FlipDiagonal FlipFlags = 1 << iota
	FlipVertical
	FlipHorizontal
)

func (f FlipFlags) String() string {
	if f == 0 {
		return "none"
	}
	s := ""
	if f&FlipHorizontal != 0 {
		s += "H"
	}
	if f&FlipVertical != 0 {
		s += "V"
	}
	if f&FlipDiagonal != 0 {
		s += "D"
	}
	return s
}

// SplitGID clears the flag bits of raw and returns the clean GID and flags.
func SplitGID(raw uint32) (uint32, FlipFlags) {
	return raw &^ GIDFlagMask, FlipFlags(raw >> 29)
}

// AnimFrame describes a single frame in a tile animation sequence.
type AnimFrame struct {
	TileID   uint32 `json:"tileid"`   // tileset-local tile id
	Duration int    `json:"duration"` // milliseconds
}

// TileInfo is the metadata of one resolved tile.
type TileInfo struct {
	ID           uint32       `json:"id"`     // tileset-local id
	Sprite       int          `json:"sprite"` // index into the tileset's slices
	Rect         Rect         `json:"rect"`
	Pivot        Vec2         `json:"pivot"`
	Image        string       `json:"image"`
	Type         string       `json:"type,omitempty"`
	HasCollision bool         `json:"collision,omitempty"`
	Collision    *ObjectGroup `json:"-"`
	Animation    []AnimFrame  `json:"animation,omitempty"`
	Properties   Properties   `json:"properties,omitempty"`
	SpriteRef    SpriteRef    `json:"-"`
}

// ResolveStatus is the outcome of a GID lookup.
type ResolveStatus uint8

const (
	StatusEmpty      ResolveStatus = iota // GID 0
	StatusResolved                        // tile found
	StatusUnresolved                      // no owning tileset, no such tile, or failed tileset
)

func (s ResolveStatus) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusResolved:
		return "resolved"
	default:
		return "unresolved"
	}
}

// Resolved is a raw GID decomposed against a tile table.
type Resolved struct {
	Status    ResolveStatus
	Raw       uint32 // as stored in the payload
	GID       uint32 // flag bits cleared
	Local     uint32 // GID - firstgid
	Flags     FlipFlags
	Tileset   *ImportedTileset
	Tile      *TileInfo
	Transform Matrix // identity unless a flag is set
}

// TileTableEntry assigns a GID range to an imported tileset.
type TileTableEntry struct {
	FirstGID uint32
	Set      *ImportedTileset
}

// TileTable maps GIDs to tiles for one map. Entries are kept in ascending
// firstgid order. It is built once before any layer is decoded and read-only
// afterwards.
type TileTable struct {
	CellWidth  float64
	CellHeight float64
	entries    []TileTableEntry
}

// NewTileTable returns an empty table for a map with the given cell size.
func NewTileTable(cellW, cellH int) *TileTable {
	return &TileTable{CellWidth: float64(cellW), CellHeight: float64(cellH)}
}

// Add inserts a tileset range. An error is returned when the range overlaps a
// neighbour or repeats a firstgid; the entry is inserted regardless and the
// higher firstgid wins lookups in the overlap.
func (t *TileTable) Add(firstGID uint32, set *ImportedTileset) error {
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].FirstGID >= firstGID })
	t.entries = append(t.entries, TileTableEntry{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = TileTableEntry{FirstGID: firstGID, Set: set}

	if i+1 < len(t.entries) {
		next := t.entries[i+1]
		if next.FirstGID == firstGID {
			return fmt.Errorf("tmximport: duplicate firstgid %d", firstGID)
		}
		if end := uint64(firstGID) + uint64(set.Count()); end > uint64(next.FirstGID) {
			return fmt.Errorf("tmximport: tileset %q range %d..%d overlaps firstgid %d", set.Name(), firstGID, end-1, next.FirstGID)
		}
	}
	if i > 0 {
		prev := t.entries[i-1]
		if end := uint64(prev.FirstGID) + uint64(prev.Set.Count()); end > uint64(firstGID) {
			return fmt.Errorf("tmximport: tileset %q range %d..%d overlaps firstgid %d", prev.Set.Name(), prev.FirstGID, end-1, firstGID)
		}
	}
	return nil
}

// Entries returns the table in ascending firstgid order.
func (t *TileTable) Entries() []TileTableEntry {
	return t.entries
}

// owner scans from the highest firstgid down and returns the first entry
// whose firstgid is <= gid.
func (t *TileTable) owner(gid uint32) *TileTableEntry {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].FirstGID <= gid {
			return &t.entries[i]
		}
	}
	return nil
}

// Resolve decomposes raw into its tile and flip transform. Unresolved GIDs
// are reported through the status only.
func (t *TileTable) Resolve(raw uint32) Resolved {
	gid, flags := SplitGID(raw)
	r := Resolved{Raw: raw, GID: gid, Flags: flags, Transform: Identity}
	if gid == 0 {
		r.Status = StatusEmpty
		return r
	}
	r.Status = StatusUnresolved
	e := t.owner(gid)
	if e == nil {
		return r
	}
	r.Local = gid - e.FirstGID
	r.Tileset = e.Set
	info, ok := e.Set.Lookup(r.Local)
	if !ok {
		return r
	}
	r.Status = StatusResolved
	r.Tile = info
	if flags != 0 {
		r.Transform = AnchorCorrection(FlipTransform(flags), info.Rect, info.Pivot, t.CellWidth, t.CellHeight)
	}
	return r
}
