// Package ebitenatlas is a tmximport.AssetImporter backed by [Ebitengine]
// images. Each distinct tileset image becomes an atlas page; every sliced tile
// is a named region of its page.
//
// [Ebitengine]: https://ebitengine.org
package ebitenatlas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"path"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/tmximport"
)

// TextureRegion describes a sub-rectangle within an atlas page.
type TextureRegion struct {
	Page          uint16  // atlas page index
	X, Y          uint16  // top-left corner of the tile within the page
	Width, Height uint16  // tile size
	PivotX        float64 // normalized, from tmximport slicing
	PivotY        float64
}

// Atlas registers tileset images as ebiten pages and tiles as regions.
// It is not safe for concurrent use; tmximport serializes its calls.
type Atlas struct {
	reader    tmximport.FileReader
	pages     []*ebiten.Image
	pageNames []string
	pageIndex map[string]int
	regions   map[string]TextureRegion
	sprites   []string // region names by sprite index
}

// NewImporter returns an empty atlas that loads images through reader.
func NewImporter(reader tmximport.FileReader) *Atlas {
	return &Atlas{
		reader:    reader,
		pageIndex: make(map[string]int),
		regions:   make(map[string]TextureRegion),
	}
}

// ImageInfo implements tmximport.AssetImporter. Only the image header is
// decoded.
func (a *Atlas) ImageInfo(p string) (tmximport.ImageInfo, error) {
	if i, ok := a.pageIndex[p]; ok {
		b := a.pages[i].Bounds()
		return tmximport.ImageInfo{Width: b.Dx(), Height: b.Dy()}, nil
	}
	data, err := a.reader.ReadFile(p)
	if err != nil {
		return tmximport.ImageInfo{}, err
	}
	return tmximport.MeasureImage(data)
}

// SliceSprite implements tmximport.AssetImporter. The image is loaded as a
// page the first time one of its tiles is sliced.
func (a *Atlas) SliceSprite(req tmximport.SpriteRequest) (tmximport.SpriteRef, error) {
	page, err := a.page(req.Image)
	if err != nil {
		return tmximport.SpriteRef{}, err
	}
	b := a.pages[page].Bounds()
	r := image.Rect(int(req.Rect.X), int(req.Rect.Y), int(req.Rect.X+req.Rect.Width), int(req.Rect.Y+req.Rect.Height))
	if !r.In(b) {
		return tmximport.SpriteRef{}, fmt.Errorf("ebitenatlas: tile %d rect %v outside image %s %v", req.TileID, r, req.Image, b)
	}
	name := regionName(req.Tileset, req.TileID)
	a.regions[name] = TextureRegion{
		Page:   uint16(page),
		X:      uint16(r.Min.X),
		Y:      uint16(r.Min.Y),
		Width:  uint16(r.Dx()),
		Height: uint16(r.Dy()),
		PivotX: req.Pivot.X,
		PivotY: req.Pivot.Y,
	}
	a.sprites = append(a.sprites, name)
	return tmximport.SpriteRef{Page: page, Index: len(a.sprites) - 1, Name: name}, nil
}

func (a *Atlas) page(p string) (int, error) {
	if i, ok := a.pageIndex[p]; ok {
		return i, nil
	}
	data, err := a.reader.ReadFile(p)
	if err != nil {
		return 0, fmt.Errorf("ebitenatlas: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("ebitenatlas: decode %s: %w", p, err)
	}
	a.pages = append(a.pages, ebiten.NewImageFromImage(img))
	a.pageNames = append(a.pageNames, p)
	i := len(a.pages) - 1
	a.pageIndex[p] = i
	return i, nil
}

func regionName(tileset string, id uint32) string {
	return fmt.Sprintf("%s/%d", tileset, id)
}

// Region returns the region registered for a tileset tile.
func (a *Atlas) Region(tileset string, id uint32) (TextureRegion, bool) {
	r, ok := a.regions[regionName(tileset, id)]
	return r, ok
}

// Sprite returns the sub-image for a sprite reference, or nil if the
// reference did not come from this atlas.
func (a *Atlas) Sprite(ref tmximport.SpriteRef) *ebiten.Image {
	if ref.Index < 0 || ref.Index >= len(a.sprites) {
		return nil
	}
	r := a.regions[a.sprites[ref.Index]]
	page := a.pages[r.Page]
	rect := image.Rect(int(r.X), int(r.Y), int(r.X)+int(r.Width), int(r.Y)+int(r.Height))
	return page.SubImage(rect).(*ebiten.Image)
}

// Pages returns the loaded page images in load order.
func (a *Atlas) Pages() []*ebiten.Image {
	return a.pages
}

// Len returns the number of registered regions.
func (a *Atlas) Len() int {
	return len(a.sprites)
}

// --- TexturePacker export ---

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type jsonFrame struct {
	Frame            jsonRect  `json:"frame"`
	Rotated          bool      `json:"rotated"`
	Trimmed          bool      `json:"trimmed"`
	SpriteSourceSize jsonRect  `json:"spriteSourceSize"`
	SourceSize       jsonSize  `json:"sourceSize"`
	Pivot            jsonPoint `json:"pivot"`
}

type jsonTexturePage struct {
	Image  string               `json:"image"`
	Frames map[string]jsonFrame `json:"frames"`
}

// MarshalJSON writes the atlas in TexturePacker's multi-page array format
// ({"textures": [{"image", "frames"}...]}), one page per tileset image.
func (a *Atlas) MarshalJSON() ([]byte, error) {
	textures := make([]jsonTexturePage, len(a.pages))
	for i, name := range a.pageNames {
		textures[i] = jsonTexturePage{Image: path.Base(name), Frames: make(map[string]jsonFrame)}
	}
	names := make([]string, 0, len(a.regions))
	for name := range a.regions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := a.regions[name]
		w, h := int(r.Width), int(r.Height)
		textures[r.Page].Frames[name] = jsonFrame{
			Frame:            jsonRect{X: int(r.X), Y: int(r.Y), W: w, H: h},
			SpriteSourceSize: jsonRect{W: w, H: h},
			SourceSize:       jsonSize{W: w, H: h},
			Pivot:            jsonPoint{X: r.PivotX, Y: r.PivotY},
		}
	}
	return json.Marshal(struct {
		Textures []jsonTexturePage `json:"textures"`
	}{textures})
}
