package ebitenatlas

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/phanxgames/tmximport"
)

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestAtlas(t *testing.T) *Atlas {
	t.Helper()
	files := fstest.MapFS{
		"img/terrain.png": {Data: pngData(t, 64, 32)},
		"img/tree.png":    {Data: pngData(t, 16, 48)},
	}
	return NewImporter(tmximport.FSReader{FS: files})
}

func request(tileset string, id uint32, img string, x, y, w, h float64) tmximport.SpriteRequest {
	return tmximport.SpriteRequest{
		Tileset: tileset,
		TileID:  id,
		Image:   img,
		Rect:    tmximport.Rect{X: x, Y: y, Width: w, Height: h},
		Pivot:   tmximport.Vec2{X: 0.5, Y: 0.5},
	}
}

func TestImageInfo(t *testing.T) {
	a := newTestAtlas(t)
	info, err := a.ImageInfo("img/terrain.png")
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 64 || info.Height != 32 {
		t.Errorf("info = %+v", info)
	}
	if _, err := a.ImageInfo("img/none.png"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing: err = %v", err)
	}
	if len(a.Pages()) != 0 {
		t.Error("ImageInfo loaded a page")
	}
}

func TestSliceSprite(t *testing.T) {
	a := newTestAtlas(t)
	ref0, err := a.SliceSprite(request("terrain", 0, "img/terrain.png", 0, 0, 32, 32))
	if err != nil {
		t.Fatal(err)
	}
	ref1, err := a.SliceSprite(request("terrain", 1, "img/terrain.png", 32, 0, 32, 32))
	if err != nil {
		t.Fatal(err)
	}
	tree, err := a.SliceSprite(request("props", 7, "img/tree.png", 0, 0, 16, 48))
	if err != nil {
		t.Fatal(err)
	}

	if ref0.Index != 0 || ref1.Index != 1 || tree.Index != 2 {
		t.Errorf("indices = %d,%d,%d", ref0.Index, ref1.Index, tree.Index)
	}
	if ref0.Page != 0 || ref1.Page != 0 || tree.Page != 1 {
		t.Errorf("pages = %d,%d,%d", ref0.Page, ref1.Page, tree.Page)
	}
	if ref1.Name != "terrain/1" || tree.Name != "props/7" {
		t.Errorf("names = %q, %q", ref1.Name, tree.Name)
	}
	if a.Len() != 3 || len(a.Pages()) != 2 {
		t.Errorf("Len = %d, pages = %d", a.Len(), len(a.Pages()))
	}

	r, ok := a.Region("terrain", 1)
	if !ok {
		t.Fatal("region terrain/1 missing")
	}
	if r.Page != 0 || r.X != 32 || r.Y != 0 || r.Width != 32 || r.Height != 32 || r.PivotX != 0.5 {
		t.Errorf("region = %+v", r)
	}
	if _, ok := a.Region("terrain", 9); ok {
		t.Error("unregistered region found")
	}

	if img := a.Sprite(ref1); img == nil || img.Bounds() != image.Rect(32, 0, 64, 32) {
		t.Errorf("sprite bounds = %v", img)
	}
	if a.Sprite(tmximport.SpriteRef{Index: 99}) != nil {
		t.Error("Sprite returned an image for a foreign ref")
	}

	// A cached page answers ImageInfo without reading again.
	info, err := a.ImageInfo("img/tree.png")
	if err != nil || info.Width != 16 || info.Height != 48 {
		t.Errorf("ImageInfo = %+v, %v", info, err)
	}
}

func TestSliceSpriteErrors(t *testing.T) {
	a := newTestAtlas(t)
	if _, err := a.SliceSprite(request("terrain", 2, "img/terrain.png", 64, 0, 32, 32)); err == nil {
		t.Error("rect outside the image accepted")
	}
	if _, err := a.SliceSprite(request("x", 0, "img/none.png", 0, 0, 8, 8)); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing image: err = %v", err)
	}
	if a.Len() != 0 {
		t.Errorf("Len = %d after failures", a.Len())
	}
}

func TestMarshalJSON(t *testing.T) {
	a := newTestAtlas(t)
	for _, req := range []tmximport.SpriteRequest{
		request("terrain", 0, "img/terrain.png", 0, 0, 32, 32),
		request("terrain", 1, "img/terrain.png", 32, 0, 32, 32),
		request("props", 7, "img/tree.png", 0, 0, 16, 48),
	} {
		if _, err := a.SliceSprite(req); err != nil {
			t.Fatal(err)
		}
	}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Textures []struct {
			Image  string `json:"image"`
			Frames map[string]struct {
				Frame struct{ X, Y, W, H int } `json:"frame"`
				Pivot struct{ X, Y float64 }   `json:"pivot"`
			} `json:"frames"`
		} `json:"textures"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Textures) != 2 {
		t.Fatalf("textures = %d", len(out.Textures))
	}
	if out.Textures[0].Image != "terrain.png" || len(out.Textures[0].Frames) != 2 {
		t.Errorf("page 0 = %+v", out.Textures[0])
	}
	f := out.Textures[0].Frames["terrain/1"]
	if f.Frame.X != 32 || f.Frame.W != 32 || f.Pivot.X != 0.5 {
		t.Errorf("terrain/1 = %+v", f)
	}
	if _, ok := out.Textures[1].Frames["props/7"]; !ok {
		t.Errorf("page 1 = %+v", out.Textures[1])
	}
}

func TestImportThroughAtlas(t *testing.T) {
	files := fstest.MapFS{
		"img/terrain.png": {Data: pngData(t, 64, 32)},
		"m.tmx": {Data: []byte(`<map orientation="orthogonal" width="2" height="1" tilewidth="32" tileheight="32">
 <tileset firstgid="1" name="terrain" tilewidth="32" tileheight="32">
  <image source="img/terrain.png"/>
 </tileset>
 <layer id="1" name="a" width="2" height="1"><data encoding="csv">2,1</data></layer>
</map>`)},
	}
	reader := tmximport.FSReader{FS: files}
	a := NewImporter(reader)
	scene, err := tmximport.NewImporter(tmximport.Options{Reader: reader, Assets: a}).Import("m.tmx")
	if err != nil {
		t.Fatal(err)
	}
	if len(scene.Diagnostics) != 0 {
		t.Errorf("diagnostics = %v", scene.Diagnostics)
	}
	if a.Len() != 2 {
		t.Fatalf("Len = %d", a.Len())
	}
	tile := scene.Find("a").Tiles[0].Tile
	if tile.SpriteRef.Name != "terrain/1" {
		t.Errorf("sprite ref = %+v", tile.SpriteRef)
	}
	if img := a.Sprite(tile.SpriteRef); img == nil || img.Bounds().Min.X != 32 {
		t.Errorf("sprite = %v", img)
	}
}
