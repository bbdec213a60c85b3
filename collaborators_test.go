package tmximport

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
)

// countingReader records how often each path is read.
type countingReader struct {
	next  FileReader
	mu    sync.Mutex
	reads map[string]int
}

func newCountingReader(next FileReader) *countingReader {
	return &countingReader{next: next, reads: make(map[string]int)}
}

func (r *countingReader) ReadFile(name string) ([]byte, error) {
	r.mu.Lock()
	r.reads[name]++
	r.mu.Unlock()
	return r.next.ReadFile(name)
}

func (r *countingReader) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads[name]
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		base, rel, want string
	}{
		{"level.tmx", "terrain.tsx", "terrain.tsx"},
		{"maps/level.tmx", "terrain.tsx", "maps/terrain.tsx"},
		{"maps/level.tmx", "../tilesets/terrain.tsx", "tilesets/terrain.tsx"},
		{"maps/sub/level.tmx", "./img/../img/a.png", "maps/sub/img/a.png"},
		{"maps/level.tmx", "/abs/a.png", "/abs/a.png"},
		{"maps/level.tmx", "", "maps/level.tmx"},
	}
	for _, tt := range tests {
		if got := ResolvePath(tt.base, tt.rel); got != tt.want {
			t.Errorf("ResolvePath(%q, %q) = %q, want %q", tt.base, tt.rel, got, tt.want)
		}
	}
}

func TestFSReader(t *testing.T) {
	r := FSReader{FS: fstest.MapFS{"maps/a.tmx": {Data: []byte("hello")}}}
	b, err := r.ReadFile("maps/a.tmx")
	if err != nil || string(b) != "hello" {
		t.Errorf("ReadFile = %q, %v", b, err)
	}
	if _, err := r.ReadFile("maps/../maps/a.tmx"); err != nil {
		t.Errorf("cleaned path: %v", err)
	}
	if _, err := r.ReadFile("missing.tmx"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing: err = %v", err)
	}
}

func TestDirReader(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "maps"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "maps", "a.tmx"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := DirReader{Root: dir}
	b, err := r.ReadFile("maps/a.tmx")
	if err != nil || string(b) != "data" {
		t.Errorf("ReadFile = %q, %v", b, err)
	}
	if _, err := r.ReadFile("maps/b.tmx"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing: err = %v", err)
	}
}

func TestCachedReaderReadsOnce(t *testing.T) {
	counter := newCountingReader(FSReader{FS: fstest.MapFS{"a.tsx": {Data: []byte("tileset")}}})
	r, err := NewCachedReader(counter, 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	for i := 0; i < 3; i++ {
		b, err := r.ReadFile("a.tsx")
		if err != nil || string(b) != "tileset" {
			t.Fatalf("read %d = %q, %v", i, b, err)
		}
	}
	if n := counter.count("a.tsx"); n != 1 {
		t.Errorf("underlying reads = %d, want 1", n)
	}
}

func TestCachedReaderDoesNotCacheErrors(t *testing.T) {
	counter := newCountingReader(FSReader{FS: fstest.MapFS{}})
	r, err := NewCachedReader(counter, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	for i := 0; i < 2; i++ {
		if _, err := r.ReadFile("missing"); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("err = %v", err)
		}
	}
	if n := counter.count("missing"); n != 2 {
		t.Errorf("underlying reads = %d, want 2", n)
	}
}

func TestMeasureImage(t *testing.T) {
	info, err := MeasureImage(pngBytes(t, 48, 20))
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 48 || info.Height != 20 || info.Format != "png" {
		t.Errorf("info = %+v", info)
	}
	if _, err := MeasureImage([]byte("not an image")); err == nil {
		t.Error("expected error")
	}
}

func TestFileAssets(t *testing.T) {
	a := &FileAssets{Reader: FSReader{FS: fstest.MapFS{"img/t.png": {Data: pngBytes(t, 64, 32)}}}}
	info, err := a.ImageInfo("img/t.png")
	if err != nil || info.Width != 64 || info.Height != 32 {
		t.Errorf("ImageInfo = %+v, %v", info, err)
	}
	if _, err := a.ImageInfo("img/none.png"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing: err = %v", err)
	}
	r0, _ := a.SliceSprite(SpriteRequest{Tileset: "t", TileID: 0})
	r1, _ := a.SliceSprite(SpriteRequest{Tileset: "t", TileID: 1})
	if r0.Index != 0 || r1.Index != 1 || r1.Name != "t/1" {
		t.Errorf("refs = %+v %+v", r0, r1)
	}
}
