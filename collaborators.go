package tmximport

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	// Image formats Tiled tilesets commonly reference.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/dgraph-io/ristretto/v2"
)

// FileReader reads documents and images. A missing file must produce an
// error satisfying errors.Is(err, fs.ErrNotExist).
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// DirReader reads from the operating system's filesystem. Relative paths are
// resolved against Root.
type DirReader struct {
	Root string
}

// ReadFile implements FileReader.
func (r DirReader) ReadFile(name string) ([]byte, error) {
	p := filepath.FromSlash(name)
	if r.Root != "" && !filepath.IsAbs(p) {
		p = filepath.Join(r.Root, p)
	}
	return os.ReadFile(p)
}

// FSReader reads from an fs.FS. Paths are slash-separated and relative to
// the filesystem root.
type FSReader struct {
	FS fs.FS
}

// ReadFile implements FileReader.
func (r FSReader) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(r.FS, strings.TrimPrefix(path.Clean(name), "/"))
}

// CachedReader wraps a FileReader with a size-bounded cache so tilesets and
// templates shared by several maps are read once. It is safe for concurrent
// use.
type CachedReader struct {
	next  FileReader
	cache *ristretto.Cache[string, []byte]
}

// NewCachedReader returns a reader caching up to maxBytes of file contents.
func NewCachedReader(next FileReader, maxBytes int64) (*CachedReader, error) {
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	cache, err := ristretto.NewCache[string, []byte](&ristretto.Config[string, []byte]{
		NumCounters: 10000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("tmximport: file cache: %w", err)
	}
	return &CachedReader{next: next, cache: cache}, nil
}

// ReadFile implements FileReader. Callers must not modify the returned slice.
func (r *CachedReader) ReadFile(name string) ([]byte, error) {
	if b, ok := r.cache.Get(name); ok {
		return b, nil
	}
	b, err := r.next.ReadFile(name)
	if err != nil {
		return nil, err
	}
	r.cache.Set(name, b, int64(len(b)))
	r.cache.Wait()
	return b, nil
}

// Close releases the cache.
func (r *CachedReader) Close() {
	r.cache.Close()
}

// ResolvePath resolves rel against the directory of the document base. Paths
// are slash-separated; absolute rel paths are returned cleaned.
func ResolvePath(base, rel string) string {
	rel = filepath.ToSlash(rel)
	if rel == "" {
		return path.Clean(filepath.ToSlash(base))
	}
	if path.IsAbs(rel) || filepath.IsAbs(rel) {
		return path.Clean(rel)
	}
	return path.Join(path.Dir(filepath.ToSlash(base)), rel)
}

// ImageInfo is the measured size of an image file.
type ImageInfo struct {
	Width  int
	Height int
	Format string
}

// SpriteRequest asks the host to register a sub-image of a tileset image.
type SpriteRequest struct {
	Tileset string // tileset name
	TileID  uint32 // tileset-local id
	Image   string // resolved image path
	Rect    Rect   // source rectangle, top-left origin, pixels
	Pivot   Vec2   // normalized pivot inside Rect
}

// SpriteRef identifies a sprite registered by an AssetImporter.
type SpriteRef struct {
	Page  int    `json:"page"`
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
}

// AssetImporter is the host side of tileset import: it measures images and
// registers sliced sprites. The importer never decodes pixels itself.
type AssetImporter interface {
	ImageInfo(path string) (ImageInfo, error)
	SliceSprite(req SpriteRequest) (SpriteRef, error)
}

// MeasureImage decodes only the header of an image to report its size.
func MeasureImage(data []byte) (ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("tmximport: measure image: %w", err)
	}
	return ImageInfo{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// FileAssets is an AssetImporter that measures images through a FileReader
// and hands out sequential sprite references without loading pixels.
type FileAssets struct {
	Reader FileReader
	next   int
}

// ImageInfo implements AssetImporter.
func (a *FileAssets) ImageInfo(p string) (ImageInfo, error) {
	data, err := a.Reader.ReadFile(p)
	if err != nil {
		return ImageInfo{}, err
	}
	return MeasureImage(data)
}

// SliceSprite implements AssetImporter.
func (a *FileAssets) SliceSprite(req SpriteRequest) (SpriteRef, error) {
	ref := SpriteRef{Index: a.next, Name: fmt.Sprintf("%s/%d", req.Tileset, req.TileID)}
	a.next++
	return ref, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
