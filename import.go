package tmximport

import (
	"errors"
	"io"
	"runtime"

	"github.com/sirupsen/logrus"
)

// DefaultMaxGroupDepth is the group nesting depth above which a warning is
// reported.
const DefaultMaxGroupDepth = 32

// Options configures an Importer. Zero values select the defaults.
type Options struct {
	// Reader reads maps, tilesets, templates and images. Required.
	Reader FileReader

	// Assets measures tileset images and registers sliced sprites. When nil,
	// image sizes recorded in the documents are trusted and no sprites are
	// registered.
	Assets AssetImporter

	// Registry holds extension handlers run after the scene is built.
	Registry *Registry

	// Logger receives every diagnostic as it is reported. Defaults to a
	// logger that discards everything.
	Logger logrus.FieldLogger

	// Workers bounds how many layers and chunks decode at once. Defaults to
	// GOMAXPROCS.
	Workers int

	// MaxGroupDepth is the nesting depth above which a warning is reported.
	// Defaults to DefaultMaxGroupDepth.
	MaxGroupDepth int
}

// Importer turns Tiled maps into scenes. It holds no per-import state and may
// be used from several goroutines.
type Importer struct {
	opts Options
}

// NewImporter returns an importer with defaults applied to opts.
func NewImporter(opts Options) *Importer {
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.MaxGroupDepth <= 0 {
		opts.MaxGroupDepth = DefaultMaxGroupDepth
	}
	return &Importer{opts: opts}
}

// Import reads and imports the map at path. File and map level failures are
// returned as errors; everything else ends up in Scene.Diagnostics.
func (im *Importer) Import(path string) (*Scene, error) {
	if im.opts.Reader == nil {
		return nil, errors.New("tmximport: no FileReader configured")
	}
	data, err := im.opts.Reader.ReadFile(path)
	if err != nil {
		return nil, &DocumentError{Path: path, Msg: "read map", Err: err}
	}
	m, err := ParseMap(data)
	if err != nil {
		var de *DocumentError
		if errors.As(err, &de) && de.Path == "" {
			de.Path = path
		}
		return nil, err
	}
	return im.ImportMap(m, path)
}

// ImportMap imports an already parsed map. path locates the map for resolving
// relative tileset, template and image sources.
//
// Tilesets are imported first, in ascending firstgid order. Once the tile
// table is complete, tile layers, chunks and object groups decode in
// parallel; their diagnostics are reported in document order afterwards, and
// extension handlers run last, sequentially.
func (im *Importer) ImportMap(m *Map, path string) (*Scene, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if im.opts.Reader == nil {
		return nil, errors.New("tmximport: no FileReader configured")
	}
	s := newSession(im, m, path)
	var layerCount int
	WalkLayers(m.Layers, func(Layer, *GroupLayer) bool {
		layerCount++
		return true
	})
	s.log.WithFields(logrus.Fields{
		"orientation": s.grid.Orientation,
		"tilesets":    len(m.Tilesets),
		"layers":      layerCount,
		"infinite":    m.Infinite,
	}).Debug("import started")

	s.importTilesets()

	layers := s.buildLayers(m.Layers, im.opts.Workers, im.opts.MaxGroupDepth)

	scene := &Scene{
		Path:       path,
		Map:        m,
		Grid:       s.grid,
		Layers:     layers,
		Properties: m.Properties,
	}
	if m.BackgroundColor != "" {
		bg, err := ParseColor(m.BackgroundColor)
		if err != nil {
			d := warnf(CodeInvalidValue, "map background color: %v", err)
			d.Path = path
			s.diags.report(d)
		}
		scene.Background = bg
	}
	for _, e := range s.table.Entries() {
		scene.Tilesets = append(scene.Tilesets, e.Set)
	}

	scene.Diagnostics = s.diags.snapshot()
	if im.opts.Registry.Len() > 0 {
		im.opts.Registry.run(scene, s.diags.report)
		scene.Diagnostics = s.diags.snapshot()
	}
	s.log.WithFields(logrus.Fields{
		"tiles":       scene.TileCount(),
		"diagnostics": len(scene.Diagnostics),
	}).Debug("import finished")
	return scene, nil
}
