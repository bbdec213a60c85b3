package tmximport

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// session is the state of one map import: the tile table, the tileset and
// template caches and the accumulated diagnostics. It is created by
// Importer.ImportMap and lives only for that call.
type session struct {
	path   string
	m      *Map
	grid   Grid
	table  *TileTable
	cellW  int
	cellH  int
	reader FileReader
	assets AssetImporter
	log    logrus.FieldLogger
	diags  *diagnosticLog

	tsMu     sync.Mutex
	tilesets map[string]*ImportedTileset // by resolved path or embedding key

	tmplMu    sync.Mutex
	tmplGroup singleflight.Group
	templates map[string]*LoadedTemplate
}

func newSession(im *Importer, m *Map, path string) *session {
	tw, th := m.CellSize()
	log := im.opts.Logger.WithField("map", path)
	return &session{
		path:      path,
		m:         m,
		grid:      GridFor(m),
		table:     NewTileTable(tw, th),
		cellW:     tw,
		cellH:     th,
		reader:    im.opts.Reader,
		assets:    im.opts.Assets,
		log:       log,
		diags:     newDiagnosticLog(log),
		tilesets:  make(map[string]*ImportedTileset),
		templates: make(map[string]*LoadedTemplate),
	}
}

// importTilesets fills the tile table in ascending firstgid order. It must
// finish before any layer is decoded.
func (s *session) importTilesets() {
	refs := append([]TilesetRef(nil), s.m.Tilesets...)
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].FirstGID < refs[j].FirstGID })
	for _, ref := range refs {
		set, diags := s.importTileset(s.path, ref)
		s.diags.reportAll(diags)
		if err := s.table.Add(ref.FirstGID, set); err != nil {
			d := warnf(CodeOverlappingTilesets, "%v", err)
			d.Path = s.path
			s.diags.report(d)
		}
	}
}

// importTileset loads, slices and registers one tileset referenced from the
// document at docPath. Results are cached for the session, failures included;
// a failure yields a stand-in that resolves nothing.
func (s *session) importTileset(docPath string, ref TilesetRef) (*ImportedTileset, []Diagnostic) {
	key := fmt.Sprintf("%s#%d", docPath, ref.FirstGID)
	if ref.IsExternal() {
		key = ResolvePath(docPath, ref.Source)
	}

	s.tsMu.Lock()
	defer s.tsMu.Unlock()
	if set, ok := s.tilesets[key]; ok {
		return set, nil
	}

	set, diags := s.loadTileset(docPath, ref)
	if set.Err != nil {
		err := &TilesetImportError{FirstGID: ref.FirstGID, Source: ref.Source, Err: set.Err}
		set.Err = err
		d := errorf(CodeTilesetImport, err, "tileset could not be imported; its tiles resolve as unresolved")
		d.Path = docPath
		if ref.IsExternal() {
			d.Path = key
		}
		diags = append(diags, d)
	} else {
		s.log.WithFields(logrus.Fields{"tileset": set.Name(), "tiles": len(set.Tiles)}).Debug("tileset imported")
	}
	s.tilesets[key] = set
	return set, diags
}

func (s *session) loadTileset(docPath string, ref TilesetRef) (*ImportedTileset, []Diagnostic) {
	ts, dir := ref.Tileset, docPath
	source := ""
	if ref.IsExternal() {
		source = ResolvePath(docPath, ref.Source)
		dir = source
		data, err := s.reader.ReadFile(source)
		if err != nil {
			return failedTileset(source, nil, err), nil
		}
		ts, err = ParseTileset(data)
		if err != nil {
			var de *DocumentError
			if errors.As(err, &de) && de.Path == "" {
				de.Path = source
			}
			return failedTileset(source, nil, err), nil
		}
	}
	if ts == nil {
		return failedTileset(source, nil, fmt.Errorf("tileset has neither source nor content")), nil
	}

	slices, diags, err := SliceTileset(ts, dir, s.cellW, s.cellH, s.measure(dir))
	for i := range diags {
		diags[i].Path = dir
	}
	if err != nil {
		return failedTileset(source, ts, err), diags
	}
	set := newImportedTileset(source, ts, slices)

	if s.assets != nil {
		for i, sl := range slices {
			sprite, err := s.assets.SliceSprite(SpriteRequest{
				Tileset: ts.Name,
				TileID:  sl.ID,
				Image:   sl.Image,
				Rect:    sl.Rect,
				Pivot:   sl.Pivot,
			})
			if err != nil {
				return failedTileset(source, ts, fmt.Errorf("slice tile %d: %w", sl.ID, err)), diags
			}
			set.Tiles[i].SpriteRef = sprite
		}
	}
	return set, diags
}

// measure sizes tileset images through the asset importer. Without one, the
// sizes recorded in the document are trusted, and only images without them
// are read from disk.
func (s *session) measure(dir string) Measure {
	return func(img *Image) (ImageInfo, error) {
		p := ResolvePath(dir, img.Source)
		if s.assets != nil {
			return s.assets.ImageInfo(p)
		}
		w, wok := img.Width.Get()
		h, hok := img.Height.Get()
		if wok && hok {
			return ImageInfo{Width: w, Height: h}, nil
		}
		data, err := s.reader.ReadFile(p)
		if err != nil {
			if isNotExist(err) {
				return ImageInfo{}, fmt.Errorf("image not found: %w", err)
			}
			return ImageInfo{}, err
		}
		return MeasureImage(data)
	}
}
