package tmximport

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Orientation is a map projection.
type Orientation uint8

const (
	OrientationOrthogonal Orientation = iota // square grid
	OrientationIsometric                     // diamond grid
	OrientationHexagonal                     // offset hexagons
	OrientationStaggered                     // staggered (zig-zag) isometric
)

var orientationNames = [...]string{"orthogonal", "isometric", "hexagonal", "staggered"}

func (o Orientation) String() string {
	if int(o) < len(orientationNames) {
		return orientationNames[o]
	}
	return fmt.Sprintf("Orientation(%d)", o)
}

// ParseOrientation parses a Tiled orientation name.
func ParseOrientation(s string) (Orientation, error) {
	for i, name := range orientationNames {
		if s == name {
			return Orientation(i), nil
		}
	}
	return 0, &UnsupportedOrientationError{Orientation: s}
}

// UnmarshalXMLAttr implements xml.UnmarshalerAttr.
func (o *Orientation) UnmarshalXMLAttr(attr xml.Attr) error {
	v, err := ParseOrientation(attr.Value)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// MarshalJSON encodes the orientation by name.
func (o Orientation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// StaggerAxis selects which axis staggered and hexagonal maps offset.
type StaggerAxis uint8

const (
	StaggerAxisNone StaggerAxis = iota
	StaggerAxisX
	StaggerAxisY
)

func (a StaggerAxis) String() string {
	switch a {
	case StaggerAxisX:
		return "x"
	case StaggerAxisY:
		return "y"
	default:
		return "none"
	}
}

// UnmarshalXMLAttr implements xml.UnmarshalerAttr.
func (a *StaggerAxis) UnmarshalXMLAttr(attr xml.Attr) error {
	switch attr.Value {
	case "x":
		*a = StaggerAxisX
	case "y":
		*a = StaggerAxisY
	case "", "none":
		*a = StaggerAxisNone
	default:
		return fmt.Errorf("tmximport: invalid staggeraxis %q", attr.Value)
	}
	return nil
}

// MarshalJSON encodes the axis by name.
func (a StaggerAxis) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// StaggerIndex selects which rows or columns are shifted.
type StaggerIndex uint8

const (
	StaggerOdd StaggerIndex = iota
	StaggerEven
)

func (s StaggerIndex) String() string {
	if s == StaggerEven {
		return "even"
	}
	return "odd"
}

// UnmarshalXMLAttr implements xml.UnmarshalerAttr.
func (s *StaggerIndex) UnmarshalXMLAttr(attr xml.Attr) error {
	switch attr.Value {
	case "odd", "":
		*s = StaggerOdd
	case "even":
		*s = StaggerEven
	default:
		return fmt.Errorf("tmximport: invalid staggerindex %q", attr.Value)
	}
	return nil
}

// MarshalJSON encodes the index by name.
func (s StaggerIndex) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Map is a decoded .tmx document.
type Map struct {
	Version         string           `xml:"version,attr" json:"version,omitempty"`
	TiledVersion    string           `xml:"tiledversion,attr" json:"tiledversion,omitempty"`
	Class           string           `xml:"class,attr" json:"class,omitempty"`
	Orientation     Opt[Orientation] `xml:"orientation,attr" json:"orientation"`
	RenderOrder     string           `xml:"renderorder,attr" json:"renderorder,omitempty"`
	Width           int              `xml:"width,attr" json:"width"`
	Height          int              `xml:"height,attr" json:"height"`
	TileWidth       Opt[int]         `xml:"tilewidth,attr" json:"tilewidth"`
	TileHeight      Opt[int]         `xml:"tileheight,attr" json:"tileheight"`
	HexSideLength   int              `xml:"hexsidelength,attr" json:"hexsidelength,omitempty"`
	StaggerAxis     StaggerAxis      `xml:"staggeraxis,attr" json:"staggeraxis"`
	StaggerIndex    StaggerIndex     `xml:"staggerindex,attr" json:"staggerindex"`
	Infinite        bool             `xml:"infinite,attr" json:"infinite"`
	BackgroundColor string           `xml:"backgroundcolor,attr" json:"backgroundcolor,omitempty"`
	NextLayerID     int              `xml:"nextlayerid,attr" json:"nextlayerid,omitempty"`
	NextObjectID    int              `xml:"nextobjectid,attr" json:"nextobjectid,omitempty"`
	Properties      Properties       `xml:"properties>property" json:"properties,omitempty"`
	Tilesets        []TilesetRef     `xml:"tileset" json:"tilesets"`
	Layers          []Layer          `xml:"-" json:"-"`
}

// UnmarshalXML decodes a <map>, keeping layers in document order.
func (m *Map) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	type plain Map
	var raw struct {
		plain
		Children []layerElement `xml:",any"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	*m = Map(raw.plain)
	m.Layers = collectLayers(raw.Children)
	return nil
}

// CellSize returns the map's tile cell size in pixels.
func (m *Map) CellSize() (w, h int) {
	return m.TileWidth.Or(0), m.TileHeight.Or(0)
}

// Validate checks the invariants the decoder depends on.
func (m *Map) Validate() error {
	if !m.Orientation.IsSet() {
		return documentErrorf(nil, "map: missing required attribute orientation")
	}
	tw, ok := m.TileWidth.Get()
	if !ok {
		return documentErrorf(nil, "map: missing required attribute tilewidth")
	}
	th, ok := m.TileHeight.Get()
	if !ok {
		return documentErrorf(nil, "map: missing required attribute tileheight")
	}
	if tw <= 0 || th <= 0 {
		return documentErrorf(nil, "map: tile size %dx%d must be positive", tw, th)
	}
	return nil
}

// TilesetRef is a <tileset> element inside a map or template: the first GID
// it owns and either an external source or the embedded tileset itself.
type TilesetRef struct {
	FirstGID uint32   `json:"firstgid"`
	Source   string   `json:"source,omitempty"`
	Tileset  *Tileset `json:"tileset,omitempty"` // nil for external references
}

// UnmarshalXML implements xml.Unmarshaler.
func (r *TilesetRef) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw struct {
		Tileset
		FirstGID Opt[uint32] `xml:"firstgid,attr"`
		Source   string      `xml:"source,attr"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	first, ok := raw.FirstGID.Get()
	if !ok {
		return documentErrorf(nil, "tileset: missing required attribute firstgid")
	}
	r.FirstGID = first
	r.Source = raw.Source
	r.Tileset = nil
	if raw.Source == "" {
		ts := raw.Tileset
		r.Tileset = &ts
	}
	return nil
}

// IsExternal reports whether the tileset lives in its own .tsx file.
func (r *TilesetRef) IsExternal() bool {
	return r.Source != ""
}

// Tileset is a decoded .tsx document or embedded tileset.
type Tileset struct {
	Version         string       `xml:"version,attr" json:"version,omitempty"`
	Name            string       `xml:"name,attr" json:"name"`
	Class           string       `xml:"class,attr" json:"class,omitempty"`
	TileWidth       int          `xml:"tilewidth,attr" json:"tilewidth"`
	TileHeight      int          `xml:"tileheight,attr" json:"tileheight"`
	Spacing         int          `xml:"spacing,attr" json:"spacing,omitempty"`
	Margin          int          `xml:"margin,attr" json:"margin,omitempty"`
	TileCount       int          `xml:"tilecount,attr" json:"tilecount"`
	Columns         int          `xml:"columns,attr" json:"columns"`
	ObjectAlignment string       `xml:"objectalignment,attr" json:"objectalignment,omitempty"`
	TileOffset      TileOffset   `xml:"tileoffset" json:"tileoffset"`
	Grid            *TilesetGrid `xml:"grid" json:"grid,omitempty"`
	Properties      Properties   `xml:"properties>property" json:"properties,omitempty"`
	Image           *Image       `xml:"image" json:"image,omitempty"`
	Tiles           []Tile       `xml:"tile" json:"tiles,omitempty"`
}

// IsImageCollection reports whether each tile brings its own image instead of
// being sliced from one shared image.
func (ts *Tileset) IsImageCollection() bool {
	return ts.Image == nil || ts.Image.Source == ""
}

func (ts *Tileset) validate() error {
	if ts.TileWidth <= 0 || ts.TileHeight <= 0 {
		return documentErrorf(nil, "tileset %q: tile size %dx%d must be positive", ts.Name, ts.TileWidth, ts.TileHeight)
	}
	return nil
}

// TileOffset shifts every tile of a tileset when drawn, in pixels.
type TileOffset struct {
	X int `xml:"x,attr" json:"x"`
	Y int `xml:"y,attr" json:"y"`
}

// TilesetGrid describes the grid used for tile overlays in isometric tilesets.
type TilesetGrid struct {
	Orientation string `xml:"orientation,attr" json:"orientation"`
	Width       int    `xml:"width,attr" json:"width"`
	Height      int    `xml:"height,attr" json:"height"`
}

// Image references an image file. Width and Height are the sizes recorded by
// the editor, which may disagree with the file on disk.
type Image struct {
	Source string   `xml:"source,attr" json:"source"`
	Format string   `xml:"format,attr" json:"format,omitempty"`
	Trans  string   `xml:"trans,attr" json:"trans,omitempty"`
	Width  Opt[int] `xml:"width,attr" json:"width"`
	Height Opt[int] `xml:"height,attr" json:"height"`
}

// Tile holds per-tile metadata inside a tileset.
type Tile struct {
	ID          uint32       `xml:"id,attr" json:"id"`
	Type        string       `xml:"type,attr" json:"type,omitempty"`
	Class       string       `xml:"class,attr" json:"class,omitempty"`
	Probability Opt[float64] `xml:"probability,attr" json:"probability"`
	Properties  Properties   `xml:"properties>property" json:"properties,omitempty"`
	Image       *Image       `xml:"image" json:"image,omitempty"`
	ObjectGroup *ObjectGroup `xml:"objectgroup" json:"objectgroup,omitempty"`
	Animation   []Frame      `xml:"animation>frame" json:"animation,omitempty"`
}

// Frame is one step of a tile animation.
type Frame struct {
	TileID   uint32 `xml:"tileid,attr" json:"tileid"`
	Duration int    `xml:"duration,attr" json:"duration"` // milliseconds
}

// Template is a decoded .tx document.
type Template struct {
	Tileset *TilesetRef `xml:"tileset" json:"tileset,omitempty"`
	Object  *Object     `xml:"object" json:"object"`
}

// ParseMap decodes a .tmx document. Unknown elements and attributes are
// ignored. An orientation other than the four supported ones yields an
// *UnsupportedOrientationError; every other problem a *DocumentError.
func ParseMap(data []byte) (*Map, error) {
	var m Map
	if err := decodeRoot(data, "map", &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	for i := range m.Tilesets {
		if ts := m.Tilesets[i].Tileset; ts != nil {
			if err := ts.validate(); err != nil {
				return nil, err
			}
		}
	}
	return &m, nil
}

// ParseTileset decodes a .tsx document.
func ParseTileset(data []byte) (*Tileset, error) {
	var ts Tileset
	if err := decodeRoot(data, "tileset", &ts); err != nil {
		return nil, err
	}
	if err := ts.validate(); err != nil {
		return nil, err
	}
	return &ts, nil
}

// ParseTemplate decodes a .tx document.
func ParseTemplate(data []byte) (*Template, error) {
	var t Template
	if err := decodeRoot(data, "template", &t); err != nil {
		return nil, err
	}
	if t.Object == nil {
		return nil, documentErrorf(nil, "template: missing <object>")
	}
	if t.Tileset != nil && t.Tileset.Tileset != nil {
		if err := t.Tileset.Tileset.validate(); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// Document is the result of ParseDocument. Exactly one field is non-nil.
type Document struct {
	Map      *Map
	Tileset  *Tileset
	Template *Template
}

// ParseDocument decodes a map, tileset or template, choosing by root element.
func ParseDocument(data []byte) (Document, error) {
	root, err := rootElement(data)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	switch root {
	case "map":
		doc.Map, err = ParseMap(data)
	case "tileset":
		doc.Tileset, err = ParseTileset(data)
	case "template":
		doc.Template, err = ParseTemplate(data)
	default:
		err = documentErrorf(nil, "unknown root element <%s>", root)
	}
	return doc, err
}

func newDecoder(data []byte) *xml.Decoder {
	d := xml.NewDecoder(bytes.NewReader(data))
	// Tiled always writes UTF-8; accept documents that merely declare another
	// ASCII-compatible label.
	d.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return d
}

func rootElement(data []byte) (string, error) {
	d := newDecoder(data)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return "", documentErrorf(nil, "missing root element")
		}
		if err != nil {
			return "", documentErrorf(err, "malformed markup")
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

func decodeRoot(data []byte, want string, v any) error {
	d := newDecoder(data)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return documentErrorf(nil, "missing root element <%s>", want)
		}
		if err != nil {
			return documentErrorf(err, "malformed markup")
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != want {
			return documentErrorf(nil, "unknown root element <%s>, want <%s>", se.Name.Local, want)
		}
		if err := d.DecodeElement(v, &se); err != nil {
			return classifyDecodeError(err)
		}
		return nil
	}
}

func classifyDecodeError(err error) error {
	var docErr *DocumentError
	var orientErr *UnsupportedOrientationError
	var payloadErr *PayloadError
	switch {
	case errors.As(err, &orientErr):
		return orientErr
	case errors.As(err, &docErr):
		return docErr
	case errors.As(err, &payloadErr):
		return documentErrorf(payloadErr, "invalid layer data")
	default:
		msg := "malformed markup"
		var syntaxErr *xml.SyntaxError
		if !errors.As(err, &syntaxErr) && strings.Contains(err.Error(), "attribute") {
			msg = "invalid attribute"
		}
		return documentErrorf(err, "%s", msg)
	}
}
