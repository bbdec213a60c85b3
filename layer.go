package tmximport

import "encoding/xml"

// Layer is one node of a map's layer tree: *TileLayer, *ObjectGroup,
// *ImageLayer or *GroupLayer.
type Layer interface {
	Common() *LayerCommon
}

// LayerCommon holds the attributes every layer kind shares.
type LayerCommon struct {
	ID         int          `xml:"id,attr" json:"id"`
	Name       string       `xml:"name,attr" json:"name"`
	Class      string       `xml:"class,attr" json:"class,omitempty"`
	OffsetX    float64      `xml:"offsetx,attr" json:"offsetx"`
	OffsetY    float64      `xml:"offsety,attr" json:"offsety"`
	Opacity    Opt[float64] `xml:"opacity,attr" json:"opacity"`
	Visible    Opt[bool]    `xml:"visible,attr" json:"visible"`
	Locked     bool         `xml:"locked,attr" json:"locked,omitempty"`
	TintColor  string       `xml:"tintcolor,attr" json:"tintcolor,omitempty"`
	ParallaxX  Opt[float64] `xml:"parallaxx,attr" json:"parallaxx"`
	ParallaxY  Opt[float64] `xml:"parallaxy,attr" json:"parallaxy"`
	Properties Properties   `xml:"properties>property" json:"properties,omitempty"`
}

// Common implements Layer.
func (c *LayerCommon) Common() *LayerCommon { return c }

// IsVisible reports the layer's visibility, defaulting to true.
func (c *LayerCommon) IsVisible() bool { return c.Visible.Or(true) }

// Alpha returns the layer's opacity, defaulting to 1.
func (c *LayerCommon) Alpha() float64 { return c.Opacity.Or(1) }

// TileLayer is a grid of GIDs. Finite maps carry the grid as one payload in
// Data; infinite maps split it into Data.Chunks.
type TileLayer struct {
	LayerCommon
	Width  int   `xml:"width,attr" json:"width"`
	Height int   `xml:"height,attr" json:"height"`
	Data   *Data `xml:"data" json:"data,omitempty"`
}

// Data is a tile layer payload.
type Data struct {
	Encoding    string     `xml:"encoding,attr" json:"encoding,omitempty"`
	Compression string     `xml:"compression,attr" json:"compression,omitempty"`
	Tiles       []DataTile `xml:"tile" json:"-"`
	Chunks      []Chunk    `xml:"chunk" json:"chunks,omitempty"`
	Text        string     `xml:",chardata" json:"-"`
}

// Chunk is a rectangular region of an infinite layer with its own payload.
// X and Y are the chunk origin in tiles.
type Chunk struct {
	X      int        `xml:"x,attr" json:"x"`
	Y      int        `xml:"y,attr" json:"y"`
	Width  int        `xml:"width,attr" json:"width"`
	Height int        `xml:"height,attr" json:"height"`
	Tiles  []DataTile `xml:"tile" json:"-"`
	Text   string     `xml:",chardata" json:"-"`
}

// DataTile is one <tile> of an unencoded payload. GID is kept as text and
// parsed on decode; an absent attribute is an empty cell.
type DataTile struct {
	GID string `xml:"gid,attr"`
}

// ObjectGroup is an object layer. Tiles reuse it for collision shapes.
type ObjectGroup struct {
	LayerCommon
	Color     string   `xml:"color,attr" json:"color,omitempty"`
	DrawOrder string   `xml:"draworder,attr" json:"draworder,omitempty"`
	Objects   []Object `xml:"object" json:"objects"`
}

// ImageLayer shows a single image.
type ImageLayer struct {
	LayerCommon
	Image   *Image `xml:"image" json:"image,omitempty"`
	RepeatX bool   `xml:"repeatx,attr" json:"repeatx,omitempty"`
	RepeatY bool   `xml:"repeaty,attr" json:"repeaty,omitempty"`
}

// GroupLayer nests other layers.
type GroupLayer struct {
	LayerCommon
	Layers []Layer `xml:"-" json:"-"`
}

// UnmarshalXML decodes a <group>, keeping child layers in document order.
func (g *GroupLayer) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	type plain GroupLayer
	var raw struct {
		plain
		Children []layerElement `xml:",any"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	*g = GroupLayer(raw.plain)
	g.Layers = collectLayers(raw.Children)
	return nil
}

// layerElement decodes whichever layer kind its element names and skips
// everything else.
type layerElement struct {
	layer Layer
}

func (e *layerElement) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var l Layer
	switch start.Name.Local {
	case "layer":
		l = new(TileLayer)
	case "objectgroup":
		l = new(ObjectGroup)
	case "imagelayer":
		l = new(ImageLayer)
	case "group":
		l = new(GroupLayer)
	default:
		return d.Skip()
	}
	if err := d.DecodeElement(l, &start); err != nil {
		return err
	}
	e.layer = l
	return nil
}

func collectLayers(elems []layerElement) []Layer {
	var out []Layer
	for _, e := range elems {
		if e.layer != nil {
			out = append(out, e.layer)
		}
	}
	return out
}

// WalkLayers calls fn for every layer in depth-first document order, passing
// the enclosing group (nil at the top level). Returning false from fn skips
// a group's children.
func WalkLayers(layers []Layer, fn func(l Layer, parent *GroupLayer) bool) {
	walkLayers(layers, nil, fn)
}

func walkLayers(layers []Layer, parent *GroupLayer, fn func(Layer, *GroupLayer) bool) {
	for _, l := range layers {
		if !fn(l, parent) {
			continue
		}
		if g, ok := l.(*GroupLayer); ok {
			walkLayers(g.Layers, g, fn)
		}
	}
}
