package tmximport

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// ShapeKind identifies an object's geometry.
type ShapeKind uint8

const (
	ShapeRectangle ShapeKind = iota // default when no shape element is present
	ShapeEllipse
	ShapePoint
	ShapePolygon
	ShapePolyline
	ShapeText
)

var shapeNames = [...]string{"rectangle", "ellipse", "point", "polygon", "polyline", "text"}

func (k ShapeKind) String() string {
	if int(k) < len(shapeNames) {
		return shapeNames[k]
	}
	return fmt.Sprintf("ShapeKind(%d)", k)
}

// MarshalJSON encodes the kind by name.
func (k ShapeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Shape is an object's exclusive shape payload. Points are relative to the
// object position, in pixels; Text is set only for ShapeText.
type Shape struct {
	Kind   ShapeKind `json:"kind"`
	Points []Vec2    `json:"points,omitempty"`
	Text   *Text     `json:"text,omitempty"`
}

func (s Shape) clone() Shape {
	if s.Points != nil {
		s.Points = append([]Vec2(nil), s.Points...)
	}
	if s.Text != nil {
		t := *s.Text
		s.Text = &t
	}
	return s
}

// Text is the payload of a text object.
type Text struct {
	FontFamily string `xml:"fontfamily,attr" json:"fontfamily,omitempty"`
	PixelSize  int    `xml:"pixelsize,attr" json:"pixelsize,omitempty"`
	Wrap       bool   `xml:"wrap,attr" json:"wrap,omitempty"`
	Color      string `xml:"color,attr" json:"color,omitempty"`
	Bold       bool   `xml:"bold,attr" json:"bold,omitempty"`
	Italic     bool   `xml:"italic,attr" json:"italic,omitempty"`
	Underline  bool   `xml:"underline,attr" json:"underline,omitempty"`
	Strikeout  bool   `xml:"strikeout,attr" json:"strikeout,omitempty"`
	HAlign     string `xml:"halign,attr" json:"halign,omitempty"`
	VAlign     string `xml:"valign,attr" json:"valign,omitempty"`
	Content    string `xml:",chardata" json:"content"`
}

// Object is a map object. Every scalar field is optional: Tiled omits
// attributes that hold their default and templates fill in the rest, so a
// field stays unset until MergeObject or InitialiseUnsetValues runs.
type Object struct {
	ID         Opt[int]     `xml:"id,attr" json:"id"`
	Name       Opt[string]  `xml:"name,attr" json:"name"`
	Type       Opt[string]  `xml:"type,attr" json:"type"` // "class" since Tiled 1.9
	X          Opt[float64] `xml:"x,attr" json:"x"`
	Y          Opt[float64] `xml:"y,attr" json:"y"`
	Width      Opt[float64] `xml:"width,attr" json:"width"`
	Height     Opt[float64] `xml:"height,attr" json:"height"`
	Rotation   Opt[float64] `xml:"rotation,attr" json:"rotation"` // degrees, clockwise
	GID        Opt[uint32]  `xml:"gid,attr" json:"gid"`
	Visible    Opt[bool]    `xml:"visible,attr" json:"visible"`
	Template   string       `xml:"template,attr" json:"template,omitempty"`
	Shape      Opt[Shape]   `xml:"-" json:"shape"`
	Properties Properties   `xml:"properties>property" json:"properties,omitempty"`
}

type pointList struct {
	Points string `xml:"points,attr"`
}

// UnmarshalXML decodes an <object> and its shape child.
func (o *Object) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	type plain Object
	var raw struct {
		plain
		Class    Opt[string] `xml:"class,attr"`
		Ellipse  []struct{}  `xml:"ellipse"`
		Point    []struct{}  `xml:"point"`
		Polygon  []pointList `xml:"polygon"`
		Polyline []pointList `xml:"polyline"`
		Text     []Text      `xml:"text"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	*o = Object(raw.plain)
	if !o.Type.IsSet() {
		o.Type = raw.Class
	}

	n := len(raw.Ellipse) + len(raw.Point) + len(raw.Polygon) + len(raw.Polyline) + len(raw.Text)
	if n > 1 {
		return documentErrorf(nil, "object %s: %d conflicting shape elements", o.ID, n)
	}
	var err error
	switch {
	case len(raw.Ellipse) == 1:
		o.Shape.Set(Shape{Kind: ShapeEllipse})
	case len(raw.Point) == 1:
		o.Shape.Set(Shape{Kind: ShapePoint})
	case len(raw.Polygon) == 1:
		var pts []Vec2
		pts, err = ParsePoints(raw.Polygon[0].Points)
		o.Shape.Set(Shape{Kind: ShapePolygon, Points: pts})
	case len(raw.Polyline) == 1:
		var pts []Vec2
		pts, err = ParsePoints(raw.Polyline[0].Points)
		o.Shape.Set(Shape{Kind: ShapePolyline, Points: pts})
	case len(raw.Text) == 1:
		t := raw.Text[0]
		o.Shape.Set(Shape{Kind: ShapeText, Text: &t})
	}
	if err != nil {
		return documentErrorf(err, "object %s", o.ID)
	}
	return nil
}

// ParsePoints parses a Tiled point list ("x1,y1 x2,y2 ...").
func ParsePoints(s string) ([]Vec2, error) {
	fields := strings.Fields(s)
	pts := make([]Vec2, 0, len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("tmximport: invalid point %q", f)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("tmximport: invalid point %q: %w", f, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("tmximport: invalid point %q: %w", f, err)
		}
		pts = append(pts, Vec2{X: x, Y: y})
	}
	return pts, nil
}

// InitialiseUnsetValues fills every field that is still unset with its
// default: zero for id, position, size, rotation and gid, true for visibility,
// empty for name and type, and a rectangle shape.
func (o *Object) InitialiseUnsetValues() {
	o.ID.Default(0)
	o.Name.Default("")
	o.Type.Default("")
	o.X.Default(0)
	o.Y.Default(0)
	o.Width.Default(0)
	o.Height.Default(0)
	o.Rotation.Default(0)
	o.GID.Default(0)
	o.Visible.Default(true)
	o.Shape.Default(Shape{Kind: ShapeRectangle})
}

// Clone returns a deep copy of o.
func (o *Object) Clone() Object {
	c := *o
	if s, ok := o.Shape.Get(); ok {
		c.Shape = Some(s.clone())
	}
	c.Properties = clonePropertyList(o.Properties)
	return c
}
