package tmximport

import (
	"errors"
	"testing"
)

const sampleMap = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" tiledversion="1.10.2" orientation="orthogonal" renderorder="right-down"
     width="4" height="2" tilewidth="32" tileheight="32" infinite="0" backgroundcolor="#336699"
     nextlayerid="6" nextobjectid="3">
 <editorsettings>
  <export target="out.json" format="json"/>
 </editorsettings>
 <properties>
  <property name="music" value="field.ogg"/>
  <property name="difficulty" type="int" value="3"/>
  <property name="notes">line one
line two</property>
 </properties>
 <tileset firstgid="1" source="terrain.tsx"/>
 <tileset firstgid="65" name="props" tilewidth="16" tileheight="16" tilecount="4" columns="2">
  <tileoffset x="2" y="-4"/>
  <image source="props.png" width="32" height="32"/>
  <tile id="1" type="barrel">
   <objectgroup draworder="index">
    <object id="1" x="0" y="0" width="16" height="16"/>
   </objectgroup>
   <animation>
    <frame tileid="1" duration="100"/>
    <frame tileid="2" duration="150"/>
   </animation>
  </tile>
 </tileset>
 <layer id="1" name="ground" width="4" height="2" opacity="0.5">
  <data encoding="csv">
1,2,3,4,
5,6,7,8
</data>
 </layer>
 <group id="2" name="decor" offsetx="16" offsety="8" tintcolor="#ff0000">
  <objectgroup id="3" name="spawns" visible="0">
   <object id="1" name="start" type="spawn" x="32" y="64" width="0" height="0">
    <point/>
   </object>
   <object id="2" template="crate.tx" x="96" y="32"/>
  </objectgroup>
  <imagelayer id="4" name="sky" repeatx="1">
   <image source="sky.png" width="640" height="480"/>
  </imagelayer>
 </group>
 <layer id="5" name="top" width="4" height="2">
  <data encoding="base64">AQAAAA==</data>
 </layer>
</map>`

func TestParseMinimalMap(t *testing.T) {
	m, err := ParseMap([]byte(`<map orientation="orthogonal" width="1" height="1" tilewidth="32" tileheight="32"/>`))
	if err != nil {
		t.Fatalf("ParseMap: %v", err)
	}
	if m.Width != 1 || len(m.Layers) != 0 || len(m.Tilesets) != 0 {
		t.Errorf("map = %+v", m)
	}
	if _, err := ParseMap([]byte(`<tileset name="t" tilewidth="8" tileheight="8"/>`)); !errors.Is(err, ErrDocument) {
		t.Errorf("wrong root: err = %v", err)
	}
}

func TestParseMapAttributes(t *testing.T) {
	m, err := ParseMap([]byte(sampleMap))
	if err != nil {
		t.Fatalf("ParseMap: %v", err)
	}
	if m.Orientation.Or(OrientationIsometric) != OrientationOrthogonal {
		t.Errorf("Orientation = %v", m.Orientation)
	}
	if w, h := m.CellSize(); w != 32 || h != 32 {
		t.Errorf("CellSize = %dx%d", w, h)
	}
	if m.Width != 4 || m.Height != 2 || m.Infinite {
		t.Errorf("size = %dx%d infinite=%v", m.Width, m.Height, m.Infinite)
	}
	if m.BackgroundColor != "#336699" || m.NextObjectID != 3 {
		t.Errorf("BackgroundColor = %q NextObjectID = %d", m.BackgroundColor, m.NextObjectID)
	}
}

func TestParseMapProperties(t *testing.T) {
	m, err := ParseMap([]byte(sampleMap))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Properties) != 3 {
		t.Fatalf("properties = %d, want 3", len(m.Properties))
	}
	if s, err := m.Properties.String("music"); err != nil || s != "field.ogg" {
		t.Errorf("music = %q, %v", s, err)
	}
	if n, err := m.Properties.Int("difficulty"); err != nil || n != 3 {
		t.Errorf("difficulty = %d, %v", n, err)
	}
	if s, _ := m.Properties.String("notes"); s != "line one\nline two" {
		t.Errorf("notes = %q", s)
	}
}

func TestParseMapTilesets(t *testing.T) {
	m, err := ParseMap([]byte(sampleMap))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Tilesets) != 2 {
		t.Fatalf("tilesets = %d, want 2", len(m.Tilesets))
	}
	ext := m.Tilesets[0]
	if !ext.IsExternal() || ext.FirstGID != 1 || ext.Source != "terrain.tsx" || ext.Tileset != nil {
		t.Errorf("external ref = %+v", ext)
	}
	emb := m.Tilesets[1]
	if emb.IsExternal() || emb.FirstGID != 65 || emb.Tileset == nil {
		t.Fatalf("embedded ref = %+v", emb)
	}
	ts := emb.Tileset
	if ts.Name != "props" || ts.TileWidth != 16 || ts.TileCount != 4 || ts.Columns != 2 {
		t.Errorf("tileset = %+v", ts)
	}
	if ts.TileOffset != (TileOffset{X: 2, Y: -4}) {
		t.Errorf("TileOffset = %+v", ts.TileOffset)
	}
	if ts.Image == nil || ts.Image.Source != "props.png" || ts.Image.Width.Or(0) != 32 {
		t.Errorf("Image = %+v", ts.Image)
	}
	if len(ts.Tiles) != 1 {
		t.Fatalf("tiles = %d", len(ts.Tiles))
	}
	tile := ts.Tiles[0]
	if tile.ID != 1 || tile.Type != "barrel" || tile.ObjectGroup == nil || len(tile.ObjectGroup.Objects) != 1 {
		t.Errorf("tile = %+v", tile)
	}
	if len(tile.Animation) != 2 || tile.Animation[1] != (Frame{TileID: 2, Duration: 150}) {
		t.Errorf("animation = %+v", tile.Animation)
	}
}

func TestParseMapLayerOrder(t *testing.T) {
	m, err := ParseMap([]byte(sampleMap))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	WalkLayers(m.Layers, func(l Layer, parent *GroupLayer) bool {
		name := l.Common().Name
		if parent != nil {
			name = parent.Name + "/" + name
		}
		names = append(names, name)
		return true
	})
	want := []string{"ground", "decor", "decor/spawns", "decor/sky", "top"}
	if len(names) != len(want) {
		t.Fatalf("layers = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("layer[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestParseMapLayerKinds(t *testing.T) {
	m, err := ParseMap([]byte(sampleMap))
	if err != nil {
		t.Fatal(err)
	}
	ground, ok := m.Layers[0].(*TileLayer)
	if !ok {
		t.Fatalf("layer 0 is %T", m.Layers[0])
	}
	if ground.Alpha() != 0.5 || !ground.IsVisible() {
		t.Errorf("ground alpha=%v visible=%v", ground.Alpha(), ground.IsVisible())
	}
	gids, err := ground.Data.Decode(ground.Width, ground.Height)
	if err != nil {
		t.Fatalf("decode ground: %v", err)
	}
	if gids[0] != 1 || gids[7] != 8 {
		t.Errorf("gids = %v", gids)
	}

	group, ok := m.Layers[1].(*GroupLayer)
	if !ok {
		t.Fatalf("layer 1 is %T", m.Layers[1])
	}
	if group.OffsetX != 16 || group.OffsetY != 8 || group.TintColor != "#ff0000" {
		t.Errorf("group = %+v", group.LayerCommon)
	}
	spawns, ok := group.Layers[0].(*ObjectGroup)
	if !ok {
		t.Fatalf("group child 0 is %T", group.Layers[0])
	}
	if spawns.IsVisible() {
		t.Error("spawns should be hidden")
	}
	sky, ok := group.Layers[1].(*ImageLayer)
	if !ok {
		t.Fatalf("group child 1 is %T", group.Layers[1])
	}
	if !sky.RepeatX || sky.Image == nil || sky.Image.Source != "sky.png" {
		t.Errorf("sky = %+v", sky)
	}
}

func TestParseMapObjects(t *testing.T) {
	m, err := ParseMap([]byte(sampleMap))
	if err != nil {
		t.Fatal(err)
	}
	spawns := m.Layers[1].(*GroupLayer).Layers[0].(*ObjectGroup)
	if len(spawns.Objects) != 2 {
		t.Fatalf("objects = %d", len(spawns.Objects))
	}
	start := spawns.Objects[0]
	if start.Name.Or("") != "start" || start.Type.Or("") != "spawn" || start.X.Or(0) != 32 || start.Y.Or(0) != 64 {
		t.Errorf("start = %+v", start)
	}
	if s, ok := start.Shape.Get(); !ok || s.Kind != ShapePoint {
		t.Errorf("start shape = %v", start.Shape)
	}
	crate := spawns.Objects[1]
	if crate.Template != "crate.tx" {
		t.Errorf("Template = %q", crate.Template)
	}
	if crate.Width.IsSet() || crate.Name.IsSet() || crate.Shape.IsSet() || crate.Visible.IsSet() {
		t.Error("attributes missing from the document must stay unset")
	}
}

func TestParseMapErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"unsupported orientation", `<map orientation="octagonal" tilewidth="32" tileheight="32"/>`, ErrUnsupportedOrientation},
		{"missing orientation", `<map tilewidth="32" tileheight="32"/>`, ErrDocument},
		{"missing tilewidth", `<map orientation="orthogonal" tileheight="32"/>`, ErrDocument},
		{"zero tile size", `<map orientation="orthogonal" tilewidth="0" tileheight="32"/>`, ErrDocument},
		{"bad number", `<map orientation="orthogonal" tilewidth="wide" tileheight="32"/>`, ErrDocument},
		{"missing firstgid", `<map orientation="orthogonal" tilewidth="32" tileheight="32"><tileset source="a.tsx"/></map>`, ErrDocument},
		{"wrong root", `<tileset name="x" tilewidth="32" tileheight="32"/>`, ErrDocument},
		{"malformed", `<map orientation="orthogonal"`, ErrDocument},
		{"empty", ``, ErrDocument},
		{"conflicting shapes", `<map orientation="orthogonal" tilewidth="32" tileheight="32">
			<objectgroup><object id="1"><ellipse/><point/></object></objectgroup></map>`, ErrDocument},
		{"bad points", `<map orientation="orthogonal" tilewidth="32" tileheight="32">
			<objectgroup><object id="1"><polygon points="0,0 1"/></object></objectgroup></map>`, ErrDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMap([]byte(tt.doc))
			if m != nil {
				t.Error("expected no map")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseMapUnsupportedOrientationDetails(t *testing.T) {
	_, err := ParseMap([]byte(`<map orientation="octagonal" tilewidth="32" tileheight="32"/>`))
	var oe *UnsupportedOrientationError
	if !errors.As(err, &oe) || oe.Orientation != "octagonal" {
		t.Errorf("err = %v", err)
	}
}

func TestParseMapStagger(t *testing.T) {
	m, err := ParseMap([]byte(`<map orientation="staggered" staggeraxis="x" staggerindex="even" tilewidth="64" tileheight="32"/>`))
	if err != nil {
		t.Fatal(err)
	}
	if m.StaggerAxis != StaggerAxisX || m.StaggerIndex != StaggerEven {
		t.Errorf("stagger = %s/%s", m.StaggerAxis, m.StaggerIndex)
	}
}

func TestParseTileset(t *testing.T) {
	ts, err := ParseTileset([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<tileset version="1.10" name="terrain" tilewidth="32" tileheight="32" spacing="1" margin="2" tilecount="64" columns="8">
 <image source="../img/terrain.png" width="256" height="256"/>
 <tile id="3" class="wall"><properties><property name="solid" type="bool" value="true"/></properties></tile>
</tileset>`))
	if err != nil {
		t.Fatal(err)
	}
	if ts.Name != "terrain" || ts.Spacing != 1 || ts.Margin != 2 || ts.IsImageCollection() {
		t.Errorf("tileset = %+v", ts)
	}
	if b, err := ts.Tiles[0].Properties.Bool("solid"); err != nil || !b {
		t.Errorf("solid = %v, %v", b, err)
	}
}

func TestParseTilesetInvalidSize(t *testing.T) {
	_, err := ParseTileset([]byte(`<tileset name="x" tilewidth="0" tileheight="32"/>`))
	if !errors.Is(err, ErrDocument) {
		t.Errorf("err = %v, want ErrDocument", err)
	}
}

func TestParseTemplate(t *testing.T) {
	tmpl, err := ParseTemplate([]byte(`<template>
 <tileset firstgid="1" source="props.tsx"/>
 <object name="crate" type="prop" gid="3" width="32" height="32" rotation="90">
  <properties><property name="hp" type="int" value="10"/></properties>
 </object>
</template>`))
	if err != nil {
		t.Fatal(err)
	}
	if tmpl.Tileset == nil || tmpl.Tileset.Source != "props.tsx" {
		t.Errorf("tileset = %+v", tmpl.Tileset)
	}
	o := tmpl.Object
	if o.Name.Or("") != "crate" || o.GID.Or(0) != 3 || o.Rotation.Or(0) != 90 || o.X.IsSet() {
		t.Errorf("object = %+v", o)
	}
}

func TestParseTemplateWithoutObject(t *testing.T) {
	_, err := ParseTemplate([]byte(`<template><tileset firstgid="1" source="a.tsx"/></template>`))
	if !errors.Is(err, ErrDocument) {
		t.Errorf("err = %v, want ErrDocument", err)
	}
}

func TestParseDocument(t *testing.T) {
	tests := []struct {
		doc   string
		check func(Document) bool
	}{
		{sampleMap, func(d Document) bool { return d.Map != nil && d.Tileset == nil }},
		{`<tileset name="t" tilewidth="8" tileheight="8"/>`, func(d Document) bool { return d.Tileset != nil && d.Map == nil }},
		{`<template><object id="1"/></template>`, func(d Document) bool { return d.Template != nil }},
	}
	for i, tt := range tests {
		doc, err := ParseDocument([]byte(tt.doc))
		if err != nil {
			t.Errorf("doc %d: %v", i, err)
			continue
		}
		if !tt.check(doc) {
			t.Errorf("doc %d: wrong kind %+v", i, doc)
		}
	}
	if _, err := ParseDocument([]byte(`<world/>`)); !errors.Is(err, ErrDocument) {
		t.Errorf("unknown root: err = %v", err)
	}
}

func TestObjectShapes(t *testing.T) {
	doc := `<map orientation="orthogonal" tilewidth="32" tileheight="32"><objectgroup>
 <object id="1" width="10" height="10"/>
 <object id="2"><ellipse/></object>
 <object id="3"><polygon points="0,0 10,0 10,10"/></object>
 <object id="4"><polyline points="0,0 -5.5,2"/></object>
 <object id="5" class="label"><text fontfamily="serif" pixelsize="12" wrap="1">Hello</text></object>
</objectgroup></map>`
	m, err := ParseMap([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	objs := m.Layers[0].(*ObjectGroup).Objects
	if objs[0].Shape.IsSet() {
		t.Error("object without a shape element must leave the shape unset")
	}
	objs[0].InitialiseUnsetValues()
	if s, _ := objs[0].Shape.Get(); s.Kind != ShapeRectangle {
		t.Errorf("default shape = %s", s.Kind)
	}
	kinds := []ShapeKind{ShapeEllipse, ShapePolygon, ShapePolyline, ShapeText}
	for i, want := range kinds {
		s, ok := objs[i+1].Shape.Get()
		if !ok || s.Kind != want {
			t.Errorf("object %d shape = %v, want %s", i+2, objs[i+1].Shape, want)
		}
	}
	poly, _ := objs[3].Shape.Get()
	if len(poly.Points) != 2 || poly.Points[1] != (Vec2{X: -5.5, Y: 2}) {
		t.Errorf("polyline = %v", poly.Points)
	}
	text, _ := objs[4].Shape.Get()
	if text.Text == nil || text.Text.Content != "Hello" || text.Text.PixelSize != 12 || !text.Text.Wrap {
		t.Errorf("text = %+v", text.Text)
	}
	if objs[4].Type.Or("") != "label" {
		t.Errorf("class fallback: type = %v", objs[4].Type)
	}
}

func TestInitialiseUnsetValuesKeepsSetFields(t *testing.T) {
	o := Object{X: Some(5.0), Visible: Some(false)}
	o.InitialiseUnsetValues()
	if o.X.Or(0) != 5 || o.Visible.Or(true) {
		t.Errorf("set fields overwritten: %+v", o)
	}
	if !o.Y.IsSet() || o.Y.Or(1) != 0 || !o.Name.IsSet() {
		t.Errorf("unset fields not defaulted: %+v", o)
	}
}

func TestObjectCloneIsDeep(t *testing.T) {
	o := Object{
		Shape:      Some(Shape{Kind: ShapePolygon, Points: []Vec2{{1, 2}}}),
		Properties: Properties{{Name: "a", Type: PropertyString, Value: "x"}},
	}
	c := o.Clone()
	s, _ := c.Shape.Get()
	s.Points[0].X = 99
	c.Properties[0].Value = "y"
	orig, _ := o.Shape.Get()
	if orig.Points[0].X != 1 || o.Properties[0].Value != "x" {
		t.Error("Clone shares memory with the original")
	}
}
