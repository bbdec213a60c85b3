package ecs

import (
	"github.com/phanxgames/tmximport"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// LayerData is the component of a layer entity.
type LayerData struct {
	ID         int
	Name       string
	Path       string
	Type       tmximport.NodeType
	Parent     donburi.Entity // donburi.Null for top-level layers
	Offset     tmximport.Vec2
	Opacity    float64
	Visible    bool
	Properties tmximport.Properties
	Image      *tmximport.ImagePlacement
}

// TileData is the component of a tile entity.
type TileData struct {
	Layer     donburi.Entity
	Col, Row  int
	GID       uint32
	Flags     tmximport.FlipFlags
	Transform tmximport.Matrix
	Tile      *tmximport.TileInfo
}

// ObjectData is the component of an object entity.
type ObjectData struct {
	Layer  donburi.Entity
	Object tmximport.ObjectPlacement
}

var (
	LayerComponent  = donburi.NewComponentType[LayerData]()
	TileComponent   = donburi.NewComponentType[TileData]()
	ObjectComponent = donburi.NewComponentType[ObjectData]()

	// ColliderTag marks tiles whose tileset tile has a collision shape.
	ColliderTag = donburi.NewTag()
	// FlippedTag marks tiles drawn with a non-identity flip transform.
	FlippedTag = donburi.NewTag()
)

// DiagnosticEventType is the Donburi event type for import diagnostics.
// Subscribe to this in your ECS systems to surface import problems.
var DiagnosticEventType = events.NewEventType[tmximport.Diagnostic]()

// Result reports what Build created.
type Result struct {
	Layers  map[*tmximport.Node]donburi.Entity
	Tiles   int
	Objects int
}

// Build creates entities for every layer, tile and object of scene and
// queues its diagnostics on DiagnosticEventType. Layers are created parents
// first, in document order.
func Build(world donburi.World, scene *tmximport.Scene) Result {
	res := Result{Layers: make(map[*tmximport.Node]donburi.Entity)}
	scene.Walk(func(n *tmximport.Node) bool {
		parent := donburi.Null
		if n.Parent != nil {
			parent = res.Layers[n.Parent]
		}
		le := world.Create(LayerComponent)
		LayerComponent.Set(world.Entry(le), &LayerData{
			ID:         n.ID,
			Name:       n.Name,
			Path:       n.Path(),
			Type:       n.Type,
			Parent:     parent,
			Offset:     n.Offset,
			Opacity:    n.Opacity,
			Visible:    n.Visible,
			Properties: n.Properties,
			Image:      n.Image,
		})
		res.Layers[n] = le

		for i := range n.Tiles {
			t := &n.Tiles[i]
			comps := []donburi.IComponentType{TileComponent}
			if t.Tile != nil && t.Tile.HasCollision {
				comps = append(comps, ColliderTag)
			}
			if !t.Transform.IsIdentity() {
				comps = append(comps, FlippedTag)
			}
			e := world.Create(comps...)
			TileComponent.Set(world.Entry(e), &TileData{
				Layer:     le,
				Col:       t.Col,
				Row:       t.Row,
				GID:       t.GID,
				Flags:     t.Flags,
				Transform: t.Transform,
				Tile:      t.Tile,
			})
			res.Tiles++
		}
		for i := range n.Objects {
			e := world.Create(ObjectComponent)
			ObjectComponent.Set(world.Entry(e), &ObjectData{Layer: le, Object: n.Objects[i]})
			res.Objects++
		}
		return true
	})
	for _, d := range scene.Diagnostics {
		DiagnosticEventType.Publish(world, d)
	}
	return res
}

// SceneBuilder is a tmximport.MapHandler that builds every imported scene
// into a world.
type SceneBuilder struct {
	world donburi.World
	last  Result
}

// NewSceneBuilder creates a handler that calls Build on world.
func NewSceneBuilder(world donburi.World) *SceneBuilder {
	return &SceneBuilder{world: world}
}

// HandleMap implements tmximport.MapHandler.
func (b *SceneBuilder) HandleMap(scene *tmximport.Scene) error {
	b.last = Build(b.world, scene)
	return nil
}

// Last returns the result of the most recent build.
func (b *SceneBuilder) Last() Result {
	return b.last
}
