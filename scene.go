package tmximport

import (
	"encoding/json"
	"fmt"
)

// NodeType distinguishes the payload a Node carries.
type NodeType uint8

const (
	NodeTypeGroup   NodeType = iota // nests other nodes
	NodeTypeTiles                   // tile placements
	NodeTypeObjects                 // object placements
	NodeTypeImage                   // a single image
)

var nodeTypeNames = [...]string{"group", "tiles", "objects", "image"}

func (t NodeType) String() string {
	if int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", t)
}

// MarshalJSON encodes the type by name.
func (t NodeType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Node is one layer of the imported scene. A single flat struct is used for
// all layer kinds; Type says which payload fields are populated.
type Node struct {
	// Identity
	ID   int
	Name string
	Type NodeType

	// Hierarchy
	Parent   *Node
	children []*Node

	// Placement, cell units (Y up)
	Offset   Vec2
	Parallax Vec2

	// Appearance
	Opacity float64
	Visible bool
	Tint    Color

	// Metadata
	Class      string
	Properties Properties
	Layer      Layer // source layer

	// Payload
	Tiles   []TilePlacement   // NodeTypeTiles
	Objects []ObjectPlacement // NodeTypeObjects
	Image   *ImagePlacement   // NodeTypeImage
}

// newNode creates a node with the common defaults.
func newNode(name string, typ NodeType) *Node {
	return &Node{
		Name:     name,
		Type:     typ,
		Opacity:  1,
		Visible:  true,
		Tint:     ColorWhite,
		Parallax: Vec2{X: 1, Y: 1},
	}
}

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("tmximport: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("tmximport: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// Depth returns the number of ancestors.
func (n *Node) Depth() int {
	d := 0
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// Walk visits n and its descendants depth-first in document order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Path returns the slash-joined names from the top-level layer down to n.
func (n *Node) Path() string {
	if n.Parent == nil {
		return n.Name
	}
	return n.Parent.Path() + "/" + n.Name
}

func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// MarshalJSON encodes the node and its children, omitting the parent link.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         int               `json:"id"`
		Name       string            `json:"name"`
		Type       NodeType          `json:"type"`
		Offset     Vec2              `json:"offset"`
		Parallax   Vec2              `json:"parallax"`
		Opacity    float64           `json:"opacity"`
		Visible    bool              `json:"visible"`
		Tint       Color             `json:"tint"`
		Class      string            `json:"class,omitempty"`
		Properties Properties        `json:"properties,omitempty"`
		Tiles      []TilePlacement   `json:"tiles,omitempty"`
		Objects    []ObjectPlacement `json:"objects,omitempty"`
		Image      *ImagePlacement   `json:"image,omitempty"`
		Children   []*Node           `json:"children,omitempty"`
	}{
		n.ID, n.Name, n.Type, n.Offset, n.Parallax, n.Opacity, n.Visible, n.Tint,
		n.Class, n.Properties, n.Tiles, n.Objects, n.Image, n.children,
	})
}

// TilePlacement is one non-empty cell of a tile layer.
type TilePlacement struct {
	Col       int       `json:"col"`
	Row       int       `json:"row"`
	GID       uint32    `json:"gid"`
	Flags     FlipFlags `json:"flags,omitempty"`
	Tileset   string    `json:"tileset"`
	Transform Matrix    `json:"transform"`
	Tile      *TileInfo `json:"tile"`
}

// ObjectPlacement is one object after template merge and defaulting.
// Position and Size are in cell units; Rotation stays in Tiled's clockwise
// degrees. Tile fields are set for tile objects that resolved.
type ObjectPlacement struct {
	ID         int        `json:"id"`
	Name       string     `json:"name,omitempty"`
	Type       string     `json:"type,omitempty"`
	Position   Vec2       `json:"position"`
	Size       Vec2       `json:"size"`
	Rotation   float64    `json:"rotation"`
	Visible    bool       `json:"visible"`
	Shape      Shape      `json:"shape"`
	Template   string     `json:"template,omitempty"`
	GID        uint32     `json:"gid,omitempty"`
	Flags      FlipFlags  `json:"flags,omitempty"`
	Transform  Matrix     `json:"transform"`
	Tile       *TileInfo  `json:"tile,omitempty"`
	Properties Properties `json:"properties,omitempty"`
	Source     Object     `json:"-"` // merged object, pixel units
}

// ImagePlacement is the image of an image layer.
type ImagePlacement struct {
	Source  string `json:"source"` // resolved path
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	RepeatX bool   `json:"repeatx,omitempty"`
	RepeatY bool   `json:"repeaty,omitempty"`
}

// Scene is the result of importing one map.
type Scene struct {
	Path        string             `json:"path"`
	Map         *Map               `json:"map"`
	Grid        Grid               `json:"grid"`
	Background  Color              `json:"background"`
	Tilesets    []*ImportedTileset `json:"-"`
	Layers      []*Node            `json:"layers"`
	Properties  Properties         `json:"properties,omitempty"`
	Diagnostics Diagnostics        `json:"diagnostics,omitempty"`
}

// Walk visits every node depth-first in document order.
func (s *Scene) Walk(fn func(*Node) bool) {
	for _, n := range s.Layers {
		n.Walk(fn)
	}
}

// Find returns the first node with the given slash-separated path.
func (s *Scene) Find(path string) *Node {
	var found *Node
	s.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.Path() == path {
			found = n
			return false
		}
		return true
	})
	return found
}

// TileCount returns the number of tile placements in the scene.
func (s *Scene) TileCount() int {
	total := 0
	s.Walk(func(n *Node) bool {
		total += len(n.Tiles)
		return true
	})
	return total
}
