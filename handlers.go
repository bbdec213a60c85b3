package tmximport

import "fmt"

// MapHandler runs once per import after every layer has been built.
type MapHandler interface {
	HandleMap(scene *Scene) error
}

// TilesetHandler runs for each tileset that imported successfully.
type TilesetHandler interface {
	HandleTileset(set *ImportedTileset) error
}

// LayerHandler runs for each layer node, parents before children.
type LayerHandler interface {
	HandleLayer(node *Node) error
}

// ObjectHandler runs for each object placement.
type ObjectHandler interface {
	HandleObject(node *Node, obj *ObjectPlacement) error
}

// TileHandler runs for each tile placement.
type TileHandler interface {
	HandleTile(node *Node, tile *TilePlacement) error
}

// Registry holds import extensions. A handler declares what it handles by
// implementing one or more of the handler interfaces; capabilities are
// resolved once, when the handler is registered. Handlers run in
// registration order.
type Registry struct {
	maps     []MapHandler
	tilesets []TilesetHandler
	layers   []LayerHandler
	objects  []ObjectHandler
	tiles    []TileHandler
	count    int
}

// NewRegistry registers every handler in order.
func NewRegistry(handlers ...any) (*Registry, error) {
	r := &Registry{}
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a handler. It is an error to register a value that implements
// none of the handler interfaces.
func (r *Registry) Register(h any) error {
	if h == nil {
		return fmt.Errorf("tmximport: cannot register nil handler")
	}
	matched := false
	if v, ok := h.(MapHandler); ok {
		r.maps = append(r.maps, v)
		matched = true
	}
	if v, ok := h.(TilesetHandler); ok {
		r.tilesets = append(r.tilesets, v)
		matched = true
	}
	if v, ok := h.(LayerHandler); ok {
		r.layers = append(r.layers, v)
		matched = true
	}
	if v, ok := h.(ObjectHandler); ok {
		r.objects = append(r.objects, v)
		matched = true
	}
	if v, ok := h.(TileHandler); ok {
		r.tiles = append(r.tiles, v)
		matched = true
	}
	if !matched {
		return fmt.Errorf("tmximport: %T implements no handler interface", h)
	}
	r.count++
	return nil
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return r.count
}

// run invokes every handler against the scene in document order. Handler
// errors become diagnostics; they never stop the run.
func (r *Registry) run(scene *Scene, report func(Diagnostic)) {
	if r.Len() == 0 {
		return
	}
	fail := func(h any, n *Node, err error) {
		d := errorf(CodeHandler, err, "handler %T failed", h)
		d.Path = scene.Path
		if n != nil {
			d.Layer = n.Path()
		}
		report(d)
	}

	for _, set := range scene.Tilesets {
		if set.Err != nil {
			continue
		}
		for _, h := range r.tilesets {
			if err := h.HandleTileset(set); err != nil {
				fail(h, nil, err)
			}
		}
	}

	scene.Walk(func(n *Node) bool {
		for _, h := range r.layers {
			if err := h.HandleLayer(n); err != nil {
				fail(h, n, err)
			}
		}
		if len(r.tiles) > 0 {
			for i := range n.Tiles {
				for _, h := range r.tiles {
					if err := h.HandleTile(n, &n.Tiles[i]); err != nil {
						fail(h, n, err)
					}
				}
			}
		}
		for i := range n.Objects {
			for _, h := range r.objects {
				if err := h.HandleObject(n, &n.Objects[i]); err != nil {
					fail(h, n, err)
				}
			}
		}
		return true
	})

	for _, h := range r.maps {
		if err := h.HandleMap(scene); err != nil {
			fail(h, nil, err)
		}
	}
}
