package tmximport

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// layerJob is one independently decodable unit: a finite tile layer, one
// chunk of an infinite tile layer, or an object group.
type layerJob struct {
	node  *Node
	chunk *Chunk // nil unless decoding one chunk

	tiles   []TilePlacement
	objects []ObjectPlacement
	diags   []Diagnostic
	failed  bool
}

// buildLayers creates the node tree for layers, then decodes every tile
// layer, chunk and object group on up to workers goroutines. The tile table
// must be complete. A finite tile layer whose payload fails is left out of
// the tree; a failed chunk loses only its own tiles.
func (s *session) buildLayers(layers []Layer, workers, maxDepth int) []*Node {
	var (
		roots []*Node
		jobs  []*layerJob
		order []*Node
	)
	var build func(ls []Layer, parent *Node)
	build = func(ls []Layer, parent *Node) {
		for _, l := range ls {
			n := s.newLayerNode(l)
			if parent == nil {
				roots = append(roots, n)
			} else {
				parent.AddChild(n)
			}
			order = append(order, n)
			if d := n.Depth(); d > maxDepth {
				diag := warnf(CodeDeepNesting, "group depth %d exceeds %d", d, maxDepth)
				diag.Layer, diag.Path = n.Path(), s.path
				s.diags.report(diag)
			}

			switch l := l.(type) {
			case *TileLayer:
				if l.Data != nil && len(l.Data.Chunks) > 0 {
					for i := range l.Data.Chunks {
						jobs = append(jobs, &layerJob{node: n, chunk: &l.Data.Chunks[i]})
					}
				} else {
					jobs = append(jobs, &layerJob{node: n})
				}
			case *ObjectGroup:
				jobs = append(jobs, &layerJob{node: n})
			case *GroupLayer:
				build(l.Layers, n)
			}
		}
	}
	build(layers, nil)

	var g errgroup.Group
	g.SetLimit(workers)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			s.runJob(job)
			return nil
		})
	}
	_ = g.Wait()

	// Report and assemble in document order.
	byNode := make(map[*Node][]*layerJob, len(order))
	for _, job := range jobs {
		byNode[job.node] = append(byNode[job.node], job)
	}
	for _, n := range order {
		for _, job := range byNode[n] {
			s.diags.reportAll(job.diags)
			if job.failed {
				continue
			}
			n.Tiles = append(n.Tiles, job.tiles...)
			n.Objects = append(n.Objects, job.objects...)
		}
	}
	for _, n := range order {
		jobs := byNode[n]
		if len(jobs) == 1 && jobs[0].chunk == nil && jobs[0].failed {
			roots = detach(roots, n)
		}
	}
	return roots
}

func detach(roots []*Node, n *Node) []*Node {
	if n.Parent != nil {
		n.Parent.removeChildByPtr(n)
		n.Parent = nil
		return roots
	}
	out := roots[:0]
	for _, r := range roots {
		if r != n {
			out = append(out, r)
		}
	}
	return out
}

// runJob decodes one job. Problems are recorded on the job.
func (s *session) runJob(job *layerJob) {
	switch l := job.node.Layer.(type) {
	case *TileLayer:
		s.decodeTiles(job, l)
	case *ObjectGroup:
		s.placeObjects(job, l)
	}
}

// newLayerNode converts the attributes every layer shares.
func (s *session) newLayerNode(l Layer) *Node {
	c := l.Common()
	var typ NodeType
	switch l.(type) {
	case *TileLayer:
		typ = NodeTypeTiles
	case *ObjectGroup:
		typ = NodeTypeObjects
	case *ImageLayer:
		typ = NodeTypeImage
	default:
		typ = NodeTypeGroup
	}
	n := newNode(c.Name, typ)
	n.ID = c.ID
	n.Layer = l
	n.Class = c.Class
	n.Properties = c.Properties
	n.Offset = s.grid.PixelOffset(c.OffsetX, c.OffsetY)
	n.Parallax = Vec2{X: c.ParallaxX.Or(1), Y: c.ParallaxY.Or(1)}
	n.Opacity = c.Alpha()
	n.Visible = c.IsVisible()
	if c.TintColor != "" {
		tint, err := ParseColor(c.TintColor)
		if err != nil {
			d := warnf(CodeInvalidValue, "tint color: %v", err)
			d.Layer, d.Path = c.Name, s.path
			s.diags.report(d)
		} else {
			n.Tint = tint
		}
	}
	if il, ok := l.(*ImageLayer); ok && il.Image != nil && il.Image.Source != "" {
		n.Image = &ImagePlacement{
			Source:  ResolvePath(s.path, il.Image.Source),
			Width:   il.Image.Width.Or(0),
			Height:  il.Image.Height.Or(0),
			RepeatX: il.RepeatX,
			RepeatY: il.RepeatY,
		}
	}
	return n
}

// decodeTiles decodes a finite layer or one chunk, resolves every GID and
// maps each cell to the destination grid. Unresolved GIDs become warnings
// and empty cells.
func (s *session) decodeTiles(job *layerJob, l *TileLayer) {
	layerPath := job.node.Path()
	var (
		raw    []uint32
		err    error
		w      int
		ox, oy int
		chunk  string
	)
	switch {
	case l.Data == nil:
		return
	case job.chunk != nil:
		c := job.chunk
		raw, err = c.Decode(l.Data.Encoding, l.Data.Compression)
		w, ox, oy = c.Width, c.X, c.Y
		chunk = fmt.Sprintf("%d,%d", c.X, c.Y)
	default:
		raw, err = l.Data.Decode(l.Width, l.Height)
		w = l.Width
	}
	if err != nil {
		job.failed = true
		msg := "tile layer skipped"
		if chunk != "" {
			msg = "chunk skipped"
		}
		d := errorf(CodePayload, err, "%s", msg)
		d.Layer, d.Chunk, d.Path = layerPath, chunk, s.path
		job.diags = append(job.diags, d)
		return
	}

	for i, v := range raw {
		r := s.table.Resolve(v)
		switch r.Status {
		case StatusEmpty:
			continue
		case StatusUnresolved:
			d := warnf(CodeUnresolvedGID, "gid %d has no tile; cell left empty", r.GID)
			d.Layer, d.Chunk, d.GID, d.Path = layerPath, chunk, r.GID, s.path
			job.diags = append(job.diags, d)
			continue
		}
		col, row := s.grid.Cell(ox, oy, i%w, i/w)
		job.tiles = append(job.tiles, TilePlacement{
			Col:       col,
			Row:       row,
			GID:       r.GID,
			Flags:     r.Flags,
			Tileset:   r.Tileset.Name(),
			Transform: r.Transform,
			Tile:      r.Tile,
		})
	}
}
