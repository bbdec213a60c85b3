package tmximport

// placeObjects merges every object of an object group with its template,
// defaults what is still unset and places it on the destination grid.
func (s *session) placeObjects(job *layerJob, og *ObjectGroup) {
	layerPath := job.node.Path()
	job.objects = make([]ObjectPlacement, 0, len(og.Objects))
	for i := range og.Objects {
		p, diags := s.placeObject(og.Objects[i], layerPath)
		job.objects = append(job.objects, p)
		job.diags = append(job.diags, diags...)
	}
}

func (s *session) placeObject(obj Object, layerPath string) (ObjectPlacement, []Diagnostic) {
	var diags []Diagnostic
	merged := obj
	var tmplTable *TileTable

	if obj.Template != "" {
		path := ResolvePath(s.path, obj.Template)
		lt, err := s.template(path)
		if err != nil {
			d := errorf(CodeTemplateLoad, err, "object %d: template unavailable, using instance fields only", obj.ID.Or(0))
			d.Layer, d.Path = layerPath, path
			diags = append(diags, d)
			merged = obj.Clone()
		} else {
			merged = MergeObject(*lt.Template.Object, obj)
			// A gid the instance does not override belongs to the
			// template's own tileset.
			if !obj.GID.IsSet() {
				tmplTable = lt.Table
			}
		}
	} else {
		merged = obj.Clone()
	}
	merged.InitialiseUnsetValues()

	tw, th := float64(s.cellW), float64(s.cellH)
	p := ObjectPlacement{
		ID:         merged.ID.Or(0),
		Name:       merged.Name.Or(""),
		Type:       merged.Type.Or(""),
		Position:   s.grid.ObjectPosition(merged.X.Or(0), merged.Y.Or(0)),
		Size:       Vec2{X: merged.Width.Or(0) / tw, Y: merged.Height.Or(0) / th},
		Rotation:   merged.Rotation.Or(0),
		Visible:    merged.Visible.Or(true),
		Shape:      merged.Shape.Or(Shape{}),
		Template:   obj.Template,
		Transform:  Identity,
		Properties: merged.Properties,
		Source:     merged,
	}

	if raw := merged.GID.Or(0); raw != 0 {
		table := s.table
		if tmplTable != nil {
			table = tmplTable
		} else if obj.Template != "" && !obj.GID.IsSet() {
			// Template without a tileset: nothing to resolve against.
			table = NewTileTable(s.cellW, s.cellH)
		}
		r := table.Resolve(raw)
		p.GID, p.Flags = r.GID, r.Flags
		if r.Status == StatusResolved {
			p.Tile = r.Tile
			p.Transform = r.Transform
			if p.Type == "" {
				p.Type = r.Tile.Type
			}
		} else {
			d := warnf(CodeUnresolvedGID, "object %d: gid %d has no tile", p.ID, r.GID)
			d.Layer, d.GID, d.Path = layerPath, r.GID, s.path
			diags = append(diags, d)
		}
	}
	return p, diags
}
