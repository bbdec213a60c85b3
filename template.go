package tmximport

// MergeObject combines a template object with an instance that references
// it. The result starts as a copy of template; every field set on instance
// replaces the template's, and properties merge by name and type. Only one
// level is resolved: the template's own template reference is ignored.
func MergeObject(template, instance Object) Object {
	out := template.Clone()
	out.ID.Override(instance.ID)
	out.Name.Override(instance.Name)
	out.Type.Override(instance.Type)
	out.X.Override(instance.X)
	out.Y.Override(instance.Y)
	out.Width.Override(instance.Width)
	out.Height.Override(instance.Height)
	out.Rotation.Override(instance.Rotation)
	out.GID.Override(instance.GID)
	out.Visible.Override(instance.Visible)
	if s, ok := instance.Shape.Get(); ok {
		out.Shape = Some(s.clone())
	}
	out.Template = instance.Template
	out.Properties = MergeProperties(template.Properties, instance.Properties)
	return out
}

// LoadedTemplate is a parsed template with its tileset imported. A template
// that failed to load keeps Err set.
type LoadedTemplate struct {
	Path     string
	Template *Template
	Table    *TileTable // nil when the template has no tileset
	Err      error
}

// template loads the template at the resolved path, at most once per session.
// Concurrent callers asking for the same path share one load. Failures are
// cached too, and returned as *TemplateLoadError.
func (s *session) template(path string) (*LoadedTemplate, error) {
	s.tmplMu.Lock()
	lt, ok := s.templates[path]
	s.tmplMu.Unlock()
	if !ok {
		v, _, _ := s.tmplGroup.Do(path, func() (any, error) {
			s.tmplMu.Lock()
			cached, ok := s.templates[path]
			s.tmplMu.Unlock()
			if ok {
				return cached, nil
			}
			loaded := s.loadTemplate(path)
			s.tmplMu.Lock()
			s.templates[path] = loaded
			s.tmplMu.Unlock()
			return loaded, nil
		})
		lt = v.(*LoadedTemplate)
	}
	if lt.Err != nil {
		return lt, lt.Err
	}
	return lt, nil
}

func (s *session) loadTemplate(path string) *LoadedTemplate {
	lt := &LoadedTemplate{Path: path}
	data, err := s.reader.ReadFile(path)
	if err != nil {
		lt.Err = &TemplateLoadError{Path: path, Err: err}
		return lt
	}
	t, err := ParseTemplate(data)
	if err != nil {
		lt.Err = &TemplateLoadError{Path: path, Err: err}
		return lt
	}
	lt.Template = t
	s.log.WithField("path", path).Debug("template loaded")

	if t.Tileset == nil {
		return lt
	}
	set, diags := s.importTileset(path, *t.Tileset)
	s.diags.reportAll(diags)
	// A single range cannot overlap anything.
	lt.Table = NewTileTable(s.cellW, s.cellH)
	_ = lt.Table.Add(t.Tileset.FirstGID, set)
	return lt
}
