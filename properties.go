package tmximport

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

// Property value types as written by Tiled.
const (
	PropertyString = "string"
	PropertyInt    = "int"
	PropertyFloat  = "float"
	PropertyBool   = "bool"
	PropertyColor  = "color"
	PropertyFile   = "file"
	PropertyObject = "object"
	PropertyClass  = "class"
)

// Property is a single custom property. Class properties carry their members
// in Members; every other type stores its value as text.
type Property struct {
	Name         string     `xml:"name,attr" json:"name"`
	Type         string     `xml:"type,attr" json:"type"`
	PropertyType string     `xml:"propertytype,attr" json:"propertytype,omitempty"`
	Value        string     `xml:"value,attr" json:"value"`
	Members      Properties `xml:"properties>property" json:"members,omitempty"`
}

// UnmarshalXML decodes a <property>. Multi-line string values are stored as
// element text instead of the value attribute.
func (p *Property) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	type plain Property
	var raw struct {
		plain
		Text string `xml:",chardata"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	*p = Property(raw.plain)
	if p.Type == "" {
		p.Type = PropertyString
	}
	if p.Value == "" && p.Type != PropertyClass && !hasAttr(start, "value") {
		p.Value = raw.Text
	}
	return nil
}

func hasAttr(start xml.StartElement, name string) bool {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return true
		}
	}
	return false
}

// Properties is an ordered list of custom properties.
type Properties []Property

// Find returns the first property with the given name.
func (ps Properties) Find(name string) (Property, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

func (ps Properties) typed(name, typ string) (Property, error) {
	p, ok := ps.Find(name)
	if !ok {
		return Property{}, fmt.Errorf("%w: %q", ErrPropertyNotFound, name)
	}
	if p.Type != typ {
		return Property{}, fmt.Errorf("%w: %q is %s, want %s", ErrPropertyType, name, p.Type, typ)
	}
	return p, nil
}

// String returns a string property's value.
func (ps Properties) String(name string) (string, error) {
	p, err := ps.typed(name, PropertyString)
	return p.Value, err
}

// Int returns an int property's value.
func (ps Properties) Int(name string) (int, error) {
	p, err := ps.typed(name, PropertyInt)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(p.Value)
}

// Float returns a float property's value.
func (ps Properties) Float(name string) (float64, error) {
	p, err := ps.typed(name, PropertyFloat)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(p.Value, 64)
}

// Bool returns a bool property's value.
func (ps Properties) Bool(name string) (bool, error) {
	p, err := ps.typed(name, PropertyBool)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(p.Value)
}

// Color returns a color property's value.
func (ps Properties) Color(name string) (Color, error) {
	p, err := ps.typed(name, PropertyColor)
	if err != nil {
		return Color{}, err
	}
	return ParseColor(p.Value)
}

// File returns a file property's path, as written (relative to the document).
func (ps Properties) File(name string) (string, error) {
	p, err := ps.typed(name, PropertyFile)
	return p.Value, err
}

// Object returns the object id referenced by an object property. Zero means
// no object.
func (ps Properties) Object(name string) (int, error) {
	p, err := ps.typed(name, PropertyObject)
	if err != nil {
		return 0, err
	}
	if p.Value == "" {
		return 0, nil
	}
	return strconv.Atoi(p.Value)
}

// MergeProperties combines a template's properties with an instance's.
// Entries are identified by name and type. The result keeps the template's
// order with instance values substituted, followed by instance-only entries
// in their own order. Class properties merge their members recursively.
func MergeProperties(template, instance Properties) Properties {
	if len(template) == 0 {
		return clonePropertyList(instance)
	}
	if len(instance) == 0 {
		return clonePropertyList(template)
	}

	type key struct{ name, typ string }
	used := make([]bool, len(instance))
	index := make(map[key]int, len(instance))
	for i, p := range instance {
		k := key{p.Name, p.Type}
		if _, dup := index[k]; !dup {
			index[k] = i
		}
	}

	out := make(Properties, 0, len(template)+len(instance))
	for _, tp := range template {
		i, ok := index[key{tp.Name, tp.Type}]
		if !ok {
			out = append(out, cloneProperty(tp))
			continue
		}
		used[i] = true
		ip := cloneProperty(instance[i])
		if tp.Type == PropertyClass {
			ip.Members = MergeProperties(tp.Members, instance[i].Members)
			if ip.PropertyType == "" {
				ip.PropertyType = tp.PropertyType
			}
		}
		out = append(out, ip)
	}
	for i, p := range instance {
		if !used[i] {
			out = append(out, cloneProperty(p))
		}
	}
	return out
}

func cloneProperty(p Property) Property {
	p.Members = clonePropertyList(p.Members)
	return p
}

func clonePropertyList(ps Properties) Properties {
	if ps == nil {
		return nil
	}
	out := make(Properties, len(ps))
	for i, p := range ps {
		out[i] = cloneProperty(p)
	}
	return out
}

// Merge is MergeProperties with ps as the template side.
func (ps Properties) Merge(instance Properties) Properties {
	return MergeProperties(ps, instance)
}
