package tmximport

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
)

// Opt is an optional value. Tiled leaves most object and layer attributes out
// of the document when they hold their default, and templates rely on telling
// "absent" apart from "zero", so those fields are decoded into Opt once at
// parse time.
type Opt[T any] struct {
	val T
	set bool
}

// Some returns a set Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{val: v, set: true}
}

// Get returns the value and whether it is set.
func (o Opt[T]) Get() (T, bool) {
	return o.val, o.set
}

// IsSet reports whether the value is present.
func (o Opt[T]) IsSet() bool {
	return o.set
}

// Or returns the value, or def when unset.
func (o Opt[T]) Or(def T) T {
	if o.set {
		return o.val
	}
	return def
}

// Set stores v and marks the value present.
func (o *Opt[T]) Set(v T) {
	o.val = v
	o.set = true
}

// Default stores v only when the value is unset.
func (o *Opt[T]) Default(v T) {
	if !o.set {
		o.Set(v)
	}
}

// Override replaces o with other when other is set.
func (o *Opt[T]) Override(other Opt[T]) {
	if other.set {
		*o = other
	}
}

// UnmarshalXMLAttr implements xml.UnmarshalerAttr.
func (o *Opt[T]) UnmarshalXMLAttr(attr xml.Attr) error {
	if u, ok := any(&o.val).(xml.UnmarshalerAttr); ok {
		if err := u.UnmarshalXMLAttr(attr); err != nil {
			return err
		}
		o.set = true
		return nil
	}
	var err error
	switch p := any(&o.val).(type) {
	case *string:
		*p = attr.Value
	case *int:
		*p, err = strconv.Atoi(attr.Value)
	case *uint32:
		var v uint64
		v, err = strconv.ParseUint(attr.Value, 10, 32)
		*p = uint32(v)
	case *float64:
		*p, err = strconv.ParseFloat(attr.Value, 64)
	case *bool:
		*p, err = strconv.ParseBool(attr.Value)
	default:
		return fmt.Errorf("tmximport: unsupported optional attribute type %T", o.val)
	}
	if err != nil {
		return fmt.Errorf("tmximport: attribute %s=%q: %w", attr.Name.Local, attr.Value, err)
	}
	o.set = true
	return nil
}

// MarshalJSON encodes an unset value as null.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.val)
}

// String implements fmt.Stringer.
func (o Opt[T]) String() string {
	if !o.set {
		return "<unset>"
	}
	return fmt.Sprint(o.val)
}
