package tmximport

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below match them with errors.Is so callers
// can branch on the category without caring about the details.
var (
	ErrDocument               = errors.New("tmximport: invalid document")
	ErrPayloadLength          = errors.New("tmximport: payload length mismatch")
	ErrPayload                = errors.New("tmximport: invalid payload")
	ErrUnresolvedGID          = errors.New("tmximport: unresolved gid")
	ErrUnsupportedOrientation = errors.New("tmximport: unsupported orientation")
	ErrTilesetImport          = errors.New("tmximport: tileset import failed")
	ErrTemplateLoad           = errors.New("tmximport: template load failed")
	ErrPropertyNotFound       = errors.New("tmximport: property not found")
	ErrPropertyType           = errors.New("tmximport: property has a different type")
)

// DocumentError reports a map, tileset or template document that could not be
// decoded: malformed markup, an unexpected root element or a missing required
// attribute. It is fatal to the file it names.
type DocumentError struct {
	Path string // empty when parsing from memory
	Msg  string
	Err  error
}

func (e *DocumentError) Error() string {
	msg := "tmximport: "
	if e.Path != "" {
		msg += e.Path + ": "
	}
	msg += e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DocumentError) Unwrap() error { return e.Err }

func (e *DocumentError) Is(target error) bool { return target == ErrDocument }

func documentErrorf(err error, format string, args ...any) *DocumentError {
	return &DocumentError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// PayloadLengthMismatch reports a decoded tile payload whose size does not
// match the declared width × height. The layer or chunk is skipped.
type PayloadLengthMismatch struct {
	Want int    // expected count
	Got  int    // decoded count
	Unit string // "tiles" or "bytes"
}

func (e *PayloadLengthMismatch) Error() string {
	return fmt.Sprintf("tmximport: payload length mismatch: got %d %s, want %d", e.Got, e.Unit, e.Want)
}

func (e *PayloadLengthMismatch) Is(target error) bool { return target == ErrPayloadLength }

// PayloadError reports a payload that could not be decoded at all: an unknown
// encoding or compression, corrupt base64 or compressed data, or a CSV value
// that is not an unsigned 32-bit integer.
type PayloadError struct {
	Encoding    string
	Compression string
	Msg         string
	Err         error
}

func (e *PayloadError) Error() string {
	msg := fmt.Sprintf("tmximport: payload (encoding=%q compression=%q): %s", e.Encoding, e.Compression, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PayloadError) Unwrap() error { return e.Err }

func (e *PayloadError) Is(target error) bool { return target == ErrPayload }

// UnsupportedOrientationError reports a map orientation other than orthogonal,
// isometric, hexagonal or staggered. Import of the map stops before any layer
// is processed.
type UnsupportedOrientationError struct {
	Orientation string
}

func (e *UnsupportedOrientationError) Error() string {
	return fmt.Sprintf("tmximport: unsupported orientation %q", e.Orientation)
}

func (e *UnsupportedOrientationError) Is(target error) bool {
	return target == ErrUnsupportedOrientation
}

// TilesetImportError reports a tileset that could not be loaded, measured or
// sliced. Every GID in its range resolves as unresolved.
type TilesetImportError struct {
	FirstGID uint32
	Source   string
	Err      error
}

func (e *TilesetImportError) Error() string {
	src := e.Source
	if src == "" {
		src = "<embedded>"
	}
	return fmt.Sprintf("tmximport: tileset %s (firstgid %d): %v", src, e.FirstGID, e.Err)
}

func (e *TilesetImportError) Unwrap() error { return e.Err }

func (e *TilesetImportError) Is(target error) bool { return target == ErrTilesetImport }

// TemplateLoadError reports an object template that is missing or unparsable.
// The object falls back to its own fields.
type TemplateLoadError struct {
	Path string
	Err  error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("tmximport: template %s: %v", e.Path, e.Err)
}

func (e *TemplateLoadError) Unwrap() error { return e.Err }

func (e *TemplateLoadError) Is(target error) bool { return target == ErrTemplateLoad }
