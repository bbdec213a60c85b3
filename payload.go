package tmximport

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Payload encodings and compressions.
const (
	EncodingNone   = ""
	EncodingCSV    = "csv"
	EncodingBase64 = "base64"

	CompressionNone = ""
	CompressionZlib = "zlib"
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

// zlibHeaderSize is the CMF/FLG prefix of a zlib stream. The remainder is a
// raw deflate stream followed by an Adler-32 trailer the inflater never reads.
const zlibHeaderSize = 2

// DecodePayload decodes one layer or chunk payload into exactly w*h raw GIDs
// in row-major order. tiles is used for the unencoded form, text for csv and
// base64. On error nothing is returned.
func DecodePayload(encoding, compression string, tiles []DataTile, text string, w, h int) ([]uint32, error) {
	if w <= 0 || h <= 0 {
		return nil, &PayloadError{Encoding: encoding, Compression: compression, Msg: fmt.Sprintf("invalid size %dx%d", w, h)}
	}
	want := w * h
	if encoding == "none" {
		encoding = EncodingNone
	}
	if compression == "none" {
		compression = CompressionNone
	}
	if compression != CompressionNone && encoding != EncodingBase64 {
		return nil, &PayloadError{Encoding: encoding, Compression: compression, Msg: "compression requires base64 encoding"}
	}
	switch encoding {
	case EncodingNone:
		if len(tiles) != want {
			return nil, &PayloadLengthMismatch{Want: want, Got: len(tiles), Unit: "tiles"}
		}
		out := make([]uint32, want)
		for i, t := range tiles {
			if t.GID == "" {
				continue
			}
			v, err := strconv.ParseUint(strings.TrimSpace(t.GID), 10, 32)
			if err != nil {
				return nil, &PayloadError{Encoding: "xml", Msg: "tile " + strconv.Itoa(i), Err: err}
			}
			out[i] = uint32(v)
		}
		return out, nil

	case EncodingCSV:
		return decodeCSV(text, want)

	case EncodingBase64:
		raw, err := base64.StdEncoding.DecodeString(stripSpace(text))
		if err != nil {
			return nil, &PayloadError{Encoding: encoding, Compression: compression, Msg: "invalid base64", Err: err}
		}
		raw, err = decompress(compression, raw)
		if err != nil {
			return nil, err
		}
		if len(raw) != want*4 {
			return nil, &PayloadLengthMismatch{Want: want * 4, Got: len(raw), Unit: "bytes"}
		}
		out := make([]uint32, want)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(raw[i*4:])
		}
		return out, nil

	default:
		return nil, &PayloadError{Encoding: encoding, Compression: compression, Msg: "unknown encoding"}
	}
}

// Decode decodes a finite layer's payload.
func (d *Data) Decode(w, h int) ([]uint32, error) {
	return DecodePayload(d.Encoding, d.Compression, d.Tiles, d.Text, w, h)
}

// Decode decodes a chunk's payload. Encoding and compression come from the
// enclosing <data> element.
func (c *Chunk) Decode(encoding, compression string) ([]uint32, error) {
	return DecodePayload(encoding, compression, c.Tiles, c.Text, c.Width, c.Height)
}

func decodeCSV(text string, want int) ([]uint32, error) {
	text = strings.TrimSpace(text)
	var fields []string
	if text != "" {
		fields = strings.Split(text, ",")
	}
	// A trailing separator leaves one empty field behind.
	if n := len(fields); n > 0 && strings.TrimSpace(fields[n-1]) == "" {
		fields = fields[:n-1]
	}
	if len(fields) != want {
		return nil, &PayloadLengthMismatch{Want: want, Got: len(fields), Unit: "tiles"}
	}
	out := make([]uint32, want)
	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return nil, &PayloadError{Encoding: EncodingCSV, Msg: "value " + strconv.Itoa(i), Err: err}
		}
		out[i] = uint32(v)
	}
	return out, nil
}

func decompress(compression string, raw []byte) ([]byte, error) {
	fail := func(msg string, err error) error {
		return &PayloadError{Encoding: EncodingBase64, Compression: compression, Msg: msg, Err: err}
	}
	switch compression {
	case CompressionNone:
		return raw, nil

	case CompressionZlib:
		if len(raw) < zlibHeaderSize {
			return nil, fail("truncated zlib header", nil)
		}
		r := flate.NewReader(bytes.NewReader(raw[zlibHeaderSize:]))
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fail("inflate", err)
		}
		return out, nil

	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fail("gzip header", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fail("gunzip", err)
		}
		return out, nil

	case CompressionZstd:
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fail("zstd", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(raw, nil)
		if err != nil {
			return nil, fail("zstd", err)
		}
		return out, nil

	default:
		return nil, fail("unknown compression", nil)
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
