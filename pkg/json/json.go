// Package json provides goccy/go-json serialization over pooled buffers for
// stats snapshots and configuration dumps.
package json

import (
	"io"

	gojson "github.com/goccy/go-json"
	"github.com/valyala/bytebufferpool"
)

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a drop-in replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// MarshalToWriter encodes v to w followed by a newline. A non-empty indent
// pretty-prints the output.
func MarshalToWriter(w io.Writer, v interface{}, indent string) error {
	buf, err := MarshalToBuffer(v, indent)
	if err != nil {
		return err
	}
	defer ReleaseBuffer(buf)

	_, err = buf.WriteTo(w)
	return err
}

// MarshalToBuffer encodes v into a pooled buffer. The caller owns the buffer
// and must hand it back with ReleaseBuffer.
func MarshalToBuffer(v interface{}, indent string) (*bytebufferpool.ByteBuffer, error) {
	buf := bytebufferpool.Get()

	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		bytebufferpool.Put(buf)
		return nil, err
	}
	return buf, nil
}

// ReleaseBuffer returns a buffer obtained from MarshalToBuffer to the pool.
func ReleaseBuffer(buf *bytebufferpool.ByteBuffer) {
	if buf != nil {
		bytebufferpool.Put(buf)
	}
}

// StreamingEncoder writes a sequence of values either as a JSON array or as
// line-delimited JSON.
type StreamingEncoder struct {
	writer  io.Writer
	isArray bool
	first   bool
	err     error
}

// NewStreamingEncoder creates a new streaming encoder
func NewStreamingEncoder(w io.Writer, isArray bool) *StreamingEncoder {
	se := &StreamingEncoder{writer: w, isArray: isArray, first: true}
	if isArray {
		se.write([]byte{'['})
	}
	return se
}

// Encode appends one value. The first write error is sticky.
func (se *StreamingEncoder) Encode(v interface{}) error {
	if se.err != nil {
		return se.err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	data, err := gojson.Marshal(v)
	if err != nil {
		return err
	}
	if se.isArray && !se.first {
		buf.WriteByte(',')
	}
	se.first = false
	buf.Write(data)
	if !se.isArray {
		buf.WriteByte('\n')
	}
	se.write(buf.B)
	return se.err
}

// Close finalizes the encoding
func (se *StreamingEncoder) Close() error {
	if se.isArray {
		se.write([]byte{']', '\n'})
	}
	return se.err
}

func (se *StreamingEncoder) write(p []byte) {
	if se.err != nil {
		return
	}
	_, se.err = se.writer.Write(p)
}
