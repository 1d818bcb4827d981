package common

import (
	"encoding/binary"
	"io"
)

// Frame layout: 4-byte big-endian length prefix, then the payload.
// The prefix width is fixed for the lifetime of a connection.

// WriteFrame writes one length-prefixed frame to w.
func WriteFrame(w io.Writer, payload []byte) error {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(payload)))
	if _, err := w.Write(length); err != nil {
		return err
	}

	_, err := w.Write(payload)
	return err
}

// ReadFrame blocks until one complete frame has been read from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(lenBuf)
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	return data, nil
}

// Decoder reassembles frames from a byte stream delivered in arbitrary
// chunks. Each connection owns its own Decoder; partial input never
// desynchronizes the framing because Next consumes nothing until a whole
// frame is buffered.
type Decoder struct {
	buf []byte
}

// Feed appends newly received bytes to the decode buffer.
func (d *Decoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Next returns the next complete frame, or (nil, false) when the buffer
// does not yet hold one. An incomplete frame leaves the buffer untouched.
func (d *Decoder) Next() ([]byte, bool) {
	if len(d.buf) < 4 {
		return nil, false
	}

	n := binary.BigEndian.Uint32(d.buf[:4])
	if uint32(len(d.buf)-4) < n {
		return nil, false
	}

	frame := make([]byte, n)
	copy(frame, d.buf[4:4+n])
	d.buf = d.buf[4+n:]
	return frame, true
}

// Buffered reports how many undecoded bytes are pending.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}
