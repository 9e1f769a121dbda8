package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// maxFrameBytes bounds a single decoded frame to guard against a
// misbehaving peer claiming an unreasonable length.
const maxFrameBytes = 16 << 20 // 16 MiB

// Encode marshals v to CBOR.
func Encode(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

// Decode unmarshals CBOR bytes into v.
func Decode(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// WriteFrame writes v to w as a CBOR payload prefixed by its 4-byte
// big-endian length, the self-describing length-prefixed encoding the
// request/response protocols use on top of a raw libp2p stream.
func WriteFrame(w io.Writer, v any) error {
	payload, err := Encode(v)
	if err != nil {
		return fmt.Errorf("wire: encode frame: %w", err)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("wire: write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads a length-prefixed CBOR payload from r into v.
func ReadFrame(r io.Reader, v any) error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return fmt.Errorf("wire: read frame length: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameBytes {
		return fmt.Errorf("wire: frame of %d bytes exceeds limit", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("wire: read frame payload: %w", err)
	}
	return Decode(payload, v)
}
