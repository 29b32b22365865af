package cmdbuf

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Wire format constants. A frame is a 12-byte big-endian header followed by
// Length bytes of the JSON document.
const (
	Magic      uint32 = 0x56434231 // "VCB1"
	HeaderSize        = 12

	// MaxPayloadSize bounds the JSON payload accepted by the decoders.
	MaxPayloadSize = 64 << 20
)

// Header is the fixed prefix of a binary frame.
type Header struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

// ParseHeader decodes and checks the first HeaderSize bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrFormat, HeaderSize, len(data))
	}
	h := Header{
		Magic:   binary.BigEndian.Uint32(data[0:4]),
		Version: binary.BigEndian.Uint32(data[4:8]),
		Length:  binary.BigEndian.Uint32(data[8:12]),
	}
	if h.Magic != Magic {
		return Header{}, fmt.Errorf("%w: bad magic 0x%08X", ErrFormat, h.Magic)
	}
	if h.Length > MaxPayloadSize {
		return Header{}, fmt.Errorf("%w: payload length %d exceeds limit", ErrFormat, h.Length)
	}
	return h, nil
}

// AppendTo appends the encoded header to dst.
func (h Header) AppendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, h.Magic)
	dst = binary.BigEndian.AppendUint32(dst, h.Version)
	return binary.BigEndian.AppendUint32(dst, h.Length)
}

// MarshalBinary encodes the buffer as a VCB1 frame. The header version
// carries the low 32 bits of the buffer version.
func (b *Buffer) MarshalBinary() ([]byte, error) {
	payload, err := b.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: payload length %d exceeds limit", ErrFormat, len(payload))
	}
	h := Header{Magic: Magic, Version: uint32(b.version), Length: uint32(len(payload))}
	out := make([]byte, 0, HeaderSize+len(payload))
	out = h.AppendTo(out)
	return append(out, payload...), nil
}

// ToBinary is shorthand for MarshalBinary.
func (b *Buffer) ToBinary() ([]byte, error) { return b.MarshalBinary() }

// WriteTo writes the buffer as one VCB1 frame.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	frame, err := b.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(frame)
	return int64(n), err
}

// FromBinary decodes exactly one VCB1 frame. A bad magic, a truncated
// frame or trailing bytes fail with ErrFormat before any command is built.
func FromBinary(data []byte, opts ...Option) (*Buffer, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[HeaderSize:]
	if uint64(len(body)) != uint64(h.Length) {
		return nil, fmt.Errorf("%w: header declares %d payload bytes, frame has %d",
			ErrFormat, h.Length, len(body))
	}
	return FromJSON(body, opts...)
}

// ReadFrom reads one VCB1 frame from r. It is suitable for consuming a
// stream of concatenated frames.
func ReadFrom(r io.Reader, opts ...Option) (*Buffer, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read header: %w", ErrFormat, err)
	}
	h, err := ParseHeader(hdr[:])
	if err != nil {
		return nil, err
	}
	body := make([]byte, h.Length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("%w: read payload: %w", ErrFormat, err)
	}
	return FromJSON(body, opts...)
}
