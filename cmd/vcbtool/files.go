package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/vib3/vcb/cmdbuf"
)

const (
	formatBinary = "binary"
	formatJSON   = "json"
)

// loadBuffer reads a VCB1 frame or a JSON document, sniffing the magic.
// It returns the buffer, the detected format and the VCB1 encoding.
func loadBuffer(path string) (*cmdbuf.Buffer, string, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", nil, err
	}
	if len(data) >= 4 && binary.BigEndian.Uint32(data) == cmdbuf.Magic {
		buf, err := cmdbuf.FromBinary(data)
		if err != nil {
			return nil, "", nil, fmt.Errorf("%s: %w", path, err)
		}
		return buf, formatBinary, data, nil
	}
	buf, err := cmdbuf.FromJSON(data)
	if err != nil {
		return nil, "", nil, fmt.Errorf("%s: %w", path, err)
	}
	frame, err := buf.ToBinary()
	if err != nil {
		return nil, "", nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf, formatJSON, frame, nil
}

func saveBuffer(path, format string, buf *cmdbuf.Buffer) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case formatBinary:
		data, err = buf.ToBinary()
	case formatJSON:
		data, err = buf.ToJSON()
	default:
		return fmt.Errorf("unknown format %q (want json or binary)", format)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
