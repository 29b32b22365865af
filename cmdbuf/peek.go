package cmdbuf

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// FrameInfo describes a VCB1 frame without decoding its commands.
type FrameInfo struct {
	Header   Header
	Version  uint64 // version recorded in the JSON document
	Sealed   bool
	Commands int
	Types    map[CommandType]int
}

// Peek inspects a VCB1 frame: header fields, command count, the sealed flag
// and a histogram of command types. It is much cheaper than FromBinary for
// routing and logging.
func Peek(data []byte) (FrameInfo, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return FrameInfo{}, err
	}
	body := data[HeaderSize:]
	if uint64(len(body)) < uint64(h.Length) {
		return FrameInfo{}, fmt.Errorf("%w: truncated payload", ErrFormat)
	}
	body = body[:h.Length]
	if !gjson.ValidBytes(body) {
		return FrameInfo{}, fmt.Errorf("%w: payload is not valid JSON", ErrFormat)
	}
	info := FrameInfo{
		Header:  h,
		Version: gjson.GetBytes(body, "version").Uint(),
		Sealed:  gjson.GetBytes(body, "sealed").Bool(),
		Types:   make(map[CommandType]int),
	}
	gjson.GetBytes(body, "commands.#.type").ForEach(func(_, v gjson.Result) bool {
		info.Commands++
		info.Types[CommandType(v.Uint())]++
		return true
	})
	return info, nil
}
