package cmdbuf

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// document is the JSON shape shared with every other client:
// {version, sealed, commands:[{type, data, timestamp}]}.
type document struct {
	Version  uint64        `json:"version"`
	Sealed   bool          `json:"sealed"`
	Commands []wireCommand `json:"commands"`
}

type wireCommand struct {
	Type      CommandType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp float64         `json:"timestamp"`
}

// MarshalJSON encodes the buffer in the shared JSON document form.
func (b *Buffer) MarshalJSON() ([]byte, error) {
	doc := document{
		Version:  b.version,
		Sealed:   b.sealed,
		Commands: make([]wireCommand, len(b.commands)),
	}
	for i, cmd := range b.commands {
		data, err := json.Marshal(cmd.Data)
		if err != nil {
			return nil, fmt.Errorf("cmdbuf: encode command %d (%s): %w", i, cmd.Type(), err)
		}
		doc.Commands[i] = wireCommand{Type: cmd.Type(), Data: data, Timestamp: cmd.Timestamp}
	}
	return json.Marshal(doc)
}

// ToJSON is shorthand for json.Marshal(b).
func (b *Buffer) ToJSON() ([]byte, error) { return b.MarshalJSON() }

// FromJSON reconstructs a buffer from its JSON document form. Command order,
// payloads, timestamps and the sealed flag are preserved; the result gets a
// fresh version. Any decoding problem, including bytes after the document,
// fails with ErrFormat and no buffer is returned.
func FromJSON(data []byte, opts ...Option) (*Buffer, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return fromDocument(&doc, opts)
}

func fromDocument(doc *document, opts []Option) (*Buffer, error) {
	commands := make([]Command, 0, len(doc.Commands))
	for i, wc := range doc.Commands {
		p, err := decodePayload(wc.Type, wc.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: command %d: %w", ErrFormat, i, err)
		}
		commands = append(commands, Command{Data: p, Timestamp: wc.Timestamp})
	}
	b := New(opts...)
	b.commands = append(b.commands, commands...)
	b.sealed = doc.Sealed
	return b, nil
}

func decodePayload(t CommandType, raw json.RawMessage) (Payload, error) {
	p, err := newPayload(t)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", t, err)
		}
	}
	p = deref(p)
	if proj, ok := p.(ProjectionCommand); ok {
		if err := proj.Validate(); err != nil {
			return nil, err
		}
	}
	return p, nil
}
