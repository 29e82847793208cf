package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	ErrInvalidPayload = errors.New("event: payload is not a JSON object")
	ErrMissingType    = errors.New("event: missing type")
)

// Event is one inbound Rachio notification. Fields holds the decoded payload
// with numbers kept as json.Number; Raw is the body as sent,
// without surrounding whitespace.
type Event struct {
	Category string
	SubType  string
	Fields   map[string]any
	Raw      json.RawMessage
}

func ParseEvent(body []byte) (*Event, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if fields == nil {
		return nil, ErrInvalidPayload
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrInvalidPayload)
	}

	category, _ := fields["type"].(string)
	if category == "" {
		return nil, ErrMissingType
	}
	subType, _ := fields["subType"].(string)

	return &Event{
		Category: category,
		SubType:  subType,
		Fields:   fields,
		Raw:      json.RawMessage(bytes.TrimSpace(body)),
	}, nil
}

// String returns the field rendered as text, or "" when it is absent or null.
func (e *Event) String(key string) string {
	v, ok := e.Fields[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Number returns a numeric field. Numeric strings are accepted too.
func (e *Event) Number(key string) (json.Number, bool) {
	switch val := e.Fields[key].(type) {
	case json.Number:
		return val, true
	case string:
		n := json.Number(val)
		if _, err := n.Float64(); err != nil {
			return "", false
		}
		return n, true
	default:
		return "", false
	}
}
