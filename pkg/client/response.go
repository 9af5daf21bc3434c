package client

import (
	"bytes"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.Config{
	EscapeHTML:             false,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string

	// FromCache is true when the body came from the response cache.
	FromCache bool
}

// IsJSON reports whether the body is exactly one JSON value. Text that
// merely starts with JSON, such as "200 OK", is not JSON.
func (r *Response) IsJSON() bool {
	return singleValue(r.Body)
}

// singleValue skips one value and requires only whitespace after it. A
// trailing newline terminates a bare top-level number for the iterator.
func singleValue(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false
	}
	buf := make([]byte, 0, len(trimmed)+1)
	buf = append(append(buf, trimmed...), '\n')

	iter := json.BorrowIterator(buf)
	defer json.ReturnIterator(iter)
	iter.Skip()
	if iter.Error != nil {
		return false
	}
	iter.WhatIsNext()
	return iter.Error == io.EOF
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Payload returns the body as a JSON value. A body that is not JSON is
// returned as a JSON string holding the raw text.
func (r *Response) Payload() jsoniter.RawMessage {
	if r.IsJSON() {
		return jsoniter.RawMessage(bytes.TrimSpace(r.Body))
	}
	text, _ := json.Marshal(r.Text())
	return text
}

// Data unwraps the conventional {"data": ...} envelope. When the payload
// is not an object with a "data" key, the whole payload is returned.
func (r *Response) Data() jsoniter.RawMessage {
	payload := r.Payload()
	if fields, ok := Object(payload); ok {
		if data, ok := fields["data"]; ok {
			return data
		}
	}
	return payload
}

// Object decodes raw as a JSON object, preserving each member's raw bytes.
func Object(raw jsoniter.RawMessage) (map[string]jsoniter.RawMessage, bool) {
	if jsoniter.Get(raw).ValueType() != jsoniter.ObjectValue {
		return nil, false
	}
	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	return fields, true
}
