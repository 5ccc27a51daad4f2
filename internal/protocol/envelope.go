package protocol

import (
	"bytes"
	"errors"

	"github.com/goccy/go-json"
)

// ErrMalformed reports a frame that could not be decoded as an envelope.
var ErrMalformed = errors.New("malformed protocol envelope")

// FlexID is a correlation identifier that the server emits sometimes as a
// JSON string and sometimes as a bare number. Both decode to the string form.
type FlexID string

// UnmarshalJSON accepts "abc", 123 and null.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// MarshalJSON always emits the string form.
func (f FlexID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// Message is a decoded inbound envelope. Msg stays raw until a handler
// that knows the name decodes it into a typed payload.
type Message struct {
	Name      string          `json:"name"`
	RequestID FlexID          `json:"request_id,omitempty"`
	Status    int             `json:"status,omitempty"`
	Msg       json.RawMessage `json:"msg,omitempty"`
}

// DecodeMessage parses a raw frame into a Message. Frames without a name
// are rejected; the dispatch path logs and drops them.
func DecodeMessage(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	if m.Name == "" {
		return nil, ErrMalformed
	}
	return &m, nil
}

// Inner unwraps one envelope level: a push event delivered as
// {"name":"sendMessage","msg":{"name":...,"msg":...}}. Returns nil when
// the payload is not itself a named message.
func (m *Message) Inner() *Message {
	if len(m.Msg) == 0 {
		return nil
	}
	inner, err := DecodeMessage(m.Msg)
	if err != nil {
		return nil
	}
	return inner
}

// MsgString returns the payload as a plain string when it is one
// (e.g. an "unauthenticated" sentinel), else "".
func (m *Message) MsgString() string {
	var s string
	if err := json.Unmarshal(m.Msg, &s); err != nil {
		return ""
	}
	return s
}

// Request is the outbound envelope shape.
type Request struct {
	Name      string `json:"name"`
	RequestID string `json:"request_id"`
	Msg       any    `json:"msg"`
}

// SendBody is the payload of a "sendMessage" envelope.
type SendBody struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Body    any    `json:"body"`
}

// SubscribeBody is the payload of a "subscribeMessage" envelope.
type SubscribeBody struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Params  any    `json:"params,omitempty"`
}

// RoutingFilters narrows a subscription to matching events server-side.
type RoutingFilters struct {
	Filters map[string]any `json:"routingFilters"`
}

// NewSend builds a sendMessage request for an operation body.
func NewSend(reqID, op, version string, body any) Request {
	return Request{
		Name:      NameSendMessage,
		RequestID: reqID,
		Msg:       SendBody{Name: op, Version: version, Body: body},
	}
}

// NewSubscribe builds a subscribeMessage request for a push channel.
func NewSubscribe(reqID, event, version string, filters map[string]any) Request {
	var params any
	if filters != nil {
		params = RoutingFilters{Filters: filters}
	}
	return Request{
		Name:      NameSubscribeMessage,
		RequestID: reqID,
		Msg:       SubscribeBody{Name: event, Version: version, Params: params},
	}
}
