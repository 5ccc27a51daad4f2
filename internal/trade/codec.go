package trade

import (
	"github.com/goccy/go-json"

	"github.com/openoption/blitzws/internal/protocol"
)

func protocolUnmarshal(data json.RawMessage, v any) error {
	return json.Unmarshal(data, v)
}

func unmarshalAck(msg *protocol.Message, ack *protocol.OpenOptionAck) error {
	return json.Unmarshal(msg.Msg, ack)
}
