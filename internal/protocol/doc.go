// Package protocol defines the wire model shared by every component.
//
// Every frame on the socket is a JSON envelope {name, request_id, msg}.
// Outbound requests wrap an operation body under "sendMessage" or
// "subscribeMessage"; inbound frames carry either a correlated response
// or a named push event, occasionally wrapped one level deeper under a
// generic "sendMessage" envelope. Payloads decode lazily, keyed by the
// envelope name, so unknown fields survive round trips untouched.
package protocol
