// Package transport maintains the persistent WebSocket connection.
//
// A Client owns exactly one WebSocket connection to the platform. On an
// unexpected drop it marks itself disconnected, suppresses sends, and
// redials with exponential backoff; the connection object is replaced,
// never mutated. After every successful automatic reconnect the read
// loop is restarted and the registered OnReconnect hook is awaited, so
// the session can re-authenticate and re-subscribe over the new socket
// before it resumes its own periodic traffic.
package transport
