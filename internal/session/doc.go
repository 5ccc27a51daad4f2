// Package session drives the authenticated platform session.
//
// A Session owns the authenticated lifecycle on top of the transport and
// dispatcher: the authentication handshake, the periodic ssid keep-alive,
// server clock offset tracking, the per-category asset catalog, balance
// selection, and the generic retrying request primitive every higher-level
// operation is built on. All session caches have a single writer (the
// session's own event handlers) and concurrent readers.
package session
