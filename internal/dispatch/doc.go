// Package dispatch routes inbound messages to waiters and subscribers.
//
// Every inbound envelope goes through Dispatch exactly once. Correlation
// (request_id -> waiting caller) and event fan-out (name -> subscribers)
// are orthogonal: a single message can satisfy a pending request and
// notify listeners of its event name at the same time. Messages wrapped
// under a generic "sendMessage" envelope are unwrapped and re-dispatched,
// bounded to a fixed depth.
package dispatch
