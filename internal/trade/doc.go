// Package trade places blitz orders and tracks them to settlement.
//
// One Execute call drives one order through
// Submitted -> Acknowledged -> Monitoring -> Settled | TimedOut | Rejected.
// The acknowledgment arrives as the submit's correlated response; the
// settlement arrives later on the position-changed push channel, where
// the platform names the same order by either of two identifier fields.
// Every exit path tears down the subscriptions the call registered. A
// repeat attempt (martingale or otherwise) is a brand-new Execute call;
// sizing decisions belong to the caller.
package trade
