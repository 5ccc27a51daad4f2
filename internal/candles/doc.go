// Package candles fetches historical OHLC series and live candle pushes.
//
// The server caps every get-candles response at a fixed maximum, so the
// Paginator satisfies larger requests by walking the "to" timestamp
// backward one chunk at a time, deduplicating on candle id at chunk
// boundaries, until the requested total is reached or the server runs
// out of history.
package candles
