package candles

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/openoption/blitzws/internal/protocol"
	"github.com/openoption/blitzws/internal/session"
)

// Config holds pagination tuning. Zero values fall back to defaults.
type Config struct {
	ChunkSize      int           // server per-call maximum (default 1000)
	RequestTimeout time.Duration // per-chunk budget; 0 uses the session default
	Retries        int           // per-chunk attempts; 0 uses the session default
}

func (c *Config) applyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = 1000
	}
}

// Paginator fetches bounded historical series through the session's
// retrying request primitive.
type Paginator struct {
	sess   *session.Session
	cfg    Config
	logger *slog.Logger
}

// NewPaginator creates a paginator bound to a session.
func NewPaginator(sess *session.Session, cfg Config, logger *slog.Logger) *Paginator {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	return &Paginator{sess: sess, cfg: cfg, logger: logger}
}

// Fetch returns up to total candles for an asset, oldest first. size is
// the bucket duration in seconds. Stops early when the server returns a
// short chunk (history exhausted).
func (p *Paginator) Fetch(ctx context.Context, activeID int64, size, total int) ([]protocol.Candle, error) {
	if total <= 0 {
		return nil, nil
	}

	to := p.sess.Clock().Timestamp()
	seen := make(map[int64]struct{}, total)
	collected := make([]protocol.Candle, 0, total)

	for len(collected) < total {
		count := total - len(collected)
		if count > p.cfg.ChunkSize {
			count = p.cfg.ChunkSize
		}

		body := protocol.CandlesBody{ActiveID: activeID, Size: size, To: to, Count: count}
		res, err := p.sess.SendWithRetry(ctx, protocol.OpGetCandles, "2.0", body, p.cfg.RequestTimeout, p.cfg.Retries)
		if err != nil {
			return nil, fmt.Errorf("fetch candles chunk: %w", err)
		}

		var chunk protocol.CandlesResult
		if err := json.Unmarshal(res.Msg, &chunk); err != nil {
			return nil, fmt.Errorf("decode candles chunk: %w", err)
		}

		added := 0
		for _, candle := range chunk.Candles {
			if _, dup := seen[candle.ID]; dup {
				continue
			}
			seen[candle.ID] = struct{}{}
			collected = append(collected, candle)
			added++
		}

		p.logger.Debug("candles chunk fetched",
			"active_id", activeID,
			"requested", count,
			"received", len(chunk.Candles),
			"added", added,
		)

		// A short chunk means the server has no older history.
		if len(chunk.Candles) < count {
			break
		}

		to -= int64(size) * int64(count)
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].From < collected[j].From })
	if len(collected) > total {
		collected = collected[len(collected)-total:]
	}
	return collected, nil
}
