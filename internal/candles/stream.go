package candles

import (
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/openoption/blitzws/internal/protocol"
	"github.com/openoption/blitzws/internal/session"
)

// streamCategories are every instrument type a candle grid may belong
// to. Configuring plotters for all of them starts the stream no matter
// which category the asset trades under.
var streamCategories = []string{
	protocol.InstrumentTypeBlitz,
	"turbo-option",
	"binary-option",
	"digital-option",
}

// Stream subscribes to live candle-generated pushes for one asset and
// bucket duration, invoking fn for each matching candle. The returned
// stop function removes the subscription; call it exactly when done.
func Stream(sess *session.Session, activeID int64, size int, fn func(protocol.Candle), logger *slog.Logger) (func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	// The platform starts generating candles once a traderoom grid names
	// the asset, so push the grid settings first.
	plotters := make([]map[string]any, 0, len(streamCategories))
	for _, category := range streamCategories {
		plotters = append(plotters, map[string]any{
			"activeId":       activeID,
			"activeType":     category,
			"plotType":       "candles",
			"candleDuration": size,
			"isMinimized":    false,
		})
	}
	grid := map[string]any{
		"name":      "traderoom_gl_grid",
		"version":   2,
		"client_id": protocol.NewClientID(),
		"config": map[string]any{
			"name":                  "default",
			"fixedNumberOfPlotters": len(plotters),
			"plotters":              plotters,
			"selectedActiveId":      activeID,
		},
	}
	if err := sess.Send(protocol.NewSend(protocol.NewRequestID(), protocol.OpSetUserSettings, "1.0", grid)); err != nil {
		return nil, fmt.Errorf("push grid settings: %w", err)
	}

	// Channel subscription with routing filters; this one goes out
	// without a version, matching the platform's strict format.
	filters := map[string]any{"active_id": activeID, "size": size}
	if err := sess.Send(protocol.NewSubscribe(protocol.NewSubID(), protocol.EvCandleGenerated, "", filters)); err != nil {
		return nil, fmt.Errorf("subscribe candle-generated: %w", err)
	}

	sub := sess.Dispatcher().Subscribe(protocol.EvCandleGenerated, func(msg *protocol.Message) {
		var candle protocol.Candle
		if err := json.Unmarshal(msg.Msg, &candle); err != nil {
			logger.Debug("candle decode failed", "error", err)
			return
		}
		if candle.ActiveID != activeID {
			return
		}
		fn(candle)
	})

	logger.Info("candle stream started", "active_id", activeID, "size", size)
	return sub.Cancel, nil
}
