package trade

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/openoption/blitzws/internal/protocol"
	"github.com/openoption/blitzws/internal/session"
)

// Executor places blitz orders against the active session.
type Executor struct {
	sess   *session.Session
	cfg    Config
	logger *slog.Logger
}

// NewExecutor creates an executor bound to a session.
func NewExecutor(sess *session.Session, cfg Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	return &Executor{sess: sess, cfg: cfg, logger: logger}
}

// Execute drives one order to a terminal state. On Rejected the returned
// error is a *Error with the server's message; on TimedOut the result is
// a synthetic zero-profit outcome with no error.
func (e *Executor) Execute(ctx context.Context, order Order) (*Result, error) {
	balanceID := e.sess.ActiveBalance()
	if balanceID == 0 {
		return nil, ErrNoBalance
	}

	assetKey := strconv.FormatInt(order.ActiveID, 10)
	payout := e.sess.PayoutPercent(assetKey)
	if payout == 0 {
		e.logger.Warn("payout not found in catalog", "active_id", order.ActiveID)
	}

	// Expiry aligned to a minute boundary two minutes out keeps the buy
	// window open regardless of how late in the minute we submit.
	serverTime := e.sess.Clock().Timestamp()
	expired := serverTime - serverTime%60 + 120

	body := protocol.OpenOptionBody{
		UserBalanceID:  balanceID,
		ActiveID:       order.ActiveID,
		OptionTypeID:   protocol.OptionTypeBlitz,
		Direction:      order.Direction,
		Expired:        expired,
		ExpirationSize: order.Duration,
		RefundValue:    0,
		Price:          order.Amount,
		Value:          0,
		ProfitPercent:  payout,
	}

	reqID := protocol.NewRequestID()
	d := e.sess.Dispatcher()
	pending := d.CreatePending(reqID)
	defer d.CancelPending(reqID)

	e.logger.Info("submitting order",
		"active_id", order.ActiveID,
		"direction", order.Direction,
		"amount", order.Amount,
		"duration", order.Duration,
	)

	if err := e.sess.Send(protocol.NewSend(reqID, protocol.OpOpenOption, "2.0", body)); err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}

	// Submitted -> Acknowledged
	ackTimer := time.NewTimer(e.cfg.AckTimeout)
	defer ackTimer.Stop()

	var ack *protocol.Message
	select {
	case ack = <-pending:
	case <-ackTimer.C:
		return nil, &Error{Kind: KindRejected, Message: "order acknowledgment timed out"}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if ack.Status != 0 && ack.Status != 2000 {
		err := classify(rejectionText(ack))
		e.logger.Warn("order rejected", "status", ack.Status, "message", err.Message)
		return &Result{State: StateRejected}, err
	}

	var ackBody protocol.OpenOptionAck
	if decodeErr := unmarshalAck(ack, &ackBody); decodeErr != nil || ackBody.ID == "" {
		return nil, &Error{Kind: KindRejected, Message: "acknowledgment carried no order id"}
	}
	orderID := ackBody.ID

	e.logger.Info("order acknowledged", "order_id", orderID)

	// Acknowledged -> Monitoring: register the settlement listener before
	// asking the server for frequent updates, so nothing slips between.
	settleCh := make(chan protocol.PositionChanged, 1)
	sub := d.Subscribe(protocol.EvPositionChanged, func(msg *protocol.Message) {
		var pc protocol.PositionChanged
		if err := protocolUnmarshal(msg.Msg, &pc); err != nil {
			return
		}
		if pc.Matches(orderID) && pc.Settled() {
			select {
			case settleCh <- pc:
			default:
			}
		}
	})
	defer sub.Cancel()

	subBody := protocol.SubscribePositionsBody{
		Frequency: "frequent",
		IDs:       []protocol.FlexID{orderID},
	}
	if err := e.sess.Send(protocol.NewSend(protocol.NewRequestID(), protocol.OpSubscribePositions, "1.0", subBody)); err != nil {
		e.logger.Warn("subscribe-positions failed, relying on portfolio pushes", "error", err)
	}

	// Monitoring -> Settled | TimedOut
	wait := time.Duration(order.Duration) * time.Second
	if wait < e.cfg.MinSettleWait {
		wait = e.cfg.MinSettleWait
	}
	wait += e.cfg.SettleGrace

	e.logger.Info("awaiting settlement", "order_id", orderID, "timeout", wait)

	settleTimer := time.NewTimer(wait)
	defer settleTimer.Stop()

	select {
	case pc := <-settleCh:
		result := &Result{
			State:   StateSettled,
			OrderID: orderID,
			Outcome: pc.Outcome(),
			Profit:  pc.Profit(),
		}
		e.logger.Info("order settled", "order_id", orderID, "outcome", result.Outcome, "profit", result.Profit)
		return result, nil

	case <-settleTimer.C:
		e.logger.Error("settlement never arrived", "order_id", orderID)
		return &Result{State: StateTimedOut, OrderID: orderID, Outcome: "timeout"}, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// rejectionText extracts the server's error message whatever shape the
// payload takes: a bare string or an object with a message field.
func rejectionText(msg *protocol.Message) string {
	if s := msg.MsgString(); s != "" {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := protocolUnmarshal(msg.Msg, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(msg.Msg)
}
