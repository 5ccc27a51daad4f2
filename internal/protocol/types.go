package protocol

import (
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Balance is one account balance record. Type 1 is real, 4 is practice.
type Balance struct {
	ID       int64           `json:"id"`
	Type     int             `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// IsPractice reports whether this is a demo balance.
func (b Balance) IsPractice() bool { return b.Type == 4 }

// BalancesBody is the get-balances request body.
type BalancesBody struct {
	TypesIDs []int `json:"types_ids"`
}

// Candle is one OHLC bucket from get-candles or candle-generated.
type Candle struct {
	ID     int64   `json:"id"`
	From   int64   `json:"from"`
	To     int64   `json:"to"`
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Volume float64 `json:"volume"`

	ActiveID int64 `json:"active_id,omitempty"`
	Size     int   `json:"size,omitempty"`
}

// CandlesBody is the get-candles request body. To is a server-clock unix
// timestamp; the server returns at most its own fixed maximum per call.
type CandlesBody struct {
	ActiveID int64 `json:"active_id"`
	Size     int   `json:"size"`
	To       int64 `json:"to"`
	Count    int   `json:"count"`
}

// CandlesResult is the get-candles response payload.
type CandlesResult struct {
	Candles []Candle `json:"candles"`
}

// AssetRecord is one tradable instrument within a single category. Records
// are replaced wholesale per catalog push, never merged field by field.
type AssetRecord struct {
	ActiveID      FlexID `json:"active_id,omitempty"`
	ID            FlexID `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Enabled       bool   `json:"enabled"`
	IsSuspended   bool   `json:"is_suspended"`
	ProfitPercent *int   `json:"profit_percent,omitempty"`
	Category      string `json:"active_type,omitempty"`

	Option *AssetOption `json:"option,omitempty"`

	// Raw preserves fields this client does not model.
	Raw json.RawMessage `json:"-"`
}

// AssetOption nests per-option profit settings.
type AssetOption struct {
	Profit *AssetProfit `json:"profit,omitempty"`
}

// AssetProfit carries commission when the direct payout field is absent.
type AssetProfit struct {
	Commission *int `json:"commission,omitempty"`
}

// Key returns the asset id whichever field the server used for it.
func (a AssetRecord) Key() string {
	if a.ActiveID != "" {
		return string(a.ActiveID)
	}
	return string(a.ID)
}

// Payout resolves the profit percent: direct field first, else
// 100 - commission, else 0.
func (a AssetRecord) Payout() int {
	if a.ProfitPercent != nil {
		return *a.ProfitPercent
	}
	if a.Option != nil && a.Option.Profit != nil && a.Option.Profit.Commission != nil {
		return 100 - *a.Option.Profit.Commission
	}
	return 0
}

// decodeAssetRecord keeps the raw payload alongside the typed fields.
func decodeAssetRecord(data json.RawMessage) (AssetRecord, error) {
	var rec AssetRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return AssetRecord{}, err
	}
	rec.Raw = data
	return rec, nil
}

// UnderlyingList is the underlying-list-changed event payload. The category
// is not inside the body; it is inferred from the event's own name prefix.
type UnderlyingList struct {
	InnerName  string            `json:"name,omitempty"`
	Underlying []json.RawMessage `json:"underlying"`
}

// Records decodes the underlying entries, skipping malformed ones.
func (u UnderlyingList) Records() []AssetRecord {
	out := make([]AssetRecord, 0, len(u.Underlying))
	for _, raw := range u.Underlying {
		rec, err := decodeAssetRecord(raw)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// InitializationData is the get-initialization-data response: a map of
// category name to that category's full asset set.
type InitializationData map[string]json.RawMessage

// CategoryActives extracts the actives map for one category key, or nil
// when the key holds something other than a category block.
func (d InitializationData) CategoryActives(category string) map[string]AssetRecord {
	raw, ok := d[category]
	if !ok {
		return nil
	}
	var block struct {
		Actives map[string]json.RawMessage `json:"actives"`
	}
	if err := json.Unmarshal(raw, &block); err != nil || block.Actives == nil {
		return nil
	}
	out := make(map[string]AssetRecord, len(block.Actives))
	for id, rawRec := range block.Actives {
		rec, err := decodeAssetRecord(rawRec)
		if err != nil {
			continue
		}
		if rec.Category == "" {
			rec.Category = category
		}
		out[id] = rec
	}
	return out
}

// OpenOptionBody is the binary-options.open-option request body. The
// server validates the payout the client sends, so ProfitPercent must be
// the cached value at submission time.
type OpenOptionBody struct {
	UserBalanceID  int64           `json:"user_balance_id"`
	ActiveID       int64           `json:"active_id"`
	OptionTypeID   int             `json:"option_type_id"`
	Direction      string          `json:"direction"`
	Expired        int64           `json:"expired"`
	ExpirationSize int             `json:"expiration_size"`
	RefundValue    int             `json:"refund_value"`
	Price          decimal.Decimal `json:"price"`
	Value          int             `json:"value"`
	ProfitPercent  int             `json:"profit_percent"`
}

// OpenOptionAck is the correlated open-option response payload.
type OpenOptionAck struct {
	ID      FlexID `json:"id"`
	Message string `json:"message,omitempty"`
}

// SubscribePositionsBody asks for frequent settlement updates on specific
// order ids.
type SubscribePositionsBody struct {
	Frequency string   `json:"frequency"`
	IDs       []FlexID `json:"ids"`
}

// PositionChanged is the settlement/lifecycle push for an order. The
// platform is inconsistent about which of ID or ExternalID names the
// order, so consumers must check both.
type PositionChanged struct {
	ID          FlexID          `json:"id"`
	ExternalID  FlexID          `json:"external_id"`
	Status      string          `json:"status"`
	PNL         decimal.Decimal `json:"pnl"`
	CloseReason string          `json:"close_reason,omitempty"`
	RawEvent    struct {
		OptionChanged OptionChangedEvent `json:"binary_options_option_changed1"`
	} `json:"raw_event"`
}

// OptionChangedEvent is the nested outcome payload inside position-changed.
type OptionChangedEvent struct {
	ActiveID     FlexID          `json:"active_id"`
	Direction    string          `json:"direction"`
	Result       string          `json:"result"` // "opened", "win", "loose", "equal"
	Amount       decimal.Decimal `json:"amount"`
	ProfitAmount decimal.Decimal `json:"profit_amount"`
}

// Settled reports a terminal outcome: closed status or a final result.
func (p PositionChanged) Settled() bool {
	switch p.RawEvent.OptionChanged.Result {
	case "win", "loose", "equal":
		return true
	}
	return p.Status == "closed"
}

// Matches reports whether this event refers to the given order id under
// either identifier field.
func (p PositionChanged) Matches(orderID FlexID) bool {
	if orderID == "" {
		return false
	}
	return p.ID == orderID || p.ExternalID == orderID
}

// Profit resolves profit/loss: the direct pnl when present and non-zero,
// else profit_amount - amount from the nested event.
func (p PositionChanged) Profit() decimal.Decimal {
	if !p.PNL.IsZero() {
		return p.PNL
	}
	ev := p.RawEvent.OptionChanged
	return ev.ProfitAmount.Sub(ev.Amount)
}

// Outcome returns the win/loose/equal result, falling back to the close
// reason when the nested event omits it.
func (p PositionChanged) Outcome() string {
	if r := p.RawEvent.OptionChanged.Result; r != "" && r != "opened" {
		return r
	}
	return p.CloseReason
}

// Profile is the user profile push payload; only identity fields are
// modeled, the rest rides along raw.
type Profile struct {
	UserID int64           `json:"user_id"`
	Email  string          `json:"email,omitempty"`
	Name   string          `json:"name,omitempty"`
	Raw    json.RawMessage `json:"-"`
}

// FeatureList is the features push payload.
type FeatureList struct {
	Features []Feature `json:"features"`
}

// Feature is one platform feature flag.
type Feature struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// UserSettings is the user-settings push payload.
type UserSettings struct {
	Configs []UserSettingConfig `json:"configs"`
}

// UserSettingConfig is one named settings blob.
type UserSettingConfig struct {
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config"`
}
