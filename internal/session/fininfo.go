package session

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/openoption/blitzws/internal/protocol"
)

// assetProfileQuery is the platform's GraphQL lookup for extended asset
// details (expirations, price-change stats, instrument description).
const assetProfileQuery = `query GetAssetProfileInfo($activeId:ActiveID!, $locale: LocaleName, $instrumentType: InstrumentTypeName!, $userGroupId: UserGroupID){
  active(id: $activeId) {
    id
    name(source: TradeRoom, locale: $locale)
    ticker
    price
    expirations(instrument: $instrumentType, userGroupID: $userGroupId) {
      endOfDay
      endOfHour
      min(instrument: $instrumentType)
      values(instrument: $instrumentType) { value }
    }
    charts {
      dtd { change }
      m1 { change }
      y1 { change }
      ytd { change }
    }
  }
}`

// FinancialInfo requests extended details for one asset over the same
// wire channel. The response's active block is returned raw; callers that
// need specific fields decode what they care about.
func (s *Session) FinancialInfo(ctx context.Context, activeID int64) (json.RawMessage, error) {
	body := map[string]any{
		"query": assetProfileQuery,
		"variables": map[string]any{
			"activeId":       activeID,
			"locale":         "en_US",
			"instrumentType": "BlitzOption",
			"userGroupId":    1,
		},
		"operationName": "GetAssetProfileInfo",
	}

	res, err := s.Request(ctx, protocol.OpGetFinancialInfo, "1.0", body)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data struct {
			Active json.RawMessage `json:"active"`
		} `json:"data"`
	}
	if err := unmarshal(res.Msg, &payload); err != nil {
		return nil, fmt.Errorf("decode financial info: %w", err)
	}
	return payload.Data.Active, nil
}
