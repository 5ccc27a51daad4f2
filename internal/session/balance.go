package session

import (
	"context"
	"fmt"

	"github.com/openoption/blitzws/internal/protocol"
)

// balanceTypes is the fixed set of balance kinds requested from the
// platform (real, practice and two auxiliary kinds).
var balanceTypes = []int{1, 4, 2, 6}

// GetBalances fetches the account's balance records.
func (s *Session) GetBalances(ctx context.Context) ([]protocol.Balance, error) {
	res, err := s.Request(ctx, protocol.OpGetBalances, "1.0", protocol.BalancesBody{TypesIDs: balanceTypes})
	if err != nil {
		return nil, err
	}

	var balances []protocol.Balance
	if err := unmarshal(res.Msg, &balances); err != nil {
		return nil, fmt.Errorf("decode balances: %w", err)
	}
	return balances, nil
}

// SelectBalance chooses the balance every subsequent trade submits
// against.
func (s *Session) SelectBalance(id int64) {
	s.balanceMu.Lock()
	s.activeBalanceID = id
	s.balanceMu.Unlock()
	s.logger.Info("balance selected", "id", id)
}

// ActiveBalance returns the currently selected balance id, zero when none
// has been chosen yet.
func (s *Session) ActiveBalance() int64 {
	s.balanceMu.RLock()
	defer s.balanceMu.RUnlock()
	return s.activeBalanceID
}
