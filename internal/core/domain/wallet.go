package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a single owner's spendable balance.
// Balance is a signed integer in the smallest currency unit and is only ever
// mutated by the ledger service, together with a matching transaction row.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Balance   int64     `json:"balance"`
	IsFrozen  bool      `json:"is_frozen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Administrative sub-wallet owners: platform-held balances (cash, profit, tax)
// under fixed well-known IDs, seeded at store initialization and not bound to
// any user record.
var (
	AdminWalletCash   = uuid.MustParse("00000000-0000-0000-0000-00000000a001")
	AdminWalletProfit = uuid.MustParse("00000000-0000-0000-0000-00000000a002")
	AdminWalletTax    = uuid.MustParse("00000000-0000-0000-0000-00000000a003")
)

// IsAdminOwner reports whether ownerID is one of the platform sub-wallets.
// Administrative balances may go negative (a short position), so debit
// validation treats them differently from user wallets.
func IsAdminOwner(ownerID uuid.UUID) bool {
	return ownerID == AdminWalletCash ||
		ownerID == AdminWalletProfit ||
		ownerID == AdminWalletTax
}
