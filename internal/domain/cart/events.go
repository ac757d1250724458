package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventCartUpdated = "CartUpdated"

// CartUpdated is published after every cart mutation.
type CartUpdated struct {
	SessionID  string          `json:"session_id"`
	Lines      []Line          `json:"lines"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewCartUpdated builds the event payload for a snapshot.
func NewCartUpdated(sessionID string, snap Snapshot, at time.Time) CartUpdated {
	totals := snap.Totals()
	return CartUpdated{
		SessionID:  sessionID,
		Lines:      snap,
		TotalItems: totals.Items,
		TotalPrice: totals.Price,
		UpdatedAt:  at,
	}
}
