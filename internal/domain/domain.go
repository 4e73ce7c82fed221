package domain

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// TimeWindow is the lookback period over which signals are computed.
// Only two values are accepted by the engine.
type TimeWindow string

const (
	Window30d  TimeWindow = "30d"
	Window180d TimeWindow = "180d"
)

// ParseTimeWindow validates a raw time window string.
func ParseTimeWindow(s string) (TimeWindow, error) {
	switch TimeWindow(s) {
	case Window30d, Window180d:
		return TimeWindow(s), nil
	}
	return "", fmt.Errorf("invalid time window %q (expected 30d or 180d)", s)
}

// Days returns the number of lookback days for the window.
func (w TimeWindow) Days() int {
	if w == Window30d {
		return 30
	}
	return 180
}

func (w TimeWindow) String() string { return string(w) }

// Transaction is the canonical in-memory transaction record. It is produced
// by the storage adapter at the boundary; the engine only ever sees this
// shape. Transactions are read-only to the engine: the ingestion system owns
// them.
type Transaction struct {
	TransactionID  string      `json:"transaction_id"`
	AccountID      string      `json:"account_id"`
	Date           civil.Date  `json:"date"`
	AuthorizedDate *civil.Date `json:"authorized_date,omitempty"`
	// Amount is signed: negative for debits, positive for credits/payments.
	Amount       float64 `json:"amount"`
	MerchantName string  `json:"merchant_name"`
	// Category is the hierarchical category path, most general first.
	Category        []string `json:"category"`
	PaymentChannel  string   `json:"payment_channel"`
	Pending         bool     `json:"pending"`
	LocationCity    string   `json:"location_city,omitempty"`
	LocationRegion  string   `json:"location_region,omitempty"`
	ISOCurrencyCode string   `json:"iso_currency_code"`
}

// EffectiveDate prefers the authorization date when the institution reported
// one; settlement dates can lag by a couple of days and skew cadence math.
func (t Transaction) EffectiveDate() civil.Date {
	if t.AuthorizedDate != nil && t.AuthorizedDate.IsValid() {
		return *t.AuthorizedDate
	}
	return t.Date
}

// IsDebit reports whether the transaction is spend (negative amount).
func (t Transaction) IsDebit() bool { return t.Amount < 0 }

// Account is the canonical in-memory account record. Read-only to the engine.
type Account struct {
	AccountID string  `json:"account_id"`
	UserID    string  `json:"user_id"`
	Type      string  `json:"type"`    // "depository", "credit", ...
	Subtype   string  `json:"subtype"` // "checking", "savings", "credit card", ...
	Balance   float64 `json:"balance"`
	Limit     float64 `json:"limit,omitempty"`
	Mask      string  `json:"mask,omitempty"`
}
