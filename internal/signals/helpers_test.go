package signals

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/spendsense/internal/domain"
)

// Fixed reference date shared by detector tests.
var testRef = civil.Date{Year: 2025, Month: time.June, Day: 1}

func d(year, month, day int) civil.Date {
	return civil.Date{Year: year, Month: time.Month(month), Day: day}
}

func debit(accountID, merchant string, date civil.Date, amount float64, channel string) domain.Transaction {
	return domain.Transaction{
		AccountID:      accountID,
		MerchantName:   merchant,
		Date:           date,
		Amount:         -amount,
		PaymentChannel: channel,
	}
}

func deposit(accountID, merchant string, date civil.Date, amount float64) domain.Transaction {
	return domain.Transaction{
		AccountID:    accountID,
		MerchantName: merchant,
		Date:         date,
		Amount:       amount,
	}
}
