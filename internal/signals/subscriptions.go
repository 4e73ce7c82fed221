package signals

import (
	"math"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/spendsense/internal/domain"
)

// subscriptionWindowDays is the fixed lookback for subscription detection;
// cadence bands need roughly three monthly cycles to be meaningful.
const subscriptionWindowDays = 90

type merchantTxn struct {
	date    civil.Date
	amount  float64
	channel string
}

// DetectSubscriptions finds merchants with a recurring spend cadence among
// the debit transactions dated within windowDays of ref.
//
// A merchant qualifies when it has at least 3 transactions whose average
// interval falls in the monthly [25,34] or weekly [6,8] band, and either at
// least half its transactions are online or it has 4+ occurrences. Weekly
// amounts convert to monthly equivalents at 4.33 weeks per month.
func DetectSubscriptions(txns []domain.Transaction, ref civil.Date, windowDays int) *SubscriptionSignal {
	cutoff := ref.AddDays(-windowDays)

	byMerchant := make(map[string][]merchantTxn)
	var merchantOrder []string
	totalSpend := 0.0

	for _, t := range txns {
		if !t.IsDebit() || t.Date.Before(cutoff) {
			continue
		}
		merchant := t.MerchantName
		if merchant == "" {
			merchant = "Unknown"
		}
		if _, ok := byMerchant[merchant]; !ok {
			merchantOrder = append(merchantOrder, merchant)
		}
		byMerchant[merchant] = append(byMerchant[merchant], merchantTxn{
			date:    t.EffectiveDate(),
			amount:  math.Abs(t.Amount),
			channel: t.PaymentChannel,
		})
		totalSpend += math.Abs(t.Amount)
	}

	sig := &SubscriptionSignal{
		RecurringMerchants: []string{},
		MerchantDetails:    []MerchantDetail{},
	}
	if len(byMerchant) == 0 {
		return sig
	}

	monthlyRecurring := 0.0

	for _, merchant := range merchantOrder {
		txs := byMerchant[merchant]
		if len(txs) < 3 {
			continue
		}
		sort.SliceStable(txs, func(i, j int) bool { return txs[i].date.Before(txs[j].date) })

		onlineCount := 0
		for _, tx := range txs {
			if tx.channel == "online" {
				onlineCount++
			}
		}
		onlineRatio := float64(onlineCount) / float64(len(txs))

		// Intervals and amounts are taken from the second transaction on;
		// the first has no preceding delta.
		var intervals, amounts []float64
		for i := 1; i < len(txs); i++ {
			intervals = append(intervals, float64(txs[i].date.DaysSince(txs[i-1].date)))
			amounts = append(amounts, txs[i].amount)
		}
		avgAmount := mean(amounts)
		avgInterval := mean(intervals)

		isMonthly := avgInterval >= 25 && avgInterval <= 34
		isWeekly := avgInterval >= 6 && avgInterval <= 8
		if !isMonthly && !isWeekly {
			continue
		}
		// Online merchants are likelier real subscriptions; offline cadence
		// needs an extra occurrence to count.
		if onlineRatio < 0.5 && len(txs) < 4 {
			continue
		}

		frequency := "monthly"
		monthlyCost := avgAmount
		if isWeekly {
			frequency = "weekly"
			monthlyCost = avgAmount * 4.33
		}

		sig.RecurringMerchants = append(sig.RecurringMerchants, merchant)
		monthlyRecurring += monthlyCost
		sig.MerchantDetails = append(sig.MerchantDetails, MerchantDetail{
			Merchant:          merchant,
			Frequency:         frequency,
			Amount:            avgAmount,
			MonthlyEquivalent: monthlyCost,
			Occurrences:       len(txs),
			PaymentChannel:    primaryChannel(txs),
			OnlineRatio:       round2(onlineRatio),
		})
	}

	if totalSpend > 0 {
		sig.SubscriptionShare = round2(monthlyRecurring / totalSpend * 100)
	}
	sig.MonthlyRecurring = round2(monthlyRecurring)
	return sig
}

// primaryChannel is the mode of the merchant's non-empty payment channels.
// Ties resolve to the channel first seen in transaction order.
func primaryChannel(txs []merchantTxn) string {
	counts := make(map[string]int)
	var order []string
	for _, tx := range txs {
		if tx.channel == "" {
			continue
		}
		if _, ok := counts[tx.channel]; !ok {
			order = append(order, tx.channel)
		}
		counts[tx.channel]++
	}

	best := ""
	bestCount := 0
	for _, ch := range order {
		if counts[ch] > bestCount {
			best = ch
			bestCount = counts[ch]
		}
	}
	return best
}
