// Package creditoffers prequalifies customers for a fixed catalog of
// financial products. Each product carries hand-authored qualification rules
// and a scoring heuristic; nothing here is learned or fetched remotely.
package creditoffers

// CreditRating is a coarse display rating inferred from behavior; it never
// gates qualification on its own.
type CreditRating string

const (
	RatingExcellent CreditRating = "EXCELLENT"
	RatingGood      CreditRating = "GOOD"
	RatingFair      CreditRating = "FAIR"
	RatingPoor      CreditRating = "POOR"
)

// Utilization level names shared with the credit signal.
const (
	UtilizationHigh   = "high"
	UtilizationMedium = "medium"
	UtilizationLow    = "low"
)

// AccountUtilization is optional per-account detail on a customer.
type AccountUtilization struct {
	AccountID   string  `json:"account_id"`
	Utilization float64 `json:"utilization"`
	CreditLimit float64 `json:"credit_limit"`
	Balance     float64 `json:"balance"`
}

// CustomerInfo is the slice of signal data the prequalifier scores against.
type CustomerInfo struct {
	// Credit metrics.
	TotalUtilization      float64              `json:"total_utilization"`
	UtilizationLevel      string               `json:"utilization_level"`
	InterestCharged       float64              `json:"interest_charged"`
	MinimumPaymentOnly    bool                 `json:"minimum_payment_only"`
	IsOverdue             bool                 `json:"is_overdue"`
	OnlineSpendingShare   float64              `json:"online_spending_share"`
	PerAccountUtilization []AccountUtilization `json:"per_account_utilization,omitempty"`

	// Savings metrics.
	TotalSavings          float64 `json:"total_savings"`
	NetInflow             float64 `json:"net_inflow"`
	GrowthRate            float64 `json:"growth_rate"`
	EmergencyFundCoverage float64 `json:"emergency_fund_coverage"`
	AvgMonthlySavings     float64 `json:"avg_monthly_savings"`
}

// ImageData is one rendered card image reference.
type ImageData struct {
	ImageType string `json:"imageType"`
	URL       string `json:"url"`
	AltText   string `json:"altText"`
}

// ProductOffer is a single qualified product in a prequalification response.
type ProductOffer struct {
	ProductID               string               `json:"productId"`
	Code                    string               `json:"code"`
	ProductDisplayName      string               `json:"productDisplayName"`
	Priority                int                  `json:"priority"`
	Tier                    string               `json:"tier"`
	CreditRating            CreditRating         `json:"creditRating"`
	Images                  map[string]ImageData `json:"images"`
	IntroPurchaseAPR        string               `json:"introPurchaseApr,omitempty"`
	PurchaseAPR             string               `json:"purchaseApr"`
	IntroBalanceTransferAPR string               `json:"introBalanceTransferApr,omitempty"`
	BalanceTransferFee      string               `json:"balanceTransferFee,omitempty"`
	AnnualMembershipFee     string               `json:"annualMembershipFee"`
	MainMarketingCopy       []string             `json:"mainMarketingCopy"`
	ExtraMarketingCopy      []string             `json:"extraMarketingCopy"`
	ApplyNowLink            string               `json:"applyNowLink"`
	MatchPercentage         float64              `json:"matchPercentage"`
	MatchReason             string               `json:"matchReason"`
	BonusAmount             string               `json:"bonusAmount,omitempty"`
	BonusRequirement        string               `json:"bonusRequirement,omitempty"`
	EstimatedSavings        string               `json:"estimatedSavings,omitempty"`
}

// Prequalification is the full evaluation result across the catalog.
type Prequalification struct {
	PrequalificationID   string         `json:"prequalificationId"`
	QualifiedProducts    []ProductOffer `json:"qualifiedProducts"`
	CustomerCreditRating CreditRating   `json:"customerCreditRating"`
	Timestamp            string         `json:"timestamp"`
}
