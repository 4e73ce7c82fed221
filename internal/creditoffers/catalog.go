package creditoffers

// Product type keys.
const (
	ProductBalanceTransfer = "balance_transfer"
	ProductSecured         = "secured"
	ProductSavings         = "savings"
	ProductRestaurant      = "restaurant"
	ProductTravel          = "travel"
	ProductBankBonus       = "bank_bonus"
)

type colorScheme struct {
	start string
	end   string
}

// qualificationRules are the hard gates and scoring knobs for one product.
// Zero values mean "not applicable" for the optional thresholds.
type qualificationRules struct {
	maxUtilization             float64
	allowOverdue               bool
	allowMinimumPaymentOnly    bool
	minInterestCharged         float64
	maxEmergencyFundCoverage   float64
	maxGrowthRate              float64
	minAvgMonthlySavings       float64
	creditRating               CreditRating
}

type product struct {
	key                     string
	productID               string
	code                    string
	displayName             string
	tier                    string
	colors                  colorScheme
	introPurchaseAPR        string
	purchaseAPR             string
	introBalanceTransferAPR string
	balanceTransferFee      string
	annualMembershipFee     string
	bonusAmount             string
	bonusRequirement        string
	mainMarketingCopy       []string
	extraMarketingCopy      []string
	rules                   qualificationRules
}

// productCatalog is evaluated in declaration order.
var productCatalog = []product{
	{
		key:                     ProductBalanceTransfer,
		productID:               "BT-001",
		code:                    "BALANCE_XFER_PLATINUM",
		displayName:             "Platinum Balance Transfer Card",
		tier:                    "PREMIUM",
		colors:                  colorScheme{start: "#1e3a8a", end: "#3b82f6"},
		introPurchaseAPR:        "0% for 12 months",
		purchaseAPR:             "16.99% - 24.99% variable",
		introBalanceTransferAPR: "0% for 18 months",
		balanceTransferFee:      "3% of transfer amount",
		annualMembershipFee:     "$0",
		mainMarketingCopy: []string{
			"0% intro APR on balance transfers for 18 months",
			"No annual fee - save money while paying down debt",
		},
		extraMarketingCopy: []string{
			"Transfer balances from high-interest cards",
			"Online account management and mobile app",
		},
		rules: qualificationRules{
			maxUtilization:          85,
			allowOverdue:            false,
			allowMinimumPaymentOnly: true,
			minInterestCharged:      50,
			creditRating:            RatingGood,
		},
	},
	{
		key:                 ProductSecured,
		productID:           "SEC-001",
		code:                "SECURED_BUILDER",
		displayName:         "Credit Builder Secured Card",
		tier:                "STARTER",
		colors:              colorScheme{start: "#065f46", end: "#10b981"},
		purchaseAPR:         "24.99% variable",
		annualMembershipFee: "$0",
		mainMarketingCopy: []string{
			"Build credit with responsible use",
			"Security deposit becomes your credit limit",
		},
		extraMarketingCopy: []string{
			"Graduate to unsecured card after 12 months",
			"No credit check required",
		},
		rules: qualificationRules{
			maxUtilization:          100,
			allowOverdue:            true,
			allowMinimumPaymentOnly: true,
			creditRating:            RatingPoor,
		},
	},
	{
		key:                 ProductSavings,
		productID:           "SAV-001",
		code:                "AUTO_SAVINGS_REWARDS",
		displayName:         "Automatic Savings Rewards Card",
		tier:                "STANDARD",
		colors:              colorScheme{start: "#7c2d12", end: "#f97316"},
		introPurchaseAPR:    "0% for 6 months",
		purchaseAPR:         "18.99% - 26.99% variable",
		annualMembershipFee: "$0",
		mainMarketingCopy: []string{
			"Automatically save 1% of every purchase",
			"Round-up purchases to nearest dollar into savings",
		},
		extraMarketingCopy: []string{
			"Build emergency fund while you spend",
			"No minimum balance required",
		},
		rules: qualificationRules{
			maxUtilization:           85,
			allowOverdue:             false,
			allowMinimumPaymentOnly:  false,
			maxEmergencyFundCoverage: 3,
			maxGrowthRate:            5,
			creditRating:             RatingFair,
		},
	},
	{
		key:                 ProductRestaurant,
		productID:           "REST-001",
		code:                "DINING_REWARDS_GOLD",
		displayName:         "Gold Dining Rewards Card",
		tier:                "PREMIUM",
		colors:              colorScheme{start: "#854d0e", end: "#eab308"},
		introPurchaseAPR:    "0% for 12 months",
		purchaseAPR:         "15.99% - 23.99% variable",
		annualMembershipFee: "$95",
		mainMarketingCopy: []string{
			"Earn 4X points on dining and restaurants",
			"2X points on groceries, 1X on everything else",
		},
		extraMarketingCopy: []string{
			"$50 annual dining credit",
			"Complimentary DoorDash DashPass subscription",
		},
		rules: qualificationRules{
			maxUtilization:          30,
			allowOverdue:            false,
			allowMinimumPaymentOnly: false,
			creditRating:            RatingExcellent,
		},
	},
	{
		key:                 ProductTravel,
		productID:           "TRVL-001",
		code:                "TRAVEL_ELITE_PLATINUM",
		displayName:         "Elite Travel Platinum Card",
		tier:                "PREMIUM",
		colors:              colorScheme{start: "#4c1d95", end: "#a855f7"},
		introPurchaseAPR:    "0% for 15 months",
		purchaseAPR:         "16.99% - 24.99% variable",
		annualMembershipFee: "$95",
		mainMarketingCopy: []string{
			"Earn 5X points on flights and hotels",
			"3X points on travel and dining worldwide",
		},
		extraMarketingCopy: []string{
			"50,000 bonus points after $3,000 spend in 3 months",
			"No foreign transaction fees, priority boarding",
		},
		rules: qualificationRules{
			maxUtilization:          30,
			allowOverdue:            false,
			allowMinimumPaymentOnly: false,
			creditRating:            RatingExcellent,
		},
	},
	{
		key:                 ProductBankBonus,
		productID:           "BANK-001",
		code:                "SAVINGS_BONUS_500",
		displayName:         "High-Yield Savings Account Bonus",
		tier:                "BANKING",
		colors:              colorScheme{start: "#0c4a6e", end: "#0ea5e9"},
		purchaseAPR:         "4.50% APY",
		annualMembershipFee: "$0",
		bonusAmount:         "$500",
		bonusRequirement:    "Deposit $5,000 within 90 days",
		mainMarketingCopy: []string{
			"Earn $500 bonus when you deposit $5,000",
			"Competitive 4.50% APY on all balances",
		},
		extraMarketingCopy: []string{
			"No monthly maintenance fees",
			"FDIC insured up to $250,000",
		},
		rules: qualificationRules{
			// Roughly $5k over 3 months.
			minAvgMonthlySavings: 1666.67,
			allowOverdue:         false,
			creditRating:         RatingGood,
		},
	},
}
