package catalog

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

// Default returns the built-in catalog used when no GCS override is
// configured. Rationale templates use {field} placeholders substituted from
// the user's signals at recommendation time.
func Default() *Catalog {
	return &Catalog{
		EducationContent: []EducationContent{
			{
				ContentID:         "edu_util_001",
				Persona:           "high_utilization",
				Title:             "Understanding Credit Utilization",
				Summary:           "How the share of credit you use affects your financial picture.",
				RationaleTemplate: "Your overall credit utilization is {total_utilization}%. This guide explains how utilization is calculated and what patterns lenders look at.",
				TriggerSignals:    []string{TriggerCreditUtilizationHigh},
			},
			{
				ContentID:         "edu_util_002",
				Persona:           "high_utilization",
				Title:             "How Interest Charges Add Up",
				Summary:           "A walkthrough of how carried balances accrue interest month over month.",
				RationaleTemplate: "You were charged ${interest_charged} in interest recently. This article shows how interest compounds on carried balances.",
				TriggerSignals:    []string{TriggerInterestCharged, TriggerMinimumPaymentOnly},
			},
			{
				ContentID:         "edu_util_003",
				Persona:           "high_utilization",
				Title:             "Payment Strategies Beyond the Minimum",
				Summary:           "Different approaches to paying down revolving balances.",
				RationaleTemplate: "Your recent payments have been close to the minimum due. Here are several approaches people use to pay down balances faster.",
				TriggerSignals:    []string{TriggerMinimumPaymentOnly},
			},
			{
				ContentID:         "edu_income_001",
				Persona:           "variable_income",
				Title:             "Budgeting with Variable Income",
				Summary:           "Planning techniques when paychecks do not arrive on a fixed schedule.",
				RationaleTemplate: "Your income arrives on an irregular schedule with a median gap of {median_pay_gap} days between deposits. These budgeting techniques are built for that pattern.",
				TriggerSignals:    []string{TriggerIrregularFrequency, TriggerMedianPayGapHigh},
			},
			{
				ContentID:         "edu_income_002",
				Persona:           "variable_income",
				Title:             "Building a Cash Flow Cushion",
				Summary:           "Why a one-month buffer smooths out uneven income.",
				RationaleTemplate: "Your cash flow buffer currently covers {cash_flow_buffer} months of expenses. This guide explains how a one-month cushion works.",
				TriggerSignals:    []string{TriggerCashFlowBufferLow},
			},
			{
				ContentID:         "edu_subs_001",
				Persona:           "subscription_heavy",
				Title:             "Auditing Your Subscriptions",
				Summary:           "A checklist for reviewing recurring charges.",
				RationaleTemplate: "You have {recurring_count} recurring subscriptions totaling ${monthly_recurring}/month. This checklist helps you review each one.",
				TriggerSignals:    []string{TriggerSubscriptionCountHigh},
			},
			{
				ContentID:         "edu_subs_002",
				Persona:           "subscription_heavy",
				Title:             "The True Annual Cost of Monthly Charges",
				Summary:           "Seeing recurring spending on a yearly scale.",
				RationaleTemplate: "Your recurring charges add up to ${monthly_recurring} per month. Viewed annually, small monthly amounts can be easier to evaluate.",
				TriggerSignals:    []string{TriggerMonthlyRecurringHigh},
			},
			{
				ContentID:         "edu_savings_001",
				Persona:           "savings_builder",
				Title:             "Keeping Your Savings Momentum",
				Summary:           "Habits that sustain a growing savings balance.",
				RationaleTemplate: "Your savings grew {growth_rate}% over the period. These habits help sustain that momentum.",
				TriggerSignals:    []string{TriggerSavingsGrowthRatePositive},
			},
			{
				ContentID:         "edu_savings_002",
				Persona:           "savings_builder",
				Title:             "Where to Hold an Emergency Fund",
				Summary:           "Account types commonly used for emergency savings.",
				RationaleTemplate: "Your emergency fund covers {emergency_fund_coverage} months of expenses. This article compares common places to hold it.",
				TriggerSignals:    []string{TriggerEmergencyFundAdequate, TriggerSavingsBalancePositive},
			},
			{
				ContentID:         "edu_wellness_001",
				Persona:           "general_wellness",
				Title:             "A Monthly Money Check-In",
				Summary:           "A simple routine for reviewing your finances once a month.",
				RationaleTemplate: "A short monthly review keeps your financial picture current. This routine takes about fifteen minutes.",
			},
			{
				ContentID:         "edu_wellness_002",
				Persona:           "general_wellness",
				Title:             "The Basics of Financial Wellness",
				Summary:           "Core concepts for tracking income, spending, and savings.",
				RationaleTemplate: "These core concepts cover income, spending, and savings tracking at a comfortable pace.",
			},
		},
		PartnerOffers: []PartnerOffer{
			{
				OfferID:           "offer_hysa_001",
				Title:             "High-Yield Savings Account",
				Partner:           "Marble Bank",
				Summary:           "A savings account with a competitive annual yield and no monthly fees.",
				RationaleTemplate: "You hold ${total_savings} in savings. A higher-yield account earns more on the same balance.",
				EligibilityCriteria: map[string]Criterion{
					"savings_balance": {Min: floatPtr(1000)},
					"is_overdue":      {Equals: boolPtr(false)},
				},
			},
			{
				OfferID:           "offer_subtrack_001",
				Title:             "Subscription Tracking Tool",
				Partner:           "Ledgerly",
				Summary:           "Automatic detection and reminders for recurring charges.",
				RationaleTemplate: "With {recurring_count} active subscriptions, a tracking tool surfaces renewals before they post.",
				EligibilityCriteria: map[string]Criterion{
					"subscription_count": {Min: floatPtr(3)},
				},
			},
			{
				OfferID:           "offer_budget_001",
				Title:             "Budget Planner App",
				Partner:           "PlanWise",
				Summary:           "Envelope-style planning with flexible pay-period support.",
				RationaleTemplate: "A flexible planner works with any pay schedule and spending pattern.",
				EligibilityCriteria: map[string]Criterion{
					"credit_utilization": {Max: floatPtr(0.9)},
				},
			},
		},
	}
}
