package recommend

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/spendsense/internal/signals"
)

// RationaleGenerator produces the user-facing explanation for one
// recommendation from its catalog template and the user's signals.
type RationaleGenerator interface {
	Generate(ctx context.Context, template string, set *signals.SignalSet) (string, error)
}

// TemplateRenderer is the default generator. It substitutes {field}
// placeholders with formatted signal values; absent signals render as zero.
type TemplateRenderer struct{}

func NewTemplateRenderer() *TemplateRenderer { return &TemplateRenderer{} }

func (r *TemplateRenderer) Generate(_ context.Context, template string, set *signals.SignalSet) (string, error) {
	return renderTemplate(template, set), nil
}

func renderTemplate(template string, set *signals.SignalSet) string {
	var (
		credit  signals.CreditSignal
		subs    signals.SubscriptionSignal
		savings signals.SavingsSignal
		income  signals.IncomeSignal
	)
	if set != nil {
		if set.CreditUtilization != nil {
			credit = *set.CreditUtilization
		}
		if set.Subscriptions != nil {
			subs = *set.Subscriptions
		}
		if set.SavingsBehavior != nil {
			savings = *set.SavingsBehavior
		}
		if set.IncomeStability != nil {
			income = *set.IncomeStability
		}
	}

	replacer := strings.NewReplacer(
		"{total_utilization}", fmt.Sprintf("%.1f", credit.TotalUtilization),
		"{interest_charged}", fmt.Sprintf("%.2f", credit.InterestCharged),
		"{recurring_count}", fmt.Sprintf("%d", len(subs.RecurringMerchants)),
		"{monthly_recurring}", fmt.Sprintf("%.2f", subs.MonthlyRecurring),
		"{subscription_share}", fmt.Sprintf("%.1f", subs.SubscriptionShare),
		"{total_savings}", fmt.Sprintf("%.2f", savings.TotalSavings),
		"{growth_rate}", fmt.Sprintf("%.1f", savings.GrowthRate),
		"{emergency_fund_coverage}", fmt.Sprintf("%.1f", savings.EmergencyFundCoverage),
		"{net_inflow}", fmt.Sprintf("%.2f", savings.NetInflow),
		"{median_pay_gap}", fmt.Sprintf("%d", income.MedianPayGap),
		"{cash_flow_buffer}", fmt.Sprintf("%.1f", income.CashFlowBuffer),
		"{avg_monthly_income}", fmt.Sprintf("%.2f", income.AvgMonthlyIncome),
	)
	return replacer.Replace(template)
}

// rationaleModelName is the Gemini model used for rationale polishing.
const rationaleModelName = "gemini-2.5-flash"

const rationalePrompt = `You are a financial education assistant. Rewrite the
following recommendation rationale in a neutral, supportive, educational tone.

Rules:
- Educational only, never financial advice.
- No judgmental language (never "overspending", "bad habits", "poor choices",
  "irresponsible", "wasteful").
- Keep every number and percentage exactly as given.
- One or two sentences, plain text only, no Markdown.

Rationale to rewrite:
`

// GeminiRationaleGenerator rewrites the rendered template through Gemini for
// more natural phrasing. It falls back to the plain rendered text when the
// model returns nothing.
type GeminiRationaleGenerator struct {
	client *genai.Client
}

// NewGeminiRationaleGenerator creates a generator using Application Default
// Credentials.
func NewGeminiRationaleGenerator(ctx context.Context) (*GeminiRationaleGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiRationaleGenerator: create genai client: %w", err)
	}
	return &GeminiRationaleGenerator{client: client}, nil
}

func (g *GeminiRationaleGenerator) Generate(ctx context.Context, template string, set *signals.SignalSet) (string, error) {
	rendered := renderTemplate(template, set)

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: rationalePrompt + rendered}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, rationaleModelName, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GeminiRationaleGenerator: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return rendered, nil
	}
	return text, nil
}
