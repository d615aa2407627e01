package pricing

import (
	"strings"

	"golang.org/x/text/currency"
)

// BillingPeriod is one billing cadence offered by a plan.
type BillingPeriod string

const (
	Monthly   BillingPeriod = "monthly"
	Annual    BillingPeriod = "annual"
	Weekly    BillingPeriod = "weekly"
	Quarterly BillingPeriod = "quarterly"
)

// TargetAudience classifies who a plan is sold to.
type TargetAudience string

const (
	Individual TargetAudience = "individual"
	Family     TargetAudience = "family"
	Student    TargetAudience = "student"
	Team       TargetAudience = "team"
	Enterprise TargetAudience = "enterprise"
)

// Confidence is the extraction service's self-assessed reliability.
type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

// Plan is one subscription tier as displayed on a pricing page.
type Plan struct {
	Name               string          `json:"plan_name"`
	MonthlyPrice       *float64        `json:"monthly_price"`
	AnnualPrice        *float64        `json:"annual_price"`
	AnnualMonthlyEquiv *float64        `json:"annual_monthly_equivalent"`
	BillingPeriods     []BillingPeriod `json:"billing_periods_available"`
	IsFreeTier         bool            `json:"is_free_tier"`
	IsContactSales     bool            `json:"is_contact_sales"`
	TargetAudience     TargetAudience  `json:"target_audience"`
	KeyFeatures        []string        `json:"key_features"`
	Notes              string          `json:"notes,omitempty"`
}

// HasNumericPrice reports whether the plan carries any concrete price figure.
func (p Plan) HasNumericPrice() bool {
	return p.MonthlyPrice != nil || p.AnnualPrice != nil || p.AnnualMonthlyEquiv != nil
}

// HasPriceSignal reports whether the plan carries any price information at
// all: a numeric price, an explicit free tier, or a contact-sales marker.
func (p Plan) HasPriceSignal() bool {
	return p.HasNumericPrice() || p.IsFreeTier || p.IsContactSales
}

// Extraction is the structured output of one cascade run against a page.
type Extraction struct {
	CurrencyCode   string     `json:"currency_code"`
	CurrencySymbol string     `json:"currency_symbol"`
	Plans          []Plan     `json:"plans"`
	Confidence     Confidence `json:"extraction_confidence"`
	Notes          string     `json:"extraction_notes,omitempty"`
}

// Empty returns the canonical result used when every tier is exhausted or the
// service produced nothing salvageable.
func Empty(note string) Extraction {
	return Extraction{
		CurrencyCode:   "UNKNOWN",
		CurrencySymbol: "?",
		Plans:          nil,
		Confidence:     Low,
		Notes:          note,
	}
}

// MaxKeyFeatures caps the per-plan feature list.
const MaxKeyFeatures = 10

// Normalize enforces the model invariants on an extraction in place and
// returns it: free-tier and contact-sales plans must not carry prices, the
// feature list is capped, enum values are folded to lowercase, and a plan
// priced without any billing period is flagged in the notes rather than
// rejected.
func Normalize(e Extraction) Extraction {
	e.CurrencyCode = strings.ToUpper(strings.TrimSpace(e.CurrencyCode))
	if e.CurrencyCode == "" {
		e.CurrencyCode = "UNKNOWN"
	}
	if strings.TrimSpace(e.CurrencySymbol) == "" {
		e.CurrencySymbol = "?"
	}
	switch Confidence(strings.ToLower(string(e.Confidence))) {
	case High, Medium, Low:
		e.Confidence = Confidence(strings.ToLower(string(e.Confidence)))
	default:
		e.Confidence = Low
	}
	for i := range e.Plans {
		p := &e.Plans[i]
		p.Name = strings.TrimSpace(p.Name)
		if p.IsFreeTier || p.IsContactSales {
			p.MonthlyPrice = nil
			p.AnnualPrice = nil
			p.AnnualMonthlyEquiv = nil
		}
		if len(p.KeyFeatures) > MaxKeyFeatures {
			p.KeyFeatures = p.KeyFeatures[:MaxKeyFeatures]
		}
		p.TargetAudience = TargetAudience(strings.ToLower(string(p.TargetAudience)))
		switch p.TargetAudience {
		case Individual, Family, Student, Team, Enterprise:
		default:
			p.TargetAudience = Individual
		}
		periods := p.BillingPeriods[:0]
		for _, bp := range p.BillingPeriods {
			switch BillingPeriod(strings.ToLower(string(bp))) {
			case Monthly, Annual, Weekly, Quarterly:
				periods = append(periods, BillingPeriod(strings.ToLower(string(bp))))
			}
		}
		p.BillingPeriods = periods
		if p.HasNumericPrice() && len(p.BillingPeriods) == 0 {
			p.Notes = appendNote(p.Notes, "priced plan lists no billing period")
		}
	}
	return e
}

func appendNote(existing, note string) string {
	if strings.TrimSpace(existing) == "" {
		return note
	}
	if strings.Contains(existing, note) {
		return existing
	}
	return existing + "; " + note
}

// ValidCurrencyCode reports whether code is a well-formed ISO 4217 unit.
func ValidCurrencyCode(code string) bool {
	_, err := currency.ParseISO(code)
	return err == nil
}

// SymbolFor returns a display symbol for a currency code, falling back to the
// code itself for units without a common symbol.
func SymbolFor(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "USD", "AUD", "CAD", "NZD", "SGD", "HKD", "MXN":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	case "JPY", "CNY":
		return "¥"
	case "INR":
		return "₹"
	case "BRL":
		return "R$"
	case "KRW":
		return "₩"
	case "TRY":
		return "₺"
	default:
		if ValidCurrencyCode(code) {
			return strings.ToUpper(strings.TrimSpace(code))
		}
		return "?"
	}
}
