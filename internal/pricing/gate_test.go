package pricing

import "testing"

func fptr(v float64) *float64 { return &v }

func TestGatePass_LowConfidenceAlwaysFails(t *testing.T) {
	e := Extraction{
		CurrencyCode:   "USD",
		CurrencySymbol: "$",
		Confidence:     Low,
		Plans: []Plan{{
			Name:         "Pro",
			MonthlyPrice: fptr(9.99),
		}},
	}
	if GatePass(e) {
		t.Fatalf("low confidence must fail the gate regardless of plans")
	}
}

func TestGatePass_EmptyPlansFails(t *testing.T) {
	e := Extraction{CurrencyCode: "USD", CurrencySymbol: "$", Confidence: High}
	if GatePass(e) {
		t.Fatalf("empty plan list must fail the gate")
	}
}

func TestGatePass_PaidPlanWithPricePasses(t *testing.T) {
	e := Extraction{
		CurrencyCode:   "USD",
		CurrencySymbol: "$",
		Confidence:     Medium,
		Plans: []Plan{{
			Name:         "Pro",
			MonthlyPrice: fptr(9.99),
		}},
	}
	if !GatePass(e) {
		t.Fatalf("medium confidence with a priced plan should pass")
	}
}

func TestGatePass_PaidPlanWithoutPriceFails(t *testing.T) {
	// Free and enterprise tiers present in static markup, but the paid plan's
	// amount was injected client side and came back null.
	e := Extraction{
		CurrencyCode:   "USD",
		CurrencySymbol: "$",
		Confidence:     Medium,
		Plans: []Plan{
			{Name: "Free", IsFreeTier: true},
			{Name: "Pro"},
		},
	}
	if GatePass(e) {
		t.Fatalf("paid plan without a numeric price must fail the gate")
	}
}

func TestGatePass_AllFreeOrContactSalesPasses(t *testing.T) {
	e := Extraction{
		CurrencyCode:   "USD",
		CurrencySymbol: "$",
		Confidence:     High,
		Plans: []Plan{
			{Name: "Free", IsFreeTier: true},
			{Name: "Enterprise", IsContactSales: true},
		},
	}
	if !GatePass(e) {
		t.Fatalf("free + contact-sales only page should pass without numeric prices")
	}
}

func TestGatePass_NoPriceSignalFails(t *testing.T) {
	e := Extraction{
		CurrencyCode:   "USD",
		CurrencySymbol: "$",
		Confidence:     High,
		Plans:          []Plan{{Name: "Mystery"}},
	}
	if GatePass(e) {
		t.Fatalf("plans without any price signal must fail the gate")
	}
}

func TestGatePass_AnnualEquivalentCountsAsPrice(t *testing.T) {
	e := Extraction{
		CurrencyCode:   "EUR",
		CurrencySymbol: "€",
		Confidence:     Medium,
		Plans: []Plan{{
			Name:               "Premium",
			AnnualMonthlyEquiv: fptr(7.49),
		}},
	}
	if !GatePass(e) {
		t.Fatalf("annual-equivalent price should satisfy the paid-plan check")
	}
}
