package pricing

import "testing"

func TestNormalize_FreeTierClearsPrices(t *testing.T) {
	e := Normalize(Extraction{
		CurrencyCode:   "usd",
		CurrencySymbol: "$",
		Confidence:     High,
		Plans: []Plan{{
			Name:         "Free",
			IsFreeTier:   true,
			MonthlyPrice: fptr(0),
			AnnualPrice:  fptr(0),
		}},
	})
	p := e.Plans[0]
	if p.MonthlyPrice != nil || p.AnnualPrice != nil || p.AnnualMonthlyEquiv != nil {
		t.Fatalf("free tier must carry no price fields: %+v", p)
	}
	if e.CurrencyCode != "USD" {
		t.Fatalf("currency code should be uppercased, got %q", e.CurrencyCode)
	}
}

func TestNormalize_ContactSalesClearsPrices(t *testing.T) {
	e := Normalize(Extraction{
		CurrencyCode: "USD",
		Confidence:   Medium,
		Plans: []Plan{{
			Name:           "Enterprise",
			IsContactSales: true,
			MonthlyPrice:   fptr(99),
		}},
	})
	if e.Plans[0].MonthlyPrice != nil {
		t.Fatalf("contact-sales plan must carry no price fields")
	}
}

func TestNormalize_CapsFeatures(t *testing.T) {
	features := make([]string, 15)
	for i := range features {
		features[i] = "feature"
	}
	e := Normalize(Extraction{
		CurrencyCode: "USD",
		Confidence:   High,
		Plans:        []Plan{{Name: "Pro", MonthlyPrice: fptr(5), BillingPeriods: []BillingPeriod{Monthly}, KeyFeatures: features}},
	})
	if got := len(e.Plans[0].KeyFeatures); got != MaxKeyFeatures {
		t.Fatalf("expected %d features, got %d", MaxKeyFeatures, got)
	}
}

func TestNormalize_UnknownConfidenceBecomesLow(t *testing.T) {
	e := Normalize(Extraction{CurrencyCode: "USD", Confidence: "very high"})
	if e.Confidence != Low {
		t.Fatalf("unknown confidence should fold to low, got %q", e.Confidence)
	}
}

func TestNormalize_PricedPlanWithoutPeriodsIsFlagged(t *testing.T) {
	e := Normalize(Extraction{
		CurrencyCode: "USD",
		Confidence:   High,
		Plans:        []Plan{{Name: "Pro", MonthlyPrice: fptr(12)}},
	})
	if e.Plans[0].Notes == "" {
		t.Fatalf("priced plan without billing periods should be flagged in notes")
	}
}

func TestNormalize_DropsUnknownBillingPeriods(t *testing.T) {
	e := Normalize(Extraction{
		CurrencyCode: "USD",
		Confidence:   High,
		Plans: []Plan{{
			Name:           "Pro",
			MonthlyPrice:   fptr(12),
			BillingPeriods: []BillingPeriod{"Monthly", "biweekly", Annual},
		}},
	})
	got := e.Plans[0].BillingPeriods
	if len(got) != 2 || got[0] != Monthly || got[1] != Annual {
		t.Fatalf("unexpected billing periods: %v", got)
	}
}

func TestValidCurrencyCode(t *testing.T) {
	for _, code := range []string{"USD", "EUR", "JPY", "BRL", "INR"} {
		if !ValidCurrencyCode(code) {
			t.Fatalf("%s should be a valid ISO 4217 code", code)
		}
	}
	for _, code := range []string{"", "UNKNOWN", "dollars"} {
		if ValidCurrencyCode(code) {
			t.Fatalf("%q should not validate", code)
		}
	}
}

func TestSymbolFor(t *testing.T) {
	cases := map[string]string{
		"USD":     "$",
		"EUR":     "€",
		"GBP":     "£",
		"JPY":     "¥",
		"INR":     "₹",
		"BRL":     "R$",
		"CHF":     "CHF",
		"UNKNOWN": "?",
	}
	for code, want := range cases {
		if got := SymbolFor(code); got != want {
			t.Fatalf("SymbolFor(%s) = %q, want %q", code, got, want)
		}
	}
}

func TestEmpty(t *testing.T) {
	e := Empty("all tiers exhausted")
	if e.CurrencyCode != "UNKNOWN" || e.CurrencySymbol != "?" {
		t.Fatalf("unexpected empty result: %+v", e)
	}
	if e.Confidence != Low || len(e.Plans) != 0 {
		t.Fatalf("empty result must be low confidence with no plans")
	}
	if GatePass(e) {
		t.Fatalf("empty result must never pass the gate")
	}
}
