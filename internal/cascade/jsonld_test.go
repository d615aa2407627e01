package cascade

import (
	"testing"

	"github.com/hyperifyio/gopricing/internal/pricing"
)

func TestFromJSONLD_NoStructuredData(t *testing.T) {
	if _, ok := fromJSONLD("<html><body><p>$9.99/month</p></body></html>"); ok {
		t.Fatalf("page without JSON-LD should report not-attempted")
	}
}

func TestFromJSONLD_MalformedBlockIgnored(t *testing.T) {
	page := `<html><head><script type="application/ld+json">{not json</script></head><body></body></html>`
	if _, ok := fromJSONLD(page); ok {
		t.Fatalf("malformed JSON-LD should report not-attempted")
	}
}

func TestFromJSONLD_GraphWrapper(t *testing.T) {
	page := `<html><head><script type="application/ld+json">
	{"@context": "https://schema.org", "@graph": [
	  {"@type": "Product", "name": "Acme Cloud", "offers": [
	    {"@type": "Offer", "price": 12.5, "priceCurrency": "EUR"}
	  ]}
	]}
	</script></head><body></body></html>`
	ext, ok := fromJSONLD(page)
	if !ok {
		t.Fatalf("expected offers from @graph wrapper")
	}
	if ext.CurrencyCode != "EUR" || ext.CurrencySymbol != "€" {
		t.Fatalf("unexpected currency: %q %q", ext.CurrencyCode, ext.CurrencySymbol)
	}
	if len(ext.Plans) != 1 || ext.Plans[0].Name != "Acme Cloud" {
		t.Fatalf("offer should inherit product name: %+v", ext.Plans)
	}
	if ext.Plans[0].MonthlyPrice == nil || *ext.Plans[0].MonthlyPrice != 12.5 {
		t.Fatalf("price lost: %+v", ext.Plans[0])
	}
}

func TestFromJSONLD_AnnualPriceSpecification(t *testing.T) {
	page := `<html><head><script type="application/ld+json">
	{"@type": "Product", "name": "Acme", "offers": [
	  {"@type": "Offer", "name": "Pro Annual", "priceCurrency": "USD",
	   "priceSpecification": {"@type": "UnitPriceSpecification", "price": "99.00", "billingDuration": "P1Y"}}
	]}
	</script></head><body></body></html>`
	ext, ok := fromJSONLD(page)
	if !ok {
		t.Fatalf("expected an offer")
	}
	p := ext.Plans[0]
	if p.AnnualPrice == nil || *p.AnnualPrice != 99 {
		t.Fatalf("annual price not mapped: %+v", p)
	}
	if p.MonthlyPrice != nil {
		t.Fatalf("annual offer should not set a monthly price")
	}
	if len(p.BillingPeriods) != 1 || p.BillingPeriods[0] != pricing.Annual {
		t.Fatalf("billing period not mapped: %+v", p.BillingPeriods)
	}
}

func TestFromJSONLD_BillingPeriodSpellings(t *testing.T) {
	cases := []struct {
		key, value string
		want       pricing.BillingPeriod
	}{
		{"billingDuration", "P1Y", pricing.Annual},
		{"billingDuration", "P1M", pricing.Monthly},
		{"unitText", "annual", pricing.Annual},
		{"unitText", "annually", pricing.Annual},
		{"unitText", "year", pricing.Annual},
		{"unitText", "month", pricing.Monthly},
		{"unitCode", "ANN", pricing.Annual},
		{"unitCode", "MON", pricing.Monthly},
	}
	for _, tc := range cases {
		page := `<html><head><script type="application/ld+json">
		{"@type": "Product", "name": "Acme", "offers": [
		  {"@type": "Offer", "name": "Pro", "priceCurrency": "USD",
		   "priceSpecification": {"price": 99, "` + tc.key + `": "` + tc.value + `"}}
		]}
		</script></head><body></body></html>`
		ext, ok := fromJSONLD(page)
		if !ok || len(ext.Plans) != 1 {
			t.Fatalf("%s=%q: expected one offer, got %+v", tc.key, tc.value, ext.Plans)
		}
		p := ext.Plans[0]
		switch tc.want {
		case pricing.Annual:
			if p.AnnualPrice == nil || p.MonthlyPrice != nil {
				t.Errorf("%s=%q: yearly amount mapped to %+v", tc.key, tc.value, p)
			}
		case pricing.Monthly:
			if p.MonthlyPrice == nil || p.AnnualPrice != nil {
				t.Errorf("%s=%q: monthly amount mapped to %+v", tc.key, tc.value, p)
			}
		}
		if len(p.BillingPeriods) != 1 || p.BillingPeriods[0] != tc.want {
			t.Errorf("%s=%q: billing periods = %v, want %s", tc.key, tc.value, p.BillingPeriods, tc.want)
		}
	}
}

func TestFromJSONLD_ZeroPriceIsFreeTier(t *testing.T) {
	page := `<html><head><script type="application/ld+json">
	{"@type": "Product", "name": "Acme", "offers": [
	  {"@type": "Offer", "name": "Free", "price": "0", "priceCurrency": "USD"}
	]}
	</script></head><body></body></html>`
	ext, ok := fromJSONLD(page)
	if !ok || !ext.Plans[0].IsFreeTier {
		t.Fatalf("zero-price offer should map to a free tier: %+v", ext.Plans)
	}
}
