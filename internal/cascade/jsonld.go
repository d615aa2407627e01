package cascade

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/gopricing/internal/pricing"
)

// fromJSONLD scans raw markup for schema.org JSON-LD blocks and builds an
// extraction from any Product/Offer data found. Returns ok=false when the
// page embeds no usable structured pricing, so the cascade treats the tier
// as skipped rather than failed.
func fromJSONLD(rawHTML string) (pricing.Extraction, bool) {
	blocks := jsonLDBlocks(rawHTML)
	if len(blocks) == 0 {
		return pricing.Extraction{}, false
	}

	var offers []ldOffer
	for _, block := range blocks {
		var v any
		if err := json.Unmarshal([]byte(block), &v); err != nil {
			continue
		}
		collectOffers(v, "", &offers)
	}
	if len(offers) == 0 {
		return pricing.Extraction{}, false
	}

	ext := pricing.Extraction{
		Confidence: pricing.Medium,
		Notes:      "extracted from embedded JSON-LD structured data",
	}
	for _, o := range offers {
		if ext.CurrencyCode == "" && o.currency != "" {
			ext.CurrencyCode = strings.ToUpper(o.currency)
		}
		plan := pricing.Plan{Name: o.name, TargetAudience: pricing.Individual}
		switch {
		case o.price == nil:
			// Offer without a price is treated as contact-sales only when
			// explicitly marked; otherwise it stays unpriced and the gate
			// decides.
		case *o.price == 0:
			plan.IsFreeTier = true
		case o.period == "year":
			p := *o.price
			plan.AnnualPrice = &p
			plan.BillingPeriods = []pricing.BillingPeriod{pricing.Annual}
		default:
			p := *o.price
			plan.MonthlyPrice = &p
			plan.BillingPeriods = []pricing.BillingPeriod{pricing.Monthly}
		}
		ext.Plans = append(ext.Plans, plan)
	}
	if ext.CurrencyCode == "" {
		ext.CurrencyCode = "UNKNOWN"
	}
	ext.CurrencySymbol = pricing.SymbolFor(ext.CurrencyCode)
	return pricing.Normalize(ext), true
}

// jsonLDBlocks returns the text of every <script type="application/ld+json">
// element in the markup.
func jsonLDBlocks(rawHTML string) []string {
	node, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil || node == nil {
		return nil
	}
	var blocks []string
	var dfs func(*html.Node)
	dfs = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "script") {
			for _, a := range n.Attr {
				if strings.EqualFold(a.Key, "type") && strings.EqualFold(strings.TrimSpace(a.Val), "application/ld+json") {
					if n.FirstChild != nil {
						blocks = append(blocks, n.FirstChild.Data)
					}
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(node)
	return blocks
}

type ldOffer struct {
	name     string
	price    *float64
	currency string
	// period is "month", "year", or "" when the offer does not say.
	period string
}

// collectOffers walks a decoded JSON-LD value and accumulates offers found
// under Product/Service/SoftwareApplication entries, including @graph
// wrappers and AggregateOffer containers.
func collectOffers(v any, productName string, out *[]ldOffer) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			collectOffers(item, productName, out)
		}
	case map[string]any:
		typ := ldType(t)
		name := strField(t, "name")
		if name == "" {
			name = productName
		}
		switch typ {
		case "offer":
			*out = append(*out, offerFrom(t, name))
			return
		case "aggregateoffer":
			collectOffers(t["offers"], name, out)
			return
		}
		if graph, ok := t["@graph"]; ok {
			collectOffers(graph, name, out)
		}
		if offers, ok := t["offers"]; ok {
			collectOffers(offers, name, out)
		}
	}
}

func offerFrom(m map[string]any, fallbackName string) ldOffer {
	o := ldOffer{name: strField(m, "name"), currency: strField(m, "priceCurrency")}
	if o.name == "" {
		o.name = fallbackName
	}
	if p, ok := numField(m, "price"); ok {
		o.price = &p
	}
	if spec, ok := m["priceSpecification"].(map[string]any); ok {
		if o.price == nil {
			if p, ok := numField(spec, "price"); ok {
				o.price = &p
			}
		}
		if o.currency == "" {
			o.currency = strField(spec, "priceCurrency")
		}
		o.period = billingPeriodFrom(spec)
	}
	return o
}

func billingPeriodFrom(spec map[string]any) string {
	for _, key := range []string{"billingDuration", "unitText", "unitCode"} {
		v := strings.ToLower(strField(spec, key))
		switch {
		case strings.Contains(v, "year") || strings.Contains(v, "ann") || v == "p1y":
			return "year"
		case strings.Contains(v, "mon") || v == "p1m":
			return "month"
		}
	}
	return ""
}

func ldType(m map[string]any) string {
	switch t := m["@type"].(type) {
	case string:
		return strings.ToLower(t)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				return strings.ToLower(s)
			}
		}
	}
	return ""
}

func strField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func numField(m map[string]any, key string) (float64, bool) {
	switch t := m[key].(type) {
	case float64:
		return t, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
