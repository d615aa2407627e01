package extractor

import (
	"encoding/json"
	"strings"

	"github.com/hyperifyio/gopricing/internal/pricing"
)

// salvage maps an invalid-but-partially-useful payload to a well-defined
// degraded value. It recovers the currency fields and every individually
// well-formed plan entry, and always returns low confidence with the failure
// note attached. A payload with nothing to recover degrades to the canonical
// empty result.
func salvage(payload string, note string) pricing.Extraction {
	out := pricing.Empty(note)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return out
	}

	if code, ok := stringField(raw, "currency_code"); ok {
		out.CurrencyCode = strings.ToUpper(code)
	}
	if sym, ok := stringField(raw, "currency_symbol"); ok {
		out.CurrencySymbol = sym
	}
	if out.CurrencySymbol == "?" && pricing.ValidCurrencyCode(out.CurrencyCode) {
		out.CurrencySymbol = pricing.SymbolFor(out.CurrencyCode)
	}

	plansRaw, ok := raw["plans"]
	if !ok {
		return out
	}
	var planItems []json.RawMessage
	if err := json.Unmarshal(plansRaw, &planItems); err != nil {
		return out
	}
	salvaged := 0
	for _, item := range planItems {
		var v any
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		if err := validatePlan(v); err != nil {
			continue
		}
		var p pricing.Plan
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		out.Plans = append(out.Plans, p)
		salvaged++
	}
	if salvaged > 0 {
		out = pricing.Normalize(out)
		// Normalize may touch confidence; salvage output stays low.
		out.Confidence = pricing.Low
		out.Notes = note
	}
	return out
}

func stringField(raw map[string]json.RawMessage, key string) (string, bool) {
	v, ok := raw[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}
