package pricing

// GatePass is the quality gate deciding whether a tier's extraction is
// trustworthy enough to stop the cascade.
//
// An extraction passes when:
//   - confidence is not low,
//   - the plan list is non-empty,
//   - at least one plan carries a price signal (numeric price, free tier,
//     or contact-sales marker), and
//   - if any plan is nominally paid (neither free nor contact-sales), at
//     least one such paid plan carries an actual numeric price.
//
// The last check catches pages that render free and enterprise tiers in
// static markup but inject the paid-tier amounts client side: the cheap tier
// would otherwise return exactly the prices a caller cares about as null.
func GatePass(e Extraction) bool {
	if e.Confidence == Low {
		return false
	}
	if len(e.Plans) == 0 {
		return false
	}
	anySignal := false
	paidSeen := false
	paidPriced := false
	for _, p := range e.Plans {
		if p.HasPriceSignal() {
			anySignal = true
		}
		if !p.IsFreeTier && !p.IsContactSales {
			paidSeen = true
			if p.HasNumericPrice() {
				paidPriced = true
			}
		}
	}
	if !anySignal {
		return false
	}
	if paidSeen && !paidPriced {
		return false
	}
	return true
}
