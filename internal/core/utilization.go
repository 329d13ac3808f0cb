package core

// Utilization describes how much of a card's limit is taken by unpaid installments.
type Utilization struct {
	CardID      string  `json:"card_id"`
	LastFour    string  `json:"last_four"`
	TotalUsed   float64 `json:"total_used"`
	Available   float64 `json:"available"`
	Limit       float64 `json:"limit"`
	Utilization float64 `json:"utilization"`
	HasLimit    bool    `json:"has_limit"`
	Currency    string  `json:"currency"`
}

// CardUtilization sums the unpaid installments of every payment charged to
// card. Amounts are added as they are, without currency conversion; currency
// is only carried into the result for display.
func CardUtilization(payments []Payment, card CreditCard, currency string) Utilization {
	u := Utilization{
		CardID:   card.ID,
		LastFour: card.LastFour,
		Currency: currency,
	}

	for _, p := range payments {
		if p.CreditCard != card.LastFour {
			continue
		}
		for _, inst := range GenerateSchedule(p) {
			if !inst.IsPaid {
				u.TotalUsed += inst.Amount
			}
		}
	}

	if card.Limit == nil {
		return u
	}

	u.HasLimit = true
	u.Limit = *card.Limit
	if u.Limit > u.TotalUsed {
		u.Available = u.Limit - u.TotalUsed
	}
	// A present limit of zero has no meaningful ratio.
	if u.Limit > 0 {
		u.Utilization = u.TotalUsed / u.Limit * 100
	}
	return u
}
