package reward

import (
	"github.com/shopspring/decimal"
)

// Totals is one dashboard bucket, rounded to whole units.
type Totals struct {
	Earned  decimal.Decimal `json:"earned"`
	Pending decimal.Decimal `json:"pending"`
	Total   decimal.Decimal `json:"total"`
}

// DashboardStats is a single reporter's reward summary across every project
// they reported into. Pools in different currencies are never merged inside
// ByCurrency; Combined is a plain numeric sum kept for display.
type DashboardStats struct {
	Combined   Totals              `json:"combined"`
	ByCurrency map[Currency]Totals `json:"by_currency"`
}

type rawTotals struct {
	earned  decimal.Decimal
	pending decimal.Decimal
}

func (r rawTotals) rounded() Totals {
	return Totals{
		Earned:  Round(r.earned),
		Pending: Round(r.pending),
		Total:   Round(r.earned.Add(r.pending)),
	}
}

// Dashboard computes the earned and pending rewards of reporterID.
//
// Earned comes from the reporter's solved or acknowledged issues, shared against
// every qualifying issue of the project. Pending prices the reporter's open or
// in-progress issues at the same per-issue share, so a tier with no qualifying
// issue yet projects nothing.
func Dashboard(reporterID string, projects []ProjectIssues) DashboardStats {
	raw := make(map[Currency]rawTotals, len(Currencies))
	for _, c := range Currencies {
		raw[c] = rawTotals{earned: decimal.Zero, pending: decimal.Zero}
	}

	for _, p := range projects {
		mine := ByReporter(p.Issues, reporterID)
		if len(mine) == 0 {
			continue
		}

		alloc := Allocate(p.Project.Distribution, p.Issues)
		earned := alloc.ByReporter[reporterID]
		pending := ReporterRewards(Pending(mine), alloc.PerIssue)[reporterID]

		currency := p.Project.Currency.Normalize()
		bucket := raw[currency]
		bucket.earned = bucket.earned.Add(earned)
		bucket.pending = bucket.pending.Add(pending)
		raw[currency] = bucket
	}

	stats := DashboardStats{ByCurrency: make(map[Currency]Totals, len(raw))}
	combined := rawTotals{earned: decimal.Zero, pending: decimal.Zero}
	for currency, bucket := range raw {
		stats.ByCurrency[currency] = bucket.rounded()
		combined.earned = combined.earned.Add(bucket.earned)
		combined.pending = combined.pending.Add(bucket.pending)
	}
	stats.Combined = combined.rounded()

	return stats
}
