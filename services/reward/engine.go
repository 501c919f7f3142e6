// Package reward splits per-severity reward pools between the reporters of a
// project. Every function is pure: callers fetch a snapshot of projects, issues
// and users, and the package derives dashboard, leaderboard and settlement
// figures from that snapshot alone.
//
// Amounts keep full decimal precision through division and summation. Rounding
// to whole units happens once, on the final total shown for a reporter or a
// dashboard bucket.
package reward

import (
	"github.com/shopspring/decimal"
)

// SeverityTotals counts the given issues per severity tier. Callers filter the
// slice beforehand; every known tier is present in the result.
func SeverityTotals(issues []Issue) Counts {
	totals := make(Counts, len(Severities))
	for _, s := range Severities {
		totals[s] = 0
	}
	for _, issue := range issues {
		totals[issue.Severity]++
	}
	return totals
}

// RewardPerIssue divides each tier pool by the number of issues counted in that
// tier. Tiers without issues, and issues in tiers without a pool, pay zero.
func RewardPerIssue(d Distribution, totals Counts) Distribution {
	perIssue := make(Distribution, len(Severities))
	for _, s := range Severities {
		perIssue[s] = decimal.Zero
	}

	for s, pool := range d {
		count := totals[s]
		if count <= 0 {
			perIssue[s] = decimal.Zero
			continue
		}
		perIssue[s] = pool.Div(decimal.NewFromInt(int64(count)))
	}

	return perIssue
}

// ReporterRewards sums the per-issue reward of every given issue by reporter.
// A reporter appears in the result iff at least one of their issues was given,
// even when all of those issues sit in unfunded tiers.
func ReporterRewards(issues []Issue, perIssue Distribution) map[string]decimal.Decimal {
	rewards := make(map[string]decimal.Decimal)
	for _, issue := range issues {
		share, ok := perIssue[issue.Severity]
		if !ok {
			share = decimal.Zero
		}
		current, ok := rewards[issue.ReporterID]
		if !ok {
			current = decimal.Zero
		}
		rewards[issue.ReporterID] = current.Add(share)
	}
	return rewards
}

// Allocation is the full per-project computation shared by every view.
type Allocation struct {
	Totals     Counts
	PerIssue   Distribution
	ByReporter map[string]decimal.Decimal
}

// Allocate runs the tier count, per-issue share and per-reporter sum over the
// qualifying subset of issues.
func Allocate(d Distribution, issues []Issue) Allocation {
	qualifying := Qualifying(issues)
	totals := SeverityTotals(qualifying)
	perIssue := RewardPerIssue(d, totals)

	return Allocation{
		Totals:     totals,
		PerIssue:   perIssue,
		ByReporter: ReporterRewards(qualifying, perIssue),
	}
}

// Qualifying keeps solved and acknowledged issues.
func Qualifying(issues []Issue) []Issue {
	return filter(issues, func(i Issue) bool { return i.Status.Qualifying() })
}

// Pending keeps open and in-progress issues.
func Pending(issues []Issue) []Issue {
	return filter(issues, func(i Issue) bool { return i.Status.Pending() })
}

// ByReporter keeps the issues reported by reporterID.
func ByReporter(issues []Issue, reporterID string) []Issue {
	return filter(issues, func(i Issue) bool { return i.ReporterID == reporterID })
}

// Round rounds a final amount to whole currency units, half away from zero.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(0)
}

func filter(issues []Issue, keep func(Issue) bool) []Issue {
	out := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		if keep(issue) {
			out = append(out, issue)
		}
	}
	return out
}
