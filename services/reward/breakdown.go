package reward

import (
	"github.com/shopspring/decimal"
)

type BreakdownIssue struct {
	IssueID    string          `json:"issue_id"`
	ReporterID string          `json:"reporter_id"`
	Username   string          `json:"username"`
	AvatarURL  string          `json:"avatar_url"`
	Reward     decimal.Decimal `json:"reward"`
}

// TierBreakdown explains how one severity pool is shared. IndividualReward is
// the exact per-issue share; it is not rounded because it is never a payout on
// its own.
type TierBreakdown struct {
	Severity         Severity         `json:"severity"`
	TotalPool        decimal.Decimal  `json:"total_pool"`
	IssueCount       int              `json:"issue_count"`
	IndividualReward decimal.Decimal  `json:"individual_reward"`
	Issues           []BreakdownIssue `json:"issues"`
}

// Breakdown lists every tier of the project, highest severity first.
func Breakdown(p Project, issues []Issue, users map[string]User) []TierBreakdown {
	alloc := Allocate(p.Distribution, issues)

	bySeverity := make(map[Severity][]Issue, len(Severities))
	for _, issue := range Qualifying(issues) {
		bySeverity[issue.Severity] = append(bySeverity[issue.Severity], issue)
	}

	tiers := make([]TierBreakdown, 0, len(Severities))
	for _, s := range Severities {
		pool, ok := p.Distribution[s]
		if !ok {
			pool = decimal.Zero
		}
		share := alloc.PerIssue[s]

		tier := TierBreakdown{
			Severity:         s,
			TotalPool:        pool,
			IssueCount:       alloc.Totals[s],
			IndividualReward: share,
			Issues:           make([]BreakdownIssue, 0, len(bySeverity[s])),
		}
		for _, issue := range bySeverity[s] {
			u := users[issue.ReporterID]
			tier.Issues = append(tier.Issues, BreakdownIssue{
				IssueID:    issue.ID,
				ReporterID: issue.ReporterID,
				Username:   u.Username,
				AvatarURL:  u.AvatarURL,
				Reward:     share,
			})
		}
		tiers = append(tiers, tier)
	}

	return tiers
}
