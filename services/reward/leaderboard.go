package reward

import (
	"sort"

	"github.com/shopspring/decimal"
)

type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	IssueCounts
	TotalIssues     int             `json:"total_issues"`
	ValidIssues     int             `json:"valid_issues"`
	EstimatedReward decimal.Decimal `json:"estimated_reward"`
	RewardCurrency  Currency        `json:"reward_currency"`
}

// Leaderboard ranks the reporters of one project. Only reporters with at least
// one qualifying issue are listed. Ranking is by qualifying issue count, then by
// raw issue count, then by user id so equal rows keep a stable order.
func Leaderboard(p Project, issues []Issue, users map[string]User) []LeaderboardEntry {
	alloc := Allocate(p.Distribution, issues)
	currency := p.Currency.Normalize()

	byUser := make(map[string]*LeaderboardEntry)
	for _, issue := range issues {
		entry, ok := byUser[issue.ReporterID]
		if !ok {
			u := users[issue.ReporterID]
			entry = &LeaderboardEntry{
				ProjectID:      p.ID,
				UserID:         issue.ReporterID,
				Username:       u.Username,
				AvatarURL:      u.AvatarURL,
				RewardCurrency: currency,
			}
			byUser[issue.ReporterID] = entry
		}

		entry.TotalIssues++
		if issue.Status.Qualifying() {
			entry.ValidIssues++
			entry.IssueCounts.add(issue.Severity)
		}
	}

	entries := make([]LeaderboardEntry, 0, len(byUser))
	for userID, entry := range byUser {
		if entry.ValidIssues == 0 {
			continue
		}
		entry.EstimatedReward = Round(alloc.ByReporter[userID])
		entries = append(entries, *entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ValidIssues != entries[j].ValidIssues {
			return entries[i].ValidIssues > entries[j].ValidIssues
		}
		if entries[i].TotalIssues != entries[j].TotalIssues {
			return entries[i].TotalIssues > entries[j].TotalIssues
		}
		return entries[i].UserID < entries[j].UserID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}
