package reward

import (
	"sort"

	"github.com/shopspring/decimal"
)

type SettlementEntry struct {
	UserID        string  `json:"user_id"`
	Username      string  `json:"username"`
	AvatarURL     string  `json:"avatar_url"`
	WalletAddress *string `json:"wallet_address"`
	IssueCounts
	TotalReward    decimal.Decimal `json:"total_reward"`
	RewardCurrency Currency        `json:"reward_currency"`
}

// Settlement builds the payable roster of one project. Every reporter with a
// qualifying issue is listed, including those without a wallet address and
// those whose issues all fall in unfunded tiers. Rows are ordered by reward,
// highest first, then by user id.
func Settlement(p Project, issues []Issue, users map[string]User) []SettlementEntry {
	alloc := Allocate(p.Distribution, issues)
	currency := p.Currency.Normalize()

	byUser := make(map[string]*SettlementEntry)
	for _, issue := range Qualifying(issues) {
		entry, ok := byUser[issue.ReporterID]
		if !ok {
			u := users[issue.ReporterID]
			entry = &SettlementEntry{
				UserID:         issue.ReporterID,
				Username:       u.Username,
				AvatarURL:      u.AvatarURL,
				WalletAddress:  walletOrNil(u.WalletAddress),
				RewardCurrency: currency,
			}
			byUser[issue.ReporterID] = entry
		}
		entry.IssueCounts.add(issue.Severity)
	}

	entries := make([]SettlementEntry, 0, len(byUser))
	for userID, entry := range byUser {
		entry.TotalReward = Round(alloc.ByReporter[userID])
		entries = append(entries, *entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if c := entries[i].TotalReward.Cmp(entries[j].TotalReward); c != 0 {
			return c > 0
		}
		return entries[i].UserID < entries[j].UserID
	})

	return entries
}

// MissingWallets counts roster rows that cannot be paid yet.
func MissingWallets(entries []SettlementEntry) int {
	n := 0
	for _, e := range entries {
		if e.WalletAddress == nil {
			n++
		}
	}
	return n
}

// TotalPayout sums the rounded rewards of a roster.
func TotalPayout(entries []SettlementEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.TotalReward)
	}
	return total
}

func walletOrNil(addr *string) *string {
	if addr == nil || *addr == "" {
		return nil
	}
	v := *addr
	return &v
}
