package settlement

import (
	"time"

	"bountyhub/services/reward"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Snapshot is the settlement roster frozen when a project closed.
type Snapshot struct {
	ID             string                                   `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt      time.Time                                `gorm:"column:created_at" json:"created_at"`
	ProjectID      string                                   `gorm:"column:project_id;uniqueIndex" json:"project_id"`
	Code           string                                   `gorm:"column:code" json:"code"`
	Currency       reward.Currency                          `gorm:"column:currency" json:"currency"`
	TotalPayout    decimal.Decimal                          `gorm:"column:total_payout;type:decimal(20,8)" json:"total_payout"`
	MissingWallets int                                      `gorm:"column:missing_wallets" json:"missing_wallets"`
	Entries        datatypes.JSONSlice[reward.SettlementEntry] `gorm:"column:entries" json:"entries"`
}

type SnapshotInfo struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// SettlementView is the payable roster of a project, frozen or live.
type SettlementView struct {
	ProjectID      string                   `json:"project_id"`
	Currency       reward.Currency          `json:"reward_currency"`
	Frozen         bool                     `json:"frozen"`
	Snapshot       *SnapshotInfo            `json:"snapshot,omitempty"`
	Entries        []reward.SettlementEntry `json:"entries"`
	TotalPayout    decimal.Decimal          `json:"total_payout"`
	MissingWallets int                      `json:"missing_wallets"`
}

func (m *Snapshot) View() SettlementView {
	return SettlementView{
		ProjectID:      m.ProjectID,
		Currency:       m.Currency,
		Frozen:         true,
		Snapshot:       &SnapshotInfo{ID: m.ID, Code: m.Code, CreatedAt: m.CreatedAt},
		Entries:        m.Entries,
		TotalPayout:    m.TotalPayout,
		MissingWallets: m.MissingWallets,
	}
}

type DashboardView struct {
	reward.DashboardStats
	ActiveProjects int64 `json:"active_projects"`
	ReportedIssues int64 `json:"reported_issues"`
}

type LeaderboardView struct {
	ProjectID string                    `json:"project_id"`
	Entries   []reward.LeaderboardEntry `json:"entries"`
}

type BreakdownView struct {
	ProjectID string                `json:"project_id"`
	Currency  reward.Currency       `json:"reward_currency"`
	Tiers     []reward.TierBreakdown `json:"tiers"`
}
