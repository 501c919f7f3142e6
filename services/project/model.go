package project

import (
	"time"

	"bountyhub/services/access"
	"bountyhub/services/reward"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusClosed
}

type Project struct {
	ID                   string                                 `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt            time.Time                              `gorm:"column:created_at" json:"created_at"`
	UpdatedAt            time.Time                              `gorm:"column:updated_at" json:"updated_at"`
	Slug                 string                                 `gorm:"column:slug;uniqueIndex" json:"slug"`
	Title                string                                 `gorm:"column:title" json:"title"`
	Description          string                                 `gorm:"column:description" json:"description"`
	OwnerID              string                                 `gorm:"column:owner_id;index" json:"owner_id"`
	OwnerOrganization    string                                 `gorm:"column:owner_organization" json:"owner_organization"`
	RepositoryURL        string                                 `gorm:"column:repository_url" json:"repository_url"`
	BranchName           string                                 `gorm:"column:branch_name" json:"branch_name"`
	SelectedFiles        datatypes.JSONSlice[string]            `gorm:"column:selected_files" json:"selected_files"`
	TotalRewardPool      decimal.Decimal                        `gorm:"column:total_reward_pool;type:decimal(20,8)" json:"total_reward_pool"`
	RewardDistribution   datatypes.JSONType[reward.Distribution] `gorm:"column:reward_distribution" json:"reward_distribution"`
	RewardCurrency       reward.Currency                        `gorm:"column:reward_currency" json:"reward_currency"`
	TotalLinesOfCode     int                                    `gorm:"column:total_lines_of_code" json:"total_lines_of_code"`
	Status               Status                                 `gorm:"column:status;index" json:"status"`
	Visibility           access.Visibility                      `gorm:"column:visibility" json:"visibility"`
	AllowedOrganizations string                                 `gorm:"column:allowed_organizations" json:"-"`
	StartDate            *time.Time                             `gorm:"column:start_date" json:"start_date"`
	EndDate              *time.Time                             `gorm:"column:end_date" json:"end_date"`
}

func (m *Project) Organizations() []string {
	return access.ParseOrganizations(m.AllowedOrganizations)
}

func (m *Project) Access() access.ProjectAccess {
	return access.ProjectAccess{
		OwnerID:              m.OwnerID,
		OwnerOrganization:    m.OwnerOrganization,
		Visibility:           m.Visibility,
		AllowedOrganizations: m.Organizations(),
	}
}

// ToReward is the slice of the project the reward engine needs.
func (m *Project) ToReward() reward.Project {
	return reward.Project{
		ID:           m.ID,
		Title:        m.Title,
		Distribution: m.RewardDistribution.Data(),
		Currency:     m.RewardCurrency.Normalize(),
	}
}

// View is the JSON shape returned to clients.
type View struct {
	*Project
	AllowedOrganizations []string `json:"allowed_organizations"`
}

func (m *Project) View() View {
	return View{Project: m, AllowedOrganizations: m.Organizations()}
}

type CreateRequest struct {
	Title                string                     `json:"title"`
	Description          string                     `json:"description"`
	RepositoryURL        string                     `json:"repository_url"`
	BranchName           string                     `json:"branch_name"`
	SelectedFiles        []string                   `json:"selected_files"`
	TotalRewardPool      decimal.Decimal            `json:"total_reward_pool"`
	RewardDistribution   map[string]decimal.Decimal `json:"reward_distribution"`
	RewardCurrency       string                     `json:"reward_currency"`
	TotalLinesOfCode     int                        `json:"total_lines_of_code"`
	Visibility           string                     `json:"visibility"`
	AllowedOrganizations []string                   `json:"allowed_organizations"`
	StartDate            *time.Time                 `json:"start_date"`
	EndDate              *time.Time                 `json:"end_date"`
}

type ListFilter struct {
	Status  Status `form:"status"`
	OwnerID string `form:"owner_id"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status"`
}

type UpdateVisibilityRequest struct {
	Visibility access.Visibility `json:"visibility"`
}

type UpdateOrganizationsRequest struct {
	Organizations []string `json:"organizations"`
}
