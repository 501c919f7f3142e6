package user

import (
	"time"

	"bountyhub/services/reward"
)

type User struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
	GithubID      string    `gorm:"column:github_id;index" json:"github_id"`
	Username      string    `gorm:"column:username" json:"username"`
	AvatarURL     string    `gorm:"column:avatar_url" json:"avatar_url"`
	Email         string    `gorm:"column:email" json:"email"`
	Organization  string    `gorm:"column:organization;index" json:"organization"`
	WalletAddress *string   `gorm:"column:wallet_address" json:"wallet_address"`
}

func (m *User) ToReward() reward.User {
	return reward.User{
		ID:            m.ID,
		Username:      m.Username,
		AvatarURL:     m.AvatarURL,
		WalletAddress: m.WalletAddress,
	}
}

type SyncProfileRequest struct {
	GithubID     string `json:"github_id"`
	Username     string `json:"username"`
	AvatarURL    string `json:"avatar_url"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
}

type UpdateWalletRequest struct {
	WalletAddress string `json:"wallet_address"`
}
