package issue

import (
	"time"

	"bountyhub/services/reward"
)

type Issue struct {
	ID             string          `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt      time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at" json:"updated_at"`
	ProjectID      string          `gorm:"column:project_id;index" json:"project_id"`
	ReporterID     string          `gorm:"column:reporter_id;index" json:"reporter_id"`
	Title          string          `gorm:"column:title" json:"title"`
	Description    string          `gorm:"column:description" json:"description"`
	Severity       reward.Severity `gorm:"column:severity" json:"severity"`
	Status         reward.Status   `gorm:"column:status;index" json:"status"`
	GithubIssueURL string          `gorm:"column:github_issue_url" json:"github_issue_url"`
}

func (m *Issue) ToReward() reward.Issue {
	return reward.Issue{
		ID:         m.ID,
		ProjectID:  m.ProjectID,
		ReporterID: m.ReporterID,
		Severity:   m.Severity,
		Status:     m.Status,
	}
}

func ToReward(issues []*Issue) []reward.Issue {
	out := make([]reward.Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.ToReward())
	}
	return out
}

type Comment struct {
	ID                string    `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt         time.Time `gorm:"column:created_at" json:"created_at"`
	IssueID           string    `gorm:"column:issue_id;index" json:"issue_id"`
	UserID            string    `gorm:"column:user_id" json:"user_id"`
	Content           string    `gorm:"column:content" json:"content"`
	IsSystemGenerated bool      `gorm:"column:is_system_generated" json:"is_system_generated"`
}

type CreateRequest struct {
	ProjectID   string          `json:"project_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Severity    reward.Severity `json:"severity"`
}

type ListFilter struct {
	ProjectID  string        `form:"project_id"`
	ReporterID string        `form:"reporter_id"`
	Status     reward.Status `form:"status"`
}

type UpdateStatusRequest struct {
	Status reward.Status `json:"status"`
}

type UpdateSeverityRequest struct {
	Severity reward.Severity `json:"severity"`
}

type UpdateGithubURLRequest struct {
	GithubIssueURL string `json:"github_issue_url"`
}

type CommentRequest struct {
	Content string `json:"content"`
}
