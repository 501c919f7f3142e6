package issue

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"bountyhub/pkg/db/option"
	"bountyhub/pkg/errutil"
	"bountyhub/pkg/logger"
	"bountyhub/pkg/repository"
	"bountyhub/services/project"
	"bountyhub/services/reward"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SettlementChecker reports whether a project's payouts are frozen. WithTrx
// binds the check to a transaction holding the project row lock.
type SettlementChecker interface {
	IsSettled(ctx context.Context, projectID string) (bool, error)
	WithTrx(tx *gorm.DB) SettlementChecker
}

type Service struct {
	db          *gorm.DB
	node        *snowflake.Node
	projects    *project.Service
	settlements SettlementChecker
	repo        repository.Repository[Issue]
	comments    repository.Repository[Comment]
}

type ServiceParams struct {
	fx.In
	DB          *gorm.DB
	Node        *snowflake.Node
	Projects    *project.Service
	Settlements SettlementChecker `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:          p.DB,
		node:        p.Node,
		projects:    p.Projects,
		settlements: p.Settlements,
		repo:        repository.ProvideStore[Issue](p.DB),
		comments:    repository.ProvideStore[Comment](p.DB),
	}
}

// WithTrx returns a copy of the service whose reads and writes run in tx.
func (s *Service) WithTrx(tx *gorm.DB) *Service {
	c := *s
	c.db = tx
	c.repo = s.repo.WithTrx(tx)
	c.comments = s.comments.WithTrx(tx)
	return &c
}

// newestFirst orders by snowflake id, which follows creation time.
var newestFirst = option.WithSortBy(option.QuerySortBy{
	SortBy:  "id",
	OrderBy: "desc",
	Allow:   map[string]bool{"id": true},
})

func (s *Service) Create(ctx context.Context, reporterID string, req CreateRequest) (*Issue, error) {
	zapLog := logger.FromContext(ctx).With(zap.String("reporter_id", reporterID), zap.String("project_id", req.ProjectID))

	var details []errutil.Option
	title := strings.TrimSpace(req.Title)
	if title == "" {
		details = append(details, errutil.WithDetail("title", "is required"))
	}
	severity := reward.Severity(strings.ToLower(string(req.Severity)))
	if !severity.Valid() {
		details = append(details, errutil.WithDetail("severity", "must be critical, high, medium or low"))
	}
	if len(details) > 0 {
		return nil, errutil.ValidationFailed("invalid issue", nil, details...)
	}

	p, err := s.projects.Get(ctx, reporterID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if p.Status != project.StatusActive {
		return nil, errutil.UnprocessableEntity("project is not accepting reports", nil)
	}

	issue := &Issue{
		ID:          s.node.Generate().String(),
		ProjectID:   p.ID,
		ReporterID:  reporterID,
		Title:       title,
		Description: req.Description,
		Severity:    severity,
		Status:      reward.StatusOpen,
	}
	if err := s.repo.Create(ctx, issue); err != nil {
		zapLog.Error("failed to create issue", zap.Error(err))
		return nil, errutil.Internal("failed to create issue", err)
	}

	zapLog.Info("issue reported", zap.String("issue_id", issue.ID), zap.String("severity", string(severity)))
	return issue, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Issue, error) {
	issue, err := s.repo.FindOne(ctx, &Issue{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to get issue", err)
	}
	if issue == nil {
		return nil, errutil.NotFound("issue not found", nil)
	}
	return issue, nil
}

// GetVisible returns an issue whose project viewerID may see.
func (s *Service) GetVisible(ctx context.Context, viewerID, id string) (*Issue, error) {
	issue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.Get(ctx, viewerID, issue.ProjectID); err != nil {
		if errutil.Is(err, errutil.StatusNotFound) {
			return nil, errutil.NotFound("issue not found", nil)
		}
		return nil, err
	}
	return issue, nil
}

// ListVisible lists the issues of a project the viewer can see, or the
// viewer's own reports when no project is given.
func (s *Service) ListVisible(ctx context.Context, viewerID string, f ListFilter) ([]*Issue, error) {
	if f.ProjectID == "" {
		f.ReporterID = viewerID
		return s.List(ctx, f)
	}
	if _, err := s.projects.Get(ctx, viewerID, f.ProjectID); err != nil {
		return nil, err
	}
	return s.List(ctx, f)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Issue, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, errutil.BadRequest("invalid status filter", nil)
	}

	issues, err := s.repo.Find(ctx, &Issue{
		ProjectID:  f.ProjectID,
		ReporterID: f.ReporterID,
		Status:     f.Status,
	}, newestFirst)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list issues", zap.Error(err))
		return nil, errutil.Internal("failed to list issues", err)
	}
	return issues, nil
}

// ListByProjects returns every issue of the given projects grouped by project.
func (s *Service) ListByProjects(ctx context.Context, projectIDs []string) (map[string][]*Issue, error) {
	out := make(map[string][]*Issue, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	issues, err := s.repo.Find(ctx, nil, option.WithIn("project_id", projectIDs))
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	for _, i := range issues {
		out[i.ProjectID] = append(out[i.ProjectID], i)
	}
	return out, nil
}

func (s *Service) CountByReporter(ctx context.Context, reporterID string) (int64, error) {
	return s.repo.Count(ctx, &Issue{ReporterID: reporterID})
}

// editable loads an issue for a project owner edit and refuses settled
// projects.
func (s *Service) editable(ctx context.Context, actorID, id string) (*Issue, error) {
	issue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := s.projects.GetByID(ctx, issue.ProjectID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, errutil.Forbidden("only the project owner can triage issues", nil)
	}

	if s.settlements != nil {
		settled, err := s.settlements.IsSettled(ctx, p.ID)
		if err != nil {
			return nil, errutil.Internal("failed to check settlement", err)
		}
		if settled {
			return nil, errSettled
		}
	}

	return issue, nil
}

var errSettled = errutil.Conflict("project rewards are settled; reopen the project to change issues", nil)

// applyChange updates one column and records a system comment in the same
// transaction. The project row stays locked until commit, so a concurrent
// settlement either sees this change or makes it fail with Conflict.
func (s *Service) applyChange(ctx context.Context, actorID string, issue *Issue, column, comment string, value any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := repository.ProvideStore[project.Project](tx).FindOne(ctx, &project.Project{ID: issue.ProjectID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if locked == nil {
			return errutil.NotFound("project not found", nil)
		}
		if s.settlements != nil {
			settled, err := s.settlements.WithTrx(tx).IsSettled(ctx, issue.ProjectID)
			if err != nil {
				return err
			}
			if settled {
				return errSettled
			}
		}

		if err := s.repo.WithTrx(tx).Update(ctx, issue.ID, map[string]any{column: value}); err != nil {
			return err
		}
		return s.comments.WithTrx(tx).Create(ctx, &Comment{
			ID:                s.node.Generate().String(),
			IssueID:           issue.ID,
			UserID:            actorID,
			Content:           comment,
			IsSystemGenerated: true,
		})
	})
}

func (s *Service) UpdateStatus(ctx context.Context, actorID, id string, status reward.Status) (*Issue, error) {
	if !status.Valid() {
		return nil, errutil.ValidationFailed("invalid status", nil, errutil.WithDetail("status", "unknown status"))
	}

	issue, err := s.editable(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if issue.Status == status {
		return issue, nil
	}

	comment := fmt.Sprintf("Status changed from %q to %q.", issue.Status, status)
	if err := s.applyChange(ctx, actorID, issue, "status", comment, status); err != nil {
		if _, ok := errutil.As(err); ok {
			return nil, err
		}
		logger.FromContext(ctx).Error("failed to update issue status", zap.String("issue_id", id), zap.Error(err))
		return nil, errutil.Internal("failed to update issue status", err)
	}

	issue.Status = status
	return issue, nil
}

func (s *Service) UpdateSeverity(ctx context.Context, actorID, id string, severity reward.Severity) (*Issue, error) {
	if !severity.Valid() {
		return nil, errutil.ValidationFailed("invalid severity", nil, errutil.WithDetail("severity", "must be critical, high, medium or low"))
	}

	issue, err := s.editable(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if issue.Severity == severity {
		return issue, nil
	}

	comment := fmt.Sprintf("Severity changed from %q to %q.", issue.Severity, severity)
	if err := s.applyChange(ctx, actorID, issue, "severity", comment, severity); err != nil {
		if _, ok := errutil.As(err); ok {
			return nil, err
		}
		logger.FromContext(ctx).Error("failed to update issue severity", zap.String("issue_id", id), zap.Error(err))
		return nil, errutil.Internal("failed to update issue severity", err)
	}

	issue.Severity = severity
	return issue, nil
}

// UpdateGithubURL links the issue to its GitHub counterpart. Both the
// reporter and the project owner may set it; an empty URL unlinks.
func (s *Service) UpdateGithubURL(ctx context.Context, actorID, id, rawURL string) (*Issue, error) {
	issue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if issue.ReporterID != actorID {
		p, err := s.projects.GetByID(ctx, issue.ProjectID)
		if err != nil {
			return nil, err
		}
		if p.OwnerID != actorID {
			return nil, errutil.Forbidden("only the reporter or the project owner can link issues", nil)
		}
	}

	rawURL = strings.TrimSpace(rawURL)
	if rawURL != "" {
		u, err := url.Parse(rawURL)
		if err != nil || u.Scheme != "https" || u.Host != "github.com" {
			return nil, errutil.ValidationFailed("invalid github issue url", err, errutil.WithDetail("github_issue_url", "must be an https://github.com URL"))
		}
	}

	if err := s.repo.Update(ctx, id, map[string]any{"github_issue_url": rawURL}); err != nil {
		return nil, errutil.Internal("failed to update github url", err)
	}

	issue.GithubIssueURL = rawURL
	return issue, nil
}

func (s *Service) AddComment(ctx context.Context, userID, issueID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errutil.ValidationFailed("invalid comment", nil, errutil.WithDetail("content", "is required"))
	}

	issue, err := s.Get(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.Get(ctx, userID, issue.ProjectID); err != nil {
		return nil, err
	}

	c := &Comment{
		ID:      s.node.Generate().String(),
		IssueID: issueID,
		UserID:  userID,
		Content: content,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, errutil.Internal("failed to add comment", err)
	}
	return c, nil
}

// ListComments returns the thread of an issue, oldest first.
func (s *Service) ListComments(ctx context.Context, issueID string) ([]*Comment, error) {
	comments, err := s.comments.Find(ctx, &Comment{IssueID: issueID}, option.WithSortBy(option.QuerySortBy{
		SortBy:  "id",
		OrderBy: "asc",
		Allow:   map[string]bool{"id": true},
	}))
	if err != nil {
		return nil, errutil.Internal("failed to list comments", err)
	}
	return comments, nil
}
