package project

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"bountyhub/pkg/config"
	"bountyhub/pkg/db/option"
	"bountyhub/pkg/errutil"
	"bountyhub/pkg/logger"
	"bountyhub/pkg/repository"
	"bountyhub/pkg/task"
	"bountyhub/pkg/taskname"
	"bountyhub/services/access"
	"bountyhub/services/reward"
	"bountyhub/services/user"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SnapshotDiscarder drops a frozen settlement when a closed project reopens.
type SnapshotDiscarder interface {
	DiscardSnapshot(ctx context.Context, projectID string) error
}

// SnapshotPayload is the body of the settlement snapshot task.
type SnapshotPayload struct {
	ProjectID string `json:"project_id"`
}

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	config    *config.Config
	asynq     task.Enqueuer
	users     *user.Service
	snapshots SnapshotDiscarder
	repo      repository.Repository[Project]
}

type ServiceParams struct {
	fx.In
	DB        *gorm.DB
	Node      *snowflake.Node
	Config    *config.Config
	Users     *user.Service
	Asynq     task.Enqueuer     `optional:"true"`
	Snapshots SnapshotDiscarder `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		config:    p.Config,
		asynq:     p.Asynq,
		users:     p.Users,
		snapshots: p.Snapshots,
		repo:      repository.ProvideStore[Project](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, ownerID string, req CreateRequest) (*Project, error) {
	zapLog := logger.FromContext(ctx).With(zap.String("owner_id", ownerID))

	p, err := s.build(req)
	if err != nil {
		return nil, err
	}

	owner, err := s.users.Get(ctx, ownerID)
	if err != nil && !errutil.Is(err, errutil.StatusNotFound) {
		return nil, err
	}
	if owner != nil {
		p.OwnerOrganization = owner.Organization
	}

	p.ID = s.node.Generate().String()
	p.OwnerID = ownerID
	p.Status = StatusActive
	p.Slug, err = s.uniqueSlug(ctx, p.Title, p.ID)
	if err != nil {
		zapLog.Error("failed to check slug", zap.Error(err))
		return nil, errutil.Internal("failed to create project", err)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		zapLog.Error("failed to create project", zap.Error(err))
		return nil, errutil.Internal("failed to create project", err)
	}

	zapLog.Info("project created", zap.String("project_id", p.ID), zap.String("pool", p.TotalRewardPool.String()))
	return p, nil
}

// build validates a create request. Every problem is reported at once as a
// field detail.
func (s *Service) build(req CreateRequest) (*Project, error) {
	var details []errutil.Option
	fail := func(field, msg string) {
		details = append(details, errutil.WithDetail(field, msg))
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		fail("title", "is required")
	}

	files := make([]string, 0, len(req.SelectedFiles))
	for _, f := range req.SelectedFiles {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		fail("selected_files", "select at least one file")
	}

	currency := reward.Currency(strings.ToUpper(strings.TrimSpace(req.RewardCurrency)))
	if currency == "" {
		currency = reward.CurrencyTON
	}
	if !currency.Valid() {
		fail("reward_currency", "must be TON or USDC")
	}

	if req.TotalRewardPool.IsNegative() {
		fail("total_reward_pool", "must not be negative")
	}

	dist := make(reward.Distribution, len(req.RewardDistribution))
	keys := make([]string, 0, len(req.RewardDistribution))
	for k := range req.RewardDistribution {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		amount := req.RewardDistribution[k]
		severity := reward.Severity(strings.ToLower(k))
		if !severity.Valid() {
			fail("reward_distribution."+k, "unknown severity")
			continue
		}
		if amount.IsNegative() {
			fail("reward_distribution."+k, "must not be negative")
			continue
		}
		dist[severity] = amount
	}
	if !dist.Total().Equal(req.TotalRewardPool) {
		fail("reward_distribution", fmt.Sprintf("sum %s does not match total reward pool %s", dist.Total().String(), req.TotalRewardPool.String()))
	}

	visibility := access.Visibility(strings.ToLower(strings.TrimSpace(req.Visibility)))
	if visibility == "" {
		visibility = access.VisibilityPublic
	}
	if !visibility.Valid() {
		fail("visibility", "must be public, organization or private")
	}

	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		fail("end_date", "must not be before start_date")
	}

	if len(details) > 0 {
		return nil, errutil.ValidationFailed("invalid project", nil, details...)
	}

	return &Project{
		Title:                title,
		Description:          req.Description,
		RepositoryURL:        strings.TrimSpace(req.RepositoryURL),
		BranchName:           strings.TrimSpace(req.BranchName),
		SelectedFiles:        datatypes.JSONSlice[string](files),
		TotalRewardPool:      req.TotalRewardPool,
		RewardDistribution:   datatypes.NewJSONType(dist),
		RewardCurrency:       currency,
		TotalLinesOfCode:     req.TotalLinesOfCode,
		Visibility:           visibility,
		AllowedOrganizations: access.JoinOrganizations(req.AllowedOrganizations),
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
	}, nil
}

func (s *Service) uniqueSlug(ctx context.Context, title, id string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "project"
	}

	exist, err := s.repo.FindOne(ctx, &Project{Slug: base})
	if err != nil {
		return "", err
	}
	if exist == nil {
		return base, nil
	}
	return fmt.Sprintf("%s-%s", base, id[len(id)-6:]), nil
}

// GetByID loads a project without any visibility check.
func (s *Service) GetByID(ctx context.Context, id string) (*Project, error) {
	p, err := s.repo.FindOne(ctx, &Project{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to get project", err)
	}
	if p == nil {
		return nil, errutil.NotFound("project not found", nil)
	}
	return p, nil
}

func (s *Service) viewer(ctx context.Context, viewerID string) (access.Viewer, error) {
	v := access.Viewer{UserID: viewerID}
	u, err := s.users.Get(ctx, viewerID)
	if err != nil {
		if errutil.Is(err, errutil.StatusNotFound) {
			return v, nil
		}
		return v, err
	}
	v.Organization = u.Organization
	return v, nil
}

// Get returns a project visible to viewerID. Hidden projects look missing.
func (s *Service) Get(ctx context.Context, viewerID, id string) (*Project, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	v, err := s.viewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !access.CanViewProject(v, p.Access()) {
		return nil, errutil.NotFound("project not found", nil)
	}
	return p, nil
}

// List returns the projects visible to viewerID, newest first.
func (s *Service) List(ctx context.Context, viewerID string, f ListFilter) ([]*Project, error) {
	v, err := s.viewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	if f.Status != "" && !f.Status.Valid() {
		return nil, errutil.BadRequest("invalid status filter", nil)
	}

	// snowflake ids sort by creation time
	projects, err := s.repo.Find(ctx, &Project{Status: f.Status, OwnerID: f.OwnerID}, option.WithSortBy(option.QuerySortBy{
		SortBy:  "id",
		OrderBy: "desc",
		Allow:   map[string]bool{"id": true},
	}))
	if err != nil {
		logger.FromContext(ctx).Error("failed to list projects", zap.Error(err))
		return nil, errutil.Internal("failed to list projects", err)
	}

	out := make([]*Project, 0, len(projects))
	for _, p := range projects {
		if access.CanViewProject(v, p.Access()) {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListByIDs loads projects for internal aggregation without visibility checks.
func (s *Service) ListByIDs(ctx context.Context, ids []string) ([]*Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	projects, err := s.repo.Find(ctx, nil, option.WithIn("id", ids))
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	return projects, nil
}

func (s *Service) CountActiveByOwner(ctx context.Context, ownerID string) (int64, error) {
	return s.repo.Count(ctx, &Project{OwnerID: ownerID, Status: StatusActive})
}

// Config returns the reward configuration of a project.
func (s *Service) Config(ctx context.Context, id string) (reward.Project, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return reward.Project{}, err
	}
	return p.ToReward(), nil
}

func (s *Service) owned(ctx context.Context, actorID, id string) (*Project, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, errutil.Forbidden("only the project owner can do this", nil)
	}
	return p, nil
}

// UpdateStatus opens or closes a project. Closing schedules the settlement
// snapshot; reopening discards it so payouts follow the live issue set again.
func (s *Service) UpdateStatus(ctx context.Context, actorID, id string, status Status) (*Project, error) {
	zapLog := logger.FromContext(ctx).With(zap.String("project_id", id), zap.String("status", string(status)))

	if !status.Valid() {
		return nil, errutil.ValidationFailed("invalid status", nil, errutil.WithDetail("status", "must be active or closed"))
	}

	p, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if p.Status == status {
		return p, nil
	}

	if status == StatusActive && s.snapshots != nil {
		if err := s.snapshots.DiscardSnapshot(ctx, id); err != nil {
			zapLog.Error("failed to discard settlement snapshot", zap.Error(err))
			return nil, errutil.Internal("failed to reopen project", err)
		}
	}

	if err := s.repo.Update(ctx, id, map[string]any{"status": status}); err != nil {
		zapLog.Error("failed to update project status", zap.Error(err))
		return nil, errutil.Internal("failed to update project status", err)
	}
	p.Status = status

	if status == StatusClosed && s.config.Settlement.SnapshotOnClose {
		s.enqueueSnapshot(ctx, id)
	}

	zapLog.Info("project status changed")
	return p, nil
}

func (s *Service) enqueueSnapshot(ctx context.Context, id string) {
	zapLog := logger.FromContext(ctx).With(zap.String("project_id", id))
	if s.asynq == nil {
		zapLog.Warn("no task client, settlement snapshot not scheduled")
		return
	}

	payload, err := json.Marshal(SnapshotPayload{ProjectID: id})
	if err != nil {
		zapLog.Error("failed to marshal snapshot payload", zap.Error(err))
		return
	}

	// the snapshot can still be taken on demand, so a broker outage is not fatal
	if _, err := s.asynq.Enqueue(ctx, asynq.NewTask(taskname.SettlementSnapshot, payload), asynq.MaxRetry(5)); err != nil {
		zapLog.Error("failed to enqueue settlement snapshot", zap.Error(err))
	}
}

func (s *Service) UpdateVisibility(ctx context.Context, actorID, id string, visibility access.Visibility) (*Project, error) {
	if !visibility.Valid() {
		return nil, errutil.ValidationFailed("invalid visibility", nil, errutil.WithDetail("visibility", "must be public, organization or private"))
	}

	p, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, map[string]any{"visibility": visibility}); err != nil {
		return nil, errutil.Internal("failed to update visibility", err)
	}
	p.Visibility = visibility
	return p, nil
}

func (s *Service) UpdateOrganizations(ctx context.Context, actorID, id string, orgs []string) (*Project, error) {
	p, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	joined := access.JoinOrganizations(orgs)
	if err := s.repo.Update(ctx, id, map[string]any{"allowed_organizations": joined}); err != nil {
		return nil, errutil.Internal("failed to update organizations", err)
	}
	p.AllowedOrganizations = joined
	return p, nil
}
