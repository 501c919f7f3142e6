package settlement

import (
	"context"
	"encoding/json"
	"fmt"

	"bountyhub/pkg/db/option"
	"bountyhub/pkg/errutil"
	"bountyhub/pkg/logger"
	"bountyhub/pkg/repository"
	"bountyhub/pkg/sequence"
	"bountyhub/services/issue"
	"bountyhub/services/project"
	"bountyhub/services/reward"
	"bountyhub/services/user"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	seq       sequence.Generator
	projects  *project.Service
	issues    *issue.Service
	users     *user.Service
	snapshots *SnapshotStore
}

type ServiceParams struct {
	fx.In
	DB        *gorm.DB
	Node      *snowflake.Node
	Sequence  sequence.Generator
	Projects  *project.Service
	Issues    *issue.Service
	Users     *user.Service
	Snapshots *SnapshotStore
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		seq:       p.Sequence,
		projects:  p.Projects,
		issues:    p.Issues,
		users:     p.Users,
		snapshots: p.Snapshots,
	}
}

// Dashboard summarises the rewards of userID across every project they
// reported into.
func (s *Service) Dashboard(ctx context.Context, userID string) (*DashboardView, error) {
	zapLog := logger.FromContext(ctx).With(zap.String("user_id", userID))

	mine, err := s.issues.List(ctx, issue.ListFilter{ReporterID: userID})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(mine))
	ids := make([]string, 0, len(mine))
	for _, i := range mine {
		if !seen[i.ProjectID] {
			seen[i.ProjectID] = true
			ids = append(ids, i.ProjectID)
		}
	}

	projects, err := s.projects.ListByIDs(ctx, ids)
	if err != nil {
		zapLog.Error("failed to load projects", zap.Error(err))
		return nil, errutil.Internal("failed to load dashboard", err)
	}

	grouped, err := s.issues.ListByProjects(ctx, ids)
	if err != nil {
		zapLog.Error("failed to load project issues", zap.Error(err))
		return nil, errutil.Internal("failed to load dashboard", err)
	}

	sets := make([]reward.ProjectIssues, 0, len(projects))
	for _, p := range projects {
		sets = append(sets, reward.ProjectIssues{
			Project: p.ToReward(),
			Issues:  issue.ToReward(grouped[p.ID]),
		})
	}

	active, err := s.projects.CountActiveByOwner(ctx, userID)
	if err != nil {
		return nil, errutil.Internal("failed to count projects", err)
	}
	reported, err := s.issues.CountByReporter(ctx, userID)
	if err != nil {
		return nil, errutil.Internal("failed to count issues", err)
	}

	return &DashboardView{
		DashboardStats: reward.Dashboard(userID, sets),
		ActiveProjects: active,
		ReportedIssues: reported,
	}, nil
}

// inputs loads everything the engine needs for one project.
func (s *Service) inputs(ctx context.Context, p *project.Project) ([]reward.Issue, map[string]reward.User, error) {
	return loadInputs(ctx, s.issues, s.users, p)
}

func loadInputs(ctx context.Context, issues *issue.Service, users *user.Service, p *project.Project) ([]reward.Issue, map[string]reward.User, error) {
	rows, err := issues.List(ctx, issue.ListFilter{ProjectID: p.ID})
	if err != nil {
		return nil, nil, err
	}

	reporters := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, i := range rows {
		if !seen[i.ReporterID] {
			seen[i.ReporterID] = true
			reporters = append(reporters, i.ReporterID)
		}
	}

	byID, err := users.GetByIDs(ctx, reporters)
	if err != nil {
		return nil, nil, errutil.Internal("failed to load reporters", err)
	}
	return issue.ToReward(rows), byID, nil
}

func (s *Service) Leaderboard(ctx context.Context, viewerID, projectID string) (*LeaderboardView, error) {
	p, err := s.projects.Get(ctx, viewerID, projectID)
	if err != nil {
		return nil, err
	}

	issues, users, err := s.inputs(ctx, p)
	if err != nil {
		return nil, err
	}

	return &LeaderboardView{
		ProjectID: p.ID,
		Entries:   reward.Leaderboard(p.ToReward(), issues, users),
	}, nil
}

func (s *Service) Breakdown(ctx context.Context, viewerID, projectID string) (*BreakdownView, error) {
	p, err := s.projects.Get(ctx, viewerID, projectID)
	if err != nil {
		return nil, err
	}

	issues, users, err := s.inputs(ctx, p)
	if err != nil {
		return nil, err
	}

	cfg := p.ToReward()
	return &BreakdownView{
		ProjectID: p.ID,
		Currency:  cfg.Currency,
		Tiers:     reward.Breakdown(cfg, issues, users),
	}, nil
}

func (s *Service) live(ctx context.Context, p *project.Project) (SettlementView, error) {
	return settlementView(ctx, s.issues, s.users, p)
}

func settlementView(ctx context.Context, issueSvc *issue.Service, userSvc *user.Service, p *project.Project) (SettlementView, error) {
	issues, users, err := loadInputs(ctx, issueSvc, userSvc, p)
	if err != nil {
		return SettlementView{}, err
	}

	cfg := p.ToReward()
	entries := reward.Settlement(cfg, issues, users)
	return SettlementView{
		ProjectID:      p.ID,
		Currency:       cfg.Currency,
		Entries:        entries,
		TotalPayout:    reward.TotalPayout(entries),
		MissingWallets: reward.MissingWallets(entries),
	}, nil
}

// Settlement returns the frozen roster of a settled project, or the live one.
func (s *Service) Settlement(ctx context.Context, viewerID, projectID string) (*SettlementView, error) {
	p, err := s.projects.Get(ctx, viewerID, projectID)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshots.Find(ctx, p.ID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load settlement snapshot", zap.String("project_id", p.ID), zap.Error(err))
		return nil, errutil.Internal("failed to load settlement", err)
	}
	if snap != nil {
		view := snap.View()
		return &view, nil
	}

	view, err := s.live(ctx, p)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Settle freezes the settlement of a project on behalf of its owner.
func (s *Service) Settle(ctx context.Context, actorID, projectID string) (*Snapshot, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, errutil.Forbidden("only the project owner can settle", nil)
	}
	return s.Snapshot(ctx, projectID)
}

// Snapshot computes and stores the settlement of a closed project. Calling it
// again returns the stored snapshot unchanged.
func (s *Service) Snapshot(ctx context.Context, projectID string) (*Snapshot, error) {
	zapLog := logger.FromContext(ctx).With(zap.String("project_id", projectID))

	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.Status != project.StatusClosed {
		return nil, errutil.UnprocessableEntity("project must be closed before settlement", nil)
	}

	exist, err := s.snapshots.Find(ctx, p.ID)
	if err != nil {
		return nil, errutil.Internal("failed to load settlement", err)
	}
	if exist != nil {
		return exist, nil
	}

	code, err := s.seq.NextSettlementCode(ctx)
	if err != nil {
		zapLog.Error("failed to generate settlement code", zap.Error(err))
		return nil, errutil.Internal("failed to settle project", err)
	}

	var snap *Snapshot
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := repository.ProvideStore[project.Project](tx).FindOne(ctx, &project.Project{ID: p.ID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if locked == nil || locked.Status != project.StatusClosed {
			return errutil.UnprocessableEntity("project must be closed before settlement", nil)
		}

		store := s.snapshots.WithTrx(tx)
		exist, err := store.Find(ctx, p.ID)
		if err != nil {
			return err
		}
		if exist != nil {
			snap = exist
			return nil
		}

		// issue edits take the same row lock, so the roster matches the issue set
		view, err := settlementView(ctx, s.issues.WithTrx(tx), s.users.WithTrx(tx), locked)
		if err != nil {
			return err
		}
		snap = &Snapshot{
			ID:             s.node.Generate().String(),
			ProjectID:      p.ID,
			Code:           code,
			Currency:       view.Currency,
			TotalPayout:    view.TotalPayout,
			MissingWallets: view.MissingWallets,
			Entries:        view.Entries,
		}
		return store.Create(ctx, snap)
	})
	if err != nil {
		if _, ok := errutil.As(err); ok {
			return nil, err
		}
		// a concurrent writer may have won the unique index
		if exist, ferr := s.snapshots.Find(ctx, p.ID); ferr == nil && exist != nil {
			return exist, nil
		}
		zapLog.Error("failed to store settlement snapshot", zap.Error(err))
		return nil, errutil.Internal("failed to settle project", err)
	}

	zapLog.Info("settlement snapshot stored",
		zap.String("code", snap.Code),
		zap.Int("entries", len(snap.Entries)),
		zap.Int("missing_wallets", snap.MissingWallets),
	)
	return snap, nil
}

// HandleSnapshotTask settles a project closed through the API.
func (s *Service) HandleSnapshotTask(ctx context.Context, t *asynq.Task) error {
	var payload project.SnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode snapshot payload: %v: %w", err, asynq.SkipRetry)
	}

	zapLog := logger.FromContext(ctx).With(zap.String("project_id", payload.ProjectID))

	_, err := s.Snapshot(ctx, payload.ProjectID)
	switch {
	case err == nil:
		return nil
	case errutil.Is(err, errutil.StatusUnprocessableEntity):
		// reopened before the worker ran
		zapLog.Info("project no longer closed, snapshot skipped")
		return nil
	case errutil.Is(err, errutil.StatusNotFound):
		zapLog.Warn("project missing, snapshot skipped")
		return fmt.Errorf("snapshot %s: %v: %w", payload.ProjectID, err, asynq.SkipRetry)
	default:
		return err
	}
}
