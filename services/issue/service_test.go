package issue

import (
	"context"
	"net/http"
	"testing"

	"bountyhub/pkg/config"
	"bountyhub/pkg/errutil"
	"bountyhub/services/project"
	"bountyhub/services/reward"
	"bountyhub/services/testutil"
	"bountyhub/services/user"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type checkerMock struct {
	settled map[string]bool
	// lockedSettled overrides settled for checks made under the project lock.
	lockedSettled map[string]bool
}

func (m *checkerMock) IsSettled(_ context.Context, projectID string) (bool, error) {
	return m.settled[projectID], nil
}

func (m *checkerMock) WithTrx(_ *gorm.DB) SettlementChecker {
	return lockedChecker{m: m}
}

type lockedChecker struct {
	m *checkerMock
}

func (c lockedChecker) IsSettled(_ context.Context, projectID string) (bool, error) {
	if v, ok := c.m.lockedSettled[projectID]; ok {
		return v, nil
	}
	return c.m.settled[projectID], nil
}

func (c lockedChecker) WithTrx(_ *gorm.DB) SettlementChecker {
	return c
}

type fixture struct {
	svc      *Service
	projects *project.Service
	checker  *checkerMock
	project  *project.Project
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := testutil.NewTestDB(t, &Issue{}, &Comment{}, &project.Project{}, &user.User{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	users := user.NewService(user.ServiceParams{DB: db})
	projects := project.NewService(project.ServiceParams{
		DB:     db,
		Node:   node,
		Config: &config.Config{},
		Users:  users,
	})
	checker := &checkerMock{settled: map[string]bool{}, lockedSettled: map[string]bool{}}
	svc := NewService(ServiceParams{DB: db, Node: node, Projects: projects, Settlements: checker})

	p, err := projects.Create(context.Background(), "owner", project.CreateRequest{
		Title:              "Bridge",
		SelectedFiles:      []string{"src/Bridge.sol"},
		TotalRewardPool:    decimal.NewFromInt(1000),
		RewardDistribution: map[string]decimal.Decimal{"high": decimal.NewFromInt(1000)},
	})
	require.NoError(t, err)

	return fixture{svc: svc, projects: projects, checker: checker, project: p}
}

func (f fixture) report(t *testing.T, reporter string) *Issue {
	t.Helper()
	issue, err := f.svc.Create(context.Background(), reporter, CreateRequest{
		ProjectID: f.project.ID,
		Title:     "Reentrancy in withdraw",
		Severity:  reward.SeverityHigh,
	})
	require.NoError(t, err)
	return issue
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue := f.report(t, "hunter")
	require.Equal(t, reward.StatusOpen, issue.Status)

	_, err := f.svc.Create(ctx, "hunter", CreateRequest{ProjectID: f.project.ID, Title: "x", Severity: "info"})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))

	_, err = f.svc.Create(ctx, "hunter", CreateRequest{ProjectID: "missing", Title: "x", Severity: reward.SeverityLow})
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	_, err = f.projects.UpdateStatus(ctx, "owner", f.project.ID, project.StatusClosed)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, "hunter", CreateRequest{ProjectID: f.project.ID, Title: "late", Severity: reward.SeverityLow})
	require.True(t, errutil.Is(err, errutil.StatusUnprocessableEntity))
}

func TestUpdateStatus_WritesSystemComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.report(t, "hunter")

	_, err := f.svc.UpdateStatus(ctx, "hunter", issue.ID, reward.StatusSolved)
	require.True(t, errutil.Is(err, errutil.StatusForbidden))

	updated, err := f.svc.UpdateStatus(ctx, "owner", issue.ID, reward.StatusSolved)
	require.NoError(t, err)
	require.Equal(t, reward.StatusSolved, updated.Status)

	updated, err = f.svc.UpdateSeverity(ctx, "owner", issue.ID, reward.SeverityCritical)
	require.NoError(t, err)
	require.Equal(t, reward.SeverityCritical, updated.Severity)

	comments, err := f.svc.ListComments(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.True(t, comments[0].IsSystemGenerated)
	require.Equal(t, `Status changed from "open" to "solved".`, comments[0].Content)
	require.Equal(t, `Severity changed from "high" to "critical".`, comments[1].Content)

	stored, err := f.svc.Get(ctx, issue.ID)
	require.NoError(t, err)
	require.Equal(t, reward.StatusSolved, stored.Status)
	require.Equal(t, reward.SeverityCritical, stored.Severity)
}

func TestUpdateStatus_SettledProjectConflict(t *testing.T) {
	f := newFixture(t)
	issue := f.report(t, "hunter")
	f.checker.settled[f.project.ID] = true

	_, err := f.svc.UpdateStatus(context.Background(), "owner", issue.ID, reward.StatusInvalid)
	require.True(t, errutil.Is(err, errutil.StatusConflict))

	_, err = f.svc.UpdateSeverity(context.Background(), "owner", issue.ID, reward.SeverityLow)
	require.True(t, errutil.Is(err, errutil.StatusConflict))
}

func TestUpdateStatus_SettledWhileEditing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.report(t, "hunter")

	// settlement lands after the unlocked check but before the write
	f.checker.lockedSettled[f.project.ID] = true

	_, err := f.svc.UpdateStatus(ctx, "owner", issue.ID, reward.StatusSolved)
	require.True(t, errutil.Is(err, errutil.StatusConflict))

	_, err = f.svc.UpdateSeverity(ctx, "owner", issue.ID, reward.SeverityCritical)
	require.True(t, errutil.Is(err, errutil.StatusConflict))

	stored, err := f.svc.Get(ctx, issue.ID)
	require.NoError(t, err)
	require.Equal(t, reward.StatusOpen, stored.Status)
	require.Equal(t, reward.SeverityHigh, stored.Severity)

	comments, err := f.svc.ListComments(ctx, issue.ID)
	require.NoError(t, err)
	require.Empty(t, comments)
}

func TestUpdateGithubURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issue := f.report(t, "hunter")

	updated, err := f.svc.UpdateGithubURL(ctx, "hunter", issue.ID, "https://github.com/acme/bridge/issues/7")
	require.NoError(t, err)
	require.Equal(t, "https://github.com/acme/bridge/issues/7", updated.GithubIssueURL)

	_, err = f.svc.UpdateGithubURL(ctx, "owner", issue.ID, "http://example.com/7")
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))

	_, err = f.svc.UpdateGithubURL(ctx, "stranger", issue.ID, "")
	require.True(t, errutil.Is(err, errutil.StatusForbidden))
}

func TestListByProjects(t *testing.T) {
	f := newFixture(t)
	f.report(t, "a")
	f.report(t, "b")

	grouped, err := f.svc.ListByProjects(context.Background(), []string{f.project.ID, "other"})
	require.NoError(t, err)
	require.Len(t, grouped[f.project.ID], 2)
	require.Empty(t, grouped["other"])

	n, err := f.svc.CountByReporter(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	mine, err := f.svc.ListVisible(context.Background(), "b", ListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "b", mine[0].ReporterID)
}

func TestHandler(t *testing.T) {
	f := newFixture(t)
	engine, router := testutil.NewTestRouter()
	RegisterRoutes(router, NewHandler(f.svc))

	w := testutil.Do(t, engine, http.MethodPost, "/api/v1/issues", "hunter", CreateRequest{
		ProjectID: f.project.ID, Title: "Overflow", Severity: reward.SeverityHigh,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	issues, err := f.svc.List(context.Background(), ListFilter{ProjectID: f.project.ID})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	id := issues[0].ID

	w = testutil.Do(t, engine, http.MethodPatch, "/api/v1/issues/"+id+"/status", "owner", UpdateStatusRequest{Status: reward.StatusAcknowledged})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"acknowledged"`)

	w = testutil.Do(t, engine, http.MethodPost, "/api/v1/issues/"+id+"/comments", "hunter", CommentRequest{Content: "thanks"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutil.Do(t, engine, http.MethodGet, "/api/v1/issues/"+id+"/comments", "hunter", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "thanks")

	w = testutil.Do(t, engine, http.MethodGet, "/api/v1/issues?project_id="+f.project.ID, "hunter", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), id)
}
