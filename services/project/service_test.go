package project

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"bountyhub/pkg/config"
	"bountyhub/pkg/errutil"
	"bountyhub/pkg/taskname"
	"bountyhub/services/access"
	"bountyhub/services/reward"
	"bountyhub/services/testutil"
	"bountyhub/services/user"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type enqueuerMock struct {
	tasks []*asynq.Task
}

func (m *enqueuerMock) Enqueue(_ context.Context, t *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	m.tasks = append(m.tasks, t)
	return &asynq.TaskInfo{ID: "t1", Type: t.Type()}, nil
}

type discarderMock struct {
	discarded []string
}

func (m *discarderMock) DiscardSnapshot(_ context.Context, projectID string) error {
	m.discarded = append(m.discarded, projectID)
	return nil
}

type fixture struct {
	svc       *Service
	users     *user.Service
	enqueuer  *enqueuerMock
	discarder *discarderMock
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := testutil.NewTestDB(t, &Project{}, &user.User{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Settlement.SnapshotOnClose = true

	users := user.NewService(user.ServiceParams{DB: db})
	f := fixture{users: users, enqueuer: &enqueuerMock{}, discarder: &discarderMock{}}
	f.svc = NewService(ServiceParams{
		DB:        db,
		Node:      node,
		Config:    cfg,
		Users:     users,
		Asynq:     f.enqueuer,
		Snapshots: f.discarder,
	})

	ctx := context.Background()
	for _, u := range []struct{ id, org string }{{"owner", "acme"}, {"peer", "acme"}, {"outsider", "globex"}} {
		_, err := users.SyncProfile(ctx, u.id, user.SyncProfileRequest{Username: u.id, Organization: u.org})
		require.NoError(t, err)
	}
	return f
}

func validRequest() CreateRequest {
	return CreateRequest{
		Title:           "Vault Audit",
		SelectedFiles:   []string{"contracts/Vault.sol"},
		TotalRewardPool: decimal.NewFromInt(10000),
		RewardDistribution: map[string]decimal.Decimal{
			"critical": decimal.NewFromInt(4000),
			"high":     decimal.NewFromInt(3000),
			"medium":   decimal.NewFromInt(2000),
			"low":      decimal.NewFromInt(1000),
		},
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, "owner", validRequest())
	require.NoError(t, err)
	require.Equal(t, "vault-audit", p.Slug)
	require.Equal(t, StatusActive, p.Status)
	require.Equal(t, reward.CurrencyTON, p.RewardCurrency)
	require.Equal(t, access.VisibilityPublic, p.Visibility)
	require.Equal(t, "acme", p.OwnerOrganization)

	again, err := f.svc.Create(ctx, "owner", validRequest())
	require.NoError(t, err)
	require.NotEqual(t, p.Slug, again.Slug)

	cfg, err := f.svc.Config(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, cfg.Distribution[reward.SeverityCritical].Equal(decimal.NewFromInt(4000)))
	require.Equal(t, reward.CurrencyTON, cfg.Currency)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
		field  string
	}{
		{"title", func(r *CreateRequest) { r.Title = "  " }, "title"},
		{"files", func(r *CreateRequest) { r.SelectedFiles = []string{" "} }, "selected_files"},
		{"currency", func(r *CreateRequest) { r.RewardCurrency = "BTC" }, "reward_currency"},
		{"negative tier", func(r *CreateRequest) {
			r.RewardDistribution["low"] = decimal.NewFromInt(-1000)
			r.TotalRewardPool = decimal.NewFromInt(8000)
		}, "reward_distribution.low"},
		{"unknown tier", func(r *CreateRequest) { r.RewardDistribution["info"] = decimal.Zero }, "reward_distribution.info"},
		{"sum mismatch", func(r *CreateRequest) { r.TotalRewardPool = decimal.NewFromInt(9999) }, "reward_distribution"},
		{"visibility", func(r *CreateRequest) { r.Visibility = "secret" }, "visibility"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := f.svc.Create(context.Background(), "owner", req)
			base, ok := errutil.As(err)
			require.True(t, ok)
			require.Equal(t, errutil.StatusValidationFailed, base.Code)

			fields := make([]string, 0, len(base.Details))
			for _, d := range base.Details {
				fields = append(fields, d.Field)
			}
			require.Contains(t, fields, tt.field)
		})
	}
}

func TestVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	public, err := f.svc.Create(ctx, "owner", validRequest())
	require.NoError(t, err)

	orgReq := validRequest()
	orgReq.Title = "Org only"
	orgReq.Visibility = "organization"
	orgOnly, err := f.svc.Create(ctx, "owner", orgReq)
	require.NoError(t, err)

	privReq := validRequest()
	privReq.Title = "Private"
	privReq.Visibility = "private"
	private, err := f.svc.Create(ctx, "owner", privReq)
	require.NoError(t, err)

	list, err := f.svc.List(ctx, "owner", ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, private.ID, list[0].ID)

	list, err = f.svc.List(ctx, "peer", ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)

	list, err = f.svc.List(ctx, "outsider", ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, public.ID, list[0].ID)

	_, err = f.svc.Get(ctx, "outsider", orgOnly.ID)
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	_, err = f.svc.UpdateOrganizations(ctx, "owner", orgOnly.ID, []string{"globex"})
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, "outsider", orgOnly.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateVisibility(ctx, "peer", private.ID, access.VisibilityPublic)
	require.True(t, errutil.Is(err, errutil.StatusForbidden))
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, "owner", validRequest())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, "peer", p.ID, StatusClosed)
	require.True(t, errutil.Is(err, errutil.StatusForbidden))

	_, err = f.svc.UpdateStatus(ctx, "owner", p.ID, Status("archived"))
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))

	closed, err := f.svc.UpdateStatus(ctx, "owner", p.ID, StatusClosed)
	require.NoError(t, err)
	require.Equal(t, StatusClosed, closed.Status)
	require.Len(t, f.enqueuer.tasks, 1)
	require.Equal(t, taskname.SettlementSnapshot, f.enqueuer.tasks[0].Type())

	var payload SnapshotPayload
	require.NoError(t, json.Unmarshal(f.enqueuer.tasks[0].Payload(), &payload))
	require.Equal(t, p.ID, payload.ProjectID)

	_, err = f.svc.UpdateStatus(ctx, "owner", p.ID, StatusClosed)
	require.NoError(t, err)
	require.Len(t, f.enqueuer.tasks, 1)

	reopened, err := f.svc.UpdateStatus(ctx, "owner", p.ID, StatusActive)
	require.NoError(t, err)
	require.Equal(t, StatusActive, reopened.Status)
	require.Equal(t, []string{p.ID}, f.discarder.discarded)

	n, err := f.svc.CountActiveByOwner(ctx, "owner")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestHandler(t *testing.T) {
	f := newFixture(t)
	engine, router := testutil.NewTestRouter()
	RegisterRoutes(router, NewHandler(f.svc))

	w := testutil.Do(t, engine, http.MethodPost, "/api/v1/projects", "owner", validRequest())
	require.Equal(t, http.StatusCreated, w.Code)

	var created View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "vault-audit", created.Slug)

	bad := validRequest()
	bad.TotalRewardPool = decimal.NewFromInt(1)
	w = testutil.Do(t, engine, http.MethodPost, "/api/v1/projects", "owner", bad)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "validation_failed")

	w = testutil.Do(t, engine, http.MethodGet, "/api/v1/projects?owner_id=me", "owner", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), created.ID)

	w = testutil.Do(t, engine, http.MethodPatch, "/api/v1/projects/"+created.ID+"/status", "peer", UpdateStatusRequest{Status: StatusClosed})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.Do(t, engine, http.MethodGet, "/api/v1/projects/404", "owner", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
