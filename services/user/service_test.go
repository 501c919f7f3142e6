package user

import (
	"context"
	"net/http"
	"testing"

	"bountyhub/pkg/errutil"
	"bountyhub/services/access"
	"bountyhub/services/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T, allowed string) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &User{})
	return NewService(ServiceParams{DB: db, Allowlist: access.ParseAllowlist(allowed)})
}

func TestSyncProfile_CreateThenUpdate(t *testing.T) {
	svc := newTestService(t, "")
	ctx := context.Background()

	u, err := svc.SyncProfile(ctx, "u1", SyncProfileRequest{Username: "alice", Organization: " acme "})
	require.NoError(t, err)
	require.Equal(t, "acme", u.Organization)

	u, err = svc.SyncProfile(ctx, "u1", SyncProfileRequest{Username: "alice2", Organization: "acme", AvatarURL: "https://a/1.png"})
	require.NoError(t, err)
	require.Equal(t, "alice2", u.Username)
	require.Equal(t, "https://a/1.png", u.AvatarURL)
}

func TestSyncProfile_RejectsOrganization(t *testing.T) {
	svc := newTestService(t, "acme")

	_, err := svc.SyncProfile(context.Background(), "u1", SyncProfileRequest{Username: "eve", Organization: "initech"})
	require.True(t, errutil.Is(err, errutil.StatusForbidden))

	_, err = svc.Get(context.Background(), "u1")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))
}

func TestUpdateWallet(t *testing.T) {
	svc := newTestService(t, "")
	ctx := context.Background()

	_, err := svc.UpdateWallet(ctx, "ghost", "UQ-x")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	_, err = svc.SyncProfile(ctx, "u1", SyncProfileRequest{Username: "alice"})
	require.NoError(t, err)

	u, err := svc.UpdateWallet(ctx, "u1", " UQ-alice ")
	require.NoError(t, err)
	require.NotNil(t, u.WalletAddress)
	require.Equal(t, "UQ-alice", *u.WalletAddress)

	_, err = svc.UpdateWallet(ctx, "u1", "UQ alice")
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))

	u, err = svc.UpdateWallet(ctx, "u1", "")
	require.NoError(t, err)
	require.Nil(t, u.WalletAddress)
}

func TestGetByIDsAndOrganizations(t *testing.T) {
	svc := newTestService(t, "")
	ctx := context.Background()

	for _, p := range []struct{ id, name, org string }{
		{"u1", "alice", "globex"},
		{"u2", "bob", "acme"},
		{"u3", "carol", "acme"},
		{"u4", "dave", ""},
	} {
		_, err := svc.SyncProfile(ctx, p.id, SyncProfileRequest{Username: p.name, Organization: p.org})
		require.NoError(t, err)
	}

	users, err := svc.GetByIDs(ctx, []string{"u1", "u3", "missing"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "carol", users["u3"].Username)

	empty, err := svc.GetByIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	orgs, err := svc.ListOrganizations(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"acme", "globex"}, orgs)
}

func TestHandler_Routes(t *testing.T) {
	svc := newTestService(t, "acme")
	engine, router := testutil.NewTestRouter()
	RegisterRoutes(router, NewHandler(svc))

	w := testutil.Do(t, engine, http.MethodPost, "/api/v1/users/sync", "u1", SyncProfileRequest{Username: "alice", Organization: "acme"})
	require.Equal(t, http.StatusOK, w.Code)

	w = testutil.Do(t, engine, http.MethodPost, "/api/v1/users/sync", "u2", SyncProfileRequest{Username: "eve", Organization: "evil"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.Do(t, engine, http.MethodPut, "/api/v1/users/me/wallet", "u1", UpdateWalletRequest{WalletAddress: "UQ-alice"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"wallet_address":"UQ-alice"`)

	w = testutil.Do(t, engine, http.MethodGet, "/api/v1/organizations", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"organizations":["acme"]}`, w.Body.String())

	w = testutil.Do(t, engine, http.MethodGet, "/api/v1/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
