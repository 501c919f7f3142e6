package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAllowlist(t *testing.T) {
	tests := []struct {
		raw     string
		org     string
		permits bool
	}{
		{raw: "", org: "anyone", permits: true},
		{raw: "all", org: "anyone", permits: true},
		{raw: "acme, all", org: "anyone", permits: true},
		{raw: "acme,globex", org: "Acme", permits: true},
		{raw: "acme,globex", org: " globex ", permits: true},
		{raw: "acme,globex", org: "initech", permits: false},
		{raw: "acme", org: "", permits: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw+"/"+tt.org, func(t *testing.T) {
			require.Equal(t, tt.permits, ParseAllowlist(tt.raw).Permits(tt.org))
		})
	}

	require.Equal(t, []string{"acme", "globex"}, ParseAllowlist("globex, ACME").Organizations())
	require.Nil(t, ParseAllowlist("all").Organizations())
}

func TestOrganizationsRoundTrip(t *testing.T) {
	require.Equal(t, []string{"acme", "globex"}, ParseOrganizations(" acme ,, globex ,"))
	require.Empty(t, ParseOrganizations(""))
	require.Equal(t, "acme,globex", JoinOrganizations([]string{" acme", "", "globex "}))
	require.Equal(t, "", JoinOrganizations(nil))
}

func TestCanViewProject(t *testing.T) {
	owner := Viewer{UserID: "owner", Organization: "acme"}
	peer := Viewer{UserID: "peer", Organization: "acme"}
	partner := Viewer{UserID: "partner", Organization: "globex"}
	stranger := Viewer{UserID: "stranger"}

	base := ProjectAccess{OwnerID: "owner", OwnerOrganization: "acme"}

	public := base
	public.Visibility = VisibilityPublic
	require.True(t, CanViewProject(stranger, public))

	private := base
	private.Visibility = VisibilityPrivate
	require.True(t, CanViewProject(owner, private))
	require.False(t, CanViewProject(peer, private))

	orgDefault := base
	orgDefault.Visibility = VisibilityOrganization
	require.True(t, CanViewProject(peer, orgDefault))
	require.False(t, CanViewProject(partner, orgDefault))
	require.False(t, CanViewProject(stranger, orgDefault))

	orgList := orgDefault
	orgList.AllowedOrganizations = []string{"globex"}
	require.True(t, CanViewProject(partner, orgList))
	require.False(t, CanViewProject(peer, orgList))
	require.True(t, CanViewProject(owner, orgList))
}
