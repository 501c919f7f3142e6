package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
projects:
  - project:
      id: p1
      title: Bridge
      reward_currency: TON
      reward_distribution:
        critical: 600
        high: 300
        medium: 100
    issues:
      - {id: i1, reporter_id: alice, severity: high, status: solved}
      - {id: i2, reporter_id: alice, severity: high, status: solved}
      - {id: i3, reporter_id: bob, severity: high, status: acknowledged}
      - {id: i4, reporter_id: bob, severity: critical, status: open}
      - {id: i5, reporter_id: carol, severity: medium, status: invalid}
users:
  - {id: alice, username: alice, wallet_address: EQalice}
  - {id: bob, username: bob}
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o600))
	return path
}

func run(t *testing.T, args ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRewardsCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return buf.Bytes()
}

func TestLoadFixture(t *testing.T) {
	f, err := loadFixture(writeFixture(t))
	require.NoError(t, err)
	require.Len(t, f.Projects, 1)
	require.Equal(t, "p1", f.Projects[0].Issues[0].ProjectID)
	require.True(t, decimal.NewFromInt(300).Equal(f.Projects[0].Project.Distribution["high"]))

	_, err = f.project("missing")
	require.Error(t, err)
}

func TestRewards_Settlement(t *testing.T) {
	out := run(t, "--view", "settlement", writeFixture(t))

	var got struct {
		Entries []struct {
			UserID        string          `json:"user_id"`
			WalletAddress *string         `json:"wallet_address"`
			TotalReward   decimal.Decimal `json:"total_reward"`
		} `json:"entries"`
		TotalPayout    decimal.Decimal `json:"total_payout"`
		MissingWallets int             `json:"missing_wallets"`
	}
	require.NoError(t, json.Unmarshal(out, &got))
	require.Len(t, got.Entries, 2)
	require.Equal(t, "alice", got.Entries[0].UserID)
	require.True(t, decimal.NewFromInt(200).Equal(got.Entries[0].TotalReward))
	require.Nil(t, got.Entries[1].WalletAddress)
	require.True(t, decimal.NewFromInt(300).Equal(got.TotalPayout))
	require.Equal(t, 1, got.MissingWallets)
}

func TestRewards_Dashboard(t *testing.T) {
	out := run(t, "--view", "dashboard", "--reporter", "bob", writeFixture(t))

	var got struct {
		ByCurrency map[string]struct {
			Earned  decimal.Decimal `json:"earned"`
			Pending decimal.Decimal `json:"pending"`
		} `json:"by_currency"`
	}
	require.NoError(t, json.Unmarshal(out, &got))
	require.True(t, decimal.NewFromInt(100).Equal(got.ByCurrency["TON"].Earned))
	require.True(t, decimal.Zero.Equal(got.ByCurrency["TON"].Pending))
}

func TestRewards_Errors(t *testing.T) {
	path := writeFixture(t)

	for _, args := range [][]string{
		{"--view", "dashboard", path},
		{"--view", "bogus", path},
		{"--project", "missing", path},
		{filepath.Join(t.TempDir(), "absent.yaml")},
	} {
		cmd := newRewardsCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		require.Error(t, cmd.Execute(), "args %v", args)
	}
}
