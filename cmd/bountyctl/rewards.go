package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"bountyhub/services/reward"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Fixture is a store-free snapshot of projects, their issues and reporters.
type Fixture struct {
	Projects []reward.ProjectIssues `yaml:"projects"`
	Users    []reward.User          `yaml:"users"`
}

func (f *Fixture) userMap() map[string]reward.User {
	out := make(map[string]reward.User, len(f.Users))
	for _, u := range f.Users {
		out[u.ID] = u
	}
	return out
}

func (f *Fixture) project(id string) (reward.ProjectIssues, error) {
	if len(f.Projects) == 0 {
		return reward.ProjectIssues{}, fmt.Errorf("fixture has no projects")
	}
	if id == "" {
		return f.Projects[0], nil
	}
	for _, p := range f.Projects {
		if p.Project.ID == id {
			return p, nil
		}
	}
	return reward.ProjectIssues{}, fmt.Errorf("project %q not in fixture", id)
}

func loadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}

	// issues inherit the project they are listed under
	for i := range f.Projects {
		for j := range f.Projects[i].Issues {
			if f.Projects[i].Issues[j].ProjectID == "" {
				f.Projects[i].Issues[j].ProjectID = f.Projects[i].Project.ID
			}
		}
	}
	return &f, nil
}

type rewardsFlags struct {
	view     string
	project  string
	reporter string
}

func newRewardsCmd() *cobra.Command {
	f := &rewardsFlags{}

	cmd := &cobra.Command{
		Use:   "rewards <fixture.yaml>",
		Short: "Compute reward views from a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := loadFixture(args[0])
			if err != nil {
				return err
			}
			return runRewards(cmd.OutOrStdout(), fixture, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.view, "view", "leaderboard", "View: leaderboard, settlement, breakdown or dashboard")
	flags.StringVar(&f.project, "project", "", "Project id (default: first project in the fixture)")
	flags.StringVar(&f.reporter, "reporter", "", "Reporter id, required for the dashboard view")

	return cmd
}

func runRewards(w io.Writer, fixture *Fixture, f *rewardsFlags) error {
	var out any

	switch f.view {
	case "dashboard":
		if f.reporter == "" {
			return fmt.Errorf("--reporter is required for the dashboard view")
		}
		out = reward.Dashboard(f.reporter, fixture.Projects)
	case "leaderboard", "settlement", "breakdown":
		p, err := fixture.project(f.project)
		if err != nil {
			return err
		}
		users := fixture.userMap()
		switch f.view {
		case "leaderboard":
			out = reward.Leaderboard(p.Project, p.Issues, users)
		case "settlement":
			entries := reward.Settlement(p.Project, p.Issues, users)
			out = map[string]any{
				"entries":         entries,
				"total_payout":    reward.TotalPayout(entries),
				"missing_wallets": reward.MissingWallets(entries),
			}
		default:
			out = reward.Breakdown(p.Project, p.Issues, users)
		}
	default:
		return fmt.Errorf("unknown view %q", f.view)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
