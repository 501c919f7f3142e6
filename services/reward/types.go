package reward

import (
	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Severities lists the reward tiers from highest to lowest.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

type Status string

const (
	StatusOpen         Status = "open"
	StatusInProgress   Status = "in_progress"
	StatusSolved       Status = "solved"
	StatusAcknowledged Status = "acknowledged"
	StatusInvalid      Status = "invalid"
	StatusDuplicated   Status = "duplicated"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusSolved, StatusAcknowledged, StatusInvalid, StatusDuplicated:
		return true
	}
	return false
}

// Qualifying reports whether an issue in this status earns a share of the pool.
func (s Status) Qualifying() bool {
	return s == StatusSolved || s == StatusAcknowledged
}

// Pending reports whether an issue in this status may still qualify.
func (s Status) Pending() bool {
	return s == StatusOpen || s == StatusInProgress
}

type Currency string

const (
	CurrencyTON  Currency = "TON"
	CurrencyUSDC Currency = "USDC"
)

// Currencies lists every reward currency a project may use.
var Currencies = []Currency{CurrencyTON, CurrencyUSDC}

func (c Currency) Valid() bool {
	return c == CurrencyTON || c == CurrencyUSDC
}

// Normalize folds unknown or empty currencies into TON.
func (c Currency) Normalize() Currency {
	if c.Valid() {
		return c
	}
	return CurrencyTON
}

// Distribution maps a severity tier to its pool (or, after RewardPerIssue,
// to the share paid for each issue in that tier).
type Distribution map[Severity]decimal.Decimal

// Total sums every tier of the distribution.
func (d Distribution) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range d {
		total = total.Add(amount)
	}
	return total
}

// Counts maps a severity tier to a number of issues.
type Counts map[Severity]int

type Issue struct {
	ID         string   `json:"id" yaml:"id"`
	ProjectID  string   `json:"project_id" yaml:"project_id"`
	ReporterID string   `json:"reporter_id" yaml:"reporter_id"`
	Severity   Severity `json:"severity" yaml:"severity"`
	Status     Status   `json:"status" yaml:"status"`
}

// Project is the reward configuration of a single project.
type Project struct {
	ID           string       `json:"id" yaml:"id"`
	Title        string       `json:"title" yaml:"title"`
	Distribution Distribution `json:"reward_distribution" yaml:"reward_distribution"`
	Currency     Currency     `json:"reward_currency" yaml:"reward_currency"`
}

// User carries the reporter fields joined into leaderboard and settlement rows.
type User struct {
	ID            string  `json:"id" yaml:"id"`
	Username      string  `json:"username" yaml:"username"`
	AvatarURL     string  `json:"avatar_url" yaml:"avatar_url"`
	WalletAddress *string `json:"wallet_address" yaml:"wallet_address"`
}

// ProjectIssues pairs a project with its complete issue set.
type ProjectIssues struct {
	Project Project `json:"project" yaml:"project"`
	Issues  []Issue `json:"issues" yaml:"issues"`
}

// IssueCounts holds per-tier counts of qualifying issues for one reporter.
type IssueCounts struct {
	Critical int `json:"critical_issues"`
	High     int `json:"high_issues"`
	Medium   int `json:"medium_issues"`
	Low      int `json:"low_issues"`
}

func (c *IssueCounts) add(s Severity) {
	switch s {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	case SeverityLow:
		c.Low++
	}
}
