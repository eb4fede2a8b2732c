package models

import "time"

// Bounty lifecycle states. Transitions are monotonic except
// CLAIMED -> OPEN (claim rejected) and any -> CANCELLED.
const (
	BountyStatusOpen      = "OPEN"
	BountyStatusClaimed   = "CLAIMED"
	BountyStatusApproved  = "APPROVED"
	BountyStatusPaid      = "PAID"
	BountyStatusCancelled = "CANCELLED"
)

// BountyProgram is a funded development bounty tied to a GitHub issue.
// The prize pool is held by the custodial escrow account until payout.
type BountyProgram struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Slug        string    `gorm:"index" json:"slug"`
	Creator     string    `gorm:"index;not null" json:"creator"` // Hive account funding the bounty
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description,omitempty"`
	IssueURL    string    `gorm:"not null" json:"issue_url"`
	PrizePool   string    `gorm:"not null" json:"prize_pool"` // fixed-point HBD amount, e.g. "30.000"
	Status      string    `gorm:"index;not null" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	ClaimStatusActive   = "active"
	ClaimStatusRejected = "rejected"
)

// BountyClaim records a solver's submission against a bounty. At most one
// active claim exists per bounty; rejected claims are kept for the audit
// trail.
type BountyClaim struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	BountyID       string    `gorm:"index;not null" json:"bounty_id"`
	Solver         string    `gorm:"not null" json:"solver"` // Hive account receiving the payout
	PullRequestURL string    `gorm:"not null" json:"pull_request_url"`
	MergeCommitSHA string    `json:"merge_commit_sha,omitempty"`
	PRAuthor       string    `json:"pr_author,omitempty"` // GitHub login of the PR author
	Status         string    `gorm:"index;not null" json:"status"`
	SubmittedAt    time.Time `gorm:"autoCreateTime" json:"submitted_at"`
}
