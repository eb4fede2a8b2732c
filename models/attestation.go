package models

import "time"

// Attestation type tags, one per lifecycle transition.
const (
	AttestBountyCreate  = "bounty_create"
	AttestBountyClaim   = "bounty_claim"
	AttestBountyApprove = "bounty_approve"
	AttestBountyPay     = "bounty_pay"
)

// Attestation is one signed, immutable record of a bounty state transition.
// Rows are append-only; Seq preserves per-bounty ordering.
type Attestation struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	BountyID  string    `gorm:"index;not null" json:"bounty_id"`
	Type      string    `gorm:"not null" json:"type"`
	Payload   string    `gorm:"type:text" json:"payload"`
	Signer    string    `gorm:"not null" json:"signer"`
	TxID      string    `gorm:"not null" json:"tx_id"`
	Seq       int       `gorm:"not null" json:"seq"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Payout states.
const (
	PayoutStatusSubmitted = "submitted"
	PayoutStatusConfirmed = "confirmed"
	PayoutStatusFailed    = "failed"
)

// Payout is the idempotency record for a fund release: one row per
// bounty+event, unique-indexed, written before the transfer is submitted.
// A second release for the same key is refused, so a client-side retry
// after a timeout cannot double-pay.
type Payout struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	BountyID  string    `gorm:"uniqueIndex:idx_payout_bounty_event;not null" json:"bounty_id"`
	Event     string    `gorm:"uniqueIndex:idx_payout_bounty_event;not null" json:"event"`
	ToAccount string    `gorm:"not null" json:"to_account"`
	Amount    string    `gorm:"not null" json:"amount"`
	Requester string    `json:"requester"`
	TxID      string    `json:"tx_id,omitempty"`
	Status    string    `gorm:"index;not null" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
