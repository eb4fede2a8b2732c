// Package escrow holds custody of pooled bounty funds. It is the only
// component with money-movement authority: one guarded release operation,
// serialized per custodial account so the balance check and the transfer
// it protects cannot interleave with another payout.
package escrow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bounty-payout-system/ledger"
	"bounty-payout-system/models"
)

// Gateway fronts the custodial escrow account.
type Gateway struct {
	Account string // custodial account name; empty disables everything
	Wif     string // custodial active key; empty disables payouts only
	Ledger  *ledger.Client
	DB      *gorm.DB

	// Serializes the balance check + transfer pair. One custodial account
	// per process, so a single lock is the per-account lock.
	mu sync.Mutex
}

func NewGateway(account, wif string, lc *ledger.Client, db *gorm.DB) *Gateway {
	return &Gateway{Account: account, Wif: wif, Ledger: lc, DB: db}
}

// Balance reads the custodial account's liquid balances.
func (g *Gateway) Balance(ctx context.Context) (ledger.Balance, error) {
	if g.Account == "" {
		return ledger.Balance{}, fmt.Errorf("custodial account not configured: %w", models.ErrConfig)
	}

	bal, err := g.Ledger.AccountBalance(ctx, g.Account)
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("escrow balance unavailable: %w", errors.Join(models.ErrUpstream, err))
	}
	return bal, nil
}

// ReleaseRequest describes one payout from escrow.
type ReleaseRequest struct {
	To        string
	Amount    string // bare decimal, HBD
	BountyID  string
	Requester string
	Memo      string
	Event     string // idempotency event tag, defaults to bounty_pay
}

// ReleaseFunds moves funds from the custodial account to the recipient.
// Preconditions: positive decimal amount, signing credential loaded,
// custodial balance >= amount, and no prior payout recorded for the same
// bounty+event. Any precondition failure returns success=false with a
// specific message and submits nothing. On success exactly one transfer is
// submitted and the ledger transaction id is returned.
func (g *Gateway) ReleaseFunds(ctx context.Context, req ReleaseRequest) models.TransactionResult {
	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		return models.Fail("Invalid amount")
	}
	if req.To == "" {
		return models.Fail("Recipient account is required")
	}
	if req.BountyID == "" {
		return models.Fail("Bounty id is required")
	}
	if req.Requester == "" {
		return models.Fail("Requester is required")
	}
	if g.Account == "" {
		return models.Fail("Custodial escrow account is not configured")
	}
	if g.Wif == "" {
		return models.Fail("Payouts are disabled: custodial signing key is not configured")
	}

	event := req.Event
	if event == "" {
		event = models.AttestBountyPay
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Refuse a second release for the same bounty+event before touching
	// the ledger, so a client retry after a timeout cannot double-pay.
	var prior models.Payout
	err = g.DB.Where("bounty_id = ? AND event = ? AND status <> ?",
		req.BountyID, event, models.PayoutStatusFailed).First(&prior).Error
	switch {
	case err == nil:
		return models.Failf("A payout for bounty %s (%s) was already submitted (tx %s)", req.BountyID, event, prior.TxID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		log.Printf("❌ [ESCROW] payout lookup failed for bounty %s: %v", req.BountyID, err)
		return models.Fail("Could not verify payout history")
	}

	bal, err := g.Ledger.AccountBalance(ctx, g.Account)
	if err != nil {
		log.Printf("❌ [ESCROW] balance check failed for %s: %v", g.Account, err)
		return models.Fail("Could not verify escrow balance")
	}
	if bal.HBD.LessThan(amount) {
		return models.Failf("Insufficient escrow balance: have %s, need %s",
			ledger.FormatAsset(bal.HBD, "HBD"), ledger.FormatAsset(amount, "HBD"))
	}

	payout := models.Payout{
		ID:        uuid.NewString(),
		BountyID:  req.BountyID,
		Event:     event,
		ToAccount: req.To,
		Amount:    amount.StringFixed(ledger.AssetPrecision),
		Requester: req.Requester,
		Status:    models.PayoutStatusSubmitted,
	}
	if err := g.DB.Create(&payout).Error; err != nil {
		log.Printf("❌ [ESCROW] failed to record payout for bounty %s: %v", req.BountyID, err)
		return models.Fail("Could not record payout")
	}

	memo := req.Memo
	if memo == "" {
		memo = fmt.Sprintf("Bounty payout %s (requested by %s)", req.BountyID, req.Requester)
	}

	txID, err := g.Ledger.BroadcastTransfer(ctx, ledger.Transfer{
		From:   g.Account,
		To:     req.To,
		Amount: ledger.FormatAsset(amount, "HBD"),
		Memo:   memo,
	}, g.Wif)
	if err != nil {
		g.DB.Model(&payout).Update("status", models.PayoutStatusFailed)
		log.Printf("❌ [ESCROW] transfer submission failed for bounty %s: %v", req.BountyID, err)
		return models.TransactionResult{
			Success:       false,
			Message:       "Transfer submission failed; the payout may or may not have reached the ledger and requires operator follow-up",
			NeedsFollowUp: true,
		}
	}

	g.DB.Model(&payout).Updates(map[string]any{
		"tx_id":  txID,
		"status": models.PayoutStatusConfirmed,
	})

	log.Printf("✅ [ESCROW] released %s HBD to %s for bounty %s (tx %s)",
		amount.StringFixed(ledger.AssetPrecision), req.To, req.BountyID, txID)

	return models.Succeed(txID, "Funds released")
}
