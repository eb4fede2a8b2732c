package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"bounty-payout-system/attest"
	"bounty-payout-system/escrow"
	"bounty-payout-system/github"
	"bounty-payout-system/ledger"
	"bounty-payout-system/models"
)

// BountyService owns the bounty lifecycle: OPEN -> CLAIMED -> APPROVED ->
// PAID, with CLAIMED -> OPEN on claim rejection. Every transition is
// attested before any funds move, and the attestation result is observed
// before a transfer step begins. Safe for concurrent use across distinct
// bounty ids; the escrow gateway serializes payouts from the custodial
// account.
type BountyService struct {
	DB            *gorm.DB
	GitHub        *github.Client
	Escrow        *escrow.Gateway
	Signer        attest.Signer
	Log           *attest.Log
	Archive       *attest.Archive
	Ledger        *ledger.Client
	EscrowAccount string
}

func NewBountyService(db *gorm.DB, gh *github.Client, esc *escrow.Gateway, signer attest.Signer, alog *attest.Log, archive *attest.Archive, lc *ledger.Client, escrowAccount string) *BountyService {
	return &BountyService{
		DB:            db,
		GitHub:        gh,
		Escrow:        esc,
		Signer:        signer,
		Log:           alog,
		Archive:       archive,
		Ledger:        lc,
		EscrowAccount: escrowAccount,
	}
}

type CreateBountyInput struct {
	Creator     string
	Title       string
	Description string
	IssueURL    string
	PrizePool   string // bare decimal, HBD
}

// CreateBounty validates the creator can fund the prize pool BEFORE any
// attestation is written, so a failed precondition has no side effects.
// If attestation succeeds but escrow funding fails, the bounty stays
// recorded and the result flags operator follow-up; the append-only
// attestation log is never compensated.
func (s *BountyService) CreateBounty(ctx context.Context, in CreateBountyInput) models.TransactionResult {
	if in.Creator == "" || in.Title == "" || in.IssueURL == "" || in.PrizePool == "" {
		return models.Fail("Creator, title, issue URL and prize pool are required")
	}

	prize, err := ledger.ParseAmount(in.PrizePool)
	if err != nil {
		return models.Fail("Invalid prize pool amount")
	}

	issueRef, ok := github.ParseRepoURL(in.IssueURL)
	if !ok || issueRef.IsPull {
		return models.Fail("Invalid GitHub issue URL")
	}

	if s.EscrowAccount == "" {
		return models.Fail("Custodial escrow account is not configured")
	}

	// Funding precondition, checked before attestation to avoid creating
	// an attested-but-unfunded bounty.
	bal, err := s.Ledger.AccountBalance(ctx, in.Creator)
	if err != nil {
		log.Printf("❌ [BOUNTY] creator balance check failed for %s: %v", in.Creator, err)
		return models.Fail("Could not verify creator balance")
	}
	if bal.HBD.LessThan(prize) {
		return models.Fail("Insufficient balance to fund the bounty")
	}

	bounty := models.BountyProgram{
		ID:          uuid.NewString(),
		Slug:        slug.Make(in.Title),
		Creator:     in.Creator,
		Title:       in.Title,
		Description: in.Description,
		IssueURL:    in.IssueURL,
		PrizePool:   prize.StringFixed(ledger.AssetPrecision),
		Status:      models.BountyStatusOpen,
	}

	payload := mustJSON(map[string]any{
		"bounty_id":  bounty.ID,
		"creator":    bounty.Creator,
		"title":      bounty.Title,
		"issue_url":  bounty.IssueURL,
		"prize_pool": bounty.PrizePool,
	})

	signed, err := s.Signer.Sign(ctx, attest.SignRequest{
		Principal: in.Creator,
		Schema:    "bounty_attestation",
		Authority: attest.AuthorityPosting,
		Payload:   payload,
		Label:     models.AttestBountyCreate,
	})
	if err != nil {
		return models.Fail(signerFailureMessage(err))
	}

	if err := s.DB.Create(&bounty).Error; err != nil {
		log.Printf("❌ [BOUNTY] failed to record bounty after attestation %s: %v", signed.TxID, err)
		return models.TransactionResult{
			Success:       false,
			Message:       fmt.Sprintf("Attestation %s was recorded but the bounty could not be saved; manual follow-up required", signed.TxID),
			TxID:          signed.TxID,
			NeedsFollowUp: true,
		}
	}
	s.appendAttestation(ctx, bounty.ID, models.AttestBountyCreate, payload, in.Creator, signed.TxID)

	// Fund the prize pool: creator -> escrow, signed by the creator's own
	// environment capability.
	fundPayload := mustJSON(ledger.Transfer{
		From:   in.Creator,
		To:     s.EscrowAccount,
		Amount: ledger.FormatAsset(prize, "HBD"),
		Memo:   fmt.Sprintf("Bounty funding %s", bounty.ID),
	})
	funded, err := s.Signer.Sign(ctx, attest.SignRequest{
		Principal: in.Creator,
		Schema:    "transfer_operation",
		Authority: attest.AuthorityActive,
		Payload:   fundPayload,
		Label:     "bounty_fund",
	})
	if err != nil {
		log.Printf("⚠️  [BOUNTY] bounty %s attested (tx %s) but funding failed: %v", bounty.ID, signed.TxID, err)
		return models.TransactionResult{
			Success:       false,
			Message:       fmt.Sprintf("Bounty created and attested (tx %s) but escrow funding failed; manual follow-up required", signed.TxID),
			TxID:          signed.TxID,
			NeedsFollowUp: true,
		}
	}

	log.Printf("✅ [BOUNTY] created %s (%s HBD, issue %s, funding tx %s)", bounty.ID, bounty.PrizePool, in.IssueURL, funded.TxID)
	return models.Succeed(funded.TxID, fmt.Sprintf("Bounty %s created and funded", bounty.ID))
}

type ClaimBountyInput struct {
	BountyID       string
	Solver         string
	PullRequestURL string
}

// ClaimBounty runs the four verification guards strictly in order —
// same-repository, issue-closed, PR-merged, PR-linked — and short-circuits
// on the first failure with a message naming the failed guard. A rejected
// claim leaves the bounty OPEN and writes nothing.
func (s *BountyService) ClaimBounty(ctx context.Context, in ClaimBountyInput) models.TransactionResult {
	if in.Solver == "" {
		return models.Fail("Solver account is required")
	}

	var bounty models.BountyProgram
	if err := s.DB.First(&bounty, "id = ?", in.BountyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Fail("Bounty not found")
		}
		return models.Fail("Could not load bounty")
	}
	if bounty.Status != models.BountyStatusOpen {
		return models.Fail("Bounty is not open for claims")
	}

	prRef, ok := github.ParseRepoURL(in.PullRequestURL)
	if !ok || !prRef.IsPull {
		return models.Fail("Invalid pull request URL")
	}
	issueRef, ok := github.ParseRepoURL(bounty.IssueURL)
	if !ok {
		return models.Fail("Bounty issue URL is invalid")
	}

	pr, verr := s.verifyClaim(ctx, issueRef, prRef)
	if verr != nil {
		var guard *models.GuardError
		if errors.As(verr, &guard) {
			log.Printf("🚫 [CLAIM] bounty %s rejected at guard %s", bounty.ID, guard.Guard)
			return models.Fail(guard.Message)
		}
		log.Printf("❌ [CLAIM] verification failed for bounty %s: %v", bounty.ID, verr)
		return models.Fail(verr.Error())
	}

	mergeSHA := ""
	if pr.MergeCommitSHA != nil {
		mergeSHA = *pr.MergeCommitSHA
	}

	payload := mustJSON(map[string]any{
		"bounty_id":        bounty.ID,
		"solver":           in.Solver,
		"pull_request_url": in.PullRequestURL,
		"merge_commit_sha": mergeSHA,
		"pr_author":        pr.User.Login,
	})
	signed, err := s.Signer.Sign(ctx, attest.SignRequest{
		Principal: in.Solver,
		Schema:    "bounty_attestation",
		Authority: attest.AuthorityPosting,
		Payload:   payload,
		Label:     models.AttestBountyClaim,
	})
	if err != nil {
		return models.Fail(signerFailureMessage(err))
	}

	claim := models.BountyClaim{
		ID:             uuid.NewString(),
		BountyID:       bounty.ID,
		Solver:         in.Solver,
		PullRequestURL: in.PullRequestURL,
		MergeCommitSHA: mergeSHA,
		PRAuthor:       pr.User.Login,
		Status:         models.ClaimStatusActive,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// One active claim per bounty.
		var count int64
		if err := tx.Model(&models.BountyClaim{}).
			Where("bounty_id = ? AND status = ?", bounty.ID, models.ClaimStatusActive).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("bounty already has an active claim")
		}
		if err := tx.Create(&claim).Error; err != nil {
			return err
		}
		return tx.Model(&bounty).Update("status", models.BountyStatusClaimed).Error
	})
	if err != nil {
		log.Printf("❌ [CLAIM] failed to record claim for bounty %s after attestation %s: %v", bounty.ID, signed.TxID, err)
		return models.TransactionResult{
			Success:       false,
			Message:       fmt.Sprintf("Claim attested (tx %s) but could not be recorded; manual follow-up required", signed.TxID),
			TxID:          signed.TxID,
			NeedsFollowUp: true,
		}
	}
	s.appendAttestation(ctx, bounty.ID, models.AttestBountyClaim, payload, in.Solver, signed.TxID)

	log.Printf("✅ [CLAIM] bounty %s claimed by %s (PR %s)", bounty.ID, in.Solver, in.PullRequestURL)
	return models.Succeed(signed.TxID, "Bounty claimed")
}

// verifyClaim runs the ordered claim guards. It returns a *models.GuardError
// for a failed guard and a plain error for upstream verification failures.
func (s *BountyService) verifyClaim(ctx context.Context, issueRef, prRef *github.RepoRef) (*github.PullRequest, error) {
	if !strings.EqualFold(issueRef.Owner, prRef.Owner) || !strings.EqualFold(issueRef.Repo, prRef.Repo) {
		return nil, &models.GuardError{Guard: models.GuardSameRepo,
			Message: "The issue and pull request must be in the same repository"}
	}

	closed, err := s.GitHub.IsIssueClosed(ctx, issueRef.Owner, issueRef.Repo, issueRef.Number)
	if err != nil {
		return nil, fmt.Errorf("Could not verify issue state")
	}
	if !closed {
		return nil, &models.GuardError{Guard: models.GuardIssueClosed,
			Message: "The issue must be closed before claiming the bounty"}
	}

	pr, err := s.GitHub.PullRequestDetails(ctx, prRef.Owner, prRef.Repo, prRef.Number)
	if err != nil {
		return nil, fmt.Errorf("Could not verify pull request state")
	}
	if !pr.Merged {
		return nil, &models.GuardError{Guard: models.GuardPRMerged,
			Message: "The pull request must be merged"}
	}
	if pr.User == nil || pr.User.Login == "" {
		return nil, &models.GuardError{Guard: models.GuardPRAuthor,
			Message: "The pull request author could not be resolved"}
	}

	linked, err := s.GitHub.IsPRLinkedToIssue(ctx, issueRef.Owner, issueRef.Repo, prRef.Number, issueRef.Number)
	if err != nil {
		return nil, fmt.Errorf("Could not verify the pull request reference")
	}
	if !linked {
		return nil, &models.GuardError{Guard: models.GuardPRLinked,
			Message: "The pull request must reference the issue"}
	}

	return pr, nil
}

type ApproveAndPayInput struct {
	BountyID string
	Caller   string
}

// ApproveAndPay is two-phase: the approval attestation is written first,
// and the transfer only starts after the signing result is observed. A
// phase-1 failure leaves the bounty CLAIMED; a phase-2 failure reports the
// approval's transaction id and flags follow-up — the bounty never shows
// PAID silently.
func (s *BountyService) ApproveAndPay(ctx context.Context, in ApproveAndPayInput) models.TransactionResult {
	var bounty models.BountyProgram
	if err := s.DB.First(&bounty, "id = ?", in.BountyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Fail("Bounty not found")
		}
		return models.Fail("Could not load bounty")
	}
	if bounty.Status != models.BountyStatusClaimed {
		return models.Fail("Bounty is not awaiting approval")
	}
	if bounty.Creator != in.Caller {
		return models.Fail("Only the bounty creator can approve and pay")
	}

	var claim models.BountyClaim
	if err := s.DB.Where("bounty_id = ? AND status = ?", bounty.ID, models.ClaimStatusActive).
		First(&claim).Error; err != nil {
		return models.Fail("No active claim to approve")
	}

	// Phase 1: approval attestation.
	approvePayload := mustJSON(map[string]any{
		"bounty_id": bounty.ID,
		"solver":    claim.Solver,
		"approver":  in.Caller,
		"amount":    bounty.PrizePool,
	})
	approved, err := s.Signer.Sign(ctx, attest.SignRequest{
		Principal: in.Caller,
		Schema:    "bounty_attestation",
		Authority: attest.AuthorityActive,
		Payload:   approvePayload,
		Label:     models.AttestBountyApprove,
	})
	if err != nil {
		// Bounty stays CLAIMED; phase 2 is never attempted.
		return models.Fail(signerFailureMessage(err))
	}
	s.appendAttestation(ctx, bounty.ID, models.AttestBountyApprove, approvePayload, in.Caller, approved.TxID)
	if err := s.DB.Model(&bounty).Update("status", models.BountyStatusApproved).Error; err != nil {
		log.Printf("❌ [APPROVE] failed to mark bounty %s approved: %v", bounty.ID, err)
	}

	// Phase 2: payout from escrow to the solver.
	release := s.Escrow.ReleaseFunds(ctx, escrow.ReleaseRequest{
		To:        claim.Solver,
		Amount:    bounty.PrizePool,
		BountyID:  bounty.ID,
		Requester: in.Caller,
		Event:     models.AttestBountyPay,
	})
	if !release.Success {
		log.Printf("⚠️  [APPROVE] bounty %s approved (tx %s) but payment failed: %s", bounty.ID, approved.TxID, release.Message)
		return models.TransactionResult{
			Success:       false,
			Message:       fmt.Sprintf("Bounty approved (attestation %s) but payment did not complete: %s. Manual follow-up required", approved.TxID, release.Message),
			TxID:          approved.TxID,
			NeedsFollowUp: true,
		}
	}

	// Payment attestation is best-effort; the payout already happened and
	// must be reported either way.
	payPayload := mustJSON(map[string]any{
		"bounty_id":  bounty.ID,
		"solver":     claim.Solver,
		"amount":     bounty.PrizePool,
		"payout_tx":  release.TxID,
		"approve_tx": approved.TxID,
	})
	if paid, err := s.Signer.Sign(ctx, attest.SignRequest{
		Principal: in.Caller,
		Schema:    "bounty_attestation",
		Authority: attest.AuthorityPosting,
		Payload:   payPayload,
		Label:     models.AttestBountyPay,
	}); err != nil {
		log.Printf("⚠️  [PAY] bounty %s paid (tx %s) but pay attestation failed: %v", bounty.ID, release.TxID, err)
	} else {
		s.appendAttestation(ctx, bounty.ID, models.AttestBountyPay, payPayload, in.Caller, paid.TxID)
	}

	if err := s.DB.Model(&bounty).Update("status", models.BountyStatusPaid).Error; err != nil {
		log.Printf("❌ [PAY] failed to mark bounty %s paid: %v", bounty.ID, err)
	}

	log.Printf("✅ [PAY] bounty %s paid to %s (tx %s)", bounty.ID, claim.Solver, release.TxID)
	return models.Succeed(release.TxID, "Bounty approved and paid")
}

// RejectClaim discards the active claim and reopens the bounty. Only the
// creator may reject. No attestation is written and the solver is not
// notified; the bounty is simply OPEN for re-claim.
func (s *BountyService) RejectClaim(ctx context.Context, bountyID, caller string) models.TransactionResult {
	var bounty models.BountyProgram
	if err := s.DB.First(&bounty, "id = ?", bountyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Fail("Bounty not found")
		}
		return models.Fail("Could not load bounty")
	}
	if bounty.Status != models.BountyStatusClaimed {
		return models.Fail("Bounty has no claim to reject")
	}
	if bounty.Creator != caller {
		return models.Fail("Only the bounty creator can reject a claim")
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.BountyClaim{}).
			Where("bounty_id = ? AND status = ?", bountyID, models.ClaimStatusActive).
			Update("status", models.ClaimStatusRejected).Error; err != nil {
			return err
		}
		return tx.Model(&bounty).Update("status", models.BountyStatusOpen).Error
	})
	if err != nil {
		log.Printf("❌ [REJECT] failed to reject claim for bounty %s: %v", bountyID, err)
		return models.Fail("Could not reject the claim")
	}

	log.Printf("↩️  [REJECT] bounty %s claim rejected, bounty reopened", bountyID)
	return models.TransactionResult{Success: true, Message: "Claim rejected, bounty reopened"}
}

// CancelBounty moves an unpaid bounty to CANCELLED. Creator only; PAID and
// APPROVED bounties cannot be cancelled since funds have moved or are
// committed.
func (s *BountyService) CancelBounty(ctx context.Context, bountyID, caller string) models.TransactionResult {
	var bounty models.BountyProgram
	if err := s.DB.First(&bounty, "id = ?", bountyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Fail("Bounty not found")
		}
		return models.Fail("Could not load bounty")
	}
	if bounty.Creator != caller {
		return models.Fail("Only the bounty creator can cancel")
	}
	if bounty.Status != models.BountyStatusOpen && bounty.Status != models.BountyStatusClaimed {
		return models.Fail("Bounty can no longer be cancelled")
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.BountyClaim{}).
			Where("bounty_id = ? AND status = ?", bountyID, models.ClaimStatusActive).
			Update("status", models.ClaimStatusRejected).Error; err != nil {
			return err
		}
		return tx.Model(&bounty).Update("status", models.BountyStatusCancelled).Error
	})
	if err != nil {
		log.Printf("❌ [CANCEL] failed to cancel bounty %s: %v", bountyID, err)
		return models.Fail("Could not cancel the bounty")
	}

	log.Printf("🛑 [CANCEL] bounty %s cancelled by %s", bountyID, caller)
	return models.TransactionResult{Success: true, Message: "Bounty cancelled"}
}

func (s *BountyService) appendAttestation(ctx context.Context, bountyID, attestType string, payload []byte, signer, txID string) {
	if _, err := s.Log.Append(bountyID, attestType, string(payload), signer, txID); err != nil {
		log.Printf("❌ [ATTEST] failed to record %s attestation for bounty %s: %v", attestType, bountyID, err)
	}
	s.Archive.Store(ctx, bountyID, txID, payload)
}

func signerFailureMessage(err error) string {
	if errors.Is(err, models.ErrConfig) {
		return "Attestation signer is unavailable"
	}
	return fmt.Sprintf("Attestation failed: %v", err)
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// All payloads are built from plain maps and structs; this cannot
		// fail at runtime.
		panic(err)
	}
	return b
}
