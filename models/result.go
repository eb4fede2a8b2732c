package models

import (
	"errors"
	"fmt"
)

// TransactionResult is returned by every state-changing operation. Partial
// success (e.g. attested but not paid) is Success=false with NeedsFollowUp
// set and the attestation transaction id included, so an operator can tell
// "nothing happened" from "something happened, intervention needed".
type TransactionResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TxID          string `json:"transaction_id,omitempty"`
	NeedsFollowUp bool   `json:"needs_follow_up,omitempty"`
}

func Succeed(txID, msg string) TransactionResult {
	return TransactionResult{Success: true, Message: msg, TxID: txID}
}

func Fail(msg string) TransactionResult {
	return TransactionResult{Success: false, Message: msg}
}

func Failf(format string, args ...any) TransactionResult {
	return TransactionResult{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Error kinds used across components. Public operations never leak these
// to API callers; they are folded into a TransactionResult at the boundary.
var (
	ErrConfig            = errors.New("configuration missing")
	ErrValidation        = errors.New("validation failed")
	ErrUpstream          = errors.New("upstream service failure")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// GuardError identifies which claim-verification precondition failed. The
// message is user-facing and names the guard, e.g. "The issue must be
// closed before claiming the bounty".
type GuardError struct {
	Guard   string
	Message string
}

func (e *GuardError) Error() string { return e.Message }

// Guard names, in the order claim verification runs them.
const (
	GuardSameRepo    = "same_repo"
	GuardIssueClosed = "issue_closed"
	GuardPRMerged    = "pr_merged"
	GuardPRAuthor    = "pr_author"
	GuardPRLinked    = "pr_linked"
)
