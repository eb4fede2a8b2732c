// Package attest produces the signed, append-only record of bounty state
// transitions. The signer itself is an environment-provided capability; the
// state machine only depends on the Signer interface and waits on its
// single completion before any transfer step begins.
package attest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"bounty-payout-system/models"
)

// SignRequest is one labeled JSON payload submitted for signing under a
// named schema and authority level.
type SignRequest struct {
	Principal string          `json:"principal"`
	Schema    string          `json:"schema"`
	Authority string          `json:"authority"`
	Payload   json.RawMessage `json:"payload"`
	Label     string          `json:"label"`
}

// SignResult carries the transaction id of the signed record.
type SignResult struct {
	TxID string `json:"transaction_id"`
}

// Signer is the injected signing capability. Implementations must return
// exactly once per call: either a result or an error, never both, never a
// hang without bound.
type Signer interface {
	Sign(ctx context.Context, req SignRequest) (SignResult, error)
}

// Authority levels understood by the signer service.
const (
	AuthorityPosting = "posting"
	AuthorityActive  = "active"
)

// HTTPSigner submits sign requests to an external signing service. A
// missing URL means the capability is absent from this environment; Sign
// then fails fast with a config error instead of crashing or hanging.
type HTTPSigner struct {
	URL        string
	HTTPClient *http.Client
}

func NewHTTPSigner(url string) *HTTPSigner {
	return &HTTPSigner{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type signResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Error         string `json:"error,omitempty"`
}

func (s *HTTPSigner) Sign(ctx context.Context, req SignRequest) (SignResult, error) {
	if s.URL == "" {
		return SignResult{}, fmt.Errorf("signing capability unavailable: %w", models.ErrConfig)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return SignResult{}, fmt.Errorf("failed to marshal sign request: %w", err)
	}

	var out signResponse
	call := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL+"/sign", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := s.HTTPClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("signer request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("failed to read signer response: %w", err)
		}

		if resp.StatusCode >= 500 {
			return fmt.Errorf("signer returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("signer returned status %d: %s", resp.StatusCode, string(respBody)))
		}

		if err := json.Unmarshal(respBody, &out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse signer response: %w", err))
		}
		if !out.Success {
			return backoff.Permanent(fmt.Errorf("signer rejected request: %s", out.Error))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 60 * time.Second
	if err := backoff.Retry(call, backoff.WithContext(backoff.WithMaxRetries(policy, 3), ctx)); err != nil {
		return SignResult{}, fmt.Errorf("attestation signing failed: %w", err)
	}

	return SignResult{TxID: out.TransactionID}, nil
}
