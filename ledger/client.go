package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
)

const (
	// DefaultTimeout bounds every single RPC round trip.
	DefaultTimeout = 15 * time.Second

	// MaxElapsed caps the total time spent retrying one call.
	MaxElapsed = 45 * time.Second
)

// Client is the underlying Hive ledger client. NodeURL serves read-only
// JSON-RPC queries; ProxyURL accepts signed transfer submissions.
type Client struct {
	NodeURL    string
	ProxyURL   string
	HTTPClient *http.Client
}

func NewClient(nodeURL, proxyURL string) *Client {
	return &Client{
		NodeURL:  nodeURL,
		ProxyURL: proxyURL,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Balance holds the liquid balances of one account.
type Balance struct {
	Hive decimal.Decimal
	HBD  decimal.Decimal
}

// Transfer is one ledger transfer operation.
type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"` // asset string, e.g. "30.000 HBD"
	Memo   string `json:"memo,omitempty"`
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type accountResult struct {
	Name       string `json:"name"`
	Balance    string `json:"balance"`     // "12.345 HIVE"
	HBDBalance string `json:"hbd_balance"` // "67.890 HBD"
}

// AccountBalance reads the liquid HIVE and HBD balances for an account.
func (c *Client) AccountBalance(ctx context.Context, account string) (Balance, error) {
	var accounts []accountResult

	call := func() error {
		raw, err := c.rpc(ctx, "condenser_api.get_accounts", []any{[]string{account}})
		if err != nil {
			return err
		}
		accounts = accounts[:0]
		if err := json.Unmarshal(raw, &accounts); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse account response: %w", err))
		}
		return nil
	}

	if err := backoff.Retry(call, c.retryPolicy(ctx)); err != nil {
		return Balance{}, fmt.Errorf("failed to fetch account %q: %w", account, err)
	}

	if len(accounts) == 0 {
		return Balance{}, fmt.Errorf("account %q not found on ledger", account)
	}

	hive, _, err := ParseAsset(accounts[0].Balance)
	if err != nil {
		return Balance{}, err
	}
	hbd, _, err := ParseAsset(accounts[0].HBDBalance)
	if err != nil {
		return Balance{}, err
	}

	return Balance{Hive: hive, HBD: hbd}, nil
}

type broadcastRequest struct {
	Transfer
	Wif string `json:"wif"`
}

type broadcastResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Error         string `json:"error,omitempty"`
}

// BroadcastTransfer submits one transfer signed by the given credential and
// returns the ledger transaction id. The submission itself is not retried:
// a timed-out broadcast may still have been accepted, and resubmitting
// could double-spend. Callers treat failure here as "unknown, follow up".
func (c *Client) BroadcastTransfer(ctx context.Context, t Transfer, wif string) (string, error) {
	if c.ProxyURL == "" {
		return "", fmt.Errorf("broadcast proxy URL not configured")
	}

	body, err := json.Marshal(broadcastRequest{Transfer: t, Wif: wif})
	if err != nil {
		return "", fmt.Errorf("failed to marshal transfer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ProxyURL+"/broadcast/transfer", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("broadcast request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read broadcast response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("broadcast proxy returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var out broadcastResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to parse broadcast response: %w", err)
	}
	if !out.Success {
		return "", fmt.Errorf("broadcast rejected: %s", out.Error)
	}

	return out.TransactionID, nil
}

func (c *Client) rpc(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to marshal RPC request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.NodeURL, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RPC call %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read RPC response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("node returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var out rpcResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to parse RPC response: %w", err))
	}
	if out.Error != nil {
		return nil, backoff.Permanent(fmt.Errorf("RPC error %d: %s", out.Error.Code, out.Error.Message))
	}

	return out.Result, nil
}

func (c *Client) retryPolicy(ctx context.Context) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = MaxElapsed
	return backoff.WithContext(backoff.WithMaxRetries(policy, 3), ctx)
}
