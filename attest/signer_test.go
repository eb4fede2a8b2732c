package attest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bounty-payout-system/models"
)

func TestHTTPSignerUnavailable(t *testing.T) {
	signer := NewHTTPSigner("")

	_, err := signer.Sign(context.Background(), SignRequest{
		Principal: "carol",
		Schema:    "bounty_attestation",
		Authority: AuthorityPosting,
		Payload:   json.RawMessage(`{}`),
		Label:     models.AttestBountyCreate,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConfig), "missing signer must be a config failure, not a crash")
}

func TestHTTPSignerSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sign", r.URL.Path)

		var req SignRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "carol", req.Principal)
		assert.Equal(t, models.AttestBountyCreate, req.Label)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":        true,
			"transaction_id": "tx-42",
		})
	}))
	defer server.Close()

	signer := NewHTTPSigner(server.URL)
	res, err := signer.Sign(context.Background(), SignRequest{
		Principal: "carol",
		Schema:    "bounty_attestation",
		Authority: AuthorityPosting,
		Payload:   json.RawMessage(`{"bounty_id":"b1"}`),
		Label:     models.AttestBountyCreate,
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-42", res.TxID)
}

func TestHTTPSignerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "user declined",
		})
	}))
	defer server.Close()

	signer := NewHTTPSigner(server.URL)
	_, err := signer.Sign(context.Background(), SignRequest{
		Principal: "carol",
		Schema:    "bounty_attestation",
		Authority: AuthorityPosting,
		Payload:   json.RawMessage(`{}`),
		Label:     models.AttestBountyClaim,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user declined")
}
