package services

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bounty-payout-system/models"
)

func newEscrowApp(t *testing.T) (*fiber.App, *fixture) {
	t.Helper()
	f := newFixture(t)

	app := fiber.New()
	svc := NewEscrowService(f.svc.Escrow)
	app.Get("/balance", svc.HandleBalance)
	app.Post("/release", svc.HandleRelease)
	return app, f
}

func TestBalanceEndpoint(t *testing.T) {
	app, _ := newEscrowApp(t)

	req := httptest.NewRequest("GET", "/balance", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success    bool   `json:"success"`
		Balance    string `json:"balance"`
		HBDBalance string `json:"hbd_balance"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "0.000 HIVE", body.Balance)
	assert.Equal(t, "100.000 HBD", body.HBDBalance)
}

func TestReleaseEndpoint(t *testing.T) {
	app, f := newEscrowApp(t)

	payload, _ := json.Marshal(map[string]string{
		"to":        "alice",
		"amount":    "30",
		"bountyId":  "b1",
		"requester": "bob",
	})
	req := httptest.NewRequest("POST", "/release", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var res models.TransactionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.Success, res.Message)
	assert.NotEmpty(t, res.TxID)
	assert.Equal(t, 1, f.node.broadcastCount())
}

func TestReleaseEndpointInvalidAmount(t *testing.T) {
	app, f := newEscrowApp(t)

	payload, _ := json.Marshal(map[string]string{
		"to":        "alice",
		"amount":    "-5",
		"bountyId":  "b1",
		"requester": "bob",
	})
	req := httptest.NewRequest("POST", "/release", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	var res models.TransactionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid amount", res.Message)
	assert.Zero(t, f.node.broadcastCount())
}
