package services

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"bounty-payout-system/escrow"
	"bounty-payout-system/ledger"
	"bounty-payout-system/models"
)

// EscrowService exposes the escrow gateway over HTTP: balance inquiry and
// the guarded release operation.
type EscrowService struct {
	Gateway *escrow.Gateway
}

func NewEscrowService(gw *escrow.Gateway) *EscrowService {
	return &EscrowService{Gateway: gw}
}

// HandleBalance handles GET /balance.
func (s *EscrowService) HandleBalance(c *fiber.Ctx) error {
	bal, err := s.Gateway.Balance(c.Context())
	if err != nil {
		log.Printf("❌ [BALANCE] %v", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"message": "Escrow balance unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"balance":     ledger.FormatAsset(bal.Hive, "HIVE"),
		"hbd_balance": ledger.FormatAsset(bal.HBD, "HBD"),
	})
}

// HandleRelease handles POST /release.
func (s *EscrowService) HandleRelease(c *fiber.Ctx) error {
	var req struct {
		To        string `json:"to"`
		Amount    string `json:"amount"`
		BountyID  string `json:"bountyId"`
		Requester string `json:"requester"`
		Memo      string `json:"memo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("Invalid request body"))
	}

	res := s.Gateway.ReleaseFunds(c.Context(), escrow.ReleaseRequest{
		To:        req.To,
		Amount:    req.Amount,
		BountyID:  req.BountyID,
		Requester: req.Requester,
		Memo:      req.Memo,
	})
	return c.JSON(res)
}
