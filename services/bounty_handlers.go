package services

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"bounty-payout-system/models"
)

// HTTP handlers for the bounty lifecycle. The requester principal comes
// from the gateway-provided user context, never from the request body.

func requester(c *fiber.Ctx) string {
	if v, ok := c.Locals("user_id").(string); ok {
		return v
	}
	return ""
}

// HandleCreateBounty handles POST /bounties.
func (s *BountyService) HandleCreateBounty(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		IssueURL    string `json:"issue_url"`
		PrizePool   string `json:"prize_pool"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("Invalid request body"))
	}

	res := s.CreateBounty(c.Context(), CreateBountyInput{
		Creator:     requester(c),
		Title:       req.Title,
		Description: req.Description,
		IssueURL:    req.IssueURL,
		PrizePool:   req.PrizePool,
	})
	return c.Status(resultStatus(res, fiber.StatusCreated)).JSON(res)
}

// HandleClaimBounty handles POST /bounties/:id/claim.
func (s *BountyService) HandleClaimBounty(c *fiber.Ctx) error {
	var req struct {
		PullRequestURL string `json:"pull_request_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("Invalid request body"))
	}

	res := s.ClaimBounty(c.Context(), ClaimBountyInput{
		BountyID:       c.Params("id"),
		Solver:         requester(c),
		PullRequestURL: req.PullRequestURL,
	})
	return c.Status(resultStatus(res, fiber.StatusOK)).JSON(res)
}

// HandleApproveAndPay handles POST /bounties/:id/approve.
func (s *BountyService) HandleApproveAndPay(c *fiber.Ctx) error {
	res := s.ApproveAndPay(c.Context(), ApproveAndPayInput{
		BountyID: c.Params("id"),
		Caller:   requester(c),
	})
	return c.Status(resultStatus(res, fiber.StatusOK)).JSON(res)
}

// HandleRejectClaim handles POST /bounties/:id/reject.
func (s *BountyService) HandleRejectClaim(c *fiber.Ctx) error {
	res := s.RejectClaim(c.Context(), c.Params("id"), requester(c))
	return c.Status(resultStatus(res, fiber.StatusOK)).JSON(res)
}

// HandleCancelBounty handles POST /bounties/:id/cancel.
func (s *BountyService) HandleCancelBounty(c *fiber.Ctx) error {
	res := s.CancelBounty(c.Context(), c.Params("id"), requester(c))
	return c.Status(resultStatus(res, fiber.StatusOK)).JSON(res)
}

// HandleListBounties handles GET /bounties with an optional status filter.
func (s *BountyService) HandleListBounties(c *fiber.Ctx) error {
	query := s.DB.Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var bounties []models.BountyProgram
	if err := query.Find(&bounties).Error; err != nil {
		log.Printf("❌ [BOUNTY] failed to list bounties: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.Fail("Failed to fetch bounties"))
	}
	return c.JSON(bounties)
}

// HandleGetBounty handles GET /bounties/:id, returning the bounty with its
// claims and attestation trail.
func (s *BountyService) HandleGetBounty(c *fiber.Ctx) error {
	var bounty models.BountyProgram
	if err := s.DB.First(&bounty, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.Fail("Bounty not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(models.Fail("DB error"))
	}

	var claims []models.BountyClaim
	if err := s.DB.Where("bounty_id = ?", bounty.ID).Order("submitted_at ASC").Find(&claims).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.Fail("DB error"))
	}

	attestations, err := s.Log.ForBounty(bounty.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.Fail("DB error"))
	}

	return c.JSON(fiber.Map{
		"bounty":       bounty,
		"claims":       claims,
		"attestations": attestations,
	})
}

// resultStatus maps a TransactionResult onto an HTTP status. A failed
// operation still answers 200: the result object carries success=false and
// the message.
func resultStatus(res models.TransactionResult, okStatus int) int {
	if res.Success {
		return okStatus
	}
	return fiber.StatusOK
}
