package handlers

import (
	"bounty-payout-system/middleware"
	"bounty-payout-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBountyRoutes(app *fiber.App, bountyService *services.BountyService) {
	// Read-only routes need the API key only (enforced globally).
	app.Get("/bounties", bountyService.HandleListBounties)
	app.Get("/bounties/:id", bountyService.HandleGetBounty)

	// State-changing routes require the gateway-provided user context.
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/bounties", bountyService.HandleCreateBounty)
	secured.Post("/bounties/:id/claim", bountyService.HandleClaimBounty)
	secured.Post("/bounties/:id/approve", bountyService.HandleApproveAndPay)
	secured.Post("/bounties/:id/reject", bountyService.HandleRejectClaim)
	secured.Post("/bounties/:id/cancel", bountyService.HandleCancelBounty)
}
