package handlers

import (
	"bounty-payout-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupEscrowRoutes(app *fiber.App, escrowService *services.EscrowService) {
	app.Get("/balance", escrowService.HandleBalance)
	app.Post("/release", escrowService.HandleRelease)
}
