package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bounty-payout-system/attest"
	"bounty-payout-system/config"
	"bounty-payout-system/escrow"
	"bounty-payout-system/github"
	"bounty-payout-system/handlers"
	"bounty-payout-system/ledger"
	"bounty-payout-system/middleware"
	"bounty-payout-system/models"
	"bounty-payout-system/services"
	"bounty-payout-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB, JSON payloads only
	})

	// 🔐 GLOBAL: every request must carry the shared-secret API key.
	app.Use(middleware.APIKeyMiddleware(cfg.APIKey))

	allowedOriginsList := strings.Split(cfg.AllowedOrigins, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Api-Key, X-User-ID, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.BountyProgram{},
		&models.BountyClaim{},
		&models.Attestation{},
		&models.Payout{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ledgerClient := ledger.NewClient(cfg.HiveAPIURL, cfg.BroadcastProxyURL)
	githubClient := github.NewClient(cfg.GithubToken).WithBaseURL(cfg.GithubAPIURL)
	signer := attest.NewHTTPSigner(cfg.SignerServiceURL)

	archive, err := attest.NewArchive(cfg)
	if err != nil {
		log.Fatal("failed to initialize attestation archive:", err)
	}

	gateway := escrow.NewGateway(cfg.CustodialAccount, cfg.CustodialActiveWif, ledgerClient, db)
	attestLog := attest.NewLog(db)

	bountyService := services.NewBountyService(db, githubClient, gateway, signer, attestLog, archive, ledgerClient, cfg.CustodialAccount)
	escrowService := services.NewEscrowService(gateway)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	balanceWorker := workers.NewBalanceWorker(gateway)
	go balanceWorker.Poll(ctx, 60*time.Second)

	bountyService.StartReconciliationScheduler()

	handlers.SetupEscrowRoutes(app, escrowService)
	handlers.SetupBountyRoutes(app, bountyService)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s", cfg.ListenAddr)
	log.Println("✅ Escrow balance polling running (every 60s)")
	log.Println("✅ Payout reconciliation scheduler running (every 5m)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)
	if cfg.PayoutEnabled() {
		log.Printf("✅ Payouts enabled from custodial account %q", cfg.CustodialAccount)
	} else {
		log.Println("⚠️  Payouts disabled: custodial account or active key not configured (balance inquiry still available)")
	}

	<-ctx.Done()
	log.Println("Shutting down server...")
}
