package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"bounty-payout-system/models"
)

// StartReconciliationScheduler periodically surfaces states that need an
// operator: payouts whose submission failed, and bounties stuck APPROVED
// (attested but unpaid). It never moves funds on its own.
func (s *BountyService) StartReconciliationScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			var failed []models.Payout
			if err := s.DB.Where("status = ?", models.PayoutStatusFailed).Find(&failed).Error; err != nil {
				log.Printf("[Reconcile] DB error: %v", err)
				return
			}
			for _, p := range failed {
				log.Printf("⚠️  [Reconcile] payout for bounty %s (%s HBD to %s) failed — manual follow-up required",
					p.BountyID, p.Amount, p.ToAccount)
			}

			var stuck []models.BountyProgram
			if err := s.DB.Where("status = ?", models.BountyStatusApproved).Find(&stuck).Error; err != nil {
				log.Printf("[Reconcile] DB error: %v", err)
				return
			}
			for _, b := range stuck {
				log.Printf("⚠️  [Reconcile] bounty %s is approved but unpaid — manual follow-up required", b.ID)
			}
		}),
	)
}
