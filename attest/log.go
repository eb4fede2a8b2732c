package attest

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bounty-payout-system/models"
)

// Log persists attestation records. Append-only: there is no update or
// delete path, and Seq preserves ordering between records of one bounty.
type Log struct {
	DB *gorm.DB
}

func NewLog(db *gorm.DB) *Log {
	return &Log{DB: db}
}

// Append writes one attestation row with the next per-bounty sequence
// number. The read and the insert run in a single transaction.
func (l *Log) Append(bountyID, attestType, payload, signer, txID string) (*models.Attestation, error) {
	rec := models.Attestation{
		ID:       uuid.NewString(),
		BountyID: bountyID,
		Type:     attestType,
		Payload:  payload,
		Signer:   signer,
		TxID:     txID,
	}

	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var maxSeq int
		if err := tx.Model(&models.Attestation{}).
			Where("bounty_id = ?", bountyID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}
		rec.Seq = maxSeq + 1
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append attestation for bounty %s: %w", bountyID, err)
	}

	return &rec, nil
}

// ForBounty returns all attestations of a bounty in append order.
func (l *Log) ForBounty(bountyID string) ([]models.Attestation, error) {
	var recs []models.Attestation
	if err := l.DB.Where("bounty_id = ?", bountyID).Order("seq ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
