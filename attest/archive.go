package attest

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"bounty-payout-system/config"
)

// Archive copies signed attestation payloads into an R2 bucket as a
// secondary audit trail. Archival is best-effort: a failed upload is
// logged and never fails the attestation it mirrors.
type Archive struct {
	client *s3.Client
	bucket string
}

// NewArchive builds an R2-backed archive from config, or nil when the
// archive bucket is not configured.
func NewArchive(cfg *config.Config) (*Archive, error) {
	if !cfg.ArchiveEnabled() {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.R2AccessKeyID, cfg.R2AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &Archive{client: client, bucket: cfg.R2Bucket}, nil
}

// Store uploads one attestation payload under attestations/{bountyID}/{txID}.json.
func (a *Archive) Store(ctx context.Context, bountyID, txID string, payload []byte) {
	if a == nil {
		return
	}

	key := fmt.Sprintf("attestations/%s/%s.json", bountyID, txID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		log.Printf("⚠️  [ARCHIVE] failed to archive attestation %s: %v", key, err)
		return
	}
	log.Printf("📦 [ARCHIVE] stored attestation %s", key)
}
